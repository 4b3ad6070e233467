package cpu

// execute decodes and runs one unprefixed opcode (spec §4.1). The
// regular instruction blocks (LD r,r'; ALU A,r; INC/DEC r; LD rr,nn;
// ALU A,n) are decoded from their fixed bit-field layout rather than a
// 256-entry table, to keep the ~500-opcode set auditable by formula
// instead of by transcription.
func (c *CPU) execute(opcode uint8) {
	if opcode == 0xCB {
		c.executeCB(c.fetch())
		return
	}

	switch {
	case opcode == 0x76:
		c.executeHALT()
		return
	case opcode >= 0x40 && opcode <= 0x7F:
		dst, src := (opcode>>3)&7, opcode&7
		c.setR8(dst, c.getR8(src))
		return
	case opcode >= 0x80 && opcode <= 0xBF:
		c.aluOp((opcode>>3)&7, c.getR8(opcode&7))
		return
	case opcode&0xC7 == 0x04:
		i := (opcode >> 3) & 7
		c.setR8(i, c.inc8(c.getR8(i)))
		return
	case opcode&0xC7 == 0x05:
		i := (opcode >> 3) & 7
		c.setR8(i, c.dec8(c.getR8(i)))
		return
	case opcode&0xC7 == 0x06:
		i := (opcode >> 3) & 7
		c.setR8(i, c.fetch())
		return
	case opcode&0xCF == 0x01:
		c.setRR16((opcode>>4)&3, c.fetch16())
		return
	case opcode&0xCF == 0x03:
		c.tick()
		c.setRR16((opcode>>4)&3, c.getRR16((opcode>>4)&3)+1)
		return
	case opcode&0xCF == 0x0B:
		c.tick()
		c.setRR16((opcode>>4)&3, c.getRR16((opcode>>4)&3)-1)
		return
	case opcode&0xCF == 0x09:
		c.tick()
		c.addHL(c.getRR16((opcode >> 4) & 3))
		return
	case opcode&0xCF == 0x02:
		c.ldIndirectFromA((opcode >> 4) & 3)
		return
	case opcode&0xCF == 0x0A:
		c.ldAFromIndirect((opcode >> 4) & 3)
		return
	case opcode == 0x18:
		c.jr(true)
		return
	case opcode&0xE7 == 0x20:
		c.jr(c.condition((opcode >> 3) & 3))
		return
	case opcode&0xE7 == 0xC0:
		c.tick()
		if c.condition((opcode >> 3) & 3) {
			c.PC = c.pop16()
			c.tick()
		}
		return
	case opcode&0xE7 == 0xC2:
		c.jp(c.condition((opcode >> 3) & 3))
		return
	case opcode&0xE7 == 0xC4:
		c.call(c.condition((opcode >> 3) & 3))
		return
	case opcode&0xCF == 0xC5:
		c.tick()
		c.push16(c.getRR16Stack((opcode >> 4) & 3))
		return
	case opcode&0xCF == 0xC1:
		c.setRR16Stack((opcode>>4)&3, c.pop16())
		return
	case opcode&0xC7 == 0xC7:
		c.tick()
		c.push16(c.PC)
		c.PC = uint16(opcode & 0x38)
		return
	case opcode&0xC7 == 0xC6:
		c.aluOp((opcode>>3)&7, c.fetch())
		return
	}

	switch opcode {
	case 0x00: // NOP
	case 0x07:
		c.rlca()
	case 0x0F:
		c.rrca()
	case 0x17:
		c.rla()
	case 0x1F:
		c.rra()
	case 0x08:
		addr := c.fetch16()
		c.write(addr, uint8(c.SP))
		c.write(addr+1, uint8(c.SP>>8))
	case 0x10:
		c.fetch() // STOP's padding byte
		c.executeSTOP()
	case 0x27:
		c.daa()
	case 0x2F:
		c.cpl()
	case 0x37:
		c.scf()
	case 0x3F:
		c.ccf()
	case 0xC3:
		addr := c.fetch16()
		c.PC = addr
		c.tick()
	case 0xC9:
		c.PC = c.pop16()
		c.tick()
	case 0xD9:
		c.PC = c.pop16()
		c.IRQ.IME = true
		c.tick()
	case 0xCD:
		c.call(true)
	case 0xE0:
		addr := 0xFF00 + uint16(c.fetch())
		c.write(addr, c.A)
	case 0xF0:
		addr := 0xFF00 + uint16(c.fetch())
		c.A = c.read(addr)
	case 0xE2:
		c.write(0xFF00+uint16(c.C), c.A)
	case 0xF2:
		c.A = c.read(0xFF00 + uint16(c.C))
	case 0xE8:
		c.tick()
		c.tick()
		c.SP = c.addSP16(c.fetch())
	case 0xF8:
		c.tick()
		c.SetHL(c.addSP16(c.fetch()))
	case 0xE9:
		c.PC = c.HL()
	case 0xF9:
		c.tick()
		c.SP = c.HL()
	case 0xEA:
		addr := c.fetch16()
		c.write(addr, c.A)
	case 0xFA:
		addr := c.fetch16()
		c.A = c.read(addr)
	case 0xF3:
		c.executeDI()
	case 0xFB:
		c.executeEI()
	default:
		// Unused/illegal opcode (D3,DB,DD,E3,E4,EB,EC,ED,F4,FC,FD): real
		// hardware locks the CPU. Guest ROMs never intentionally execute
		// these, so this core treats them as a no-op (spec §7,
		// GuestViolation) instead of modelling the lockup.
	}
}

func (c *CPU) aluOp(op, v uint8) {
	switch op {
	case 0:
		c.A = c.add8(c.A, v)
	case 1:
		c.A = c.adc8(c.A, v)
	case 2:
		c.A = c.sub8(c.A, v)
	case 3:
		c.A = c.sbc8(c.A, v)
	case 4:
		c.A = c.and8(c.A, v)
	case 5:
		c.A = c.xor8(c.A, v)
	case 6:
		c.A = c.or8(c.A, v)
	case 7:
		c.cp8(c.A, v)
	}
}

func (c *CPU) getR8(i uint8) uint8 {
	if i == 6 {
		return c.read(c.HL())
	}
	return *c.reg8(i)
}

func (c *CPU) setR8(i uint8, v uint8) {
	if i == 6 {
		c.write(c.HL(), v)
		return
	}
	*c.reg8(i) = v
}

// getRR16/setRR16 address the LD rr,nn / INC rr / DEC rr / ADD HL,rr
// register-pair grouping, where index 3 is SP.
func (c *CPU) getRR16(i uint8) uint16 {
	switch i {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		return c.SP
	}
}

func (c *CPU) setRR16(i uint8, v uint16) {
	switch i {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	default:
		c.SP = v
	}
}

// getRR16Stack/setRR16Stack address the PUSH/POP grouping, where index 3
// is AF instead of SP.
func (c *CPU) getRR16Stack(i uint8) uint16 {
	switch i {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		return c.AF()
	}
}

func (c *CPU) setRR16Stack(i uint8, v uint16) {
	switch i {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	default:
		c.SetAF(v)
	}
}

// ldIndirectFromA/ldAFromIndirect implement LD (BC/DE/HLI/HLD),A and its
// mirror, including the post-access HL increment/decrement.
func (c *CPU) ldIndirectFromA(i uint8) {
	switch i {
	case 0:
		c.write(c.BC(), c.A)
	case 1:
		c.write(c.DE(), c.A)
	case 2:
		hl := c.HL()
		c.write(hl, c.A)
		c.SetHL(hl + 1)
	default:
		hl := c.HL()
		c.write(hl, c.A)
		c.SetHL(hl - 1)
	}
}

func (c *CPU) ldAFromIndirect(i uint8) {
	switch i {
	case 0:
		c.A = c.read(c.BC())
	case 1:
		c.A = c.read(c.DE())
	case 2:
		hl := c.HL()
		c.A = c.read(hl)
		c.SetHL(hl + 1)
	default:
		hl := c.HL()
		c.A = c.read(hl)
		c.SetHL(hl - 1)
	}
}

func (c *CPU) condition(cc uint8) bool {
	switch cc {
	case 0:
		return !c.flag(flagZ)
	case 1:
		return c.flag(flagZ)
	case 2:
		return !c.flag(flagC)
	default:
		return c.flag(flagC)
	}
}

func (c *CPU) jr(taken bool) {
	offset := c.fetch()
	if taken {
		c.PC = uint16(int32(c.PC) + int32(int8(offset)))
		c.tick()
	}
}

func (c *CPU) jp(taken bool) {
	addr := c.fetch16()
	if taken {
		c.PC = addr
		c.tick()
	}
}

func (c *CPU) call(taken bool) {
	addr := c.fetch16()
	if taken {
		c.tick()
		c.push16(c.PC)
		c.PC = addr
	}
}
