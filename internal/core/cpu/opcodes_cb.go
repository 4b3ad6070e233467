package cpu

// executeCB decodes and runs one CB-prefixed opcode (spec §4.1): the
// rotate/shift/swap family, BIT, RES and SET, each addressing one of the
// 8 operand slots (the 6 plain registers, (HL), or A).
func (c *CPU) executeCB(opcode uint8) {
	reg := opcode & 7
	bit := (opcode >> 3) & 7

	switch {
	case opcode&0xC0 == 0x40:
		c.bit(bit, c.getR8(reg))
		return
	case opcode&0xC0 == 0x80:
		c.setR8(reg, res(bit, c.getR8(reg)))
		return
	case opcode&0xC0 == 0xC0:
		c.setR8(reg, set(bit, c.getR8(reg)))
		return
	}

	v := c.getR8(reg)
	switch bit {
	case 0:
		v = c.rlc(v)
	case 1:
		v = c.rrc(v)
	case 2:
		v = c.rl(v)
	case 3:
		v = c.rr(v)
	case 4:
		v = c.sla(v)
	case 5:
		v = c.sra(v)
	case 6:
		v = c.swap(v)
	case 7:
		v = c.srl(v)
	}
	c.setR8(reg, v)
}
