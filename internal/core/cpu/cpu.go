// Package cpu implements the Sharp LR35902 instruction set: fetch/decode/
// execute, the ALU flag formulas, HALT/STOP/EI timing quirks and
// interrupt servicing described in spec §4.1.
package cpu

import (
	"github.com/bassicali/gem-sub000/internal/core/interrupt"
	"github.com/bassicali/gem-sub000/internal/core/mmu"
	"github.com/bassicali/gem-sub000/internal/core/types"
)

// CPU executes guest code against an MMU, raising/servicing interrupts
// through a shared Controller (spec §4.1, §5).
type CPU struct {
	Registers
	PC, SP uint16

	bus *mmu.MMU
	IRQ *interrupt.Controller

	halted  bool
	stopped bool
	haltBug bool

	// imeDelay counts down the instructions-remaining before IME takes
	// effect after EI (spec §4.1: "enables IME only after the next
	// instruction completes"). ImmediateEI, an Open Question the
	// original leaves unresolved, makes that delay configurable instead
	// of hardcoding either behaviour.
	imeDelay int
	ImmediateEI bool

	cycles uint16 // T-cycles consumed by the in-progress Step
}

// New returns a CPU wired to bus and irq. Register/PC/SP reset values
// match the state established by the (unemulated) boot ROM handoff for
// the requested variant (spec §3.1): monochrome leaves A=0x01/F=0xB0/
// DE=0x00D8/HL=0x014D, the colour variant leaves A=0x11/F=0x80/
// DE=0xFF56/HL=0x000D. BC/PC/SP are identical across both.
func New(bus *mmu.MMU, irq *interrupt.Controller, isGBC bool) *CPU {
	regs := Registers{A: 0x01, F: 0xB0, B: 0x00, C: 0x13, D: 0x00, E: 0xD8, H: 0x01, L: 0x4D}
	if isGBC {
		regs = Registers{A: 0x11, F: 0x80, B: 0x00, C: 0x13, D: 0xFF, E: 0x56, H: 0x00, L: 0x0D}
	}
	return &CPU{
		Registers: regs,
		PC:        0x0100,
		SP:        0xFFFE,
		bus:       bus,
		IRQ:       irq,
	}
}

// Step executes one instruction (or one HALT/STOP-idle cycle), services
// a pending interrupt if appropriate, and returns the number of T-cycles
// consumed (spec §2 step 2-4).
func (c *CPU) Step() uint16 {
	c.cycles = 0

	if c.imeDelay > 0 {
		c.imeDelay--
		if c.imeDelay == 0 {
			c.IRQ.IME = true
		}
	}

	switch {
	case c.stopped:
		if c.IRQ.Pending() != 0 {
			c.stopped = false
		}
		c.tick()
	case c.halted:
		if c.IRQ.Pending() != 0 {
			c.halted = false
			c.serviceInterrupt()
		} else {
			c.tick()
		}
	default:
		opcode := c.fetch()
		if c.haltBug {
			c.haltBug = false
			c.PC--
		}
		c.execute(opcode)
		c.serviceInterrupt()
	}

	return c.cycles
}

// serviceInterrupt pushes PC and jumps to the lowest-pending line's
// vector when IME is set (spec §4.1); HALT-wake without IME simply falls
// through without servicing, matching real hardware.
func (c *CPU) serviceInterrupt() {
	if !c.IRQ.IME {
		return
	}
	line, ok := c.IRQ.NextPending()
	if !ok {
		return
	}
	c.IRQ.IME = false
	c.IRQ.Clear(line)

	c.tick() // two internal wait cycles precede the push (spec §4.1: 5 M-cycles total)
	c.tick()
	c.push16(c.PC)
	c.PC = interrupt.Vector[line]
	c.tick()
}

// executeHALT implements the HALT instruction and its well-known bug:
// with IME clear and an interrupt already pending, the following byte is
// fetched twice because PC fails to advance (spec §4.1).
func (c *CPU) executeHALT() {
	if c.IRQ.IME {
		c.halted = true
		return
	}
	if c.IRQ.Pending() != 0 {
		c.haltBug = true
		return
	}
	c.halted = true
}

func (c *CPU) executeSTOP() {
	if c.bus.SpeedSwitchArmed() {
		c.bus.PerformSpeedSwitch()
		return
	}
	c.stopped = true
}

// executeEI arms the IME-enable delay; ImmediateEI lets a build resolve
// the spec's "EI timing" Open Question the other way (see DESIGN.md).
func (c *CPU) executeEI() {
	if c.ImmediateEI {
		c.IRQ.IME = true
		return
	}
	c.imeDelay = 1
}

func (c *CPU) executeDI() {
	c.IRQ.IME = false
	c.imeDelay = 0
}

// tick accounts one M-cycle (4 T-cycles) of elapsed time, the unit every
// memory access and internal delay is charged in (spec §4.1).
func (c *CPU) tick() {
	c.cycles += 4
}

func (c *CPU) fetch() uint8 {
	v := c.bus.Read(c.PC)
	c.PC++
	c.tick()
	return v
}

func (c *CPU) read(addr uint16) uint8 {
	c.tick()
	return c.bus.Read(addr)
}

func (c *CPU) write(addr uint16, v uint8) {
	c.tick()
	c.bus.Write(addr, v)
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(v uint16) {
	c.SP--
	c.write(c.SP, uint8(v>>8))
	c.SP--
	c.write(c.SP, uint8(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.read(c.SP)
	c.SP++
	hi := c.read(c.SP)
	c.SP++
	return uint16(hi)<<8 | uint16(lo)
}

var _ types.Stater = (*CPU)(nil)

func (c *CPU) Save(s *types.State) {
	s.Write8(c.A)
	s.Write8(c.F)
	s.Write8(c.B)
	s.Write8(c.C)
	s.Write8(c.D)
	s.Write8(c.E)
	s.Write8(c.H)
	s.Write8(c.L)
	s.Write16(c.PC)
	s.Write16(c.SP)
	s.WriteBool(c.halted)
	s.WriteBool(c.stopped)
	s.WriteBool(c.haltBug)
	s.Write8(uint8(c.imeDelay))
}

func (c *CPU) Load(s *types.State) {
	c.A = s.Read8()
	c.F = s.Read8()
	c.B = s.Read8()
	c.C = s.Read8()
	c.D = s.Read8()
	c.E = s.Read8()
	c.H = s.Read8()
	c.L = s.Read8()
	c.PC = s.Read16()
	c.SP = s.Read16()
	c.halted = s.ReadBool()
	c.stopped = s.ReadBool()
	c.haltBug = s.ReadBool()
	c.imeDelay = int(s.Read8())
}
