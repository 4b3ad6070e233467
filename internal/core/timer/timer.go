// Package timer implements the DIV/TIMA/TMA/TAC timer block (spec §4.7).
// DIV free-runs off the master clock regardless of TAC; TIMA increments at
// one of four configurable rates and requests the Timer interrupt on
// overflow, reloading from TMA.
package timer

import (
	"github.com/bassicali/gem-sub000/internal/core/interrupt"
	"github.com/bassicali/gem-sub000/internal/core/types"
)

// timaPeriod gives the T-cycle period of each of the four TAC-selectable
// rates (4096, 262144, 65536, 16384 Hz at the normal 4.194304 MHz clock).
var timaPeriod = [4]uint16{1024, 16, 64, 256}

// Controller advances by T-cycles, one component in the Tick fan-out of
// spec §2 step 4.
type Controller struct {
	irq *interrupt.Controller

	div  uint16 // internal 16-bit counter; DIV register is its high byte
	tima uint8
	tma  uint8
	tac  uint8

	divAcc  uint16
	timaAcc uint16
}

// New returns a Controller that will request interrupts on irq.
func New(irq *interrupt.Controller) *Controller {
	return &Controller{irq: irq, div: 0xABCC}
}

// Tick advances the timer by n T-cycles (spec §2 step 4: Timer advances by
// M-cycles x 4).
func (c *Controller) Tick(n uint16) {
	for i := uint16(0); i < n; i++ {
		c.div++

		if c.tac&0x04 != 0 {
			c.timaAcc++
			period := timaPeriod[c.tac&0x03]
			if c.timaAcc >= period {
				c.timaAcc -= period
				c.incrementTIMA()
			}
		}
	}
}

func (c *Controller) incrementTIMA() {
	if c.tima == 0xFF {
		c.tima = c.tma
		c.irq.Raise(interrupt.Timer)
	} else {
		c.tima++
	}
}

// Read dispatches a read to one of FF04-FF07.
func (c *Controller) Read(addr uint16) uint8 {
	switch addr {
	case types.DIV:
		return uint8(c.div >> 8)
	case types.TIMA:
		return c.tima
	case types.TMA:
		return c.tma
	case types.TAC:
		return c.tac | 0xF8
	}
	return 0xFF
}

// Write dispatches a write to one of FF04-FF07. A write to DIV from any
// source resets the internal counter to zero (spec §4.7).
func (c *Controller) Write(addr uint16, v uint8) {
	switch addr {
	case types.DIV:
		c.div = 0
		c.timaAcc = 0
	case types.TIMA:
		c.tima = v
	case types.TMA:
		c.tma = v
	case types.TAC:
		c.tac = v & 0x07
	}
}

var _ types.Stater = (*Controller)(nil)

func (c *Controller) Save(s *types.State) {
	s.Write16(c.div)
	s.Write8(c.tima)
	s.Write8(c.tma)
	s.Write8(c.tac)
	s.Write16(c.divAcc)
	s.Write16(c.timaAcc)
}

func (c *Controller) Load(s *types.State) {
	c.div = s.Read16()
	c.tima = s.Read8()
	c.tma = s.Read8()
	c.tac = s.Read8()
	c.divAcc = s.Read16()
	c.timaAcc = s.Read16()
}
