// Package serial implements the link-cable stub named in spec §1/§4.2:
// link-cable networking is explicitly out of scope, but guest ROMs (test
// ROMs especially) write diagnostic bytes to SB/SC that tooling wants to
// capture.
package serial

import "github.com/bassicali/gem-sub000/internal/core/types"

// Controller holds the SB/SC register pair. No interrupt is ever raised
// and no bytes are ever transmitted anywhere but the in-memory capture
// buffer; an external collaborator may register Sink to observe bytes as
// they're written.
type Controller struct {
	sb uint8
	sc uint8

	// Sink, if non-nil, is called with every byte written to SB
	// immediately after a transfer is requested via SC. This is how test
	// harnesses capture Blargg-style serial output.
	Sink func(b uint8)

	captured []byte
}

// New returns a Controller with no Sink installed.
func New() *Controller {
	return &Controller{}
}

// Read dispatches FF01/FF02.
func (c *Controller) Read(addr uint16) uint8 {
	switch addr {
	case types.SB:
		return c.sb
	case types.SC:
		return c.sc | 0x7E
	}
	return 0xFF
}

// Write dispatches FF01/FF02. Writing SC with the transfer-start bit set
// immediately "completes" the transfer (no link partner exists) and
// invokes Sink.
func (c *Controller) Write(addr uint16, v uint8) {
	switch addr {
	case types.SB:
		c.sb = v
	case types.SC:
		c.sc = v
		if v&0x80 != 0 {
			c.captured = append(c.captured, c.sb)
			if c.Sink != nil {
				c.Sink(c.sb)
			}
			c.sc &^= 0x80
		}
	}
}

// Captured returns every byte transmitted so far, for test capture.
func (c *Controller) Captured() []byte {
	return c.captured
}

var _ types.Stater = (*Controller)(nil)

func (c *Controller) Save(s *types.State) {
	s.Write8(c.sb)
	s.Write8(c.sc)
}

func (c *Controller) Load(s *types.State) {
	c.sb = s.Read8()
	c.sc = s.Read8()
}
