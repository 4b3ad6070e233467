// Package gpu implements the LCD state machine, rendering pipeline, OAM,
// VRAM and DMA engines described in spec §4.4. Mode transitions drive the
// VBlank/LCD-STAT interrupts; Tick is called once per CPU step with the
// T-cycle budget that step consumed (spec §2 step 5).
package gpu

import (
	"github.com/bassicali/gem-sub000/internal/core/interrupt"
	"github.com/bassicali/gem-sub000/internal/core/mmu"
	"github.com/bassicali/gem-sub000/internal/core/types"
	"github.com/bassicali/gem-sub000/pkg/bits"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// Mode is one of the four LCD controller states (spec §4.4).
type Mode uint8

const (
	ModeHBlank Mode = 0
	ModeVBlank Mode = 1
	ModeOAM    Mode = 2
	ModeTransfer Mode = 3
)

const (
	dotsOAM      = 80
	dotsTransfer = 172
	dotsHBlank   = 204
	dotsPerLine  = dotsOAM + dotsTransfer + dotsHBlank // 456
	vblankLines  = 10
)

// Pixel is a single framebuffer cell (spec §3.5): a concrete colour plus
// the two metadata fields the sprite/background priority rule depends on.
// Every background write, including the window pass, must preserve these
// fields so the sprite pass can read them back.
type Pixel struct {
	Color       Color
	ColorNumber uint8 // raw 0..3 index this pixel was drawn from
	BGPriority  bool  // propagated from the BG tile attribute (CGB)
}

// DrawTarget is the draw-target capability consumed by the core (spec
// §6.3): present a finished frame.
type DrawTarget interface {
	Present(frame *[ScreenHeight][ScreenWidth][4]uint8)
}

// GPU owns VRAM, OAM, the palettes and the LCD mode state machine.
type GPU struct {
	irq *interrupt.Controller
	bus *mmu.MMU // read-only handle, used only for DMA source bytes (spec §3.7)

	isGBC bool

	lcdc, stat       uint8
	scy, scx         uint8
	ly, lyc          uint8
	wy, wx           uint8
	bgp, obp0, obp1  uint8
	windowLine       uint8
	windowTriggered  bool

	mode Mode
	dot  uint16

	vram     [2][0x2000]byte
	vramBank uint8

	oamRaw     [40][4]byte
	oamDecoded [40]Sprite

	bgPalette  cgbPaletteMemory
	objPalette cgbPaletteMemory
	mono       MonochromePalette

	screen      [ScreenHeight][ScreenWidth]Pixel
	framebuffer [ScreenHeight][ScreenWidth][4]uint8
	frameReady  bool

	dma  dmaEngine
	hdma hdmaEngine

	Target DrawTarget

	Debug struct {
		BackgroundDisabled bool
		WindowDisabled     bool
		SpritesDisabled    bool
	}
}

// New returns a GPU wired to irq and, for DMA source reads, bus. bus must
// already exist (constructed before the GPU, per spec §3.7's "established
// during setup" ownership note) but its VRAM dispatch is wired back to
// this GPU afterwards via bus.AttachVideo.
func New(irq *interrupt.Controller, bus *mmu.MMU, isGBC bool) *GPU {
	g := &GPU{
		irq:   irq,
		bus:   bus,
		isGBC: isGBC,
		mono:  DefaultMonochromePalette,
		mode:  ModeOAM,
	}
	return g
}

// HasFrame reports whether a new frame has been completed since the last
// ClearFrame call.
func (g *GPU) HasFrame() bool { return g.frameReady }

// ClearFrame acknowledges the completed frame.
func (g *GPU) ClearFrame() { g.frameReady = false }

// Framebuffer returns the most recently completed frame.
func (g *GPU) Framebuffer() *[ScreenHeight][ScreenWidth][4]uint8 { return &g.framebuffer }

// Tick advances the LCD controller by n T-cycles and returns true iff it
// entered VBlank during this call (spec §2: Tick's return value).
func (g *GPU) Tick(n uint16) bool {
	if g.lcdc&0x80 == 0 {
		return false
	}
	enteredVBlank := false
	for i := uint16(0); i < n; i++ {
		if g.step() {
			enteredVBlank = true
		}
	}
	return enteredVBlank
}

func (g *GPU) step() bool {
	g.dot++
	enteredVBlank := false

	switch g.mode {
	case ModeOAM:
		if g.dot >= dotsOAM {
			g.dot = 0
			g.setMode(ModeTransfer)
		}
	case ModeTransfer:
		if g.dot >= dotsTransfer {
			g.dot = 0
			g.renderLine()
			g.setMode(ModeHBlank)
			g.hdma.onHBlankEnter(g)
		}
	case ModeHBlank:
		if g.dot >= dotsHBlank {
			g.dot = 0
			g.incrementLY()
			if g.ly == ScreenHeight {
				g.setMode(ModeVBlank)
				enteredVBlank = true
			} else {
				g.setMode(ModeOAM)
			}
		}
	case ModeVBlank:
		if g.dot >= dotsPerLine {
			g.dot = 0
			g.incrementLY()
			if g.ly > 153 {
				g.ly = 0
				g.windowLine = 0
				g.windowTriggered = false
				g.writeLYCCoincidence()
				g.setMode(ModeOAM)
			}
		}
	}
	return enteredVBlank
}

func (g *GPU) setMode(m Mode) {
	g.mode = m
	g.stat = g.stat&0xFC | uint8(m)

	switch m {
	case ModeVBlank:
		g.irq.Raise(interrupt.VBlank)
		if bits.Test(g.stat, 4) {
			g.irq.Raise(interrupt.LCDStat)
		}
		g.commitFrame()
	case ModeHBlank:
		if bits.Test(g.stat, 3) {
			g.irq.Raise(interrupt.LCDStat)
		}
	case ModeOAM:
		if bits.Test(g.stat, 5) {
			g.irq.Raise(interrupt.LCDStat)
		}
	}
}

func (g *GPU) incrementLY() {
	g.ly++
	g.writeLYCCoincidence()
}

// writeLYCCoincidence implements spec §4.4's LY-LYC rule: on each LY
// increment, set STAT bit 2 iff LY == LYC, raising LCD-STAT when the
// corresponding enable bit is set.
func (g *GPU) writeLYCCoincidence() {
	if g.ly == g.lyc {
		g.stat = bits.Set(g.stat, 2)
		if bits.Test(g.stat, 6) {
			g.irq.Raise(interrupt.LCDStat)
		}
	} else {
		g.stat = bits.Reset(g.stat, 2)
	}
}

func (g *GPU) commitFrame() {
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			c := g.screen[y][x].Color
			g.framebuffer[y][x] = [4]uint8{c.R, c.G, c.B, 0xFF}
		}
	}
	g.frameReady = true
	if g.Target != nil {
		g.Target.Present(&g.framebuffer)
	}
}

// setLCDEnable implements the mid-frame LCD-disable behaviour of spec
// §4.4: parking in mode 0, zeroing LY and the window-line counter, and
// clearing pending LCD-STAT requests, without raising the forced
// transition as an interrupt (scenario S6).
func (g *GPU) setLCDEnable(v bool) {
	wasEnabled := g.lcdc&0x80 != 0
	if wasEnabled && !v {
		g.mode = ModeHBlank
		g.stat = g.stat &^ 0x03
		g.dot = 0
		g.ly = 0
		g.windowLine = 0
		g.windowTriggered = false
		g.irq.Clear(interrupt.LCDStat)
	} else if !wasEnabled && v {
		g.mode = ModeOAM
		g.dot = 0
	}
}

var _ types.Stater = (*GPU)(nil)

func (g *GPU) Save(s *types.State) {
	s.Write8(g.lcdc)
	s.Write8(g.stat)
	s.Write8(g.scy)
	s.Write8(g.scx)
	s.Write8(g.ly)
	s.Write8(g.lyc)
	s.Write8(g.wy)
	s.Write8(g.wx)
	s.Write8(g.bgp)
	s.Write8(g.obp0)
	s.Write8(g.obp1)
	s.Write8(g.windowLine)
	s.WriteBool(g.windowTriggered)
	s.Write8(uint8(g.mode))
	s.Write16(g.dot)
	s.WriteRaw(g.vram[0][:])
	s.WriteRaw(g.vram[1][:])
	s.Write8(g.vramBank)
	for i := range g.oamRaw {
		s.WriteRaw(g.oamRaw[i][:])
	}
	s.WriteRaw(g.bgPalette.raw[:])
	s.WriteRaw(g.objPalette.raw[:])
}

func (g *GPU) Load(s *types.State) {
	g.lcdc = s.Read8()
	g.stat = s.Read8()
	g.scy = s.Read8()
	g.scx = s.Read8()
	g.ly = s.Read8()
	g.lyc = s.Read8()
	g.wy = s.Read8()
	g.wx = s.Read8()
	g.bgp = s.Read8()
	g.obp0 = s.Read8()
	g.obp1 = s.Read8()
	g.windowLine = s.Read8()
	g.windowTriggered = s.ReadBool()
	g.mode = Mode(s.Read8())
	g.dot = s.Read16()
	s.ReadInto(g.vram[0][:])
	s.ReadInto(g.vram[1][:])
	g.vramBank = s.Read8()
	for i := range g.oamRaw {
		s.ReadInto(g.oamRaw[i][:])
		g.oamDecoded[i] = decodeSprite(uint8(i), g.oamRaw[i])
	}
	s.ReadInto(g.bgPalette.raw[:])
	s.ReadInto(g.objPalette.raw[:])
}
