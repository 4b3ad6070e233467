package gpu

import "github.com/bassicali/gem-sub000/internal/core/types"

// Read implements mmu.VideoBus: VRAM (8000-9FFF), OAM (FE00-FE9F), and the
// FF40-FF4B / FF4F / FF51-FF55 / FF68-FF6B register windows (spec §4.2).
func (g *GPU) Read(addr uint16) uint8 {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		// VRAM is freely readable outside mode 3 on real hardware; the
		// core does not enforce that restriction (spec treats mode-gated
		// VRAM/OAM access as a GuestViolation it may simply not model,
		// favouring guest-ROM compatibility over strict lockout).
		return g.vram[g.vramBank][addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		i := (addr - 0xFE00) / 4
		b := (addr - 0xFE00) % 4
		return g.oamRaw[i][b]
	case addr == types.LCDC:
		return g.lcdc
	case addr == types.STAT:
		return g.stat | 0x80
	case addr == types.SCY:
		return g.scy
	case addr == types.SCX:
		return g.scx
	case addr == types.LY:
		return g.ly
	case addr == types.LYC:
		return g.lyc
	case addr == types.DMA:
		return g.dma.source
	case addr == types.BGP:
		return g.bgp
	case addr == types.OBP0:
		return g.obp0
	case addr == types.OBP1:
		return g.obp1
	case addr == types.WY:
		return g.wy
	case addr == types.WX:
		return g.wx
	case addr == types.VBK:
		return g.vramBank | 0xFE
	case addr == types.HDMA1, addr == types.HDMA2, addr == types.HDMA3, addr == types.HDMA4:
		return 0xFF // write-only
	case addr == types.HDMA5:
		return g.hdma.status()
	case addr == types.BCPS:
		return g.bgPalette.readIndex()
	case addr == types.BCPD:
		return g.bgPalette.readData()
	case addr == types.OCPS:
		return g.objPalette.readIndex()
	case addr == types.OCPD:
		return g.objPalette.readData()
	}
	return 0xFF
}

// Write implements mmu.VideoBus.
func (g *GPU) Write(addr uint16, v uint8) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		g.vram[g.vramBank][addr-0x8000] = v
	case addr >= 0xFE00 && addr <= 0xFE9F:
		i := (addr - 0xFE00) / 4
		b := (addr - 0xFE00) % 4
		g.oamRaw[i][b] = v
		// Spec §3.4: every OAM byte write eagerly redecodes the
		// containing sprite entry; the render path never re-parses.
		g.oamDecoded[i] = decodeSprite(uint8(i), g.oamRaw[i])
	case addr == types.LCDC:
		g.setLCDEnable(v&0x80 != 0)
		g.lcdc = v
	case addr == types.STAT:
		g.stat = g.stat&0x07 | (v &^ 0x07)
	case addr == types.SCY:
		g.scy = v
	case addr == types.SCX:
		g.scx = v
	case addr == types.LY:
		g.ly = 0 // read-only from the guest; a write resets it (spec §6.6)
	case addr == types.LYC:
		g.lyc = v
		g.writeLYCCoincidence()
	case addr == types.DMA:
		g.startOAMDMA(v)
	case addr == types.BGP:
		g.bgp = v
	case addr == types.OBP0:
		g.obp0 = v
	case addr == types.OBP1:
		g.obp1 = v
	case addr == types.WY:
		g.wy = v
	case addr == types.WX:
		g.wx = v
	case addr == types.VBK:
		if g.isGBC {
			g.vramBank = v & 0x01
		}
	case addr == types.HDMA1:
		g.hdma.src = g.hdma.src&0x00FF | uint16(v)<<8
	case addr == types.HDMA2:
		g.hdma.src = g.hdma.src&0xFF00 | uint16(v&0xF0)
	case addr == types.HDMA3:
		g.hdma.dst = g.hdma.dst&0x00FF | uint16(v&0x1F)<<8
	case addr == types.HDMA4:
		g.hdma.dst = g.hdma.dst&0xFF00 | uint16(v&0xF0)
	case addr == types.HDMA5:
		g.startHDMA(g, v)
	case addr == types.BCPS:
		g.bgPalette.writeIndex(v)
	case addr == types.BCPD:
		g.bgPalette.writeData(v)
	case addr == types.OCPS:
		g.objPalette.writeIndex(v)
	case addr == types.OCPD:
		g.objPalette.writeData(v)
	}
}
