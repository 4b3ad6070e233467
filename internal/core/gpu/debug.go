package gpu

// The accessors below exist solely for debug-visualisation consumers
// (internal/ppu's tile/tilemap/OAM dumpers) outside internal/core; the
// render pipeline itself never calls them.

// IsGBC reports which palette/VRAM-bank rules the GPU is operating
// under.
func (g *GPU) IsGBC() bool { return g.isGBC }

// LCDC returns the raw LCD control register.
func (g *GPU) LCDC() uint8 { return g.lcdc }

// VRAMBank returns a read-only view of one of the two 8KiB VRAM banks
// (bank 1 only exists on the colour variant).
func (g *GPU) VRAMBank(bank int) *[0x2000]byte { return &g.vram[bank] }

// Sprites returns a snapshot of the 40 decoded OAM entries.
func (g *GPU) Sprites() [40]Sprite { return g.oamDecoded }

// MonoPalette returns the current monochrome colour ramp.
func (g *GPU) MonoPalette() MonochromePalette { return g.mono }

// BGColor resolves a colour-palette/colour-number pair through the
// background CGB palette memory (spec §3.6).
func (g *GPU) BGColor(palette, colorNumber uint8) Color {
	return g.bgPalette.color(palette, colorNumber)
}

// ObjColor resolves a colour-palette/colour-number pair through the
// object CGB palette memory.
func (g *GPU) ObjColor(palette, colorNumber uint8) Color {
	return g.objPalette.color(palette, colorNumber)
}

// TileBytes returns the 16 raw bytes backing tile index in the given
// VRAM bank, addressed the way LCDC bit 4's unsigned addressing mode
// does (tile 0 at 0x8000), so only tiles 0-255 (0x8000-0x8FFF) are
// reachable; signed-mode tiles from 0x9000 up are read through VRAMBank.
func (g *GPU) TileBytes(bank int, tile uint8) [16]byte {
	var out [16]byte
	off := int(tile) * 16
	copy(out[:], g.vram[bank][off:off+16])
	return out
}

// TileMapEntry reads a raw tile-map byte and, on the colour variant, its
// attribute byte, from one of the two 0x9800/0x9C00 tile-map areas (area
// 0 or 1).
func (g *GPU) TileMapEntry(area int, col, row uint8) (tile uint8, attr uint8) {
	base := 0x1800
	if area == 1 {
		base = 0x1C00
	}
	off := base + int(row)*32 + int(col)
	tile = g.vram[0][off]
	if g.isGBC {
		attr = g.vram[1][off]
	}
	return
}
