package gpu

import "sort"

// renderLine fills the just-finished scanline (g.ly) into the
// framebuffer in three ordered passes (spec §4.4): background, window,
// sprites. Later passes may overdraw earlier ones.
func (g *GPU) renderLine() {
	y := int(g.ly)
	if y >= ScreenHeight {
		return
	}
	g.renderBackground(y)
	g.renderWindow(y)
	g.renderSprites(y)
}

// tileRowOffset returns the VRAM offset (relative to 0x8000) of the 2-byte
// pixel row for tileNum's row within an 8x8 tile, honouring LCDC bit 4's
// addressing-mode switch (spec §4.4).
func tileRowOffset(unsignedMode bool, tileNum uint8, row uint8) int {
	if unsignedMode {
		return int(tileNum)*16 + int(row)*2
	}
	return 0x1000 + int(int8(tileNum))*16 + int(row)*2
}

func decodeTileRow(lo, hi uint8, flipX bool) [8]uint8 {
	var out [8]uint8
	for col := 0; col < 8; col++ {
		bit := 7 - col
		if flipX {
			bit = col
		}
		l := (lo >> bit) & 1
		h := (hi >> bit) & 1
		out[col] = h<<1 | l
	}
	return out
}

func (g *GPU) renderBackground(y int) {
	if !g.isGBC && g.lcdc&0x01 == 0 {
		for x := 0; x < ScreenWidth; x++ {
			g.screen[y][x] = Pixel{Color: g.mono[0], ColorNumber: 0}
		}
		return
	}
	if g.Debug.BackgroundDisabled {
		return
	}

	tileMapBase := uint16(0x9800)
	if g.lcdc&0x08 != 0 {
		tileMapBase = 0x9C00
	}
	unsignedMode := g.lcdc&0x10 != 0

	bgY := uint8(y) + g.scy
	tileRow := bgY / 8
	lineInTile := bgY % 8

	for x := 0; x < ScreenWidth; x++ {
		bgX := uint8(x) + g.scx
		tileCol := bgX / 8
		pixelCol := bgX % 8

		mapAddr := tileMapBase + uint16(tileRow)*32 + uint16(tileCol)
		tileNum := g.vram[0][mapAddr-0x8000]

		var attr uint8
		bank := uint8(0)
		if g.isGBC {
			attr = g.vram[1][mapAddr-0x8000]
			bank = (attr >> 3) & 1
		}
		flipY := attr&0x40 != 0
		flipX := attr&0x20 != 0

		row := lineInTile
		if flipY {
			row = 7 - row
		}
		off := tileRowOffset(unsignedMode, tileNum, row)
		lo := g.vram[bank][off]
		hi := g.vram[bank][off+1]
		decoded := decodeTileRow(lo, hi, flipX)
		colorNumber := decoded[pixelCol]

		var c Color
		if g.isGBC {
			c = g.bgPalette.color(attr&0x07, colorNumber)
		} else {
			c = g.mono[paletteLookup(g.bgp, colorNumber)]
		}

		g.screen[y][x] = Pixel{
			Color:       c,
			ColorNumber: colorNumber,
			BGPriority:  g.isGBC && attr&0x80 != 0,
		}
	}
}

func (g *GPU) renderWindow(y int) {
	if g.lcdc&0x20 == 0 || g.wy > uint8(y) || g.wx > 166 || g.Debug.WindowDisabled {
		return
	}

	startX := int(g.wx) - 7
	if startX >= ScreenWidth {
		return
	}

	tileMapBase := uint16(0x9800)
	if g.lcdc&0x40 != 0 {
		tileMapBase = 0x9C00
	}
	unsignedMode := g.lcdc&0x10 != 0

	tileRow := g.windowLine / 8
	lineInTile := g.windowLine % 8

	contributed := false
	for x := maxInt(startX, 0); x < ScreenWidth; x++ {
		winX := uint8(x - startX)
		tileCol := winX / 8
		pixelCol := winX % 8

		mapAddr := tileMapBase + uint16(tileRow)*32 + uint16(tileCol)
		tileNum := g.vram[0][mapAddr-0x8000]

		var attr uint8
		bank := uint8(0)
		if g.isGBC {
			attr = g.vram[1][mapAddr-0x8000]
			bank = (attr >> 3) & 1
		}
		flipY := attr&0x40 != 0
		flipX := attr&0x20 != 0

		row := lineInTile
		if flipY {
			row = 7 - row
		}
		off := tileRowOffset(unsignedMode, tileNum, row)
		lo := g.vram[bank][off]
		hi := g.vram[bank][off+1]
		decoded := decodeTileRow(lo, hi, flipX)
		colorNumber := decoded[pixelCol]

		var c Color
		if g.isGBC {
			c = g.bgPalette.color(attr&0x07, colorNumber)
		} else {
			c = g.mono[paletteLookup(g.bgp, colorNumber)]
		}

		g.screen[y][x] = Pixel{
			Color:       c,
			ColorNumber: colorNumber,
			BGPriority:  g.isGBC && attr&0x80 != 0,
		}
		contributed = true
	}

	if contributed {
		g.windowLine++
	}
}

func (g *GPU) renderSprites(y int) {
	if g.lcdc&0x02 == 0 || g.Debug.SpritesDisabled {
		return
	}
	height := int16(8)
	if g.lcdc&0x04 != 0 {
		height = 16
	}

	var candidates []Sprite
	for i := 0; i < 40 && len(candidates) < 10; i++ {
		s := g.oamDecoded[i]
		if int16(y) >= s.Y && int16(y) < s.Y+height {
			candidates = append(candidates, s)
		}
	}

	if !g.isGBC {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].X != candidates[j].X {
				return candidates[i].X < candidates[j].X
			}
			return candidates[i].Index < candidates[j].Index
		})
	}
	// CGB priority is plain OAM index order, which candidates already is.

	forcedOverwrite := g.isGBC && g.lcdc&0x01 == 0

	// Draw lowest-priority sprite first so the highest-priority sprite
	// (lowest X then lowest index on DMG; lowest index on CGB) ends up
	// drawn last and therefore visible (spec §4.4).
	for i := len(candidates) - 1; i >= 0; i-- {
		s := candidates[i]
		row := int16(y) - s.Y
		if s.FlipY {
			row = height - 1 - row
		}

		tile := s.Tile
		if height == 16 {
			if row < 8 {
				tile &^= 0x01
			} else {
				tile |= 0x01
				row -= 8
			}
		}

		off := int(tile)*16 + int(row)*2
		bank := uint8(0)
		if g.isGBC {
			bank = s.VRAMBank
		}
		lo := g.vram[bank][off]
		hi := g.vram[bank][off+1]
		decoded := decodeTileRow(lo, hi, s.FlipX)

		for col := 0; col < 8; col++ {
			screenX := int(s.X) + col
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}
			colorNumber := decoded[col]
			if colorNumber == 0 {
				continue
			}

			bg := g.screen[y][screenX]
			visible := forcedOverwrite ||
				(!(bg.BGPriority && bg.ColorNumber != 0) && (!s.Priority || bg.ColorNumber == 0))
			if !visible {
				continue
			}

			var c Color
			if g.isGBC {
				c = g.objPalette.color(s.CGBPalette, colorNumber)
			} else {
				reg := g.obp0
				if s.MonoPalette == 1 {
					reg = g.obp1
				}
				c = g.mono[paletteLookup(reg, colorNumber)]
			}
			g.screen[y][screenX] = Pixel{Color: c, ColorNumber: colorNumber, BGPriority: bg.BGPriority}
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
