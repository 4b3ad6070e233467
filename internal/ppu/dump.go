// Package ppu provides debug-visualisation dumps of VRAM tile data, the
// two background tile maps, and OAM sprite attributes as images, grounded
// on the teacher repository's PPU.DumpTileMap/DumpTiledata. None of this
// is on the Tick hot path (spec §4.4 render pipeline); it exists purely
// for the tooling named as out-of-scope-but-homed in SPEC_FULL §10-§11.
package ppu

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/bassicali/gem-sub000/internal/core/gpu"
)

// tileRGBA decodes one 8x8 tile's 16 raw bytes into an *image.RGBA using
// resolveColor for the 2-bit colour-number -> Color lookup (spec §4.4's
// "higher bit from the second data byte, the lower bit from the first"
// decode rule).
func tileRGBA(raw [16]byte, resolveColor func(colorNumber uint8) gpu.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		lo, hi := raw[y*2], raw[y*2+1]
		for x := 0; x < 8; x++ {
			bit := uint(7 - x)
			cn := ((hi>>bit)&1)<<1 | (lo>>bit)&1
			c := resolveColor(cn)
			img.Set(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF})
		}
	}
	return img
}

func monoResolver(g *gpu.GPU) func(uint8) gpu.Color {
	pal := g.MonoPalette()
	return func(cn uint8) gpu.Color { return pal[cn&0x03] }
}

// DumpTileData renders the 384 (768 on the colour variant) 8x8 tiles
// packed in VRAM into a single debug image, bank 1's tiles stacked below
// bank 0's, matching the teacher's DumpTiledata layout (32 tiles per row).
func DumpTileData(g *gpu.GPU) image.Image {
	const tilesPerBank = 384
	const cols = 32
	rows := (tilesPerBank + cols - 1) / cols

	banks := 1
	if g.IsGBC() {
		banks = 2
	}

	img := image.NewRGBA(image.Rect(0, 0, cols*8, rows*8*banks))
	resolve := monoResolver(g)
	for bank := 0; bank < banks; bank++ {
		for i := 0; i < tilesPerBank; i++ {
			var raw [16]byte
			copy(raw[:], g.VRAMBank(bank)[i*16:i*16+16])
			tile := tileRGBA(raw, resolve)
			x := (i % cols) * 8
			y := (i/cols)*8 + bank*rows*8
			draw.Draw(img, image.Rect(x, y, x+8, y+8), tile, image.Point{}, draw.Src)
		}
	}
	return img
}

// DumpTileMap renders one of the two background tile maps
// (0x9800-0x9BFF or 0x9C00-0x9FFF) resolved against live VRAM tile data.
func DumpTileMap(g *gpu.GPU, area int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	unsigned := g.LCDC()&0x10 != 0
	resolve := monoResolver(g)

	for row := uint8(0); row < 32; row++ {
		for col := uint8(0); col < 32; col++ {
			tileIdx, _ := g.TileMapEntry(area, col, row)
			var raw [16]byte
			if unsigned {
				raw = g.TileBytes(0, tileIdx)
			} else {
				n := 256 + int(int8(tileIdx)) // signed mode: tile 0 at 0x9000
				copy(raw[:], g.VRAMBank(0)[n*16:n*16+16])
			}
			tile := tileRGBA(raw, resolve)
			x, y := int(col)*8, int(row)*8
			draw.Draw(img, image.Rect(x, y, x+8, y+8), tile, image.Point{}, draw.Src)
		}
	}
	return img
}

// DumpOAM renders the 40 sprite entries' currently selected tile(s) in a
// grid of eight per row, for debugger sprite-viewer panels.
func DumpOAM(g *gpu.GPU) image.Image {
	sprites := g.Sprites()
	img := image.NewRGBA(image.Rect(0, 0, 8*8, 5*8*2))
	resolve := monoResolver(g)
	for i, sp := range sprites {
		raw := g.TileBytes(int(sp.VRAMBank), sp.Tile)
		tile := tileRGBA(raw, resolve)
		x := (i % 8) * 8
		y := (i / 8) * 8
		draw.Draw(img, image.Rect(x, y, x+8, y+8), tile, image.Point{}, draw.Src)
	}
	return img
}

// Scale upscales img by factor using nearest-neighbour sampling, matching
// the blocky look desktop frontends traditionally apply to Game Boy
// output.
func Scale(img image.Image, factor int) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
