package gpu

// Sprite is the decoded form of a 4-byte OAM entry (spec §3.4). Y and X
// are stored already de-biased (true screen coordinates), since every OAM
// byte write eagerly redecodes the containing entry and the render path
// never re-parses raw bytes.
type Sprite struct {
	Y, X  int16 // de-biased: Y-16, X-8
	Tile  uint8
	Index uint8 // OAM index 0-39, used as the X-tie-break sort key

	Priority    bool // true = sprite drawn behind non-zero BG/window pixels
	FlipY       bool
	FlipX       bool
	MonoPalette uint8 // 0 or 1, selects OBP0/OBP1 (DMG)
	VRAMBank    uint8 // 0 or 1 (CGB only)
	CGBPalette  uint8 // 0-7 (CGB only)
}

// decodeSprite parses the 4 raw OAM bytes for entry i (spec §3.4).
func decodeSprite(i uint8, raw [4]byte) Sprite {
	attr := raw[3]
	return Sprite{
		Y:           int16(raw[0]) - 16,
		X:           int16(raw[1]) - 8,
		Tile:        raw[2],
		Index:       i,
		Priority:    attr&0x80 != 0,
		FlipY:       attr&0x40 != 0,
		FlipX:       attr&0x20 != 0,
		MonoPalette: (attr >> 4) & 0x01,
		VRAMBank:    (attr >> 3) & 0x01,
		CGBPalette:  attr & 0x07,
	}
}
