package apu

import "github.com/bassicali/gem-sub000/internal/core/types"

var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}

// noiseChannel implements channel 4 (spec §4.5): a pseudo-random LFSR
// driven by a clock shift and divisor code, with the same length/volume
// units as the square channels.
type noiseChannel struct {
	enabled    bool
	dacEnabled bool

	lengthLoad    uint8
	length        uint16
	lengthEnabled bool

	startVolume uint8
	addMode     bool
	envPeriod   uint8
	envTimer    uint8
	volume      uint8

	clockShift  uint8
	widthMode   bool // true = 7-bit LFSR
	divisorCode uint8

	freqTimer int
	lfsr      uint16
}

func (c *noiseChannel) trigger() {
	c.enabled = c.dacEnabled
	if c.length == 0 {
		c.length = 64
	}
	c.freqTimer = noiseDivisors[c.divisorCode] << c.clockShift
	c.envTimer = c.envPeriod
	c.volume = c.startVolume
	c.lfsr = 0x7FFF
}

func (c *noiseChannel) lengthStep() {
	if c.lengthEnabled && c.length > 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}
}

func (c *noiseChannel) volumeStep() {
	if c.envPeriod == 0 {
		return
	}
	if c.envTimer > 0 {
		c.envTimer--
	}
	if c.envTimer != 0 {
		return
	}
	c.envTimer = c.envPeriod
	if c.addMode && c.volume < 0xF {
		c.volume++
	} else if !c.addMode && c.volume > 0 {
		c.volume--
	}
}

func (c *noiseChannel) stepFrequency() {
	c.freqTimer--
	if c.freqTimer <= 0 {
		c.freqTimer = noiseDivisors[c.divisorCode] << c.clockShift
		bit := (c.lfsr ^ (c.lfsr >> 1)) & 1
		c.lfsr >>= 1
		c.lfsr |= bit << 14
		if c.widthMode {
			c.lfsr &^= 1 << 6
			c.lfsr |= bit << 6
		}
	}
}

func (c *noiseChannel) amplitude() float32 {
	if !c.enabled || !c.dacEnabled || c.lfsr&1 != 0 {
		return 0
	}
	return float32(c.volume) / 15
}

func (c *noiseChannel) read(offset uint16) uint8 {
	switch offset {
	case 1:
		return 0xFF
	case 2:
		v := c.startVolume<<4 | c.envPeriod
		if c.addMode {
			v |= 0x08
		}
		return v
	case 3:
		v := c.clockShift<<4 | c.divisorCode
		if c.widthMode {
			v |= 0x08
		}
		return v
	case 4:
		v := uint8(0xBF)
		if c.lengthEnabled {
			v |= 0x40
		}
		return v
	}
	return 0xFF
}

func (c *noiseChannel) write(offset uint16, v uint8) {
	switch offset {
	case 1:
		c.lengthLoad = v & 0x3F
		c.length = 64 - uint16(c.lengthLoad)
	case 2:
		c.startVolume = v >> 4
		c.addMode = v&0x08 != 0
		c.envPeriod = v & 0x07
		c.dacEnabled = v&0xF8 != 0
		if !c.dacEnabled {
			c.enabled = false
		}
	case 3:
		c.clockShift = v >> 4
		c.widthMode = v&0x08 != 0
		c.divisorCode = v & 0x07
	case 4:
		c.lengthEnabled = v&0x40 != 0
		if v&0x80 != 0 {
			c.trigger()
		}
	}
}

func (c *noiseChannel) save(s *types.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write8(c.lengthLoad)
	s.Write16(c.length)
	s.WriteBool(c.lengthEnabled)
	s.Write8(c.startVolume)
	s.WriteBool(c.addMode)
	s.Write8(c.envPeriod)
	s.Write8(c.envTimer)
	s.Write8(c.volume)
	s.Write8(c.clockShift)
	s.WriteBool(c.widthMode)
	s.Write8(c.divisorCode)
	s.Write32(uint32(c.freqTimer))
	s.Write16(c.lfsr)
}

func (c *noiseChannel) load(s *types.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.lengthLoad = s.Read8()
	c.length = s.Read16()
	c.lengthEnabled = s.ReadBool()
	c.startVolume = s.Read8()
	c.addMode = s.ReadBool()
	c.envPeriod = s.Read8()
	c.envTimer = s.Read8()
	c.volume = s.Read8()
	c.clockShift = s.Read8()
	c.widthMode = s.ReadBool()
	c.divisorCode = s.Read8()
	c.freqTimer = int(s.Read32())
	c.lfsr = s.Read16()
}
