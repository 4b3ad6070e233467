package apu

import "github.com/bassicali/gem-sub000/internal/core/types"

var dutyTable = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1}, // 12.5%
	{1, 0, 0, 0, 0, 0, 0, 1}, // 25%
	{1, 0, 0, 0, 0, 1, 1, 1}, // 50%
	{0, 1, 1, 1, 1, 1, 1, 0}, // 75%
}

// squareChannel implements channels 1 and 2 (spec §4.5). hasSweep gates
// the frequency-sweep unit, present only on channel 1.
type squareChannel struct {
	hasSweep bool

	enabled    bool
	dacEnabled bool

	duty       uint8
	dutyPos    uint8
	lengthLoad uint8
	length     uint16
	lengthEnabled bool

	startVolume uint8
	addMode     bool
	envPeriod   uint8
	envTimer    uint8
	volume      uint8

	frequency  uint16
	freqTimer  int

	sweepPeriod  uint8
	sweepNegate  bool
	sweepShift   uint8
	sweepTimer   uint8
	sweepEnabled bool
	shadowFreq   uint16
}

func (c *squareChannel) trigger() {
	c.enabled = true
	if c.length == 0 {
		c.length = 64
	}
	c.freqTimer = (2048 - int(c.frequency)) * 4
	c.envTimer = c.envPeriod
	c.volume = c.startVolume
	if !c.dacEnabled {
		c.enabled = false
	}

	if c.hasSweep {
		c.shadowFreq = c.frequency
		c.sweepTimer = c.sweepPeriod
		if c.sweepTimer == 0 {
			c.sweepTimer = 8
		}
		c.sweepEnabled = c.sweepPeriod != 0 || c.sweepShift != 0
		if c.sweepShift != 0 {
			c.sweepCalculate()
		}
	}
}

func (c *squareChannel) sweepCalculate() uint16 {
	delta := c.shadowFreq >> c.sweepShift
	var next uint16
	if c.sweepNegate {
		next = c.shadowFreq - delta
	} else {
		next = c.shadowFreq + delta
	}
	if next > 2047 {
		c.enabled = false
	}
	return next
}

func (c *squareChannel) sweepStep() {
	if !c.hasSweep {
		return
	}
	if c.sweepTimer > 0 {
		c.sweepTimer--
	}
	if c.sweepTimer != 0 {
		return
	}
	c.sweepTimer = c.sweepPeriod
	if c.sweepTimer == 0 {
		c.sweepTimer = 8
	}
	if !c.sweepEnabled || c.sweepPeriod == 0 {
		return
	}
	next := c.sweepCalculate()
	if next <= 2047 && c.sweepShift != 0 {
		c.shadowFreq = next
		c.frequency = next
		c.sweepCalculate()
	}
}

func (c *squareChannel) lengthStep() {
	if c.lengthEnabled && c.length > 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}
}

func (c *squareChannel) volumeStep() {
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

func (c *squareChannel) stepFrequency() {
	c.freqTimer--
	if c.freqTimer <= 0 {
		c.freqTimer = (2048 - int(c.frequency)) * 4
		c.dutyPos = (c.dutyPos + 1) & 7
	}
}

func (c *squareChannel) amplitude() float32 {
	if !c.enabled || !c.dacEnabled {
		return 0
	}
	if dutyTable[c.duty][c.dutyPos] == 0 {
		return 0
	}
	return float32(c.volume) / 15
}

// read/write address the 5 offsets NRx0..NRx4 for channel 1, or the 4
// offsets NRx1..NRx4 (no sweep register) for channel 2.
func (c *squareChannel) read(offset uint16) uint8 {
	switch offset {
	case 0:
		v := (c.sweepPeriod << 4) | c.sweepShift
		if c.sweepNegate {
			v |= 0x08
		}
		return v | 0x80
	case 1:
		return c.duty<<6 | 0x3F
	case 2:
		v := c.startVolume<<4 | c.envPeriod
		if c.addMode {
			v |= 0x08
		}
		return v
	case 3:
		return 0xFF
	case 4:
		v := uint8(0xBF)
		if c.lengthEnabled {
			v |= 0x40
		}
		return v
	}
	return 0xFF
}

func (c *squareChannel) write(offset uint16, v uint8) {
	switch offset {
	case 0:
		c.sweepPeriod = (v >> 4) & 0x07
		c.sweepNegate = v&0x08 != 0
		c.sweepShift = v & 0x07
	case 1:
		c.duty = (v >> 6) & 0x03
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
		c.frequency = c.frequency&0x700 | uint16(v)
	case 4:
		c.frequency = c.frequency&0xFF | uint16(v&0x07)<<8
		c.lengthEnabled = v&0x40 != 0
		if v&0x80 != 0 {
			c.trigger()
		}
	}
}

func (c *squareChannel) save(s *types.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write8(c.duty)
	s.Write8(c.dutyPos)
	s.Write8(c.lengthLoad)
	s.Write16(c.length)
	s.WriteBool(c.lengthEnabled)
	s.Write8(c.startVolume)
	s.WriteBool(c.addMode)
	s.Write8(c.envPeriod)
	s.Write8(c.envTimer)
	s.Write8(c.volume)
	s.Write16(c.frequency)
	s.Write32(uint32(c.freqTimer))
	s.Write8(c.sweepPeriod)
	s.WriteBool(c.sweepNegate)
	s.Write8(c.sweepShift)
	s.Write8(c.sweepTimer)
	s.WriteBool(c.sweepEnabled)
	s.Write16(c.shadowFreq)
}

func (c *squareChannel) load(s *types.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.duty = s.Read8()
	c.dutyPos = s.Read8()
	c.lengthLoad = s.Read8()
	c.length = s.Read16()
	c.lengthEnabled = s.ReadBool()
	c.startVolume = s.Read8()
	c.addMode = s.ReadBool()
	c.envPeriod = s.Read8()
	c.envTimer = s.Read8()
	c.volume = s.Read8()
	c.frequency = s.Read16()
	c.freqTimer = int(s.Read32())
	c.sweepPeriod = s.Read8()
	c.sweepNegate = s.ReadBool()
	c.sweepShift = s.Read8()
	c.sweepTimer = s.Read8()
	c.sweepEnabled = s.ReadBool()
	c.shadowFreq = s.Read16()
}
