package apu

import "github.com/bassicali/gem-sub000/internal/core/types"

// waveChannel implements channel 3 (spec §4.5): a user-programmable
// 32-sample 4-bit waveform played back from wave RAM (FF30-FF3F).
type waveChannel struct {
	enabled       bool
	dacEnabled    bool
	lengthLoad    uint8
	length        uint16
	lengthEnabled bool

	volumeShift uint8 // 0=mute, 1=100%, 2=50%, 3=25%

	frequency uint16
	freqTimer int
	position  uint8

	ram [16]byte
}

func (c *waveChannel) trigger() {
	c.enabled = c.dacEnabled
	if c.length == 0 {
		c.length = 256
	}
	c.freqTimer = (2048 - int(c.frequency)) * 2
	c.position = 0
}

func (c *waveChannel) lengthStep() {
	if c.lengthEnabled && c.length > 0 {
		c.length--
		if c.length == 0 {
			c.enabled = false
		}
	}
}

func (c *waveChannel) stepFrequency() {
	c.freqTimer--
	if c.freqTimer <= 0 {
		c.freqTimer = (2048 - int(c.frequency)) * 2
		c.position = (c.position + 1) & 31
	}
}

func (c *waveChannel) sample() uint8 {
	b := c.ram[c.position/2]
	if c.position%2 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

func (c *waveChannel) amplitude() float32 {
	if !c.enabled || !c.dacEnabled || c.volumeShift == 0 {
		return 0
	}
	return float32(c.sample()>>(c.volumeShift-1)) / 15
}

func (c *waveChannel) powerOff() {
	ram := c.ram
	*c = waveChannel{ram: ram}
}

func (c *waveChannel) read(offset uint16) uint8 {
	switch offset {
	case 0: // NR30
		v := uint8(0x7F)
		if c.dacEnabled {
			v |= 0x80
		}
		return v
	case 1: // NR31
		return 0xFF
	case 2: // NR32
		return c.volumeShift<<5 | 0x9F
	case 3: // NR33
		return 0xFF
	case 4: // NR34
		v := uint8(0xBF)
		if c.lengthEnabled {
			v |= 0x40
		}
		return v
	}
	return 0xFF
}

func (c *waveChannel) write(offset uint16, v uint8) {
	switch offset {
	case 0:
		c.dacEnabled = v&0x80 != 0
		if !c.dacEnabled {
			c.enabled = false
		}
	case 1:
		c.lengthLoad = v
		c.length = 256 - uint16(c.lengthLoad)
	case 2:
		c.volumeShift = (v >> 5) & 0x03
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

func (c *waveChannel) readRAM(addr uint16) uint8 {
	return c.ram[addr-types.WaveRAMStart]
}

func (c *waveChannel) writeRAM(addr uint16, v uint8) {
	c.ram[addr-types.WaveRAMStart] = v
}

func (c *waveChannel) save(s *types.State) {
	s.WriteBool(c.enabled)
	s.WriteBool(c.dacEnabled)
	s.Write8(c.lengthLoad)
	s.Write16(c.length)
	s.WriteBool(c.lengthEnabled)
	s.Write8(c.volumeShift)
	s.Write16(c.frequency)
	s.Write32(uint32(c.freqTimer))
	s.Write8(c.position)
	s.WriteRaw(c.ram[:])
}

func (c *waveChannel) load(s *types.State) {
	c.enabled = s.ReadBool()
	c.dacEnabled = s.ReadBool()
	c.lengthLoad = s.Read8()
	c.length = s.Read16()
	c.lengthEnabled = s.ReadBool()
	c.volumeShift = s.Read8()
	c.frequency = s.Read16()
	c.freqTimer = int(s.Read32())
	c.position = s.Read8()
	s.ReadInto(c.ram[:])
}
