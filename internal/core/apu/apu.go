// Package apu implements the four-channel audio processing unit behind
// FF10-FF3F (spec §4.5): two square channels (one with frequency sweep),
// a programmable wave channel and a noise/LFSR channel, mixed through
// NR50/NR51 and driven by the 512 Hz frame sequencer.
package apu

import "github.com/bassicali/gem-sub000/internal/core/types"

const (
	// samplePeriod is fixed at 95 T-cycles per output sample (spec §4.5),
	// yielding ~44.1kHz (4194304/95 = 44150Hz) for any consumer built
	// against the conventional 44.1kHz audio pipeline.
	samplePeriod = 95

	frameSequencerPeriod = types.ClockSpeed / 512
)

// AudioQueue is the audio-backend capability consumed by the core (spec
// §6.4): push one interleaved stereo frame of samples.
type AudioQueue interface {
	Push(left, right float32)
}

// APU owns the four channels, the mixer registers and the frame
// sequencer. Tick is driven in T-cycles by Machine alongside the GPU.
type APU struct {
	enabled bool

	square1 squareChannel
	square2 squareChannel
	wave    waveChannel
	noise   noiseChannel

	frameSeqCounter int
	frameSeqStep    uint8
	sampleCounter   int

	vinLeft, vinRight       bool
	volumeLeft, volumeRight uint8
	leftEnable, rightEnable [4]bool

	Queue AudioQueue

	Debug struct {
		ChannelMuted [4]bool
	}
}

// New returns a powered-off APU; NR52 bit 7 must be set by the guest
// before any channel register takes effect (spec §4.5).
func New() *APU {
	a := &APU{}
	a.square1.hasSweep = true
	return a
}

// Tick advances the frame sequencer, all four channels and the sample
// downmix by n T-cycles (spec §2 step 5).
func (a *APU) Tick(n uint16) {
	for i := uint16(0); i < n; i++ {
		a.step()
	}
}

func (a *APU) step() {
	if a.enabled {
		a.frameSeqCounter--
		if a.frameSeqCounter <= 0 {
			a.frameSeqCounter = frameSequencerPeriod
			a.clockFrameSequencer()
			a.frameSeqStep = (a.frameSeqStep + 1) & 7
		}

		a.square1.stepFrequency()
		a.square2.stepFrequency()
		a.wave.stepFrequency()
		a.noise.stepFrequency()
	}

	a.sampleCounter--
	if a.sampleCounter <= 0 {
		a.sampleCounter = samplePeriod
		a.mix()
	}
}

// clockFrameSequencer dispatches the length/sweep/volume steps per the
// fixed 8-step schedule (spec §4.5): length on even steps, sweep on
// steps 2 and 6, volume envelope on step 7.
func (a *APU) clockFrameSequencer() {
	switch a.frameSeqStep {
	case 0, 4:
		a.lengthStep()
	case 2, 6:
		a.lengthStep()
		a.square1.sweepStep()
	case 7:
		a.square1.volumeStep()
		a.square2.volumeStep()
		a.noise.volumeStep()
	}
}

func (a *APU) lengthStep() {
	a.square1.lengthStep()
	a.square2.lengthStep()
	a.wave.lengthStep()
	a.noise.lengthStep()
}

func (a *APU) mix() {
	if a.Queue == nil {
		return
	}
	amps := [4]float32{
		a.square1.amplitude(),
		a.square2.amplitude(),
		a.wave.amplitude(),
		a.noise.amplitude(),
	}

	var left, right float32
	for i, amp := range amps {
		if a.Debug.ChannelMuted[i] {
			continue
		}
		if a.leftEnable[i] {
			left += amp
		}
		if a.rightEnable[i] {
			right += amp
		}
	}

	left = (left / 4) * (float32(a.volumeLeft+1) / 8)
	right = (right / 4) * (float32(a.volumeRight+1) / 8)
	a.Queue.Push(left, right)
}

// Read implements mmu.AudioBus.
func (a *APU) Read(addr uint16) uint8 {
	switch {
	case addr >= types.NR10 && addr <= types.NR14:
		return a.square1.read(addr - types.NR10)
	case addr >= types.NR21 && addr <= types.NR24:
		return a.square2.read(addr - types.NR21 + 1) // NR21 occupies NRx1's slot
	case addr >= types.NR30 && addr <= types.NR34:
		return a.wave.read(addr - types.NR30)
	case addr >= types.NR41 && addr <= types.NR44:
		return a.noise.read(addr - types.NR41 + 1)
	case addr == types.NR50:
		v := a.volumeRight | a.volumeLeft<<4
		if a.vinRight {
			v |= 0x08
		}
		if a.vinLeft {
			v |= 0x80
		}
		return v
	case addr == types.NR51:
		var v uint8
		for i := 0; i < 4; i++ {
			if a.rightEnable[i] {
				v |= 1 << uint(i)
			}
			if a.leftEnable[i] {
				v |= 1 << uint(i+4)
			}
		}
		return v
	case addr == types.NR52:
		v := uint8(0x70)
		if a.enabled {
			v |= 0x80
		}
		if a.square1.enabled {
			v |= 0x01
		}
		if a.square2.enabled {
			v |= 0x02
		}
		if a.wave.enabled {
			v |= 0x04
		}
		if a.noise.enabled {
			v |= 0x08
		}
		return v
	case addr >= types.WaveRAMStart && addr <= types.WaveRAMEnd:
		return a.wave.readRAM(addr)
	}
	return 0xFF
}

// Write implements mmu.AudioBus.
func (a *APU) Write(addr uint16, v uint8) {
	// Wave RAM stays writable while powered down; every other register
	// write except NR52 is ignored per spec §4.5's power-off rule.
	if addr >= types.WaveRAMStart && addr <= types.WaveRAMEnd {
		a.wave.writeRAM(addr, v)
		return
	}

	switch addr {
	case types.NR50:
		if !a.enabled {
			return
		}
		a.volumeRight = v & 0x07
		a.volumeLeft = (v >> 4) & 0x07
		a.vinRight = v&0x08 != 0
		a.vinLeft = v&0x80 != 0
		return
	case types.NR51:
		if !a.enabled {
			return
		}
		for i := 0; i < 4; i++ {
			a.rightEnable[i] = v&(1<<uint(i)) != 0
			a.leftEnable[i] = v&(1<<uint(i+4)) != 0
		}
		return
	case types.NR52:
		wasEnabled := a.enabled
		a.enabled = v&0x80 != 0
		if wasEnabled && !a.enabled {
			a.square1 = squareChannel{hasSweep: true}
			a.square2 = squareChannel{}
			a.wave.powerOff()
			a.noise = noiseChannel{}
			a.leftEnable, a.rightEnable = [4]bool{}, [4]bool{}
			a.volumeLeft, a.volumeRight = 0, 0
		} else if !wasEnabled && a.enabled {
			a.frameSeqStep = 0
		}
		return
	}

	if !a.enabled {
		return
	}

	switch {
	case addr >= types.NR10 && addr <= types.NR14:
		a.square1.write(addr-types.NR10, v)
	case addr >= types.NR21 && addr <= types.NR24:
		a.square2.write(addr-types.NR21+1, v)
	case addr >= types.NR30 && addr <= types.NR34:
		a.wave.write(addr-types.NR30, v)
	case addr >= types.NR41 && addr <= types.NR44:
		a.noise.write(addr-types.NR41+1, v)
	}
}

var _ types.Stater = (*APU)(nil)

func (a *APU) Save(s *types.State) {
	s.WriteBool(a.enabled)
	a.square1.save(s)
	a.square2.save(s)
	a.wave.save(s)
	a.noise.save(s)
	s.Write32(uint32(a.frameSeqCounter))
	s.Write8(a.frameSeqStep)
	s.Write32(uint32(a.sampleCounter))
	s.WriteBool(a.vinLeft)
	s.WriteBool(a.vinRight)
	s.Write8(a.volumeLeft)
	s.Write8(a.volumeRight)
	for i := 0; i < 4; i++ {
		s.WriteBool(a.leftEnable[i])
		s.WriteBool(a.rightEnable[i])
	}
}

func (a *APU) Load(s *types.State) {
	a.enabled = s.ReadBool()
	a.square1.load(s)
	a.square2.load(s)
	a.wave.load(s)
	a.noise.load(s)
	a.frameSeqCounter = int(s.Read32())
	a.frameSeqStep = s.Read8()
	a.sampleCounter = int(s.Read32())
	a.vinLeft = s.ReadBool()
	a.vinRight = s.ReadBool()
	a.volumeLeft = s.Read8()
	a.volumeRight = s.Read8()
	for i := 0; i < 4; i++ {
		a.leftEnable[i] = s.ReadBool()
		a.rightEnable[i] = s.ReadBool()
	}
}
