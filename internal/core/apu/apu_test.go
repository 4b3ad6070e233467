package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassicali/gem-sub000/internal/core/types"
)

type recordingQueue struct {
	samples [][2]float32
}

func (q *recordingQueue) Push(left, right float32) {
	q.samples = append(q.samples, [2]float32{left, right})
}

// TestChannel1ProducesNonSilentSample covers spec.md §8 scenario S3:
// powering the APU on, enabling channel 1's DAC via NR12, routing it to
// both output sides via NR51/NR50, selecting a 50% duty via NR11, setting
// its frequency period to 0x700 and triggering it via NR14 produces a non-silent mixed sample well
// within 1ms of emulated time (spec's 95 T-cycle sample period is far
// under the 4194 T-cycles a millisecond spans at the base clock).
func TestChannel1ProducesNonSilentSample(t *testing.T) {
	a := New()
	q := &recordingQueue{}
	a.Queue = q

	a.Write(types.NR52, 0x80) // power on
	a.Write(types.NR50, 0x77) // max volume both sides
	a.Write(types.NR51, 0x11) // route channel 1 to both left and right
	a.Write(types.NR11, 0x80) // duty 2 (50%)
	a.Write(types.NR12, 0xC0) // volume 12, envelope period 0 (DAC enabled)
	a.Write(types.NR13, 0x00) // frequency period low byte
	a.Write(types.NR14, 0x87) // frequency period high bits (0x700) + trigger

	a.Tick(4194) // ~1ms of emulated time at the base clock

	require.NotEmpty(t, q.samples)
	sawNonSilence := false
	for _, s := range q.samples {
		if s[0] != 0 || s[1] != 0 {
			sawNonSilence = true
			break
		}
	}
	assert.True(t, sawNonSilence, "channel 1 should have produced at least one non-silent sample")
}

// TestPowerOffSilencesRegisters covers spec §4.5's power-off rule: once
// NR52 bit 7 is cleared, channel registers (other than wave RAM) stop
// taking effect and all channels reset.
func TestPowerOffSilencesRegisters(t *testing.T) {
	a := New()
	q := &recordingQueue{}
	a.Queue = q

	a.Write(types.NR52, 0x80)
	a.Write(types.NR12, 0xC0)
	a.Write(types.NR14, 0x87)
	a.Write(types.NR52, 0x00) // power off

	a.Write(types.NR12, 0xC0) // ignored while powered off
	assert.Zero(t, a.square1.startVolume, "NR12 writes should be ignored while powered off")
}
