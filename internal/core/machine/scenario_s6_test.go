package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassicali/gem-sub000/internal/core/interrupt"
	"github.com/bassicali/gem-sub000/internal/core/types"
)

// TestLCDDisableDuringTransferParksInHBlank covers spec.md §8 scenario S6:
// clearing LCDC bit 7 while the GPU is mid pixel-transfer (mode 3) parks
// it in mode 0 immediately, without raising a spurious LCD-STAT IRQ.
func TestLCDDisableDuringTransferParksInHBlank(t *testing.T) {
	m := newTestMachine(t, 0x00)
	m.GPU.Write(types.LCDC, 0x91) // LCD on, BG on, enable all STAT sources off otherwise
	m.GPU.Write(types.STAT, 0x78) // enable mode-0/1/2 + LYC STAT sources, to prove none fire

	reachedTransfer := false
	for i := 0; i < 2000 && !reachedTransfer; i++ {
		m.Tick()
		if m.GPU.Read(types.STAT)&0x03 == 3 {
			reachedTransfer = true
		}
	}
	require.True(t, reachedTransfer, "GPU never reached mode 3 within the tick budget")

	m.IRQ.Clear(interrupt.LCDStat) // discard any legitimate mode-2/mode-0 IRQ from stepping to mode 3

	m.GPU.Write(types.LCDC, 0x11) // clear bit 7: LCD off, rest unchanged

	stat := m.GPU.Read(types.STAT)
	assert.EqualValues(t, 0, stat&0x03, "LCD-off must park the mode bits at 0 (H-Blank)")
	assert.Zero(t, m.IRQ.Request&(1<<uint8(interrupt.LCDStat)), "disabling the LCD must not raise a spurious LCD-STAT IRQ")
	assert.EqualValues(t, 0, m.GPU.Read(types.LY), "LY resets to 0 when the LCD is disabled")
}
