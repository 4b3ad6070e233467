package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAddSubFlagConsistency covers spec.md §8 invariant 1: for every pair
// of byte operands, add8/sub8's Z/H/C flags match the bit-level
// definitions (zero result, nibble carry/borrow, byte carry/borrow)
// independent of which registers the operands came from.
func TestAddSubFlagConsistency(t *testing.T) {
	var c CPU

	for a := 0; a < 256; a += 7 { // exhaustive would be 65536 cases; stride keeps it fast
		for b := 0; b < 256; b += 7 {
			av, bv := uint8(a), uint8(b)

			c.F = 0
			result := c.add8(av, bv)
			wantSum := uint16(av) + uint16(bv)
			assert.Equal(t, uint8(wantSum), result)
			assert.Equal(t, uint8(wantSum) == 0, c.flag(flagZ), "ADD Z flag a=%d b=%d", av, bv)
			assert.False(t, c.flag(flagN), "ADD must clear N")
			assert.Equal(t, (av&0xF)+(bv&0xF) > 0xF, c.flag(flagH), "ADD H flag a=%d b=%d", av, bv)
			assert.Equal(t, wantSum > 0xFF, c.flag(flagC), "ADD C flag a=%d b=%d", av, bv)

			c.F = 0
			result = c.sub8(av, bv)
			assert.Equal(t, av-bv, result)
			assert.Equal(t, av == bv, c.flag(flagZ), "SUB Z flag a=%d b=%d", av, bv)
			assert.True(t, c.flag(flagN), "SUB must set N")
			assert.Equal(t, av&0xF < bv&0xF, c.flag(flagH), "SUB H flag a=%d b=%d", av, bv)
			assert.Equal(t, av < bv, c.flag(flagC), "SUB C flag a=%d b=%d", av, bv)
		}
	}
}

// TestIncDecPreserveCarry covers spec §4.1: INC/DEC never touch the carry
// flag, regardless of its incoming state.
func TestIncDecPreserveCarry(t *testing.T) {
	var c CPU
	for _, carryIn := range []bool{false, true} {
		c.F = 0
		c.setFlag(flagC, carryIn)
		c.inc8(0xFF)
		assert.Equal(t, carryIn, c.flag(flagC), "INC must not touch carry")

		c.F = 0
		c.setFlag(flagC, carryIn)
		c.dec8(0x00)
		assert.Equal(t, carryIn, c.flag(flagC), "DEC must not touch carry")
	}
}

// TestDAAAfterAddRestoresBCD covers spec §4.1's DAA algorithm: adding two
// valid BCD bytes with ADD then DAA yields the BCD-encoded decimal sum.
func TestDAAAfterAddRestoresBCD(t *testing.T) {
	var c CPU
	c.A = 0x15 // BCD 15
	c.F = 0
	c.A = c.add8(c.A, 0x27) // BCD 27 -> binary sum 0x3C
	c.daa()
	assert.EqualValues(t, 0x42, c.A, "15 + 27 in BCD should read back as 0x42")
	assert.False(t, c.flag(flagC))
}
