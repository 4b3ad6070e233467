package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestConditionalBranchCycleCost covers spec.md §8 invariant 2: a
// conditional branch charges its "not taken" cost when the condition is
// false and its (larger) "taken" cost when true, for both JR and CALL.
func TestConditionalBranchCycleCost(t *testing.T) {
	m := newTestMachine(t,
		0xAF,       // XOR A      -> Z set, A=0
		0x28, 0x01, // JR Z,+1    -> taken: 12 T-cycles
		0x00,       // NOP (skipped)
		0x3C,       // INC A      -> Z clear, A=1
		0x20, 0x01, // JR NZ,+1   -> taken: 12 T-cycles
		0x00, // NOP (skipped)
	)

	got := m.CPU.Step() // XOR A
	assert.EqualValues(t, 4, got)

	got = m.CPU.Step() // JR Z,+1 (taken)
	assert.EqualValues(t, 12, got, "taken conditional JR costs 12 T-cycles")

	got = m.CPU.Step() // INC A
	assert.EqualValues(t, 4, got)

	got = m.CPU.Step() // JR NZ,+1 (taken)
	assert.EqualValues(t, 12, got, "taken conditional JR costs 12 T-cycles")
}

// TestConditionalBranchNotTakenCost covers the complementary half of
// invariant 2: a false condition charges the cheaper "not taken" cost.
func TestConditionalBranchNotTakenCost(t *testing.T) {
	m := newTestMachine(t,
		0xAF,       // XOR A      -> Z set, A=0
		0x20, 0x01, // JR NZ,+1   -> not taken: 8 T-cycles
		0x00, // NOP
	)

	m.CPU.Step() // XOR A
	got := m.CPU.Step()
	assert.EqualValues(t, 8, got, "untaken conditional JR costs 8 T-cycles")
}

// TestCALLTakenVsNotTakenCost covers invariant 2 for CALL cc,nn: 24
// T-cycles taken, 12 T-cycles not taken.
func TestCALLTakenVsNotTakenCost(t *testing.T) {
	m := newTestMachine(t,
		0xAF,                   // XOR A -> Z set
		0xCC, 0x00, 0xC0,       // CALL Z,0xC000  -> taken: 24 T-cycles
	)
	m.CPU.Step() // XOR A
	got := m.CPU.Step()
	assert.EqualValues(t, 24, got, "taken CALL costs 24 T-cycles")

	m2 := newTestMachine(t,
		0x3C,                   // INC A -> Z clear
		0xCC, 0x00, 0xC0,       // CALL Z,0xC000 -> not taken: 12 T-cycles
	)
	m2.CPU.Step() // INC A
	got2 := m2.CPU.Step()
	assert.EqualValues(t, 12, got2, "untaken CALL costs 12 T-cycles")
}
