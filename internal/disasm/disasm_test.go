package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	bytes map[uint16]uint8
}

func (f *fakeSource) Read(addr uint16) uint8 { return f.bytes[addr] }

func newFakeSource() *fakeSource {
	return &fakeSource{bytes: make(map[uint16]uint8)}
}

func (f *fakeSource) set(addr uint16, values ...uint8) {
	for i, v := range values {
		f.bytes[addr+uint16(i)] = v
	}
}

func TestNewDecodesFixedAndVariableLengthInstructions(t *testing.T) {
	src := newFakeSource()
	src.set(0x0100, 0x00)             // NOP, length 1
	src.set(0x0101, 0x3E, 0x05)       // LD A,d8, length 2
	src.set(0x0103, 0xC3, 0x00, 0x01) // JP a16, length 3
	src.set(0x0106, 0xCB, 0x87)       // RES 0,A, length 2

	d := New(src, false)

	e, ok := d.Lookup(0x0100)
	assert.True(t, ok)
	assert.EqualValues(t, 1, e.Length)
	assert.Equal(t, "NOP", e.Mnemonic)

	e, ok = d.Lookup(0x0101)
	assert.True(t, ok)
	assert.EqualValues(t, 2, e.Length)

	e, ok = d.Lookup(0x0103)
	assert.True(t, ok)
	assert.EqualValues(t, 3, e.Length)

	e, ok = d.Lookup(0x0106)
	assert.True(t, ok)
	assert.EqualValues(t, 2, e.Length)
	assert.Equal(t, "RES 0,A", e.Mnemonic)
}

func TestInvalidateRedecodesOnlyTheOverlappingEntry(t *testing.T) {
	src := newFakeSource()
	src.set(0x0100, 0x3E, 0x05) // LD A,05h
	src.set(0x0102, 0x00)       // NOP

	d := New(src, false)

	unrelated, _ := d.Lookup(0x0102)

	src.set(0x0101, 0x09) // operand byte changes; instruction is now LD A,09h
	d.Invalidate(0x0101)

	e, ok := d.Lookup(0x0100)
	assert.True(t, ok)
	assert.Contains(t, e.Mnemonic, "09")

	// The address not touched by the write stays in the cache unchanged.
	still, ok := d.Lookup(0x0102)
	assert.True(t, ok)
	assert.Equal(t, unrelated, still)
}

func TestInvalidateIgnoresAddressesOutsideAnyEntry(t *testing.T) {
	src := newFakeSource()
	src.set(0x0100, 0x00)

	d := New(src, false)
	before := len(d.cache)

	d.Invalidate(0x9000) // never decoded; not ROM/RAM/WRAM in this fixture
	assert.Len(t, d.cache, before)
}

func TestExternalRAMWalkedOnlyWhenPresent(t *testing.T) {
	src := newFakeSource()
	src.set(0xA000, 0x00)

	without := New(src, false)
	_, ok := without.Lookup(0xA000)
	assert.False(t, ok)

	with := New(src, true)
	_, ok = with.Lookup(0xA000)
	assert.True(t, ok)
}
