package types

import "encoding/binary"

// State is an append-only byte buffer used by every component's Save/Load
// pair to serialize its internal state for the snapshot contract (spec
// §1, "rewind snapshot"). It intentionally mirrors a flat binary diary
// rather than a self-describing format: components read back in exactly
// the order they wrote, which keeps Save/Load pairs trivial to audit
// against each other.
type State struct {
	buf []byte
	pos int
}

// NewState returns an empty State ready for writing.
func NewState() *State {
	return &State{}
}

// LoadState wraps an existing byte slice for reading.
func LoadState(data []byte) *State {
	return &State{buf: data}
}

// Bytes returns the accumulated buffer.
func (s *State) Bytes() []byte {
	return s.buf
}

// Stater is implemented by any component that participates in
// snapshotting.
type Stater interface {
	Save(s *State)
	Load(s *State)
}

func (s *State) Write8(v uint8) {
	s.buf = append(s.buf, v)
}

func (s *State) Write16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *State) Write32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *State) WriteBool(v bool) {
	if v {
		s.Write8(1)
	} else {
		s.Write8(0)
	}
}

func (s *State) WriteData(v []byte) {
	s.Write32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *State) Read8() uint8 {
	v := s.buf[s.pos]
	s.pos++
	return v
}

func (s *State) Read16() uint16 {
	v := binary.BigEndian.Uint16(s.buf[s.pos:])
	s.pos += 2
	return v
}

func (s *State) Read32() uint32 {
	v := binary.BigEndian.Uint32(s.buf[s.pos:])
	s.pos += 4
	return v
}

func (s *State) ReadBool() bool {
	return s.Read8() == 1
}

// ReadData reads a length-prefixed blob written by WriteData.
func (s *State) ReadData() []byte {
	n := s.Read32()
	v := make([]byte, n)
	copy(v, s.buf[s.pos:s.pos+int(n)])
	s.pos += int(n)
	return v
}

// ReadInto reads len(dst) raw bytes (no length prefix) into dst, for fields
// whose size is already known to both sides (e.g. a fixed-size RAM bank).
func (s *State) ReadInto(dst []byte) {
	copy(dst, s.buf[s.pos:s.pos+len(dst)])
	s.pos += len(dst)
}

func (s *State) WriteRaw(v []byte) {
	s.buf = append(s.buf, v...)
}
