// Package snapshot names the rewind snapshot contract referenced by
// spec §1 ("the snapshot *contract* is named; the binary format is not
// specified here") and provides one concrete implementation. Retention
// policy (how many snapshots a rewind ring keeps) and any video codec
// remain explicitly out of scope, per spec §1's Non-goals.
package snapshot

import "github.com/bassicali/gem-sub000/internal/core/machine"

// Snapshot is an opaque, serialised capture of a Machine's full state at
// one Tick boundary.
type Snapshot struct {
	Data []byte
}

// Snapshotter captures and restores Machine state. Capture is a pure
// function of the machine's current state (spec §5: "observable state at
// Tick boundary is the unique function of initial state plus joypad
// inputs observed before that Tick").
type Snapshotter interface {
	Capture(m *machine.Machine) (Snapshot, error)
	Restore(s Snapshot, m *machine.Machine) error
}
