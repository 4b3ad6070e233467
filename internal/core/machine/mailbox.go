package machine

import "sync/atomic"

// StepKind selects the granularity of a single-step debugger request
// consulted by the owning tick loop (spec §5: "step-type, step-parameters"
// mailbox fields).
type StepKind uint8

const (
	StepInstruction StepKind = iota
	StepFrame
	StepScanline
)

// Mailbox is the plain value-type cross-thread surface between the core
// and its UI collaborator (spec §5, design note in spec §9: "model as a
// single value type passed in and out of the Tick loop as a parameter;
// avoid a process-global instance"). The core itself never writes any
// field here; the surrounding tick loop does, consulting it at the head
// of each iteration.
//
// Pause and Shutdown are the two fields spec §5 calls out as needing to
// be race-free ("fields that must be atomic ... are explicitly so");
// everything else is read/written exclusively by the UI thread between
// Tick calls and is racy by the spec's own admission.
type Mailbox struct {
	pause    atomic.Bool
	shutdown atomic.Bool

	Reset         bool
	StepType      StepKind
	StepParameter int
	ROMPathToLoad string
	RewindActive  bool
}

// Paused reports the current pause flag.
func (b *Mailbox) Paused() bool { return b.pause.Load() }

// SetPaused sets the pause flag.
func (b *Mailbox) SetPaused(v bool) { b.pause.Store(v) }

// Shutdown reports whether a shutdown has been requested.
func (b *Mailbox) Shutdown() bool { return b.shutdown.Load() }

// RequestShutdown flags the tick loop to exit.
func (b *Mailbox) RequestShutdown() { b.shutdown.Store(true) }
