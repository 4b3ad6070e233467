package snapshot

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/google/brotli/go/cbrotli"

	"github.com/bassicali/gem-sub000/internal/core/machine"
	"github.com/bassicali/gem-sub000/internal/core/types"
)

// payload is the gob-encoded envelope brotli compresses. It exists only
// so future fields (a format version, a cartridge content hash to guard
// against restoring a snapshot against the wrong ROM) have somewhere to
// live without changing the wire shape of State itself.
type payload struct {
	Version uint8
	State   []byte
}

const formatVersion = 1

// BrotliSnapshotter gob-encodes a Machine's flat Save() state blob and
// brotli-compresses the result (teacher: pkg/display/web/player.go's
// frame compression, the one cbrotli call site in the retrieval pack).
// Quality follows the teacher's choice of 9 for latency-sensitive
// streaming; snapshots are not latency sensitive but there is no reason
// to diverge.
type BrotliSnapshotter struct {
	Quality int
}

// NewBrotliSnapshotter returns a snapshotter at the teacher's default
// quality level.
func NewBrotliSnapshotter() *BrotliSnapshotter {
	return &BrotliSnapshotter{Quality: 9}
}

func (b *BrotliSnapshotter) Capture(m *machine.Machine) (Snapshot, error) {
	st := types.NewState()
	m.Save(st)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload{Version: formatVersion, State: st.Bytes()}); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: gob encode: %w", err)
	}

	compressed, err := cbrotli.Encode(buf.Bytes(), cbrotli.WriterOptions{Quality: b.Quality})
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: brotli encode: %w", err)
	}
	return Snapshot{Data: compressed}, nil
}

func (b *BrotliSnapshotter) Restore(s Snapshot, m *machine.Machine) error {
	raw, err := cbrotli.Decode(s.Data)
	if err != nil {
		return fmt.Errorf("snapshot: brotli decode: %w", err)
	}

	var p payload
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&p); err != nil {
		return fmt.Errorf("snapshot: gob decode: %w", err)
	}
	if p.Version != formatVersion {
		return fmt.Errorf("snapshot: unsupported format version %d", p.Version)
	}

	m.Load(types.LoadState(p.State))
	return nil
}

var _ Snapshotter = (*BrotliSnapshotter)(nil)
