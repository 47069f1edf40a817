package behavior

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
)

// SnapshotVersion identifies the behavior snapshot format this build reads
// and writes.
const SnapshotVersion = "ghostpad.behaviors/1"

var (
	// ErrIncompatibleSnapshot is returned when a snapshot declares a
	// version this build does not understand.
	ErrIncompatibleSnapshot = errors.New("incompatible behavior snapshot version")

	// ErrInvalidSnapshot is returned when a snapshot is structurally
	// well-formed but carries records this build cannot restore.
	ErrInvalidSnapshot = errors.New("invalid behavior snapshot")
)

// Snapshot is the on-disk form of a behavior memory.
//
// Round-trip contract: exporting and re-importing reproduces an equivalent
// memory, same state keys and same per-key input order. The recent-state
// ring is session-local observation history and is not part of the format.
type Snapshot struct {
	Version string        `json:"version"`
	Game    string        `json:"game,omitempty"`
	SavedAt time.Time     `json:"saved_at"`
	States  []StateRecord `json:"states"`
}

// StateRecord is one state key and its ordered input sequence.
type StateRecord struct {
	Fingerprint   uint64                    `json:"fingerprint"`
	ObjectsDigest uint64                    `json:"objects_digest,omitempty"`
	Health        int                       `json:"health"`
	Score         int                       `json:"score"`
	Inputs        []gamepad.ControllerInput `json:"inputs"`
}

func (r StateRecord) key() gamestate.Key {
	return gamestate.Key{
		Fingerprint:   r.Fingerprint,
		ObjectsDigest: r.ObjectsDigest,
		Health:        r.Health,
		Score:         r.Score,
	}
}

// Snapshot captures the current memory under a read lock. Records are
// sorted by state key so identical memories export byte-identically.
func (m *Memory) Snapshot(game string) *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make([]StateRecord, 0, len(m.entries))
	for key, inputs := range m.entries {
		cp := make([]gamepad.ControllerInput, len(inputs))
		copy(cp, inputs)
		states = append(states, StateRecord{
			Fingerprint:   key.Fingerprint,
			ObjectsDigest: key.ObjectsDigest,
			Health:        key.Health,
			Score:         key.Score,
			Inputs:        cp,
		})
	}
	sort.Slice(states, func(i, j int) bool {
		a, b := states[i], states[j]
		if a.Fingerprint != b.Fingerprint {
			return a.Fingerprint < b.Fingerprint
		}
		if a.ObjectsDigest != b.ObjectsDigest {
			return a.ObjectsDigest < b.ObjectsDigest
		}
		if a.Health != b.Health {
			return a.Health < b.Health
		}
		return a.Score < b.Score
	})

	return &Snapshot{
		Version: SnapshotVersion,
		Game:    game,
		SavedAt: time.Now().UTC(),
		States:  states,
	}
}

// Restore replaces the memory's contents with the snapshot's.
//
// Replace-or-keep: the snapshot is validated and staged into a fresh map
// first, and the live memory is only swapped once nothing can fail. Any
// error leaves the memory untouched. Records sharing a key are merged in
// snapshot order. The recent-state ring resets; it reflects live
// observation, not imported history.
func (m *Memory) Restore(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: got %q, want %q", ErrIncompatibleSnapshot, snap.Version, SnapshotVersion)
	}

	entries := make(map[gamestate.Key][]gamepad.ControllerInput, len(snap.States))
	total := 0
	for i, rec := range snap.States {
		if len(rec.Inputs) == 0 {
			return fmt.Errorf("%w: state record %d has no inputs", ErrInvalidSnapshot, i)
		}
		for j, in := range rec.Inputs {
			if in.Button != "" && !in.Button.Valid() {
				return fmt.Errorf("%w: state record %d input %d: %q", ErrInvalidSnapshot, i, j, in.Button)
			}
		}
		key := rec.key()
		entries[key] = append(entries[key], rec.Inputs...)
		total += len(rec.Inputs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = entries
	m.recent.reset()
	m.total = total
	return nil
}

// Export writes the memory as a JSON snapshot tagged with the active game.
func (m *Memory) Export(w io.Writer, game string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.Snapshot(game)); err != nil {
		return fmt.Errorf("encoding behavior snapshot: %w", err)
	}
	return nil
}

// Import reads a JSON snapshot and restores it. A decode or validation
// failure leaves the current memory untouched.
func (m *Memory) Import(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding behavior snapshot: %w", err)
	}
	if err := m.Restore(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
