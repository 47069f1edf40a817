package behavior

import (
	"sync"

	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
)

// Memory is the associative store mapping game states to the ordered
// controller inputs observed in them.
//
// The mapping grows without bound until Reset or a snapshot Restore
// replaces it. A bounded FIFO ring of recently observed states backs
// NearestState. Thread-safe; the agent guarantees at most one mode loop
// writes at any instant, but readers (HTTP status, exports) run
// concurrently.
type Memory struct {
	mu      sync.RWMutex
	entries map[gamestate.Key][]gamepad.ControllerInput
	recent  *stateRing
	total   int
}

// Stats summarizes memory shape for the confidence and progress metrics.
type Stats struct {
	// DistinctStates is the number of distinct state keys recorded.
	DistinctStates int `json:"distinct_states"`

	// TotalActions is the total count of recorded inputs across all states.
	TotalActions int `json:"total_actions"`
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithRingCapacity overrides the recent-state ring capacity.
// Values <= 0 keep the default.
func WithRingCapacity(capacity int) MemoryOption {
	return func(m *Memory) {
		m.recent = newStateRing(capacity)
	}
}

// NewMemory creates an empty behavior memory.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[gamestate.Key][]gamepad.ControllerInput),
		recent:  newStateRing(DefaultRingCapacity),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record appends in to the state's input sequence, creating the entry if
// the state is new, and pushes the state into the recent ring.
func (m *Memory) Record(state gamestate.GameState, in gamepad.ControllerInput) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := state.Key()
	m.entries[key] = append(m.entries[key], in)
	m.recent.push(state)
	m.total++
}

// Lookup returns a copy of the input sequence recorded for the state, in
// insertion order. An unseen state yields an empty sequence, never an error.
func (m *Memory) Lookup(state gamestate.GameState) []gamepad.ControllerInput {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inputs, ok := m.entries[state.Key()]
	if !ok {
		return nil
	}
	cp := make([]gamepad.ControllerInput, len(inputs))
	copy(cp, inputs)
	return cp
}

// BestAction returns the strongest recorded input for the state: successful
// inputs beat unsuccessful ones, ties go to the most recent timestamp.
// Returns false for an unseen state.
func (m *Memory) BestAction(state gamestate.GameState) (gamepad.ControllerInput, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inputs := m.entries[state.Key()]
	if len(inputs) == 0 {
		return gamepad.ControllerInput{}, false
	}

	best := inputs[0]
	for _, in := range inputs[1:] {
		if preferInput(in, best) {
			best = in
		}
	}
	return best, true
}

// preferInput reports whether a should replace b as the best action.
func preferInput(a, b gamepad.ControllerInput) bool {
	if a.Success != b.Success {
		return a.Success
	}
	return a.Timestamp.After(b.Timestamp)
}

// NearestState scans the recent-state ring for the entry whose fingerprint
// is closest to the target's. An empty ring returns the target itself: the
// identity fallback is deliberate, letting callers retry their lookup
// without a special case. Ties keep the oldest candidate.
func (m *Memory) NearestState(target gamestate.GameState) gamestate.GameState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.recent.len() == 0 {
		return target
	}

	var (
		nearest gamestate.GameState
		minDist uint64
		first   = true
	)
	m.recent.scan(func(s gamestate.GameState) {
		d := gamestate.FingerprintDistance(s.Fingerprint, target.Fingerprint)
		if first || d < minDist {
			nearest = s
			minDist = d
			first = false
		}
	})
	return nearest
}

// Stats returns the current memory shape.
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		DistinctStates: len(m.entries),
		TotalActions:   m.total,
	}
}

// RecentStates returns how many states the recent ring currently holds.
func (m *Memory) RecentStates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recent.len()
}

// Reset discards all recorded behavior and the recent-state ring.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[gamestate.Key][]gamepad.ControllerInput)
	m.recent.reset()
	m.total = 0
}
