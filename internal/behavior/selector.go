package behavior

import (
	"math/rand"
	"sync"
	"time"

	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
)

// Selector chooses replay actions from a Memory.
//
// Selection is uniformly random among a state's recorded inputs, with a
// single nearest-state retry when the exact state was never observed. The
// random source is injectable so selection is reproducible under test.
type Selector struct {
	mem *Memory

	mu  sync.Mutex
	rng *rand.Rand
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithSeed seeds the selector's random source for deterministic selection.
func WithSeed(seed int64) SelectorOption {
	return func(s *Selector) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand supplies the random source directly.
func WithRand(rng *rand.Rand) SelectorOption {
	return func(s *Selector) {
		s.rng = rng
	}
}

// NewSelector creates a selector over mem. Without options the random
// source is time-seeded.
func NewSelector(mem *Memory, opts ...SelectorOption) *Selector {
	s := &Selector{
		mem: mem,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decide picks an action for the state.
//
// Exact match first: a uniformly random input among those recorded for the
// state. Otherwise one retry against the nearest recently observed state.
// Returns false when memory offers nothing for either.
func (s *Selector) Decide(state gamestate.GameState) (gamepad.ControllerInput, bool) {
	if in, ok := s.pick(s.mem.Lookup(state)); ok {
		return in, true
	}

	nearest := s.mem.NearestState(state)
	if nearest.Key() == state.Key() {
		// Identity fallback: the ring was empty or returned the target,
		// so a second lookup cannot do better.
		return gamepad.ControllerInput{}, false
	}
	return s.pick(s.mem.Lookup(nearest))
}

func (s *Selector) pick(inputs []gamepad.ControllerInput) (gamepad.ControllerInput, bool) {
	if len(inputs) == 0 {
		return gamepad.ControllerInput{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return inputs[s.rng.Intn(len(inputs))], true
}
