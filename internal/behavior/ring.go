package behavior

import "github.com/fyrsmithlabs/ghostpad/internal/gamestate"

// DefaultRingCapacity bounds the recent-state ring used for nearest-state
// fallback. At 60 recordings per second this covers roughly the last
// seventeen seconds of play.
const DefaultRingCapacity = 1000

// stateRing is a fixed-capacity FIFO of recently observed states. Once
// full, each push evicts the oldest entry. Not safe for concurrent use;
// Memory serializes access.
type stateRing struct {
	buf  []gamestate.GameState
	head int // index of the oldest entry
	size int
}

func newStateRing(capacity int) *stateRing {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &stateRing{buf: make([]gamestate.GameState, capacity)}
}

func (r *stateRing) push(s gamestate.GameState) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = s
		r.size++
		return
	}
	// Full: overwrite the oldest entry and advance.
	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
}

func (r *stateRing) len() int { return r.size }

func (r *stateRing) cap() int { return len(r.buf) }

// scan visits entries oldest-first.
func (r *stateRing) scan(fn func(gamestate.GameState)) {
	for i := 0; i < r.size; i++ {
		fn(r.buf[(r.head+i)%len(r.buf)])
	}
}

func (r *stateRing) reset() {
	r.head = 0
	r.size = 0
}
