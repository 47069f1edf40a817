package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSubscriberBuffer is the per-subscriber channel depth. It absorbs
// short consumer stalls at the 60 Hz action-event rate.
const DefaultSubscriberBuffer = 64

// Bus fans agent events out to in-process subscribers.
//
// Publish never blocks: a subscriber whose buffer is full loses the event.
// That is the contract mode loops depend on, since they publish from inside
// their tick.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	nextID  uint64
	closed  bool
	dropped uint64

	logger *zap.Logger
}

// NewBus creates an event bus. A nil logger falls back to a no-op logger.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[uint64]chan Event),
		logger: logger,
	}
}

// Subscribe registers a subscriber and returns its channel plus a cancel
// function. buffer <= 0 uses DefaultSubscriberBuffer. The channel closes
// when the subscription is cancelled or the bus shuts down.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish stamps the event with an ID and emission time if the emitter left
// them empty, then fans it out without blocking. Publishing on a closed bus
// is a no-op.
func (b *Bus) Publish(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.EmittedAt.IsZero() {
		ev.EmittedAt = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop rather than stall the emitter.
			b.dropped++
		}
	}
}

// Dropped returns how many events were lost to full subscriber buffers.
func (b *Bus) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the bus down, closing every subscriber channel. Subsequent
// publishes are silently discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
