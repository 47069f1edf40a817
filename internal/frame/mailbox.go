package frame

import (
	"sync"
	"time"
)

// DefaultStaleAfter is how long a frame stays servable after the bridge
// stops pushing. It covers a few missed deliveries at 60 Hz without letting
// a paused emulator look live.
const DefaultStaleAfter = 250 * time.Millisecond

// Mailbox is the Provider implementation fed by the emulator bridge.
//
// The bridge pushes frames as the core renders them; the agent polls at its
// own tick rate. Only the latest frame is retained: the learner samples the
// screen, it does not consume every frame.
type Mailbox struct {
	mu         sync.RWMutex
	latest     *Frame
	seq        uint64
	received   uint64
	staleAfter time.Duration

	now func() time.Time
}

// MailboxOption configures a Mailbox.
type MailboxOption func(*Mailbox)

// WithStaleAfter overrides how long the latest frame stays servable.
// Zero or negative disables staleness entirely (the last frame is always
// returned once one arrives).
func WithStaleAfter(d time.Duration) MailboxOption {
	return func(m *Mailbox) {
		m.staleAfter = d
	}
}

// NewMailbox creates an empty frame mailbox.
func NewMailbox(opts ...MailboxOption) *Mailbox {
	m := &Mailbox{
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store validates and keeps f as the latest frame, assigning its capture
// sequence number. The mailbox takes ownership of the pixel buffer.
func (m *Mailbox) Store(f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	f.Seq = m.seq
	if f.CapturedAt.IsZero() {
		f.CapturedAt = m.now()
	}
	m.latest = f
	m.received++
	return nil
}

// Poll returns the latest frame, or nil when none has arrived yet or the
// last one has gone stale.
func (m *Mailbox) Poll() *Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latest == nil {
		return nil
	}
	if m.staleAfter > 0 && m.now().Sub(m.latest.CapturedAt) > m.staleAfter {
		return nil
	}
	return m.latest
}

// Received returns the total number of frames pushed since creation.
func (m *Mailbox) Received() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.received
}
