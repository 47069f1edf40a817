package gamepad

import (
	"sync"
	"time"
)

// InputMailbox is the Capture implementation fed by the emulator bridge.
//
// The bridge POSTs the player's pad state whenever it changes (including
// the transition back to idle); the agent polls Current once per tick.
// Holding only the latest value is intentional: the learner samples input
// at its own cadence, it does not consume an event stream.
type InputMailbox struct {
	mu        sync.RWMutex
	current   ControllerInput
	updatedAt time.Time
	updates   uint64

	now func() time.Time
}

// NewInputMailbox creates a mailbox reporting idle input until the first Set.
func NewInputMailbox() *InputMailbox {
	return &InputMailbox{now: time.Now}
}

// Set stores the player's current input, clamping stick axes and stamping
// the capture time if the bridge omitted it.
func (m *InputMailbox) Set(in ControllerInput) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.current = in.Normalize(now)
	m.updatedAt = now
	m.updates++
}

// Current returns the player's input as of the last bridge update.
func (m *InputMailbox) Current() ControllerInput {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Updates returns the number of bridge updates received since creation.
func (m *InputMailbox) Updates() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updates
}
