// Package events carries the agent's advisory stream to consumers: the
// daemon's SSE endpoint, the terminal monitor, and an optional NATS relay.
//
// Delivery is fire-and-forget. Emitters never block on consumers; a slow
// subscriber loses events rather than stalling a mode loop mid-tick.
package events

import (
	"time"

	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
)

// Type classifies an agent event.
type Type string

const (
	// TypeSuggestion is an advisory action surfaced in Assist mode.
	// Suggestions are never injected; the player decides.
	TypeSuggestion Type = "suggestion"

	// TypeAction records an input the agent injected itself, from
	// Autoplay or Mimic mode.
	TypeAction Type = "action"
)

// Event is one advisory emission from a mode loop.
type Event struct {
	ID   string `json:"id"`
	Type Type   `json:"type"`

	// Mode names the agent mode that emitted the event.
	Mode string `json:"mode"`

	// Game is the active game profile, when one is configured.
	Game string `json:"game,omitempty"`

	// Fingerprint is the state the action belongs to.
	Fingerprint uint64 `json:"fingerprint"`

	// Input is the suggested or injected action.
	Input gamepad.ControllerInput `json:"input"`

	EmittedAt time.Time `json:"emitted_at"`
}
