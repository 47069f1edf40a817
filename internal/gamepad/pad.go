// Package gamepad models the virtual Nintendo 64 controller shared between
// the emulator bridge and the learning agent: the input observed from the
// player and the input the agent injects back into the emulator.
package gamepad

import (
	"errors"
	"time"
)

// ErrUnknownButton is returned when an input names a button that does not
// exist on the virtual pad.
var ErrUnknownButton = errors.New("unknown controller button")

// Button identifies a single control on the virtual N64 pad.
type Button string

// The full button set of the virtual pad. The empty Button means
// "no button" (stick-only or idle input).
const (
	ButtonA      Button = "A"
	ButtonB      Button = "B"
	ButtonZ      Button = "Z"
	ButtonStart  Button = "START"
	ButtonL      Button = "L"
	ButtonR      Button = "R"
	ButtonCUp    Button = "C_UP"
	ButtonCDown  Button = "C_DOWN"
	ButtonCLeft  Button = "C_LEFT"
	ButtonCRight Button = "C_RIGHT"
	ButtonDUp    Button = "D_UP"
	ButtonDDown  Button = "D_DOWN"
	ButtonDLeft  Button = "D_LEFT"
	ButtonDRight Button = "D_RIGHT"
)

// buttons is the set of valid pad buttons, used for input validation.
var buttons = map[Button]struct{}{
	ButtonA: {}, ButtonB: {}, ButtonZ: {}, ButtonStart: {},
	ButtonL: {}, ButtonR: {},
	ButtonCUp: {}, ButtonCDown: {}, ButtonCLeft: {}, ButtonCRight: {},
	ButtonDUp: {}, ButtonDDown: {}, ButtonDLeft: {}, ButtonDRight: {},
}

// Valid reports whether b names a real button on the pad.
func (b Button) Valid() bool {
	_, ok := buttons[b]
	return ok
}

// ControllerInput is one observed or synthesized pad action.
//
// Inputs are immutable values: they are created once per capture tick (or
// once per agent decision) and never modified afterwards.
type ControllerInput struct {
	// Button is the pressed button. Empty means stick-only or idle input.
	Button Button `json:"button,omitempty"`

	// StickX and StickY are the analog stick axes, each in [-1, 1].
	StickX float64 `json:"stick_x"`
	StickY float64 `json:"stick_y"`

	// Timestamp records when the input was captured or synthesized.
	Timestamp time.Time `json:"timestamp"`

	// Success marks inputs that were judged to make progress in the game.
	// Selection prefers successful inputs when choosing a best action.
	Success bool `json:"success"`
}

// IsIdle reports whether the input carries no button and a neutral stick.
// The emulator bridge is responsible for dead-zoning stick noise before
// reporting player input, so neutral means exactly zero here.
func (in ControllerInput) IsIdle() bool {
	return in.Button == "" && in.StickX == 0 && in.StickY == 0
}

// clampAxis bounds a stick axis to [-1, 1].
func clampAxis(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	default:
		return v
	}
}

// Normalize returns a copy of the input with stick axes clamped to [-1, 1]
// and a timestamp filled in if the caller left it zero.
func (in ControllerInput) Normalize(now time.Time) ControllerInput {
	in.StickX = clampAxis(in.StickX)
	in.StickY = clampAxis(in.StickY)
	if in.Timestamp.IsZero() {
		in.Timestamp = now
	}
	return in
}

// Capture supplies the player's most recent controller input on demand.
// The agent polls it once per tick; implementations must be safe for
// concurrent use.
type Capture interface {
	// Current returns the player's input as of the last bridge update.
	// The zero value means the player is idle.
	Current() ControllerInput
}

// Injector drives inputs into the emulator-facing virtual pad.
//
// Implementations must guarantee that ReleaseAll leaves no button held and
// recenters the stick, and that it is safe to call redundantly: it is the
// teardown path for every agent stop, including aborts.
type Injector interface {
	Inject(in ControllerInput) error
	ReleaseAll() error
}
