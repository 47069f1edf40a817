package agent

import (
	"errors"
	"fmt"
)

// ErrUnknownMode is returned when a start request names a mode the agent
// does not run.
var ErrUnknownMode = errors.New("unknown agent mode")

// Mode is one of the agent's mutually exclusive operating behaviors.
// Exactly one mode loop runs at a time; switching modes is a transition,
// never a concurrent addition.
type Mode string

const (
	// ModeIdle means no loop is running. It is the state after Stop and
	// is not directly startable.
	ModeIdle Mode = "idle"

	// ModeObserving encodes frames without writing memory or acting.
	ModeObserving Mode = "observing"

	// ModeLearning records (state, input) pairs every tick.
	ModeLearning Mode = "learning"

	// ModeAssisting surfaces advisory suggestions on a slow cadence and
	// never injects input.
	ModeAssisting Mode = "assisting"

	// ModeAutoplaying plays from memory (or a delegated rule player).
	ModeAutoplaying Mode = "autoplaying"

	// ModeMimicking learns from the player when they act and plays from
	// memory when they idle, with user input taking precedence.
	ModeMimicking Mode = "mimicking"
)

// startableModes are the modes StartMode accepts.
var startableModes = map[Mode]struct{}{
	ModeObserving:   {},
	ModeLearning:    {},
	ModeAssisting:   {},
	ModeAutoplaying: {},
	ModeMimicking:   {},
}

// ParseMode converts a wire string into a startable Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := startableModes[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Startable reports whether the mode can be passed to StartMode.
func (m Mode) Startable() bool {
	_, ok := startableModes[m]
	return ok
}

// IsLearning reports whether the mode writes behavior memory.
func (m Mode) IsLearning() bool {
	return m == ModeLearning || m == ModeMimicking
}

// IsPlaying reports whether the mode injects input.
func (m Mode) IsPlaying() bool {
	return m == ModeAutoplaying || m == ModeMimicking
}

func (m Mode) String() string { return string(m) }
