package gamepad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestButtonValid(t *testing.T) {
	assert.True(t, ButtonA.Valid())
	assert.True(t, ButtonCLeft.Valid())
	assert.False(t, Button("").Valid())
	assert.False(t, Button("SELECT").Valid())
}

func TestControllerInputIsIdle(t *testing.T) {
	tests := []struct {
		name string
		in   ControllerInput
		idle bool
	}{
		{"zero value", ControllerInput{}, true},
		{"button held", ControllerInput{Button: ButtonA}, false},
		{"stick only", ControllerInput{StickX: 0.4}, false},
		{"timestamp does not affect idleness", ControllerInput{Timestamp: time.Now()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.idle, tt.in.IsIdle())
		})
	}
}

func TestControllerInputNormalize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	in := ControllerInput{Button: ButtonB, StickX: 2.5, StickY: -7}.Normalize(now)
	assert.Equal(t, 1.0, in.StickX)
	assert.Equal(t, -1.0, in.StickY)
	assert.Equal(t, now, in.Timestamp)

	// A caller-provided timestamp survives normalization.
	stamped := ControllerInput{Timestamp: now.Add(-time.Minute)}.Normalize(now)
	assert.Equal(t, now.Add(-time.Minute), stamped.Timestamp)
}

func TestVirtualPadInjectAndState(t *testing.T) {
	pad := NewVirtualPad()

	require.NoError(t, pad.Inject(ControllerInput{Button: ButtonB, StickX: 0.5}))
	require.NoError(t, pad.Inject(ControllerInput{Button: ButtonA, StickY: -0.25}))

	st := pad.State()
	// Held buttons are reported in stable sorted order.
	assert.Equal(t, []Button{ButtonA, ButtonB}, st.Held)
	// Axes reflect the most recent injection only.
	assert.Equal(t, 0.0, st.StickX)
	assert.Equal(t, -0.25, st.StickY)
	assert.Equal(t, uint64(2), pad.Injected())
}

func TestVirtualPadRejectsUnknownButton(t *testing.T) {
	pad := NewVirtualPad()

	err := pad.Inject(ControllerInput{Button: Button("TURBO")})
	require.ErrorIs(t, err, ErrUnknownButton)
	assert.Empty(t, pad.HeldButtons())
}

func TestVirtualPadReleaseAllIsIdempotent(t *testing.T) {
	pad := NewVirtualPad()
	require.NoError(t, pad.Inject(ControllerInput{Button: ButtonZ, StickX: 1}))

	require.NoError(t, pad.ReleaseAll())
	st := pad.State()
	assert.Empty(t, st.Held)
	assert.Equal(t, 0.0, st.StickX)
	assert.Equal(t, 0.0, st.StickY)

	// Redundant release is safe and leaves the pad untouched.
	require.NoError(t, pad.ReleaseAll())
	assert.Empty(t, pad.HeldButtons())
}

func TestInputMailboxCurrent(t *testing.T) {
	box := NewInputMailbox()

	// Before any bridge update the player is idle.
	assert.True(t, box.Current().IsIdle())

	box.Set(ControllerInput{Button: ButtonA, StickX: 3})
	got := box.Current()
	assert.Equal(t, ButtonA, got.Button)
	assert.Equal(t, 1.0, got.StickX, "axes are clamped on the way in")
	assert.False(t, got.Timestamp.IsZero(), "capture time is stamped when omitted")

	// An explicit idle update clears the previous input.
	box.Set(ControllerInput{})
	assert.True(t, box.Current().IsIdle())
	assert.Equal(t, uint64(2), box.Updates())
}
