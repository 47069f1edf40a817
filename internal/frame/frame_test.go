package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFrame builds a valid RGBA frame of the given dimensions.
func testFrame(w, h int) *Frame {
	return &Frame{
		Width:  w,
		Height: h,
		Stride: w * 4,
		Pixels: make([]byte, h*w*4),
	}
}

func TestFrameValidate(t *testing.T) {
	tests := []struct {
		name    string
		frame   *Frame
		wantErr bool
	}{
		{"valid", testFrame(320, 240), false},
		{"padded stride", &Frame{Width: 320, Height: 240, Stride: 1536, Pixels: make([]byte, 240*1536)}, false},
		{"zero width", &Frame{Height: 240, Stride: 0, Pixels: nil}, true},
		{"stride too small", &Frame{Width: 320, Height: 240, Stride: 320, Pixels: make([]byte, 240*320)}, true},
		{"short buffer", &Frame{Width: 320, Height: 240, Stride: 1280, Pixels: make([]byte, 100)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFrame)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMailboxStoreAssignsSequence(t *testing.T) {
	box := NewMailbox()

	f1 := testFrame(320, 240)
	f2 := testFrame(320, 240)
	require.NoError(t, box.Store(f1))
	require.NoError(t, box.Store(f2))

	assert.Equal(t, uint64(1), f1.Seq)
	assert.Equal(t, uint64(2), f2.Seq)
	assert.Equal(t, uint64(2), box.Received())

	// Poll serves the most recent frame.
	got := box.Poll()
	require.NotNil(t, got)
	assert.Equal(t, uint64(2), got.Seq)
}

func TestMailboxStoreRejectsInvalidFrame(t *testing.T) {
	box := NewMailbox()

	err := box.Store(&Frame{Width: 10, Height: 10, Stride: 40, Pixels: []byte{1}})
	require.ErrorIs(t, err, ErrInvalidFrame)
	assert.Nil(t, box.Poll())
	assert.Equal(t, uint64(0), box.Received())
}

func TestMailboxPollEmpty(t *testing.T) {
	box := NewMailbox()
	assert.Nil(t, box.Poll(), "no frame before the first push")
}

func TestMailboxPollStaleness(t *testing.T) {
	box := NewMailbox(WithStaleAfter(100 * time.Millisecond))

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	box.now = func() time.Time { return clock }

	require.NoError(t, box.Store(testFrame(64, 64)))
	require.NotNil(t, box.Poll(), "fresh frame is servable")

	// Within the staleness window the frame is still live.
	clock = clock.Add(90 * time.Millisecond)
	assert.NotNil(t, box.Poll())

	// Once the bridge goes quiet past the window, the mailbox reports no
	// frame; a paused emulator must not look live.
	clock = clock.Add(20 * time.Millisecond)
	assert.Nil(t, box.Poll())

	// A new push revives it.
	require.NoError(t, box.Store(testFrame(64, 64)))
	assert.NotNil(t, box.Poll())
}

func TestMailboxStalenessDisabled(t *testing.T) {
	box := NewMailbox(WithStaleAfter(0))

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	box.now = func() time.Time { return clock }

	require.NoError(t, box.Store(testFrame(64, 64)))
	clock = clock.Add(time.Hour)
	assert.NotNil(t, box.Poll(), "staleness disabled keeps the last frame servable")
}
