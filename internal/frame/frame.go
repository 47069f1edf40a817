// Package frame carries raw emulator video frames from the bridge to the
// learning agent.
//
// Frames arrive as the RGBA byte buffers the emulator core renders into,
// exactly as exposed by the bridge's frame-buffer API. The agent never
// decodes pixels itself; it fingerprints the buffer and hands it to the
// configured analyzer.
package frame

import (
	"errors"
	"time"
)

// ErrInvalidFrame is returned when a pushed frame's dimensions do not match
// its pixel buffer.
var ErrInvalidFrame = errors.New("invalid frame geometry")

// bytesPerPixel is fixed by the bridge's RGBA8 frame-buffer format.
const bytesPerPixel = 4

// Frame is one captured emulator video frame.
type Frame struct {
	// Seq is a monotonically increasing capture sequence number assigned
	// on arrival.
	Seq uint64

	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int

	// Stride is the byte length of one pixel row (>= Width*4). Cores pad
	// rows, so Stride rather than Width*4 walks the buffer.
	Stride int

	// Pixels is the raw RGBA8 buffer, Height*Stride bytes.
	Pixels []byte

	// CapturedAt is when the bridge delivered the frame.
	CapturedAt time.Time
}

// Validate checks that the frame's declared geometry matches its buffer.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return ErrInvalidFrame
	}
	if f.Stride < f.Width*bytesPerPixel {
		return ErrInvalidFrame
	}
	if len(f.Pixels) < f.Height*f.Stride {
		return ErrInvalidFrame
	}
	return nil
}

// Provider supplies the most recent frame on demand.
//
// Poll returns nil when no frame is currently available (emulator not yet
// running, or paused long enough for the last frame to go stale). A nil
// frame is a transient condition, never an error: callers skip the tick
// and retry.
type Provider interface {
	Poll() *Frame
}
