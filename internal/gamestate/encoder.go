package gamestate

import (
	"github.com/cespare/xxhash/v2"

	"github.com/fyrsmithlabs/ghostpad/internal/frame"
)

// rgbaBytesPerPixel matches the bridge's RGBA8 frame-buffer format.
const rgbaBytesPerPixel = 4

// Encoder turns raw frames into GameStates.
//
// Encoding must be deterministic and cheap enough to sustain 60 Hz: the
// fingerprint is a single xxhash pass over the frame's visible pixels, and
// everything richer is delegated to the analyzer.
type Encoder struct {
	analyzer FrameAnalyzer
}

// NewEncoder creates an encoder using the given analyzer. A nil analyzer
// falls back to NopAnalyzer.
func NewEncoder(analyzer FrameAnalyzer) *Encoder {
	if analyzer == nil {
		analyzer = NopAnalyzer{}
	}
	return &Encoder{analyzer: analyzer}
}

// Analyzer returns the encoder's analyzer, for profile configuration.
func (e *Encoder) Analyzer() FrameAnalyzer { return e.analyzer }

// Encode fingerprints the frame and merges in the analyzer's reading.
func (e *Encoder) Encode(f *frame.Frame) GameState {
	an := e.analyzer.Analyze(f)
	return GameState{
		Fingerprint: fingerprint(f),
		Objects:     an.Objects,
		Health:      an.Health,
		Score:       an.Score,
	}
}

// fingerprint hashes the frame's visible pixels. Row padding is skipped:
// cores leave uninitialized memory between rows, which would break the
// determinism the memory keys depend on.
func fingerprint(f *frame.Frame) uint64 {
	rowBytes := f.Width * rgbaBytesPerPixel
	if f.Stride == rowBytes {
		return xxhash.Sum64(f.Pixels[:f.Height*rowBytes])
	}

	d := xxhash.New()
	for y := 0; y < f.Height; y++ {
		off := y * f.Stride
		_, _ = d.Write(f.Pixels[off : off+rowBytes])
	}
	return d.Sum64()
}
