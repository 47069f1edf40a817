package gamestate

import (
	"image"

	"github.com/fyrsmithlabs/ghostpad/internal/frame"
)

// Analysis is what a FrameAnalyzer extracts from a frame beyond the coarse
// content fingerprint.
type Analysis struct {
	Objects []image.Point
	Health  int
	Score   int
}

// FrameAnalyzer extracts game-specific detail from raw frames.
//
// Real detection (sprite positions, OCR of HUD health and score digits) is
// a capability extension point, not something this package implements.
// Analyzers run on the encoding path, so implementations must sustain the
// agent's tick rate or do their work asynchronously and report the last
// completed result.
type FrameAnalyzer interface {
	Analyze(f *frame.Frame) Analysis
}

// Configurable is implemented by analyzers that accept per-game hints from
// a game profile (HUD regions, digit palettes). Profiles apply hints when
// the active game changes; analyzers without game-specific behavior simply
// don't implement it.
type Configurable interface {
	Configure(game string, hints map[string]string) error
}

// NopAnalyzer is the default analyzer: no objects, zero HUD readings.
// States then compare on the frame fingerprint alone.
type NopAnalyzer struct{}

// Analyze implements FrameAnalyzer.
func (NopAnalyzer) Analyze(*frame.Frame) Analysis { return Analysis{} }
