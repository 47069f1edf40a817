// Package gamestate fingerprints emulator frames into compact, comparable
// game states used as behavior-memory lookup keys.
package gamestate

import (
	"encoding/binary"
	"image"

	"github.com/cespare/xxhash/v2"
)

// GameState is the compact visual fingerprint of one captured frame.
//
// States are immutable values created once per frame and used only as
// lookup keys. Fingerprinting is deterministic for identical visual input;
// a changed fingerprint means an unseen state, never an error.
type GameState struct {
	// Fingerprint is a 64-bit content hash of the frame's visible pixels.
	Fingerprint uint64 `json:"fingerprint"`

	// Objects holds detected object positions. Empty until a real
	// detector is configured; the default analyzer reports none.
	Objects []image.Point `json:"objects,omitempty"`

	// Health and Score are HUD readings when a game profile provides a
	// decoder for them, zero otherwise.
	Health int `json:"health"`
	Score  int `json:"score"`
}

// Key is the comparable form of a GameState, usable as a map key. Object
// positions are folded into a digest so the key stays a fixed-size value.
type Key struct {
	Fingerprint   uint64
	ObjectsDigest uint64
	Health        int
	Score         int
}

// Key returns the comparable lookup key for the state.
func (s GameState) Key() Key {
	return Key{
		Fingerprint:   s.Fingerprint,
		ObjectsDigest: digestObjects(s.Objects),
		Health:        s.Health,
		Score:         s.Score,
	}
}

// digestObjects hashes object positions order-sensitively. Zero for no
// objects, so states without detection compare on fingerprint and HUD
// fields alone.
func digestObjects(objects []image.Point) uint64 {
	if len(objects) == 0 {
		return 0
	}
	d := xxhash.New()
	var buf [16]byte
	for _, pt := range objects {
		binary.LittleEndian.PutUint64(buf[:8], uint64(int64(pt.X)))
		binary.LittleEndian.PutUint64(buf[8:], uint64(int64(pt.Y)))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// FingerprintDistance is the absolute difference between two fingerprints,
// the similarity measure for nearest-state fallback.
func FingerprintDistance(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
