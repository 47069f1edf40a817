// Package profile loads per-game configuration profiles.
//
// A profile carries the game-specific hints that turn the generic frame
// pipeline into a game-aware one: HUD regions for a health decoder, digit
// palettes for score OCR, whatever the configured analyzer understands.
// Profiles are optional; the agent runs fine without any.
package profile

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
)

var (
	// ErrNoProfile is returned when activating a game with no profile.
	ErrNoProfile = errors.New("unknown game profile")

	// ErrInvalidProfile is returned when a profiles file is malformed.
	ErrInvalidProfile = errors.New("invalid game profile")
)

// Profile is one game's configuration.
type Profile struct {
	// Name identifies the game; it tags exports and events.
	Name string `toml:"name"`

	// Hints are free-form analyzer settings, interpreted by whichever
	// analyzer is configured. Unknown keys are ignored.
	Hints map[string]string `toml:"hints"`
}

// Registry holds the loaded profiles and tracks the active game.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	active   string
}

// LoadRegistry reads the profiles file at path.
//
// A missing file yields an empty registry: profiles are optional and the
// daemon starts without them. A present-but-invalid file is an error.
func LoadRegistry(path string) (*Registry, error) {
	reg := &Registry{profiles: make(map[string]Profile)}

	if path == "" {
		return reg, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("checking profiles file: %w", err)
	}

	var doc struct {
		Profiles []Profile `toml:"profile"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, path, err)
	}

	for _, p := range doc.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: profile with empty name in %s", ErrInvalidProfile, path)
		}
		if _, dup := reg.profiles[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate profile %q in %s", ErrInvalidProfile, p.Name, path)
		}
		reg.profiles[p.Name] = p
	}
	return reg, nil
}

// Lookup returns the named profile.
func (r *Registry) Lookup(name string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	return p, ok
}

// Names lists the loaded profile names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Activate marks the named game active and, when the analyzer accepts
// per-game hints, applies the profile's hints to it.
func (r *Registry) Activate(name string, analyzer gamestate.FrameAnalyzer) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrNoProfile, name)
	}

	if cfg, ok := analyzer.(gamestate.Configurable); ok {
		if err := cfg.Configure(name, p.Hints); err != nil {
			return Profile{}, fmt.Errorf("configuring analyzer for %q: %w", name, err)
		}
	}

	r.active = name
	return p, nil
}

// Active returns the active game name, empty when none is set.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Deactivate clears the active game.
func (r *Registry) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = ""
}
