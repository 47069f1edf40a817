package gamepad

import (
	"sort"
	"sync"
	"time"
)

// PadState is a point-in-time snapshot of the virtual pad, served to the
// emulator bridge which applies it to the core each video frame.
type PadState struct {
	// Held lists the currently held buttons in stable (sorted) order.
	Held []Button `json:"held"`

	// StickX and StickY are the current analog axes in [-1, 1].
	StickX float64 `json:"stick_x"`
	StickY float64 `json:"stick_y"`

	// UpdatedAt is when the pad last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// VirtualPad is the in-process Injector implementation. The agent injects
// actions into it and the emulator bridge polls State to mirror them onto
// the real controller port.
//
// Thread-safe. Injected buttons remain held until ReleaseAll; the bridge
// decides how long a held button translates into core-side press frames.
type VirtualPad struct {
	mu        sync.Mutex
	held      map[Button]time.Time
	stickX    float64
	stickY    float64
	updatedAt time.Time
	injected  uint64

	// now is injectable for tests.
	now func() time.Time
}

// NewVirtualPad creates an empty virtual pad with nothing held.
func NewVirtualPad() *VirtualPad {
	return &VirtualPad{
		held: make(map[Button]time.Time),
		now:  time.Now,
	}
}

// Inject presses the input's button (if any) and applies its stick axes.
// Unknown buttons are rejected so a corrupt behavior snapshot cannot wedge
// the pad into an unreleasable state.
func (p *VirtualPad) Inject(in ControllerInput) error {
	if in.Button != "" && !in.Button.Valid() {
		return ErrUnknownButton
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if in.Button != "" {
		p.held[in.Button] = now
	}
	p.stickX = clampAxis(in.StickX)
	p.stickY = clampAxis(in.StickY)
	p.updatedAt = now
	p.injected++
	return nil
}

// ReleaseAll releases every held button and recenters the stick.
// Safe to call redundantly; releasing an already-empty pad is a no-op.
func (p *VirtualPad) ReleaseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.held) == 0 && p.stickX == 0 && p.stickY == 0 {
		return nil
	}
	p.held = make(map[Button]time.Time)
	p.stickX = 0
	p.stickY = 0
	p.updatedAt = p.now()
	return nil
}

// State returns a snapshot of the pad for the bridge to apply.
func (p *VirtualPad) State() PadState {
	p.mu.Lock()
	defer p.mu.Unlock()

	held := make([]Button, 0, len(p.held))
	for b := range p.held {
		held = append(held, b)
	}
	sort.Slice(held, func(i, j int) bool { return held[i] < held[j] })

	return PadState{
		Held:      held,
		StickX:    p.stickX,
		StickY:    p.stickY,
		UpdatedAt: p.updatedAt,
	}
}

// HeldButtons returns the currently held buttons in sorted order.
func (p *VirtualPad) HeldButtons() []Button {
	return p.State().Held
}

// Injected returns the total number of inputs injected since creation.
func (p *VirtualPad) Injected() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.injected
}
