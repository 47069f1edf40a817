// Package agent runs the gameplay learning loops. An Agent observes frames
// from the emulator bridge, encodes them into game states, records the
// player's controller inputs against those states, and replays learned
// behavior back through the virtual pad depending on the active mode.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostpad/internal/behavior"
	"github.com/fyrsmithlabs/ghostpad/internal/events"
	"github.com/fyrsmithlabs/ghostpad/internal/frame"
	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
)

const instrumentationName = "github.com/fyrsmithlabs/ghostpad/internal/agent"

const (
	// DefaultTickInterval matches the emulator's 60 Hz frame cadence.
	DefaultTickInterval = time.Second / 60

	// DefaultAssistInterval paces advisory suggestions so they remain
	// readable by a human instead of flooding at frame rate.
	DefaultAssistInterval = 500 * time.Millisecond
)

var (
	// ErrAgentClosed is returned by operations on a closed agent.
	ErrAgentClosed = errors.New("agent is closed")

	// ErrNotStartable is returned when StartMode is given a mode that has
	// no loop, such as ModeIdle.
	ErrNotStartable = errors.New("mode cannot be started")
)

// RulePlayer is an optional scripted player. When one is configured,
// Autoplay delegates control to it instead of replaying learned behavior,
// and the agent mirrors the player's counters into its own metrics.
type RulePlayer interface {
	// Start begins play. The context is cancelled when the agent stops.
	Start(ctx context.Context) error

	// Stop halts play and blocks until the player has released control.
	Stop()

	// Running reports whether the player currently holds control.
	Running() bool

	// Decisions returns how many actions the player has taken.
	Decisions() int
}

// Dependencies wires the agent to its collaborators. Frames, Inputs, Pad,
// Encoder, Memory, and Selector are required; Bus and Rule are optional.
type Dependencies struct {
	Frames   frame.Provider
	Inputs   gamepad.Capture
	Pad      gamepad.Injector
	Encoder  *gamestate.Encoder
	Memory   *behavior.Memory
	Selector *behavior.Selector

	// Bus receives suggestion and action events. Nil disables emission.
	Bus *events.Bus

	// Rule, when set, takes over Autoplay mode.
	Rule RulePlayer
}

func (d Dependencies) validate() error {
	switch {
	case d.Frames == nil:
		return errors.New("frame provider is required")
	case d.Inputs == nil:
		return errors.New("input capture is required")
	case d.Pad == nil:
		return errors.New("pad injector is required")
	case d.Encoder == nil:
		return errors.New("state encoder is required")
	case d.Memory == nil:
		return errors.New("behavior memory is required")
	case d.Selector == nil:
		return errors.New("action selector is required")
	}
	return nil
}

// Agent owns the mode lifecycle. At most one mode loop runs at a time;
// transitions are serialized, and every teardown path releases the pad.
type Agent struct {
	logger *zap.Logger
	tracer trace.Tracer
	meter  metric.Meter
	inst   instruments

	frames   frame.Provider
	inputs   gamepad.Capture
	pad      gamepad.Injector
	encoder  *gamestate.Encoder
	memory   *behavior.Memory
	selector *behavior.Selector
	bus      *events.Bus
	rule     RulePlayer

	tickInterval   time.Duration
	assistInterval time.Duration

	sess sessionMetrics

	// transMu serializes StartMode, Stop, Close, and the behavior admin
	// operations against the running loop's lifecycle.
	transMu sync.Mutex
	mode    Mode
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
}

// Option configures an Agent.
type Option func(*Agent)

// WithTickInterval overrides the mode-loop tick interval. Values <= 0 keep
// the default.
func WithTickInterval(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.tickInterval = d
		}
	}
}

// WithAssistInterval overrides the suggestion cadence in Assist mode.
// Values <= 0 keep the default.
func WithAssistInterval(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.assistInterval = d
		}
	}
}

// New creates an idle agent. A nil logger falls back to a no-op logger.
func New(deps Dependencies, logger *zap.Logger, opts ...Option) (*Agent, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("invalid agent dependencies: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Agent{
		logger:         logger,
		tracer:         otel.Tracer(instrumentationName),
		meter:          otel.Meter(instrumentationName),
		frames:         deps.Frames,
		inputs:         deps.Inputs,
		pad:            deps.Pad,
		encoder:        deps.Encoder,
		memory:         deps.Memory,
		selector:       deps.Selector,
		bus:            deps.Bus,
		rule:           deps.Rule,
		tickInterval:   DefaultTickInterval,
		assistInterval: DefaultAssistInterval,
		mode:           ModeIdle,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.initMetrics()

	a.sess.update(func(m *Metrics) {
		m.Mode = ModeIdle
	})
	a.refreshMemoryStats(context.Background())
	return a, nil
}

// Mode returns the currently active mode.
func (a *Agent) Mode() Mode {
	a.transMu.Lock()
	defer a.transMu.Unlock()
	return a.mode
}

// SetGame tags the session with the active game profile name.
func (a *Agent) SetGame(name string) {
	a.sess.update(func(m *Metrics) {
		m.Game = name
	})
}

// Game returns the active game profile name.
func (a *Agent) Game() string {
	return a.sess.snapshot().Game
}

// Metrics returns a copy of the current session snapshot.
func (a *Agent) Metrics() Metrics {
	return a.sess.snapshot()
}

// StartMode stops any running loop and starts the given mode. Starting the
// mode that is already running restarts its loop; the previous loop is fully
// torn down, and its held inputs released, before the new one begins.
func (a *Agent) StartMode(ctx context.Context, mode Mode) error {
	a.transMu.Lock()
	defer a.transMu.Unlock()

	if a.closed {
		return ErrAgentClosed
	}
	if !mode.Startable() {
		return fmt.Errorf("%w: %q", ErrNotStartable, mode)
	}

	ctx, span := a.tracer.Start(ctx, "agent.start_mode",
		trace.WithAttributes(attribute.String("mode", string(mode))))
	defer span.End()

	if err := a.stopLocked(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("stopping previous mode: %w", err)
	}

	// The loop context is detached from the caller's: a mode outlives the
	// HTTP request that started it and ends only on Stop or Close.
	runCtx, cancel := context.WithCancel(context.Background())

	if mode == ModeAutoplaying && a.rule != nil {
		if err := a.rule.Start(runCtx); err != nil {
			cancel()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("starting rule player: %w", err)
		}
	}

	done := make(chan struct{})
	a.mode = mode
	a.cancel = cancel
	a.done = done

	a.sess.reset()
	a.sess.update(func(m *Metrics) {
		m.Mode = mode
		m.IsLearning = mode.IsLearning()
		m.IsPlaying = mode.IsPlaying()
	})
	a.refreshMemoryStats(ctx)

	if a.inst.modeSwitches != nil {
		a.inst.modeSwitches.Add(ctx, 1, metric.WithAttributes(
			attribute.String("mode", string(mode)),
		))
	}
	a.logger.Info("agent mode started",
		zap.String("mode", string(mode)),
		zap.String("game", a.Game()),
	)

	go a.run(runCtx, mode, done)
	return nil
}

// Stop halts the running mode loop, waits for it to finish, and releases
// every held input. Stopping an idle agent is a no-op.
func (a *Agent) Stop(ctx context.Context) error {
	a.transMu.Lock()
	defer a.transMu.Unlock()

	_, span := a.tracer.Start(ctx, "agent.stop")
	defer span.End()

	if err := a.stopLocked(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Close stops the agent permanently. Further StartMode calls fail with
// ErrAgentClosed.
func (a *Agent) Close() error {
	a.transMu.Lock()
	defer a.transMu.Unlock()

	if a.closed {
		return nil
	}
	err := a.stopLocked()
	a.closed = true
	return err
}

// stopLocked tears down the running loop. Caller holds transMu.
//
// Order matters: cancel first, then wait for the loop goroutine to exit so
// no tick can run concurrently with what follows, then release the pad. The
// loop's own deferred release makes the second release redundant on the
// happy path, but this one also covers a loop that died to a panic.
func (a *Agent) stopLocked() error {
	if a.cancel == nil {
		return nil
	}

	prev := a.mode
	a.cancel()
	<-a.done
	a.cancel = nil
	a.done = nil

	if a.mode == ModeAutoplaying && a.rule != nil {
		a.rule.Stop()
	}

	a.mode = ModeIdle
	a.sess.update(func(m *Metrics) {
		m.Mode = ModeIdle
		m.IsLearning = false
		m.IsPlaying = false
	})

	if err := a.pad.ReleaseAll(); err != nil {
		a.logger.Error("failed to release pad on stop",
			zap.String("mode", string(prev)),
			zap.Error(err),
		)
		return fmt.Errorf("releasing pad: %w", err)
	}

	a.logger.Info("agent mode stopped", zap.String("mode", string(prev)))
	return nil
}

// refreshMemoryStats recomputes the memory-derived metric fields. It keys
// off the session's own mode mirror, not a.mode, so mode loops can call it
// without holding transMu.
func (a *Agent) refreshMemoryStats(ctx context.Context) {
	st := a.memory.Stats()
	prog := behavior.Progress(st)

	var conf float64
	a.sess.update(func(m *Metrics) {
		if m.Mode == ModeAutoplaying && a.rule != nil {
			// Delegated autoplay mirrors the rule player instead of the
			// memory: its decision count and a binary confidence.
			m.ActionsLearned = a.rule.Decisions()
			if a.rule.Running() {
				m.Confidence = 1.0
			} else {
				m.Confidence = 0.0
			}
		} else {
			m.ActionsLearned = st.TotalActions
			m.Confidence = behavior.Confidence(st)
		}
		m.DistinctStates = st.DistinctStates
		m.LearningProgress = prog
		conf = m.Confidence
	})

	if a.inst.confidence != nil {
		a.inst.confidence.Record(ctx, conf)
	}
	if a.inst.progress != nil {
		a.inst.progress.Record(ctx, prog)
	}
}

// publish emits an event when a bus is configured.
func (a *Agent) publish(ev events.Event) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(ev)
}
