package agent

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostpad/internal/events"
	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
)

// run executes the mode's loop and guarantees teardown.
//
// Deferred in this order so that a panicking loop is recovered first, the
// pad is released second, and done closes last. stopLocked blocks on done,
// so by the time Stop returns the release has already happened on every
// exit path.
func (a *Agent) run(ctx context.Context, mode Mode, done chan struct{}) {
	defer close(done)
	defer func() {
		if err := a.pad.ReleaseAll(); err != nil {
			a.logger.Error("failed to release pad at loop exit",
				zap.String("mode", string(mode)),
				zap.Error(err),
			)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic in mode loop",
				zap.String("mode", string(mode)),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	switch mode {
	case ModeObserving:
		a.observeLoop(ctx)
	case ModeLearning:
		a.learnLoop(ctx)
	case ModeAssisting:
		a.assistLoop(ctx)
	case ModeAutoplaying:
		a.autoplayLoop(ctx)
	case ModeMimicking:
		a.mimicLoop(ctx)
	}
}

func modeAttr(m Mode) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("mode", string(m)))
}

// countTick accounts one loop iteration.
func (a *Agent) countTick(ctx context.Context, attrs metric.MeasurementOption) {
	a.sess.update(func(m *Metrics) {
		m.Ticks++
	})
	if a.inst.ticks != nil {
		a.inst.ticks.Add(ctx, 1, attrs)
	}
}

// currentState polls the latest frame and encodes it. A nil frame means the
// bridge missed a delivery (or the emulator is paused); the tick is counted
// as missed and the caller skips it.
func (a *Agent) currentState(ctx context.Context, attrs metric.MeasurementOption) (gamestate.GameState, bool) {
	f := a.frames.Poll()
	if f == nil {
		a.sess.update(func(m *Metrics) {
			m.MissedFrames++
		})
		if a.inst.missedFrames != nil {
			a.inst.missedFrames.Add(ctx, 1, attrs)
		}
		return gamestate.GameState{}, false
	}

	state := a.encoder.Encode(f)
	a.sess.update(func(m *Metrics) {
		m.LastFingerprint = state.Fingerprint
	})
	return state, true
}

// observeLoop watches gameplay without recording or injecting anything.
// It exists so the status surface carries live fingerprints while the
// player explores.
func (a *Agent) observeLoop(ctx context.Context) {
	attrs := modeAttr(ModeObserving)
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.countTick(ctx, attrs)
			a.currentState(ctx, attrs)
		}
	}
}

// learnLoop records the player's input against the current state on every
// tick, idle included. Doing nothing in a state is a behavior worth
// learning too; it is what lets replay hold still on menus.
func (a *Agent) learnLoop(ctx context.Context) {
	attrs := modeAttr(ModeLearning)
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.countTick(ctx, attrs)
			state, ok := a.currentState(ctx, attrs)
			if !ok {
				continue
			}

			in := a.inputs.Current().Normalize(time.Now())
			a.memory.Record(state, in)
			if a.inst.records != nil {
				a.inst.records.Add(ctx, 1, attrs)
			}
			a.refreshMemoryStats(ctx)
		}
	}
}

// assistLoop surfaces the best-known action for the current state as an
// advisory event. It never touches the pad; the player decides. Suggestions
// run at their own slower cadence so a human can actually read them.
func (a *Agent) assistLoop(ctx context.Context) {
	attrs := modeAttr(ModeAssisting)
	ticker := time.NewTicker(a.assistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.countTick(ctx, attrs)
			state, ok := a.currentState(ctx, attrs)
			if !ok {
				continue
			}

			best, ok := a.bestActionFor(state)
			if !ok {
				continue
			}

			a.publish(events.Event{
				Type:        events.TypeSuggestion,
				Mode:        string(ModeAssisting),
				Game:        a.Game(),
				Fingerprint: state.Fingerprint,
				Input:       best,
			})
			a.sess.update(func(m *Metrics) {
				m.Suggestions++
			})
			if a.inst.suggestions != nil {
				a.inst.suggestions.Add(ctx, 1, attrs)
			}
		}
	}
}

// bestActionFor resolves the strongest recorded action for the state, with
// the same single nearest-state retry the selector uses when the exact
// state was never observed.
func (a *Agent) bestActionFor(state gamestate.GameState) (gamepad.ControllerInput, bool) {
	if best, ok := a.memory.BestAction(state); ok {
		return best, true
	}
	nearest := a.memory.NearestState(state)
	if nearest.Key() == state.Key() {
		return gamepad.ControllerInput{}, false
	}
	return a.memory.BestAction(nearest)
}

// autoplayLoop replays learned behavior, or mirrors a delegated rule player
// when one is configured.
func (a *Agent) autoplayLoop(ctx context.Context) {
	attrs := modeAttr(ModeAutoplaying)
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.countTick(ctx, attrs)
			state, ok := a.currentState(ctx, attrs)
			if !ok {
				continue
			}

			if a.rule != nil {
				// Delegated: the rule player drives the pad itself. The
				// loop only keeps the session metrics mirroring its
				// counters.
				a.refreshMemoryStats(ctx)
				continue
			}

			in, ok := a.selector.Decide(state)
			if !ok {
				continue
			}
			a.inject(ctx, ModeAutoplaying, state, in, attrs)
		}
	}
}

// mimicLoop shares control with the player. A non-idle player input wins
// the tick outright: it is recorded and no action is synthesized. Only when
// the player is idle does the agent select and inject.
func (a *Agent) mimicLoop(ctx context.Context) {
	attrs := modeAttr(ModeMimicking)
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.countTick(ctx, attrs)
			state, ok := a.currentState(ctx, attrs)
			if !ok {
				continue
			}

			user := a.inputs.Current()
			if !user.IsIdle() {
				a.memory.Record(state, user.Normalize(time.Now()))
				if a.inst.records != nil {
					a.inst.records.Add(ctx, 1, attrs)
				}
				a.refreshMemoryStats(ctx)

				// Drop any synthetic holds so the player never fights a
				// ghost button from an earlier idle stretch.
				if err := a.pad.ReleaseAll(); err != nil {
					a.logger.Warn("failed to release pad on player takeover", zap.Error(err))
				}
				continue
			}

			in, ok := a.selector.Decide(state)
			if !ok {
				continue
			}
			a.inject(ctx, ModeMimicking, state, in, attrs)
		}
	}
}

// inject drives one selected action into the pad and emits its event. The
// timestamp is refreshed so the injected copy records when it was replayed,
// not when it was originally observed.
func (a *Agent) inject(ctx context.Context, mode Mode, state gamestate.GameState, in gamepad.ControllerInput, attrs metric.MeasurementOption) {
	in.Timestamp = time.Now()
	if err := a.pad.Inject(in); err != nil {
		a.logger.Warn("failed to inject action",
			zap.String("mode", string(mode)),
			zap.String("button", string(in.Button)),
			zap.Error(err),
		)
		return
	}

	a.sess.update(func(m *Metrics) {
		m.InjectedActions++
	})
	if a.inst.injections != nil {
		a.inst.injections.Add(ctx, 1, attrs)
	}
	a.publish(events.Event{
		Type:        events.TypeAction,
		Mode:        string(mode),
		Game:        a.Game(),
		Fingerprint: state.Fingerprint,
		Input:       in,
	})
}
