package agent

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Metrics is the observable session snapshot. It is derived state,
// recomputed by the running mode loop every tick, and never authoritative:
// the behavior memory is.
type Metrics struct {
	Mode Mode   `json:"mode"`
	Game string `json:"game,omitempty"`

	// IsLearning and IsPlaying derive from Mode.
	IsLearning bool `json:"is_learning"`
	IsPlaying  bool `json:"is_playing"`

	// ActionsLearned is the total recorded input count. Under a delegated
	// rule player it mirrors the player's decision counter instead.
	ActionsLearned int `json:"actions_learned"`

	// DistinctStates is the number of distinct state keys in memory.
	DistinctStates int `json:"distinct_states"`

	// LearningProgress and Confidence are the estimator outputs in [0, 1].
	LearningProgress float64 `json:"learning_progress"`
	Confidence       float64 `json:"confidence"`

	// LastFingerprint is the most recently encoded state.
	LastFingerprint uint64 `json:"last_fingerprint,omitempty"`

	// Ticks counts loop iterations since the current mode started.
	Ticks uint64 `json:"ticks"`

	// MissedFrames counts ticks skipped because no frame was available.
	MissedFrames uint64 `json:"missed_frames"`

	// InjectedActions counts inputs the agent injected this session.
	InjectedActions uint64 `json:"injected_actions"`

	// Suggestions counts advisory events emitted this session.
	Suggestions uint64 `json:"suggestions"`

	UpdatedAt time.Time `json:"updated_at"`
}

// sessionMetrics holds the loop-written snapshot. Single-writer: only the
// active mode loop (and the serialized import/reset admin path) mutates it;
// readers take copies.
type sessionMetrics struct {
	mu sync.RWMutex
	m  Metrics
}

func (s *sessionMetrics) update(fn func(*Metrics)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.m)
	s.m.UpdatedAt = time.Now()
}

func (s *sessionMetrics) snapshot() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m
}

// reset clears per-session counters when a new mode loop starts.
func (s *sessionMetrics) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Ticks = 0
	s.m.MissedFrames = 0
	s.m.InjectedActions = 0
	s.m.Suggestions = 0
	s.m.UpdatedAt = time.Now()
}

// instruments are the agent's OpenTelemetry metrics.
type instruments struct {
	ticks        metric.Int64Counter
	records      metric.Int64Counter
	injections   metric.Int64Counter
	suggestions  metric.Int64Counter
	missedFrames metric.Int64Counter
	modeSwitches metric.Int64Counter
	confidence   metric.Float64Gauge
	progress     metric.Float64Gauge
}

// initMetrics initializes OpenTelemetry metrics.
func (a *Agent) initMetrics() {
	var err error

	a.inst.ticks, err = a.meter.Int64Counter(
		"ghostpad.agent.ticks_total",
		metric.WithDescription("Total mode-loop ticks executed"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		a.logger.Warn("failed to create tick counter", zap.Error(err))
	}

	a.inst.records, err = a.meter.Int64Counter(
		"ghostpad.agent.records_total",
		metric.WithDescription("Total (state, input) pairs recorded"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		a.logger.Warn("failed to create record counter", zap.Error(err))
	}

	a.inst.injections, err = a.meter.Int64Counter(
		"ghostpad.agent.injections_total",
		metric.WithDescription("Total inputs injected into the virtual pad"),
		metric.WithUnit("{input}"),
	)
	if err != nil {
		a.logger.Warn("failed to create injection counter", zap.Error(err))
	}

	a.inst.suggestions, err = a.meter.Int64Counter(
		"ghostpad.agent.suggestions_total",
		metric.WithDescription("Total advisory suggestions emitted"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		a.logger.Warn("failed to create suggestion counter", zap.Error(err))
	}

	a.inst.missedFrames, err = a.meter.Int64Counter(
		"ghostpad.agent.missed_frames_total",
		metric.WithDescription("Ticks skipped because no frame was available"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		a.logger.Warn("failed to create missed-frame counter", zap.Error(err))
	}

	a.inst.modeSwitches, err = a.meter.Int64Counter(
		"ghostpad.agent.mode_switches_total",
		metric.WithDescription("Total mode transitions"),
		metric.WithUnit("{switch}"),
	)
	if err != nil {
		a.logger.Warn("failed to create mode-switch counter", zap.Error(err))
	}

	a.inst.confidence, err = a.meter.Float64Gauge(
		"ghostpad.agent.confidence",
		metric.WithDescription("Current confidence estimate"),
	)
	if err != nil {
		a.logger.Warn("failed to create confidence gauge", zap.Error(err))
	}

	a.inst.progress, err = a.meter.Float64Gauge(
		"ghostpad.agent.learning_progress",
		metric.WithDescription("Current learning progress"),
	)
	if err != nil {
		a.logger.Warn("failed to create progress gauge", zap.Error(err))
	}
}
