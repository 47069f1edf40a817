package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAutosaveInterval is how often the autosaver exports when enabled.
const DefaultAutosaveInterval = 5 * time.Minute

// Autosaver periodically exports learned behavior to a pack file so a
// crashed or killed daemon loses at most one interval of learning.
//
// Exports only happen while a learning mode is active and only when the
// memory actually grew since the last save. Thread-safe; Start and Stop may
// be called from any goroutine.
type Autosaver struct {
	agent    *Agent
	path     string
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	lastTotal int
	saves     uint64
}

// AutosaverOption configures an Autosaver.
type AutosaverOption func(*Autosaver)

// WithSaveInterval sets the export interval. Values <= 0 keep the default.
func WithSaveInterval(d time.Duration) AutosaverOption {
	return func(s *Autosaver) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewAutosaver creates an autosaver writing packs to path.
func NewAutosaver(agent *Agent, path string, logger *zap.Logger, opts ...AutosaverOption) (*Autosaver, error) {
	if agent == nil {
		return nil, fmt.Errorf("agent cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("autosave path cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Autosaver{
		agent:    agent,
		path:     path,
		interval: DefaultAutosaveInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start begins the background save loop. Calling Start on a running
// autosaver returns an error without starting a second goroutine.
func (s *Autosaver) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("autosaver is already running")
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true

	s.logger.Info("behavior autosave started",
		zap.String("path", s.path),
		zap.Duration("interval", s.interval),
	)

	go s.run(s.stopCh, s.doneCh)
	return nil
}

// Stop halts the save loop and waits for an in-flight export to finish.
// Stopping an idle autosaver is a no-op.
func (s *Autosaver) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
	s.logger.Info("behavior autosave stopped")
}

// Saves returns how many exports the autosaver has completed.
func (s *Autosaver) Saves() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Autosaver) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("autosave goroutine panicked",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.saveOnce()
		case <-stopCh:
			// Final save on the way out so a clean shutdown never loses
			// the tail of a session.
			s.saveOnce()
			return
		}
	}
}

// saveOnce exports if a learning mode is active and new actions arrived
// since the last save. Errors are logged but never stop the loop.
func (s *Autosaver) saveOnce() {
	m := s.agent.Metrics()
	if !m.IsLearning {
		return
	}

	total := m.ActionsLearned
	s.mu.Lock()
	unchanged := total == s.lastTotal
	s.mu.Unlock()
	if unchanged {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.agent.ExportBehaviors(ctx, s.path); err != nil {
		s.logger.Error("autosave export failed",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return
	}

	s.mu.Lock()
	s.lastTotal = total
	s.saves++
	s.mu.Unlock()
}
