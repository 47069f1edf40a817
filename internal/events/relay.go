package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultSubjectPrefix is the NATS subject prefix for relayed events;
// the event type is appended (ghostpad.events.suggestion, .action).
const DefaultSubjectPrefix = "ghostpad.events"

// defaultPublishRate caps relay throughput at twice the action-event tick
// rate, enough for a full 60 Hz action stream plus assist suggestions.
const defaultPublishRate = rate.Limit(120)

// Relay republishes bus events to NATS for out-of-process consumers
// (overlays, stream tooling).
//
// The relay inherits the bus's fire-and-forget contract and adds a rate
// cap: events beyond the configured publish rate are dropped, not queued.
type Relay struct {
	nc      *nats.Conn
	limiter *rate.Limiter
	prefix  string
	logger  *zap.Logger

	mu      sync.Mutex
	dropped uint64
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithSubjectPrefix overrides the NATS subject prefix.
func WithSubjectPrefix(prefix string) RelayOption {
	return func(r *Relay) {
		r.prefix = prefix
	}
}

// WithPublishRate overrides the relay's publish rate cap.
func WithPublishRate(limit rate.Limit, burst int) RelayOption {
	return func(r *Relay) {
		r.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewRelay creates a relay over an established NATS connection.
func NewRelay(nc *nats.Conn, logger *zap.Logger, opts ...RelayOption) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Relay{
		nc:      nc,
		limiter: rate.NewLimiter(defaultPublishRate, int(defaultPublishRate)),
		prefix:  DefaultSubjectPrefix,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run subscribes to the bus and republishes events until ctx is cancelled
// or the bus closes. Blocking; callers run it in a goroutine.
func (r *Relay) Run(ctx context.Context, bus *Bus) {
	ch, cancel := bus.Subscribe(DefaultSubscriberBuffer)
	defer cancel()

	r.logger.Info("event relay started", zap.String("subject_prefix", r.prefix))
	defer r.logger.Info("event relay stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.publish(ev)
		}
	}
}

func (r *Relay) publish(ev Event) {
	if !r.limiter.Allow() {
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		r.logger.Warn("failed to marshal relay event", zap.Error(err))
		return
	}

	subject := r.prefix + "." + string(ev.Type)
	if err := r.nc.Publish(subject, data); err != nil {
		// Fire-and-forget: log and move on.
		r.logger.Warn("relay publish failed",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

// Dropped returns how many events the rate cap discarded.
func (r *Relay) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
