// Package config provides configuration loading for ghostpadd.
//
// Configuration is loaded from a YAML file with environment variable
// overrides and sensible defaults; see LoadWithFile for precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/ghostpad/internal/logging"
)

// Defaults applied by applyDefaults when the file and environment leave a
// field unset.
const (
	// DefaultListenAddr binds loopback only: the emulator bridge runs on
	// the same machine and the API is unauthenticated.
	DefaultListenAddr = "127.0.0.1:8420"

	DefaultShutdownTimeout = 10 * time.Second

	// DefaultTickInterval is the 60 Hz mode-loop cadence.
	DefaultTickInterval = time.Second / 60

	// DefaultAssistInterval is the slower advisory cadence of Assist mode.
	DefaultAssistInterval = 500 * time.Millisecond

	DefaultRingCapacity    = 1000
	DefaultFrameStaleAfter = 250 * time.Millisecond
	DefaultServiceName     = "ghostpadd"
	DefaultSubjectPrefix   = "ghostpad.events"
	DefaultPublishRate     = 120.0
	DefaultAutosaveEvery   = 5 * time.Minute
)

// Config holds the complete ghostpadd configuration.
type Config struct {
	Server        ServerConfig
	Logging       logging.Config
	Observability ObservabilityConfig
	Agent         AgentConfig
	Behaviors     BehaviorsConfig
	Profiles      ProfilesConfig
	Events        EventsConfig
}

// ServerConfig holds HTTP bridge-API server configuration.
type ServerConfig struct {
	ListenAddr      string        `koanf:"listen_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`

	// OTLPEndpoint is the collector's gRPC address (host:port).
	OTLPEndpoint string `koanf:"otlp_endpoint"`

	// OTLPInsecure disables TLS toward the collector.
	OTLPInsecure bool `koanf:"otlp_insecure"`

	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64 `koanf:"sample_rate"`
}

// AgentConfig tunes the learning agent's loops and memory.
type AgentConfig struct {
	// TickInterval is the cadence of the Observe/Learn/Autoplay/Mimic
	// loops. Assist runs on AssistInterval instead.
	TickInterval   time.Duration `koanf:"tick_interval"`
	AssistInterval time.Duration `koanf:"assist_interval"`

	// RingCapacity bounds the recent-state ring used for nearest-state
	// fallback.
	RingCapacity int `koanf:"ring_capacity"`

	// SelectorSeed seeds action selection. Zero means time-seeded; set it
	// for reproducible replays.
	SelectorSeed int64 `koanf:"selector_seed"`

	// FrameStaleAfter is how long the last pushed frame stays servable
	// once the bridge goes quiet.
	FrameStaleAfter time.Duration `koanf:"frame_stale_after"`
}

// BehaviorsConfig controls behavior-pack persistence.
type BehaviorsConfig struct {
	// Dir is watched for behavior packs when AutoImport is on, and is the
	// default destination for autosaves. Empty disables both.
	Dir string `koanf:"dir"`

	// AutoImport loads *.json behavior packs dropped into Dir.
	AutoImport bool `koanf:"auto_import"`

	// Autosave periodically exports memory to Dir while learning.
	Autosave      bool          `koanf:"autosave"`
	AutosaveEvery time.Duration `koanf:"autosave_every"`
}

// ProfilesConfig locates the per-game profiles file.
type ProfilesConfig struct {
	Path string `koanf:"path"`
}

// EventsConfig controls the optional NATS event relay.
type EventsConfig struct {
	// NATSURL enables the relay when set; empty keeps events in-process.
	NATSURL       string  `koanf:"nats_url"`
	SubjectPrefix string  `koanf:"subject_prefix"`
	PublishRate   float64 `koanf:"publish_rate"`
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return errors.New("server.listen_addr cannot be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("observability.service_name cannot be empty when telemetry is enabled")
	}
	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return errors.New("observability.sample_rate must be within [0, 1]")
	}
	if c.Agent.TickInterval <= 0 {
		return errors.New("agent.tick_interval must be positive")
	}
	if c.Agent.AssistInterval <= 0 {
		return errors.New("agent.assist_interval must be positive")
	}
	if c.Agent.RingCapacity <= 0 {
		return errors.New("agent.ring_capacity must be positive")
	}
	if c.Behaviors.Autosave {
		if c.Behaviors.Dir == "" {
			return errors.New("behaviors.dir is required when autosave is enabled")
		}
		if c.Behaviors.AutosaveEvery <= 0 {
			return errors.New("behaviors.autosave_every must be positive")
		}
	}
	if c.Behaviors.AutoImport && c.Behaviors.Dir == "" {
		return errors.New("behaviors.dir is required when auto_import is enabled")
	}
	if c.Events.NATSURL != "" && c.Events.PublishRate <= 0 {
		return errors.New("events.publish_rate must be positive")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	def := logging.DefaultConfig()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Format
	}
	if cfg.Logging.Sampling == (logging.SamplingConfig{}) {
		cfg.Logging.Sampling = def.Sampling
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = DefaultServiceName
	}
	if cfg.Observability.OTLPEndpoint == "" {
		cfg.Observability.OTLPEndpoint = "localhost:4317"
		cfg.Observability.OTLPInsecure = true
	}
	if cfg.Observability.SampleRate == 0 {
		cfg.Observability.SampleRate = 1.0
	}

	if cfg.Agent.TickInterval == 0 {
		cfg.Agent.TickInterval = DefaultTickInterval
	}
	if cfg.Agent.AssistInterval == 0 {
		cfg.Agent.AssistInterval = DefaultAssistInterval
	}
	if cfg.Agent.RingCapacity == 0 {
		cfg.Agent.RingCapacity = DefaultRingCapacity
	}
	if cfg.Agent.FrameStaleAfter == 0 {
		cfg.Agent.FrameStaleAfter = DefaultFrameStaleAfter
	}

	if cfg.Behaviors.AutosaveEvery == 0 {
		cfg.Behaviors.AutosaveEvery = DefaultAutosaveEvery
	}

	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.Events.PublishRate == 0 {
		cfg.Events.PublishRate = DefaultPublishRate
	}
}
