// Ghostpadd is the gameplay-learning daemon for Nintendo 64 emulators.
//
// This binary starts the HTTP server the emulator bridge talks to, with
// full component initialization: frame and input mailboxes, the virtual
// pad, behavior memory, the learning agent, and the optional NATS event
// relay, behavior autosave, and pack auto-import.
//
// Configuration is loaded from a YAML file with environment variable
// overrides. See internal/config for details.
//
// Usage:
//
//	# Start the daemon with defaults
//	ghostpadd
//
//	# Configure via flag or environment
//	ghostpadd -config /etc/ghostpad/config.yaml
//	SERVER_LISTEN_ADDR=127.0.0.1:9000 BEHAVIORS_DIR=/var/lib/ghostpad ghostpadd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/ghostpad/internal/agent"
	"github.com/fyrsmithlabs/ghostpad/internal/behavior"
	"github.com/fyrsmithlabs/ghostpad/internal/config"
	"github.com/fyrsmithlabs/ghostpad/internal/events"
	"github.com/fyrsmithlabs/ghostpad/internal/frame"
	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
	"github.com/fyrsmithlabs/ghostpad/internal/logging"
	"github.com/fyrsmithlabs/ghostpad/internal/profile"
	"github.com/fyrsmithlabs/ghostpad/internal/server"
	"github.com/fyrsmithlabs/ghostpad/internal/telemetry"
	"github.com/fyrsmithlabs/ghostpad/internal/watch"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// autosaveFile is the pack name autosave writes into the behaviors
// directory. The auto-import watcher skips it so the daemon never imports
// its own checkpoints.
const autosaveFile = "autosave.json"

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()
	args := flag.Args()

	// Handle subcommands
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  ghostpadd           Start the ghostpad daemon\n")
			fmt.Fprintf(os.Stderr, "  ghostpadd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Daemon error: %v", err)
	}

	log.Println("Daemon shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("ghostpadd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until the context is cancelled.
//
// This function initializes all components:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Builds the bridge mailboxes, virtual pad, and behavior memory
//  4. Creates the learning agent
//  5. Starts the optional NATS relay, autosaver, and pack watcher
//  6. Starts the HTTP server
//
// Returns http.ErrServerClosed on graceful shutdown.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger) // Best-effort sync on shutdown
	}()

	logger.Info("starting ghostpadd",
		zap.String("version", version),
		zap.String("addr", cfg.Server.ListenAddr),
		zap.String("service", cfg.Observability.ServiceName),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Observability.EnableTelemetry,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       cfg.Observability.OTLPInsecure,
		SampleRate:     cfg.Observability.SampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	deps, err := initDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info("dependencies initialized",
		zap.Bool("nats_relay", deps.natsConn != nil),
		zap.Bool("autosave", deps.autosaver != nil),
		zap.Bool("auto_import", deps.watcher != nil),
		zap.Strings("profiles", deps.profiles.Names()))

	srv, err := server.New(server.Dependencies{
		Agent:        deps.agent,
		Frames:       deps.frames,
		Inputs:       deps.inputs,
		Pad:          deps.pad,
		Encoder:      deps.encoder,
		Bus:          deps.bus,
		Profiles:     deps.profiles,
		BehaviorsDir: cfg.Behaviors.Dir,
	}, logger, server.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Register metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info("server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s/health", cfg.Server.ListenAddr)),
		zap.String("bridge_prefix", "/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	// Start server (blocks until context cancellation)
	return srv.Start(ctx)
}

// dependencies holds all daemon components.
type dependencies struct {
	frames    *frame.Mailbox
	inputs    *gamepad.InputMailbox
	pad       *gamepad.VirtualPad
	encoder   *gamestate.Encoder
	memory    *behavior.Memory
	bus       *events.Bus
	agent     *agent.Agent
	profiles  *profile.Registry
	autosaver *agent.Autosaver
	watcher   *watch.Watcher
	natsConn  *nats.Conn
	logger    *zap.Logger
}

// Close releases all components. Order matters: the watcher stops before
// the autosaver takes its final save, and the agent closes before the bus
// and the NATS connection go away underneath it.
func (d *dependencies) Close() {
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.autosaver != nil {
		d.autosaver.Stop()
	}
	if d.agent != nil {
		if err := d.agent.Close(); err != nil {
			d.logger.Warn("agent close failed", zap.Error(err))
		}
	}
	if d.bus != nil {
		d.bus.Close()
	}
	if d.natsConn != nil {
		d.natsConn.Close()
	}
}

// initDependencies builds the daemon's component graph.
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{
		frames:  frame.NewMailbox(frame.WithStaleAfter(cfg.Agent.FrameStaleAfter)),
		inputs:  gamepad.NewInputMailbox(),
		pad:     gamepad.NewVirtualPad(),
		encoder: gamestate.NewEncoder(nil),
		memory:  behavior.NewMemory(behavior.WithRingCapacity(cfg.Agent.RingCapacity)),
		bus:     events.NewBus(logger),
		logger:  logger,
	}

	var selectorOpts []behavior.SelectorOption
	if cfg.Agent.SelectorSeed != 0 {
		selectorOpts = append(selectorOpts, behavior.WithSeed(cfg.Agent.SelectorSeed))
	}
	selector := behavior.NewSelector(deps.memory, selectorOpts...)

	ag, err := agent.New(agent.Dependencies{
		Frames:   deps.frames,
		Inputs:   deps.inputs,
		Pad:      deps.pad,
		Encoder:  deps.encoder,
		Memory:   deps.memory,
		Selector: selector,
		Bus:      deps.bus,
	}, logger,
		agent.WithTickInterval(cfg.Agent.TickInterval),
		agent.WithAssistInterval(cfg.Agent.AssistInterval),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	deps.agent = ag

	profiles, err := profile.LoadRegistry(cfg.Profiles.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load game profiles: %w", err)
	}
	deps.profiles = profiles

	// Optional NATS relay for out-of-process event consumers.
	if cfg.Events.NATSURL != "" {
		nc, err := nats.Connect(cfg.Events.NATSURL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(1*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.Events.NATSURL, err)
		}
		deps.natsConn = nc

		relay := events.NewRelay(nc, logger,
			events.WithSubjectPrefix(cfg.Events.SubjectPrefix),
			events.WithPublishRate(rate.Limit(cfg.Events.PublishRate), int(cfg.Events.PublishRate)),
		)
		go relay.Run(ctx, deps.bus)

		logger.Info("connected to NATS",
			zap.String("url", cfg.Events.NATSURL),
			zap.String("subject_prefix", cfg.Events.SubjectPrefix))
	}

	// Optional periodic behavior autosave.
	if cfg.Behaviors.Autosave {
		if err := os.MkdirAll(cfg.Behaviors.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create behaviors directory: %w", err)
		}

		saver, err := agent.NewAutosaver(ag, filepath.Join(cfg.Behaviors.Dir, autosaveFile), logger,
			agent.WithSaveInterval(cfg.Behaviors.AutosaveEvery))
		if err != nil {
			return nil, fmt.Errorf("failed to create autosaver: %w", err)
		}
		if err := saver.Start(); err != nil {
			return nil, fmt.Errorf("failed to start autosaver: %w", err)
		}
		deps.autosaver = saver
	}

	// Optional behavior-pack auto-import.
	if cfg.Behaviors.AutoImport {
		w, err := watch.New(cfg.Behaviors.Dir, ag, logger, watch.WithIgnore(autosaveFile))
		if err != nil {
			return nil, fmt.Errorf("failed to create pack watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start pack watcher: %w", err)
		}
		deps.watcher = w
	}

	return deps, nil
}
