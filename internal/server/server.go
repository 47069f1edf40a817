// Package server exposes the daemon's HTTP surface: the emulator bridge
// endpoints (frames in, player input in, virtual pad out), the agent
// control API, and the live event stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostpad/internal/agent"
	"github.com/fyrsmithlabs/ghostpad/internal/events"
	"github.com/fyrsmithlabs/ghostpad/internal/frame"
	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
	"github.com/fyrsmithlabs/ghostpad/internal/profile"
)

const (
	// DefaultListenAddr binds to loopback: the bridge runs on the same
	// machine as the emulator, and the control API is not authenticated.
	DefaultListenAddr = "127.0.0.1:8420"

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
}

// Dependencies wires the server to the daemon's components. Agent, Frames,
// Inputs, Pad, and Encoder are required; Bus and Profiles are optional and
// disable their endpoints when nil.
type Dependencies struct {
	Agent    *agent.Agent
	Frames   *frame.Mailbox
	Inputs   *gamepad.InputMailbox
	Pad      *gamepad.VirtualPad
	Encoder  *gamestate.Encoder
	Bus      *events.Bus
	Profiles *profile.Registry

	// BehaviorsDir is where relative and default pack paths resolve.
	BehaviorsDir string
}

func (d Dependencies) validate() error {
	switch {
	case d.Agent == nil:
		return fmt.Errorf("agent cannot be nil")
	case d.Frames == nil:
		return fmt.Errorf("frame mailbox cannot be nil")
	case d.Inputs == nil:
		return fmt.Errorf("input mailbox cannot be nil")
	case d.Pad == nil:
		return fmt.Errorf("virtual pad cannot be nil")
	case d.Encoder == nil:
		return fmt.Errorf("state encoder cannot be nil")
	}
	return nil
}

// Server provides the HTTP endpoints for ghostpadd.
type Server struct {
	echo   *echo.Echo
	logger *zap.Logger
	config Config

	agent        *agent.Agent
	frames       *frame.Mailbox
	inputs       *gamepad.InputMailbox
	pad          *gamepad.VirtualPad
	encoder      *gamestate.Encoder
	bus          *events.Bus
	profiles     *profile.Registry
	behaviorsDir string
}

// New creates the HTTP server.
func New(deps Dependencies, logger *zap.Logger, cfg Config) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			// Frame uploads arrive at 60 Hz; logging each would drown
			// everything else, so the bridge hot paths log at debug.
			log := logger.Info
			switch c.Path() {
			case "/v1/frames", "/v1/input", "/v1/pad":
				log = logger.Debug
			}
			log("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:         e,
		logger:       logger,
		config:       cfg,
		agent:        deps.Agent,
		frames:       deps.Frames,
		inputs:       deps.Inputs,
		pad:          deps.Pad,
		encoder:      deps.Encoder,
		bus:          deps.Bus,
		profiles:     deps.Profiles,
		behaviorsDir: deps.BehaviorsDir,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	v1 := s.echo.Group("/v1")

	// Emulator bridge surface.
	v1.POST("/frames", s.handleFrame)
	v1.POST("/input", s.handleInput)
	v1.GET("/pad", s.handlePad)

	// Agent control surface.
	v1.POST("/agent/start", s.handleAgentStart)
	v1.POST("/agent/stop", s.handleAgentStop)
	v1.GET("/status", s.handleStatus)
	v1.GET("/events", s.handleEvents)

	v1.POST("/behaviors/export", s.handleBehaviorsExport)
	v1.POST("/behaviors/import", s.handleBehaviorsImport)
	v1.POST("/behaviors/reset", s.handleBehaviorsReset)

	v1.POST("/profile", s.handleProfileActivate)
	v1.GET("/profiles", s.handleProfileList)
}

// Echo returns the underlying Echo instance for registering additional
// routes, such as the Prometheus metrics handler.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server and blocks until the context is cancelled.
// Returns http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting http server", zap.String("addr", s.config.ListenAddr))
		if err := s.echo.Start(s.config.ListenAddr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down http server")
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Mode:   s.agent.Mode().String(),
	})
}
