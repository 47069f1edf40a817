package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostpad/internal/agent"
	"github.com/fyrsmithlabs/ghostpad/internal/behavior"
	"github.com/fyrsmithlabs/ghostpad/internal/frame"
	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
	"github.com/fyrsmithlabs/ghostpad/internal/profile"
)

// Frame geometry travels in headers so the body stays raw RGBA, sparing the
// bridge a base64 or multipart encode at 60 Hz.
const (
	headerFrameWidth  = "X-Frame-Width"
	headerFrameHeight = "X-Frame-Height"
	headerFrameStride = "X-Frame-Stride"
)

const (
	// maxFrameDim bounds width and height; nothing an N64 core renders
	// comes close.
	maxFrameDim = 4096

	// maxFrameBytes caps one frame upload.
	maxFrameBytes = 16 << 20
)

// httpError maps domain errors onto HTTP statuses. Anything unmapped falls
// through to echo's default 500 handling.
func httpError(err error) error {
	switch {
	case errors.Is(err, agent.ErrUnknownMode), errors.Is(err, agent.ErrNotStartable):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, agent.ErrAgentClosed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, behavior.ErrIncompatibleSnapshot), errors.Is(err, behavior.ErrInvalidSnapshot):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, profile.ErrNoProfile):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return err
}

func headerInt(c echo.Context, name string) (int, error) {
	raw := c.Request().Header.Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s header", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s header: %q", name, raw)
	}
	return v, nil
}

// FrameAck is the response body for POST /v1/frames.
type FrameAck struct {
	Seq uint64 `json:"seq"`
}

// handleFrame ingests one raw RGBA frame from the bridge.
func (s *Server) handleFrame(c echo.Context) error {
	width, err := headerInt(c, headerFrameWidth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	height, err := headerInt(c, headerFrameHeight)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	stride := width * 4
	if raw := c.Request().Header.Get(headerFrameStride); raw != "" {
		if stride, err = headerInt(c, headerFrameStride); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	if width < 1 || width > maxFrameDim || height < 1 || height > maxFrameDim {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("frame geometry %dx%d out of range", width, height))
	}
	if stride < width*4 {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("stride %d cannot cover %d pixels per row", stride, width))
	}
	expected := height * stride
	if expected > maxFrameBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("frame of %d bytes exceeds the %d byte limit", expected, maxFrameBytes))
	}

	pixels, err := io.ReadAll(io.LimitReader(c.Request().Body, int64(expected)+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reading frame body")
	}
	if len(pixels) != expected {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("frame body is %d bytes, want %d", len(pixels), expected))
	}

	f := &frame.Frame{Width: width, Height: height, Stride: stride, Pixels: pixels}
	if err := s.frames.Store(f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusAccepted, FrameAck{Seq: f.Seq})
}

// handleInput ingests the player's current pad state from the bridge.
func (s *Server) handleInput(c echo.Context) error {
	var in gamepad.ControllerInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid input body")
	}
	if in.Button != "" && !in.Button.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("unknown button %q", in.Button))
	}

	s.inputs.Set(in)
	return c.NoContent(http.StatusNoContent)
}

// handlePad serves the virtual pad snapshot the bridge applies to the core.
func (s *Server) handlePad(c echo.Context) error {
	return c.JSON(http.StatusOK, s.pad.State())
}

// StartRequest is the request body for POST /v1/agent/start.
type StartRequest struct {
	Mode string `json:"mode"`
}

// StartResponse is the response body for POST /v1/agent/start.
type StartResponse struct {
	Mode string `json:"mode"`
	Game string `json:"game,omitempty"`
}

func (s *Server) handleAgentStart(c echo.Context) error {
	var req StartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	mode, err := agent.ParseMode(req.Mode)
	if err != nil {
		return httpError(err)
	}
	if err := s.agent.StartMode(c.Request().Context(), mode); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, StartResponse{
		Mode: mode.String(),
		Game: s.agent.Game(),
	})
}

func (s *Server) handleAgentStop(c echo.Context) error {
	if err := s.agent.Stop(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StatusResponse is the response body for GET /v1/status.
type StatusResponse struct {
	agent.Metrics

	FramesReceived uint64           `json:"frames_received"`
	InputUpdates   uint64           `json:"input_updates"`
	Pad            gamepad.PadState `json:"pad"`
	EventsDropped  uint64           `json:"events_dropped"`
}

func (s *Server) handleStatus(c echo.Context) error {
	resp := StatusResponse{
		Metrics:        s.agent.Metrics(),
		FramesReceived: s.frames.Received(),
		InputUpdates:   s.inputs.Updates(),
		Pad:            s.pad.State(),
	}
	if s.bus != nil {
		resp.EventsDropped = s.bus.Dropped()
	}
	return c.JSON(http.StatusOK, resp)
}

// PackRequest selects a behavior pack location for export and import. An
// empty path means the default pack for the active game; a relative path
// resolves under the behaviors directory.
type PackRequest struct {
	Path string `json:"path"`
}

// ExportResponse is the response body for POST /v1/behaviors/export.
type ExportResponse struct {
	Path    string `json:"path"`
	States  int    `json:"states"`
	Actions int    `json:"actions"`
}

// ImportResponse is the response body for POST /v1/behaviors/import.
type ImportResponse struct {
	Path    string    `json:"path"`
	Game    string    `json:"game,omitempty"`
	States  int       `json:"states"`
	SavedAt time.Time `json:"saved_at"`
}

// resolvePackPath turns the request path into an absolute pack location.
func (s *Server) resolvePackPath(path string) string {
	if path == "" {
		name := s.agent.Game()
		if name == "" {
			name = "behaviors"
		}
		path = name + ".json"
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.behaviorsDir, path)
}

func (s *Server) bindPackRequest(c echo.Context) (string, error) {
	var req PackRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return "", echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	return s.resolvePackPath(req.Path), nil
}

func (s *Server) handleBehaviorsExport(c echo.Context) error {
	path, err := s.bindPackRequest(c)
	if err != nil {
		return err
	}

	if err := s.agent.ExportBehaviors(c.Request().Context(), path); err != nil {
		return httpError(err)
	}

	m := s.agent.Metrics()
	return c.JSON(http.StatusOK, ExportResponse{
		Path:    path,
		States:  m.DistinctStates,
		Actions: m.ActionsLearned,
	})
}

func (s *Server) handleBehaviorsImport(c echo.Context) error {
	path, err := s.bindPackRequest(c)
	if err != nil {
		return err
	}

	snap, err := s.agent.ImportBehaviors(c.Request().Context(), path)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ImportResponse{
		Path:    path,
		Game:    snap.Game,
		States:  len(snap.States),
		SavedAt: snap.SavedAt,
	})
}

func (s *Server) handleBehaviorsReset(c echo.Context) error {
	s.agent.ResetBehaviors(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// ProfileRequest is the request body for POST /v1/profile.
type ProfileRequest struct {
	Game string `json:"game"`
}

// ProfileResponse is the response body for POST /v1/profile.
type ProfileResponse struct {
	Game  string `json:"game"`
	Hints int    `json:"hints"`
}

func (s *Server) handleProfileActivate(c echo.Context) error {
	if s.profiles == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "game profiles are not configured")
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Game == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "game field is required")
	}

	p, err := s.profiles.Activate(req.Game, s.encoder.Analyzer())
	if err != nil {
		return httpError(err)
	}
	s.agent.SetGame(p.Name)

	s.logger.Info("game profile activated",
		zap.String("game", p.Name),
		zap.Int("hints", len(p.Hints)),
	)
	return c.JSON(http.StatusOK, ProfileResponse{Game: p.Name, Hints: len(p.Hints)})
}

// ProfileListResponse is the response body for GET /v1/profiles.
type ProfileListResponse struct {
	Active    string   `json:"active,omitempty"`
	Available []string `json:"available"`
}

func (s *Server) handleProfileList(c echo.Context) error {
	if s.profiles == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "game profiles are not configured")
	}
	return c.JSON(http.StatusOK, ProfileListResponse{
		Active:    s.profiles.Active(),
		Available: s.profiles.Names(),
	})
}
