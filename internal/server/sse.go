package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/ghostpad/internal/events"
)

// heartbeatInterval keeps idle SSE connections alive through proxies that
// close quiet streams.
const heartbeatInterval = 15 * time.Second

// handleEvents streams agent events as server-sent events. The subscription
// lasts until the client disconnects; slow clients drop events rather than
// stall the agent loops.
func (s *Server) handleEvents(c echo.Context) error {
	if s.bus == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "event streaming is not configured")
	}

	ch, cancel := s.bus.Subscribe(events.DefaultSubscriberBuffer)
	defer cancel()

	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return nil
			}
			c.Response().Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Response(), ": keep-alive\n\n"); err != nil {
				return nil
			}
			c.Response().Flush()
		}
	}
}
