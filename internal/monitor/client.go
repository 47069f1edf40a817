// Package monitor renders a live terminal dashboard for a running ghostpadd,
// polling its status API the way k9s watches a cluster.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Status mirrors the daemon's GET /v1/status payload. The monitor keeps its
// own copy of the shape so it stays a pure API client.
type Status struct {
	Mode             string  `json:"mode"`
	Game             string  `json:"game,omitempty"`
	IsLearning       bool    `json:"is_learning"`
	IsPlaying        bool    `json:"is_playing"`
	ActionsLearned   int     `json:"actions_learned"`
	DistinctStates   int     `json:"distinct_states"`
	LearningProgress float64 `json:"learning_progress"`
	Confidence       float64 `json:"confidence"`
	LastFingerprint  uint64  `json:"last_fingerprint,omitempty"`
	Ticks            uint64  `json:"ticks"`
	MissedFrames     uint64  `json:"missed_frames"`
	InjectedActions  uint64  `json:"injected_actions"`
	Suggestions      uint64  `json:"suggestions"`

	FramesReceived uint64 `json:"frames_received"`
	InputUpdates   uint64 `json:"input_updates"`
	EventsDropped  uint64 `json:"events_dropped"`
}

// StatusClient queries the ghostpadd status API.
type StatusClient struct {
	baseURL string
	client  *http.Client
}

// NewStatusClient creates a new status client.
func NewStatusClient(baseURL string) *StatusClient {
	return &StatusClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// Status fetches the daemon's current status.
func (c *StatusClient) Status(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/status", nil)
	if err != nil {
		return Status{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return status, nil
}
