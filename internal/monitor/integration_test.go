//go:build integration
// +build integration

package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStatusClient_Integration tests against a real running ghostpadd
// Run with: go test -tags=integration ./internal/monitor/...
func TestStatusClient_Integration(t *testing.T) {
	daemonURL := "http://127.0.0.1:8420"
	client := NewStatusClient(daemonURL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("status_snapshot", func(t *testing.T) {
		status, err := client.Status(ctx)
		require.NoError(t, err, "ghostpadd should be reachable at %s", daemonURL)
		assert.NotEmpty(t, status.Mode)
		t.Logf("Status: mode=%s game=%q states=%d actions=%d",
			status.Mode, status.Game, status.DistinctStates, status.ActionsLearned)
	})

	t.Run("counters_are_consistent", func(t *testing.T) {
		status, err := client.Status(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, status.Ticks, status.MissedFrames,
			"missed frames cannot exceed ticks")
		assert.GreaterOrEqual(t, status.LearningProgress, 0.0)
		assert.LessOrEqual(t, status.LearningProgress, 1.0)
		assert.GreaterOrEqual(t, status.Confidence, 0.0)
		assert.LessOrEqual(t, status.Confidence, 1.0)
	})
}

// TestMonitorModel_Integration drives the full dashboard model against a
// real running ghostpadd
func TestMonitorModel_Integration(t *testing.T) {
	daemonURL := "http://127.0.0.1:8420"
	model := NewModel(daemonURL, 2*time.Second)

	cmd := model.Init()
	require.NotNil(t, cmd, "Init should return command")

	fetchCmd := fetchStatus(daemonURL)
	msg := fetchCmd()

	switch msg := msg.(type) {
	case statusMsg:
		t.Logf("Received status: mode=%s frames=%d inputs=%d",
			msg.Mode, msg.FramesReceived, msg.InputUpdates)
		updated, _ := model.Update(msg)
		view := updated.(Model).View()
		assert.Contains(t, view, "ghostpad Monitor")

	case errMsg:
		t.Logf("Error fetching status (expected if ghostpadd is not running): %v", msg)

	default:
		t.Fatalf("Unexpected message type: %T", msg)
	}
}
