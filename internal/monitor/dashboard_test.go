package monitor

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestNewModel(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)
	assert.Equal(t, "http://localhost:8420", model.daemonURL)
	assert.Equal(t, 2*time.Second, model.interval)
	assert.False(t, model.quitting)
}

func TestModel_Init(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)
	cmd := model.Init()

	// Init should return a tick command to start auto-refresh
	assert.NotNil(t, cmd)
}

func TestModel_Update_QuitKey(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd) // Should return tea.Quit
}

func TestModel_Update_RefreshKey(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd) // Should return fetchStatus command
}

func TestModel_Update_TickMsg(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)

	msg := tickMsg(time.Now())
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd) // Should return batch command (tick + fetchStatus)
}

func TestModel_Update_StatusMsg(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)

	msg := statusMsg(Status{
		Mode:             "learning",
		Game:             "mario64",
		ActionsLearned:   512,
		DistinctStates:   128,
		LearningProgress: 0.35,
		Confidence:       0.6,
		FramesReceived:   1000,
	})
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.Equal(t, "learning", m.status.Mode)
	assert.Equal(t, 512, m.status.ActionsLearned)
	assert.False(t, m.lastUpdate.IsZero())
	assert.Len(t, m.confidenceHistory, 1)
	assert.Len(t, m.progressHistory, 1)
	assert.Nil(t, cmd)
}

func TestModel_Update_DerivesFrameRate(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)

	updatedModel, _ := model.Update(statusMsg(Status{FramesReceived: 1000}))
	m := updatedModel.(Model)

	// First poll establishes the baseline; no rate yet.
	assert.Equal(t, 0.0, m.frameRate)

	m.prevPoll = time.Now().Add(-time.Second)
	updatedModel, _ = m.Update(statusMsg(Status{FramesReceived: 1060}))
	m = updatedModel.(Model)

	assert.InDelta(t, 60.0, m.frameRate, 5.0)
}

func TestModel_Update_ErrMsg(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)

	msg := errMsg(fmt.Errorf("connection refused"))
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.NotNil(t, m.err)
	assert.Contains(t, m.err.Error(), "connection refused")
	assert.Nil(t, cmd)
}

func TestModel_View_WithStatus(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)
	model.status = Status{
		Mode:             "learning",
		Game:             "mario64",
		IsLearning:       true,
		ActionsLearned:   1200,
		DistinctStates:   340,
		LearningProgress: 0.42,
		Confidence:       0.81,
		Ticks:            72000,
		MissedFrames:     12,
		InjectedActions:  0,
		Suggestions:      5,
		FramesReceived:   71800,
		InputUpdates:     950,
	}
	model.lastUpdate = time.Date(2024, 1, 1, 12, 34, 56, 0, time.UTC)

	view := model.View()

	assert.Contains(t, view, "ghostpad Monitor")
	assert.Contains(t, view, "12:34:56")
	assert.Contains(t, view, "LEARNING")
	assert.Contains(t, view, "mario64")
	assert.Contains(t, view, "Session")
	assert.Contains(t, view, "72.0K")
	assert.Contains(t, view, "Learning")
	assert.Contains(t, view, "340")
	assert.Contains(t, view, "42.0%")
	assert.Contains(t, view, "81.0%")
	assert.Contains(t, view, "Bridge")
	assert.Contains(t, view, "71.8K")
	assert.Contains(t, view, "Agent Output")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_WithError(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)
	model.err = fmt.Errorf("connection refused")

	view := model.View()

	assert.Contains(t, view, "Cannot connect to ghostpadd")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "http://localhost:8420")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_NoData(t *testing.T) {
	model := NewModel("http://localhost:8420", 2*time.Second)
	// No status, no error

	view := model.View()

	assert.Contains(t, view, "ghostpad Monitor")
	assert.Contains(t, view, "IDLE")
	assert.Contains(t, view, "[q]")
}

func TestGetModeBadge(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{"idle", "IDLE"},
		{"observing", "OBSERVING"},
		{"learning", "LEARNING"},
		{"assisting", "ASSISTING"},
		{"autoplaying", "AUTOPLAY"},
		{"mimicking", "MIMIC"},
		{"corrupted", "? CORRUPTED"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Contains(t, getModeBadge(tt.mode), tt.want)
		})
	}
}

func TestAppendToHistory(t *testing.T) {
	history := make([]float64, 0, historySize)

	for i := 0; i < historySize+10; i++ {
		history = appendToHistory(history, float64(i))
	}

	assert.Len(t, history, historySize)
	assert.Equal(t, float64(10), history[0])
	assert.Equal(t, float64(historySize+9), history[len(history)-1])
}
