package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// Model represents the BubbleTea dashboard model
type Model struct {
	daemonURL  string
	interval   time.Duration
	startedAt  time.Time
	lastUpdate time.Time
	status     Status
	err        error
	quitting   bool

	// Frame rate is derived from the received-frames counter between polls.
	prevFrames uint64
	prevPoll   time.Time
	frameRate  float64

	// Historical data for sparklines (last N points)
	confidenceHistory []float64
	progressHistory   []float64
	frameRateHistory  []float64

	// Progress bar
	learnProgress progress.Model
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	// Header style - bright cyan background, bold black text
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	// Section title style - bold bright cyan
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	// Label style - dim cyan
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// Value style - bright white
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	// Dim style - for units and secondary info
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Status styles with unicode symbols
	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Playing style - magenta, for the modes that drive the pad
	playingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("201")).
			Bold(true)

	// Container style - rounded border with dim gray
	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	// Footer style - bright keys on dim background
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	// Sparkline container
	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a new dashboard model
func NewModel(daemonURL string, interval time.Duration) Model {
	learnProg := progress.New(
		progress.WithGradient("#00ff00", "#00ffff"),
		progress.WithWidth(40),
	)

	return Model{
		daemonURL:         daemonURL,
		interval:          interval,
		startedAt:         time.Now(),
		quitting:          false,
		learnProgress:     learnProg,
		confidenceHistory: make([]float64, 0, historySize),
		progressHistory:   make([]float64, 0, historySize),
		frameRateHistory:  make([]float64, 0, historySize),
	}
}

// getModeBadge returns a colored badge for the agent mode
func getModeBadge(mode string) string {
	switch mode {
	case "", "idle":
		return dimStyle.Render("○ IDLE")
	case "observing":
		return labelStyle.Render("◌ OBSERVING")
	case "learning":
		return healthyStyle.Render("● LEARNING")
	case "assisting":
		return warningStyle.Render("◆ ASSISTING")
	case "autoplaying":
		return playingStyle.Render("▶ AUTOPLAY")
	case "mimicking":
		return playingStyle.Render("◑ MIMIC")
	}
	return errorStyle.Render("? " + strings.ToUpper(mode))
}

// getFrameBadge returns a frame delivery badge. An N64 core renders 60 fps;
// sustained delivery below half that means the bridge is struggling.
func getFrameBadge(fps float64) string {
	if fps >= 50 {
		return healthyStyle.Render("[✓]")
	} else if fps >= 25 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

// getConfidenceBadge returns a badge for replay confidence
func getConfidenceBadge(confidence float64) string {
	if confidence >= 0.75 {
		return healthyStyle.Render("[✓]")
	} else if confidence >= 0.4 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time
type statusMsg Status
type errMsg error

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchStatus(m.daemonURL),
	)
}

// tick creates a tick command for auto-refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchStatus fetches the daemon's status snapshot
func fetchStatus(daemonURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		status, err := NewStatusClient(daemonURL).Status(ctx)
		if err != nil {
			return errMsg(err)
		}
		return statusMsg(status)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchStatus(m.daemonURL)
		}

	case tickMsg:
		// Auto-refresh triggered
		return m, tea.Batch(
			tick(m.interval),
			fetchStatus(m.daemonURL),
		)

	case statusMsg:
		status := Status(msg)
		now := time.Now()

		// Derive the delivery rate from the counter delta. A daemon
		// restart rewinds the counter; skip that poll.
		if !m.prevPoll.IsZero() && status.FramesReceived >= m.prevFrames {
			if dt := now.Sub(m.prevPoll).Seconds(); dt > 0 {
				m.frameRate = float64(status.FramesReceived-m.prevFrames) / dt
			}
		}
		m.prevFrames = status.FramesReceived
		m.prevPoll = now

		m.confidenceHistory = appendToHistory(m.confidenceHistory, status.Confidence*100)
		m.progressHistory = appendToHistory(m.progressHistory, status.LearningProgress*100)
		m.frameRateHistory = appendToHistory(m.frameRateHistory, m.frameRate)

		m.status = status
		m.lastUpdate = now
		m.err = nil
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.err != nil {
		return m.renderError()
	}

	return m.renderDashboard()
}

// renderError renders the error view
func (m Model) renderError() string {
	header := headerStyle.Render("ghostpad Monitor")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot connect to ghostpadd") + "\n"
	content += "\n"
	content += dimStyle.Render("URL: ") + valueStyle.Render(m.daemonURL) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Please ensure:") + "\n"
	content += dimStyle.Render("  1. ghostpadd is running") + "\n"
	content += dimStyle.Render("  2. its listen address matches this URL") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	box := containerStyle.Render(header + "\n" + content)
	return box
}

// renderDashboard renders the main dashboard view with sparklines and
// progress bars
func (m Model) renderDashboard() string {
	var content string

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}
	watching := FormatDuration(int64(time.Since(m.startedAt).Seconds()))

	header := headerStyle.Render(" ghostpad Monitor ")
	game := m.status.Game
	if game == "" {
		game = "-"
	}
	headerLine := fmt.Sprintf("%s   %s %s   %s %s   %s",
		getModeBadge(m.status.Mode),
		dimStyle.Render("Game:"),
		valueStyle.Render(game),
		dimStyle.Render("Watching:"),
		valueStyle.Render(watching),
		dimStyle.Render(lastUpdateStr))

	content += header + "\n"
	content += headerLine + "\n"

	// Session section
	content += "\n" + sectionStyle.Render("┃ Session") + "\n"
	content += labelStyle.Render("  Ticks: ") +
		valueStyle.Render(FormatCount(m.status.Ticks)) +
		"  " +
		labelStyle.Render("Missed frames: ") +
		valueStyle.Render(FormatCount(m.status.MissedFrames)) + "\n"
	content += labelStyle.Render("  Last state: ") +
		valueStyle.Render(FormatFingerprint(m.status.LastFingerprint)) + "\n"

	// Learning section with progress bar and sparklines
	content += "\n" + sectionStyle.Render("┃ Learning") + "\n"

	content += labelStyle.Render("  States: ") +
		valueStyle.Render(fmt.Sprintf("%d", m.status.DistinctStates)) +
		"  " +
		labelStyle.Render("Actions: ") +
		valueStyle.Render(fmt.Sprintf("%d", m.status.ActionsLearned)) + "\n"

	progressSparkline := createSparkline(m.progressHistory)
	content += labelStyle.Render("  Progress: ") +
		valueStyle.Render(FormatPercentage(m.status.LearningProgress)) +
		"       " + progressSparkline + "\n"

	learnPercent := m.status.LearningProgress
	if learnPercent > 1.0 {
		learnPercent = 1.0
	}
	content += labelStyle.Render("  ") +
		m.learnProgress.ViewAs(learnPercent) + "\n"

	confidenceSparkline := createSparkline(m.confidenceHistory)
	confidenceBadge := getConfidenceBadge(m.status.Confidence)
	content += labelStyle.Render("  Confidence: ") +
		valueStyle.Render(FormatPercentage(m.status.Confidence)) +
		" " + confidenceBadge +
		"  " + confidenceSparkline + "\n"

	// Bridge section with frame delivery sparkline
	content += "\n" + sectionStyle.Render("┃ Bridge") + "\n"

	frameSparkline := createSparkline(m.frameRateHistory)
	frameBadge := getFrameBadge(m.frameRate)
	content += labelStyle.Render("  Frames: ") +
		valueStyle.Render(FormatFPS(m.frameRate)) +
		" " + frameBadge +
		"   " + frameSparkline + "\n"

	content += labelStyle.Render("  Received: ") +
		valueStyle.Render(FormatCount(m.status.FramesReceived)) +
		"  " +
		labelStyle.Render("Inputs: ") +
		valueStyle.Render(FormatCount(m.status.InputUpdates)) + "\n"

	droppedStyle := valueStyle
	if m.status.EventsDropped > 0 {
		droppedStyle = warningStyle
	}
	content += labelStyle.Render("  Dropped events: ") +
		droppedStyle.Render(FormatCount(m.status.EventsDropped)) + "\n"

	// Agent output section
	content += "\n" + sectionStyle.Render("┃ Agent Output") + "\n"
	content += labelStyle.Render("  Injected: ") +
		valueStyle.Render(FormatCount(m.status.InjectedActions)) +
		"  " +
		labelStyle.Render("Suggestions: ") +
		valueStyle.Render(FormatCount(m.status.Suggestions)) + "\n"

	// Footer with keyboard shortcuts
	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	return containerStyle.Render(content)
}
