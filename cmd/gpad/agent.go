package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the agent's session status",
	Long: `Show a snapshot of the agent's session: mode, learned behaviors,
confidence, and bridge throughput.

Examples:
  # Show status
  gpad status

  # Output as JSON
  gpad status --json`,
	RunE: runStatus,
}

var startCmd = &cobra.Command{
	Use:   "start <mode>",
	Short: "Start the agent in a mode",
	Long: `Start the gameplay agent in the given mode. Starting while another
mode runs switches to the new mode.

Modes:
  observing    Watch frames and inputs without learning or acting
  learning     Record visual-state to controller-input associations
  assisting    Surface advisory suggestions, never touch the pad
  autoplaying  Drive the virtual pad from learned behaviors
  mimicking    Learn while the player acts, play back when they idle

Examples:
  # Start learning
  gpad start learning

  # Start autoplay on a different daemon
  gpad start autoplaying --server http://127.0.0.1:9000`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the agent",
	Long: `Stop the agent's active mode and release every held button on the
virtual pad.

Examples:
  # Stop whatever is running
  gpad stop`,
	RunE: runStop,
}

// StartRequest matches internal/server/handlers.go StartRequest
type StartRequest struct {
	Mode string `json:"mode"`
}

// StartResponse matches internal/server/handlers.go StartResponse
type StartResponse struct {
	Mode string `json:"mode"`
	Game string `json:"game,omitempty"`
}

// PadState matches internal/gamepad/virtualpad.go PadState
type PadState struct {
	Held      []string  `json:"held"`
	StickX    float64   `json:"stick_x"`
	StickY    float64   `json:"stick_y"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusResponse matches internal/server/handlers.go StatusResponse
type StatusResponse struct {
	Mode             string   `json:"mode"`
	Game             string   `json:"game,omitempty"`
	IsLearning       bool     `json:"is_learning"`
	IsPlaying        bool     `json:"is_playing"`
	ActionsLearned   uint64   `json:"actions_learned"`
	DistinctStates   int      `json:"distinct_states"`
	LearningProgress float64  `json:"learning_progress"`
	Confidence       float64  `json:"confidence"`
	LastFingerprint  uint64   `json:"last_fingerprint,omitempty"`
	Ticks            uint64   `json:"ticks"`
	MissedFrames     uint64   `json:"missed_frames"`
	InjectedActions  uint64   `json:"injected_actions"`
	Suggestions      uint64   `json:"suggestions"`
	FramesReceived   uint64   `json:"frames_received"`
	InputUpdates     uint64   `json:"input_updates"`
	Pad              PadState `json:"pad"`
	EventsDropped    uint64   `json:"events_dropped"`
}

// runStatus handles the status command
func runStatus(cmd *cobra.Command, args []string) error {
	var status StatusResponse
	if err := getJSON("/v1/status", &status); err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(status)
	}

	fmt.Print(formatStatus(&status))
	return nil
}

// formatStatus renders the session snapshot as human-readable lines.
func formatStatus(status *StatusResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Mode: %s\n", status.Mode)
	if status.Game != "" {
		fmt.Fprintf(&b, "Game: %s\n", status.Game)
	}
	fmt.Fprintf(&b, "Learning: %v  Playing: %v\n", status.IsLearning, status.IsPlaying)
	fmt.Fprintf(&b, "States: %d  Actions: %d\n", status.DistinctStates, status.ActionsLearned)
	fmt.Fprintf(&b, "Progress: %.1f%%  Confidence: %.1f%%\n",
		status.LearningProgress*100, status.Confidence*100)
	fmt.Fprintf(&b, "Ticks: %d  Missed Frames: %d\n", status.Ticks, status.MissedFrames)
	fmt.Fprintf(&b, "Injected: %d  Suggestions: %d\n", status.InjectedActions, status.Suggestions)
	fmt.Fprintf(&b, "Bridge: %d frames, %d inputs, %d dropped events\n",
		status.FramesReceived, status.InputUpdates, status.EventsDropped)
	fmt.Fprintf(&b, "Pad: %s\n", formatPad(status.Pad))

	return b.String()
}

// formatPad renders the virtual pad as "[A B] stick (0.50, -0.25)" or
// "released" when nothing is held or deflected.
func formatPad(pad PadState) string {
	if len(pad.Held) == 0 && pad.StickX == 0 && pad.StickY == 0 {
		return "released"
	}
	held := "[]"
	if len(pad.Held) > 0 {
		held = "[" + strings.Join(pad.Held, " ") + "]"
	}
	return fmt.Sprintf("%s stick (%.2f, %.2f)", held, pad.StickX, pad.StickY)
}

// runStart handles the start command
func runStart(cmd *cobra.Command, args []string) error {
	var resp StartResponse
	if err := postJSON("/v1/agent/start", StartRequest{Mode: args[0]}, &resp); err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(resp)
	}

	if resp.Game != "" {
		fmt.Printf("Agent started: %s (%s)\n", resp.Mode, resp.Game)
	} else {
		fmt.Printf("Agent started: %s\n", resp.Mode)
	}

	return nil
}

// runStop handles the stop command
func runStop(cmd *cobra.Command, args []string) error {
	if err := postJSON("/v1/agent/stop", nil, nil); err != nil {
		return err
	}

	fmt.Println("Agent stopped")
	return nil
}
