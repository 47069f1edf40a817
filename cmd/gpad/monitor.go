package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ghostpad/internal/monitor"
)

var monitorInterval time.Duration

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "Status poll interval")
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal dashboard for the daemon",
	Long: `Open a full-screen dashboard that polls the daemon's status API and
renders the agent mode, learning progress, confidence, and bridge
throughput with sparkline history.

Keys:
  q  quit
  r  refresh now

Examples:
  # Watch the local daemon
  gpad monitor

  # Poll faster
  gpad monitor --interval 500ms`,
	RunE: runMonitor,
}

// runMonitor handles the monitor command
func runMonitor(cmd *cobra.Command, args []string) error {
	model := monitor.NewModel(serverURL, monitorInterval)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run monitor: %w", err)
	}

	return nil
}
