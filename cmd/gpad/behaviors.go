package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export learned behaviors to a pack",
	Long: `Export the agent's learned behaviors to a JSON pack on the daemon's
filesystem. Relative paths resolve inside the daemon's behaviors directory;
when the path is omitted the daemon derives a name from the active game.

Examples:
  # Export under the active game's name
  gpad export

  # Export to a named pack
  gpad export mario64-castle.json

  # Export to an absolute path
  gpad export /tmp/backup.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import a behavior pack",
	Long: `Import a behavior pack into the agent's memory, merging with what it
already knows. Relative paths resolve inside the daemon's behaviors
directory.

Examples:
  # Import the active game's default pack
  gpad import

  # Import a named pack
  gpad import mario64-castle.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all learned behaviors",
	Long: `Clear the agent's behavior memory. Exported packs on disk are not
touched; re-import one to restore it.

Examples:
  # Wipe the current session's learning
  gpad reset`,
	RunE: runReset,
}

// PackRequest matches internal/server/handlers.go PackRequest
type PackRequest struct {
	Path string `json:"path"`
}

// ExportResponse matches internal/server/handlers.go ExportResponse
type ExportResponse struct {
	Path    string `json:"path"`
	States  int    `json:"states"`
	Actions int    `json:"actions"`
}

// ImportResponse matches internal/server/handlers.go ImportResponse
type ImportResponse struct {
	Path    string    `json:"path"`
	Game    string    `json:"game,omitempty"`
	States  int       `json:"states"`
	SavedAt time.Time `json:"saved_at"`
}

// runExport handles the export command
func runExport(cmd *cobra.Command, args []string) error {
	req := PackRequest{}
	if len(args) == 1 {
		req.Path = args[0]
	}

	var resp ExportResponse
	if err := postJSON("/v1/behaviors/export", req, &resp); err != nil {
		return fmt.Errorf("failed to export behaviors: %w", err)
	}

	if outputAsJSON {
		return outputJSON(resp)
	}

	fmt.Printf("Behaviors exported\n")
	fmt.Printf("Path: %s\n", resp.Path)
	fmt.Printf("States: %d\n", resp.States)
	fmt.Printf("Actions: %d\n", resp.Actions)

	return nil
}

// runImport handles the import command
func runImport(cmd *cobra.Command, args []string) error {
	req := PackRequest{}
	if len(args) == 1 {
		req.Path = args[0]
	}

	var resp ImportResponse
	if err := postJSON("/v1/behaviors/import", req, &resp); err != nil {
		return fmt.Errorf("failed to import behaviors: %w", err)
	}

	if outputAsJSON {
		return outputJSON(resp)
	}

	fmt.Printf("Behaviors imported\n")
	fmt.Printf("Path: %s\n", resp.Path)
	if resp.Game != "" {
		fmt.Printf("Game: %s\n", resp.Game)
	}
	fmt.Printf("States: %d\n", resp.States)
	if !resp.SavedAt.IsZero() {
		fmt.Printf("Saved: %s\n", resp.SavedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// runReset handles the reset command
func runReset(cmd *cobra.Command, args []string) error {
	if err := postJSON("/v1/behaviors/reset", nil, nil); err != nil {
		return fmt.Errorf("failed to reset behaviors: %w", err)
	}

	fmt.Println("Behavior memory cleared")
	return nil
}
