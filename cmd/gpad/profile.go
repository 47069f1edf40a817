package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileActivateCmd)
	profileCmd.AddCommand(profileListCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage game profiles",
	Long: `Manage game profiles on the daemon.

A profile tunes the agent for a specific game: analyzer hints, pad layout
label, and loop overrides. Activating one tags everything the agent learns
with the game's name.

Examples:
  # Activate a profile
  gpad profile activate mario64

  # List available profiles
  gpad profile list`,
}

var profileActivateCmd = &cobra.Command{
	Use:   "activate <game>",
	Short: "Activate a game profile",
	Long: `Activate the named game profile and apply its analyzer hints.

Examples:
  # Activate the mario64 profile
  gpad profile activate mario64

  # Output as JSON
  gpad profile activate mario64 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileActivate,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available game profiles",
	Long: `List the game profiles the daemon loaded from its registry.

Examples:
  # List profiles
  gpad profile list

  # Output as JSON
  gpad profile list --json`,
	RunE: runProfileList,
}

// ProfileRequest matches internal/server/handlers.go ProfileRequest
type ProfileRequest struct {
	Game string `json:"game"`
}

// ProfileResponse matches internal/server/handlers.go ProfileResponse
type ProfileResponse struct {
	Game  string `json:"game"`
	Hints int    `json:"hints"`
}

// ProfileListResponse matches internal/server/handlers.go ProfileListResponse
type ProfileListResponse struct {
	Active    string   `json:"active,omitempty"`
	Available []string `json:"available"`
}

// runProfileActivate handles the profile activate command
func runProfileActivate(cmd *cobra.Command, args []string) error {
	var resp ProfileResponse
	if err := postJSON("/v1/profile", ProfileRequest{Game: args[0]}, &resp); err != nil {
		return fmt.Errorf("failed to activate profile: %w", err)
	}

	if outputAsJSON {
		return outputJSON(resp)
	}

	fmt.Printf("Profile activated: %s\n", resp.Game)
	fmt.Printf("Analyzer hints: %d\n", resp.Hints)

	return nil
}

// runProfileList handles the profile list command
func runProfileList(cmd *cobra.Command, args []string) error {
	var resp ProfileListResponse
	if err := getJSON("/v1/profiles", &resp); err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if outputAsJSON {
		return outputJSON(resp)
	}

	if len(resp.Available) == 0 {
		fmt.Println("No profiles found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tACTIVE")
	for _, name := range resp.Available {
		activeStr := ""
		if name == resp.Active {
			activeStr = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\n", truncate(name, 40), activeStr)
	}
	w.Flush()

	return nil
}
