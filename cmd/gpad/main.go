// Package main implements the gpad CLI for driving a running ghostpadd daemon.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the ghostpadd HTTP server
	serverURL string
	// outputAsJSON switches human-readable output to JSON
	outputAsJSON bool
	// version information
	version = "dev"
)

// apiTimeout bounds control-plane requests. The monitor command polls with
// its own shorter-lived client.
const apiTimeout = 10 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gpad",
	Short: "CLI for the ghostpad daemon",
	Long: `gpad is a command-line interface for driving a running ghostpadd daemon.
It starts and stops agent modes, inspects session status, moves behavior
packs in and out of memory, activates game profiles, and opens a live
terminal dashboard.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:8420", "ghostpadd server URL")
	rootCmd.PersistentFlags().BoolVar(&outputAsJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks daemon health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check ghostpadd health",
	Long: `Check the health status of a running ghostpadd daemon.

Examples:
  # Check health
  gpad health

  # Check health on a different daemon
  gpad health --server http://127.0.0.1:9000`,
	RunE: runHealth,
}

// HealthResponse matches internal/server/server.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	var health HealthResponse
	if err := getJSON("/health", &health); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to reach daemon at %s\n", serverURL)
		return err
	}

	if outputAsJSON {
		return outputJSON(health)
	}

	fmt.Printf("Daemon Status: %s\n", health.Status)
	fmt.Printf("Agent Mode: %s\n", health.Mode)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}

// HTTP helpers shared by all commands

// getJSON GETs a daemon endpoint and decodes the JSON response into out.
func getJSON(path string, out interface{}) error {
	url := serverURL + path

	client := &http.Client{
		Timeout: apiTimeout,
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// postJSON POSTs in (when non-nil) to a daemon endpoint and decodes the
// response into out (when non-nil). 2xx statuses count as success so
// 202/204 endpoints work too.
func postJSON(path string, in, out interface{}) error {
	url := serverURL + path

	var body io.Reader
	if in != nil {
		reqJSON, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(reqJSON)
	}

	httpReq, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{
		Timeout: apiTimeout,
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// apiError turns a non-2xx response into an error carrying the body, which
// is where echo puts the failure message.
func apiError(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
