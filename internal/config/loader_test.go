package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a config file into an allowed temp directory.
func writeConfig(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("GHOSTPAD_CONFIG_DIRS", dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

func TestLoadWithFileMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GHOSTPAD_CONFIG_DIRS", dir)

	cfg, err := LoadWithFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.Server.ListenAddr)
	assert.Equal(t, DefaultTickInterval, cfg.Agent.TickInterval)
}

func TestLoadWithFileReadsYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: "127.0.0.1:9000"
agent:
  tick_interval: 33ms
  ring_capacity: 50
logging:
  level: debug
  format: console
events:
  nats_url: "nats://127.0.0.1:4222"
`, 0o600)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.Equal(t, 33*time.Millisecond, cfg.Agent.TickInterval)
	assert.Equal(t, 50, cfg.Agent.RingCapacity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.NATSURL)
	// Unset fields still get defaults.
	assert.Equal(t, DefaultAssistInterval, cfg.Agent.AssistInterval)
	assert.Equal(t, DefaultSubjectPrefix, cfg.Events.SubjectPrefix)
}

func TestLoadWithFileEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: "127.0.0.1:9000"
`, 0o600)

	t.Setenv("SERVER_LISTEN_ADDR", "127.0.0.1:9001")
	t.Setenv("AGENT_RING_CAPACITY", "123")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9001", cfg.Server.ListenAddr, "environment beats file")
	assert.Equal(t, 123, cfg.Agent.RingCapacity)
}

func TestLoadWithFileRejectsWorldReadable(t *testing.T) {
	path := writeConfig(t, "server:\n  listen_addr: x\n", 0o644)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permissions")
}

func TestLoadWithFileRejectsOutsideAllowedDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	// GHOSTPAD_CONFIG_DIRS deliberately not set for this path.
	t.Setenv("GHOSTPAD_CONFIG_DIRS", filepath.Join(dir, "elsewhere"))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside allowed directories")
}

func TestLoadWithFileRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
agent:
  tick_interval: -5ms
`, 0o600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick_interval")
}

func TestLoadWithFileRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed", 0o600)

	_, err := LoadWithFile(path)
	assert.Error(t, err)
}
