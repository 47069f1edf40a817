package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ghostpad/internal/frame"
	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
)

func writeProfiles(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleProfiles = `
[[profile]]
name = "mario64"

[profile.hints]
health_region = "16,16,64,32"

[[profile]]
name = "zelda-oot"
`

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(writeProfiles(t, sampleProfiles))
	require.NoError(t, err)

	assert.Equal(t, []string{"mario64", "zelda-oot"}, reg.Names())

	p, ok := reg.Lookup("mario64")
	require.True(t, ok)
	assert.Equal(t, "16,16,64,32", p.Hints["health_region"])

	_, ok = reg.Lookup("goldeneye")
	assert.False(t, ok)
}

func TestLoadRegistryMissingFileIsEmpty(t *testing.T) {
	// Profiles are optional: a missing file is not an error.
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, reg.Names())

	reg, err = LoadRegistry("")
	require.NoError(t, err)
	assert.Empty(t, reg.Names())
}

func TestLoadRegistryRejectsMalformedFile(t *testing.T) {
	_, err := LoadRegistry(writeProfiles(t, "[[profile]\nname="))
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestLoadRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := LoadRegistry(writeProfiles(t, `
[[profile]]
name = "mario64"

[[profile]]
name = "mario64"
`))
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestLoadRegistryRejectsEmptyName(t *testing.T) {
	_, err := LoadRegistry(writeProfiles(t, `
[[profile]]
name = ""
`))
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

// hintRecorder captures Configure calls for assertions.
type hintRecorder struct {
	game  string
	hints map[string]string
}

func (h *hintRecorder) Analyze(*frame.Frame) gamestate.Analysis { return gamestate.Analysis{} }

func (h *hintRecorder) Configure(game string, hints map[string]string) error {
	h.game = game
	h.hints = hints
	return nil
}

func TestActivateConfiguresAnalyzer(t *testing.T) {
	reg, err := LoadRegistry(writeProfiles(t, sampleProfiles))
	require.NoError(t, err)

	analyzer := &hintRecorder{}
	p, err := reg.Activate("mario64", analyzer)
	require.NoError(t, err)

	assert.Equal(t, "mario64", p.Name)
	assert.Equal(t, "mario64", reg.Active())
	assert.Equal(t, "mario64", analyzer.game)
	assert.Equal(t, "16,16,64,32", analyzer.hints["health_region"])
}

func TestActivateUnknownGame(t *testing.T) {
	reg, err := LoadRegistry(writeProfiles(t, sampleProfiles))
	require.NoError(t, err)

	_, err = reg.Activate("goldeneye", gamestate.NopAnalyzer{})
	assert.ErrorIs(t, err, ErrNoProfile)
	assert.Empty(t, reg.Active())
}

func TestActivateWithPlainAnalyzer(t *testing.T) {
	reg, err := LoadRegistry(writeProfiles(t, sampleProfiles))
	require.NoError(t, err)

	// An analyzer without hint support still activates the game.
	_, err = reg.Activate("zelda-oot", gamestate.NopAnalyzer{})
	require.NoError(t, err)
	assert.Equal(t, "zelda-oot", reg.Active())

	reg.Deactivate()
	assert.Empty(t, reg.Active())
}
