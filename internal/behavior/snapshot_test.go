package behavior

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ghostpad/internal/gamepad"
	"github.com/fyrsmithlabs/ghostpad/internal/gamestate"
)

func TestExportImportRoundTripEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMemory().Export(&buf, "mario64"))

	restored := NewMemory()
	snap, err := restored.Import(&buf)
	require.NoError(t, err)

	assert.Equal(t, "mario64", snap.Game)
	assert.Zero(t, restored.Stats().DistinctStates)
	assert.Zero(t, restored.Stats().TotalActions)
}

func TestExportImportRoundTripPreservesOrder(t *testing.T) {
	mem := NewMemory()

	// N pairs across K states, several inputs per state in a known order.
	states := []gamestate.GameState{state(3), state(1), state(2)}
	for i, s := range states {
		for j := 0; j < i+1; j++ {
			mem.Record(s, gamepad.ControllerInput{
				Button:    gamepad.ButtonA,
				StickX:    float64(j) / 10,
				Timestamp: t0.Add(time.Duration(i*10+j) * time.Second),
				Success:   j == 0,
			})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, mem.Export(&buf, ""))

	restored := NewMemory()
	_, err := restored.Import(&buf)
	require.NoError(t, err)

	// Same keys, same per-key ordered sequences.
	assert.Equal(t, mem.Stats(), restored.Stats())
	for _, s := range states {
		assert.Equal(t, mem.Lookup(s), restored.Lookup(s), "state %d", s.Fingerprint)
	}
}

func TestExportIsDeterministic(t *testing.T) {
	build := func() *Memory {
		mem := NewMemory()
		for fp := uint64(1); fp <= 10; fp++ {
			mem.Record(state(fp), input(gamepad.ButtonB, t0, false))
		}
		return mem
	}

	snapA := build().Snapshot("zelda")
	snapB := build().Snapshot("zelda")
	assert.Equal(t, snapA.States, snapB.States, "records are sorted, so equal memories export identically")
}

func TestImportFailureKeepsExistingMemory(t *testing.T) {
	mem := NewMemory()
	mem.Record(state(1), input(gamepad.ButtonA, t0, true))

	_, err := mem.Import(strings.NewReader(`{not json`))
	require.Error(t, err)

	// Replace-or-keep: the failed import must not touch the store.
	assert.Equal(t, 1, mem.Stats().TotalActions)
	assert.Len(t, mem.Lookup(state(1)), 1)
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	mem := NewMemory()
	mem.Record(state(1), input(gamepad.ButtonA, t0, true))

	_, err := mem.Import(strings.NewReader(`{"version":"ghostpad.behaviors/99","states":[]}`))
	require.ErrorIs(t, err, ErrIncompatibleSnapshot)
	assert.Equal(t, 1, mem.Stats().TotalActions)
}

func TestImportRejectsUnknownButton(t *testing.T) {
	mem := NewMemory()
	mem.Record(state(1), input(gamepad.ButtonA, t0, true))

	payload := `{
		"version": "ghostpad.behaviors/1",
		"states": [
			{"fingerprint": 7, "inputs": [{"button": "TURBO"}]}
		]
	}`
	_, err := mem.Import(strings.NewReader(payload))
	require.ErrorIs(t, err, ErrInvalidSnapshot)
	assert.Equal(t, 1, mem.Stats().TotalActions, "invalid snapshot must not replace the store")
}

func TestImportRejectsRecordWithoutInputs(t *testing.T) {
	payload := `{
		"version": "ghostpad.behaviors/1",
		"states": [{"fingerprint": 7, "inputs": []}]
	}`
	_, err := NewMemory().Import(strings.NewReader(payload))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestImportReplacesExistingMemory(t *testing.T) {
	mem := NewMemory()
	mem.Record(state(1), input(gamepad.ButtonA, t0, true))

	donor := NewMemory()
	donor.Record(state(2), input(gamepad.ButtonB, t0, false))
	donor.Record(state(2), input(gamepad.ButtonZ, t0.Add(time.Second), true))

	var buf bytes.Buffer
	require.NoError(t, donor.Export(&buf, ""))
	_, err := mem.Import(&buf)
	require.NoError(t, err)

	// The old mapping is gone, the imported one is live.
	assert.Empty(t, mem.Lookup(state(1)))
	assert.Len(t, mem.Lookup(state(2)), 2)
	assert.Equal(t, 2, mem.Stats().TotalActions)
	assert.Zero(t, mem.RecentStates(), "the recent ring reflects live observation only")
}

func TestRestoreMergesDuplicateKeys(t *testing.T) {
	snap := &Snapshot{
		Version: SnapshotVersion,
		States: []StateRecord{
			{Fingerprint: 7, Inputs: []gamepad.ControllerInput{{Button: gamepad.ButtonA}}},
			{Fingerprint: 7, Inputs: []gamepad.ControllerInput{{Button: gamepad.ButtonB}}},
		},
	}

	mem := NewMemory()
	require.NoError(t, mem.Restore(snap))

	got := mem.Lookup(state(7))
	require.Len(t, got, 2)
	assert.Equal(t, gamepad.ButtonA, got[0].Button)
	assert.Equal(t, gamepad.ButtonB, got[1].Button)
}
