package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostpad/internal/behavior"
)

// ExportBehaviors writes the current memory to path as a behavior pack.
//
// The write is atomic: the pack lands in a temp file in the destination
// directory and is renamed over path only once fully written and synced, so
// a crash mid-export never leaves a truncated pack behind.
func (a *Agent) ExportBehaviors(ctx context.Context, path string) error {
	ctx, span := a.tracer.Start(ctx, "agent.export_behaviors",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ghostpad-export-*")
	if err != nil {
		return fail(fmt.Errorf("creating export temp file: %w", err))
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := a.memory.Export(tmp, a.Game()); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing export temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return fail(fmt.Errorf("closing export temp file: %w", err))
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fail(fmt.Errorf("setting pack permissions: %w", err))
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail(fmt.Errorf("publishing behavior pack: %w", err))
	}

	a.refreshMemoryStats(ctx)

	st := a.memory.Stats()
	span.SetAttributes(
		attribute.Int("states", st.DistinctStates),
		attribute.Int("actions", st.TotalActions),
	)
	a.logger.Info("behaviors exported",
		zap.String("path", path),
		zap.Int("states", st.DistinctStates),
		zap.Int("actions", st.TotalActions),
	)
	return nil
}

// ImportBehaviors replaces the memory with the behavior pack at path.
//
// Replace-or-keep: a pack that fails to decode or validate leaves the
// current memory exactly as it was.
func (a *Agent) ImportBehaviors(ctx context.Context, path string) (*behavior.Snapshot, error) {
	ctx, span := a.tracer.Start(ctx, "agent.import_behaviors",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	f, err := os.Open(path)
	if err != nil {
		err = fmt.Errorf("opening behavior pack: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer f.Close()

	snap, err := a.memory.Import(f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	a.refreshMemoryStats(ctx)

	if cur := a.Game(); cur != "" && snap.Game != "" && snap.Game != cur {
		a.logger.Warn("behavior pack was learned on a different game",
			zap.String("pack_game", snap.Game),
			zap.String("active_game", cur),
		)
	}

	span.SetAttributes(attribute.Int("states", len(snap.States)))
	a.logger.Info("behaviors imported",
		zap.String("path", path),
		zap.String("game", snap.Game),
		zap.Int("states", len(snap.States)),
	)
	return snap, nil
}

// ResetBehaviors discards all learned behavior.
func (a *Agent) ResetBehaviors(ctx context.Context) {
	ctx, span := a.tracer.Start(ctx, "agent.reset_behaviors")
	defer span.End()

	a.memory.Reset()
	a.refreshMemoryStats(ctx)
	a.logger.Info("behaviors reset")
}
