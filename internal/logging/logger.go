package logging

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// samplerTick is the window over which sampling decisions reset.
const samplerTick = time.Second

// New builds a zap logger from cfg, writing to stderr.
func New(cfg Config) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	level, _ := zapcore.ParseLevel(cfg.Level)
	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(os.Stderr), level)
	core = sampledCore(core, cfg.Sampling)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// newEncoder creates a JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

// sampledCore wraps core so repeated sub-warning entries collapse after a
// burst. Warnings and errors always pass through unsampled: a 60 Hz loop
// may flood debug output, but never at the expense of a visible failure.
func sampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}

	warnAndUp := &minLevelCore{Core: core, min: zapcore.WarnLevel}
	sampled := zapcore.NewSamplerWithOptions(
		&maxLevelCore{Core: core, max: zapcore.InfoLevel},
		samplerTick,
		cfg.Initial,
		cfg.Thereafter,
	)
	return zapcore.NewTee(warnAndUp, sampled)
}

// minLevelCore passes only entries at or above min.
type minLevelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *minLevelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *minLevelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &minLevelCore{Core: c.Core.With(fields), min: c.min}
}

// maxLevelCore passes only entries at or below max.
type maxLevelCore struct {
	zapcore.Core
	max zapcore.Level
}

func (c *maxLevelCore) Enabled(lvl zapcore.Level) bool {
	return lvl <= c.max && c.Core.Enabled(lvl)
}

func (c *maxLevelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *maxLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &maxLevelCore{Core: c.Core.With(fields), max: c.max}
}

// Sync flushes the logger, swallowing the harmless EINVAL/ENOTTY errors
// stderr syncing produces on Linux.
func Sync(logger *zap.Logger) error {
	err := logger.Sync()
	if err != nil && isStderrSyncError(err) {
		return nil
	}
	return err
}

func isStderrSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}
