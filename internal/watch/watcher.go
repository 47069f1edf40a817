// Package watch hot-swaps learned behavior while the daemon runs: a
// behavior pack dropped into the watched directory is imported without a
// restart. Import failures keep the current memory, so a half-copied pack
// can never wipe a live session.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ghostpad/internal/behavior"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// DefaultDebounce is how long a pack must stay quiet before it is imported.
// Copies and editor saves arrive as bursts of writes; importing mid-burst
// would read a torn file.
const DefaultDebounce = 200 * time.Millisecond

// Importer loads a behavior pack from disk, replace-or-keep.
type Importer interface {
	ImportBehaviors(ctx context.Context, path string) (*behavior.Snapshot, error)
}

// Watcher watches a directory for behavior packs.
type Watcher struct {
	dir      string
	importer Importer
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   map[string]struct{}

	stop chan struct{}

	mu       sync.Mutex
	pending  map[string]*time.Timer
	imported uint64
	failed   uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the quiet period before a changed pack is
// imported. Values <= 0 keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore skips packs by base name. The daemon uses it to keep its own
// autosave file from being re-imported, which would reset the live
// recent-state ring for no gain.
func WithIgnore(names ...string) Option {
	return func(w *Watcher) {
		for _, n := range names {
			w.ignore[n] = struct{}{}
		}
	}
}

// New creates a watcher over dir. The watcher does not start automatically;
// call Start.
func New(dir string, importer Importer, logger *zap.Logger, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("watch directory cannot be empty")
	}
	if importer == nil {
		return nil, fmt.Errorf("importer cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	w := &Watcher{
		dir:      dir,
		importer: importer,
		logger:   logger,
		watcher:  fw,
		debounce: DefaultDebounce,
		ignore:   make(map[string]struct{}),
		stop:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start imports the most recent existing pack, then begins watching for new
// ones. Call Stop to clean up resources.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating watch directory: %w", err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	w.importNewestExisting(ctx)

	go w.processEvents(ctx)

	w.logger.Info("behavior pack watcher started", zap.String("dir", w.dir))
	return nil
}

// Stop stops the watcher and cancels any pending imports.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// Imported returns how many packs were imported successfully.
func (w *Watcher) Imported() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.imported
}

// Failed returns how many imports failed.
func (w *Watcher) Failed() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}

// importNewestExisting resumes from the freshest pack already on disk, if
// any. When the directory holds packs for several games the newest wins;
// the operator owns the directory layout.
func (w *Watcher) importNewestExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to scan pack directory", zap.Error(err))
		return
	}

	var (
		newest    string
		newestMod time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !w.isPack(filepath.Join(w.dir, e.Name())) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(w.dir, e.Name())
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return
	}
	w.importPack(ctx, newest)
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.isPack(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("pack watcher error", zap.Error(err))
		}
	}
}

// isPack reports whether path looks like an importable behavior pack.
// Dotfiles are skipped, which also covers in-flight export temp files.
func (w *Watcher) isPack(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if filepath.Ext(base) != ".json" {
		return false
	}
	_, ignored := w.ignore[base]
	return !ignored
}

// schedule arms (or re-arms) the debounce timer for a changed pack.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case <-w.stop:
			return
		default:
		}
		w.importPack(ctx, path)
	})
}

func (w *Watcher) importPack(ctx context.Context, path string) {
	snap, err := w.importer.ImportBehaviors(ctx, path)
	if err != nil {
		w.mu.Lock()
		w.failed++
		w.mu.Unlock()
		w.logger.Warn("behavior pack auto-import failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	w.imported++
	w.mu.Unlock()
	w.logger.Info("behavior pack auto-imported",
		zap.String("path", path),
		zap.String("game", snap.Game),
		zap.Int("states", len(snap.States)),
	)
}
