// Package watch refreshes the document index when files under a local
// documentation root change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"archdocs/internal/index"
	"archdocs/internal/logging"
	"archdocs/internal/source"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for the tree to settle
// before refreshing.
const DefaultDebounce = 500 * time.Millisecond

// Refresher rebuilds the index. *index.Index satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) (index.Stats, error)
}

// Options tune a Watcher.
type Options struct {
	Debounce time.Duration
}

// Watcher turns file system events below a root into debounced refreshes.
// fsnotify is not recursive, so every directory is watched individually
// and new directories are added as they appear.
type Watcher struct {
	root      string
	refresher Refresher
	debounce  time.Duration
	logger    *logging.AppLogger

	fsw       *fsnotify.Watcher
	closeOnce sync.Once
}

// New watches root and every directory below it.
func New(root string, refresher Refresher, opts Options, logger *logging.AppLogger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		root:      abs,
		refresher: refresher,
		debounce:  opts.Debounce,
		logger:    logger.With("component", "watch"),
		fsw:       fsw,
	}

	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// ForSource returns a Watcher for sources that live on local disk and
// ErrNotWatchable otherwise.
func ForSource(src source.ContentSource, refresher Refresher, opts Options, logger *logging.AppLogger) (*Watcher, error) {
	rooted, ok := src.(interface{ Root() string })
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotWatchable, src.Describe())
	}
	return New(rooted.Root(), refresher, opts, logger)
}

// ErrNotWatchable means the source has no local directory to watch.
var ErrNotWatchable = errors.New("source cannot be watched")

// addTree registers dir and its subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return fmt.Errorf("failed to walk %s: %w", p, err)
			}
			w.logger.Debug("Skipping unreadable directory", "path", p, "error", err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && skipDir(d.Name()) {
			return fs.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

// Run blocks, refreshing after bursts of relevant events, until ctx is
// cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("Watching documentation", "root", w.root, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", "error", err)

		case <-timer.C:
			pending = false
			w.refresh(ctx)
		}
	}
}

// handleEvent reports whether event should trigger a refresh. New
// directories are added to the watch list.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if skipDir(name) {
				return false
			}
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return true
		}
	}

	if source.IsMarkdown(name) {
		return true
	}

	// a removed or renamed directory cannot be stat'ed any more
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return filepath.Ext(name) == ""
	}
	return false
}

func (w *Watcher) refresh(ctx context.Context) {
	start := time.Now()
	stats, err := w.refresher.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("Refresh after file change failed", "error", err)
		return
	}
	w.logger.Info("Documentation changed, index refreshed",
		"documents", stats.Documents,
		"duration", time.Since(start))
}

// Close stops watching. Run returns once the event channels close.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fsw.Close()
	})
	return err
}

func skipDir(name string) bool {
	switch name {
	case "node_modules", "vendor", ".git":
		return true
	}
	return strings.HasPrefix(name, ".")
}
