// SPDX-License-Identifier: MPL-2.0

// Package watch notifies a callback when spito configuration files change.
//
// It monitors a workspace tree with fsnotify and filters events through
// doublestar patterns. By default every matching event fires its own callback
// immediately; a positive Debounce coalesces bursts into a single callback
// carrying the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avorty/spito-lsp/internal/pathmatch"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ErrAlreadyStarted is returned when Run is called on a Watcher twice.
var ErrAlreadyStarted = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Patterns are doublestar globs (e.g. "**/spito.yml") selecting the
		// files whose events reach OnChange. An empty slice selects all
		// non-ignored files.
		Patterns []string

		// Ignore are additional globs that never trigger callbacks. They are
		// merged with pathmatch's built-in ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before OnChange
		// fires. Zero or negative dispatches every event immediately.
		Debounce time.Duration

		// BaseDir is the root directory to watch. Empty means the current
		// working directory.
		BaseDir string

		// OnChange receives changed paths relative to BaseDir. Calls may
		// overlap; a nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives watcher diagnostics. nil logs to stderr.
		Logger *log.Logger
	}

	// Watcher monitors a directory tree and dispatches OnChange for matching
	// events. Run must be called exactly once.
	Watcher struct {
		cfg     Config
		fsw     *fsnotify.Watcher
		matcher *pathmatch.Matcher
		logger  *log.Logger
		baseDir string
		started atomic.Bool

		// dirs tracks watched directories so removing one (and the
		// configuration files inside it) still triggers a callback.
		dirsMu sync.Mutex
		dirs   map[string]struct{}

		inflight sync.WaitGroup
	}
)

// New creates a Watcher from cfg. It resolves BaseDir, validates the patterns
// and registers every non-ignored directory under BaseDir.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	matcher, err := pathmatch.New(cfg.Patterns, cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "watch"})
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		matcher: matcher,
		logger:  logger,
		baseDir: absBase,
		dirs:    make(map[string]struct{}),
	}

	if _, err := w.addTree(absBase); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close after init failure", "error", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// BaseDir returns the absolute directory being watched.
func (w *Watcher) BaseDir() string {
	return w.baseDir
}

// Run blocks until ctx is cancelled, dispatching callbacks for matching
// events. It returns nil on cancellation and an error when fsnotify fails
// fatally. Callbacks dispatched immediately are awaited before Run returns;
// a debounced callback already scheduled may still observe the cancelled
// context.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	dispatch := w.immediate(ctx)
	var stopDebounce func()
	if w.cfg.Debounce > 0 {
		dispatch, stopDebounce = w.debounced(ctx)
	}

	defer func() {
		if stopDebounce != nil {
			stopDebounce()
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close fsnotify", "error", closeErr)
		}
		w.inflight.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if changed := w.handle(evt); len(changed) > 0 {
				dispatch(changed)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			// isFatalFsnotifyError is platform-specific (see watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// handle turns one fsnotify event into the relative paths it affects.
func (w *Watcher) handle(evt fsnotify.Event) []string {
	if evt.Op == fsnotify.Chmod {
		return nil
	}

	rel := w.rel(evt.Name)
	if w.matcher.Ignored(rel) {
		return nil
	}

	switch {
	case evt.Has(fsnotify.Create):
		// Directories are not selected by file patterns, so check them
		// first. A directory moved into the tree may already hold
		// configuration files.
		if found, isDir := w.maybeAddTree(evt.Name); isDir {
			return found
		}
	case evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename):
		if w.forgetDir(evt.Name) {
			return []string{rel}
		}
	}

	if !w.matcher.Selected(rel) {
		return nil
	}
	return []string{rel}
}

// immediate returns a dispatcher that runs OnChange for every event on its
// own goroutine.
func (w *Watcher) immediate(ctx context.Context) func([]string) {
	return func(changed []string) {
		w.inflight.Go(func() {
			w.call(ctx, changed)
		})
	}
}

// debounced returns a dispatcher that coalesces changes until Debounce has
// passed without events, and a stop function for shutdown.
func (w *Watcher) debounced(ctx context.Context) (dispatch func([]string), stop func()) {
	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)

	fire := func() {
		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 {
			return
		}
		w.call(ctx, changed)
	}

	dispatch = func(changed []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, rel := range changed {
			pending[rel] = struct{}{}
		}
		if timer == nil {
			timer = time.AfterFunc(w.cfg.Debounce, fire)
			return
		}
		timer.Reset(w.cfg.Debounce)
	}

	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return dispatch, stop
}

func (w *Watcher) call(ctx context.Context, changed []string) {
	// The callback may be scheduled after cancellation; it still receives
	// ctx for any cancellation-sensitive work.
	if ctx.Err() != nil || w.cfg.OnChange == nil {
		return
	}
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		w.logger.Error("change callback failed", "changed", changed, "error", err)
	}
}

// addTree walks root, adding every non-ignored directory to fsnotify, and
// returns the selected files found on the way. Inaccessible paths are
// skipped.
func (w *Watcher) addTree(root string) ([]string, error) {
	var found []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "error", walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}

		rel := w.rel(path)
		if !d.IsDir() {
			if w.matcher.Match(rel) {
				found = append(found, rel)
			}
			return nil
		}

		if path != w.baseDir && w.matcher.IgnoredDir(rel) {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		w.dirsMu.Lock()
		w.dirs[path] = struct{}{}
		w.dirsMu.Unlock()
		return nil
	})
	if walkErr != nil {
		return found, fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return found, nil
}

// maybeAddTree registers a directory created after startup. It reports
// whether path was a directory, and the selected files already inside it.
func (w *Watcher) maybeAddTree(path string) ([]string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, false
	}
	if w.matcher.IgnoredDir(w.rel(path)) {
		return nil, true
	}

	found, err := w.addTree(path)
	if err != nil {
		w.logger.Warn("add new directory", "path", path, "error", err)
	}
	return found, true
}

// forgetDir drops path and everything below it from the watched set. It
// reports whether path was a watched directory.
func (w *Watcher) forgetDir(path string) bool {
	w.dirsMu.Lock()
	defer w.dirsMu.Unlock()

	if _, ok := w.dirs[path]; !ok {
		return false
	}
	prefix := path + string(filepath.Separator)
	for dir := range w.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(w.dirs, dir)
		}
	}
	return true
}

// rel returns path relative to BaseDir in slash form.
func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
