// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/avorty/spito-lsp/internal/testutil"

	"github.com/charmbracelet/log"
)

var configPatterns = []string{"**/spito.yaml", "**/spito.yml"}

// collector records every callback invocation.
type collector struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan []string
}

func newCollector() *collector {
	return &collector{ch: make(chan []string, 64)}
}

func (c *collector) onChange(_ context.Context, changed []string) error {
	c.mu.Lock()
	c.calls = append(c.calls, slices.Clone(changed))
	c.mu.Unlock()
	select {
	case c.ch <- changed:
	default:
	}
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// waitFor blocks until a callback reports want or the timeout passes.
func (c *collector) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case changed := <-c.ch:
			if slices.Contains(changed, want) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %q", want)
		}
	}
}

// startWatcher runs a watcher on dir until the test ends.
func startWatcher(t *testing.T, cfg Config) *Watcher {
	t.Helper()

	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error: %v", err)
		}
	})
	return w
}

func TestWatcherImmediateDispatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := newCollector()
	startWatcher(t, Config{BaseDir: dir, Patterns: configPatterns, OnChange: c.onChange})

	testutil.MustWriteFile(t, filepath.Join(dir, "spito.yml"), "rules: {}\n")
	c.waitFor(t, "spito.yml")

	testutil.MustWriteFile(t, filepath.Join(dir, "spito.yaml"), "rules: {}\n")
	c.waitFor(t, "spito.yaml")

	if got := c.count(); got < 2 {
		t.Errorf("expected at least one callback per event, got %d", got)
	}
}

func TestWatcherRemoveTriggersCallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	conf := filepath.Join(dir, "spito.yml")
	testutil.MustWriteFile(t, conf, "rules: {}\n")

	c := newCollector()
	startWatcher(t, Config{BaseDir: dir, Patterns: configPatterns, OnChange: c.onChange})

	if err := os.Remove(conf); err != nil {
		t.Fatalf("remove: %v", err)
	}
	c.waitFor(t, "spito.yml")
}

func TestWatcherPatternFiltering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := newCollector()
	startWatcher(t, Config{BaseDir: dir, Patterns: configPatterns, OnChange: c.onChange})

	testutil.MustWriteFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	testutil.MustWriteFile(t, filepath.Join(dir, "rule.lua"), "print(1)")
	testutil.MustWriteFile(t, filepath.Join(dir, "spito.yml"), "rules: {}\n")
	c.waitFor(t, "spito.yml")

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		for _, rel := range call {
			if rel != "spito.yml" {
				t.Errorf("unexpected path in callback: %q", rel)
			}
		}
	}
}

func TestWatcherNewDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := newCollector()
	startWatcher(t, Config{BaseDir: dir, Patterns: configPatterns, OnChange: c.onChange})

	sub := filepath.Join(dir, "pkg", "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the watcher a moment to register the new directories.
	time.Sleep(100 * time.Millisecond)

	testutil.MustWriteFile(t, filepath.Join(sub, "spito.yaml"), "rules: {}\n")
	c.waitFor(t, "pkg/nested/spito.yaml")
}

func TestWatcherMovedInDirectoryReportsExistingConfigs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outside := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(outside, "moved", "spito.yml"), "rules: {}\n")

	c := newCollector()
	startWatcher(t, Config{BaseDir: dir, Patterns: configPatterns, OnChange: c.onChange})

	if err := os.Rename(filepath.Join(outside, "moved"), filepath.Join(dir, "moved")); err != nil {
		t.Skipf("cross-directory rename unsupported here: %v", err)
	}
	c.waitFor(t, "moved/spito.yml")
}

func TestWatcherRemovedDirectoryTriggersCallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "sub", "spito.yml"), "rules: {}\n")

	c := newCollector()
	startWatcher(t, Config{BaseDir: dir, Patterns: configPatterns, OnChange: c.onChange})

	testutil.MustRemoveAll(t, filepath.Join(dir, "sub"))
	deadline := time.After(5 * time.Second)
	for {
		select {
		case changed := <-c.ch:
			if slices.Contains(changed, "sub") || slices.Contains(changed, "sub/spito.yml") {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for directory removal callback")
		}
	}
}

func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	done := make(chan []string, 16)
	startWatcher(t, Config{
		BaseDir:  dir,
		Patterns: configPatterns,
		Debounce: 150 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			done <- changed
			return nil
		},
	})

	testutil.MustWriteFile(t, filepath.Join(dir, "a", "spito.yml"), "rules: {}\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "spito.yml"), "rules: {}\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "spito.yaml"), "rules: {}\n")

	seen := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for !seen["spito.yml"] || !seen["spito.yaml"] {
		select {
		case changed := <-done:
			if !slices.IsSorted(changed) {
				t.Errorf("debounced paths not sorted: %v", changed)
			}
			for _, rel := range changed {
				seen[rel] = true
			}
		case <-deadline:
			t.Fatalf("timed out; saw %v", seen)
		}
	}
}

func TestWatcherIgnorePatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := newCollector()
	startWatcher(t, Config{
		BaseDir:  dir,
		Patterns: configPatterns,
		Ignore:   []string{"vendor/**"},
		OnChange: c.onChange,
	})

	testutil.MustWriteFile(t, filepath.Join(dir, "vendor", "spito.yml"), "rules: {}\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "spito.yml"), "rules: {}\n")
	c.waitFor(t, "spito.yml")

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if slices.Contains(call, "vendor/spito.yml") {
			t.Errorf("ignored path reported: %v", call)
		}
	}
}

func TestWatcherCallbackErrorDoesNotStop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	calls := make(chan string, 32)
	startWatcher(t, Config{
		BaseDir:  dir,
		Patterns: configPatterns,
		OnChange: func(_ context.Context, changed []string) error {
			select {
			case calls <- changed[0]:
			default:
			}
			return errors.New("refresh failed")
		},
	})

	testutil.MustWriteFile(t, filepath.Join(dir, "spito.yml"), "rules: [\n")
	testutil.MustWriteFile(t, filepath.Join(dir, "spito.yaml"), "rules: {}\n")

	deadline := time.After(5 * time.Second)
	seen := map[string]bool{}
	for !seen["spito.yml"] || !seen["spito.yaml"] {
		select {
		case rel := <-calls:
			seen[rel] = true
		case <-deadline:
			t.Fatalf("watcher stopped after callback error; saw %v", seen)
		}
	}
}

func TestWatcherContextCancel(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir(), Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error after cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcherDoubleRunError(t *testing.T) {
	t.Parallel()

	w := startWatcher(t, Config{BaseDir: t.TempDir(), Patterns: configPatterns})

	// Let the first Run claim the watcher.
	time.Sleep(50 * time.Millisecond)
	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Run() error = %v, want %v", err, ErrAlreadyStarted)
	}
}

func TestWatcherInvalidPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "bad watch pattern", cfg: Config{Patterns: []string{"[invalid"}}},
		{name: "bad ignore pattern", cfg: Config{Ignore: []string{"[invalid"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.cfg.BaseDir = t.TempDir()
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("expected error for invalid pattern")
			}
		})
	}
}

func TestWatcherBaseDirResolved(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := New(Config{BaseDir: dir, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = w.fsw.Close() })

	if !filepath.IsAbs(w.BaseDir()) {
		t.Errorf("BaseDir() = %q, want absolute", w.BaseDir())
	}
}

func TestWatcherSkipsIgnoredDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, sub := range []string{".git/objects", ".hg/store", "node_modules/pkg", "src"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	w, err := New(Config{BaseDir: dir, Patterns: configPatterns, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = w.fsw.Close() })

	w.dirsMu.Lock()
	defer w.dirsMu.Unlock()
	for _, sub := range []string{"src", "node_modules", "node_modules/pkg"} {
		if _, ok := w.dirs[filepath.Join(dir, filepath.FromSlash(sub))]; !ok {
			t.Errorf("%s should be watched", sub)
		}
	}
	for _, sub := range []string{".git", ".git/objects", ".hg", ".hg/store"} {
		if _, ok := w.dirs[filepath.Join(dir, filepath.FromSlash(sub))]; ok {
			t.Errorf("%s should not be watched", sub)
		}
	}
}
