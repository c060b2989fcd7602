// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/avorty/spito-lsp/internal/issue"
	"github.com/avorty/spito-lsp/internal/pathmatch"
	"github.com/avorty/spito-lsp/internal/spitoconf"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// ErrRootNotDir is returned when the workspace root is missing or not a directory.
var ErrRootNotDir = errors.New("workspace root is not a directory")

type (
	// Loader finds and parses every spito configuration below a workspace root.
	Loader struct {
		fs          afero.Fs
		root        string
		ignore      []string
		matcher     *pathmatch.Matcher
		maxParallel int
		logger      *log.Logger
	}

	// Option configures a Loader.
	Option func(*Loader)
)

// WithFs sets the filesystem the loader walks and reads. Defaults to the OS
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(l *Loader) {
		l.fs = fs
	}
}

// WithIgnore adds doublestar patterns, relative to the root, for paths that
// are never scanned. The built-in default ignores always apply.
func WithIgnore(patterns ...string) Option {
	return func(l *Loader) {
		l.ignore = append(l.ignore, patterns...)
	}
}

// WithMaxParallelReads bounds concurrent file reads. Zero or negative values
// fall back to GOMAXPROCS.
func WithMaxParallelReads(n int) Option {
	return func(l *Loader) {
		l.maxParallel = n
	}
}

// WithLogger sets the logger used for per-file debug output.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader for root. The root is made absolute; it is not
// checked for existence until Load runs.
func NewLoader(root string, opts ...Option) (*Loader, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolve workspace root: %w", err)
	}

	l := &Loader{
		fs:   afero.NewOsFs(),
		root: absRoot,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.maxParallel <= 0 {
		l.maxParallel = runtime.GOMAXPROCS(0)
	}
	if l.logger == nil {
		l.logger = log.New(os.Stderr)
	}

	m, err := pathmatch.New(spitoconf.Patterns(), l.ignore)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	l.matcher = m

	return l, nil
}

// Root returns the absolute workspace root.
func (l *Loader) Root() string {
	return l.root
}

// Find returns the absolute paths of all configuration files below the root.
// All spito.yaml files come first, then all spito.yml files; within each
// group paths are in lexical walk order.
func (l *Loader) Find(ctx context.Context) ([]string, error) {
	info, err := l.fs.Stat(l.root)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("scan workspace").
			WithResource(l.root).
			WithSuggestion("Check that the workspace directory exists").
			Wrap(fmt.Errorf("%w: %w", ErrRootNotDir, err)).
			BuildError()
	}
	if !info.IsDir() {
		return nil, issue.NewErrorContext().
			WithOperation("scan workspace").
			WithResource(l.root).
			WithSuggestion("Open a folder rather than a single file").
			Wrap(ErrRootNotDir).
			BuildError()
	}

	groups := make([][]string, len(l.matcher.Patterns()))
	walkErr := afero.Walk(l.fs, l.root, func(path string, fi os.FileInfo, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if walkErr != nil {
			// Unreadable entries are skipped rather than failing the scan.
			l.logger.Debug("skipping inaccessible path", "path", path, "error", walkErr)
			if fi != nil && fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(l.root, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}

		if fi.IsDir() {
			if rel != "." && l.matcher.IgnoredDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !l.matcher.Match(rel) {
			return nil
		}
		if i := l.matcher.PatternIndex(rel); i >= 0 {
			groups[i] = append(groups[i], path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("discovery: walk %s: %w", l.root, walkErr)
	}

	var paths []string
	for _, g := range groups {
		paths = append(paths, g...)
	}
	return paths, nil
}

// Load finds every configuration file, reads them all concurrently, and
// parses each one once every read has completed. Any read or parse failure
// aborts the whole load; no partial result is returned.
func (l *Loader) Load(ctx context.Context) ([]spitoconf.ConfWithPath, error) {
	paths, err := l.Find(ctx)
	if err != nil {
		return nil, err
	}

	contents, err := l.readAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	confs := make([]spitoconf.ConfWithPath, 0, len(paths))
	for i, path := range paths {
		conf, parseErr := spitoconf.Parse(contents[i])
		if parseErr != nil {
			return nil, issue.NewErrorContext().
				WithOperation("parse spito configuration").
				WithResource(path).
				WithSuggestion("Check the YAML syntax of the file").
				WithSuggestion("Every detailed rule needs a \"path\" field").
				Wrap(parseErr).
				BuildError()
		}
		l.logger.Debug("loaded spito configuration", "path", path, "rules", len(conf.Rules))
		confs = append(confs, spitoconf.ConfWithPath{SelfPath: path, Conf: conf})
	}

	return confs, nil
}

// readAll reads every path concurrently and returns the contents in input
// order. The first failure cancels the outstanding reads.
func (l *Loader) readAll(ctx context.Context, paths []string) ([][]byte, error) {
	contents := make([][]byte, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.maxParallel)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := afero.ReadFile(l.fs, path)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("read spito configuration").
					WithResource(path).
					WithSuggestion("Check that the file is readable").
					Wrap(err).
					BuildError()
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}
