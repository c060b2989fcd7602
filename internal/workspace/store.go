// SPDX-License-Identifier: MPL-2.0

// Package workspace owns the process-wide view of a workspace: the loaded
// spito configurations and the rule index built from them.
//
// State is held as an immutable Snapshot behind an atomic pointer. Refresh
// builds a complete replacement and swaps it in, so readers never observe a
// partially rebuilt index. Refreshes are not serialized against each other;
// each one takes a sequence number when it starts and its result is only
// published if no later-started refresh has already been published.
package workspace

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/avorty/spito-lsp/internal/ruleindex"
	"github.com/avorty/spito-lsp/internal/spitoconf"

	"github.com/charmbracelet/log"
)

type (
	// Loader produces the full set of configurations for a workspace.
	Loader interface {
		Load(ctx context.Context) ([]spitoconf.ConfWithPath, error)
	}

	// Snapshot is one published workspace state. Snapshots are never modified
	// after publication.
	Snapshot struct {
		// Seq is the sequence number of the refresh that produced it. The
		// initial empty snapshot has Seq 0.
		Seq uint64
		// Configs are the loaded configurations in discovery order.
		Configs []spitoconf.ConfWithPath
		// Index maps rule scripts to their owning configuration.
		Index ruleindex.Index
		// LoadedAt is when the refresh finished loading.
		LoadedAt time.Time
	}

	// Store holds the current Snapshot and refreshes it from a Loader.
	Store struct {
		loader  Loader
		logger  *log.Logger
		now     func() time.Time
		current atomic.Pointer[Snapshot]
		seq     atomic.Uint64
		onSwap  func(*Snapshot)
	}

	// Option configures a Store.
	Option func(*Store)
)

// WithLogger sets the store logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// withClock overrides the time source stamped on snapshots.
func withClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithOnPublish registers a callback invoked after each successful publish.
func WithOnPublish(fn func(*Snapshot)) Option {
	return func(s *Store) {
		s.onSwap = fn
	}
}

// NewStore creates a Store whose current snapshot is empty.
func NewStore(loader Loader, opts ...Option) *Store {
	s := &Store{
		loader: loader,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "workspace"})
	}
	s.current.Store(&Snapshot{})
	return s
}

// Current returns the latest published snapshot. It never returns nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Owner returns the configuration declaring path in the current snapshot.
func (s *Store) Owner(path string) (string, bool) {
	return s.Current().Index.Owner(path)
}

// Refresh reloads every configuration and rebuilds the rule index. On a
// load failure the current snapshot is left untouched and the error is
// returned. If a refresh that started later has already been published, the
// result is discarded and that newer snapshot is returned instead.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	seq := s.seq.Add(1)

	confs, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("refresh failed; keeping previous state", "seq", seq, "error", err)
		return nil, err
	}

	next := &Snapshot{
		Seq:      seq,
		Configs:  confs,
		Index:    ruleindex.Build(confs),
		LoadedAt: s.now(),
	}

	for {
		cur := s.current.Load()
		if cur.Seq >= seq {
			s.logger.Debug("discarding stale refresh", "seq", seq, "current", cur.Seq)
			return cur, nil
		}
		if s.current.CompareAndSwap(cur, next) {
			break
		}
	}

	s.logger.Info("workspace refreshed", "seq", seq, "configs", len(confs), "rules", next.Index.Len())
	if s.onSwap != nil {
		s.onSwap(next)
	}
	return next, nil
}
