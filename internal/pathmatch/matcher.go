// SPDX-License-Identifier: MPL-2.0

// Package pathmatch selects workspace paths with doublestar globs. It is
// shared by configuration discovery and the change watcher so both agree on
// which files are configuration files and which directories are skipped.
package pathmatch

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultIgnores are excluded on top of user-supplied ignore patterns. They
// mirror an editor's stock file excludes: VCS metadata and OS metadata files.
var defaultIgnores = []string{
	"**/.git/**",
	"**/.svn/**",
	"**/.hg/**",
	"**/CVS/**",
	"**/.DS_Store",
	"**/Thumbs.db",
}

// Matcher reports whether slash-separated paths relative to a root are
// selected by its patterns and not excluded by its ignores.
type Matcher struct {
	patterns []string
	ignores  []string
}

// New validates patterns and ignores and builds a Matcher. The built-in
// default ignores are always merged in. An empty patterns slice selects every
// non-ignored path.
func New(patterns, ignore []string) (*Matcher, error) {
	if err := Validate(patterns, "watch"); err != nil {
		return nil, err
	}
	if err := Validate(ignore, "ignore"); err != nil {
		return nil, err
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, ignore...)

	return &Matcher{
		patterns: append([]string(nil), patterns...),
		ignores:  ignores,
	}, nil
}

// Patterns returns a copy of the selecting patterns.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Ignored reports whether rel matches any ignore pattern.
func (m *Matcher) Ignored(rel string) bool {
	return anyMatch(m.ignores, rel)
}

// IgnoredDir reports whether a directory should be skipped entirely. Both the
// bare and slash-terminated forms are tested so "**/.git/**" prunes ".git".
func (m *Matcher) IgnoredDir(rel string) bool {
	return m.Ignored(rel) || m.Ignored(rel+"/")
}

// Selected reports whether rel matches at least one pattern.
func (m *Matcher) Selected(rel string) bool {
	if len(m.patterns) == 0 {
		return true
	}
	return anyMatch(m.patterns, rel)
}

// Match reports whether rel is selected and not ignored.
func (m *Matcher) Match(rel string) bool {
	return !m.Ignored(rel) && m.Selected(rel)
}

// PatternIndex returns the index of the first pattern matching rel, or -1.
// Discovery uses it to keep results grouped in pattern order.
func (m *Matcher) PatternIndex(rel string) int {
	normalized := filepath.ToSlash(rel)
	for i, pat := range m.patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return i
		}
	}
	return -1
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	out := make([]string, len(defaultIgnores))
	copy(out, defaultIgnores)
	return out
}

// Validate checks that every pattern is a valid doublestar glob. The label
// (e.g. "watch" or "ignore") is used in error messages.
func Validate(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("invalid %s pattern %q: %w", label, pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}

func anyMatch(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}
