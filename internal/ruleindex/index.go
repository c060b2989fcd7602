// SPDX-License-Identifier: MPL-2.0

// Package ruleindex maps rule script files to the configuration file that
// declares them.
package ruleindex

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/avorty/spito-lsp/internal/spitoconf"
)

// Index is a reverse lookup from absolute script path to the absolute path
// of the configuration that declared it. The zero value is an empty index.
// An Index is never modified after Build returns it.
type Index struct {
	owners map[string]string
}

// Build resolves every rule of every configuration against the directory of
// its configuration file. Resolution is lexical: ".." segments are folded
// without touching the filesystem. When several configurations declare the
// same script, the one latest in confs wins.
func Build(confs []spitoconf.ConfWithPath) Index {
	owners := make(map[string]string)
	for _, c := range confs {
		if c.Conf == nil {
			continue
		}
		dir := filepath.Dir(c.SelfPath)
		for _, rule := range c.Conf.Rules {
			owners[filepath.Join(dir, filepath.FromSlash(rule.Path()))] = c.SelfPath
		}
	}
	return Index{owners: owners}
}

// Owner returns the configuration declaring path as a rule. path is cleaned
// before lookup.
func (ix Index) Owner(path string) (string, bool) {
	owner, ok := ix.owners[filepath.Clean(path)]
	return owner, ok
}

// Contains reports whether path is a known rule script.
func (ix Index) Contains(path string) bool {
	_, ok := ix.Owner(path)
	return ok
}

// Len returns the number of rule scripts.
func (ix Index) Len() int {
	return len(ix.owners)
}

// Scripts returns every rule script path in sorted order.
func (ix Index) Scripts() []string {
	return slices.Sorted(maps.Keys(ix.owners))
}

// ByOwner groups script paths by configuration file, each group sorted.
func (ix Index) ByOwner() map[string][]string {
	out := make(map[string][]string)
	for script, owner := range ix.owners {
		out[owner] = append(out[owner], script)
	}
	for _, scripts := range out {
		slices.Sort(scripts)
	}
	return out
}
