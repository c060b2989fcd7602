// SPDX-License-Identifier: MPL-2.0

package spitoconf

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// nullTag is the resolved YAML tag of an empty or "~" value.
const nullTag = "!!null"

// ErrInvalidRule is the sentinel error wrapped by InvalidRuleError.
var ErrInvalidRule = errors.New("invalid rule")

type (
	// RuleName is the key of a rule inside a configuration's rules mapping.
	RuleName string

	// Rule is a rule definition. It is either a bare path or a detailed
	// definition carrying a path and an optional unsafe marker; both forms
	// expose the script path through Path.
	Rule struct {
		path     string
		unsafe   string
		detailed bool
	}

	// InvalidRuleError is returned when a rule entry cannot be turned into a
	// Rule. It wraps ErrInvalidRule for errors.Is() compatibility.
	InvalidRuleError struct {
		Name   RuleName
		Line   int
		Reason string
	}
)

// BarePath builds a rule written as a plain string.
func BarePath(path string) Rule {
	return Rule{path: path}
}

// Detailed builds a rule written as a mapping. An empty unsafe means the key
// was absent.
func Detailed(path, unsafe string) Rule {
	return Rule{path: path, unsafe: unsafe, detailed: true}
}

// Path returns the script path as written, relative to the configuration
// file's directory.
func (r Rule) Path() string {
	return r.path
}

// Unsafe returns the unsafe marker of a detailed rule.
func (r Rule) Unsafe() (string, bool) {
	return r.unsafe, r.unsafe != ""
}

// IsDetailed reports whether the rule was written as a mapping.
func (r Rule) IsDetailed() bool {
	return r.detailed
}

// String returns the script path.
func (r Rule) String() string {
	return r.path
}

// Error implements the error interface for InvalidRuleError.
func (e *InvalidRuleError) Error() string {
	var b strings.Builder
	b.WriteString("rule ")
	fmt.Fprintf(&b, "%q", string(e.Name))
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidRuleError) Unwrap() error {
	return ErrInvalidRule
}

// decodeRule turns the value node of a rules entry into a Rule. Scalars are
// bare paths; mappings must carry a non-empty scalar "path".
func decodeRule(name RuleName, n *yaml.Node) (Rule, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == nullTag || n.Value == "" {
			return Rule{}, &InvalidRuleError{Name: name, Line: n.Line, Reason: "empty rule path"}
		}
		return BarePath(n.Value), nil

	case yaml.MappingNode:
		var (
			path    string
			unsafe  string
			hasPath bool
		)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], resolveAlias(n.Content[i+1])
			switch key.Value {
			case "path":
				if val.Kind != yaml.ScalarNode || val.ShortTag() == nullTag {
					return Rule{}, &InvalidRuleError{Name: name, Line: val.Line, Reason: "path must be a string"}
				}
				path, hasPath = val.Value, true
			case "unsafe":
				if val.Kind == yaml.ScalarNode && val.ShortTag() != nullTag {
					unsafe = val.Value
				}
			}
		}
		if !hasPath || path == "" {
			return Rule{}, &InvalidRuleError{Name: name, Line: n.Line, Reason: "missing required field \"path\""}
		}
		return Detailed(path, unsafe), nil

	default:
		return Rule{}, &InvalidRuleError{Name: name, Line: n.Line, Reason: "expected a path string or a mapping with \"path\""}
	}
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
