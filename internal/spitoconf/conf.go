// SPDX-License-Identifier: MPL-2.0

package spitoconf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"path"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	// FileNameYAML is the preferred configuration file name.
	FileNameYAML = "spito.yaml"
	// FileNameYML is the short-extension configuration file name.
	FileNameYML = "spito.yml"
)

type (
	// Conf is one parsed configuration file.
	Conf struct {
		// Rules maps rule names to their definitions. Never nil after parsing.
		Rules map[RuleName]Rule
	}

	// ConfWithPath pairs a parsed configuration with the absolute path of the
	// file it came from.
	ConfWithPath struct {
		SelfPath string
		Conf     *Conf
	}
)

// FileNames returns the accepted configuration file names in discovery order.
func FileNames() []string {
	return []string{FileNameYAML, FileNameYML}
}

// Patterns returns doublestar patterns matching every accepted configuration
// file anywhere below a root, in discovery order.
func Patterns() []string {
	names := FileNames()
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = path.Join("**", name)
	}
	return out
}

// IsConfigFileName reports whether base is one of the accepted names.
func IsConfigFileName(base string) bool {
	return base == FileNameYAML || base == FileNameYML
}

// Parse decodes a configuration document. An empty document, or one without
// a rules key, yields a configuration with no rules.
func Parse(data []byte) (*Conf, error) {
	var c Conf
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if c.Rules == nil {
		c.Rules = make(map[RuleName]Rule)
	}
	return &c, nil
}

// UnmarshalYAML decodes the top-level document. The rules mapping is walked
// entry by entry into an explicit map so every rule goes through decodeRule.
func (c *Conf) UnmarshalYAML(n *yaml.Node) error {
	n = resolveAlias(n)
	if n.Kind == yaml.ScalarNode && n.ShortTag() == nullTag {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping at document root", n.Line)
	}

	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value != "rules" {
			continue
		}
		rules, err := decodeRules(resolveAlias(n.Content[i+1]))
		if err != nil {
			return err
		}
		c.Rules = rules
	}
	return nil
}

func decodeRules(n *yaml.Node) (map[RuleName]Rule, error) {
	rules := make(map[RuleName]Rule)
	if n.Kind == yaml.ScalarNode && n.ShortTag() == nullTag {
		return rules, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: rules must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := RuleName(n.Content[i].Value)
		rule, err := decodeRule(name, n.Content[i+1])
		if err != nil {
			return nil, err
		}
		rules[name] = rule
	}
	return rules, nil
}

// RuleNames returns the rule names in sorted order.
func (c *Conf) RuleNames() []RuleName {
	return slices.Sorted(maps.Keys(c.Rules))
}
