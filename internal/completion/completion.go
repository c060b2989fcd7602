// SPDX-License-Identifier: MPL-2.0

// Package completion turns a cursor position in a rule script into
// suggestions from the capability catalog.
package completion

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/avorty/spito-lsp/internal/catalog"
)

const (
	// KindModule is a namespace suggestion.
	KindModule Kind = iota
	// KindFunction is a callable suggestion.
	KindFunction
	// KindVariable is any other leaf suggestion.
	KindVariable
)

const (
	// SortText is attached to every suggestion so catalog entries rank first.
	SortText = "!1"

	// TriggerCharacter is the path separator that opens a completion.
	TriggerCharacter = "."
)

// ErrInvalidKind is returned when a Kind value is not one of the defined kinds.
var ErrInvalidKind = errors.New("invalid completion kind")

type (
	// Kind classifies a suggestion.
	Kind int

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}

	// Item is one suggestion.
	Item struct {
		Label    string
		Kind     Kind
		SortText string
	}

	// Request locates the cursor in a document.
	Request struct {
		// Path is the absolute file path of the document.
		Path string
		// Line is the full text of the cursor line.
		Line string
		// Character is the cursor column in UTF-16 code units.
		Character int
	}

	// OwnerLookup reports which configuration declares a script as a rule.
	OwnerLookup interface {
		Owner(path string) (string, bool)
	}

	// Provider answers completion requests against a catalog.
	Provider struct {
		owners  OwnerLookup
		catalog *catalog.Node
	}

	// Option configures a Provider.
	Option func(*Provider)
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindFunction:
		return "function"
	case KindVariable:
		return "variable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Validate returns an error if the kind is not one of the defined kinds.
func (k Kind) Validate() error {
	switch k {
	case KindModule, KindFunction, KindVariable:
		return nil
	default:
		return &InvalidKindError{Value: k}
	}
}

// LSP returns the CompletionItemKind number used on the wire.
func (k Kind) LSP() int {
	switch k {
	case KindModule:
		return 9
	case KindFunction:
		return 3
	default:
		return 6
	}
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid completion kind %d", int(e.Value))
}

// Unwrap returns ErrInvalidKind so callers can use errors.Is for category checks.
func (e *InvalidKindError) Unwrap() error {
	return ErrInvalidKind
}

// WithCatalog replaces the built-in catalog.
func WithCatalog(root *catalog.Node) Option {
	return func(p *Provider) {
		p.catalog = root
	}
}

// NewProvider creates a Provider that only answers for scripts owners knows.
func NewProvider(owners OwnerLookup, opts ...Option) *Provider {
	p := &Provider{
		owners:  owners,
		catalog: catalog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Complete returns the suggestions for req. Documents that are not indexed
// rule scripts, and prefixes that do not resolve to a namespace, get none.
func (p *Provider) Complete(req Request) []Item {
	if _, ok := p.owners.Owner(req.Path); !ok {
		return nil
	}
	return Suggest(p.catalog, Prefix(req.Line, req.Character))
}

// Suggest resolves a trimmed line prefix against root.
func Suggest(root *catalog.Node, prefix string) []Item {
	if prefix == catalog.RootNamespace[:1] {
		return []Item{{Label: catalog.RootNamespace, Kind: KindModule, SortText: SortText}}
	}

	path := strings.TrimSuffix(prefix, TriggerCharacter)
	node, ok := root.Lookup(strings.Split(path, TriggerCharacter)...)
	if !ok || !node.IsNamespace() {
		return nil
	}

	items := make([]Item, 0, node.Len())
	for name, child := range node.Children() {
		items = append(items, Item{Label: name, Kind: kindOf(child), SortText: SortText})
	}
	return items
}

// Prefix returns the text of line before the UTF-16 column character, with
// surrounding whitespace trimmed. Columns past the end of the line clamp to
// its length; a column inside a surrogate pair stops before the pair.
func Prefix(line string, character int) string {
	units := 0
	end := len(line)
	for i, r := range line {
		if units >= character {
			end = i
			break
		}
		units += utf16.RuneLen(r)
		if units > character {
			end = i
			break
		}
	}
	if character <= 0 {
		end = 0
	}
	return strings.TrimSpace(line[:end])
}

func kindOf(n *catalog.Node) Kind {
	switch n.Kind() {
	case catalog.KindNamespace:
		return KindModule
	case catalog.KindMethod:
		return KindFunction
	default:
		return KindVariable
	}
}
