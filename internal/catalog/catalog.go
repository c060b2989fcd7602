// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
)

const (
	// KindNamespace marks an internal node with named children.
	KindNamespace Kind = iota
	// KindMethod marks a callable leaf.
	KindMethod
	// KindData marks any other leaf value.
	KindData
)

const (
	// MethodMarker is the leaf value that tags a catalog entry as callable.
	MethodMarker = "method"

	// RootNamespace is the identifier every API path starts with.
	RootNamespace = "api"
)

// ErrInvalidKind is returned when a Kind value is not one of the defined kinds.
var ErrInvalidKind = errors.New("invalid catalog node kind")

type (
	// Kind discriminates the variants of Node.
	Kind int

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}

	// Node is one entry of the capability catalog. The zero value is an empty
	// namespace.
	Node struct {
		kind     Kind
		value    string
		children []Entry
	}

	// Entry is a named child of a namespace node.
	Entry struct {
		Name string
		Node *Node
	}
)

var (
	defaultOnce sync.Once
	defaultTree *Node
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindMethod:
		return "method"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

// Validate returns nil if k is a defined kind.
func (k Kind) Validate() error {
	switch k {
	case KindNamespace, KindMethod, KindData:
		return nil
	default:
		return &InvalidKindError{Value: k}
	}
}

// Error implements the error interface for InvalidKindError.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid catalog node kind %d (valid: 0=namespace, 1=method, 2=data)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error {
	return ErrInvalidKind
}

// Namespace builds an internal node. Children keep their declaration order;
// a later entry with a duplicate name replaces the earlier one in place.
func Namespace(children ...Entry) *Node {
	n := &Node{kind: KindNamespace, children: make([]Entry, 0, len(children))}
	for _, c := range children {
		if i := n.index(c.Name); i >= 0 {
			n.children[i] = c
			continue
		}
		n.children = append(n.children, c)
	}
	return n
}

// Method builds a callable leaf.
func Method() *Node {
	return &Node{kind: KindMethod, value: MethodMarker}
}

// Data builds a non-callable leaf carrying value.
func Data(value string) *Node {
	return &Node{kind: KindData, value: value}
}

// Leaf builds a leaf from a raw marker value: MethodMarker yields a method,
// anything else a data leaf.
func Leaf(value string) *Node {
	if value == MethodMarker {
		return Method()
	}
	return Data(value)
}

// E pairs a name with a node for use with Namespace.
func E(name string, node *Node) Entry {
	return Entry{Name: name, Node: node}
}

// Kind reports the variant of n.
func (n *Node) Kind() Kind {
	return n.kind
}

// IsNamespace reports whether n has children.
func (n *Node) IsNamespace() bool {
	return n != nil && n.kind == KindNamespace
}

// Value returns the leaf value. Namespaces return "".
func (n *Node) Value() string {
	return n.value
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	return len(n.children)
}

// Child returns the direct child called name.
func (n *Node) Child(name string) (*Node, bool) {
	if !n.IsNamespace() {
		return nil, false
	}
	i := n.index(name)
	if i < 0 {
		return nil, false
	}
	return n.children[i].Node, true
}

// Children iterates the direct children in declaration order.
func (n *Node) Children() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		if n == nil {
			return
		}
		for _, c := range n.children {
			if !yield(c.Name, c.Node) {
				return
			}
		}
	}
}

// Lookup walks the tree from n following one child per name. It fails
// closed: any missing child, or a leaf reached before the last name, ends
// the walk with ok=false.
func (n *Node) Lookup(names ...string) (*Node, bool) {
	cur := n
	for _, name := range names {
		next, ok := cur.Child(name)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// LookupPath is Lookup over a dotted path such as "api.fs".
func (n *Node) LookupPath(dotted string) (*Node, bool) {
	return n.Lookup(strings.Split(dotted, ".")...)
}

// Walk visits every node below n depth-first in declaration order, passing
// the dotted path of each node. Returning false from fn stops the walk.
func (n *Node) Walk(fn func(path string, node *Node) bool) {
	n.walk("", fn)
}

func (n *Node) walk(prefix string, fn func(string, *Node) bool) bool {
	for name, child := range n.Children() {
		p := name
		if prefix != "" {
			p = prefix + "." + name
		}
		if !fn(p, child) {
			return false
		}
		if child.IsNamespace() && !child.walk(p, fn) {
			return false
		}
	}
	return true
}

func (n *Node) index(name string) int {
	for i, c := range n.children {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Default returns the built-in API catalog. The returned tree is shared and
// must not be modified.
func Default() *Node {
	defaultOnce.Do(func() {
		defaultTree = Namespace(
			E(RootNamespace, Namespace(
				E("pkg", Namespace(
					E("get", Method()),
				)),
				E("sys", Namespace(
					E("getDistro", Method()),
					E("getDaemon", Method()),
					E("getInitSystem", Method()),
				)),
				E("fs", Namespace(
					E("pathExists", Method()),
					E("fileExists", Method()),
					E("readFile", Method()),
					E("fileContains", Method()),
					E("removeComments", Method()),
					E("find", Method()),
					E("findAll", Method()),
					E("getProperLines", Method()),
					E("createFile", Method()),
				)),
				E("info", Namespace(
					E("log", Method()),
					E("debug", Method()),
					E("error", Method()),
					E("warn", Method()),
					E("important", Method()),
				)),
				E("sh", Namespace(
					E("command", Method()),
				)),
			)),
		)
	})
	return defaultTree
}
