// SPDX-License-Identifier: MPL-2.0

// Package catalog holds the static capability catalog: the namespace tree of
// API methods that rule scripts can call and that completion is offered for.
//
// The tree is a tagged variant. Every Node is a namespace with ordered
// children, a method leaf, or a data leaf. The default tree is built once by
// Default and never mutated afterwards.
package catalog
