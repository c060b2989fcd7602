// SPDX-License-Identifier: MPL-2.0

package lsp

import (
	"strings"
	"sync"
)

type (
	// document is one open text document.
	document struct {
		uri        string
		path       string
		languageID string
		version    int
		text       string
	}

	// documents tracks open documents by URI.
	documents struct {
		mu   sync.RWMutex
		docs map[string]*document
	}
)

func newDocuments() *documents {
	return &documents{docs: make(map[string]*document)}
}

func (d *documents) open(doc *document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[doc.uri] = doc
}

// replace swaps in the full text of an open document. Changes for unknown
// documents are dropped.
func (d *documents) replace(uri string, version int, text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, ok := d.docs[uri]
	if !ok {
		return false
	}
	next := *cur
	next.version = version
	next.text = text
	d.docs[uri] = &next
	return true
}

func (d *documents) close(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.docs, uri)
}

func (d *documents) get(uri string) (*document, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	doc, ok := d.docs[uri]
	return doc, ok
}

func (d *documents) len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// line returns line n of the document without its terminator, or "" when n
// is out of range.
func (doc *document) line(n int) string {
	if n < 0 {
		return ""
	}
	text := doc.text
	for range n {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			return ""
		}
		text = text[i+1:]
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSuffix(text, "\r")
}
