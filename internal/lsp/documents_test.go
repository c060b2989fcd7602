// SPDX-License-Identifier: MPL-2.0

package lsp

import (
	"errors"
	"testing"
)

func TestDocumentLine(t *testing.T) {
	t.Parallel()

	doc := &document{text: "first\r\n  api.fs.\nlast"}
	tests := []struct {
		n    int
		want string
	}{
		{0, "first"},
		{1, "  api.fs."},
		{2, "last"},
		{3, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := doc.line(tt.n); got != tt.want {
			t.Errorf("line(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestDocumentsLifecycle(t *testing.T) {
	t.Parallel()

	d := newDocuments()
	if d.replace("file:///a.lua", 2, "x") {
		t.Error("replace of unopened document should fail")
	}

	d.open(&document{uri: "file:///a.lua", path: "/a.lua", languageID: "lua", version: 1, text: "old"})
	before, _ := d.get("file:///a.lua")
	if !d.replace("file:///a.lua", 2, "new") {
		t.Fatal("replace failed")
	}
	after, ok := d.get("file:///a.lua")
	if !ok || after.text != "new" || after.version != 2 || after.languageID != "lua" {
		t.Errorf("after replace = %+v", after)
	}
	if before.text != "old" {
		t.Error("replace must not mutate previously returned documents")
	}

	d.close("file:///a.lua")
	if d.len() != 0 {
		t.Errorf("len() = %d after close", d.len())
	}
}

func TestState(t *testing.T) {
	t.Parallel()

	for _, s := range []State{StateCreated, StateRunning, StateShuttingDown, StateExited} {
		if err := s.Validate(); err != nil {
			t.Errorf("%s Validate() error: %v", s, err)
		}
		if s.IsTerminal() != (s == StateExited) {
			t.Errorf("%s IsTerminal() = %v", s, s.IsTerminal())
		}
	}
	err := State(9).Validate()
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Validate() error = %v, want ErrInvalidState", err)
	}
	if State(9).String() != "unknown" {
		t.Errorf("String() = %q", State(9).String())
	}
}
