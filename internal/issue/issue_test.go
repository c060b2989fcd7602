// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestIdConstants(t *testing.T) {
	t.Parallel()

	ids := []Id{
		ConfigLoadFailedId,
		SpitoConfParseFailedId,
		WorkspaceRootNotFoundId,
		WatcherStartFailedId,
		ServerProtocolErrorId,
	}

	seen := make(map[Id]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
		if Get(id) == nil {
			t.Errorf("Get(%d) returned nil", id)
		}
	}

	if ConfigLoadFailedId != 1 {
		t.Errorf("ConfigLoadFailedId = %d, want 1", ConfigLoadFailedId)
	}
}

func TestValuesOrdered(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != 5 {
		t.Fatalf("Values() returned %d issues, want 5", len(values))
	}
	for i := 1; i < len(values); i++ {
		if values[i-1].Id() >= values[i].Id() {
			t.Errorf("Values() not ordered at %d", i)
		}
	}
}

func TestIssueMarkdown(t *testing.T) {
	t.Parallel()

	is := Get(SpitoConfParseFailedId)
	md := is.Markdown()
	if !strings.Contains(md, "Failed to parse a spito configuration") {
		t.Error("markdown should contain the issue title")
	}
	if !strings.Contains(md, "## See also") {
		t.Error("markdown should list doc links")
	}

	if strings.Contains(Get(WorkspaceRootNotFoundId).Markdown(), "See also") {
		t.Error("issues without links should not render a See also section")
	}
}

func TestIssueDocLinksReturnsCopy(t *testing.T) {
	t.Parallel()

	is := Get(ConfigLoadFailedId)
	links := is.DocLinks()
	if len(links) == 0 {
		t.Fatal("expected doc links")
	}
	links[0] = "mutated"
	if is.DocLinks()[0] == "mutated" {
		t.Error("DocLinks() must return a copy")
	}
}

func TestIssueRender(t *testing.T) {
	t.Parallel()

	out, err := Get(WatcherStartFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "Failed to watch the workspace") {
		t.Errorf("rendered output missing title:\n%s", out)
	}
}
