package graph

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendAndLoad(t *testing.T) {
	g := New(t.TempDir())

	err := g.Append(
		Edge{Source: "docs/a/00.txt", Target: "docs/a", Type: EdgeChunkedFrom},
		Edge{Source: "docs/a/00.txt", Target: "docs/b/01.txt", Type: EdgeRelatedTo, Metadata: "similarity=0.9123"},
	)
	if err != nil {
		t.Fatal(err)
	}

	edges, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}
	if edges[0].Type != EdgeChunkedFrom || edges[0].Metadata != "" {
		t.Errorf("edge 0 = %+v", edges[0])
	}
	if edges[1].Metadata != "similarity=0.9123" {
		t.Errorf("edge 1 metadata = %q", edges[1].Metadata)
	}
}

func TestLoadMissingFile(t *testing.T) {
	g := New(filepath.Join(t.TempDir(), "empty-store"))
	edges, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 0 {
		t.Errorf("expected no edges, got %v", edges)
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	store := t.TempDir()
	raw := "# comment\n\nsrc\tdst\ttype\n only-two\tfields\nsrc2\tdst2\ttype2\tmeta\n"
	if err := os.WriteFile(filepath.Join(store, EdgesFilename), []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}
	edges, err := New(store).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2: %v", len(edges), edges)
	}
}

func TestAppendRejectsTabsInFields(t *testing.T) {
	g := New(t.TempDir())
	if err := g.Append(Edge{Source: "a\tb", Target: "c", Type: "references"}); err == nil {
		t.Error("tab in source should be rejected")
	}
	if err := g.Append(Edge{Source: "a", Target: "c", Type: ""}); err == nil {
		t.Error("empty type should be rejected")
	}
}

func TestAppendRejectsUnsafeMetadata(t *testing.T) {
	g := New(t.TempDir())
	if err := g.Append(Edge{
		Source: "a", Target: "b", Type: EdgeReferences,
		Metadata: "note\nc\td\treferences\t",
	}); err == nil {
		t.Error("newline in metadata should be rejected")
	}
	if err := g.Append(Edge{
		Source: "a", Target: "b", Type: EdgeReferences,
		Metadata: "key=value\textra",
	}); err == nil {
		t.Error("tab in metadata should be rejected")
	}

	// Nothing may have been written by the rejected appends.
	edges, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 0 {
		t.Errorf("rejected appends left %d edges behind", len(edges))
	}
}

func TestReplaceChunkedFrom(t *testing.T) {
	g := New(t.TempDir())
	err := g.Append(
		Edge{Source: "docs/a/00.txt", Target: "/src/a.md", Type: EdgeChunkedFrom},
		Edge{Source: "docs/a/01.txt", Target: "/src/a.md", Type: EdgeChunkedFrom},
		Edge{Source: "docs/a/00.txt", Target: "docs/b/00.txt", Type: EdgeRelatedTo},
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := g.ReplaceChunkedFrom("/src/a.md", []string{"docs/a/00.txt"}); err != nil {
		t.Fatal(err)
	}

	edges, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2: %v", len(edges), edges)
	}
	// Unrelated edge survives the rewrite.
	if edges[0].Type != EdgeRelatedTo {
		t.Errorf("edge 0 = %+v", edges[0])
	}
	if edges[1].Source != "docs/a/00.txt" || edges[1].Type != EdgeChunkedFrom {
		t.Errorf("edge 1 = %+v", edges[1])
	}
}

func TestNeighbors(t *testing.T) {
	g := New(t.TempDir())
	err := g.Append(
		Edge{Source: "x", Target: "y", Type: EdgeReferences},
		Edge{Source: "z", Target: "x", Type: EdgeRelatedTo, Metadata: "similarity=0.8100"},
		Edge{Source: "y", Target: "z", Type: EdgeReferences},
	)
	if err != nil {
		t.Fatal(err)
	}

	neighbors, err := g.Neighbors("x")
	if err != nil {
		t.Fatal(err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("got %d neighbors, want 2: %v", len(neighbors), neighbors)
	}
	if neighbors[0].Direction != "outgoing" || neighbors[0].Node != "y" {
		t.Errorf("neighbor 0 = %+v", neighbors[0])
	}
	if neighbors[1].Direction != "incoming" || neighbors[1].Node != "z" {
		t.Errorf("neighbor 1 = %+v", neighbors[1])
	}
}

func TestTraceFollowsProvenance(t *testing.T) {
	g := New(t.TempDir())
	err := g.Append(
		Edge{Source: "docs/a/00.txt", Target: "docs/a", Type: EdgeChunkedFrom},
		Edge{Source: "docs/a", Target: "notes/raw", Type: EdgeDerivedVia},
		Edge{Source: "docs/a/00.txt", Target: "docs/b/00.txt", Type: EdgeRelatedTo},
	)
	if err != nil {
		t.Fatal(err)
	}

	steps, err := g.Trace("docs/a/00.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3: %v", len(steps), steps)
	}
	if steps[0].Node != "docs/a/00.txt" || steps[0].Parent != "" {
		t.Errorf("step 0 = %+v", steps[0])
	}
	if steps[1].Node != "docs/a" || steps[1].EdgeType != EdgeChunkedFrom {
		t.Errorf("step 1 = %+v", steps[1])
	}
	if steps[2].Node != "notes/raw" || steps[2].EdgeType != EdgeDerivedVia {
		t.Errorf("step 2 = %+v", steps[2])
	}
}

func TestTraceBreaksCycles(t *testing.T) {
	g := New(t.TempDir())
	err := g.Append(
		Edge{Source: "a", Target: "b", Type: EdgeChunkedFrom},
		Edge{Source: "b", Target: "a", Type: EdgeChunkedFrom},
	)
	if err != nil {
		t.Fatal(err)
	}
	steps, err := g.Trace("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 {
		t.Errorf("cycle should visit each node once, got %v", steps)
	}
}

func TestStats(t *testing.T) {
	store := t.TempDir()
	for _, p := range []string{
		"docs/intro/00.txt",
		"docs/intro/01.txt",
		"docs/deep/00.txt",
		"code/util/00.txt",
	} {
		full := filepath.Join(store, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("chunk"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	g := New(store)
	if err := g.Link("docs/intro/00.txt", "docs/intro", EdgeChunkedFrom, ""); err != nil {
		t.Fatal(err)
	}
	if err := g.Link("docs/intro/00.txt", "docs/deep/00.txt", EdgeRelatedTo, ""); err != nil {
		t.Fatal(err)
	}

	stats, err := g.Stats("")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Domains != 2 || stats.Documents != 3 || stats.Chunks != 4 {
		t.Errorf("corpus counts = %+v", stats)
	}
	if stats.Edges != 2 || stats.EdgeTypes[EdgeChunkedFrom] != 1 || stats.EdgeTypes[EdgeRelatedTo] != 1 {
		t.Errorf("edge counts = %+v", stats)
	}

	scoped, err := g.Stats("code")
	if err != nil {
		t.Fatal(err)
	}
	if scoped.Domains != 1 || scoped.Documents != 1 || scoped.Chunks != 1 || scoped.Edges != 0 {
		t.Errorf("scoped stats = %+v", scoped)
	}
}
