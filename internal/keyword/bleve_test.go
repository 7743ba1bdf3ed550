package keyword

import (
	"context"
	"testing"
)

func newTestBleve(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleveIndexSearch(t *testing.T) {
	idx := newTestBleve(t)
	ctx := context.Background()

	err := idx.Add(ctx, []Chunk{
		{Path: "docs/bayes/01.txt", Domain: "docs", Content: "bayes theorem and conditional probability"},
		{Path: "docs/graphs/01.txt", Domain: "docs", Content: "directed acyclic graphs"},
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(ctx, "probability", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "docs/bayes/01.txt" {
		t.Errorf("results = %v", results)
	}
	if results[0].Score <= 0 {
		t.Errorf("score = %v, want > 0", results[0].Score)
	}
}

func TestBleveIndexDomainFilter(t *testing.T) {
	idx := newTestBleve(t)
	ctx := context.Background()

	err := idx.Add(ctx, []Chunk{
		{Path: "docs/a/01.txt", Domain: "docs", Content: "shared term"},
		{Path: "code/b/01.txt", Domain: "code", Content: "shared term"},
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(ctx, "shared", "code", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "code/b/01.txt" {
		t.Errorf("domain filter failed: %v", results)
	}
}

func TestBleveIndexRemove(t *testing.T) {
	idx := newTestBleve(t)
	ctx := context.Background()

	if err := idx.Add(ctx, []Chunk{{Path: "d/x/01.txt", Domain: "d", Content: "ephemeral"}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Remove(ctx, []string{"d/x/01.txt"}); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, "ephemeral", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("removed chunk still searchable: %v", results)
	}
}
