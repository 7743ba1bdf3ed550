package graph

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/ragdag/internal/embeddings"
)

func writeCollection(t *testing.T, store, domain string, paths []string, vectors [][]float32) {
	t.Helper()
	dir := filepath.Join(store, domain)
	if _, err := embeddings.Merge(dir, vectors, paths, len(vectors[0]), "test-model", false); err != nil {
		t.Fatal(err)
	}
}

func TestRelateLinksSimilarPairs(t *testing.T) {
	store := t.TempDir()
	writeCollection(t, store, "docs",
		[]string{"docs/a/00.txt", "docs/b/00.txt", "docs/c/00.txt"},
		[][]float32{
			{1, 0, 0},
			{1, 0.01, 0}, // nearly parallel to the first
			{0, 1, 0},    // orthogonal to both
		})

	g := New(store)
	report, err := g.Relate("", 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if report.Pairs != 3 {
		t.Errorf("pairs scored = %d, want 3", report.Pairs)
	}
	if report.Created != 1 {
		t.Fatalf("created = %d, want 1", report.Created)
	}

	edges, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want 1", len(edges))
	}
	e := edges[0]
	if e.Source != "docs/a/00.txt" || e.Target != "docs/b/00.txt" || e.Type != EdgeRelatedTo {
		t.Errorf("edge = %+v", e)
	}
	if !strings.HasPrefix(e.Metadata, "similarity=0.9") {
		t.Errorf("metadata = %q", e.Metadata)
	}
}

func TestRelateIsIdempotent(t *testing.T) {
	store := t.TempDir()
	writeCollection(t, store, "docs",
		[]string{"docs/a/00.txt", "docs/b/00.txt"},
		[][]float32{{1, 0}, {1, 0}})

	g := New(store)
	if _, err := g.Relate("", 0.5); err != nil {
		t.Fatal(err)
	}
	report, err := g.Relate("", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 0 {
		t.Errorf("second run created %d edges, want 0", report.Created)
	}
	edges, _ := g.Load()
	if len(edges) != 1 {
		t.Errorf("got %d edges after two runs, want 1", len(edges))
	}
}

func TestRelateSkipsReversedExistingEdges(t *testing.T) {
	store := t.TempDir()
	writeCollection(t, store, "docs",
		[]string{"docs/a/00.txt", "docs/b/00.txt"},
		[][]float32{{1, 0}, {1, 0}})

	g := New(store)
	if err := g.Link("docs/b/00.txt", "docs/a/00.txt", EdgeRelatedTo, ""); err != nil {
		t.Fatal(err)
	}
	report, err := g.Relate("", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 0 {
		t.Errorf("reversed existing edge should block relinking, created %d", report.Created)
	}
}

func TestRelateDomainScoping(t *testing.T) {
	store := t.TempDir()
	writeCollection(t, store, "docs",
		[]string{"docs/a/00.txt", "docs/b/00.txt"},
		[][]float32{{1, 0}, {1, 0}})
	writeCollection(t, store, "code",
		[]string{"code/x/00.txt", "code/y/00.txt"},
		[][]float32{{0, 1}, {0, 1}})

	g := New(store)
	report, err := g.Relate("code", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if report.Created != 1 {
		t.Fatalf("created = %d, want 1", report.Created)
	}
	edges, _ := g.Load()
	if edges[0].Source != "code/x/00.txt" {
		t.Errorf("edge = %+v", edges[0])
	}
}

func TestRelateEmptyStore(t *testing.T) {
	g := New(filepath.Join(t.TempDir(), "missing"))
	report, err := g.Relate("", 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if report.Pairs != 0 || report.Created != 0 {
		t.Errorf("report = %+v", report)
	}
}
