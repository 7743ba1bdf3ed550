package keyword

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeChunk(t *testing.T, store, rel, content string) {
	t.Helper()
	path := filepath.Join(store, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanIndexSearch(t *testing.T) {
	store := t.TempDir()
	writeChunk(t, store, "docs/intro/01.txt", "bayes theorem and conditional probability")
	writeChunk(t, store, "docs/intro/02.txt", "nothing relevant here")
	writeChunk(t, store, "code/util/01.txt", "probability helpers probability tables")

	idx := NewScanIndex(store)
	results, err := idx.Search(context.Background(), "probability", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %v", len(results), results)
	}
	// Two occurrences in a shorter file must outrank one in a longer file.
	if results[0].Path != "code/util/01.txt" {
		t.Errorf("top result = %s, want code/util/01.txt", results[0].Path)
	}
}

func TestScanIndexDomainScoping(t *testing.T) {
	store := t.TempDir()
	writeChunk(t, store, "docs/a/01.txt", "shared term")
	writeChunk(t, store, "code/b/01.txt", "shared term")

	idx := NewScanIndex(store)
	results, err := idx.Search(context.Background(), "shared", "docs", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "docs/a/01.txt" {
		t.Errorf("domain scoping failed: %v", results)
	}
}

func TestScanIndexIgnoresShortTermsAndMissingStore(t *testing.T) {
	idx := NewScanIndex(filepath.Join(t.TempDir(), "missing"))
	results, err := idx.Search(context.Background(), "a b", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
}

func TestScanIndexSkipsInternalDirs(t *testing.T) {
	store := t.TempDir()
	writeChunk(t, store, "docs/a/01.txt", "findable text")
	writeChunk(t, store, ".keyword/stray/01.txt", "findable text")

	idx := NewScanIndex(store)
	results, err := idx.Search(context.Background(), "findable", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "docs/a/01.txt" {
		t.Errorf("internal dirs should be skipped: %v", results)
	}
}

func TestScanIndexLimit(t *testing.T) {
	store := t.TempDir()
	writeChunk(t, store, "d/x/01.txt", "term")
	writeChunk(t, store, "d/x/02.txt", "term term")
	writeChunk(t, store, "d/x/03.txt", "term term term")

	idx := NewScanIndex(store)
	results, err := idx.Search(context.Background(), "term", "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestFactory(t *testing.T) {
	if _, err := New(BackendScan, t.TempDir()); err != nil {
		t.Errorf("scan backend: %v", err)
	}
	if _, err := New("", t.TempDir()); err != nil {
		t.Errorf("default backend: %v", err)
	}
	if _, err := New("lucene", t.TempDir()); err == nil {
		t.Error("unknown backend should fail")
	}
}
