package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteChunksAndReadBack(t *testing.T) {
	store := t.TempDir()

	paths, err := WriteChunks(store, "docs", "intro", []string{"first", "second", "third"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"docs/intro/00.txt", "docs/intro/01.txt", "docs/intro/02.txt"}
	if len(paths) != 3 {
		t.Fatalf("paths = %v", paths)
	}
	for i, p := range paths {
		if p != want[i] {
			t.Errorf("path %d = %s, want %s", i, p, want[i])
		}
	}

	content, err := ReadChunk(store, "docs/intro/01.txt")
	if err != nil {
		t.Fatal(err)
	}
	if content != "second" {
		t.Errorf("content = %q", content)
	}
}

func TestWriteChunksRemovesStale(t *testing.T) {
	store := t.TempDir()

	if _, err := WriteChunks(store, "docs", "doc", []string{"a", "b", "c"}); err != nil {
		t.Fatal(err)
	}
	// Re-chunking to fewer chunks must not leave 02.txt behind.
	if _, err := WriteChunks(store, "docs", "doc", []string{"x"}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(store, "docs", "doc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "00.txt" {
		t.Errorf("directory not rewritten cleanly: %v", entries)
	}
}

func TestWriteChunksKeepsUnderscoreFiles(t *testing.T) {
	store := t.TempDir()
	dir := filepath.Join(store, "docs", "doc")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "_meta.txt"), []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteChunks(store, "docs", "doc", []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "_meta.txt")); err != nil {
		t.Errorf("underscore file should survive rewrites: %v", err)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b"), make([]byte, 50), 0644); err != nil {
		t.Fatal(err)
	}

	total, err := DiskUsageBytes(dir, filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if total != 150 {
		t.Errorf("total = %d, want 150", total)
	}
}
