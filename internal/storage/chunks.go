package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteChunks replaces the chunk set of one document directory. Stale
// NN.txt files from a previous, longer chunking are removed so the
// directory always mirrors exactly the given chunks. Returns the
// store-relative paths of the written chunks, in order.
func WriteChunks(storeDir, domain, doc string, chunks []string) ([]string, error) {
	dir := filepath.Join(storeDir, domain, doc)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read document directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".txt") || strings.HasPrefix(name, "_") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("failed to remove stale chunk %s: %w", name, err)
		}
	}

	paths := make([]string, 0, len(chunks))
	for i, content := range chunks {
		name := fmt.Sprintf("%02d.txt", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("failed to write chunk %s: %w", name, err)
		}
		paths = append(paths, strings.Join([]string{domain, doc, name}, "/"))
	}
	return paths, nil
}

// ReadChunk returns the content of one chunk by its store-relative path.
func ReadChunk(storeDir, relPath string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(storeDir, filepath.FromSlash(relPath)))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
