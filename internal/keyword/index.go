// Package keyword provides the lexical leg of hybrid search. Two backends
// are available through the factory: "scan", a flat scan over the chunk
// files themselves, and "bleve", a persistent full-text index.
package keyword

import (
	"context"
	"fmt"
)

// Result is a single lexical hit: a chunk path and its keyword score.
// Scores are backend-specific and only comparable within one result list;
// fusion normalizes them by their maximum.
type Result struct {
	Path  string
	Score float64
}

// Chunk is the indexable unit handed to a backend at ingest time.
type Chunk struct {
	Path    string // chunk path relative to the store root
	Domain  string
	Content string
}

// Index defines lexical search over the store's chunks.
type Index interface {
	// Add makes chunks searchable. The scan backend is a no-op here since
	// it reads chunk files directly.
	Add(ctx context.Context, chunks []Chunk) error
	// Remove drops chunks by path.
	Remove(ctx context.Context, paths []string) error
	// Search returns up to limit hits for query, optionally scoped to a
	// domain. No match is an empty slice, not an error.
	Search(ctx context.Context, query, domain string, limit int) ([]Result, error)
	Close() error
}

// Backend names accepted by New.
const (
	BackendScan  = "scan"
	BackendBleve = "bleve"
)

// New constructs the keyword backend for a store rooted at storeDir.
func New(backend, storeDir string) (Index, error) {
	switch backend {
	case BackendScan, "":
		return NewScanIndex(storeDir), nil
	case BackendBleve:
		return NewBleveIndex(storeDir)
	default:
		return nil, fmt.Errorf("keyword: unknown backend %q (supported: scan, bleve)", backend)
	}
}
