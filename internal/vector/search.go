package vector

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hyperjump/ragdag/internal/embeddings"
)

// Result is one similarity hit: a chunk path and its cosine score.
type Result struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// SearchOptions scope a store scan.
type SearchOptions struct {
	// Domain restricts the scan to the single collection at storeDir/Domain.
	// Empty means every immediate subdirectory holding an embeddings.bin.
	Domain string
	// TopK bounds the result length; values <= 0 default to 10.
	TopK int
	// CandidatePaths, when non-nil, is a hard filter: only rows whose
	// manifest path is in the set are scored at all.
	CandidatePaths []string
}

// SearchStore scans the collections under storeDir and returns the top-K
// chunks by cosine similarity to query, sorted descending. Ties keep scan
// order. A domain with no embeddings yet is a normal, empty case: missing
// collections are skipped, and no match returns an empty slice, not an error.
func SearchStore(storeDir string, query []float32, opts SearchOptions) ([]Result, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}

	dirs, err := collectionDirs(storeDir, opts.Domain)
	if err != nil {
		return nil, err
	}

	var candidates map[string]struct{}
	if opts.CandidatePaths != nil {
		candidates = make(map[string]struct{}, len(opts.CandidatePaths))
		for _, p := range opts.CandidatePaths {
			candidates[p] = struct{}{}
		}
	}

	var pool []Result
	for _, dir := range dirs {
		results, err := scanCollection(dir, query, candidates)
		if err != nil {
			return nil, err
		}
		pool = append(pool, results...)
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })
	if len(pool) > topK {
		pool = pool[:topK]
	}
	return pool, nil
}

// collectionDirs lists the collection directories to scan, in a fixed order.
func collectionDirs(storeDir, domain string) ([]string, error) {
	if domain != "" {
		dir := filepath.Join(storeDir, domain)
		if _, err := os.Stat(dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("vector: stat domain %s: %w", domain, err)
		}
		return []string{dir}, nil
	}

	entries, err := os.ReadDir(storeDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("vector: read store dir: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(storeDir, e.Name())
		if _, err := os.Stat(filepath.Join(dir, embeddings.BinFilename)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// scanCollection scores the query against one collection via the mapped
// reader. A missing binary file or manifest skips the collection.
func scanCollection(dir string, query []float32, candidates map[string]struct{}) ([]Result, error) {
	binPath := filepath.Join(dir, embeddings.BinFilename)
	manifestPath := filepath.Join(dir, embeddings.ManifestFilename)

	mf, err := embeddings.OpenMapped(binPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer mf.Close()

	entries, err := embeddings.ReadManifest(manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if mf.Count == 0 {
		return nil, nil
	}

	var results []Result
	for i, entry := range entries {
		if i >= mf.Count {
			break
		}
		if candidates != nil {
			if _, ok := candidates[entry.Path]; !ok {
				continue
			}
		}
		results = append(results, Result{
			Path:  entry.Path,
			Score: CosineSimilarity(query, mf.Row(i)),
		})
	}
	return results, nil
}
