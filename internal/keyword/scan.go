package keyword

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanIndex scores chunks by scanning their files on every search: for
// each chunk, score = total query-term occurrences divided by content
// length. No state, no index directory; the chunk files are the index.
type ScanIndex struct {
	storeDir string
}

// NewScanIndex returns a scan backend over the store at storeDir.
func NewScanIndex(storeDir string) *ScanIndex {
	return &ScanIndex{storeDir: storeDir}
}

// Add is a no-op: the scan backend always reads current chunk files.
func (s *ScanIndex) Add(ctx context.Context, chunks []Chunk) error { return nil }

// Remove is a no-op for the same reason.
func (s *ScanIndex) Remove(ctx context.Context, paths []string) error { return nil }

// Search walks the chunk files under the store (or one domain) and scores
// each by term frequency over content length. Terms shorter than two
// characters are ignored.
func (s *ScanIndex) Search(ctx context.Context, query, domain string, limit int) ([]Result, error) {
	root := s.storeDir
	if domain != "" {
		root = filepath.Join(s.storeDir, domain)
	}

	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) >= 2 {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}

	var results []Result
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			// Skip internal store directories like .keyword.
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != ".txt" || strings.HasPrefix(d.Name(), "_") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil // unreadable chunk is skipped, not fatal
		}
		content := strings.ToLower(string(raw))
		if len(content) == 0 {
			return nil
		}
		matches := 0
		for _, term := range terms {
			matches += strings.Count(content, term)
		}
		if matches == 0 {
			return nil
		}
		rel, err := filepath.Rel(s.storeDir, path)
		if err != nil {
			return nil
		}
		results = append(results, Result{
			Path:  filepath.ToSlash(rel),
			Score: float64(matches) / float64(len(content)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close is a no-op.
func (s *ScanIndex) Close() error { return nil }
