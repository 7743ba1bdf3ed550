package graph

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/ragdag/internal/embeddings"
	"github.com/hyperjump/ragdag/internal/vector"
)

// RelateReport summarizes one auto-relate pass.
type RelateReport struct {
	Pairs   int `json:"pairs"`   // pairs scored
	Created int `json:"created"` // related_to edges written
}

// Relate scans the embedding collections under the store (or one domain)
// and links every chunk pair whose cosine similarity meets threshold with
// a related_to edge annotated with the similarity. Pairs already linked
// in either direction are left alone, so repeated runs are idempotent.
func (g *Graph) Relate(domain string, threshold float64) (*RelateReport, error) {
	existing, err := g.Load()
	if err != nil {
		return nil, err
	}
	linked := make(map[string]bool, len(existing))
	for _, e := range existing {
		if e.Type == EdgeRelatedTo {
			linked[pairKey(e.Source, e.Target)] = true
		}
	}

	dirs, err := g.relateDirs(domain)
	if err != nil {
		return nil, err
	}

	report := &RelateReport{}
	var batch []Edge
	for _, dir := range dirs {
		mf, err := embeddings.OpenMapped(filepath.Join(dir, embeddings.BinFilename))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		entries, err := embeddings.ReadManifest(filepath.Join(dir, embeddings.ManifestFilename))
		if err != nil {
			mf.Close()
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}

		n := len(entries)
		if n > mf.Count {
			n = mf.Count
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				report.Pairs++
				if linked[pairKey(entries[i].Path, entries[j].Path)] {
					continue
				}
				sim := vector.CosineSimilarity(mf.Row(i), mf.Row(j))
				if sim < threshold {
					continue
				}
				batch = append(batch, Edge{
					Source:   entries[i].Path,
					Target:   entries[j].Path,
					Type:     EdgeRelatedTo,
					Metadata: fmt.Sprintf("similarity=%.4f", sim),
				})
				linked[pairKey(entries[i].Path, entries[j].Path)] = true
				report.Created++
			}
		}
		mf.Close()
	}

	if err := g.Append(batch...); err != nil {
		return nil, err
	}
	return report, nil
}

// relateDirs lists the collection directories to relate over.
func (g *Graph) relateDirs(domain string) ([]string, error) {
	if domain != "" {
		return []string{filepath.Join(g.storeDir, domain)}, nil
	}
	entries, err := os.ReadDir(g.storeDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("graph: read store dir: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(g.storeDir, e.Name())
		if _, err := os.Stat(filepath.Join(dir, embeddings.BinFilename)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// pairKey is direction-insensitive: (a,b) and (b,a) share one key.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}
