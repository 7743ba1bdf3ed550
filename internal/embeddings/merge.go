package embeddings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// MergeStats reports what a Merge wrote, plus conditions the caller may
// want to log: a failed load of the existing pair (treated as absent) and
// a model-hash change across an append.
type MergeStats struct {
	// Written is the number of vectors in the final file (0 for a no-op).
	Written int
	// Replaced is the number of existing entries superseded by new paths.
	Replaced int
	// LoadErr is set when append found an existing pair but could not load
	// it; the merge proceeded as a fresh write. Never fatal to the merge.
	LoadErr error
	// ModelChanged is set when the existing header's model hash differs
	// from the one being written. The merge is not rejected; the header
	// ends up reflecting only the newest model name.
	ModelChanged bool
}

// Merge writes vectors and chunkPaths into the collection at dir
// (embeddings.bin + manifest.tsv), creating dir if needed.
//
// With appendExisting false, or when no existing pair is present, the new
// data is written as-is. Otherwise the existing entries are loaded, every
// entry whose path appears in chunkPaths is dropped (re-embedding replaces
// rather than duplicates), and survivors are written first, in their
// original order, followed by the new entries in caller order.
//
// An empty combined set is a no-op: no file is created or touched.
func Merge(dir string, vectors [][]float32, chunkPaths []string, dimensions int, modelName string, appendExisting bool) (*MergeStats, error) {
	if len(vectors) != len(chunkPaths) {
		return nil, fmt.Errorf("embeddings: %d vectors but %d chunk paths", len(vectors), len(chunkPaths))
	}
	stats := &MergeStats{}

	binPath := filepath.Join(dir, BinFilename)
	manifestPath := filepath.Join(dir, ManifestFilename)

	var existingVectors [][]float32
	var existingPaths []string

	if appendExisting && fileExists(binPath) && fileExists(manifestPath) {
		file, ferr := ReadFile(binPath)
		entries, merr := ReadManifest(manifestPath)
		switch {
		case ferr != nil:
			stats.LoadErr = ferr
		case merr != nil:
			stats.LoadErr = merr
		default:
			if file.ModelHash != ModelHash(modelName) {
				stats.ModelChanged = true
			}
			newSet := make(map[string]struct{}, len(chunkPaths))
			for _, p := range chunkPaths {
				newSet[p] = struct{}{}
			}
			paths := ManifestPaths(entries)
			for i, v := range file.Vectors {
				if i >= len(paths) {
					break
				}
				if _, replaced := newSet[paths[i]]; replaced {
					stats.Replaced++
					continue
				}
				existingVectors = append(existingVectors, v)
				existingPaths = append(existingPaths, paths[i])
			}
		}
	}

	allVectors := append(existingVectors, vectors...)
	allPaths := append(existingPaths, chunkPaths...)
	if len(allVectors) == 0 {
		return stats, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("embeddings: create collection dir: %w", err)
	}
	if err := WriteFile(binPath, allVectors, dimensions, modelName); err != nil {
		return nil, err
	}
	if err := WriteManifest(manifestPath, allPaths, dimensions); err != nil {
		return nil, err
	}
	stats.Written = len(allVectors)
	return stats, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
