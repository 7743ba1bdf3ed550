package embeddings

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// manifestHeader is the comment line emitted at the top of manifest.tsv.
const manifestHeader = "# relative_chunk_path\tindex\tbyte_offset\tdimensions"

// ManifestEntry is one row of manifest.tsv, describing one vector.
type ManifestEntry struct {
	Path       string
	Index      int
	ByteOffset int64
	Dimensions int
}

// VectorOffset returns the absolute byte offset of row index in embeddings.bin.
func VectorOffset(index, dimensions int) int64 {
	return int64(HeaderSize) + int64(index)*int64(dimensions)*4
}

// WriteManifest writes one row per chunk path, in order, with byte offsets
// derived from the row index. Paths containing tabs or newlines are
// rejected with ErrBadPath since the format has no escaping.
// Like WriteFile, the write is a full atomic overwrite.
func WriteManifest(path string, chunkPaths []string, dimensions int) error {
	for _, p := range chunkPaths {
		if strings.ContainsAny(p, "\t\n\r") {
			return fmt.Errorf("%w: %q", ErrBadPath, p)
		}
	}
	return writeAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		fmt.Fprintln(bw, manifestHeader)
		for i, p := range chunkPaths {
			fmt.Fprintf(bw, "%s\t%d\t%d\t%d\n", p, i, VectorOffset(i, dimensions), dimensions)
		}
		return bw.Flush()
	})
}

// ReadManifest returns the ordered manifest entries. Blank lines and lines
// starting with '#' are skipped anywhere in the file; short rows are ignored.
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("embeddings: open %s: %w", path, err)
	}
	defer f.Close()

	var entries []ManifestEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}
		index, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("embeddings: manifest %s: bad index %q", path, parts[1])
		}
		offset, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("embeddings: manifest %s: bad byte offset %q", path, parts[2])
		}
		dims, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("embeddings: manifest %s: bad dimensions %q", path, parts[3])
		}
		entries = append(entries, ManifestEntry{
			Path:       parts[0],
			Index:      index,
			ByteOffset: offset,
			Dimensions: dims,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("embeddings: read %s: %w", path, err)
	}
	return entries, nil
}

// ManifestPaths returns the path column, in row order. Used for dedup lookups.
func ManifestPaths(entries []ManifestEntry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
