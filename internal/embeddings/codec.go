// Package embeddings implements the packed binary embedding store: an
// embeddings.bin file (32-byte header followed by little-endian float32
// vectors, row-major) plus a manifest.tsv sidecar mapping each row to a
// chunk path. A (embeddings.bin, manifest.tsv) pair is one collection.
package embeddings

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

const (
	// Magic is the file identifier "RAGD" in the first header word.
	Magic uint32 = 0x52414744
	// FormatVersion is the only on-disk format version understood.
	FormatVersion uint32 = 1
	// HeaderSize is the fixed byte length of the file header.
	HeaderSize = 32

	// BinFilename and ManifestFilename are the per-collection file names.
	BinFilename      = "embeddings.bin"
	ManifestFilename = "manifest.tsv"
)

var (
	// ErrInvalidMagic means the file is not an embedding store (or is corrupt).
	ErrInvalidMagic = errors.New("embeddings: invalid magic")
	// ErrUnsupportedVersion means the header carries a format version other than 1.
	ErrUnsupportedVersion = errors.New("embeddings: unsupported format version")
	// ErrInvalidHeader means the header fields are structurally invalid:
	// zero dimensions, or a count*dimensions size that cannot exist.
	ErrInvalidHeader = errors.New("embeddings: invalid header")
	// ErrTruncated means the vector region is shorter than count*dimensions*4 bytes.
	ErrTruncated = errors.New("embeddings: truncated vector data")
	// ErrBadPath means a chunk path contains a tab or newline and cannot be
	// represented in the manifest.
	ErrBadPath = errors.New("embeddings: chunk path contains tab or newline")
)

// ModelHash returns the first 4 bytes of SHA-256(modelName) as a
// little-endian uint32. Informational tag only, never verified.
func ModelHash(modelName string) uint32 {
	sum := sha256.Sum256([]byte(modelName))
	return binary.LittleEndian.Uint32(sum[:4])
}

// File holds a fully decoded collection.
type File struct {
	Vectors    [][]float32
	Dimensions int
	Count      int
	ModelHash  uint32
}

// WriteFile serializes vectors to path as a single full overwrite.
// The write goes to a temp file in the same directory and is renamed into
// place, so a concurrent reader never observes a partially written file.
// Every vector must have length dimensions.
func WriteFile(path string, vectors [][]float32, dimensions int, modelName string) error {
	if dimensions <= 0 {
		return fmt.Errorf("embeddings: dimensions must be positive, got %d", dimensions)
	}
	for i, v := range vectors {
		if len(v) != dimensions {
			return fmt.Errorf("embeddings: vector %d has %d dimensions, expected %d", i, len(v), dimensions)
		}
	}
	return writeAtomic(path, func(w io.Writer) error {
		hdr := make([]byte, HeaderSize)
		binary.LittleEndian.PutUint32(hdr[0:4], Magic)
		binary.LittleEndian.PutUint32(hdr[4:8], FormatVersion)
		binary.LittleEndian.PutUint32(hdr[8:12], uint32(dimensions))
		binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(vectors)))
		binary.LittleEndian.PutUint32(hdr[16:20], ModelHash(modelName))
		// bytes 20..31 reserved, zero
		if _, err := w.Write(hdr); err != nil {
			return err
		}
		row := make([]byte, dimensions*4)
		for _, v := range vectors {
			for i, f := range v {
				binary.LittleEndian.PutUint32(row[i*4:], math.Float32bits(f))
			}
			if _, err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadFile reads a collection fully into memory.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("embeddings: open %s: %w", path, err)
	}
	defer f.Close()

	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, hdr); err != nil {
		return nil, fmt.Errorf("embeddings: read header of %s: %w", path, err)
	}
	dims, count, mhash, err := parseHeader(hdr, path)
	if err != nil {
		return nil, err
	}
	// Check the size up front so a corrupt count cannot force a huge
	// allocation before ReadFull fails.
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("embeddings: stat %s: %w", path, err)
	}
	if need := int64(HeaderSize) + int64(count)*int64(dims)*4; fi.Size() < need {
		return nil, fmt.Errorf("%w: %s (%d bytes, need %d)", ErrTruncated, path, fi.Size(), need)
	}

	data := make([]byte, count*dims*4)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTruncated, path, err)
	}
	vectors := make([][]float32, count)
	for i := 0; i < count; i++ {
		vectors[i] = decodeRow(data[i*dims*4:(i+1)*dims*4], dims)
	}
	return &File{
		Vectors:    vectors,
		Dimensions: dims,
		Count:      count,
		ModelHash:  mhash,
	}, nil
}

func parseHeader(hdr []byte, path string) (dims, count int, mhash uint32, err error) {
	if got := binary.LittleEndian.Uint32(hdr[0:4]); got != Magic {
		return 0, 0, 0, fmt.Errorf("%w: %s (magic=0x%08x)", ErrInvalidMagic, path, got)
	}
	if v := binary.LittleEndian.Uint32(hdr[4:8]); v != FormatVersion {
		return 0, 0, 0, fmt.Errorf("%w: %s (version=%d)", ErrUnsupportedVersion, path, v)
	}
	rawDims := binary.LittleEndian.Uint32(hdr[8:12])
	rawCount := binary.LittleEndian.Uint32(hdr[12:16])
	if rawDims == 0 {
		return 0, 0, 0, fmt.Errorf("%w: %s (dimensions=0)", ErrInvalidHeader, path)
	}
	// Reject counts whose vector region size would overflow int, so
	// HeaderSize + count*dims*4 is safe arithmetic for every caller.
	if uint64(rawCount) > (uint64(math.MaxInt)-HeaderSize)/(uint64(rawDims)*4) {
		return 0, 0, 0, fmt.Errorf("%w: %s (count=%d, dimensions=%d)", ErrInvalidHeader, path, rawCount, rawDims)
	}
	mhash = binary.LittleEndian.Uint32(hdr[16:20])
	return int(rawDims), int(rawCount), mhash, nil
}

func decodeRow(b []byte, dims int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// writeAtomic writes via a temp file in the same directory and renames it
// into place on success.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("embeddings: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("embeddings: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("embeddings: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("embeddings: rename into %s: %w", path, err)
	}
	return nil
}
