package embeddings

import (
	"fmt"
	"os"
	"unsafe"

	mmap "github.com/blevesearch/mmap-go"
)

// MappedFile is a read-only collection backed by a memory-mapped view of
// embeddings.bin. It returns the same vectors as ReadFile without loading
// the whole file into process memory.
//
// The mapping keeps the backing file open; callers must Close before the
// file can be safely rewritten on some platforms. Concurrent readers of a
// closed, fully written file are safe.
type MappedFile struct {
	Dimensions int
	Count      int
	ModelHash  uint32

	data mmap.MMap
	f    *os.File
}

// hostLittleEndian reports whether float32 rows can be viewed in place.
// The on-disk layout is little-endian; on other hosts rows are decoded.
var hostLittleEndian = func() bool {
	var x uint16 = 1
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// OpenMapped maps the collection at path. The returned MappedFile must be
// closed on every exit path, including after errors from its accessors.
func OpenMapped(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("embeddings: open %s: %w", path, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("embeddings: mmap %s: %w", path, err)
	}
	if len(data) < HeaderSize {
		_ = data.Unmap()
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s (file shorter than header)", ErrTruncated, path)
	}
	dims, count, mhash, err := parseHeader(data[:HeaderSize], path)
	if err != nil {
		_ = data.Unmap()
		_ = f.Close()
		return nil, err
	}
	if len(data) < HeaderSize+count*dims*4 {
		_ = data.Unmap()
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s (%d bytes, need %d)", ErrTruncated, path, len(data), HeaderSize+count*dims*4)
	}
	return &MappedFile{
		Dimensions: dims,
		Count:      count,
		ModelHash:  mhash,
		data:       data,
		f:          f,
	}, nil
}

// Row returns vector i. On little-endian hosts this is a zero-copy view
// into the mapping, valid only until Close.
func (m *MappedFile) Row(i int) []float32 {
	off := HeaderSize + i*m.Dimensions*4
	b := m.data[off : off+m.Dimensions*4]
	if hostLittleEndian {
		return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), m.Dimensions)
	}
	return decodeRow(b, m.Dimensions)
}

// Vectors returns all rows. Views share the mapping's lifetime.
func (m *MappedFile) Vectors() [][]float32 {
	vectors := make([][]float32, m.Count)
	for i := range vectors {
		vectors[i] = m.Row(i)
	}
	return vectors
}

// Close unmaps the file and releases the descriptor.
func (m *MappedFile) Close() error {
	unmapErr := m.data.Unmap()
	closeErr := m.f.Close()
	if unmapErr != nil {
		return fmt.Errorf("embeddings: unmap: %w", unmapErr)
	}
	return closeErr
}
