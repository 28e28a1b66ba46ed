package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// flatMagic prefixes every file written by FlatIndex.Save.
var flatMagic = [4]byte{'V', 'F', 'L', 'T'}

const flatVersion uint32 = 1

// flatHeaderSize is the magic plus the version, dimension and count words.
const flatHeaderSize = 16

// FlatIndex is an in-memory exact index using brute-force squared Euclidean distance
// over raw vectors. Suitable for the single-document, hundreds-of-clauses workloads
// this service targets.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewFlatIndex creates an empty exact index for vectors of the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", ErrConfiguration, dimensions)
	}
	return &FlatIndex{
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
	}, nil
}

// Type returns the index type identifier.
func (f *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Dimensions returns the fixed vector dimension.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// Add appends vectors at the next positions. Every vector is checked before any is stored.
func (f *FlatIndex) Add(ctx context.Context, vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dimensions {
			return fmt.Errorf("%w: vector %d has %d values, expected %d", ErrDimensionMismatch, i, len(v), f.dimensions)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range vectors {
		vec := make([]float32, f.dimensions)
		copy(vec, v)
		f.vectors = append(f.vectors, vec)
	}
	return nil
}

// Search returns the k nearest positions, nearest first; ties go to the lower position.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("%w: query has %d values, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}
	results := make([]VectorResult, len(f.vectors))
	for i, vec := range f.vectors {
		results[i] = VectorResult{Position: i, Distance: SquaredL2(query, vec)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Truncate drops every vector at position >= n.
func (f *FlatIndex) Truncate(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative truncate length %d", ErrConfiguration, n)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < len(f.vectors) {
		for i := n; i < len(f.vectors); i++ {
			f.vectors[i] = nil
		}
		f.vectors = f.vectors[:n]
	}
	return nil
}

// Reset drops all vectors.
func (f *FlatIndex) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = make([][]float32, 0)
}

// Save writes the index to path, replacing any existing file. The directory is created
// if needed. Format: magic (4), version (4), dimension (4), count (4), then count*dimension
// little-endian float32 values.
func (f *FlatIndex) Save(path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := f.writeTo(w); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("flush index file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

func (f *FlatIndex) writeTo(w io.Writer) error {
	if _, err := w.Write(flatMagic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	header := []uint32{flatVersion, uint32(f.dimensions), uint32(len(f.vectors))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, vec := range f.vectors {
		if _, err := w.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the in-memory contents with the index stored at path.
// Returns ErrNotFound if the file does not exist and ErrCorrupt if it cannot be decoded
// or was written for a different dimension.
func (f *FlatIndex) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat index file: %w", err)
	}
	r := bufio.NewReader(file)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != flatMagic {
		return fmt.Errorf("%w: bad magic in %s", ErrCorrupt, path)
	}
	header := make([]uint32, 3)
	if err := binary.Read(r, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("%w: read header: %v", ErrCorrupt, err)
	}
	version, dim, n := header[0], header[1], header[2]
	if version != flatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, version)
	}
	if int(dim) != f.dimensions {
		return fmt.Errorf("%w: file has dimension %d, index expects %d", ErrCorrupt, dim, f.dimensions)
	}
	// the header count is only trusted once it matches the file length
	if want := flatHeaderSize + int64(n)*int64(dim)*4; info.Size() != want {
		return fmt.Errorf("%w: header declares %d vectors (%d bytes) but file has %d bytes",
			ErrCorrupt, n, want, info.Size())
	}
	vectors := make([][]float32, 0, n)
	buf := make([]byte, f.dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("%w: read vector %d: %v", ErrCorrupt, i, err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after %d vectors", ErrCorrupt, n)
	}
	f.mu.Lock()
	f.vectors = vectors
	f.mu.Unlock()
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Size returns the number of vectors in the index.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error {
	return nil
}
