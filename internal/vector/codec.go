package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultDimensions is the vector length produced by the external embedding model.
	DefaultDimensions = 384
	// DefaultChunkCapacity is how many vectors the indexer packs into one chunk row.
	DefaultChunkCapacity = 1024

	bytesPerComponent = 4
)

// ErrCorruptChunk marks a vector chunk that could not be decoded. The reader skips
// such chunks and continues.
var ErrCorruptChunk = errors.New("corrupt vector chunk")

// ChunkError describes a chunk that was skipped while reading the store.
type ChunkError struct {
	ChunkID int64
	Err     error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.ChunkID, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// VectorBytes returns the serialized size of one vector of the given dimension.
func VectorBytes(dimensions int) int {
	return dimensions * bytesPerComponent
}

// DecodeChunk decodes a packed blob of little-endian float32 vectors. The result has exactly
// floor(len(blob)/VectorBytes(dimensions)) slots; trailing remainder bytes are ignored.
// When keep is non-nil only slots it accepts are decoded and the others stay nil, so bytes in
// unreferenced slots are never inspected. A decoded component that is NaN or Inf makes the
// whole chunk corrupt.
func DecodeChunk(blob []byte, dimensions int, keep func(local int) bool) ([][]float32, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	size := VectorBytes(dimensions)
	n := len(blob) / size
	out := make([][]float32, n)
	for i := 0; i < n; i++ {
		if keep != nil && !keep(i) {
			continue
		}
		vec, err := decodeVector(blob[i*size:(i+1)*size], dimensions)
		if err != nil {
			return nil, fmt.Errorf("%w: vector %d: %v", ErrCorruptChunk, i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// CheckChunkLength reports whether blob holds a whole number of vectors.
func CheckChunkLength(blob []byte, dimensions int) error {
	size := VectorBytes(dimensions)
	if size <= 0 {
		return fmt.Errorf("dimensions must be positive")
	}
	if rem := len(blob) % size; rem != 0 {
		return fmt.Errorf("%w: blob length %d is not a multiple of %d (%d trailing bytes)", ErrCorruptChunk, len(blob), size, rem)
	}
	return nil
}

func decodeVector(b []byte, dimensions int) ([]float32, error) {
	vec := make([]float32, dimensions)
	for j := range vec {
		v := math.Float32frombits(binary.LittleEndian.Uint32(b[j*bytesPerComponent:]))
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("component %d is not finite", j)
		}
		vec[j] = v
	}
	return vec, nil
}

// EncodeChunk packs vectors back to back as little-endian float32, the layout DecodeChunk reads.
func EncodeChunk(vectors [][]float32) []byte {
	var total int
	for _, v := range vectors {
		total += len(v)
	}
	out := make([]byte, 0, total*bytesPerComponent)
	buf := make([]byte, bytesPerComponent)
	for _, v := range vectors {
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
			out = append(out, buf...)
		}
	}
	return out
}

// GlobalID maps a vector's position inside a chunk to the embedding record identifier.
// Chunk identifiers start at 1 and local indexes at 0; record identifiers start at 1.
func GlobalID(chunkID int64, local, capacity int) int64 {
	return (chunkID-1)*int64(capacity) + int64(local) + 1
}
