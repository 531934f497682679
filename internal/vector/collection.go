package vector

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Source is the read side of an embedding store.
type Source interface {
	LoadMetadata(ctx context.Context) (map[int64]string, error)
	ForEachChunk(ctx context.Context, fn func(chunkID int64, blob []byte) error) error
}

// Collection is the immutable result of reading an embedding store: identifier→path for
// every metadata row and identifier→vector for every row whose vector decoded cleanly.
// Every vector in a Collection has a path.
type Collection struct {
	dimensions int
	paths      map[int64]string
	vectors    map[int64][]float32
	ids        []int64 // ids with vectors, ascending
}

// newCollection builds a Collection from already decoded data. Vectors without a path are dropped.
// Inputs are copied.
func newCollection(dimensions int, paths map[int64]string, vectors map[int64][]float32) *Collection {
	c := &Collection{
		dimensions: dimensions,
		paths:      make(map[int64]string, len(paths)),
		vectors:    make(map[int64][]float32, len(vectors)),
	}
	for id, p := range paths {
		c.paths[id] = p
	}
	for id, v := range vectors {
		if _, ok := c.paths[id]; !ok {
			continue
		}
		c.vectors[id] = append([]float32(nil), v...)
		c.ids = append(c.ids, id)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return c
}

// Dimensions returns the vector length.
func (c *Collection) Dimensions() int { return c.dimensions }

// Len returns the number of records with a vector.
func (c *Collection) Len() int { return len(c.ids) }

// Records returns the number of metadata rows, with or without a vector.
func (c *Collection) Records() int { return len(c.paths) }

// IDs returns the identifiers that have a vector, ascending.
func (c *Collection) IDs() []int64 { return append([]int64(nil), c.ids...) }

// Path returns the note path for id.
func (c *Collection) Path(id int64) (string, bool) {
	p, ok := c.paths[id]
	return p, ok
}

// Vector returns a copy of the vector for id.
func (c *Collection) Vector(id int64) ([]float32, bool) {
	v, ok := c.vectors[id]
	if !ok {
		return nil, false
	}
	return append([]float32(nil), v...), true
}

// ReaderOptions configures ReadCollection.
type ReaderOptions struct {
	Dimensions    int
	ChunkCapacity int
	// StrictChunks treats a blob whose length is not a whole number of vectors as corrupt.
	// When false the trailing bytes are ignored.
	StrictChunks bool
	Logger       *zap.Logger
}

func (o *ReaderOptions) applyDefaults() {
	if o.Dimensions <= 0 {
		o.Dimensions = DefaultDimensions
	}
	if o.ChunkCapacity <= 0 {
		o.ChunkCapacity = DefaultChunkCapacity
	}
}

// ReadCollection reads all metadata and vector chunks from src. Chunks that fail to decode are
// skipped and reported as *ChunkError values; only a failure to query src returns an error.
// Chunk bytes whose computed identifier has no metadata row are ignored.
func ReadCollection(ctx context.Context, src Source, opts ReaderOptions) (*Collection, []*ChunkError, error) {
	opts.applyDefaults()
	paths, err := src.LoadMetadata(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load metadata: %w", err)
	}
	if opts.Logger != nil {
		opts.Logger.Debug("metadata loaded", zap.Int("records", len(paths)))
	}

	c := &Collection{
		dimensions: opts.Dimensions,
		paths:      paths,
		vectors:    make(map[int64][]float32, len(paths)),
	}
	var skipped []*ChunkError
	err = src.ForEachChunk(ctx, func(chunkID int64, blob []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.StrictChunks {
			if err := CheckChunkLength(blob, opts.Dimensions); err != nil {
				skipped = append(skipped, skipChunk(opts.Logger, chunkID, err))
				return nil
			}
		}
		referenced := func(local int) bool {
			_, ok := paths[GlobalID(chunkID, local, opts.ChunkCapacity)]
			return ok
		}
		vecs, err := DecodeChunk(blob, opts.Dimensions, referenced)
		if err != nil {
			skipped = append(skipped, skipChunk(opts.Logger, chunkID, err))
			return nil
		}
		for local, vec := range vecs {
			if vec == nil {
				continue
			}
			id := GlobalID(chunkID, local, opts.ChunkCapacity)
			c.vectors[id] = vec
			c.ids = append(c.ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("read vector chunks: %w", err)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	c.ids = dedupe(c.ids)
	if opts.Logger != nil {
		opts.Logger.Debug("vectors loaded", zap.Int("vectors", len(c.ids)), zap.Int("skipped_chunks", len(skipped)))
	}
	return c, skipped, nil
}

func skipChunk(logger *zap.Logger, chunkID int64, err error) *ChunkError {
	if !errors.Is(err, ErrCorruptChunk) {
		err = fmt.Errorf("%w: %v", ErrCorruptChunk, err)
	}
	if logger != nil {
		logger.Warn("skipping corrupt vector chunk", zap.Int64("chunk_id", chunkID), zap.Error(err))
	}
	return &ChunkError{ChunkID: chunkID, Err: err}
}

// dedupe removes adjacent duplicates from a sorted slice.
func dedupe(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
