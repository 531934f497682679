// Package vector reads packed embedding vectors and ranks notes by cosine similarity.
package vector

import "context"

// Index stores unit vectors and answers nearest-neighbour queries. The brute-force
// MemoryIndex is exact; an approximate index can be dropped in behind this interface.
type Index interface {
	Add(ctx context.Context, ids []int64, vectors [][]float32) error
	Search(ctx context.Context, query []float32, opts SearchOptions) ([]*Result, error)
	Size() int
	Type() string
	Close() error
}

// SearchOptions bounds a Search call.
type SearchOptions struct {
	K         int     // maximum results; <= 0 means no results
	Threshold float64 // minimum score, inclusive
	Exclude   int64   // identifier to skip (the query itself); 0 skips nothing
}

// Result is a single vector search hit.
type Result struct {
	ID    int64
	Score float64 // inner product; cosine similarity for normalized vectors
}
