// Package storage provides read-only access to the embedding store maintained by the
// external note indexer.
package storage

import (
	"context"
	"errors"
)

// ErrStoreUnavailable means the embedding store cannot be located, opened, or queried.
// It is fatal to a linking pass.
var ErrStoreUnavailable = errors.New("embedding store unavailable")

const (
	// DefaultStorePath is the store location relative to the vault root.
	DefaultStorePath = ".nexus/cache.db"

	metadataTable = "embedding_metadata"
	chunkTable    = "note_embeddings_vector_chunks00"
)

// EmbeddingStore defines the read operations a linking pass needs.
type EmbeddingStore interface {
	// LoadMetadata returns identifier -> relative note path for every indexed note.
	LoadMetadata(ctx context.Context) (map[int64]string, error)
	// ForEachChunk calls fn for every vector chunk in ascending chunk order.
	ForEachChunk(ctx context.Context, fn func(chunkID int64, blob []byte) error) error
	// IndexedPaths returns the note paths stored under the folder prefix.
	IndexedPaths(ctx context.Context, prefix string) ([]string, error)

	// Stats
	CountRecords(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
