// Package storagetest builds embedding store databases laid out like the external indexer's cache,
// for use in tests.
package storagetest

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/notelink/internal/vector"
)

// Store is a writable embedding store fixture.
type Store struct {
	t    testing.TB
	db   *sql.DB
	Path string
}

// New creates an empty store at path with the indexer's schema. Parent directories are created.
func New(t testing.TB, path string) *Store {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS embedding_metadata (
		notePath TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS note_embeddings_vector_chunks00 (
		rowid INTEGER PRIMARY KEY,
		vectors BLOB NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		t.Fatal(err)
	}
	s := &Store{t: t, db: db, Path: path}
	t.Cleanup(func() { _ = db.Close() })
	return s
}

// AddNote inserts a metadata row with an explicit identifier.
func (s *Store) AddNote(id int64, notePath string) {
	s.t.Helper()
	if _, err := s.db.Exec(`INSERT INTO embedding_metadata (rowid, notePath) VALUES (?, ?)`, id, notePath); err != nil {
		s.t.Fatal(err)
	}
}

// DeleteNote removes a metadata row, leaving its vector bytes in place like a soft delete.
func (s *Store) DeleteNote(id int64) {
	s.t.Helper()
	if _, err := s.db.Exec(`DELETE FROM embedding_metadata WHERE rowid = ?`, id); err != nil {
		s.t.Fatal(err)
	}
}

// PutChunk writes vectors packed into chunk chunkID, replacing any existing chunk.
func (s *Store) PutChunk(chunkID int64, vectors [][]float32) {
	s.t.Helper()
	s.PutRawChunk(chunkID, vector.EncodeChunk(vectors))
}

// PutRawChunk writes an arbitrary blob as chunk chunkID.
func (s *Store) PutRawChunk(chunkID int64, blob []byte) {
	s.t.Helper()
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO note_embeddings_vector_chunks00 (rowid, vectors) VALUES (?, ?)`, chunkID, blob); err != nil {
		s.t.Fatal(err)
	}
}

// Close closes the fixture's write connection.
func (s *Store) Close() {
	_ = s.db.Close()
}

// Vector returns a vector of the given dimension with value v at index axis.
func Vector(dims, axis int, v float32) []float32 {
	out := make([]float32, dims)
	out[axis] = v
	return out
}
