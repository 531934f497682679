package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements EmbeddingStore over the indexer's SQLite cache. The database is
// opened read-only; this package never writes to it.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens the store at dbPath read-only. It returns an error wrapping ErrStoreUnavailable
// if the file does not exist or cannot be opened.
func Open(dbPath string) (*SQLiteStore, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrStoreUnavailable, dbPath)
	}
	db, err := sql.Open("sqlite3", readOnlyDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStoreUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStoreUnavailable, err)
	}
	return &SQLiteStore{db: db}, nil
}

// readOnlyDSN builds a SQLite URI for path so that spaces and '?' in vault paths survive.
func readOnlyDSN(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}
	return u.String()
}

// LoadMetadata returns identifier -> note path for every metadata row.
func (s *SQLiteStore) LoadMetadata(ctx context.Context) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rowid, notePath FROM `+metadataTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[int64]string)
	for rows.Next() {
		var id int64
		var notePath sql.NullString
		if err := rows.Scan(&id, &notePath); err != nil {
			return nil, err
		}
		if !notePath.Valid || notePath.String == "" {
			continue
		}
		paths[id] = notePath.String
	}
	return paths, rows.Err()
}

// ForEachChunk streams vector chunks ordered by chunk identifier. A non-nil error from fn
// stops iteration and is returned.
func (s *SQLiteStore) ForEachChunk(ctx context.Context, fn func(chunkID int64, blob []byte) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT rowid, vectors FROM `+chunkTable+` ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}
		if err := fn(id, blob); err != nil {
			return err
		}
	}
	return rows.Err()
}

// IndexedPaths returns the paths of notes stored inside the folder prefix, e.g. "unprocessed"
// matches "unprocessed/a.md" but not "unprocessed-old/a.md".
func (s *SQLiteStore) IndexedPaths(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeLike(strings.TrimSuffix(prefix, "/")) + "/%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT notePath FROM `+metadataTable+` WHERE notePath LIKE ? ESCAPE '\'`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p sql.NullString
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		if p.Valid {
			paths = append(paths, p.String)
		}
	}
	return paths, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CountRecords returns the number of metadata rows.
func (s *SQLiteStore) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+metadataTable).Scan(&count)
	return count, err
}

// CountChunks returns the number of vector chunk rows.
func (s *SQLiteStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+chunkTable).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
