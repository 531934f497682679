package storage

import (
	"context"
	"fmt"

	"github.com/hyperjump/notelink/internal/models"
)

// Inspect reports on the store for root. A missing store is not an error: the status has
// Present set to false.
func Inspect(ctx context.Context, root, storePath, prefix string) (*models.StoreStatus, error) {
	dbPath := Locate(root, storePath)
	st := &models.StoreStatus{Root: root, StorePath: dbPath, FilterPrefix: prefix}
	if !Exists(dbPath) {
		return st, nil
	}
	st.Present = true
	usage, err := DiskUsageBytes(dbPath)
	if err != nil {
		return nil, fmt.Errorf("disk usage: %w", err)
	}
	st.DiskUsageBytes = usage

	store, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if st.Records, err = store.CountRecords(ctx); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	if st.Chunks, err = store.CountChunks(ctx); err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if prefix != "" {
		paths, err := store.IndexedPaths(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("indexed paths: %w", err)
		}
		st.PrefixRecords = int64(len(paths))
	}
	return st, nil
}
