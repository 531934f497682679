// Package linking runs linking passes: it reads the embedding store once, ranks related notes
// for every query note, and appends a related-notes section to each qualifying note file.
package linking

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/notelink/internal/linker"
	"github.com/hyperjump/notelink/internal/models"
	"github.com/hyperjump/notelink/internal/storage"
	"github.com/hyperjump/notelink/internal/vector"
	"github.com/hyperjump/notelink/internal/waiter"
	"github.com/hyperjump/notelink/pkg/utils"
)

// ErrMissingFile means a query note is indexed but its file is not on disk.
var ErrMissingFile = errors.New("note file missing")

// Run performs one linking pass over opts.Root and returns its summary.
// Only store unavailability aborts the pass; in that case the returned error wraps
// storage.ErrStoreUnavailable and no note file is touched. Per-note failures are counted in
// the summary. A waiter timeout sets IndexingTimedOut and the pass continues.
func Run(ctx context.Context, opts Options) (*models.PassSummary, error) {
	opts.applyDefaults()
	start := time.Now()
	summary := &models.PassSummary{RunID: uuid.New().String(), Root: opts.Root}
	logger := utils.NopIfNil(opts.Logger).With(zap.String("run_id", summary.RunID))

	collection, err := load(ctx, opts, summary, logger)
	if err != nil {
		summary.Finish(time.Since(start))
		logger.Error("linking pass aborted", zap.Error(err))
		return summary, err
	}

	if err := link(ctx, opts, collection, summary, logger); err != nil {
		summary.Finish(time.Since(start))
		return summary, err
	}

	summary.Finish(time.Since(start))
	logger.Info("linking pass finished",
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped()),
		zap.Int("errored", summary.Errored()),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

// load opens the store, optionally waits for the indexer, and reads the whole collection.
// The store is closed before it returns.
func load(ctx context.Context, opts Options, summary *models.PassSummary, logger *zap.Logger) (*vector.Collection, error) {
	dbPath := storage.Locate(opts.Root, opts.StorePath)
	if !storage.Exists(dbPath) {
		return nil, fmt.Errorf("%w: %s not found", storage.ErrStoreUnavailable, dbPath)
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close embedding store", zap.Error(err))
		}
	}()
	logger.Debug("embedding store opened", zap.String("path", dbPath))

	if len(opts.WaitFor) > 0 {
		w := waiter.New(store,
			waiter.WithClock(opts.Clock),
			waiter.WithInterval(opts.PollInterval),
			waiter.WithLogger(logger))
		res, err := w.Wait(ctx, opts.WaitFor, strings.TrimSuffix(opts.FilterPrefix, "/"), opts.Timeout)
		summary.IndexedExpected = res.Expected
		summary.IndexedFound = res.Found
		switch {
		case errors.Is(err, waiter.ErrIndexingTimeout):
			summary.IndexingTimedOut = true
			summary.AddError(err)
		case err != nil:
			return nil, err
		}
	}

	collection, skipped, err := vector.ReadCollection(ctx, store, vector.ReaderOptions{
		Dimensions:    opts.Dimensions,
		ChunkCapacity: opts.ChunkCapacity,
		StrictChunks:  opts.StrictChunks,
		Logger:        logger,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}
	for _, ce := range skipped {
		summary.CorruptChunks++
		summary.AddError(ce)
	}
	summary.Records = collection.Records()
	summary.Vectors = collection.Len()
	logger.Info("embedding store read",
		zap.Int("records", summary.Records),
		zap.Int("vectors", summary.Vectors),
		zap.Int("corrupt_chunks", summary.CorruptChunks))
	return collection, nil
}

func link(ctx context.Context, opts Options, collection *vector.Collection, summary *models.PassSummary, logger *zap.Logger) error {
	engine, err := vector.NewEngine(ctx, collection, vector.RankOptions{
		TopK:      opts.TopK,
		Threshold: opts.Threshold,
		IndexType: opts.IndexType,
	})
	if err != nil {
		return fmt.Errorf("build similarity engine: %w", err)
	}
	defer func() { _ = engine.Close() }()

	// Query notes whose file is gone are not ranked but stay candidates for other notes.
	prefix := vector.PrefixMatcher(opts.FilterPrefix)
	var present int
	queries := vector.MatcherFunc(func(rel string) bool {
		if !prefix.Match(rel) {
			return false
		}
		summary.Queries++
		if _, err := os.Stat(notePath(opts.Root, rel)); errors.Is(err, os.ErrNotExist) {
			summary.MissingFiles++
			logger.Debug("skipping query note", zap.Error(fmt.Errorf("%w: %s", ErrMissingFile, rel)))
			return false
		}
		present++
		return true
	})
	rankings, err := engine.Rank(ctx, queries)
	if err != nil {
		return err
	}
	summary.NoMatches = present - len(rankings)

	writer := linker.NewWriter(linker.WithLogger(logger), linker.WithMarker(opts.Marker))
	for _, r := range rankings {
		if err := ctx.Err(); err != nil {
			return err
		}
		changed, err := writer.Link(notePath(opts.Root, r.QueryPath), models.NoteNames(r.Matches))
		switch {
		case err != nil:
			summary.WriteErrors++
			summary.AddError(err)
			logger.Warn("failed to write related notes", zap.String("path", r.QueryPath), zap.Error(err))
		case changed:
			summary.Updated++
			summary.UpdatedPaths = append(summary.UpdatedPaths, r.QueryPath)
			logger.Info("linked note", zap.String("path", r.QueryPath), zap.Int("links", len(r.Matches)))
		default:
			summary.AlreadyLinked++
		}
	}
	return nil
}

func notePath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
