// Package waiter blocks until the external indexer has indexed a set of new notes.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is the pause between store queries.
	DefaultPollInterval = 5 * time.Second
	// DefaultTimeout bounds the whole wait.
	DefaultTimeout = 60 * time.Second
)

// ErrIndexingTimeout means the timeout elapsed before every expected note was indexed.
// Callers proceed with partial coverage.
var ErrIndexingTimeout = errors.New("indexing timed out")

// Source reports which note paths are indexed under a folder prefix.
type Source interface {
	IndexedPaths(ctx context.Context, prefix string) ([]string, error)
}

// Result reports how much of the expected set was indexed.
type Result struct {
	Expected int
	Found    int
	Missing  []string
	Polls    int
}

// Waiter polls a Source until expected notes appear.
type Waiter struct {
	src      Source
	clock    Clock
	interval time.Duration
	logger   *zap.Logger
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithLogger sets a logger for progress output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Waiter) { w.logger = l }
}

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Waiter) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithClock injects a clock.
func WithClock(c Clock) Option {
	return func(w *Waiter) {
		if c != nil {
			w.clock = c
		}
	}
}

// New creates a Waiter over src.
func New(src Source, opts ...Option) *Waiter {
	w := &Waiter{src: src, clock: RealClock{}, interval: DefaultPollInterval}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait polls until every filename in expected is indexed under prefix, or timeout elapses.
// Filenames are compared with the base name of each indexed path. On timeout it returns the
// partial Result together with ErrIndexingTimeout. Query failures are logged and retried on the
// next poll. Cancelling ctx stops the wait with ctx.Err().
func (w *Waiter) Wait(ctx context.Context, expected []string, prefix string, timeout time.Duration) (Result, error) {
	want := uniqueNames(expected)
	res := Result{Expected: len(want), Missing: want}
	if len(want) == 0 {
		return res, nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if w.logger != nil {
		w.logger.Info("waiting for indexer", zap.Int("files", len(want)), zap.String("prefix", prefix), zap.Duration("timeout", timeout))
	}

	start := w.clock.Now()
	for {
		elapsed := w.clock.Now().Sub(start)
		if elapsed >= timeout {
			break
		}
		res.Polls++
		paths, err := w.src.IndexedPaths(ctx, prefix)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			if w.logger != nil {
				w.logger.Warn("indexed paths query failed", zap.Error(err))
			}
		} else {
			res.Missing = missing(want, paths)
			res.Found = res.Expected - len(res.Missing)
			if len(res.Missing) == 0 {
				if w.logger != nil {
					w.logger.Info("all files indexed", zap.Int("files", res.Found), zap.Int("polls", res.Polls))
				}
				return res, nil
			}
		}
		if w.logger != nil {
			w.logger.Info("still waiting for indexer",
				zap.Int("missing", len(res.Missing)),
				zap.Duration("remaining", (timeout-elapsed).Truncate(time.Second)))
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-w.clock.After(w.interval):
		}
	}

	if w.logger != nil {
		w.logger.Warn("indexing timed out, proceeding with partial coverage",
			zap.Int("indexed", res.Found), zap.Int("expected", res.Expected), zap.Strings("missing", res.Missing))
	}
	return res, fmt.Errorf("%w: %d of %d files indexed", ErrIndexingTimeout, res.Found, res.Expected)
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = path.Base(n)
		if n == "." || n == "/" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func missing(want, indexed []string) []string {
	have := make(map[string]bool, len(indexed))
	for _, p := range indexed {
		have[path.Base(p)] = true
	}
	var out []string
	for _, n := range want {
		if !have[n] {
			out = append(out, n)
		}
	}
	return out
}
