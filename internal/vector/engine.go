package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/notelink/internal/models"
)

const (
	// DefaultTopK is how many related notes are kept per query note.
	DefaultTopK = 5
	// DefaultThreshold is the minimum cosine similarity for a related note.
	DefaultThreshold = 0.45
)

// PathMatcher selects which records are query notes.
type PathMatcher interface {
	Match(path string) bool
}

// PrefixMatcher matches stored relative paths that start with the prefix string.
// It is a plain string prefix test: "unprocessed" also matches "unprocessed-old/x.md".
type PrefixMatcher string

// Match reports whether path starts with the prefix.
func (p PrefixMatcher) Match(path string) bool {
	return strings.HasPrefix(path, string(p))
}

// MatcherFunc adapts a function to PathMatcher.
type MatcherFunc func(path string) bool

// Match calls f(path).
func (f MatcherFunc) Match(path string) bool { return f(path) }

// RankOptions configures the similarity engine.
type RankOptions struct {
	TopK      int
	Threshold float64
	IndexType string
}

func (o *RankOptions) applyDefaults() {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
}

// Engine ranks related notes over one Collection. It normalizes every vector once and
// answers queries against the full set.
type Engine struct {
	collection *Collection
	index      Index
	normalized map[int64][]float32
	opts       RankOptions
}

// NewEngine normalizes the collection's vectors and loads them into an index.
func NewEngine(ctx context.Context, c *Collection, opts RankOptions) (*Engine, error) {
	opts.applyDefaults()
	idx, err := NewIndex(opts.IndexType, c.Dimensions())
	if err != nil {
		return nil, err
	}
	ids := c.IDs()
	vecs := make([][]float32, len(ids))
	normalized := make(map[int64][]float32, len(ids))
	for i, id := range ids {
		vecs[i] = Normalize(c.vectors[id])
		normalized[id] = vecs[i]
	}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("build %s index: %w", idx.Type(), err)
	}
	return &Engine{collection: c, index: idx, normalized: normalized, opts: opts}, nil
}

// Queries returns the identifiers whose paths match m, ascending.
func (e *Engine) Queries(m PathMatcher) []int64 {
	var out []int64
	for _, id := range e.collection.ids {
		if m.Match(e.collection.paths[id]) {
			out = append(out, id)
		}
	}
	return out
}

// Related returns up to TopK other records scoring at least Threshold against id, best first,
// ties broken by ascending identifier. An unknown id yields no matches.
func (e *Engine) Related(ctx context.Context, id int64) ([]models.Match, error) {
	query, ok := e.normalized[id]
	if !ok {
		return nil, nil
	}
	hits, err := e.index.Search(ctx, query, SearchOptions{K: e.opts.TopK, Threshold: e.opts.Threshold, Exclude: id})
	if err != nil {
		return nil, fmt.Errorf("search related notes for %d: %w", id, err)
	}
	matches := make([]models.Match, 0, len(hits))
	for _, h := range hits {
		if h.ID == id {
			continue
		}
		matches = append(matches, models.Match{
			SourceID:   id,
			TargetID:   h.ID,
			TargetPath: e.collection.paths[h.ID],
			Score:      h.Score,
		})
	}
	return matches, nil
}

// Rank returns a Ranking for every query record matching m that has at least one match.
func (e *Engine) Rank(ctx context.Context, m PathMatcher) ([]models.Ranking, error) {
	var out []models.Ranking
	for _, id := range e.Queries(m) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := e.Related(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}
		out = append(out, models.Ranking{QueryID: id, QueryPath: e.collection.paths[id], Matches: matches})
	}
	return out, nil
}

// Close releases the underlying index.
func (e *Engine) Close() error {
	return e.index.Close()
}
