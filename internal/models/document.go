// Package models defines similarity matches, rankings, and pass summaries.
package models

import (
	"path"
	"strings"
)

// Match is a similarity edge from a query note to a related note. It is never persisted.
type Match struct {
	SourceID   int64   `json:"source_id"`
	TargetID   int64   `json:"target_id"`
	TargetPath string  `json:"target_path"`
	Score      float64 `json:"score"`
}

// Ranking is the ranked list of related notes for one query note, best first.
type Ranking struct {
	QueryID   int64   `json:"query_id"`
	QueryPath string  `json:"query_path"`
	Matches   []Match `json:"matches"`
}

// NoteName returns the wiki-link name of a note: its base name with a trailing ".md" removed.
// Other extensions are kept, since wiki links to non-Markdown files include them.
func NoteName(notePath string) string {
	base := path.Base(strings.ReplaceAll(notePath, "\\", "/"))
	return strings.TrimSuffix(base, ".md")
}

// NoteNames maps matches to wiki-link names, preserving rank order.
func NoteNames(matches []Match) []string {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = NoteName(m.TargetPath)
	}
	return names
}
