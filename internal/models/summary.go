package models

import "time"

// PassSummary reports the outcome of one linking pass. Per-note failures are
// counted here instead of aborting the pass.
type PassSummary struct {
	RunID string `json:"run_id"`
	Root  string `json:"root"`

	Records int `json:"records"`
	Vectors int `json:"vectors"`
	Queries int `json:"queries"`

	Updated       int `json:"updated"`
	AlreadyLinked int `json:"already_linked"`
	NoMatches     int `json:"no_matches"`
	MissingFiles  int `json:"missing_files"`
	WriteErrors   int `json:"write_errors"`
	CorruptChunks int `json:"corrupt_chunks"`

	IndexedExpected  int  `json:"indexed_expected,omitempty"`
	IndexedFound     int  `json:"indexed_found,omitempty"`
	IndexingTimedOut bool `json:"indexing_timed_out,omitempty"`

	Duration     time.Duration `json:"-"`
	DurationMs   int64         `json:"duration_ms"`
	UpdatedPaths []string      `json:"updated_paths,omitempty"`
	Errors       []string      `json:"errors,omitempty"`
}

// Skipped returns the number of query notes that were not updated for a non-error reason.
func (s *PassSummary) Skipped() int {
	return s.AlreadyLinked + s.NoMatches + s.MissingFiles
}

// Errored returns the number of recoverable failures recorded during the pass.
func (s *PassSummary) Errored() int {
	return s.WriteErrors + s.CorruptChunks
}

// AddError records a recoverable failure message.
func (s *PassSummary) AddError(err error) {
	if err == nil {
		return
	}
	s.Errors = append(s.Errors, err.Error())
}

// Finish stamps the pass duration.
func (s *PassSummary) Finish(d time.Duration) {
	s.Duration = d
	s.DurationMs = d.Milliseconds()
}

// StoreStatus describes the embedding store of one vault.
type StoreStatus struct {
	Root           string `json:"root"`
	StorePath      string `json:"store_path"`
	Present        bool   `json:"present"`
	Records        int64  `json:"records"`
	Chunks         int64  `json:"chunks"`
	PrefixRecords  int64  `json:"prefix_records"`
	FilterPrefix   string `json:"filter_prefix"`
	DiskUsageBytes int64  `json:"disk_usage_bytes"`
}
