// Package cli provides output helpers for the notelink command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/notelink/internal/models"
	"github.com/hyperjump/notelink/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

const maxErrorWidth = 160

// WriteSummary writes a linking pass summary to w in the given format.
func WriteSummary(w io.Writer, s *models.PassSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Linked %d note(s) in %dms\n", s.Updated, s.DurationMs)
	fmt.Fprintf(w, "  queries:        %d (of %d records, %d vectors)\n", s.Queries, s.Records, s.Vectors)
	fmt.Fprintf(w, "  already linked: %d\n", s.AlreadyLinked)
	fmt.Fprintf(w, "  no matches:     %d\n", s.NoMatches)
	fmt.Fprintf(w, "  missing files:  %d\n", s.MissingFiles)
	fmt.Fprintf(w, "  write errors:   %d\n", s.WriteErrors)
	fmt.Fprintf(w, "  corrupt chunks: %d\n", s.CorruptChunks)
	if s.IndexedExpected > 0 {
		state := "complete"
		if s.IndexingTimedOut {
			state = "timed out"
		}
		fmt.Fprintf(w, "  indexing:       %d/%d (%s)\n", s.IndexedFound, s.IndexedExpected, state)
	}
	for _, p := range s.UpdatedPaths {
		fmt.Fprintf(w, "  + %s\n", p)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "  ! %s\n", utils.Truncate(e, maxErrorWidth))
	}
	return nil
}

// WriteStatus writes a store status report to w in the given format.
func WriteStatus(w io.Writer, st *models.StoreStatus, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Vault: %s\n", st.Root)
	fmt.Fprintf(w, "Store: %s\n", st.StorePath)
	if !st.Present {
		fmt.Fprintln(w, "  not found")
		return nil
	}
	fmt.Fprintf(w, "  records:    %d\n", st.Records)
	fmt.Fprintf(w, "  chunks:     %d\n", st.Chunks)
	if st.FilterPrefix != "" {
		fmt.Fprintf(w, "  %s/: %d\n", st.FilterPrefix, st.PrefixRecords)
	}
	fmt.Fprintf(w, "  disk usage: %s\n", FormatBytes(st.DiskUsageBytes))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
