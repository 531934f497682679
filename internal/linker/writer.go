// Package linker appends a "Related Notes" section of wiki links to note files.
package linker

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DefaultMarker heads the related-notes section. Its presence anywhere in a note means the
// note is already linked.
const DefaultMarker = "## Related Notes"

// ErrWrite marks a note that could not be read or appended to.
var ErrWrite = errors.New("write related notes")

// WriteError describes a failed append to one note file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrWrite, e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }

// Render builds the related-notes block for the given note names in rank order:
// a blank line, the marker heading, and one "- [[name]]" bullet per note.
// No names renders an empty block.
func Render(names []string, marker string) string {
	if len(names) == 0 {
		return ""
	}
	if marker == "" {
		marker = DefaultMarker
	}
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(marker)
	b.WriteString("\n")
	for _, n := range names {
		fmt.Fprintf(&b, "- [[%s]]\n", n)
	}
	return b.String()
}

// Writer appends rendered blocks to notes that do not have one yet.
type Writer struct {
	marker string
	logger *zap.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// WithMarker overrides the section heading that marks a linked note.
func WithMarker(marker string) WriterOption {
	return func(w *Writer) {
		if marker != "" {
			w.marker = marker
		}
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{marker: DefaultMarker}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Marker returns the section heading this writer checks for.
func (w *Writer) Marker() string {
	return w.marker
}

// Append appends block to the note at path unless the note already contains the marker.
// It reports whether the file was changed. Failures are returned as *WriteError.
// The check and the append are not atomic against concurrent writers; callers run
// passes one at a time.
func (w *Writer) Append(path, block string) (bool, error) {
	if block == "" {
		return false, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false, &WriteError{Path: path, Err: err}
	}
	if strings.Contains(string(content), w.marker) {
		if w.logger != nil {
			w.logger.Debug("note already linked", zap.String("path", path))
		}
		return false, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return false, &WriteError{Path: path, Err: err}
	}
	if _, err := f.WriteString(block); err != nil {
		_ = f.Close()
		return false, &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return false, &WriteError{Path: path, Err: err}
	}
	if w.logger != nil {
		w.logger.Debug("related notes appended", zap.String("path", path), zap.Int("bytes", len(block)))
	}
	return true, nil
}

// Link renders names and appends them to the note at path.
func (w *Writer) Link(path string, names []string) (bool, error) {
	return w.Append(path, Render(names, w.marker))
}
