package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/notelink/internal/models"
)

func sampleSummary() *models.PassSummary {
	s := &models.PassSummary{
		RunID:           "run-1",
		Root:            "/vault",
		Records:         3,
		Vectors:         3,
		Queries:         1,
		Updated:         1,
		IndexedExpected: 2,
		IndexedFound:    1,
		UpdatedPaths:    []string{"unprocessed/a.md"},
	}
	s.IndexingTimedOut = true
	s.AddError(errFake(strings.Repeat("x", 300)))
	s.Finish(42 * time.Millisecond)
	return s
}

type errFake string

func (e errFake) Error() string { return string(e) }

func TestWriteSummary_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, sampleSummary(), OutputJSON); err != nil {
		t.Fatalf("WriteSummary(json): %v", err)
	}
	var decoded models.PassSummary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Updated != 1 || decoded.RunID != "run-1" || decoded.DurationMs != 42 {
		t.Errorf("decoded = %+v", decoded)
	}
	if !decoded.IndexingTimedOut {
		t.Error("indexing_timed_out lost")
	}
}

func TestWriteSummary_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, sampleSummary(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Linked 1 note(s) in 42ms", "indexing:       1/2 (timed out)", "+ unprocessed/a.md"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, strings.Repeat("x", 200)) {
		t.Error("long error not truncated")
	}
}

func TestWriteStatus(t *testing.T) {
	st := &models.StoreStatus{Root: "/vault", StorePath: "/vault/.nexus/cache.db", Present: true, Records: 10, Chunks: 1, PrefixRecords: 4, FilterPrefix: "unprocessed", DiskUsageBytes: 2048}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"records:    10", "unprocessed/: 4", "2.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, &models.StoreStatus{Root: "/vault"}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "not found") {
		t.Errorf("missing store output: %s", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
