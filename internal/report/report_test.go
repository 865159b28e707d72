package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cleverdata/haul/internal/config"
	"github.com/cleverdata/haul/internal/transfer"
)

func sampleResults() []transfer.OperationResult {
	start := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return []transfer.OperationResult{
		{
			OperationName:  "nightly backup",
			Source:         "/data/in",
			Destination:    "/data/out",
			Type:           config.OpCopy,
			Success:        true,
			HashVerified:   true,
			FilesProcessed: 3,
			TotalSize:      4096,
			StartTime:      start,
			EndTime:        start.Add(250 * time.Millisecond),
			Details:        []string{"Operation: nightly backup", "  Files copied: 3"},
			Files: []transfer.FileEntry{
				{SourcePath: "/data/in/a", DestinationPath: "/data/out/a", Size: 1024, HashVerified: true, Success: true},
			},
		},
		{
			OperationName:  "broken move",
			Source:         "/data/gone",
			Destination:    "/data/elsewhere",
			Type:           config.OpMove,
			Success:        false,
			ErrorMessage:   "Source '/data/gone' does not exist",
			FilesProcessed: 0,
			StartTime:      start,
			EndTime:        start.Add(5 * time.Millisecond),
			Details:        []string{"Operation: broken move", "  ERROR: Source '/data/gone' does not exist"},
		},
	}
}

func TestSummaryCountsAndSections(t *testing.T) {
	out := Summary(sampleResults())

	for _, want := range []string{
		"Total Operations: 2",
		"Successful: 1",
		"Failed: 1",
		"Total Files Processed: 3",
		"Total Data Size: 4096 bytes",
		"+ nightly backup: /data/in -> /data/out",
		"x broken move: /data/gone -> /data/elsewhere",
		"Error: Source '/data/gone' does not exist",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
}

func TestSummaryWrapsLongErrors(t *testing.T) {
	long := strings.Repeat("failed to copy /very/long/path/file.bin: permission denied; ", 3)
	results := []transfer.OperationResult{
		{OperationName: "messy", Source: "/a", Destination: "/b", ErrorMessage: strings.TrimSuffix(long, "; ")},
	}

	out := Summary(results)
	lines := strings.Split(out, "\n")

	var errorLines int
	for _, l := range lines {
		if strings.Contains(l, "permission denied") {
			errorLines++
			if strings.Contains(l, ";") {
				t.Errorf("wrapped error line still contains separator: %q", l)
			}
		}
	}
	if errorLines != 3 {
		t.Errorf("long error split into %d lines, want 3", errorLines)
	}
}

func TestDetailedIncludesSystemAndPerOperationBlocks(t *testing.T) {
	out := Detailed(sampleResults())

	for _, want := range []string{
		"DETAILED FILE OPERATION REPORT",
		"SYSTEM INFORMATION",
		"Hostname:",
		"1. nightly backup",
		"Status: SUCCESS",
		"2. broken move",
		"Status: FAILED",
		"Hash Verified: Yes",
		"Operation Log:",
		"  Files copied: 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("detailed report missing %q", want)
		}
	}
}

func TestWriteDetailedCreatesTimestampedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := WriteDetailed(sampleResults(), dir)
	if err != nil {
		t.Fatalf("WriteDetailed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("report written to %s, want directory %s", path, dir)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "file_operations_report_") || !strings.HasSuffix(base, ".txt") {
		t.Errorf("unexpected report name %q", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report back: %v", err)
	}
	if !strings.Contains(string(data), "nightly backup") {
		t.Error("written report does not mention the operation")
	}
}

func TestWriteOperationReportsLandInDestinations(t *testing.T) {
	dir := t.TempDir()
	destDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(destDir, 0755); err != nil {
		t.Fatal(err)
	}
	destFile := filepath.Join(dir, "single", "file.txt")

	results := sampleResults()
	results[0].Destination = destDir
	results[1].Destination = destFile

	statuses := WriteOperationReports(results)
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	for _, s := range statuses {
		if !strings.HasPrefix(s, "+ Report saved to: ") {
			t.Errorf("unexpected status %q", s)
		}
	}

	// Directory destination gets the report inside it; file destination gets
	// it alongside the file.
	entries, err := filepath.Glob(filepath.Join(destDir, "operation_1_nightly_backup_*.txt"))
	if err != nil || len(entries) != 1 {
		t.Errorf("report for directory destination not found: %v %v", entries, err)
	}
	entries, err = filepath.Glob(filepath.Join(dir, "single", "operation_2_broken_move_*.txt"))
	if err != nil || len(entries) != 1 {
		t.Errorf("report for file destination not found: %v %v", entries, err)
	}
}
