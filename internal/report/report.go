// Package report renders OperationResults into the operator-facing text
// reports and persists them next to the data they describe. It consumes the
// engine's results; it never produces or mutates them.
package report

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cleverdata/haul/internal/transfer"
)

const timestampLayout = "20060102_150405"

// Summary renders the short pass/fail overview printed after a run.
func Summary(results []transfer.OperationResult) string {
	var b strings.Builder
	b.WriteString("File Operation Report\n")
	b.WriteString("=====================\n\n")

	var successful, failed []transfer.OperationResult
	for _, r := range results {
		if r.Success {
			successful = append(successful, r)
		} else {
			failed = append(failed, r)
		}
	}

	fmt.Fprintf(&b, "Total Operations: %d\n", len(results))
	fmt.Fprintf(&b, "Successful: %d\n", len(successful))
	fmt.Fprintf(&b, "Failed: %d\n\n", len(failed))

	var totalFiles int
	var totalSize int64
	for _, r := range results {
		totalFiles += r.FilesProcessed
		totalSize += r.TotalSize
	}
	fmt.Fprintf(&b, "Total Files Processed: %d\n", totalFiles)
	fmt.Fprintf(&b, "Total Data Size: %d bytes (%s)\n\n", totalSize, humanize.IBytes(uint64(totalSize)))

	if len(successful) > 0 {
		b.WriteString("Successful Operations:\n")
		for _, r := range successful {
			fmt.Fprintf(&b, "  + %s: %s -> %s\n", r.OperationName, r.Source, r.Destination)
			verified := "yes"
			if !r.HashVerified {
				verified = "no"
			}
			fmt.Fprintf(&b, "    Files: %d, Size: %d bytes, Verified: %s\n", r.FilesProcessed, r.TotalSize, verified)
		}
		b.WriteString("\n")
	}

	if len(failed) > 0 {
		b.WriteString("Failed Operations:\n")
		for _, r := range failed {
			fmt.Fprintf(&b, "  x %s: %s -> %s\n", r.OperationName, r.Source, r.Destination)
			writeWrappedError(&b, r.ErrorMessage)
			fmt.Fprintf(&b, "    Files Processed: %d, Size: %d bytes\n", r.FilesProcessed, r.TotalSize)
		}
	}

	return b.String()
}

// writeWrappedError soft-wraps long aggregated messages by splitting on the
// "; " separators directory operations use, one cause per line.
func writeWrappedError(b *strings.Builder, msg string) {
	if msg == "" {
		return
	}
	if len(msg) <= 80 {
		fmt.Fprintf(b, "    Error: %s\n", msg)
		return
	}
	for i, cause := range strings.Split(msg, ";") {
		if i == 0 {
			fmt.Fprintf(b, "    Error: %s\n", strings.TrimSpace(cause))
		} else {
			fmt.Fprintf(b, "           %s\n", strings.TrimSpace(cause))
		}
	}
}

// Detailed renders the long-form report: system information, per-operation
// status, file lists and the full operation logs.
func Detailed(results []transfer.OperationResult) string {
	now := time.Now()
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	cwd, _ := os.Getwd()

	var b strings.Builder
	rule := strings.Repeat("=", 80)
	sub := strings.Repeat("-", 40)

	b.WriteString(rule + "\n")
	b.WriteString("                   DETAILED FILE OPERATION REPORT\n")
	b.WriteString(rule + "\n\n")

	b.WriteString("SYSTEM INFORMATION\n" + sub + "\n")
	fmt.Fprintf(&b, "Report Generated: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "System: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "Hostname: %s\n", hostname)
	fmt.Fprintf(&b, "Username: %s\n", username)
	fmt.Fprintf(&b, "Current Directory: %s\n\n", cwd)

	b.WriteString("OPERATION SUMMARY\n" + sub + "\n")
	var succeeded, totalFiles int
	var totalSize int64
	var totalDuration time.Duration
	for _, r := range results {
		if r.Success {
			succeeded++
		}
		totalFiles += r.FilesProcessed
		totalSize += r.TotalSize
		totalDuration += r.Duration()
	}
	fmt.Fprintf(&b, "Total Operations: %d\n", len(results))
	fmt.Fprintf(&b, "Successful: %d\n", succeeded)
	fmt.Fprintf(&b, "Failed: %d\n", len(results)-succeeded)
	fmt.Fprintf(&b, "Total Files Processed: %d\n", totalFiles)
	fmt.Fprintf(&b, "Total Data Size: %d bytes (%s)\n", totalSize, humanize.IBytes(uint64(totalSize)))
	fmt.Fprintf(&b, "Total Duration: %d ms\n\n", totalDuration.Milliseconds())

	b.WriteString("DETAILED RESULTS\n" + sub + "\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, r.OperationName)
		b.WriteString(strings.Repeat("=", len(r.OperationName)+3) + "\n")

		fmt.Fprintf(&b, "   Status: %s\n", statusText(r.Success))
		fmt.Fprintf(&b, "   Type: %s\n", r.Type)
		fmt.Fprintf(&b, "   Source: %s\n", r.Source)
		fmt.Fprintf(&b, "   Destination: %s\n", r.Destination)
		fmt.Fprintf(&b, "   Duration: %d ms\n", r.Duration().Milliseconds())
		fmt.Fprintf(&b, "   Files: %d, Size: %d bytes\n", r.FilesProcessed, r.TotalSize)
		fmt.Fprintf(&b, "   Hash Verified: %s\n", yesNo(r.HashVerified))
		if r.ErrorMessage != "" {
			fmt.Fprintf(&b, "   Error: %s\n", r.ErrorMessage)
		}

		if len(r.Files) > 0 {
			b.WriteString("\n   File List:\n")
			for j, f := range r.Files {
				fmt.Fprintf(&b, "     %d. %s %s -> %s\n", j+1, mark(f.Success), f.SourcePath, f.DestinationPath)
			}
		}

		b.WriteString("\n   Operation Log:\n")
		for _, d := range r.Details {
			fmt.Fprintf(&b, "     %s\n", d)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteDetailed saves the detailed report into dir with a timestamped name
// and returns the path written.
func WriteDetailed(results []transfer.OperationResult, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("file_operations_report_%s.txt", time.Now().Format(timestampLayout)))
	if err := os.WriteFile(path, []byte(Detailed(results)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// WriteOperationReports drops one report per operation into that operation's
// destination directory, so the audit trail travels with the data. Returns
// one status line per attempt.
func WriteOperationReports(results []transfer.OperationResult) []string {
	now := time.Now()
	statuses := make([]string, 0, len(results))

	for i, r := range results {
		reportDir := r.Destination
		if info, err := os.Stat(reportDir); err != nil || !info.IsDir() {
			reportDir = filepath.Dir(reportDir)
		}
		if err := os.MkdirAll(reportDir, 0755); err != nil {
			statuses = append(statuses, fmt.Sprintf("x Could not create directory for operation %d: %v", i+1, err))
			continue
		}

		name := fmt.Sprintf("operation_%d_%s_%s.txt",
			i+1,
			strings.ToLower(strings.ReplaceAll(r.OperationName, " ", "_")),
			now.Format(timestampLayout))
		path := filepath.Join(reportDir, name)

		if err := os.WriteFile(path, []byte(operationReport(r, now)), 0644); err != nil {
			statuses = append(statuses, fmt.Sprintf("x Failed to save report for %s: %v", r.OperationName, err))
			continue
		}
		statuses = append(statuses, fmt.Sprintf("+ Report saved to: %s", path))
	}

	return statuses
}

func operationReport(r transfer.OperationResult, now time.Time) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	sub := strings.Repeat("-", 40)

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "            OPERATION REPORT: %s\n", r.OperationName)
	b.WriteString(rule + "\n\n")

	b.WriteString("OPERATION DETAILS\n" + sub + "\n")
	fmt.Fprintf(&b, "Name: %s\n", r.OperationName)
	fmt.Fprintf(&b, "Status: %s\n", statusText(r.Success))
	fmt.Fprintf(&b, "Type: %s\n", r.Type)
	fmt.Fprintf(&b, "Source: %s\n", r.Source)
	fmt.Fprintf(&b, "Destination: %s\n", r.Destination)
	fmt.Fprintf(&b, "Duration: %d ms\n", r.Duration().Milliseconds())
	fmt.Fprintf(&b, "Files Processed: %d\n", r.FilesProcessed)
	fmt.Fprintf(&b, "Total Size: %d bytes\n", r.TotalSize)
	fmt.Fprintf(&b, "Hash Verified: %s\n", yesNo(r.HashVerified))
	if r.ErrorMessage != "" {
		fmt.Fprintf(&b, "Error: %s\n", r.ErrorMessage)
	}

	if len(r.Files) > 0 {
		b.WriteString("\nFILE LIST\n" + sub + "\n")
		for j, f := range r.Files {
			fmt.Fprintf(&b, "%d. %s %s -> %s\n", j+1, mark(f.Success), f.SourcePath, f.DestinationPath)
			fmt.Fprintf(&b, "   Size: %d bytes, Verified: %s\n", f.Size, yesNo(f.HashVerified))
			if f.ErrorMessage != "" {
				fmt.Fprintf(&b, "   Error: %s\n", f.ErrorMessage)
			}
		}
	}

	b.WriteString("\nRUN INFORMATION\n" + sub + "\n")
	fmt.Fprintf(&b, "Report Generated: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Started: %s\n", r.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s\n", r.EndTime.Format(time.RFC3339))

	b.WriteString("\nOPERATION LOG\n" + sub + "\n")
	for _, d := range r.Details {
		b.WriteString(d + "\n")
	}

	return b.String()
}

func statusText(ok bool) string {
	if ok {
		return "SUCCESS"
	}
	return "FAILED"
}

func yesNo(ok bool) string {
	if ok {
		return "Yes"
	}
	return "No"
}

func mark(ok bool) string {
	if ok {
		return "+"
	}
	return "x"
}
