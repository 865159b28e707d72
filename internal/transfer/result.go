package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleverdata/haul/internal/config"
)

// FileEntry is the outcome for one file inside an operation.
type FileEntry struct {
	SourcePath      string
	DestinationPath string
	Size            int64
	HashVerified    bool
	Success         bool
	ErrorMessage    string
}

// OperationResult is the complete, self-contained outcome of one operation:
// status, verified flag, message, per-file entries and an ordered log of the
// steps taken. It is mutated only by the worker executing the operation and
// finalized before it reaches the shared result collection.
type OperationResult struct {
	OperationName  string
	Source         string
	Destination    string
	Success        bool
	ErrorMessage   string
	HashVerified   bool
	Type           config.OperationType
	FilesProcessed int
	TotalSize      int64
	StartTime      time.Time
	EndTime        time.Time
	Details        []string
	Files          []FileEntry
}

func (r *OperationResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

func (r *OperationResult) logf(format string, args ...interface{}) {
	r.Details = append(r.Details, fmt.Sprintf(format, args...))
}

func (r *OperationResult) fail(msg string) {
	r.Success = false
	r.ErrorMessage = msg
	r.logf("ERROR: %s", msg)
}

func newResult(op config.FileOperation) OperationResult {
	return OperationResult{
		OperationName: op.Name,
		Source:        op.Origin,
		Destination:   op.Destination,
		Type:          op.Type,
		StartTime:     time.Now(),
	}
}

// failure is one per-file failure inside a directory operation. Failures
// stay typed while the walk runs; only the finalized result serializes them
// to the "; "-joined message report readers expect.
type failure struct {
	Path   string
	Reason string
}

func joinFailures(failures []failure) string {
	if len(failures) == 0 {
		return ""
	}
	reasons := make([]string, len(failures))
	for i, f := range failures {
		reasons[i] = f.Reason
	}
	return strings.Join(reasons, "; ")
}
