// Package transfer implements the rate-limited transfer engine: single-file
// and directory copy with post-copy integrity verification, file and
// directory move, and the parallel orchestrator that runs a declared
// operation list to completion.
package transfer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cleverdata/haul/internal/config"
)

// executeOperation runs one operation to completion and returns its fully
// populated result. Every failure path lands in the result; nothing escapes.
func executeOperation(op config.FileOperation, global config.RateLimit) OperationResult {
	result := newResult(op)
	result.logf("Starting operation: %s", op.Name)
	result.logf("  Type: %s", op.Type)
	result.logf("  Source: %s", op.Origin)
	result.logf("  Destination: %s", op.Destination)

	info, err := os.Stat(op.Origin)
	if err != nil {
		result.fail(fmt.Sprintf("Source '%s' does not exist", op.Origin))
		result.EndTime = time.Now()
		return result
	}

	isDir := info.IsDir()
	isFile := info.Mode().IsRegular()
	if !isDir && !isFile {
		result.fail(fmt.Sprintf("Source '%s' is not a valid file or directory", op.Origin))
		result.EndTime = time.Now()
		return result
	}

	if isDir {
		result.logf("  Source is a directory")
	} else {
		result.logf("  Source is a file")
	}

	// Destination parents are created up front; nothing is copied if this
	// fails.
	if parent := filepath.Dir(op.Destination); parent != "" && parent != "." {
		if _, err := os.Stat(parent); os.IsNotExist(err) {
			result.logf("  Creating parent directory: %s", parent)
			if err := os.MkdirAll(parent, 0755); err != nil {
				result.fail(fmt.Sprintf("Failed to create destination directory '%s': %v", parent, err))
				result.EndTime = time.Now()
				return result
			}
			result.logf("  Parent directory created successfully")
		}
	}

	bps, _ := config.EffectiveBPS(op.RateLimit, global)

	switch {
	case op.Type == config.OpCopy && isDir:
		copyDirectory(op, bps, &result)
	case op.Type == config.OpCopy:
		copyFile(op, bps, &result)
	case isDir:
		moveDirectory(op, &result)
	default:
		moveFile(op, &result)
	}

	result.EndTime = time.Now()
	return result
}

// classifyIOError appends a human-readable hint for common OS failures.
// Diagnostics only; control flow is unaffected.
func classifyIOError(err error, result *OperationResult) {
	switch {
	case errors.Is(err, os.ErrPermission):
		result.logf("  Permission denied - check file permissions")
	case errors.Is(err, syscall.EXDEV):
		result.logf("  Cannot move across devices - use copy instead")
	case errors.Is(err, os.ErrNotExist):
		result.logf("  Source not found - check path")
	case errors.Is(err, os.ErrExist):
		result.logf("  Destination already exists")
	case errors.Is(err, syscall.EINVAL):
		result.logf("  Invalid operation - check if destination is a subdirectory of source")
	}
}

// canonical resolves symlinks where possible and falls back to a cleaned
// absolute path, so two spellings of the same directory compare equal.
func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func samePath(a, b string) bool {
	return canonical(a) == canonical(b)
}
