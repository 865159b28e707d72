package transfer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleverdata/haul/internal/config"
)

// moveFile renames one file. Renames are byte-preserving, so success is
// verified by destination existence rather than a digest, and a successful
// move reports HashVerified true.
func moveFile(op config.FileOperation, result *OperationResult) {
	result.HashVerified = true
	result.FilesProcessed = 1

	var size int64
	if info, err := os.Stat(op.Origin); err == nil {
		size = info.Size()
	}
	result.TotalSize = size
	result.logf("  File size: %d bytes", size)

	result.logf("  Starting file move...")

	// A pre-existing destination must be removed explicitly; a failed
	// rename must never silently overwrite it.
	if _, err := os.Lstat(op.Destination); err == nil {
		result.logf("  WARNING: Destination already exists")
		if err := os.Remove(op.Destination); err != nil {
			result.fail(fmt.Sprintf("Cannot move: destination exists and cannot be removed: %v", err))
			return
		}
		result.logf("  Removed existing destination file")
	}

	if err := os.Rename(op.Origin, op.Destination); err != nil {
		msg := fmt.Sprintf("Move failed: %v (from %s to %s)", err, op.Origin, op.Destination)
		result.fail(msg)
		result.Files = append(result.Files, FileEntry{
			SourcePath:      op.Origin,
			DestinationPath: op.Destination,
			Size:            size,
			ErrorMessage:    msg,
		})
		result.HashVerified = false
		classifyIOError(err, result)
		return
	}
	result.logf("  Move operation completed")

	if _, err := os.Stat(op.Destination); err != nil {
		result.fail("Destination file doesn't exist after move")
		return
	}
	result.logf("  Verification: Destination exists")

	result.Success = true
	result.Files = append(result.Files, FileEntry{
		SourcePath:      op.Origin,
		DestinationPath: op.Destination,
		Size:            size,
		HashVerified:    true,
		Success:         true,
	})
}

// moveDirectory renames a whole tree, then re-walks the destination to
// build the flattened file accounting. Each entry's source is mapped back
// to its pre-move path by rejoining the relative path onto the original
// origin; the origin itself is gone by then.
func moveDirectory(op config.FileOperation, result *OperationResult) {
	result.HashVerified = true

	result.logf("  Starting directory move...")

	if _, err := os.Stat(op.Destination); err == nil {
		result.logf("  WARNING: Destination already exists")

		if samePath(op.Origin, op.Destination) {
			result.fail("Source and destination are the same directory")
			return
		}

		if err := os.RemoveAll(op.Destination); err != nil {
			result.fail(fmt.Sprintf("Cannot move: destination exists and cannot be removed: %v", err))
			return
		}
		result.logf("  Removed existing destination directory")
	}

	if err := os.Rename(op.Origin, op.Destination); err != nil {
		msg := fmt.Sprintf("Move failed: %v (from %s to %s)", err, op.Origin, op.Destination)
		result.fail(msg)
		classifyIOError(err, result)
		return
	}
	result.logf("  Move operation completed")

	if _, err := os.Stat(op.Destination); err != nil {
		result.fail("Destination directory doesn't exist after move")
		return
	}
	result.logf("  Verification: Destination exists")
	result.Success = true

	filepath.WalkDir(op.Destination, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}

		result.FilesProcessed++
		result.TotalSize += info.Size()

		originalSource := path
		if rel, rerr := filepath.Rel(op.Destination, path); rerr == nil {
			originalSource = filepath.Join(op.Origin, rel)
		}

		result.Files = append(result.Files, FileEntry{
			SourcePath:      originalSource,
			DestinationPath: path,
			Size:            info.Size(),
			HashVerified:    true,
			Success:         true,
		})
		return nil
	})

	result.logf("  Files moved: %d", result.FilesProcessed)
	result.logf("  Total size: %d bytes", result.TotalSize)
}
