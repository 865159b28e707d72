package transfer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/cleverdata/haul/internal/config"
	"github.com/cleverdata/haul/internal/throttle"
	"github.com/cleverdata/haul/internal/verify"
)

const (
	copyChunkSize      = 64 * 1024
	smallFileThreshold = 10 * 1024 * 1024
)

var errVerifyMismatch = errors.New("hash verification failed - files are different")

// copyFile copies one regular file, throttled to bps when nonzero, and
// verifies the destination digest afterwards. A destination that fails
// verification is deleted, never left behind corrupt.
func copyFile(op config.FileOperation, bps uint64, result *OperationResult) {
	result.FilesProcessed = 1

	var size int64
	if info, err := os.Stat(op.Origin); err == nil {
		size = info.Size()
	}
	result.TotalSize = size
	result.logf("  File size: %d bytes", size)

	limiter := throttle.New(bps)
	if limiter.Enabled() {
		result.logf("  Rate limiting: %d bytes/second (%s/s)", limiter.Limit(), humanize.IBytes(limiter.Limit()))
	}

	result.logf("  Starting file copy...")

	var copied int64
	var err error
	if limiter.Enabled() {
		copied, err = copyFileThrottled(op.Name, op.Origin, op.Destination, limiter)
	} else {
		copied, err = copyFileBulk(op.Origin, op.Destination)
	}
	if err != nil {
		msg := fmt.Sprintf("Copy failed: %v (from %s to %s)", err, op.Origin, op.Destination)
		result.fail(msg)
		result.Files = append(result.Files, FileEntry{
			SourcePath:      op.Origin,
			DestinationPath: op.Destination,
			Size:            size,
			ErrorMessage:    msg,
		})
		classifyIOError(err, result)
		return
	}

	result.logf("  Copy completed: %d bytes copied", copied)
	result.TotalSize = copied

	result.logf("  Verifying file integrity...")
	if verr := verifyCopy(op.Origin, op.Destination); verr != nil {
		result.fail(verr.Error())
		result.logf("  Cleaned up failed copy")
		result.Files = append(result.Files, FileEntry{
			SourcePath:      op.Origin,
			DestinationPath: op.Destination,
			Size:            copied,
			ErrorMessage:    verr.Error(),
		})
		return
	}

	result.logf("  Verification successful: Files match")
	result.Success = true
	result.HashVerified = true
	result.Files = append(result.Files, FileEntry{
		SourcePath:      op.Origin,
		DestinationPath: op.Destination,
		Size:            copied,
		HashVerified:    true,
		Success:         true,
	})
}

// copyDirectory mirrors the origin tree at the destination, copying every
// file through one limiter shared across the whole walk. Entry failures are
// recorded and the walk continues; success is the conjunction of all
// per-file outcomes.
func copyDirectory(op config.FileOperation, bps uint64, result *OperationResult) {
	result.HashVerified = true

	result.logf("  Starting directory copy...")

	limiter := throttle.New(bps)
	if limiter.Enabled() {
		result.logf("  Directory rate limiting: %d bytes/second (%s/s)", limiter.Limit(), humanize.IBytes(limiter.Limit()))
	}

	if err := os.MkdirAll(op.Destination, 0755); err != nil {
		result.fail(fmt.Sprintf("Failed to create destination directory: %v", err))
		return
	}
	result.logf("  Destination directory created")

	allOK := true
	var failures []failure

	filepath.WalkDir(op.Origin, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			failures = append(failures, failure{Path: path, Reason: fmt.Sprintf("Error reading directory entry: %v", err)})
			result.logf("WARNING: Error reading entry: %v", err)
			allOK = false
			return nil
		}
		if path == op.Origin {
			return nil
		}

		rel, rerr := filepath.Rel(op.Origin, path)
		if rerr != nil {
			msg := fmt.Sprintf("Failed to get relative path for: %s", path)
			failures = append(failures, failure{Path: path, Reason: msg})
			result.logf("WARNING: %s", msg)
			return nil
		}
		destPath := filepath.Join(op.Destination, rel)

		if d.IsDir() {
			if merr := os.MkdirAll(destPath, 0755); merr != nil {
				msg := fmt.Sprintf("Failed to create directory %s: %v", destPath, merr)
				failures = append(failures, failure{Path: path, Reason: msg})
				result.logf("WARNING: %s", msg)
				allOK = false
			} else {
				result.logf("  Created directory: %s", destPath)
			}
			return nil
		}

		result.FilesProcessed++
		var size int64
		if info, ierr := d.Info(); ierr == nil {
			size = info.Size()
		}
		result.TotalSize += size
		result.logf("  Copying file %d: %s", result.FilesProcessed, path)

		var copied int64
		var cerr error
		if limiter.Enabled() {
			copied, cerr = copyFileThrottled(op.Name, path, destPath, limiter)
		} else {
			copied, cerr = copyFileBulk(path, destPath)
		}
		if cerr != nil {
			msg := fmt.Sprintf("Failed to copy %s to %s: %v", path, destPath, cerr)
			failures = append(failures, failure{Path: path, Reason: msg})
			result.logf("ERROR: %s", msg)
			allOK = false
			result.Files = append(result.Files, FileEntry{
				SourcePath:      path,
				DestinationPath: destPath,
				Size:            size,
				ErrorMessage:    msg,
			})
			return nil
		}
		result.logf("    Copied %d bytes", copied)

		if verr := verifyCopy(path, destPath); verr != nil {
			var msg string
			if errors.Is(verr, errVerifyMismatch) {
				msg = fmt.Sprintf("Hash verification failed for: %s", path)
			} else {
				msg = fmt.Sprintf("Verification error for %s: %v", path, verr)
			}
			failures = append(failures, failure{Path: path, Reason: msg})
			result.logf("ERROR: %s", msg)
			result.logf("    Cleaned up failed copy")
			allOK = false
			result.HashVerified = false
			result.Files = append(result.Files, FileEntry{
				SourcePath:      path,
				DestinationPath: destPath,
				Size:            copied,
				ErrorMessage:    msg,
			})
			return nil
		}

		result.logf("    Verification successful")
		result.Files = append(result.Files, FileEntry{
			SourcePath:      path,
			DestinationPath: destPath,
			Size:            copied,
			HashVerified:    true,
			Success:         true,
		})
		return nil
	})

	result.logf("  Total files processed: %d", result.FilesProcessed)
	result.logf("  Total size: %d bytes", result.TotalSize)

	result.Success = allOK
	if len(failures) > 0 {
		result.ErrorMessage = joinFailures(failures)
	}
}

// copyFileBulk is the unthrottled path: a plain streamed copy, synced to
// durable storage before returning.
func copyFileBulk(src, dst string) (int64, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	copied, err := io.Copy(dstFile, srcFile)
	if err != nil {
		dstFile.Close()
		return copied, err
	}
	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return copied, err
	}
	return copied, dstFile.Close()
}

// copyFileThrottled copies in fixed chunks, handing each chunk to the
// limiter, and logs coarse progress: every whole-percent crossing, or every
// chunk for files under 10 MiB.
func copyFileThrottled(name, src, dst string, limiter *throttle.Limiter) (int64, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return 0, err
	}
	total := info.Size()

	dstFile, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	if total > 0 {
		log.Printf("[%s] progress: 0%%", name)
	}

	buf := make([]byte, copyChunkSize)
	var copied int64
	lastPercent := 0

	for {
		n, rerr := srcFile.Read(buf)
		if n > 0 {
			if _, werr := dstFile.Write(buf[:n]); werr != nil {
				dstFile.Close()
				return copied, werr
			}
			copied += int64(n)
			limiter.Chunk(n, uint64(total))

			if total > 0 {
				percent := int(copied * 100 / total)
				if percent > 99 {
					percent = 99 // 100% is reported only after the sync
				}
				if percent > lastPercent || total < smallFileThreshold {
					lastPercent = percent
					log.Printf("[%s] progress: %d%% (%s/s)", name, percent, humanize.Bytes(uint64(limiter.CurrentRate())))
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			dstFile.Close()
			return copied, rerr
		}
	}

	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return copied, err
	}
	if err := dstFile.Close(); err != nil {
		return copied, err
	}

	if total > 0 {
		log.Printf("[%s] progress: 100%% (%s/s)", name, humanize.Bytes(uint64(limiter.CurrentRate())))
	}
	return copied, nil
}

// verifyCopy compares the digests of source and destination. A destination
// that differs or cannot be verified is removed before the error returns, so
// a silently corrupt copy is never left in place.
func verifyCopy(src, dst string) error {
	match, err := verify.FilesMatch(src, dst)
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("verification error: %w", err)
	}
	if !match {
		os.Remove(dst)
		return errVerifyMismatch
	}
	return nil
}
