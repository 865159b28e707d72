package transfer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cleverdata/haul/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll(%s) failed: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) failed: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) failed: %v", path, err)
	}
	return string(data)
}

func noLimit() config.RateLimit { return config.RateLimit{} }

func TestCopyFileCreatesParentAndVerifies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "deep", "nested", "dst.txt")
	writeFile(t, src, "payload to copy")

	op := config.FileOperation{Name: "copy one", Origin: src, Destination: dst, Type: config.OpCopy}
	res := executeOperation(op, noLimit())

	if !res.Success {
		t.Fatalf("operation failed: %s", res.ErrorMessage)
	}
	if !res.HashVerified {
		t.Error("HashVerified = false for a successful copy")
	}
	if len(res.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(res.Files))
	}
	entry := res.Files[0]
	if !entry.Success || !entry.HashVerified {
		t.Errorf("file entry = %+v, want verified success", entry)
	}
	if got := readFile(t, dst); got != "payload to copy" {
		t.Errorf("destination content = %q, want %q", got, "payload to copy")
	}
	if res.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, want 1", res.FilesProcessed)
	}
	if res.EndTime.Before(res.StartTime) {
		t.Error("EndTime before StartTime")
	}
}

func TestCopyFileThrottledMatchesContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	content := strings.Repeat("0123456789abcdef", 8192) // 128 KiB, two chunks
	writeFile(t, src, content)

	op := config.FileOperation{
		Name:        "throttled copy",
		Origin:      src,
		Destination: dst,
		Type:        config.OpCopy,
		RateLimit:   config.RateLimit{Enabled: true, BytesPerSecond: 1 << 30},
	}
	res := executeOperation(op, noLimit())

	if !res.Success {
		t.Fatalf("operation failed: %s", res.ErrorMessage)
	}
	if got := readFile(t, dst); got != content {
		t.Error("throttled copy altered content")
	}
	if res.TotalSize != int64(len(content)) {
		t.Errorf("TotalSize = %d, want %d", res.TotalSize, len(content))
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "missing.txt")
	dst := filepath.Join(dir, "dst.txt")

	op := config.FileOperation{Name: "ghost", Origin: src, Destination: dst, Type: config.OpCopy}
	res := executeOperation(op, noLimit())

	if res.Success {
		t.Fatal("operation succeeded with a missing source")
	}
	if !strings.Contains(res.ErrorMessage, "does not exist") {
		t.Errorf("ErrorMessage = %q, want mention of missing source", res.ErrorMessage)
	}
	if _, err := os.Stat(dst); err == nil {
		t.Error("destination was created despite missing source")
	}
}

func TestCopyFileDestinationPrepFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	writeFile(t, src, "x")

	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "a file where a directory must go")
	dst := filepath.Join(blocker, "sub", "dst.txt")

	op := config.FileOperation{Name: "blocked", Origin: src, Destination: dst, Type: config.OpCopy}
	res := executeOperation(op, noLimit())

	if res.Success {
		t.Fatal("operation succeeded despite unbuildable destination parent")
	}
	if !strings.Contains(res.ErrorMessage, "Failed to create destination directory") {
		t.Errorf("ErrorMessage = %q, want destination prep failure", res.ErrorMessage)
	}
	if res.FilesProcessed != 0 {
		t.Errorf("FilesProcessed = %d, want 0 (aborted before transfer)", res.FilesProcessed)
	}
}

func TestVerifyCopyRemovesCorruptDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeFile(t, src, "original bytes")
	writeFile(t, dst, "corrupted bytes")

	err := verifyCopy(src, dst)
	if err == nil {
		t.Fatal("verifyCopy() = nil for differing files")
	}
	if _, serr := os.Stat(dst); serr == nil {
		t.Error("corrupt destination still exists after failed verification")
	}
	if _, serr := os.Stat(src); serr != nil {
		t.Error("source was touched by verification cleanup")
	}
}

func TestCopyDirectoryPartialFailure(t *testing.T) {
	dir := t.TempDir()
	origin := filepath.Join(dir, "origin")
	dest := filepath.Join(dir, "dest")

	writeFile(t, filepath.Join(origin, "a.txt"), "alpha")
	writeFile(t, filepath.Join(origin, "sub", "b.txt"), "beta")
	// Dangling symlinks walk like files but cannot be opened, so they fail
	// deterministically without aborting the walk.
	if err := os.Symlink(filepath.Join(dir, "gone1"), filepath.Join(origin, "broken1")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "gone2"), filepath.Join(origin, "sub", "broken2")); err != nil {
		t.Fatal(err)
	}

	op := config.FileOperation{Name: "tree", Origin: origin, Destination: dest, Type: config.OpCopy}
	res := executeOperation(op, noLimit())

	if res.Success {
		t.Fatal("operation succeeded despite failed entries")
	}
	if res.FilesProcessed != 4 {
		t.Errorf("FilesProcessed = %d, want 4 (attempted files count)", res.FilesProcessed)
	}

	var ok, failed int
	for _, f := range res.Files {
		if f.Success {
			ok++
		} else {
			failed++
		}
	}
	if ok != 2 || failed != 2 {
		t.Errorf("file outcomes = %d ok / %d failed, want 2/2", ok, failed)
	}

	if !strings.Contains(res.ErrorMessage, "; ") {
		t.Errorf("ErrorMessage = %q, want multiple failures joined with %q", res.ErrorMessage, "; ")
	}

	// Successful files are not rolled back.
	if got := readFile(t, filepath.Join(dest, "a.txt")); got != "alpha" {
		t.Errorf("dest a.txt = %q, want %q", got, "alpha")
	}
	if got := readFile(t, filepath.Join(dest, "sub", "b.txt")); got != "beta" {
		t.Errorf("dest sub/b.txt = %q, want %q", got, "beta")
	}
}

func TestCopyDirectoryMirrorsTree(t *testing.T) {
	dir := t.TempDir()
	origin := filepath.Join(dir, "origin")
	dest := filepath.Join(dir, "dest")

	writeFile(t, filepath.Join(origin, "one.txt"), "1")
	writeFile(t, filepath.Join(origin, "x", "two.txt"), "22")
	writeFile(t, filepath.Join(origin, "x", "y", "three.txt"), "333")

	op := config.FileOperation{Name: "mirror", Origin: origin, Destination: dest, Type: config.OpCopy}
	res := executeOperation(op, noLimit())

	if !res.Success {
		t.Fatalf("operation failed: %s", res.ErrorMessage)
	}
	if !res.HashVerified {
		t.Error("HashVerified = false with every file verified")
	}
	if res.FilesProcessed != 3 {
		t.Errorf("FilesProcessed = %d, want 3", res.FilesProcessed)
	}
	if res.TotalSize != 6 {
		t.Errorf("TotalSize = %d, want 6", res.TotalSize)
	}
	if got := readFile(t, filepath.Join(dest, "x", "y", "three.txt")); got != "333" {
		t.Errorf("nested file content = %q, want %q", got, "333")
	}
}

func TestMoveFileOverExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeFile(t, src, "new content")
	writeFile(t, dst, "stale content")

	op := config.FileOperation{Name: "move one", Origin: src, Destination: dst, Type: config.OpMove}
	res := executeOperation(op, noLimit())

	if !res.Success {
		t.Fatalf("operation failed: %s", res.ErrorMessage)
	}
	if !res.HashVerified {
		t.Error("HashVerified = false; moves are verified by existence and report true")
	}
	if got := readFile(t, dst); got != "new content" {
		t.Errorf("destination content = %q, want %q", got, "new content")
	}
	if _, err := os.Stat(src); err == nil {
		t.Error("source still exists after move")
	}

	var sawRemoval bool
	for _, d := range res.Details {
		if strings.Contains(d, "Removed existing destination file") {
			sawRemoval = true
		}
	}
	if !sawRemoval {
		t.Error("details do not record removal of the pre-existing destination")
	}
}

func TestMoveDirectoryOntoItself(t *testing.T) {
	dir := t.TempDir()
	origin := filepath.Join(dir, "data")
	writeFile(t, filepath.Join(origin, "keep.txt"), "keep")

	op := config.FileOperation{Name: "self move", Origin: origin, Destination: origin, Type: config.OpMove}
	res := executeOperation(op, noLimit())

	if res.Success {
		t.Fatal("moving a directory onto itself succeeded")
	}
	if !strings.Contains(res.ErrorMessage, "same directory") {
		t.Errorf("ErrorMessage = %q, want same-directory rejection", res.ErrorMessage)
	}
	if got := readFile(t, filepath.Join(origin, "keep.txt")); got != "keep" {
		t.Error("directory was mutated by a rejected self-move")
	}
}

func TestMoveDirectoryMapsSourcesBack(t *testing.T) {
	dir := t.TempDir()
	origin := filepath.Join(dir, "origin")
	dest := filepath.Join(dir, "moved")
	writeFile(t, filepath.Join(origin, "a.txt"), "a")
	writeFile(t, filepath.Join(origin, "sub", "b.txt"), "bb")

	op := config.FileOperation{Name: "move tree", Origin: origin, Destination: dest, Type: config.OpMove}
	res := executeOperation(op, noLimit())

	if !res.Success {
		t.Fatalf("operation failed: %s", res.ErrorMessage)
	}
	if res.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", res.FilesProcessed)
	}
	if res.TotalSize != 3 {
		t.Errorf("TotalSize = %d, want 3", res.TotalSize)
	}
	if _, err := os.Stat(origin); err == nil {
		t.Error("origin still exists after directory move")
	}

	for _, f := range res.Files {
		if !strings.HasPrefix(f.SourcePath, origin) {
			t.Errorf("entry source %q not mapped back under origin %q", f.SourcePath, origin)
		}
		if !strings.HasPrefix(f.DestinationPath, dest) {
			t.Errorf("entry destination %q not under destination %q", f.DestinationPath, dest)
		}
	}
}

func TestJoinFailures(t *testing.T) {
	if got := joinFailures(nil); got != "" {
		t.Errorf("joinFailures(nil) = %q, want empty", got)
	}
	got := joinFailures([]failure{
		{Path: "/a", Reason: "first reason"},
		{Path: "/b", Reason: "second reason"},
	})
	want := "first reason; second reason"
	if got != want {
		t.Errorf("joinFailures() = %q, want %q", got, want)
	}
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	if !samePath(sub, sub) {
		t.Error("samePath(x, x) = false")
	}
	if !samePath(sub, filepath.Join(dir, ".", "sub")) {
		t.Error("samePath() = false for two spellings of the same path")
	}
	if samePath(sub, dir) {
		t.Error("samePath() = true for different paths")
	}
}
