// Package verify provides the post-copy integrity check: whole-file SHA-256
// comparison, recomputed on every call.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const bufferSize = 8192

// Digest streams the file through SHA-256 and returns the lowercase hex
// digest.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	buf := make([]byte, bufferSize)

	for {
		n, err := f.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FilesMatch reports whether both files exist and have identical content.
// A missing file on either side is a plain false, not an error, and no
// hashing happens in that case.
func FilesMatch(a, b string) (bool, error) {
	if _, err := os.Stat(a); err != nil {
		return false, nil
	}
	if _, err := os.Stat(b); err != nil {
		return false, nil
	}

	digestA, err := Digest(a)
	if err != nil {
		return false, err
	}
	digestB, err := Digest(b)
	if err != nil {
		return false, err
	}

	return digestA == digestB, nil
}
