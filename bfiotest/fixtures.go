// Package bfiotest provides shared test fixtures for exercising backends,
// streams, and pools: deterministic and random byte buffers, and scratch
// files on disk. It plays the role disko's testing package plays for that
// repo's block-cache and filesystem tests.
package bfiotest

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RandomBytes returns n cryptographically random bytes. It is guaranteed to
// either return a slice of exactly n bytes or fail the test and abort.
func RandomBytes(t *testing.T, n int) []byte {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	require.NoErrorf(t, err, "failed to generate %d random bytes", n)
	return buf
}

// SequentialBytes returns n bytes whose i'th value is byte(i), useful where
// a test needs to assert on exactly which bytes landed at which offset.
func SequentialBytes(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}

// TempFile creates a scratch file under t's temp directory containing
// contents, and returns its path. The file is removed automatically when
// the test completes.
func TempFile(t *testing.T, name string, contents []byte) string {
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, contents, 0o600)
	require.NoErrorf(t, err, "failed to create fixture file %q", path)
	return path
}

// ReadFileContents reads path back for assertions, failing the test on any
// error.
func ReadFileContents(t *testing.T, path string) []byte {
	data, err := os.ReadFile(path)
	require.NoErrorf(t, err, "failed to read back fixture file %q", path)
	return data
}
