package backend_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evidencefs/bfio"
	"github.com/evidencefs/bfio/backend"
	"github.com/evidencefs/bfio/bfioerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, contents []byte) string {
	path := filepath.Join(t.TempDir(), "fixture.bin")
	require.NoError(t, os.WriteFile(path, contents, 0o600))
	return path
}

func TestFileBackend__OpenReadClose__Basic(t *testing.T) {
	path := writeFixture(t, []byte("hello world"))
	b := backend.NewFile([]byte(path), backend.Narrow)

	require.NoError(t, b.Open(bfio.Read))
	isOpen, err := b.IsOpen()
	require.NoError(t, err)
	assert.True(t, isOpen)

	buf := make([]byte, 5)
	n, err := b.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	require.NoError(t, b.Close())
	isOpen, err = b.IsOpen()
	require.NoError(t, err)
	assert.False(t, isOpen)
}

func TestFileBackend__Read__EOFReturnsZeroNoError(t *testing.T) {
	path := writeFixture(t, []byte("ab"))
	b := backend.NewFile([]byte(path), backend.Narrow)
	require.NoError(t, b.Open(bfio.Read))
	defer b.Close()

	buf := make([]byte, 2)
	n, err := b.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = b.Read(buf)
	assert.NoError(t, err, "EOF must not surface as an error")
	assert.Equal(t, 0, n)
}

func TestFileBackend__Open__MissingFileIsNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist.bin")
	b := backend.NewFile([]byte(missing), backend.Narrow)
	err := b.Open(bfio.Read)
	assert.Error(t, err)
	assert.ErrorIs(t, err, bfioerr.New(bfioerr.NotFound))
}

func TestFileBackend__Exists(t *testing.T) {
	path := writeFixture(t, []byte("x"))
	b := backend.NewFile([]byte(path), backend.Narrow)
	exists, err := b.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	missing := backend.NewFile([]byte(filepath.Join(t.TempDir(), "nope")), backend.Narrow)
	exists, err = missing.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileBackend__Write__CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.bin")
	b := backend.NewFile([]byte(path), backend.Narrow)
	require.NoError(t, b.Open(bfio.Write))

	n, err := b.Write([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	require.NoError(t, b.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestFileBackend__GetSize(t *testing.T) {
	path := writeFixture(t, make([]byte, 42))
	b := backend.NewFile([]byte(path), backend.Narrow)
	require.NoError(t, b.Open(bfio.Read))
	defer b.Close()

	size, err := b.GetSize()
	require.NoError(t, err)
	assert.EqualValues(t, 42, size)
}

func TestFileBackend__Seek(t *testing.T) {
	path := writeFixture(t, []byte("0123456789"))
	b := backend.NewFile([]byte(path), backend.Narrow)
	require.NoError(t, b.Open(bfio.Read))
	defer b.Close()

	n, err := b.Seek(5, bfio.SeekSet)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	buf := make([]byte, 1)
	_, err = b.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "5", string(buf))
}

func TestFileBackend__Clone__IsIndependentAndUnopened(t *testing.T) {
	path := writeFixture(t, []byte("0123456789"))
	b := backend.NewFile([]byte(path), backend.Narrow)
	require.NoError(t, b.Open(bfio.Read))
	defer b.Close()

	_, err := b.Seek(4, bfio.SeekSet)
	require.NoError(t, err)

	clone, err := b.Clone()
	require.NoError(t, err)

	isOpen, err := clone.IsOpen()
	require.NoError(t, err)
	assert.False(t, isOpen, "Clone must return an unopened backend")

	require.NoError(t, clone.Open(bfio.Read))
	defer clone.Close()

	buf := make([]byte, 1)
	_, err = clone.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "0", string(buf), "a freshly opened clone starts at its own offset 0")
}
