package backend_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evidencefs/bfio"
	"github.com/evidencefs/bfio/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRangeBackend__ClampsReadAtRangeEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranged.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o600))

	file := backend.NewFile([]byte(path), backend.Narrow)
	fr := backend.NewFileRange(file, 100, 50)

	require.NoError(t, fr.Open(bfio.Read))
	defer fr.Close()

	size, err := fr.GetSize()
	require.NoError(t, err)
	assert.EqualValues(t, 50, size)

	n, err := fr.Seek(40, bfio.SeekSet)
	require.NoError(t, err)
	assert.EqualValues(t, 40, n)

	buf := make([]byte, 20)
	read, err := fr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 10, read, "read must clamp to the 10 bytes remaining in the range")

	read, err = fr.Read(buf[:1])
	require.NoError(t, err)
	assert.Equal(t, 0, read, "reading past the range end yields 0 bytes, not an error")
}

func TestFileRangeBackend__SeekIsRelativeToRangeOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranged.bin")
	contents := make([]byte, 1024)
	for i := range contents {
		contents[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	file := backend.NewFile([]byte(path), backend.Narrow)
	fr := backend.NewFileRange(file, 100, 50)
	require.NoError(t, fr.Open(bfio.Read))
	defer fr.Close()

	n, err := fr.Seek(0, bfio.SeekSet)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	buf := make([]byte, 1)
	_, err = fr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, byte(100), buf[0], "offset 0 of the range must map to byte 100 of the underlying file")
}

func TestFileRangeBackend__ZeroRangeSizeMeansToEndOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranged.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o600))

	file := backend.NewFile([]byte(path), backend.Narrow)
	fr := backend.NewFileRange(file, 100, 0)
	require.NoError(t, fr.Open(bfio.Read))
	defer fr.Close()

	size, err := fr.GetSize()
	require.NoError(t, err)
	assert.EqualValues(t, 924, size)
}

func TestFileRangeBackend__Write__RejectsPastRangeEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranged.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o600))

	file := backend.NewFile([]byte(path), backend.Narrow)
	fr := backend.NewFileRange(file, 100, 10)
	require.NoError(t, fr.Open(bfio.Read|bfio.Write))
	defer fr.Close()

	_, err := fr.Seek(10, bfio.SeekSet)
	require.NoError(t, err)

	_, err = fr.Write([]byte("x"))
	assert.Error(t, err)
}
