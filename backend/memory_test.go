package backend_test

import (
	"testing"

	"github.com/evidencefs/bfio"
	"github.com/evidencefs/bfio/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend__OpenReadWrite__Basic(t *testing.T) {
	buf := make([]byte, 16)
	b := backend.NewMemory(buf)
	require.NoError(t, b.Open(bfio.Read|bfio.Write))

	n, err := b.Write([]byte("helloworld"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	_, err = b.Seek(0, bfio.SeekSet)
	require.NoError(t, err)

	out := make([]byte, 10)
	n, err = b.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "helloworld", string(out))
}

func TestMemoryBackend__Open__RejectsDoubleOpen(t *testing.T) {
	b := backend.NewMemory(make([]byte, 4))
	require.NoError(t, b.Open(bfio.Read))
	err := b.Open(bfio.Read)
	assert.Error(t, err)
}

func TestMemoryBackend__ReadWrite__RejectWrongFlags(t *testing.T) {
	b := backend.NewMemory(make([]byte, 4))
	require.NoError(t, b.Open(bfio.Read))

	_, err := b.Write([]byte("x"))
	assert.Error(t, err, "write must fail when opened read-only")

	wo := backend.NewMemory(make([]byte, 4))
	require.NoError(t, wo.Open(bfio.Write))

	_, err = wo.Read(make([]byte, 1))
	assert.Error(t, err, "read must fail when opened write-only")
}

func TestMemoryBackend__GetSize__IsBufferLength(t *testing.T) {
	b := backend.NewMemory(make([]byte, 128))
	size, err := b.GetSize()
	require.NoError(t, err)
	assert.EqualValues(t, 128, size)
}

func TestMemoryBackend__Exists__TrueWhenBaseNonNil(t *testing.T) {
	b := backend.NewMemory([]byte{1})
	exists, err := b.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	empty := backend.NewMemory(nil)
	exists, err = empty.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryBackend__Clone__SharesBufferButIsUnopened(t *testing.T) {
	buf := []byte("0123456789")
	b := backend.NewMemory(buf)
	require.NoError(t, b.Open(bfio.Read))
	_, err := b.Seek(5, bfio.SeekSet)
	require.NoError(t, err)

	clone, err := b.Clone()
	require.NoError(t, err)

	isOpen, err := clone.IsOpen()
	require.NoError(t, err)
	assert.False(t, isOpen, "Clone must return an unopened backend")

	require.NoError(t, clone.Open(bfio.Read))
	out := make([]byte, 1)
	_, err = clone.Read(out)
	require.NoError(t, err)
	assert.Equal(t, "0", string(out), "a freshly opened clone starts at its own offset 0, sharing the buffer")
}
