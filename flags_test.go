package bfio_test

import (
	"testing"

	"github.com/evidencefs/bfio"
	"github.com/stretchr/testify/assert"
)

func TestAccessFlags__CanReadCanWrite(t *testing.T) {
	assert.True(t, bfio.Read.CanRead())
	assert.False(t, bfio.Read.CanWrite())
	assert.True(t, bfio.Write.CanWrite())
	assert.False(t, bfio.Write.CanRead())

	both := bfio.Read | bfio.Write
	assert.True(t, both.CanRead())
	assert.True(t, both.CanWrite())
}

func TestAccessFlags__WantsTruncate__OnlySetWhenRequested(t *testing.T) {
	assert.False(t, bfio.Read.WantsTruncate())
	assert.True(t, (bfio.Write | bfio.Truncate).WantsTruncate())
}

func TestAccessFlags__IsUsable(t *testing.T) {
	assert.False(t, bfio.AccessFlags(0).IsUsable())
	assert.True(t, bfio.Read.IsUsable())
	assert.True(t, bfio.Write.IsUsable())
}

func TestAccessFlags__String(t *testing.T) {
	assert.Equal(t, "r", bfio.Read.String())
	assert.Equal(t, "w", bfio.Write.String())
	assert.Equal(t, "rw", (bfio.Read | bfio.Write).String())
	assert.Equal(t, "-", bfio.AccessFlags(0).String())
}
