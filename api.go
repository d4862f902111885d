package bfio

import (
	"github.com/evidencefs/bfio/backend"
	"github.com/evidencefs/bfio/pool"
	"github.com/evidencefs/bfio/stream"
)

// NewFileStream creates a Stream backed by the file at path.
func NewFileStream(path []byte, encoding backend.PathEncoding) *stream.Stream {
	return stream.NewFile(path, encoding)
}

// NewMemoryStream creates a Stream backed by base. The caller must keep base
// alive for the stream's entire lifetime.
func NewMemoryStream(base []byte) *stream.Stream {
	return stream.NewMemory(base)
}

// NewFileRangeStream creates a Stream over a bounded view of file, spanning
// [rangeOffset, rangeOffset+rangeSize). A rangeSize of 0 means "to the end of
// the file".
func NewFileRangeStream(file *backend.FileBackend, rangeOffset, rangeSize uint64) *stream.Stream {
	return stream.NewFileRange(file, rangeOffset, rangeSize)
}

// NewPool creates a Pool with initialSlots pre-allocated empty slots and a
// cap of maxOpen concurrently open streams. A maxOpen of 0 means unbounded.
func NewPool(initialSlots, maxOpen int) *pool.Pool {
	return pool.New(initialSlots, maxOpen)
}
