// Package backend provides the concrete byte-source implementations a
// [stream.Stream] drives: a regular OS file, a bounded slice of an OS file,
// and an in-memory buffer. Each renders libbfio's ten-function vtable
// (libbfio_handle.h) as a Go interface, the translation Design Notes
// explicitly permits in place of raw function pointers over opaque state.
package backend

import "github.com/evidencefs/bfio/bfioflags"

// Backend is the capability a Stream drives. Every method corresponds to one
// vtable entry from spec.md §4.B; free_state/clone_state collapse into
// ordinary Go garbage collection plus Clone.
type Backend interface {
	// Open acquires the underlying resource with the given access flags.
	Open(flags bfioflags.AccessFlags) error
	// Close releases the underlying resource.
	Close() error
	// IsOpen reports whether the backend currently holds an open resource.
	IsOpen() (bool, error)
	// Exists reports whether the backend's target is reachable, independent
	// of whether it's currently open.
	Exists() (bool, error)
	// Read reads into p, returning the number of bytes actually read. A
	// return of 0 with a nil error means end of stream.
	Read(p []byte) (int, error)
	// Write writes from p, returning the number of bytes actually written.
	Write(p []byte) (int, error)
	// Seek repositions the backend's cursor and returns the new absolute
	// offset, measured from the backend's own origin (for FileRangeBackend,
	// relative to the range, not the underlying file).
	Seek(offset int64, whence int) (int64, error)
	// GetSize returns the backend's current size in bytes.
	GetSize() (uint64, error)
	// Clone produces an independent, unopened backend over the same
	// underlying resource (path or shared buffer), sharing no mutable state
	// with the original. The caller is responsible for opening it.
	Clone() (Backend, error)
}
