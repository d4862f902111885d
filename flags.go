// Package bfio provides a uniform byte-stream abstraction over files,
// bounded slices of files, and in-memory buffers, plus a bounded-concurrency
// pool that multiplexes a fixed cap of open OS descriptors across an
// unbounded logical set of such streams.
package bfio

import "github.com/evidencefs/bfio/bfioflags"

// AccessFlags selects which operations a backend or stream may perform. It
// is an alias for bfioflags.AccessFlags, the type backend/stream/pool
// actually use, so callers of this package and its subpackages share one
// type.
type AccessFlags = bfioflags.AccessFlags

const (
	// Read permits read operations.
	Read = bfioflags.Read
	// Write permits write operations.
	Write = bfioflags.Write
	// Truncate requests the backing store be truncated on open. Only
	// meaningful combined with Write.
	Truncate = bfioflags.Truncate
)
