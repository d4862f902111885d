package bfio

import "github.com/evidencefs/bfio/bfioflags"

// Seek origins, re-exported from bfioflags for callers of this package.
const (
	SeekSet = bfioflags.SeekSet
	SeekCur = bfioflags.SeekCur
	SeekEnd = bfioflags.SeekEnd
)
