package backend

import (
	"github.com/evidencefs/bfio/bfioerr"
	"github.com/evidencefs/bfio/bfioflags"
)

// FileRangeBackend is a Backend that wraps a FileBackend and restricts
// visible offsets to [RangeOffset, RangeOffset+RangeSize). A RangeSize of 0
// means "until the end of the underlying file" (spec.md §4.E).
type FileRangeBackend struct {
	file        *FileBackend
	RangeOffset uint64
	RangeSize   uint64
}

// NewFileRange wraps file, exposing only the given byte range of it.
func NewFileRange(file *FileBackend, rangeOffset, rangeSize uint64) *FileRangeBackend {
	return &FileRangeBackend{file: file, RangeOffset: rangeOffset, RangeSize: rangeSize}
}

// Open implements Backend. It opens the underlying file and seeks to the
// start of the range.
func (b *FileRangeBackend) Open(flags bfioflags.AccessFlags) error {
	if err := b.file.Open(flags); err != nil {
		return err
	}
	if _, err := b.file.Seek(int64(b.RangeOffset), bfioflags.SeekSet); err != nil {
		b.file.Close()
		return err
	}
	return nil
}

// Close implements Backend.
func (b *FileRangeBackend) Close() error {
	return b.file.Close()
}

// IsOpen implements Backend.
func (b *FileRangeBackend) IsOpen() (bool, error) {
	return b.file.IsOpen()
}

// Exists implements Backend.
func (b *FileRangeBackend) Exists() (bool, error) {
	return b.file.Exists()
}

// effectiveSize returns RangeSize, or the underlying file size minus
// RangeOffset when RangeSize is 0.
func (b *FileRangeBackend) effectiveSize() (uint64, error) {
	if b.RangeSize != 0 {
		return b.RangeSize, nil
	}
	underlyingSize, err := b.file.GetSize()
	if err != nil {
		return 0, err
	}
	if underlyingSize < b.RangeOffset {
		return 0, nil
	}
	return underlyingSize - b.RangeOffset, nil
}

// currentLogicalOffset returns the stream's current position relative to
// RangeOffset.
func (b *FileRangeBackend) currentLogicalOffset() (int64, error) {
	abs, err := b.file.Seek(0, bfioflags.SeekCur)
	if err != nil {
		return 0, err
	}
	return abs - int64(b.RangeOffset), nil
}

// Read implements Backend, clamping the read to the end of the range.
func (b *FileRangeBackend) Read(p []byte) (int, error) {
	size, err := b.effectiveSize()
	if err != nil {
		return 0, err
	}
	logical, err := b.currentLogicalOffset()
	if err != nil {
		return 0, err
	}
	if logical >= int64(size) {
		return 0, nil
	}

	remaining := int64(size) - logical
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	return b.file.Read(p)
}

// Write implements Backend, clamping the write to the end of the range when
// RangeSize is nonzero.
func (b *FileRangeBackend) Write(p []byte) (int, error) {
	if b.RangeSize == 0 {
		return b.file.Write(p)
	}
	size, err := b.effectiveSize()
	if err != nil {
		return 0, err
	}
	logical, err := b.currentLogicalOffset()
	if err != nil {
		return 0, err
	}
	if logical >= int64(size) {
		return 0, bfioerr.New(bfioerr.ArgumentInvalid).WithMessage(
			"write past the end of the file range")
	}
	remaining := int64(size) - logical
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	return b.file.Write(p)
}

// Seek implements Backend. The logical offset presented to callers is
// measured from RangeOffset; End is relative to the effective range size.
func (b *FileRangeBackend) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case bfioflags.SeekSet:
		target = offset
	case bfioflags.SeekCur:
		logical, err := b.currentLogicalOffset()
		if err != nil {
			return 0, err
		}
		target = logical + offset
	case bfioflags.SeekEnd:
		size, err := b.effectiveSize()
		if err != nil {
			return 0, err
		}
		target = int64(size) + offset
	default:
		return 0, bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef("invalid whence %d", whence)
	}

	if target < 0 {
		return 0, bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef(
			"seek would produce negative offset %d", target)
	}

	if _, err := b.file.Seek(int64(b.RangeOffset)+target, bfioflags.SeekSet); err != nil {
		return 0, err
	}
	return target, nil
}

// GetSize implements Backend.
func (b *FileRangeBackend) GetSize() (uint64, error) {
	return b.effectiveSize()
}

// Clone implements Backend. The clone is unopened, like the inner file
// backend it wraps.
func (b *FileRangeBackend) Clone() (Backend, error) {
	innerClone, err := b.file.Clone()
	if err != nil {
		return nil, err
	}
	fileClone, ok := innerClone.(*FileBackend)
	if !ok {
		return nil, bfioerr.New(bfioerr.StateInvalid).WithMessage("unexpected clone type")
	}
	return &FileRangeBackend{file: fileClone, RangeOffset: b.RangeOffset, RangeSize: b.RangeSize}, nil
}
