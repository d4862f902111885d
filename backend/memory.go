package backend

import (
	"io"

	"github.com/evidencefs/bfio/bfioerr"
	"github.com/evidencefs/bfio/bfioflags"
	"github.com/xaionaro-go/bytesextra"
)

// MemoryBackend is a Backend over a caller-owned byte slice. The caller must
// keep the slice alive for the entire lifetime of the backend (spec.md §5).
//
// Cursor arithmetic is delegated to bytesextra.ReadWriteSeeker, the same
// helper disko's blockcache.WrapSlice uses to turn a raw []byte into an
// io.ReadWriteSeeker, instead of hand-rolling offset math here.
type MemoryBackend struct {
	base   []byte
	seeker io.ReadWriteSeeker
	flags  bfioflags.AccessFlags
}

// NewMemory creates a MemoryBackend over base. The backend is not open until
// Open is called.
func NewMemory(base []byte) *MemoryBackend {
	return &MemoryBackend{base: base}
}

// Open implements Backend. It resets the cursor to 0.
func (b *MemoryBackend) Open(flags bfioflags.AccessFlags) error {
	if !flags.IsUsable() {
		return bfioerr.New(bfioerr.ArgumentInvalid).WithMessage(
			"access flags must request at least one of Read or Write")
	}
	if b.seeker != nil {
		return bfioerr.New(bfioerr.StateInvalid).WithMessage("memory backend already open")
	}
	b.seeker = bytesextra.NewReadWriteSeeker(b.base)
	b.flags = flags
	return nil
}

// Close implements Backend.
func (b *MemoryBackend) Close() error {
	b.seeker = nil
	b.flags = 0
	return nil
}

// IsOpen implements Backend.
func (b *MemoryBackend) IsOpen() (bool, error) {
	return b.seeker != nil, nil
}

// Exists implements Backend. A memory backend trivially exists whenever it
// has a non-nil base buffer.
func (b *MemoryBackend) Exists() (bool, error) {
	return b.base != nil, nil
}

// Read implements Backend, copying min(len(p), remaining) bytes.
func (b *MemoryBackend) Read(p []byte) (int, error) {
	if b.seeker == nil {
		return 0, bfioerr.New(bfioerr.StateInvalid).WithMessage("memory backend is not open")
	}
	if !b.flags.CanRead() {
		return 0, bfioerr.New(bfioerr.StateInvalid).WithMessage("memory backend not opened for reading")
	}
	n, err := b.seeker.Read(p)
	if err != nil && err != io.EOF {
		return n, bfioerr.New(bfioerr.IoRead).Wrap(err)
	}
	return n, nil
}

// Write implements Backend.
func (b *MemoryBackend) Write(p []byte) (int, error) {
	if b.seeker == nil {
		return 0, bfioerr.New(bfioerr.StateInvalid).WithMessage("memory backend is not open")
	}
	if !b.flags.CanWrite() {
		return 0, bfioerr.New(bfioerr.StateInvalid).WithMessage("memory backend not opened for writing")
	}
	n, err := b.seeker.Write(p)
	if err != nil {
		return n, bfioerr.New(bfioerr.IoWrite).Wrap(err)
	}
	return n, nil
}

// Seek implements Backend. Negative results are an error; results beyond the
// end of the buffer succeed and simply yield 0 bytes on the next read,
// matching file semantics.
func (b *MemoryBackend) Seek(offset int64, whence int) (int64, error) {
	if b.seeker == nil {
		return 0, bfioerr.New(bfioerr.StateInvalid).WithMessage("memory backend is not open")
	}
	if whence != bfioflags.SeekSet && whence != bfioflags.SeekCur && whence != bfioflags.SeekEnd {
		return 0, bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef("invalid whence %d", whence)
	}
	n, err := b.seeker.Seek(offset, whence)
	if err != nil {
		return 0, bfioerr.New(bfioerr.IoSeek).Wrap(err)
	}
	return n, nil
}

// GetSize implements Backend.
func (b *MemoryBackend) GetSize() (uint64, error) {
	return uint64(len(b.base)), nil
}

// Clone implements Backend. The clone shares the same underlying buffer (the
// caller owns it) but is unopened and has its own independent cursor once
// opened.
func (b *MemoryBackend) Clone() (Backend, error) {
	return &MemoryBackend{base: b.base}, nil
}
