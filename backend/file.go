package backend

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/evidencefs/bfio/bfioerr"
	"github.com/evidencefs/bfio/bfioflags"
)

// PathEncoding tags how Path should be interpreted by whatever layer turns
// it into an OS-native path string. The core never performs the conversion
// itself (spec.md §1: "character-encoding conversion ... out of scope"); it
// only remembers the tag so error messages and callers can make sense of the
// bytes.
type PathEncoding int

const (
	// Narrow means Path is a narrow (single- or multi-byte, e.g. UTF-8)
	// encoded string.
	Narrow PathEncoding = iota
	// Wide means Path is a wide (UTF-16-ish) encoded string.
	Wide
)

// FileBackend is a Backend over a native OS file descriptor.
type FileBackend struct {
	Path         []byte
	PathEncoding PathEncoding

	file  *os.File
	flags bfioflags.AccessFlags
}

// NewFile creates a FileBackend for the given path. The backend is not
// opened; call Open to acquire the OS descriptor.
func NewFile(path []byte, encoding PathEncoding) *FileBackend {
	return &FileBackend{Path: path, PathEncoding: encoding}
}

func (b *FileBackend) pathString() string {
	return string(b.Path)
}

// osFlags translates bfioflags.AccessFlags into os.OpenFile flags per spec.md
// §4.C:
//
//   - read|write  -> create-if-missing, read/write
//   - read only   -> open-existing, read-only
//   - write only  -> create-if-missing, write-only
//   - +truncate (with write) -> truncate-existing
func osFlags(flags bfioflags.AccessFlags) (int, error) {
	if !flags.IsUsable() {
		return 0, bfioerr.New(bfioerr.ArgumentInvalid).WithMessage(
			"access flags must request at least one of Read or Write")
	}

	var osFlag int
	switch {
	case flags.CanRead() && flags.CanWrite():
		osFlag = os.O_RDWR | os.O_CREATE
	case flags.CanRead():
		osFlag = os.O_RDONLY
	case flags.CanWrite():
		osFlag = os.O_WRONLY | os.O_CREATE
	}

	if flags.CanWrite() && flags.WantsTruncate() {
		osFlag |= os.O_TRUNC
	}
	return osFlag, nil
}

// Open implements Backend.
func (b *FileBackend) Open(flags bfioflags.AccessFlags) error {
	osFlag, err := osFlags(flags)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(b.pathString(), osFlag, 0o644)
	if err != nil {
		kind := bfioerr.IoOpen
		switch {
		case errors.Is(err, fs.ErrPermission):
			kind = bfioerr.PermissionDenied
		case errors.Is(err, fs.ErrNotExist):
			kind = bfioerr.NotFound
		}
		return bfioerr.New(kind).WithMessagef("open %q", b.pathString()).Wrap(err)
	}

	b.file = f
	b.flags = flags
	return nil
}

// Close implements Backend.
func (b *FileBackend) Close() error {
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	if err != nil {
		return bfioerr.New(bfioerr.IoClose).WithMessagef("close %q", b.pathString()).Wrap(err)
	}
	return nil
}

// IsOpen implements Backend.
func (b *FileBackend) IsOpen() (bool, error) {
	return b.file != nil, nil
}

// Exists implements Backend. It attempts to open the path read-only:
// permission-denied is reported as existing, not-found as absent, any other
// error is propagated (spec.md §4.C).
func (b *FileBackend) Exists() (bool, error) {
	f, err := os.OpenFile(b.pathString(), os.O_RDONLY, 0)
	if err == nil {
		f.Close()
		return true, nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, bfioerr.New(bfioerr.IoOpen).WithMessagef("exists %q", b.pathString()).Wrap(err)
}

// Read implements Backend. A return of 0 on read is end-of-file, not an
// error.
func (b *FileBackend) Read(p []byte) (int, error) {
	if b.file == nil {
		return 0, bfioerr.New(bfioerr.StateInvalid).WithMessage("file backend is not open")
	}
	n, err := b.file.Read(p)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		return n, bfioerr.New(bfioerr.IoRead).WithMessagef("read %q", b.pathString()).Wrap(err)
	}
	return n, nil
}

// Write implements Backend.
func (b *FileBackend) Write(p []byte) (int, error) {
	if b.file == nil {
		return 0, bfioerr.New(bfioerr.StateInvalid).WithMessage("file backend is not open")
	}
	n, err := b.file.Write(p)
	if err != nil {
		return n, bfioerr.New(bfioerr.IoWrite).WithMessagef("write %q", b.pathString()).Wrap(err)
	}
	return n, nil
}

// Seek implements Backend.
func (b *FileBackend) Seek(offset int64, whence int) (int64, error) {
	if b.file == nil {
		return 0, bfioerr.New(bfioerr.StateInvalid).WithMessage("file backend is not open")
	}
	if whence != bfioflags.SeekSet && whence != bfioflags.SeekCur && whence != bfioflags.SeekEnd {
		return 0, bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef("invalid whence %d", whence)
	}
	n, err := b.file.Seek(offset, whence)
	if err != nil {
		return 0, bfioerr.New(bfioerr.IoSeek).WithMessagef("seek %q", b.pathString()).Wrap(err)
	}
	return n, nil
}

// GetSize implements Backend, preferring Stat (which doesn't require the
// file to be open) and falling back to seek-to-end-and-back.
func (b *FileBackend) GetSize() (uint64, error) {
	if b.file != nil {
		stat, err := b.file.Stat()
		if err == nil {
			return uint64(stat.Size()), nil
		}
	} else {
		stat, err := os.Stat(b.pathString())
		if err == nil {
			return uint64(stat.Size()), nil
		}
	}

	if b.file == nil {
		return 0, bfioerr.New(bfioerr.IoOpen).WithMessagef("stat %q", b.pathString())
	}

	cur, err := b.file.Seek(0, bfioflags.SeekCur)
	if err != nil {
		return 0, bfioerr.New(bfioerr.IoSeek).Wrap(err)
	}
	end, err := b.file.Seek(0, bfioflags.SeekEnd)
	if err != nil {
		return 0, bfioerr.New(bfioerr.IoSeek).Wrap(err)
	}
	if _, err := b.file.Seek(cur, bfioflags.SeekSet); err != nil {
		return 0, bfioerr.New(bfioerr.IoSeek).Wrap(err)
	}
	return uint64(end), nil
}

// Clone implements Backend. The clone is unopened; the caller opens it
// independently over the same path.
func (b *FileBackend) Clone() (Backend, error) {
	return &FileBackend{Path: append([]byte(nil), b.Path...), PathEncoding: b.PathEncoding}, nil
}
