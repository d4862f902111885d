// Package stream implements [Stream], the orchestration layer that drives a
// backend.Backend through its interface, tracking access flags, the current
// logical offset, a lazily-fetched size, optional open-on-demand mode, and
// an optional read-range index. It generalizes disko's
// file_systems/common/basicstream.BasicStream (which wraps exactly one
// BlockCache) to wrap any backend.Backend.
package stream

import (
	"encoding/binary"
	"io"

	"github.com/evidencefs/bfio/backend"
	"github.com/evidencefs/bfio/bfioerr"
	"github.com/evidencefs/bfio/bfioflags"
	"github.com/evidencefs/bfio/rangeindex"
	"github.com/noxer/bytewriter"
)

// state is the internal Fresh/Open/Closed state machine from spec.md §4.F.
type state int

const (
	stateFresh state = iota
	stateOpen
	stateClosed
)

// Stream orchestrates a single backend.Backend.
type Stream struct {
	backend backend.Backend
	st      state

	flags    bfioflags.AccessFlags
	offset   int64
	size     uint64
	sizeKnown bool

	openOnDemand bool
	trackReads   bool
	reads        *rangeindex.Index

	// PoolLink is the LRU node index a Pool stores while this stream is
	// open, and clears (to -1) on every Close. It's exported so package pool
	// can manage it without a public accessor/mutator pair; other callers
	// must not touch it.
	PoolLink int
}

// New wraps an arbitrary backend.Backend. Most callers should prefer
// NewFile, NewMemory, or NewFileRange.
func New(b backend.Backend) *Stream {
	return &Stream{backend: b, st: stateFresh, PoolLink: -1}
}

// NewFile creates a Stream over a new FileBackend for path.
func NewFile(path []byte, encoding backend.PathEncoding) *Stream {
	return New(backend.NewFile(path, encoding))
}

// NewMemory creates a Stream over a new MemoryBackend wrapping base. The
// caller must keep base alive for the stream's entire lifetime.
func NewMemory(base []byte) *Stream {
	return New(backend.NewMemory(base))
}

// NewFileRange creates a Stream over a new FileRangeBackend view of file.
func NewFileRange(file *backend.FileBackend, rangeOffset, rangeSize uint64) *Stream {
	return New(backend.NewFileRange(file, rangeOffset, rangeSize))
}

// SetOpenOnDemand toggles open-on-demand mode. It is an error to enable it
// together with write access (spec.md §4.F): write tracking and idempotent
// reopen don't mix.
func (s *Stream) SetOpenOnDemand(enabled bool) error {
	if enabled && s.flags.CanWrite() {
		return bfioerr.New(bfioerr.ArgumentInvalid).WithMessage(
			"open-on-demand cannot be combined with write access")
	}
	s.openOnDemand = enabled
	return nil
}

// SetTrackReads toggles read-range tracking. Once enabled, the index is
// allocated lazily and persists even if tracking is later disabled.
func (s *Stream) SetTrackReads(enabled bool) {
	s.trackReads = enabled
	if enabled && s.reads == nil {
		s.reads = rangeindex.New()
	}
}

// ReadRangesLen returns the number of stored read-range entries, or 0 if
// tracking has never been enabled.
func (s *Stream) ReadRangesLen() int {
	if s.reads == nil {
		return 0
	}
	return s.reads.Len()
}

// GetReadRange returns the i'th tracked read range.
func (s *Stream) GetReadRange(i int) (rangeindex.Interval, bool) {
	if s.reads == nil {
		return rangeindex.Interval{}, false
	}
	return s.reads.At(i)
}

// IsOpen reports whether the backend currently holds an open resource.
func (s *Stream) IsOpen() (bool, error) {
	return s.backend.IsOpen()
}

// Exists reports whether the backend's target is reachable.
func (s *Stream) Exists() (bool, error) {
	return s.backend.Exists()
}

// Flags returns the access flags the stream was last (re)opened with.
func (s *Stream) Flags() bfioflags.AccessFlags {
	return s.flags
}

// Open opens the backend with the given flags. If open-on-demand is
// enabled, the backend is not actually opened yet; the flags are recorded
// for the next operation (spec.md §4.F). Open-on-demand combined with write
// access is rejected.
func (s *Stream) Open(flags bfioflags.AccessFlags) error {
	if !flags.IsUsable() {
		return bfioerr.New(bfioerr.ArgumentInvalid).WithMessage(
			"access flags must request at least one of Read or Write")
	}
	if s.openOnDemand && flags.CanWrite() {
		return bfioerr.New(bfioerr.ArgumentInvalid).WithMessage(
			"open-on-demand cannot be combined with write access")
	}

	s.flags = flags
	if s.openOnDemand {
		s.st = stateClosed
		return nil
	}

	if err := s.backend.Open(flags); err != nil {
		return err
	}
	s.st = stateOpen
	return nil
}

// Reopen changes the stream's access flags. If flags equal the current
// flags, this is a no-op that preserves the offset exactly. Otherwise the
// backend is closed and (unless open-on-demand) reopened; the logical
// offset is restored only when the new flags include read (spec.md §9: a
// write-only reopen may target a backend that was just created, and seeking
// it can fail on some OSes). Flags are only committed to the stream after the
// open (and any offset restore) succeeds, so a failed reopen leaves the
// recorded flags and offset unchanged; the backend, closed at the start of
// the reopen, is left closed.
func (s *Stream) Reopen(flags bfioflags.AccessFlags) error {
	if flags == s.flags {
		return nil
	}
	if err := s.Close(); err != nil {
		return err
	}

	if s.openOnDemand {
		s.flags = flags
		s.st = stateClosed
		return nil
	}

	if err := s.backend.Open(flags); err != nil {
		return err
	}
	if flags.CanRead() {
		if _, err := s.backend.Seek(s.offset, bfioflags.SeekSet); err != nil {
			s.backend.Close()
			return err
		}
	}
	s.flags = flags
	s.st = stateOpen
	return nil
}

// ReopenAt is the primitive a Pool uses to transparently reacquire a stream
// it previously evicted: it opens the backend with flags, the way Open
// does, but then forces the backend's cursor to offset via a direct backend
// seek rather than through Seek's no-op-when-offset-matches fast path
// (Stream.offset already equals offset at this point, so Seek itself would
// not touch the backend). Offset restoration is skipped when flags don't
// include read, matching Reopen's asymmetry (spec.md §9).
func (s *Stream) ReopenAt(flags bfioflags.AccessFlags, offset int64) error {
	if s.openOnDemand {
		s.flags = flags
		s.offset = offset
		s.st = stateClosed
		return nil
	}

	if err := s.backend.Open(flags); err != nil {
		return err
	}
	if flags.CanRead() {
		if _, err := s.backend.Seek(offset, bfioflags.SeekSet); err != nil {
			s.backend.Close()
			return err
		}
	}
	s.flags = flags
	s.offset = offset
	s.st = stateOpen
	return nil
}

// Close closes the backend. Under open-on-demand, closing an already-closed
// stream silently succeeds.
func (s *Stream) Close() error {
	if s.openOnDemand {
		isOpen, err := s.backend.IsOpen()
		if err != nil {
			return err
		}
		if !isOpen {
			s.st = stateClosed
			s.PoolLink = -1
			return nil
		}
	}

	err := s.backend.Close()
	s.st = stateClosed
	s.PoolLink = -1
	if err != nil {
		return err
	}
	return nil
}

// ensureOpenForIO opens the backend on demand and resynchronizes its
// position before a read/write/seek, when open-on-demand is enabled and the
// backend is currently closed.
func (s *Stream) ensureOpenForIO() error {
	if !s.openOnDemand {
		return nil
	}
	isOpen, err := s.backend.IsOpen()
	if err != nil {
		return err
	}
	if isOpen {
		return nil
	}
	if err := s.backend.Open(s.flags); err != nil {
		return err
	}
	if _, err := s.backend.Seek(s.offset, bfioflags.SeekSet); err != nil {
		return err
	}
	return nil
}

// Read reads up to len(p) bytes, advancing the logical offset and, if read
// tracking is enabled, recording the covered interval.
func (s *Stream) Read(p []byte) (int, error) {
	if err := s.ensureOpenForIO(); err != nil {
		return 0, err
	}

	n, err := s.backend.Read(p)
	if err != nil {
		return n, err
	}

	if n > 0 {
		if s.trackReads {
			if s.reads == nil {
				s.reads = rangeindex.New()
			}
			if trackErr := s.reads.Append(s.offset, uint64(n)); trackErr != nil {
				return n, trackErr
			}
		}
		s.offset += int64(n)
	}

	if s.openOnDemand {
		if closeErr := s.backend.Close(); closeErr != nil {
			return n, closeErr
		}
	}
	return n, nil
}

// Write writes p, advancing the logical offset. Write is never combined
// with open-on-demand.
func (s *Stream) Write(p []byte) (int, error) {
	n, err := s.backend.Write(p)
	s.offset += int64(n)
	if err != nil {
		return n, err
	}
	return n, nil
}

// Seek repositions the stream. A request for the current offset is a no-op
// that never touches the backend (spec.md §4.F / §8).
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if whence != bfioflags.SeekSet && whence != bfioflags.SeekCur && whence != bfioflags.SeekEnd {
		return 0, bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef("invalid whence %d", whence)
	}

	if whence == bfioflags.SeekSet && offset == s.offset {
		return s.offset, nil
	}

	if err := s.ensureOpenForIO(); err != nil {
		return 0, err
	}

	n, err := s.backend.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	s.offset = n
	return n, nil
}

// GetOffset returns the current logical offset without touching the
// backend.
func (s *Stream) GetOffset() int64 {
	return s.offset
}

// Size returns the backend's size, caching it on first call. The cache is
// never invalidated; callers working with a growing backend must create a
// new Stream.
func (s *Stream) Size() (uint64, error) {
	if s.sizeKnown {
		return s.size, nil
	}
	size, err := s.backend.GetSize()
	if err != nil {
		return 0, err
	}
	s.size = size
	s.sizeKnown = true
	return size, nil
}

// Clone produces a new Stream with an independently opened copy of the
// backend, seeked to this stream's logical offset. The read-range index is
// not cloned.
func (s *Stream) Clone() (*Stream, error) {
	cloneBackend, err := s.backend.Clone()
	if err != nil {
		return nil, err
	}

	clone := New(cloneBackend)
	clone.flags = s.flags
	if err := clone.backend.Open(s.flags); err != nil {
		return nil, err
	}
	clone.st = stateOpen
	if _, err := clone.backend.Seek(s.offset, bfioflags.SeekSet); err != nil {
		return nil, err
	}
	clone.offset = s.offset
	return clone, nil
}

// SnapshotReadRanges serializes the tracked read-range index as a sequence
// of fixed-width (offset, size) records into buf, the way
// file_systems/unixv1/format.go uses bytewriter to serialize fixed-size
// records into a bounded slice. It returns the number of bytes written, and
// an error if buf is too small to hold every record.
func (s *Stream) SnapshotReadRanges(buf []byte) (int, error) {
	if s.reads == nil {
		return 0, nil
	}
	intervals := s.reads.Intervals()
	const recordSize = 16 // int64 offset + uint64 size
	if len(buf) < len(intervals)*recordSize {
		return 0, bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef(
			"buffer too small: need %d bytes for %d ranges, got %d",
			len(intervals)*recordSize, len(intervals), len(buf))
	}

	w := bytewriter.New(buf)
	for _, iv := range intervals {
		if err := binary.Write(w, binary.LittleEndian, iv.Offset); err != nil {
			return 0, bfioerr.New(bfioerr.ResourceExhausted).Wrap(err)
		}
		if err := binary.Write(w, binary.LittleEndian, iv.Size); err != nil {
			return 0, bfioerr.New(bfioerr.ResourceExhausted).Wrap(err)
		}
	}
	return len(intervals) * recordSize, nil
}

var _ io.ReadWriteSeeker = (*Stream)(nil)
