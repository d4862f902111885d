// Package rangeindex implements an ordered, gap-free-where-merged set of
// byte intervals. A [Stream] uses it to record which byte ranges have
// actually been returned by read operations; it's an observability aid, not
// a cache, modeled on libbfio's offset list (libbfio_offset_list.c) the way
// disko's blockcache tracks which blocks are loaded/dirty with bitmaps.
package rangeindex

import (
	"math"

	"github.com/evidencefs/bfio/bfioerr"
)

// Interval is a single stored range [Offset, Offset+Size).
type Interval struct {
	Offset int64
	Size   uint64
}

// Last returns the first byte offset past the end of the interval.
func (v Interval) Last() int64 {
	return v.Offset + int64(v.Size)
}

// touches reports whether a and b share a byte or abut each other, the
// condition under which they must be merged into one stored interval.
func touches(a, b Interval) bool {
	return a.Last() >= b.Offset && b.Last() >= a.Offset
}

// Index is an ordered sequence of non-touching, non-empty intervals sorted
// by Offset.
type Index struct {
	intervals []Interval
	// cursor caches the index of the last interval touched by Append or
	// FindByOffset, for amortized locality on sequential access.
	cursor int
}

// New creates an empty range index.
func New() *Index {
	return &Index{}
}

func validateBounds(off int64, size uint64) error {
	if off < 0 {
		return bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef(
			"negative offset %d", off)
	}
	if size > uint64(math.MaxInt64) {
		return bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef(
			"size %d overflows int64", size)
	}
	last := off + int64(size)
	if last < off {
		return bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef(
			"offset %d + size %d overflows int64", off, size)
	}
	return nil
}

// Append inserts [off, off+size) into the index, merging with any
// overlapping or touching neighbors. Traversal starts from the tail, the hot
// path for sequential reads; if the new range precedes the midpoint of the
// list it switches to head-first traversal, keeping bulk sequential append
// amortized near O(1).
func (idx *Index) Append(off int64, size uint64) error {
	if size == 0 {
		return nil
	}
	if err := validateBounds(off, size); err != nil {
		return err
	}

	incoming := Interval{Offset: off, Size: size}
	n := len(idx.intervals)

	// Find the first stored interval with Offset >= incoming.Offset, walking
	// from whichever end is closer to where incoming likely belongs.
	insertAt := n
	if idx.shouldWalkFromTail(incoming, n) {
		insertAt = n
		for i := n - 1; i >= 0; i-- {
			if idx.intervals[i].Offset < incoming.Offset && !touches(idx.intervals[i], incoming) {
				insertAt = i + 1
				break
			}
			insertAt = i
		}
	} else {
		insertAt = n
		for i := 0; i < n; i++ {
			if idx.intervals[i].Offset >= incoming.Offset || touches(idx.intervals[i], incoming) {
				insertAt = i
				break
			}
		}
	}

	// Merge with every neighbor that touches, expanding outward from
	// insertAt in both directions.
	lo := insertAt
	for lo > 0 && touches(idx.intervals[lo-1], incoming) {
		lo--
	}
	hi := insertAt
	for hi < len(idx.intervals) && touches(idx.intervals[hi], incoming) {
		hi++
	}

	if lo == hi {
		// No merge: plain insertion at lo.
		idx.intervals = append(idx.intervals, Interval{})
		copy(idx.intervals[lo+1:], idx.intervals[lo:])
		idx.intervals[lo] = incoming
		idx.cursor = lo
		return nil
	}

	merged := incoming
	if idx.intervals[lo].Offset < merged.Offset {
		merged.Offset = idx.intervals[lo].Offset
	}
	last := merged.Last()
	if idx.intervals[hi-1].Last() > last {
		last = idx.intervals[hi-1].Last()
	}
	merged.Size = uint64(last - merged.Offset)

	idx.intervals = append(idx.intervals[:lo], append([]Interval{merged}, idx.intervals[hi:]...)...)
	idx.cursor = lo
	return nil
}

// shouldWalkFromTail implements the tail-first-with-midpoint-fallback
// traversal heuristic required to keep Append amortized near O(1) on
// sequential reads.
func (idx *Index) shouldWalkFromTail(incoming Interval, n int) bool {
	if n == 0 {
		return false
	}
	mid := idx.intervals[n/2]
	return incoming.Offset >= mid.Offset
}

// Remove deletes [off, off+size) from the index. The removed range must lie
// entirely within a single stored interval; straddling two intervals, or
// matching no interval at all, is an error.
func (idx *Index) Remove(off int64, size uint64) error {
	if err := validateBounds(off, size); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}

	last := off + int64(size)
	for i, e := range idx.intervals {
		if e.Offset > off {
			return bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef(
				"no stored interval contains [%d, %d)", off, last)
		}
		if last > e.Last() {
			continue
		}
		// e.Offset <= off and last <= e.Last(): e is the unique candidate.
		switch {
		case off == e.Offset && last == e.Last():
			idx.intervals = append(idx.intervals[:i], idx.intervals[i+1:]...)
		case off == e.Offset:
			idx.intervals[i].Offset = last
			idx.intervals[i].Size = uint64(e.Last() - last)
		case last == e.Last():
			idx.intervals[i].Size = uint64(off - e.Offset)
		default:
			left := Interval{Offset: e.Offset, Size: uint64(off - e.Offset)}
			right := Interval{Offset: last, Size: uint64(e.Last() - last)}
			idx.intervals = append(idx.intervals[:i], append([]Interval{left, right}, idx.intervals[i+1:]...)...)
		}
		idx.cursor = i
		return nil
	}
	return bfioerr.New(bfioerr.ArgumentInvalid).WithMessagef(
		"no stored interval contains [%d, %d)", off, last)
}

// FindByOffset returns the stored interval containing o, if any.
func (idx *Index) FindByOffset(o int64) (Interval, bool) {
	if n := len(idx.intervals); n > 0 && idx.cursor >= 0 && idx.cursor < n {
		if e := idx.intervals[idx.cursor]; e.Offset <= o && o < e.Last() {
			return e, true
		}
	}
	for i, e := range idx.intervals {
		if e.Offset <= o && o < e.Last() {
			idx.cursor = i
			return e, true
		}
	}
	return Interval{}, false
}

// ContainsAny reports whether any byte in [off, off+size) is covered by a
// stored interval.
func (idx *Index) ContainsAny(off int64, size uint64) bool {
	if size == 0 {
		return false
	}
	last := off + int64(size)
	for _, e := range idx.intervals {
		if e.Offset < last && e.Last() > off {
			return true
		}
	}
	return false
}

// Len returns the number of stored intervals.
func (idx *Index) Len() int {
	return len(idx.intervals)
}

// At returns the i'th stored interval in offset order.
func (idx *Index) At(i int) (Interval, bool) {
	if i < 0 || i >= len(idx.intervals) {
		return Interval{}, false
	}
	return idx.intervals[i], true
}

// Intervals returns a read-only snapshot of every stored interval, in
// offset order.
func (idx *Index) Intervals() []Interval {
	out := make([]Interval, len(idx.intervals))
	copy(out, idx.intervals)
	return out
}
