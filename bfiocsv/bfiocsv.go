// Package bfiocsv renders range-index and pool diagnostics as CSV, for
// external tooling to inspect stream coverage and pool occupancy without
// walking the Go API. This mirrors disko's disks.go, which (un)marshals
// DiskGeometry rows with gocarina/gocsv's csv struct tags.
package bfiocsv

import (
	"io"

	"github.com/evidencefs/bfio/pool"
	"github.com/evidencefs/bfio/rangeindex"
	"github.com/gocarina/gocsv"
)

// RangeRow is one CSV row describing a stored interval in a range index.
type RangeRow struct {
	Offset int64  `csv:"offset"`
	Size   uint64 `csv:"size"`
	Last   int64  `csv:"last"`
}

// ExportRanges writes every interval in idx to w as CSV.
func ExportRanges(idx *rangeindex.Index, w io.Writer) error {
	rows := make([]RangeRow, 0, idx.Len())
	for _, iv := range idx.Intervals() {
		rows = append(rows, RangeRow{Offset: iv.Offset, Size: iv.Size, Last: iv.Last()})
	}
	return gocsv.Marshal(&rows, w)
}

// SlotRow is one CSV row describing a single pool slot.
type SlotRow struct {
	Entry    int    `csv:"entry"`
	Occupied bool   `csv:"occupied"`
	Open     bool   `csv:"open"`
	Offset   int64  `csv:"offset"`
	Flags    string `csv:"flags"`
}

// ExportSlots writes a diagnostic row for every occupied slot in p to w as
// CSV.
func ExportSlots(p *pool.Pool, w io.Writer) error {
	rows := make([]SlotRow, 0, p.NumSlots())
	for entry := 0; entry < p.NumSlots(); entry++ {
		s, err := p.GetStream(entry)
		if err != nil {
			continue
		}
		isOpen, err := s.IsOpen()
		if err != nil {
			return err
		}
		flags, err := p.GetFlags(entry)
		if err != nil {
			return err
		}
		rows = append(rows, SlotRow{
			Entry:    entry,
			Occupied: true,
			Open:     isOpen,
			Offset:   s.GetOffset(),
			Flags:    flags.String(),
		})
	}
	return gocsv.Marshal(&rows, w)
}
