package payload

import (
	"bytes"

	"github.com/RoaringBitmap/roaring"
)

// Verify walks the whole payload and checks the invariants lookups rely on:
// codes strictly ascending (so unique), every string offset resolving to a
// terminated string inside its blob, entry ranges partitioning the entry table
// with no gap or overlap, and each code's entries ordered by
// (weight desc, word asc).
func (r *Reader) Verify() error {
	claimed := roaring.New()
	var prev []byte
	for i := 0; i < int(r.layout.CodeCount); i++ {
		row := r.row(i)
		code, err := r.codeAt(row)
		if err != nil {
			return err
		}
		if len(code) == 0 {
			return corruptf("empty code at index row %d", i)
		}
		if i > 0 && bytes.Compare(prev, code) >= 0 {
			return corruptf("code index not strictly sorted at row %d (%q after %q)", i, code, prev)
		}
		prev = code

		end := uint64(row.first) + uint64(row.count)
		if end > uint64(r.layout.EntryCount) {
			return corruptf("code %q range [%d,%d) beyond %d entries", code, row.first, end, r.layout.EntryCount)
		}
		if row.count == 0 {
			return corruptf("code %q has no entries", code)
		}
		span := roaring.New()
		span.AddRange(uint64(row.first), end)
		if claimed.Intersects(span) {
			return corruptf("code %q range [%d,%d) overlaps another code", code, row.first, end)
		}
		claimed.Or(span)

		list, err := r.entries(string(code), row, -1)
		if err != nil {
			return err
		}
		for j := 1; j < len(list); j++ {
			a, b := list[j-1], list[j]
			if a.Weight < b.Weight || (a.Weight == b.Weight && a.Word > b.Word) {
				return corruptf("code %q entries out of order at %d", code, j)
			}
		}
	}
	if got := claimed.GetCardinality(); got != uint64(r.layout.EntryCount) {
		return corruptf("code ranges cover %d of %d entries", got, r.layout.EntryCount)
	}
	return nil
}
