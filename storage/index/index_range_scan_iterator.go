package index

import "github.com/violet-cai/rucbase/storage/page"

// IndexRangeScanIterator yields rids in key order between the bounds its
// scan was opened with.
type IndexRangeScanIterator struct {
	rids []page.RID
	pos  int
}

// Next advances the iterator. Calling it at the end is a no-op.
func (it *IndexRangeScanIterator) Next() {
	if it.pos < len(it.rids) {
		it.pos++
	}
}

// RID returns the rid under the cursor.
func (it *IndexRangeScanIterator) RID() page.RID {
	return it.rids[it.pos]
}

// IsEnd reports whether the iterator ran past the last entry.
func (it *IndexRangeScanIterator) IsEnd() bool {
	return it.pos >= len(it.rids)
}
