package index

import (
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/page"
)

// Iid addresses one entry position on the index's leaf level. LeafNo is the
// leaf block and SlotNo the entry's ordinal inside it.
type Iid struct {
	LeafNo int32
	SlotNo int32
}

// IndexHandle is the contract the executors program against: an ordered
// mapping from fixed-width key bytes to rids. Keys are the concatenation of
// the indexed columns' bytes, no separator, no length prefix.
type IndexHandle interface {
	InsertEntry(key []byte, rid page.RID, txn *access.Transaction) error
	DeleteEntry(key []byte, txn *access.Transaction) error
	LeafBegin() Iid
	LeafEnd() Iid
	RangeScan(lower Iid, upper Iid) *IndexRangeScanIterator
	LowerBound(prefix []byte) Iid
	UpperBound(prefix []byte) Iid
}
