package index

import (
	"bytes"
	"errors"
	"sync"

	"github.com/google/btree"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/page"
)

var ErrKeyNotFound = errors.New("key not present in index")

const btreeDegree = 16

// indexItem is one (key, rid) entry. Duplicate keys are ordered by rid so
// every entry has a distinct position.
type indexItem struct {
	key []byte
	rid page.RID
}

func (it indexItem) Less(than btree.Item) bool {
	other := than.(indexItem)
	if c := bytes.Compare(it.key, other.key); c != 0 {
		return c < 0
	}
	if it.rid.PageNo != other.rid.PageNo {
		return it.rid.PageNo < other.rid.PageNo
	}
	return it.rid.SlotNo < other.rid.SlotNo
}

// BTreeIndex implements IndexHandle on an in-memory B-tree. The whole leaf
// level is addressed as one logical block, so Iid.LeafNo is always 0 and
// Iid.SlotNo is the entry's ordinal in key order.
type BTreeIndex struct {
	latch  sync.RWMutex
	tree   *btree.BTree
	keyLen uint32
}

func NewBTreeIndex(keyLen uint32) *BTreeIndex {
	return &BTreeIndex{tree: btree.New(btreeDegree), keyLen: keyLen}
}

func (ih *BTreeIndex) KeyLen() uint32 { return ih.keyLen }

// InsertEntry adds key -> rid. The key bytes are copied.
func (ih *BTreeIndex) InsertEntry(key []byte, rid page.RID, txn *access.Transaction) error {
	ih.latch.Lock()
	defer ih.latch.Unlock()

	owned := make([]byte, len(key))
	copy(owned, key)
	ih.tree.ReplaceOrInsert(indexItem{key: owned, rid: rid})
	return nil
}

// DeleteEntry removes every entry stored under key.
func (ih *BTreeIndex) DeleteEntry(key []byte, txn *access.Transaction) error {
	ih.latch.Lock()
	defer ih.latch.Unlock()

	victims := make([]indexItem, 0, 1)
	ih.tree.AscendGreaterOrEqual(indexItem{key: key}, func(item btree.Item) bool {
		entry := item.(indexItem)
		if !bytes.Equal(entry.key, key) {
			return false
		}
		victims = append(victims, entry)
		return true
	})
	if len(victims) == 0 {
		return ErrKeyNotFound
	}
	for _, victim := range victims {
		ih.tree.Delete(victim)
	}
	return nil
}

// LeafBegin returns the position of the smallest entry.
func (ih *BTreeIndex) LeafBegin() Iid {
	return Iid{LeafNo: 0, SlotNo: 0}
}

// LeafEnd returns the position one past the largest entry.
func (ih *BTreeIndex) LeafEnd() Iid {
	ih.latch.RLock()
	defer ih.latch.RUnlock()
	return Iid{LeafNo: 0, SlotNo: int32(ih.tree.Len())}
}

// LowerBound returns the position of the first entry whose leading bytes
// compare >= prefix, so a key prefix tightens a scan's start.
func (ih *BTreeIndex) LowerBound(prefix []byte) Iid {
	return ih.bound(prefix, func(c int) bool { return c < 0 })
}

// UpperBound returns the position one past the last entry whose leading
// bytes compare == prefix.
func (ih *BTreeIndex) UpperBound(prefix []byte) Iid {
	return ih.bound(prefix, func(c int) bool { return c <= 0 })
}

func (ih *BTreeIndex) bound(prefix []byte, below func(int) bool) Iid {
	ih.latch.RLock()
	defer ih.latch.RUnlock()

	count := int32(0)
	ih.tree.Ascend(func(item btree.Item) bool {
		entry := item.(indexItem)
		lead := entry.key
		if len(lead) > len(prefix) {
			lead = lead[:len(prefix)]
		}
		if below(bytes.Compare(lead, prefix)) {
			count++
			return true
		}
		return false
	})
	return Iid{LeafNo: 0, SlotNo: count}
}

// RangeScan materialises the rids in [lower, upper) from a snapshot of the
// tree and returns an iterator over them.
func (ih *BTreeIndex) RangeScan(lower Iid, upper Iid) *IndexRangeScanIterator {
	ih.latch.RLock()
	defer ih.latch.RUnlock()

	rids := make([]page.RID, 0, upper.SlotNo-lower.SlotNo)
	pos := int32(0)
	ih.tree.Ascend(func(item btree.Item) bool {
		if pos >= upper.SlotNo {
			return false
		}
		if pos >= lower.SlotNo {
			rids = append(rids, item.(indexItem).rid)
		}
		pos++
		return true
	})
	return &IndexRangeScanIterator{rids: rids}
}
