package page

import (
	"fmt"

	"github.com/violet-cai/rucbase/types"
)

// RID is the record identifier for the given page number and slot number.
// It stays stable for the record's lifetime.
type RID struct {
	PageNo types.PageID
	SlotNo int32
}

// InvalidRID returns the sentinel value that denotes "no record".
func InvalidRID() RID {
	return RID{PageNo: 0, SlotNo: -1}
}

// Set sets the record identifier
func (r *RID) Set(pageNo types.PageID, slotNo int32) {
	r.PageNo = pageNo
	r.SlotNo = slotNo
}

func (r RID) String() string {
	return fmt.Sprintf("(%d,%d)", r.PageNo, r.SlotNo)
}
