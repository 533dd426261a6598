package executors

import (
	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/page"
)

// Executor is the pull contract shared by the read operators.
//
// Init positions the operator on the first qualifying row (or at the end)
// and must be called before anything else. NextTuple advances to the next
// qualifying row and is idempotent once the operator is at the end. Current
// materialises the row under the cursor and must not be called once End
// reports true.
//
// Columns describes the output rows, with offsets relative to the
// operator's own output layout, and TupleLen is their total width. RID is
// the physical rid under the cursor for scans; pipeline operators return
// the "no record" sentinel.
type Executor interface {
	Init() error
	NextTuple() error
	Current() (*access.Record, error)
	End() bool
	Columns() []*catalog.ColMeta
	TupleLen() uint32
	RID() page.RID
}
