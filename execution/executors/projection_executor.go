package executors

import (
	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/execution/expression"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/page"
)

/**
 * ProjectionExecutor narrows the child's rows to the selected columns,
 * repacked contiguously in selection order.
 */
type ProjectionExecutor struct {
	child   Executor
	cols    []*catalog.ColMeta
	length  uint32
	selIdxs []int
}

func NewProjectionExecutor(child Executor, selCols []expression.TableColumn) (*ProjectionExecutor, error) {
	e := &ProjectionExecutor{child: child}
	childCols := child.Columns()
	offset := uint32(0)
	for _, sel := range selCols {
		meta, err := expression.GetColMeta(childCols, sel)
		if err != nil {
			return nil, err
		}
		idx := 0
		for i, col := range childCols {
			if col == meta {
				idx = i
				break
			}
		}
		e.selIdxs = append(e.selIdxs, idx)

		out := *meta
		out.Offset = offset
		offset += out.Len
		e.cols = append(e.cols, &out)
	}
	e.length = offset
	return e, nil
}

func (e *ProjectionExecutor) Init() error { return e.child.Init() }

func (e *ProjectionExecutor) NextTuple() error { return e.child.NextTuple() }

// Current repacks the selected columns of the child's current row into a
// fresh buffer of TupleLen bytes.
func (e *ProjectionExecutor) Current() (*access.Record, error) {
	childRec, err := e.child.Current()
	if err != nil {
		return nil, err
	}
	childCols := e.child.Columns()
	out := access.NewRecord(e.length)
	for i, idx := range e.selIdxs {
		src := childCols[idx]
		dst := e.cols[i]
		copy(out.Data[dst.Offset:dst.Offset+dst.Len], childRec.Data[src.Offset:src.Offset+src.Len])
	}
	return out, nil
}

func (e *ProjectionExecutor) End() bool { return e.child.End() }

func (e *ProjectionExecutor) Columns() []*catalog.ColMeta { return e.cols }

func (e *ProjectionExecutor) TupleLen() uint32 { return e.length }

func (e *ProjectionExecutor) RID() page.RID { return page.InvalidRID() }
