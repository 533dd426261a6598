package executors

import (
	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/execution/expression"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/page"
)

/**
 * NestedLoopJoinExecutor joins two children: outer loop over the left, a
 * full pass over the right per left row. The right child must support being
 * reopened after exhaustion; its Init rewinds it.
 */
type NestedLoopJoinExecutor struct {
	left   Executor
	right  Executor
	cols   []*catalog.ColMeta
	length uint32
	conds  []expression.Condition
	isEnd  bool
}

func NewNestedLoopJoinExecutor(left Executor, right Executor, conds []expression.Condition) *NestedLoopJoinExecutor {
	e := &NestedLoopJoinExecutor{left: left, right: right, conds: conds}
	e.length = left.TupleLen() + right.TupleLen()

	e.cols = append(e.cols, left.Columns()...)
	for _, col := range right.Columns() {
		shifted := *col
		shifted.Offset += left.TupleLen()
		e.cols = append(e.cols, &shifted)
	}
	return e
}

func (e *NestedLoopJoinExecutor) Init() error {
	e.isEnd = false
	if err := e.left.Init(); err != nil {
		return err
	}
	if err := e.right.Init(); err != nil {
		return err
	}
	if e.left.End() {
		e.isEnd = true
		return nil
	}
	return e.seek(false)
}

func (e *NestedLoopJoinExecutor) NextTuple() error {
	if e.isEnd {
		return nil
	}
	return e.seek(true)
}

// seek advances the cursor pair to the next combination satisfying every
// join condition. When the right side exhausts, the left advances and the
// right is rewound with Init.
func (e *NestedLoopJoinExecutor) seek(advance bool) error {
	if advance {
		if err := e.right.NextTuple(); err != nil {
			return err
		}
	}
	for !e.left.End() {
		leftRec, err := e.left.Current()
		if err != nil {
			return err
		}
		for !e.right.End() {
			rightRec, err := e.right.Current()
			if err != nil {
				return err
			}
			ok, err := e.matches(leftRec, rightRec)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			if err := e.right.NextTuple(); err != nil {
				return err
			}
		}
		if err := e.left.NextTuple(); err != nil {
			return err
		}
		if e.left.End() {
			break
		}
		if err := e.right.Init(); err != nil {
			return err
		}
	}
	e.isEnd = true
	return nil
}

func (e *NestedLoopJoinExecutor) matches(leftRec *access.Record, rightRec *access.Record) (bool, error) {
	for i := range e.conds {
		ok, err := expression.EvalJoinCond(e.left.Columns(), e.right.Columns(), &e.conds[i], leftRec, rightRec)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Current concatenates the left and right rows' payloads.
func (e *NestedLoopJoinExecutor) Current() (*access.Record, error) {
	leftRec, err := e.left.Current()
	if err != nil {
		return nil, err
	}
	rightRec, err := e.right.Current()
	if err != nil {
		return nil, err
	}
	out := access.NewRecord(e.length)
	copy(out.Data, leftRec.Data)
	copy(out.Data[e.left.TupleLen():], rightRec.Data)
	return out, nil
}

func (e *NestedLoopJoinExecutor) End() bool { return e.isEnd }

func (e *NestedLoopJoinExecutor) Columns() []*catalog.ColMeta { return e.cols }

func (e *NestedLoopJoinExecutor) TupleLen() uint32 { return e.length }

func (e *NestedLoopJoinExecutor) RID() page.RID { return page.InvalidRID() }
