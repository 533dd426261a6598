package executors

import (
	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/execution/expression"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/page"
)

/**
 * SeqScanExecutor executes a sequential scan over a table, evaluating the
 * residual conditions on every occupied slot.
 */
type SeqScanExecutor struct {
	context *ExecutorContext
	tabName string
	conds   []expression.Condition
	fh      *access.RecordFileHandle
	cols    []*catalog.ColMeta
	length  uint32
	scan    *access.RecordScan
	rid     page.RID
}

// NewSeqScanExecutor creates a new sequential scan executor
func NewSeqScanExecutor(context *ExecutorContext, tabName string, conds []expression.Condition) (*SeqScanExecutor, error) {
	sm := context.GetSmManager()
	tab, err := sm.DB.GetTable(tabName)
	if err != nil {
		return nil, err
	}
	fh, err := sm.TableFile(tabName)
	if err != nil {
		return nil, err
	}
	return &SeqScanExecutor{
		context: context,
		tabName: tabName,
		conds:   expression.NormalizeConds(conds, tabName),
		fh:      fh,
		cols:    tab.Cols,
		length:  tab.RecordSize(),
	}, nil
}

func (e *SeqScanExecutor) Init() error {
	if err := e.context.lockTableIS(e.fh.Fd()); err != nil {
		return err
	}
	scan, err := access.NewRecordScan(e.fh)
	if err != nil {
		return err
	}
	e.scan = scan
	return e.seek()
}

func (e *SeqScanExecutor) NextTuple() error {
	if e.scan.IsEnd() {
		return nil
	}
	if err := e.scan.Next(); err != nil {
		return err
	}
	return e.seek()
}

// seek advances the underlying scan until the cursor sits on a row that
// satisfies every condition, or at the end.
func (e *SeqScanExecutor) seek() error {
	ctx := e.context.accessContext()
	for !e.scan.IsEnd() {
		rid := e.scan.RID()
		rec, err := e.fh.GetRecord(rid, ctx)
		if err != nil {
			return err
		}
		ok, err := expression.EvalConds(e.cols, e.conds, rec)
		if err != nil {
			return err
		}
		if ok {
			e.rid = rid
			return nil
		}
		if err := e.scan.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Current returns a fresh copy of the record under the cursor.
func (e *SeqScanExecutor) Current() (*access.Record, error) {
	return e.fh.GetRecord(e.rid, e.context.accessContext())
}

func (e *SeqScanExecutor) End() bool { return e.scan == nil || e.scan.IsEnd() }

func (e *SeqScanExecutor) Columns() []*catalog.ColMeta { return e.cols }

func (e *SeqScanExecutor) TupleLen() uint32 { return e.length }

func (e *SeqScanExecutor) RID() page.RID { return e.rid }
