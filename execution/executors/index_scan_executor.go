package executors

import (
	"errors"

	pair "github.com/notEpsilon/go-pair"
	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/execution/expression"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/index"
	"github.com/violet-cai/rucbase/storage/page"
)

var ErrIndexHandleMissing = errors.New("index handle not open")

/**
 * IndexScanExecutor walks one of the table's B+-tree indexes in key order
 * and evaluates the residual conditions on every fetched record.
 */
type IndexScanExecutor struct {
	context       *ExecutorContext
	tabName       string
	conds         []expression.Condition
	indexColNames []string
	indexMeta     *catalog.IndexMeta
	fh            *access.RecordFileHandle
	ih            *index.BTreeIndex
	cols          []*catalog.ColMeta
	length        uint32
	it            *index.IndexRangeScanIterator
	rid           page.RID
}

// NewIndexScanExecutor creates an executor over the existing index named by
// indexColNames in declaration order.
func NewIndexScanExecutor(context *ExecutorContext, tabName string, conds []expression.Condition,
	indexColNames []string) (*IndexScanExecutor, error) {
	sm := context.GetSmManager()
	tab, err := sm.DB.GetTable(tabName)
	if err != nil {
		return nil, err
	}
	im, err := tab.GetIndexMeta(indexColNames)
	if err != nil {
		return nil, err
	}
	fh, err := sm.TableFile(tabName)
	if err != nil {
		return nil, err
	}
	ih, ok := sm.Ihs[sm.GetIndexName(tabName, indexColNames)]
	if !ok {
		return nil, ErrIndexHandleMissing
	}
	return &IndexScanExecutor{
		context:       context,
		tabName:       tabName,
		conds:         expression.NormalizeConds(conds, tabName),
		indexColNames: indexColNames,
		indexMeta:     im,
		fh:            fh,
		ih:            ih,
		cols:          tab.Cols,
		length:        tab.RecordSize(),
	}, nil
}

func (e *IndexScanExecutor) Init() error {
	if err := e.context.lockTableIS(e.fh.Fd()); err != nil {
		return err
	}
	bounds := e.bounds()
	e.it = e.ih.RangeScan(bounds.First, bounds.Second)
	return e.seek()
}

// bounds derives the iterator range. An equality condition on the leading
// indexed column tightens both ends; every condition stays a residual, so
// over-tight bounds are the only thing at stake here.
func (e *IndexScanExecutor) bounds() pair.Pair[index.Iid, index.Iid] {
	lower := e.ih.LeafBegin()
	upper := e.ih.LeafEnd()
	lead := e.indexMeta.Cols[0]
	for i := range e.conds {
		cond := &e.conds[i]
		if !cond.RhsIsValue || cond.Op != expression.OpEQ || cond.LhsCol.ColName != lead.Name {
			continue
		}
		prefix := make([]byte, lead.Len)
		copy(prefix, cond.RhsVal.Raw())
		lower = e.ih.LowerBound(prefix)
		upper = e.ih.UpperBound(prefix)
		break
	}
	return pair.Pair[index.Iid, index.Iid]{First: lower, Second: upper}
}

func (e *IndexScanExecutor) NextTuple() error {
	if e.it.IsEnd() {
		return nil
	}
	e.it.Next()
	return e.seek()
}

func (e *IndexScanExecutor) seek() error {
	ctx := e.context.accessContext()
	for !e.it.IsEnd() {
		rid := e.it.RID()
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
		e.it.Next()
	}
	return nil
}

func (e *IndexScanExecutor) Current() (*access.Record, error) {
	return e.fh.GetRecord(e.rid, e.context.accessContext())
}

func (e *IndexScanExecutor) End() bool { return e.it == nil || e.it.IsEnd() }

func (e *IndexScanExecutor) Columns() []*catalog.ColMeta { return e.cols }

func (e *IndexScanExecutor) TupleLen() uint32 { return e.length }

func (e *IndexScanExecutor) RID() page.RID { return e.rid }
