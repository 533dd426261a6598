package executors

import (
	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/execution/expression"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/page"
)

/**
 * UpdateExecutor rewrites a precomputed set of rows with the set clauses,
 * keeping every secondary index consistent and recording the before images
 * for rollback.
 */
type UpdateExecutor struct {
	context    *ExecutorContext
	tab        *catalog.TableMeta
	tabName    string
	setClauses []expression.SetClause
	conds      []expression.Condition
	fh         *access.RecordFileHandle
	rids       []page.RID
}

func NewUpdateExecutor(context *ExecutorContext, tabName string, setClauses []expression.SetClause,
	conds []expression.Condition, rids []page.RID) (*UpdateExecutor, error) {
	sm := context.GetSmManager()
	tab, err := sm.DB.GetTable(tabName)
	if err != nil {
		return nil, err
	}
	fh, err := sm.TableFile(tabName)
	if err != nil {
		return nil, err
	}
	return &UpdateExecutor{
		context:    context,
		tab:        tab,
		tabName:    tabName,
		setClauses: setClauses,
		conds:      conds,
		fh:         fh,
		rids:       rids,
	}, nil
}

// Execute drives all rows. Per rid: fetch the before image, build the new
// image by overwriting the set columns, swap the keys in every index (even
// when the indexed columns are unchanged), rewrite the heap record, then
// log the write for rollback.
func (e *UpdateExecutor) Execute() error {
	if err := e.context.lockTableIX(e.fh.Fd()); err != nil {
		return err
	}
	ctx := e.context.accessContext()
	txn := e.context.GetTransaction()
	indexes := e.context.GetSmManager().TableIndexes(e.tabName)

	for _, rid := range e.rids {
		rec, err := e.fh.GetRecord(rid, ctx)
		if err != nil {
			return err
		}

		newData := make([]byte, rec.Size())
		copy(newData, rec.Data)
		for i := range e.setClauses {
			sc := &e.setClauses[i]
			col, err := e.tab.GetColMeta(sc.Lhs.ColName)
			if err != nil {
				return err
			}
			raw := sc.Rhs.Raw()
			dst := newData[col.Offset : col.Offset+col.Len]
			for j := range dst {
				dst[j] = 0
			}
			copy(dst, raw)
		}

		for _, idx := range indexes {
			if err := idx.DeleteEntry(idx.MakeKey(rec.Data), txn); err != nil {
				return err
			}
			if err := idx.InsertEntry(idx.MakeKey(newData), rid, txn); err != nil {
				return err
			}
		}

		if err := e.fh.UpdateRecord(rid, newData, ctx); err != nil {
			return err
		}
		if txn != nil {
			txn.AppendWriteRecord(access.NewWriteRecord(access.UPDATE, e.tabName, rid, rec))
		}
	}
	return nil
}

func (e *UpdateExecutor) Columns() []*catalog.ColMeta { return nil }
