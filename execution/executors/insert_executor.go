package executors

import (
	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/page"
	"github.com/violet-cai/rucbase/types"
)

/**
 * InsertExecutor appends one row built from per-column values, adds its key
 * to every secondary index and records the write for rollback.
 */
type InsertExecutor struct {
	context *ExecutorContext
	tab     *catalog.TableMeta
	tabName string
	vals    []types.Value
	fh      *access.RecordFileHandle
	rid     page.RID
}

func NewInsertExecutor(context *ExecutorContext, tabName string, vals []types.Value) (*InsertExecutor, error) {
	sm := context.GetSmManager()
	tab, err := sm.DB.GetTable(tabName)
	if err != nil {
		return nil, err
	}
	fh, err := sm.TableFile(tabName)
	if err != nil {
		return nil, err
	}
	return &InsertExecutor{context: context, tab: tab, tabName: tabName, vals: vals, fh: fh}, nil
}

func (e *InsertExecutor) Execute() error {
	if err := e.context.lockTableIX(e.fh.Fd()); err != nil {
		return err
	}
	ctx := e.context.accessContext()
	txn := e.context.GetTransaction()

	data, err := e.tab.BuildRecord(e.vals)
	if err != nil {
		return err
	}
	rid, err := e.fh.InsertRecord(data, ctx)
	if err != nil {
		return err
	}
	e.rid = rid

	for _, idx := range e.context.GetSmManager().TableIndexes(e.tabName) {
		if err := idx.InsertEntry(idx.MakeKey(data), rid, txn); err != nil {
			return err
		}
	}
	if txn != nil {
		txn.AppendWriteRecord(access.NewWriteRecord(access.INSERT, e.tabName, rid, nil))
	}
	return nil
}

// RID returns where the row landed.
func (e *InsertExecutor) RID() page.RID { return e.rid }
