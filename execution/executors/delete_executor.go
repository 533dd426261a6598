package executors

import (
	"errors"

	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/execution/expression"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/index"
	"github.com/violet-cai/rucbase/storage/page"
)

/**
 * DeleteExecutor removes a precomputed set of rows, keeping every secondary
 * index consistent and recording the before images for rollback.
 */
type DeleteExecutor struct {
	context *ExecutorContext
	tabName string
	conds   []expression.Condition
	fh      *access.RecordFileHandle
	rids    []page.RID
}

// NewDeleteExecutor creates a delete over the rids an upstream scan
// collected.
func NewDeleteExecutor(context *ExecutorContext, tabName string, conds []expression.Condition,
	rids []page.RID) (*DeleteExecutor, error) {
	sm := context.GetSmManager()
	if _, err := sm.DB.GetTable(tabName); err != nil {
		return nil, err
	}
	fh, err := sm.TableFile(tabName)
	if err != nil {
		return nil, err
	}
	return &DeleteExecutor{context: context, tabName: tabName, conds: conds, fh: fh, rids: rids}, nil
}

// Execute drives all rows. Per rid: fetch the before image, drop its key
// from every index, delete the heap record, then log the write for
// rollback.
func (e *DeleteExecutor) Execute() error {
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
		for _, idx := range indexes {
			// DeleteEntry drops every duplicate of a key at once, so a key
			// shared with an earlier victim may already be gone.
			err := idx.DeleteEntry(idx.MakeKey(rec.Data), txn)
			if err != nil && !errors.Is(err, index.ErrKeyNotFound) {
				return err
			}
		}
		if err := e.fh.DeleteRecord(rid, ctx); err != nil {
			return err
		}
		if txn != nil {
			txn.AppendWriteRecord(access.NewWriteRecord(access.DELETE, e.tabName, rid, rec))
		}
	}
	return nil
}

func (e *DeleteExecutor) Columns() []*catalog.ColMeta { return nil }
