package access

import (
	"sync"

	"github.com/violet-cai/rucbase/storage/page"
	"github.com/violet-cai/rucbase/types"
)

// TableIndex pairs a secondary index's key extractor with its handle, which
// is all the undo path needs to keep indexes consistent with the heap.
type TableIndex interface {
	MakeKey(data []byte) []byte
	InsertEntry(key []byte, rid page.RID, txn *Transaction) error
	DeleteEntry(key []byte, txn *Transaction) error
}

// SystemCatalog resolves table names to storage handles. The catalog package
// implements it; the indirection keeps this package free of a dependency on
// the catalog.
type SystemCatalog interface {
	TableFile(tabName string) (*RecordFileHandle, error)
	TableIndexes(tabName string) []TableIndex
}

// TransactionManager begins, commits and aborts transactions. Abort undoes
// the write set in reverse program order, restoring the heap and every
// secondary index, then releases the locks.
type TransactionManager struct {
	latch     sync.Mutex
	nextTxnID types.TxnID
	lockMgr   *LockManager
	sm        SystemCatalog
	txnMap    map[types.TxnID]*Transaction
}

func NewTransactionManager(lockMgr *LockManager, sm SystemCatalog) *TransactionManager {
	return &TransactionManager{
		nextTxnID: 0,
		lockMgr:   lockMgr,
		sm:        sm,
		txnMap:    make(map[types.TxnID]*Transaction),
	}
}

// Begin registers txn, creating a fresh transaction when txn is nil.
func (tm *TransactionManager) Begin(txn *Transaction) *Transaction {
	tm.latch.Lock()
	defer tm.latch.Unlock()

	if txn == nil {
		txn = NewTransaction(tm.nextTxnID)
		tm.nextTxnID++
	}
	tm.txnMap[txn.GetTransactionId()] = txn
	return txn
}

// Commit drains the write set, releases every lock and marks txn COMMITTED.
func (tm *TransactionManager) Commit(txn *Transaction) {
	tm.latch.Lock()
	defer tm.latch.Unlock()

	if txn == nil {
		return
	}
	for txn.WriteSet().Len() > 0 {
		txn.WriteSet().Pop()
	}
	tm.releaseLocks(txn)
	txn.SetState(COMMITTED)
}

// Abort rolls back every write of txn in reverse order, releases its locks
// and marks it ABORTED. The undo writes run without lock routing: the
// transaction still owns every lock it took while growing.
func (tm *TransactionManager) Abort(txn *Transaction) error {
	tm.latch.Lock()
	defer tm.latch.Unlock()

	if txn == nil {
		return nil
	}
	for txn.WriteSet().Len() > 0 {
		wr := txn.WriteSet().Pop().(*WriteRecord)
		if err := tm.undoWrite(txn, wr); err != nil {
			return err
		}
	}
	tm.releaseLocks(txn)
	txn.SetState(ABORTED)
	return nil
}

func (tm *TransactionManager) undoWrite(txn *Transaction, wr *WriteRecord) error {
	fh, err := tm.sm.TableFile(wr.TabName)
	if err != nil {
		return err
	}
	indexes := tm.sm.TableIndexes(wr.TabName)

	switch wr.WType {
	case INSERT:
		rec, err := fh.GetRecord(wr.Rid, nil)
		if err != nil {
			return err
		}
		for _, idx := range indexes {
			if err := idx.DeleteEntry(idx.MakeKey(rec.Data), txn); err != nil {
				return err
			}
		}
		return fh.DeleteRecord(wr.Rid, nil)
	case DELETE:
		rid, err := fh.InsertRecord(wr.BeforeImage.Data, nil)
		if err != nil {
			return err
		}
		for _, idx := range indexes {
			if err := idx.InsertEntry(idx.MakeKey(wr.BeforeImage.Data), rid, txn); err != nil {
				return err
			}
		}
		return nil
	case UPDATE:
		cur, err := fh.GetRecord(wr.Rid, nil)
		if err != nil {
			return err
		}
		for _, idx := range indexes {
			if err := idx.DeleteEntry(idx.MakeKey(cur.Data), txn); err != nil {
				return err
			}
			if err := idx.InsertEntry(idx.MakeKey(wr.BeforeImage.Data), wr.Rid, txn); err != nil {
				return err
			}
		}
		return fh.UpdateRecord(wr.Rid, wr.BeforeImage.Data, nil)
	}
	return nil
}

func (tm *TransactionManager) releaseLocks(txn *Transaction) {
	for _, id := range txn.GetLockSet().ToSlice() {
		tm.lockMgr.Unlock(txn, id)
	}
}
