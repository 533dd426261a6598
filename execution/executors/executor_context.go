package executors

import (
	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/storage/access"
)

// ExecutorContext stores all the context necessary to run an executor.
type ExecutorContext struct {
	sm      *catalog.SmManager
	lockMgr *access.LockManager
	txn     *access.Transaction
}

func NewExecutorContext(sm *catalog.SmManager, lockMgr *access.LockManager, txn *access.Transaction) *ExecutorContext {
	return &ExecutorContext{sm, lockMgr, txn}
}

func (e *ExecutorContext) GetSmManager() *catalog.SmManager { return e.sm }

func (e *ExecutorContext) GetLockManager() *access.LockManager { return e.lockMgr }

func (e *ExecutorContext) GetTransaction() *access.Transaction { return e.txn }

// accessContext is the lock routing handed down to the storage handles.
func (e *ExecutorContext) accessContext() *access.Context {
	return access.NewContext(e.lockMgr, e.txn)
}

// lockTableIS takes the table level intention shared lock a scan needs.
func (e *ExecutorContext) lockTableIS(fd int32) error {
	if e.lockMgr == nil || e.txn == nil {
		return nil
	}
	return e.lockMgr.LockISOnTable(e.txn, fd)
}

// lockTableIX takes the table level intention exclusive lock a mutation
// needs.
func (e *ExecutorContext) lockTableIX(fd int32) error {
	if e.lockMgr == nil || e.txn == nil {
		return nil
	}
	return e.lockMgr.LockIXOnTable(e.txn, fd)
}
