package access

// Context threads the transaction and the lock manager to the storage
// handles. A nil Context (or a nil LockMgr) bypasses row locking; the
// rollback path uses that because the transaction still holds every lock it
// acquired while growing.
type Context struct {
	LockMgr *LockManager
	Txn     *Transaction
}

func NewContext(lockMgr *LockManager, txn *Transaction) *Context {
	return &Context{LockMgr: lockMgr, Txn: txn}
}
