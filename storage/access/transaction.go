package access

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/golang-collections/collections/stack"
	"github.com/violet-cai/rucbase/storage/page"
	"github.com/violet-cai/rucbase/types"
)

/**
 * Transaction states:
 *
 *     _________________________
 *    |                         v
 * GROWING -> SHRINKING -> COMMITTED   ABORTED
 *    |__________|________________________^
 *
 **/

type TransactionState int32

const (
	GROWING TransactionState = iota
	SHRINKING
	COMMITTED
	ABORTED
)

/**
 * Type of write operation.
 */
type WType int32

const (
	INSERT WType = iota
	DELETE
	UPDATE
)

// WriteRecord tracks one write for rollback. BeforeImage carries the
// pre-write row for DELETE and UPDATE and is nil for INSERT.
type WriteRecord struct {
	WType       WType
	TabName     string
	Rid         page.RID
	BeforeImage *Record
}

func NewWriteRecord(wtype WType, tabName string, rid page.RID, beforeImage *Record) *WriteRecord {
	return &WriteRecord{wtype, tabName, rid, beforeImage}
}

// Transaction tracks information related to a transaction. The lock set
// holds every LockDataId this transaction owns; the write set stacks the
// rollback records so that undo pops them in reverse program order.
type Transaction struct {
	txnID    types.TxnID
	state    TransactionState
	lockSet  mapset.Set[LockDataId]
	writeSet *stack.Stack
}

func NewTransaction(txnID types.TxnID) *Transaction {
	return &Transaction{
		txnID:    txnID,
		state:    GROWING,
		lockSet:  mapset.NewSet[LockDataId](),
		writeSet: stack.New(),
	}
}

/** @return the id of this transaction */
func (txn *Transaction) GetTransactionId() types.TxnID { return txn.txnID }

func (txn *Transaction) GetState() TransactionState { return txn.state }

func (txn *Transaction) SetState(state TransactionState) { txn.state = state }

/** @return the set of lock ids this transaction holds */
func (txn *Transaction) GetLockSet() mapset.Set[LockDataId] { return txn.lockSet }

// AppendWriteRecord records a write for rollback.
func (txn *Transaction) AppendWriteRecord(wr *WriteRecord) { txn.writeSet.Push(wr) }

// WriteSet returns the rollback stack. Consumed only by rollback.
func (txn *Transaction) WriteSet() *stack.Stack { return txn.writeSet }
