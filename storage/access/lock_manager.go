package access

import (
	"encoding/binary"
	"errors"

	"github.com/sasha-s/go-deadlock"
	"github.com/spaolacci/murmur3"
	"github.com/violet-cai/rucbase/common"
	"github.com/violet-cai/rucbase/storage/page"
	"github.com/violet-cai/rucbase/types"
)

// Failure taxonomy surfaced to callers. ErrLockOnShrinking and
// ErrDeadlockPrevention require the caller to abort the transaction;
// the other two are plain failures.
var (
	ErrLockOnShrinking    = errors.New("lock requested while transaction is shrinking")
	ErrDeadlockPrevention = errors.New("lock conflicts with another transaction, no-wait abort")
	ErrInvalidTxnState    = errors.New("lock operation on aborted or committed transaction")
	ErrLockNotHeld        = errors.New("unlock of a lock the transaction does not hold")
)

// LockDataType tells whether a lock covers a whole table or one record.
type LockDataType int32

const (
	LockDataTypeTable LockDataType = iota
	LockDataTypeRecord
)

// LockMode enumerates the hierarchical modes. Record locks use only S and X;
// table locks use all five. The declaration order is NOT the lattice order:
// use LockModeJoin and lockModeGE, never numeric comparison.
type LockMode int32

const (
	LockModeNone LockMode = iota
	LockModeIS
	LockModeIX
	LockModeS
	LockModeSIX
	LockModeX
)

func (m LockMode) String() string {
	switch m {
	case LockModeIS:
		return "IS"
	case LockModeIX:
		return "IX"
	case LockModeS:
		return "S"
	case LockModeSIX:
		return "SIX"
	case LockModeX:
		return "X"
	}
	return "NONE"
}

// LockModeJoin returns the least upper bound of two modes under the lattice
// NONE < IS < {IX, S} < SIX < X. IX and S are incomparable; their join is SIX.
func LockModeJoin(a LockMode, b LockMode) LockMode {
	if a == b {
		return a
	}
	if a == LockModeNone {
		return b
	}
	if b == LockModeNone {
		return a
	}
	if a == LockModeX || b == LockModeX {
		return LockModeX
	}
	if a == LockModeSIX || b == LockModeSIX {
		return LockModeSIX
	}
	if (a == LockModeIX && b == LockModeS) || (a == LockModeS && b == LockModeIX) {
		return LockModeSIX
	}
	// the remaining pairs involve IS and one of IX, S
	if a == LockModeIS {
		return b
	}
	return a
}

// lockModeGE reports whether held is at least as strong as want.
func lockModeGE(held LockMode, want LockMode) bool {
	return LockModeJoin(held, want) == held
}

// lockModeCompatible is the compatibility matrix for granted requests of
// two different transactions.
func lockModeCompatible(a LockMode, b LockMode) bool {
	switch a {
	case LockModeNone:
		return true
	case LockModeIS:
		return b != LockModeX
	case LockModeIX:
		return b == LockModeIS || b == LockModeIX || b == LockModeNone
	case LockModeS:
		return b == LockModeIS || b == LockModeS || b == LockModeNone
	case LockModeSIX:
		return b == LockModeIS || b == LockModeNone
	case LockModeX:
		return b == LockModeNone
	}
	return false
}

// LockDataId identifies one lockable object. Record locks and table locks on
// the same table occupy disjoint keys because DataType differs.
type LockDataId struct {
	TabFd    int32
	Rid      page.RID
	DataType LockDataType
}

func NewTableLockDataId(tabFd int32) LockDataId {
	return LockDataId{TabFd: tabFd, DataType: LockDataTypeTable}
}

func NewRecordLockDataId(tabFd int32, rid page.RID) LockDataId {
	return LockDataId{TabFd: tabFd, Rid: rid, DataType: LockDataTypeRecord}
}

// LockRequest is one transaction's entry in a request queue.
type LockRequest struct {
	txnID   types.TxnID
	mode    LockMode
	granted bool
}

// LockRequestQueue holds every request on one lockable object plus the
// cached join of the granted modes.
type LockRequestQueue struct {
	requests  []*LockRequest
	groupMode LockMode
}

// recomputeGroupMode recomputes the cached aggregate from scratch. The queue
// is bounded by the number of concurrent transactions, so a full pass is
// cheap and avoids stale-aggregate bugs.
func (q *LockRequestQueue) recomputeGroupMode() {
	mode := LockModeNone
	for _, req := range q.requests {
		if req.granted {
			mode = LockModeJoin(mode, req.mode)
		}
	}
	q.groupMode = mode
}

// GroupMode returns the join of all granted modes in the queue.
func (q *LockRequestQueue) GroupMode() LockMode { return q.groupMode }

type lockTableShard struct {
	latch deadlock.Mutex
	table map[LockDataId]*LockRequestQueue
}

func (s *lockTableShard) queueOf(id LockDataId) *LockRequestQueue {
	queue, ok := s.table[id]
	if !ok {
		queue = &LockRequestQueue{}
		s.table[id] = queue
	}
	return queue
}

// LockManager arbitrates multi-granularity locks under two-phase locking
// with no-wait deadlock prevention: a conflicting request fails immediately
// instead of blocking. Every call touches exactly one key, so the lock table
// is sharded by key hash and each call runs under a single shard latch.
type LockManager struct {
	shards [common.LockTableShardNum]*lockTableShard
}

func NewLockManager() *LockManager {
	lm := new(LockManager)
	for i := range lm.shards {
		lm.shards[i] = &lockTableShard{table: make(map[LockDataId]*LockRequestQueue)}
	}
	return lm
}

func (lm *LockManager) shardOf(id LockDataId) *lockTableShard {
	var buf [13]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(id.TabFd))
	binary.LittleEndian.PutUint32(buf[4:], uint32(id.Rid.PageNo))
	binary.LittleEndian.PutUint32(buf[8:], uint32(id.Rid.SlotNo))
	buf[12] = byte(id.DataType)
	h := murmur3.Sum32(buf[:])
	return lm.shards[h%common.LockTableShardNum]
}

// checkTxnState validates the 2PL discipline before an acquisition and moves
// the transaction to GROWING. The caller holds the shard latch.
func checkTxnState(txn *Transaction) error {
	switch txn.GetState() {
	case SHRINKING:
		return ErrLockOnShrinking
	case ABORTED, COMMITTED:
		return ErrInvalidTxnState
	}
	txn.SetState(GROWING)
	return nil
}

// acquire grants mode on id to txn, upgrading the transaction's existing
// request when one is present. Conflicts with other transactions fail with
// ErrDeadlockPrevention (no-wait).
func (lm *LockManager) acquire(txn *Transaction, id LockDataId, mode LockMode) error {
	shard := lm.shardOf(id)
	shard.latch.Lock()
	defer shard.latch.Unlock()

	if err := checkTxnState(txn); err != nil {
		return err
	}

	queue := shard.queueOf(id)
	var own *LockRequest
	for _, req := range queue.requests {
		if req.txnID != txn.GetTransactionId() {
			if !lockModeCompatible(req.mode, mode) {
				if common.EnableDebug {
					common.RuntimeStack()
				}
				return ErrDeadlockPrevention
			}
		} else {
			own = req
		}
	}

	if own != nil {
		// upgrade merges into the single request this txn holds on the key
		own.mode = LockModeJoin(own.mode, mode)
		queue.recomputeGroupMode()
		return nil
	}

	queue.requests = append(queue.requests, &LockRequest{txnID: txn.GetTransactionId(), mode: mode, granted: true})
	txn.GetLockSet().Add(id)
	queue.recomputeGroupMode()
	return nil
}

// LockSharedOnRecord acquires a record level S lock.
func (lm *LockManager) LockSharedOnRecord(txn *Transaction, rid page.RID, tabFd int32) error {
	return lm.acquire(txn, NewRecordLockDataId(tabFd, rid), LockModeS)
}

// LockExclusiveOnRecord acquires a record level X lock.
func (lm *LockManager) LockExclusiveOnRecord(txn *Transaction, rid page.RID, tabFd int32) error {
	return lm.acquire(txn, NewRecordLockDataId(tabFd, rid), LockModeX)
}

// LockSharedOnTable acquires a table level S lock.
func (lm *LockManager) LockSharedOnTable(txn *Transaction, tabFd int32) error {
	return lm.acquire(txn, NewTableLockDataId(tabFd), LockModeS)
}

// LockExclusiveOnTable acquires a table level X lock.
func (lm *LockManager) LockExclusiveOnTable(txn *Transaction, tabFd int32) error {
	return lm.acquire(txn, NewTableLockDataId(tabFd), LockModeX)
}

// LockISOnTable acquires a table level intention shared lock.
func (lm *LockManager) LockISOnTable(txn *Transaction, tabFd int32) error {
	return lm.acquire(txn, NewTableLockDataId(tabFd), LockModeIS)
}

// LockIXOnTable acquires a table level intention exclusive lock.
func (lm *LockManager) LockIXOnTable(txn *Transaction, tabFd int32) error {
	return lm.acquire(txn, NewTableLockDataId(tabFd), LockModeIX)
}

// Unlock releases every request txn holds on id and flips the transaction
// into SHRINKING: after the first unlock no acquisition may succeed.
func (lm *LockManager) Unlock(txn *Transaction, id LockDataId) error {
	shard := lm.shardOf(id)
	shard.latch.Lock()
	defer shard.latch.Unlock()

	switch txn.GetState() {
	case ABORTED, COMMITTED:
		return ErrInvalidTxnState
	}
	txn.SetState(SHRINKING)

	if !txn.GetLockSet().Contains(id) {
		return ErrLockNotHeld
	}

	queue := shard.queueOf(id)
	kept := queue.requests[:0]
	for _, req := range queue.requests {
		if req.txnID != txn.GetTransactionId() {
			kept = append(kept, req)
		}
	}
	queue.requests = kept
	queue.recomputeGroupMode()
	txn.GetLockSet().Remove(id)
	return nil
}

// queueStateOf exposes one key's queue for inspection in tests.
func (lm *LockManager) queueStateOf(id LockDataId) *LockRequestQueue {
	shard := lm.shardOf(id)
	shard.latch.Lock()
	defer shard.latch.Unlock()
	return shard.queueOf(id)
}
