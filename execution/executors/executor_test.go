package executors

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/execution/expression"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/page"
	testingpkg "github.com/violet-cai/rucbase/testing/testing_assert"
	"github.com/violet-cai/rucbase/testing/testing_util"
	"github.com/violet-cai/rucbase/types"
)

func bootstrapEngine(t *testing.T) (*catalog.SmManager, *access.LockManager, *access.TransactionManager) {
	t.Helper()
	sm := catalog.NewSmManager("test_db")
	lockMgr := access.NewLockManager()
	txnMgr := access.NewTransactionManager(lockMgr, sm)
	return sm, lockMgr, txnMgr
}

func createStudentTable(t *testing.T, sm *catalog.SmManager) *catalog.TableMeta {
	t.Helper()
	tab, err := sm.CreateTable("student", []*catalog.ColDef{
		{Name: "id", Type: types.Integer},
		{Name: "name", Type: types.Varchar, Len: 8},
	})
	testingpkg.Ok(t, err)
	return tab
}

func insertRow(t *testing.T, ectx *ExecutorContext, tabName string, vals ...interface{}) page.RID {
	t.Helper()
	row := make([]types.Value, 0, len(vals))
	for _, v := range vals {
		row = append(row, testing_util.GetValue(v))
	}
	ins, err := NewInsertExecutor(ectx, tabName, row)
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, ins.Execute())
	return ins.RID()
}

func scanIds(t *testing.T, e Executor) []int32 {
	t.Helper()
	ids := make([]int32, 0)
	testingpkg.Ok(t, e.Init())
	for !e.End() {
		rec, err := e.Current()
		testingpkg.Ok(t, err)
		ids = append(ids, int32(binary.LittleEndian.Uint32(rec.Data)))
		testingpkg.Ok(t, e.NextTuple())
	}
	return ids
}

// scan over an empty table starts at the end
func TestSeqScanOverEmptyTable(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	createStudentTable(t, sm)
	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)

	scan, err := NewSeqScanExecutor(ectx, "student", nil)
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, scan.Init())
	testingpkg.Assert(t, scan.End(), "empty table scan must end immediately")
	txnMgr.Commit(txn)
}

// rows {1,a} {2,b} {3,a} filtered on name = a come back as 1, 3 in rid order
func TestSeqScanWithPredicate(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	createStudentTable(t, sm)
	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)

	insertRow(t, ectx, "student", 1, "a")
	insertRow(t, ectx, "student", 2, "b")
	insertRow(t, ectx, "student", 3, "a")

	conds := []expression.Condition{{
		LhsCol:     expression.TableColumn{ColName: "name"},
		Op:         expression.OpEQ,
		RhsIsValue: true,
		RhsVal:     types.NewVarchar("a"),
	}}
	scan, err := NewSeqScanExecutor(ectx, "student", conds)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, []int32{1, 3}, scanIds(t, scan))
	txnMgr.Commit(txn)
}

func TestSeqScanColumnVersusColumnCondition(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	_, err := sm.CreateTable("pairs", []*catalog.ColDef{
		{Name: "a", Type: types.Integer},
		{Name: "b", Type: types.Integer},
	})
	testingpkg.Ok(t, err)
	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)

	insertRow(t, ectx, "pairs", 1, 2)
	insertRow(t, ectx, "pairs", 5, 5)
	insertRow(t, ectx, "pairs", 9, 3)

	conds := []expression.Condition{{
		LhsCol: expression.TableColumn{ColName: "a"},
		Op:     expression.OpLT,
		RhsCol: expression.TableColumn{ColName: "b"},
	}}
	scan, err := NewSeqScanExecutor(ectx, "pairs", conds)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, []int32{1}, scanIds(t, scan))
	txnMgr.Commit(txn)
}

// projection [name, id] over {id@0, name@4} repacks name to offset 0
func TestProjectionRepacksSelectedColumns(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	createStudentTable(t, sm)
	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)

	insertRow(t, ectx, "student", 1, "a")

	scan, err := NewSeqScanExecutor(ectx, "student", nil)
	testingpkg.Ok(t, err)
	proj, err := NewProjectionExecutor(scan, []expression.TableColumn{
		{ColName: "name"},
		{ColName: "id"},
	})
	testingpkg.Ok(t, err)

	cols := proj.Columns()
	testingpkg.Equals(t, "name", cols[0].Name)
	testingpkg.Equals(t, uint32(0), cols[0].Offset)
	testingpkg.Equals(t, "id", cols[1].Name)
	testingpkg.Equals(t, uint32(8), cols[1].Offset)
	testingpkg.Equals(t, uint32(12), proj.TupleLen())

	testingpkg.Ok(t, proj.Init())
	testingpkg.Assert(t, !proj.End(), "one row expected")
	rec, err := proj.Current()
	testingpkg.Ok(t, err)

	want := make([]byte, 12)
	copy(want[0:8], []byte("a\x00\x00\x00\x00\x00\x00\x00"))
	binary.LittleEndian.PutUint32(want[8:12], 1)
	testingpkg.Assert(t, bytes.Equal(want, rec.Data), "projected bytes must be name then id")
	testingpkg.Equals(t, page.InvalidRID(), proj.RID())
	txnMgr.Commit(txn)
}

// left {1,2} x right {10,20,30} with left.v < right.v keeps all six pairs
func TestNestedLoopJoinProducesQualifyingPairs(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	for _, name := range []string{"lhs", "rhs"} {
		_, err := sm.CreateTable(name, []*catalog.ColDef{{Name: "v", Type: types.Integer}})
		testingpkg.Ok(t, err)
	}
	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)

	for _, v := range []int{1, 2} {
		insertRow(t, ectx, "lhs", v)
	}
	for _, v := range []int{10, 20, 30} {
		insertRow(t, ectx, "rhs", v)
	}

	left, err := NewSeqScanExecutor(ectx, "lhs", nil)
	testingpkg.Ok(t, err)
	right, err := NewSeqScanExecutor(ectx, "rhs", nil)
	testingpkg.Ok(t, err)
	join := NewNestedLoopJoinExecutor(left, right, []expression.Condition{{
		LhsCol: expression.TableColumn{TabName: "lhs", ColName: "v"},
		Op:     expression.OpLT,
		RhsCol: expression.TableColumn{TabName: "rhs", ColName: "v"},
	}})

	testingpkg.Equals(t, uint32(8), join.TupleLen())
	testingpkg.Ok(t, join.Init())
	got := make([][2]int32, 0)
	for !join.End() {
		rec, err := join.Current()
		testingpkg.Ok(t, err)
		got = append(got, [2]int32{
			int32(binary.LittleEndian.Uint32(rec.Data[0:4])),
			int32(binary.LittleEndian.Uint32(rec.Data[4:8])),
		})
		testingpkg.Ok(t, join.NextTuple())
	}
	want := [][2]int32{{1, 10}, {1, 20}, {1, 30}, {2, 10}, {2, 20}, {2, 30}}
	testingpkg.Equals(t, want, got)
	txnMgr.Commit(txn)
}

func TestNestedLoopJoinFiltersPairs(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	for _, name := range []string{"lhs", "rhs"} {
		_, err := sm.CreateTable(name, []*catalog.ColDef{{Name: "v", Type: types.Integer}})
		testingpkg.Ok(t, err)
	}
	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)

	for _, v := range []int{1, 25} {
		insertRow(t, ectx, "lhs", v)
	}
	for _, v := range []int{10, 20, 30} {
		insertRow(t, ectx, "rhs", v)
	}

	left, err := NewSeqScanExecutor(ectx, "lhs", nil)
	testingpkg.Ok(t, err)
	right, err := NewSeqScanExecutor(ectx, "rhs", nil)
	testingpkg.Ok(t, err)
	join := NewNestedLoopJoinExecutor(left, right, []expression.Condition{{
		LhsCol: expression.TableColumn{TabName: "lhs", ColName: "v"},
		Op:     expression.OpLT,
		RhsCol: expression.TableColumn{TabName: "rhs", ColName: "v"},
	}})

	testingpkg.Ok(t, join.Init())
	got := make([][2]int32, 0)
	for !join.End() {
		rec, err := join.Current()
		testingpkg.Ok(t, err)
		got = append(got, [2]int32{
			int32(binary.LittleEndian.Uint32(rec.Data[0:4])),
			int32(binary.LittleEndian.Uint32(rec.Data[4:8])),
		})
		testingpkg.Ok(t, join.NextTuple())
	}
	want := [][2]int32{{1, 10}, {1, 20}, {1, 30}, {25, 30}}
	testingpkg.Equals(t, want, got)
	txnMgr.Commit(txn)
}

func TestIndexScanYieldsKeyOrderAndResiduals(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	createStudentTable(t, sm)
	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)

	insertRow(t, ectx, "student", 3, "c")
	insertRow(t, ectx, "student", 1, "a")
	insertRow(t, ectx, "student", 2, "b")

	_, err := sm.CreateIndex("student", []string{"name"})
	testingpkg.Ok(t, err)

	scan, err := NewIndexScanExecutor(ectx, "student", nil, []string{"name"})
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, []int32{1, 2, 3}, scanIds(t, scan))

	conds := []expression.Condition{{
		LhsCol:     expression.TableColumn{ColName: "name"},
		Op:         expression.OpEQ,
		RhsIsValue: true,
		RhsVal:     types.NewVarchar("b"),
	}}
	filtered, err := NewIndexScanExecutor(ectx, "student", conds, []string{"name"})
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, []int32{2}, scanIds(t, filtered))
	txnMgr.Commit(txn)
}

func collectRids(t *testing.T, e Executor) []page.RID {
	t.Helper()
	rids := make([]page.RID, 0)
	testingpkg.Ok(t, e.Init())
	for !e.End() {
		rids = append(rids, e.RID())
		testingpkg.Ok(t, e.NextTuple())
	}
	return rids
}

// after the delete no index keeps a key built from the removed rows
func TestDeleteMaintainsIndexes(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	createStudentTable(t, sm)
	_, err := sm.CreateIndex("student", []string{"name"})
	testingpkg.Ok(t, err)

	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)
	insertRow(t, ectx, "student", 1, "a")
	insertRow(t, ectx, "student", 2, "b")
	insertRow(t, ectx, "student", 3, "a")

	conds := []expression.Condition{{
		LhsCol:     expression.TableColumn{ColName: "name"},
		Op:         expression.OpEQ,
		RhsIsValue: true,
		RhsVal:     types.NewVarchar("a"),
	}}
	scan, err := NewSeqScanExecutor(ectx, "student", conds)
	testingpkg.Ok(t, err)
	victims := collectRids(t, scan)
	testingpkg.Equals(t, 2, len(victims))

	del, err := NewDeleteExecutor(ectx, "student", conds, victims)
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, del.Execute())

	rest, err := NewSeqScanExecutor(ectx, "student", nil)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, []int32{2}, scanIds(t, rest))

	ih := sm.Ihs[sm.GetIndexName("student", []string{"name"})]
	testingpkg.Equals(t, int32(1), ih.LeafEnd().SlotNo)
	txnMgr.Commit(txn)
}

// the index maps new_key to the rid and no longer knows old_key
func TestUpdateMaintainsIndexes(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	createStudentTable(t, sm)
	_, err := sm.CreateIndex("student", []string{"name"})
	testingpkg.Ok(t, err)

	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)
	rid := insertRow(t, ectx, "student", 1, "a")
	insertRow(t, ectx, "student", 2, "b")

	upd, err := NewUpdateExecutor(ectx, "student",
		[]expression.SetClause{{
			Lhs: expression.TableColumn{ColName: "name"},
			Rhs: types.NewVarchar("z"),
		}},
		nil, []page.RID{rid})
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, upd.Execute())

	// index scan order now ends with the rewritten row
	scan, err := NewIndexScanExecutor(ectx, "student", nil, []string{"name"})
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, []int32{2, 1}, scanIds(t, scan))

	// the heap row carries the new name
	rec, err := sm.Fhs["student"].GetRecord(rid, nil)
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, byte('z'), rec.Data[4])
	txnMgr.Commit(txn)
}

// update of a non-indexed column still reasserts the key, and the row stays
// reachable through the index
func TestUpdateUnchangedIndexColumns(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	createStudentTable(t, sm)
	_, err := sm.CreateIndex("student", []string{"name"})
	testingpkg.Ok(t, err)

	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)
	rid := insertRow(t, ectx, "student", 1, "a")

	upd, err := NewUpdateExecutor(ectx, "student",
		[]expression.SetClause{{
			Lhs: expression.TableColumn{ColName: "id"},
			Rhs: types.NewInteger(9),
		}},
		nil, []page.RID{rid})
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, upd.Execute())

	scan, err := NewIndexScanExecutor(ectx, "student", nil, []string{"name"})
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, []int32{9}, scanIds(t, scan))
	txnMgr.Commit(txn)
}

// a delete inside an aborted transaction is undone, indexes included
func TestAbortRollsBackDelete(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	createStudentTable(t, sm)
	_, err := sm.CreateIndex("student", []string{"name"})
	testingpkg.Ok(t, err)

	setup := txnMgr.Begin(nil)
	setupCtx := NewExecutorContext(sm, lockMgr, setup)
	insertRow(t, setupCtx, "student", 1, "a")
	insertRow(t, setupCtx, "student", 2, "b")
	txnMgr.Commit(setup)

	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)
	scan, err := NewSeqScanExecutor(ectx, "student", nil)
	testingpkg.Ok(t, err)
	victims := collectRids(t, scan)
	del, err := NewDeleteExecutor(ectx, "student", nil, victims)
	testingpkg.Ok(t, err)
	testingpkg.Ok(t, del.Execute())
	testingpkg.Ok(t, txnMgr.Abort(txn))

	check := txnMgr.Begin(nil)
	checkCtx := NewExecutorContext(sm, lockMgr, check)
	after, err := NewSeqScanExecutor(checkCtx, "student", nil)
	testingpkg.Ok(t, err)
	ids := scanIds(t, after)
	testingpkg.Equals(t, 2, len(ids))
	ih := sm.Ihs[sm.GetIndexName("student", []string{"name"})]
	testingpkg.Equals(t, int32(2), ih.LeafEnd().SlotNo)
	txnMgr.Commit(check)
}

// mutations take IX on the table and X on the touched rids
func TestMutationLocking(t *testing.T) {
	sm, lockMgr, txnMgr := bootstrapEngine(t)
	createStudentTable(t, sm)

	txn := txnMgr.Begin(nil)
	ectx := NewExecutorContext(sm, lockMgr, txn)
	rid := insertRow(t, ectx, "student", 1, "a")

	fd := sm.Fhs["student"].Fd()
	testingpkg.Assert(t, txn.GetLockSet().Contains(access.NewTableLockDataId(fd)),
		"table lock must be in the lock set")
	testingpkg.Assert(t, txn.GetLockSet().Contains(access.NewRecordLockDataId(fd, rid)),
		"record lock must be in the lock set")

	// a reader of another transaction is refused while the writer holds X
	other := txnMgr.Begin(nil)
	otherCtx := NewExecutorContext(sm, lockMgr, other)
	scan, err := NewSeqScanExecutor(otherCtx, "student", nil)
	testingpkg.Ok(t, err)
	err = scan.Init()
	testingpkg.Equals(t, access.ErrDeadlockPrevention, err)
	testingpkg.Ok(t, txnMgr.Abort(other))

	txnMgr.Commit(txn)
}
