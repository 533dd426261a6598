package expression

import (
	"testing"

	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/storage/access"
	testingpkg "github.com/violet-cai/rucbase/testing/testing_assert"
	"github.com/violet-cai/rucbase/types"
)

func studentSchema() []*catalog.ColMeta {
	return []*catalog.ColMeta{
		{TabName: "student", Name: "id", Type: types.Integer, Offset: 0, Len: 4},
		{TabName: "student", Name: "name", Type: types.Varchar, Offset: 4, Len: 8},
		{TabName: "student", Name: "score", Type: types.Float, Offset: 12, Len: 4},
	}
}

func studentRecord(id int32, name string, score float32) *access.Record {
	rec := access.NewRecord(16)
	copy(rec.Data[0:4], types.NewInteger(id).Raw())
	copy(rec.Data[4:12], types.NewVarchar(name).Raw())
	copy(rec.Data[12:16], types.NewFloat(score).Raw())
	return rec
}

func TestEvalCondAgainstLiteral(t *testing.T) {
	cols := studentSchema()
	rec := studentRecord(2, "b", 3.5)

	cases := []struct {
		op  CompOp
		rhs int32
		exp bool
	}{
		{OpEQ, 2, true},
		{OpEQ, 3, false},
		{OpNE, 3, true},
		{OpLT, 3, true},
		{OpLT, 2, false},
		{OpGT, 1, true},
		{OpLE, 2, true},
		{OpGE, 3, false},
	}
	for _, c := range cases {
		cond := Condition{
			LhsCol:     TableColumn{TabName: "student", ColName: "id"},
			Op:         c.op,
			RhsIsValue: true,
			RhsVal:     types.NewInteger(c.rhs),
		}
		got, err := EvalCond(cols, &cond, rec)
		testingpkg.Ok(t, err)
		testingpkg.Assert(t, got == c.exp, "id "+c.op.String()+" literal")
	}
}

func TestEvalCondVarcharLiteral(t *testing.T) {
	cols := studentSchema()
	cond := Condition{
		LhsCol:     TableColumn{ColName: "name"},
		Op:         OpEQ,
		RhsIsValue: true,
		RhsVal:     types.NewVarchar("a"),
	}

	hit, err := EvalCond(cols, &cond, studentRecord(1, "a", 0))
	testingpkg.Ok(t, err)
	testingpkg.Assert(t, hit, "short literal must match the padded column")

	miss, err := EvalCond(cols, &cond, studentRecord(2, "b", 0))
	testingpkg.Ok(t, err)
	testingpkg.Assert(t, !miss, "different name must not match")
}

func TestEvalCondColumnVersusColumn(t *testing.T) {
	cols := []*catalog.ColMeta{
		{TabName: "t", Name: "a", Type: types.Integer, Offset: 0, Len: 4},
		{TabName: "t", Name: "b", Type: types.Integer, Offset: 4, Len: 4},
	}
	rec := access.NewRecord(8)
	copy(rec.Data[0:4], types.NewInteger(7).Raw())
	copy(rec.Data[4:8], types.NewInteger(9).Raw())

	cond := Condition{
		LhsCol: TableColumn{ColName: "a"},
		Op:     OpLT,
		RhsCol: TableColumn{ColName: "b"},
	}
	got, err := EvalCond(cols, &cond, rec)
	testingpkg.Ok(t, err)
	testingpkg.Assert(t, got, "7 < 9 over two columns of one record")
}

func TestEvalCondsIsConjunction(t *testing.T) {
	cols := studentSchema()
	rec := studentRecord(2, "b", 3.5)

	conds := []Condition{
		{LhsCol: TableColumn{ColName: "id"}, Op: OpGE, RhsIsValue: true, RhsVal: types.NewInteger(2)},
		{LhsCol: TableColumn{ColName: "name"}, Op: OpEQ, RhsIsValue: true, RhsVal: types.NewVarchar("b")},
	}
	got, err := EvalConds(cols, conds, rec)
	testingpkg.Ok(t, err)
	testingpkg.Assert(t, got, "both conditions hold")

	conds = append(conds, Condition{
		LhsCol: TableColumn{ColName: "score"}, Op: OpLT, RhsIsValue: true, RhsVal: types.NewFloat(1.0),
	})
	got, err = EvalConds(cols, conds, rec)
	testingpkg.Ok(t, err)
	testingpkg.Assert(t, !got, "one failing condition sinks the conjunction")
}

func TestNormalizeCondsSwapsForeignLhs(t *testing.T) {
	conds := []Condition{
		{
			LhsCol: TableColumn{TabName: "other", ColName: "x"},
			Op:     OpLT,
			RhsCol: TableColumn{TabName: "mine", ColName: "y"},
		},
	}
	normalized := NormalizeConds(conds, "mine")
	testingpkg.Equals(t, "mine", normalized[0].LhsCol.TabName)
	testingpkg.Equals(t, "y", normalized[0].LhsCol.ColName)
	testingpkg.Equals(t, OpGT, normalized[0].Op)
	// the input is left untouched
	testingpkg.Equals(t, "other", conds[0].LhsCol.TabName)
}

func TestMirrorKeepsEqualityOps(t *testing.T) {
	testingpkg.Equals(t, OpEQ, OpEQ.Mirror())
	testingpkg.Equals(t, OpNE, OpNE.Mirror())
	testingpkg.Equals(t, OpGT, OpLT.Mirror())
	testingpkg.Equals(t, OpGE, OpLE.Mirror())
}
