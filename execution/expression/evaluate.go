package expression

import (
	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/types"
)

// EvalConds reports whether every condition holds on the record. It is the
// shared evaluator of the scan operators.
func EvalConds(cols []*catalog.ColMeta, conds []Condition, rec *access.Record) (bool, error) {
	for i := range conds {
		ok, err := EvalCond(cols, &conds[i], rec)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// EvalCond evaluates a single condition: resolve the lhs column's bytes in
// the record, resolve the rhs to literal bytes or another column's bytes in
// the same record, compare with the type-aware byte comparator and apply
// the operator to the tri-valued result.
func EvalCond(cols []*catalog.ColMeta, cond *Condition, rec *access.Record) (bool, error) {
	lhs, err := GetColMeta(cols, cond.LhsCol)
	if err != nil {
		return false, err
	}
	lhsBytes := rec.Data[lhs.Offset : lhs.Offset+lhs.Len]

	var rhsBytes []byte
	var typ types.TypeID
	if cond.RhsIsValue {
		rhsBytes = cond.RhsVal.Raw()
		typ = cond.RhsVal.ValueType()
	} else {
		rhs, err := GetColMeta(cols, cond.RhsCol)
		if err != nil {
			return false, err
		}
		rhsBytes = rec.Data[rhs.Offset : rhs.Offset+rhs.Len]
		typ = rhs.Type
	}

	cmp := types.CompareBytes(lhsBytes, rhsBytes, typ, lhs.Len)
	return cond.Op.holds(cmp), nil
}

// EvalJoinCond evaluates a condition whose two sides live in different
// rows: one column from the left row, one from the right. The sides may
// arrive in either order; they are compared left-to-right after mirroring.
func EvalJoinCond(leftCols []*catalog.ColMeta, rightCols []*catalog.ColMeta, cond *Condition,
	leftRec *access.Record, rightRec *access.Record) (bool, error) {
	op := cond.Op
	lhsMeta, err := GetColMeta(leftCols, cond.LhsCol)
	var rhsMeta *catalog.ColMeta
	if err == nil {
		rhsMeta, err = GetColMeta(rightCols, cond.RhsCol)
		if err != nil {
			return false, err
		}
	} else {
		// lhs names a right-side column: swap and mirror
		lhsMeta, err = GetColMeta(leftCols, cond.RhsCol)
		if err != nil {
			return false, err
		}
		rhsMeta, err = GetColMeta(rightCols, cond.LhsCol)
		if err != nil {
			return false, err
		}
		op = op.Mirror()
	}

	lhsBytes := leftRec.Data[lhsMeta.Offset : lhsMeta.Offset+lhsMeta.Len]
	rhsBytes := rightRec.Data[rhsMeta.Offset : rhsMeta.Offset+rhsMeta.Len]
	cmp := types.CompareBytes(lhsBytes, rhsBytes, rhsMeta.Type, rhsMeta.Len)
	return op.holds(cmp), nil
}
