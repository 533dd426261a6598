package expression

import (
	"fmt"

	"github.com/violet-cai/rucbase/catalog"
	"github.com/violet-cai/rucbase/types"
)

// TableColumn names a column, optionally qualified by its table.
type TableColumn struct {
	TabName string
	ColName string
}

// Condition is one predicate of the form lhs op rhs where rhs is either a
// literal value or another column.
type Condition struct {
	LhsCol     TableColumn
	Op         CompOp
	RhsIsValue bool
	RhsVal     types.Value
	RhsCol     TableColumn
}

// SetClause assigns a literal to a column in an update.
type SetClause struct {
	Lhs TableColumn
	Rhs types.Value
}

// GetColMeta resolves a column reference against a schema. An unqualified
// reference matches any table.
func GetColMeta(cols []*catalog.ColMeta, target TableColumn) (*catalog.ColMeta, error) {
	for _, col := range cols {
		if col.Name != target.ColName {
			continue
		}
		if target.TabName == "" || target.TabName == col.TabName {
			return col, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", catalog.ErrColumnNotFound, target.TabName, target.ColName)
}

// NormalizeConds rewrites conditions so that every lhs column belongs to
// tabName, swapping sides and mirroring the operator where needed.
func NormalizeConds(conds []Condition, tabName string) []Condition {
	normalized := make([]Condition, len(conds))
	copy(normalized, conds)
	for i := range normalized {
		cond := &normalized[i]
		if cond.LhsCol.TabName != "" && cond.LhsCol.TabName != tabName && !cond.RhsIsValue {
			cond.LhsCol, cond.RhsCol = cond.RhsCol, cond.LhsCol
			cond.Op = cond.Op.Mirror()
		}
	}
	return normalized
}
