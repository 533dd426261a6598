package catalog

import (
	"errors"
	"fmt"

	"github.com/violet-cai/rucbase/types"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrIndexNotFound  = errors.New("index not found")
)

// TableMeta holds one table's schema and its secondary indexes.
type TableMeta struct {
	Name    string
	Cols    []*ColMeta
	Indexes []*IndexMeta
}

// RecordSize is the fixed payload width of the table's records.
func (tm *TableMeta) RecordSize() uint32 {
	if len(tm.Cols) == 0 {
		return 0
	}
	last := tm.Cols[len(tm.Cols)-1]
	return last.Offset + last.Len
}

func (tm *TableMeta) GetColMeta(name string) (*ColMeta, error) {
	for _, col := range tm.Cols {
		if col.Name == name {
			return col, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrColumnNotFound, tm.Name, name)
}

// GetIndexMeta resolves an index by its column name list, order sensitive.
func (tm *TableMeta) GetIndexMeta(colNames []string) (*IndexMeta, error) {
	for _, im := range tm.Indexes {
		if len(im.Cols) != len(colNames) {
			continue
		}
		match := true
		for i, col := range im.Cols {
			if col.Name != colNames[i] {
				match = false
				break
			}
		}
		if match {
			return im, nil
		}
	}
	return nil, fmt.Errorf("%w: %s%v", ErrIndexNotFound, tm.Name, colNames)
}

// BuildRecord assembles a record image out of one value per column, in
// declaration order. Varchar values shorter than the column keep their zero
// padding; longer ones are rejected.
func (tm *TableMeta) BuildRecord(vals []types.Value) ([]byte, error) {
	if len(vals) != len(tm.Cols) {
		return nil, fmt.Errorf("table %s expects %d values, got %d", tm.Name, len(tm.Cols), len(vals))
	}
	data := make([]byte, tm.RecordSize())
	for i, col := range tm.Cols {
		raw := vals[i].Raw()
		if uint32(len(raw)) > col.Len {
			return nil, fmt.Errorf("value too wide for column %s.%s", tm.Name, col.Name)
		}
		copy(data[col.Offset:col.Offset+col.Len], raw)
	}
	return data, nil
}
