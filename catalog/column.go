package catalog

import "github.com/violet-cai/rucbase/types"

// ColMeta describes one fixed-width column of a table's record payload.
// Offsets partition the payload contiguously in declaration order.
type ColMeta struct {
	TabName string
	Name    string
	Type    types.TypeID
	Offset  uint32
	Len     uint32
}

// ColDef is the creation-time shape of a column; offsets are assigned by
// CreateTable.
type ColDef struct {
	Name string
	Type types.TypeID
	Len  uint32
}
