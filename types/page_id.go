package types

import "github.com/violet-cai/rucbase/common"

// PageID is the type of the page identifier
type PageID int32

// IsValid checks if id is valid
func (id PageID) IsValid() bool {
	return id != common.InvalidPageID && id >= 0
}
