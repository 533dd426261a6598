package disk

import "github.com/violet-cai/rucbase/types"

// DiskManager is responsible for interacting with disk. It performs page
// granular reads and writes and hands out fresh page ids.
type DiskManager interface {
	ReadPage(pageID types.PageID, data []byte) error
	WritePage(pageID types.PageID, data []byte) error
	AllocatePage() types.PageID
	DeallocatePage(pageID types.PageID)
	NumPages() types.PageID
	ShutDown()
}
