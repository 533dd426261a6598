package disk

import (
	"errors"
	"sync"

	"github.com/dsnet/golib/memfile"
	"github.com/violet-cai/rucbase/common"
	"github.com/violet-cai/rucbase/types"
)

// VirtualDiskManagerImpl keeps the whole file on memory. It offers the same
// interface as an on-disk manager, so the storage layer and the tests run
// against it unchanged.
type VirtualDiskManagerImpl struct {
	db         *memfile.File
	fileName   string
	nextPageID types.PageID
	numWrites  uint64
	size       int64
	dbFileMutex *sync.Mutex
}

func NewVirtualDiskManagerImpl(dbFilename string) DiskManager {
	file := memfile.New(make([]byte, 0))
	return &VirtualDiskManagerImpl{file, dbFilename, types.PageID(0), 0, int64(0), new(sync.Mutex)}
}

// ShutDown is a no-op; the in-memory image is left as it is
func (d *VirtualDiskManagerImpl) ShutDown() {
	// do nothing
}

// WritePage writes a page's byte image to the file
func (d *VirtualDiskManagerImpl) WritePage(pageId types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	offset := int64(pageId) * common.PageSize
	d.db.WriteAt(pageData, offset)
	d.numWrites += 1
	if offset+common.PageSize > d.size {
		d.size = offset + common.PageSize
	}
	return nil
}

// ReadPage reads a page's byte image from the file. Reading an allocated
// page that was never flushed yields zeroes.
func (d *VirtualDiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	if pageID >= d.nextPageID {
		return errors.New("page not allocated")
	}
	for i := range pageData {
		pageData[i] = 0
	}
	offset := int64(pageID) * common.PageSize
	if offset >= d.size {
		return nil
	}
	d.db.ReadAt(pageData, offset)
	return nil
}

// AllocatePage allocates a new page id
func (d *VirtualDiskManagerImpl) AllocatePage() types.PageID {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	ret := d.nextPageID
	d.nextPageID++
	return ret
}

// DeallocatePage deallocates page
// Need bitmap in header page for tracking pages
// This does not actually need to do anything for now.
func (d *VirtualDiskManagerImpl) DeallocatePage(pageID types.PageID) {
}

// NumPages returns how many pages have been allocated
func (d *VirtualDiskManagerImpl) NumPages() types.PageID {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	return d.nextPageID
}
