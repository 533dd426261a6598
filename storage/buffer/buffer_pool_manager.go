package buffer

import (
	"errors"
	"sync"

	"github.com/violet-cai/rucbase/common"
	"github.com/violet-cai/rucbase/storage/disk"
	"github.com/violet-cai/rucbase/storage/page"
	"github.com/violet-cai/rucbase/types"
)

var ErrNoAvailableFrame = errors.New("buffer pool has no evictable frame")

// BufferPoolManager manages a fixed set of frames shared by one file's
// pages. Pages are pinned while a caller works on them and become eviction
// candidates once the pin count drops to zero.
type BufferPoolManager struct {
	diskManager disk.DiskManager
	pages       []*page.Page
	replacer    *ClockReplacer
	freeList    []FrameID
	pageTable   map[types.PageID]FrameID
	mutex       sync.Mutex
}

// NewBufferPoolManager returns a empty buffer pool manager
func NewBufferPoolManager(poolSize uint32, diskManager disk.DiskManager) *BufferPoolManager {
	freeList := make([]FrameID, poolSize)
	pages := make([]*page.Page, poolSize)
	for i := uint32(0); i < poolSize; i++ {
		freeList[i] = FrameID(i)
		pages[i] = nil
	}

	replacer := NewClockReplacer(poolSize)
	return &BufferPoolManager{diskManager, pages, replacer, freeList, make(map[types.PageID]FrameID), sync.Mutex{}}
}

// FetchPage fetches the requested page from the buffer pool, reading it
// from disk when it is not resident.
func (b *BufferPoolManager) FetchPage(pageID types.PageID) (*page.Page, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		pg.IncPinCount()
		b.replacer.Pin(frameID)
		return pg, nil
	}

	frameID, err := b.getFrame()
	if err != nil {
		return nil, err
	}

	data := &[common.PageSize]byte{}
	if err := b.diskManager.ReadPage(pageID, data[:]); err != nil {
		return nil, err
	}
	pg := page.New(pageID, 1, data)
	b.pageTable[pageID] = frameID
	b.pages[frameID] = pg

	return pg, nil
}

// UnpinPage unpins the target page from the buffer pool
func (b *BufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return errors.New("page is not in the buffer pool")
	}

	pg := b.pages[frameID]
	pg.DecPinCount()
	if isDirty {
		pg.SetIsDirty(true)
	}
	if pg.PinCount() <= 0 {
		b.replacer.Unpin(frameID)
	}
	return nil
}

// NewPage allocates a new page on disk and pins its frame
func (b *BufferPoolManager) NewPage() (*page.Page, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, err := b.getFrame()
	if err != nil {
		return nil, err
	}

	pageID := b.diskManager.AllocatePage()
	pg := page.NewEmpty(pageID)
	b.pageTable[pageID] = frameID
	b.pages[frameID] = pg

	return pg, nil
}

// FlushPage flushes the target page to disk
func (b *BufferPoolManager) FlushPage(pageID types.PageID) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.flushPage(pageID)
}

// FlushAllPages flushes all the pages in the buffer pool to disk
func (b *BufferPoolManager) FlushAllPages() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for pageID := range b.pageTable {
		b.flushPage(pageID)
	}
}

func (b *BufferPoolManager) flushPage(pageID types.PageID) error {
	frameID, ok := b.pageTable[pageID]
	if !ok {
		return errors.New("page is not in the buffer pool")
	}
	pg := b.pages[frameID]
	if err := b.diskManager.WritePage(pageID, pg.Data()[:]); err != nil {
		return err
	}
	pg.SetIsDirty(false)
	return nil
}

// getFrame takes a frame from the free list, or evicts an unpinned page.
// The caller holds b.mutex.
func (b *BufferPoolManager) getFrame() (FrameID, error) {
	if len(b.freeList) > 0 {
		frameID := b.freeList[0]
		b.freeList = b.freeList[1:]
		return frameID, nil
	}

	victim := b.replacer.Victim()
	if victim == nil {
		return 0, ErrNoAvailableFrame
	}
	frameID := *victim
	victimPage := b.pages[frameID]
	if victimPage != nil {
		if victimPage.IsDirty() {
			if err := b.diskManager.WritePage(victimPage.ID(), victimPage.Data()[:]); err != nil {
				return 0, err
			}
		}
		delete(b.pageTable, victimPage.ID())
		b.pages[frameID] = nil
	}
	return frameID, nil
}
