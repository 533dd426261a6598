package page

import (
	"sync"

	"github.com/violet-cai/rucbase/common"
	"github.com/violet-cai/rucbase/types"
)

// Page represents one buffer pool frame's view of a disk page
type Page struct {
	id       types.PageID
	pinCount int
	isDirty  bool
	data     *[common.PageSize]byte
	rwlatch  sync.RWMutex
}

func New(id types.PageID, pinCount int, data *[common.PageSize]byte) *Page {
	return &Page{id: id, pinCount: pinCount, data: data}
}

func NewEmpty(id types.PageID) *Page {
	return &Page{id: id, pinCount: 1, data: &[common.PageSize]byte{}}
}

// IncPinCount increments pin count
func (p *Page) IncPinCount() {
	p.pinCount++
}

// DecPinCount decrements pin count
func (p *Page) DecPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// PinCount returns the pin count
func (p *Page) PinCount() int {
	return p.pinCount
}

// ID returns the page id
func (p *Page) ID() types.PageID {
	return p.id
}

func (p *Page) Data() *[common.PageSize]byte {
	return p.data
}

func (p *Page) SetIsDirty(isDirty bool) {
	p.isDirty = isDirty
}

func (p *Page) IsDirty() bool {
	return p.isDirty
}

func (p *Page) RLatch()   { p.rwlatch.RLock() }
func (p *Page) RUnlatch() { p.rwlatch.RUnlock() }
func (p *Page) WLatch()   { p.rwlatch.Lock() }
func (p *Page) WUnlatch() { p.rwlatch.Unlock() }
