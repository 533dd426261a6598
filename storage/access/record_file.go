package access

import (
	"encoding/binary"
	"errors"

	"github.com/violet-cai/rucbase/common"
	"github.com/violet-cai/rucbase/storage/buffer"
	"github.com/violet-cai/rucbase/storage/page"
	"github.com/violet-cai/rucbase/types"
)

var (
	ErrRecordNotFound = errors.New("rid does not point at an occupied slot")
	ErrPageOutOfRange = errors.New("page number out of file range")
	ErrFileFull       = errors.New("record file can not grow")
)

// RecordFileHeader describes a heap file. Page 0 persists it; data pages
// run from 1 to NumPages-1.
type RecordFileHeader struct {
	RecordSize        uint32
	NumPages          int32
	NumRecordsPerPage int32
}

const fileHeaderSize = 12

func (h *RecordFileHeader) serializeTo(data []byte) {
	binary.LittleEndian.PutUint32(data[0:], h.RecordSize)
	binary.LittleEndian.PutUint32(data[4:], uint32(h.NumPages))
	binary.LittleEndian.PutUint32(data[8:], uint32(h.NumRecordsPerPage))
}

func (h *RecordFileHeader) deserializeFrom(data []byte) {
	h.RecordSize = binary.LittleEndian.Uint32(data[0:])
	h.NumPages = int32(binary.LittleEndian.Uint32(data[4:]))
	h.NumRecordsPerPage = int32(binary.LittleEndian.Uint32(data[8:]))
}

// recordsPerPage returns the largest slot count whose bitmap plus payload
// fits one page.
func recordsPerPage(recordSize uint32) int32 {
	n := int(common.PageSize*page.BitmapWidth) / (1 + page.BitmapWidth*int(recordSize))
	for n > 0 && page.BitmapSizeFor(n)+n*int(recordSize) > common.PageSize {
		n--
	}
	return int32(n)
}

// RecordPageHandle is a pinned view of one data page: the occupancy bitmap
// followed by the fixed-width slot array.
type RecordPageHandle struct {
	fileHdr *RecordFileHeader
	page    *page.Page
}

func (h *RecordPageHandle) Bitmap() []byte {
	return h.page.Data()[:page.BitmapSizeFor(int(h.fileHdr.NumRecordsPerPage))]
}

func (h *RecordPageHandle) Slot(slotNo int32) []byte {
	base := page.BitmapSizeFor(int(h.fileHdr.NumRecordsPerPage))
	off := base + int(slotNo)*int(h.fileHdr.RecordSize)
	return h.page.Data()[off : off+int(h.fileHdr.RecordSize)]
}

func (h *RecordPageHandle) PageNo() types.PageID { return h.page.ID() }

// RecordFileHandle is the heap file access method: fixed-width records in
// bitmap-tracked slots, one bitmap per page. Row level locks are routed
// through the Context passed to each call, before the slot is touched.
type RecordFileHandle struct {
	bpm *buffer.BufferPoolManager
	fd  int32
	hdr RecordFileHeader
}

// CreateRecordFile formats a fresh heap file on the given pool: page 0
// becomes the header page.
func CreateRecordFile(bpm *buffer.BufferPoolManager, fd int32, recordSize uint32) (*RecordFileHandle, error) {
	nrpp := recordsPerPage(recordSize)
	if nrpp <= 0 {
		return nil, errors.New("record size does not fit a page")
	}
	fh := &RecordFileHandle{bpm: bpm, fd: fd}
	fh.hdr = RecordFileHeader{RecordSize: recordSize, NumPages: 1, NumRecordsPerPage: nrpp}

	hdrPage, err := bpm.NewPage()
	if err != nil {
		return nil, err
	}
	common.SH_Assert(hdrPage.ID() == common.FileHeaderPageID, "header page must be page 0")
	fh.hdr.serializeTo(hdrPage.Data()[:fileHeaderSize])
	return fh, bpm.UnpinPage(hdrPage.ID(), true)
}

// OpenRecordFile reads the header of an already formatted file.
func OpenRecordFile(bpm *buffer.BufferPoolManager, fd int32) (*RecordFileHandle, error) {
	fh := &RecordFileHandle{bpm: bpm, fd: fd}
	hdrPage, err := bpm.FetchPage(common.FileHeaderPageID)
	if err != nil {
		return nil, err
	}
	fh.hdr.deserializeFrom(hdrPage.Data()[:fileHeaderSize])
	return fh, bpm.UnpinPage(hdrPage.ID(), false)
}

func (fh *RecordFileHandle) Fd() int32 { return fh.fd }

// FileHeader returns a copy of the file header.
func (fh *RecordFileHandle) FileHeader() RecordFileHeader { return fh.hdr }

// FetchPageHandle pins the data page pageNo and wraps it.
func (fh *RecordFileHandle) FetchPageHandle(pageNo types.PageID) (*RecordPageHandle, error) {
	if pageNo < 1 || int32(pageNo) >= fh.hdr.NumPages {
		return nil, ErrPageOutOfRange
	}
	pg, err := fh.bpm.FetchPage(pageNo)
	if err != nil {
		return nil, err
	}
	return &RecordPageHandle{fileHdr: &fh.hdr, page: pg}, nil
}

func (fh *RecordFileHandle) unpin(h *RecordPageHandle, dirty bool) {
	fh.bpm.UnpinPage(h.page.ID(), dirty)
}

// createPageHandle grows the file by one data page and pins it.
func (fh *RecordFileHandle) createPageHandle() (*RecordPageHandle, error) {
	pg, err := fh.bpm.NewPage()
	if err != nil {
		return nil, err
	}
	if int32(pg.ID()) != fh.hdr.NumPages {
		fh.bpm.UnpinPage(pg.ID(), false)
		return nil, ErrFileFull
	}
	fh.hdr.NumPages++
	if err := fh.persistHeader(); err != nil {
		fh.bpm.UnpinPage(pg.ID(), false)
		return nil, err
	}
	return &RecordPageHandle{fileHdr: &fh.hdr, page: pg}, nil
}

func (fh *RecordFileHandle) persistHeader() error {
	hdrPage, err := fh.bpm.FetchPage(common.FileHeaderPageID)
	if err != nil {
		return err
	}
	fh.hdr.serializeTo(hdrPage.Data()[:fileHeaderSize])
	return fh.bpm.UnpinPage(hdrPage.ID(), true)
}

func (fh *RecordFileHandle) lockShared(ctx *Context, rid page.RID) error {
	if ctx == nil || ctx.LockMgr == nil || ctx.Txn == nil {
		return nil
	}
	return ctx.LockMgr.LockSharedOnRecord(ctx.Txn, rid, fh.fd)
}

func (fh *RecordFileHandle) lockExclusive(ctx *Context, rid page.RID) error {
	if ctx == nil || ctx.LockMgr == nil || ctx.Txn == nil {
		return nil
	}
	return ctx.LockMgr.LockExclusiveOnRecord(ctx.Txn, rid, fh.fd)
}

// GetRecord returns a fresh copy of the record at rid, taking a record S
// lock first.
func (fh *RecordFileHandle) GetRecord(rid page.RID, ctx *Context) (*Record, error) {
	if err := fh.lockShared(ctx, rid); err != nil {
		return nil, err
	}
	h, err := fh.FetchPageHandle(rid.PageNo)
	if err != nil {
		return nil, err
	}
	defer fh.unpin(h, false)
	if !page.BitmapIsSet(h.Bitmap(), int(rid.SlotNo)) {
		return nil, ErrRecordNotFound
	}
	return NewRecordFromBytes(h.Slot(rid.SlotNo)), nil
}

// InsertRecord places data in the first free slot, growing the file when
// every page is full, and returns the new record's rid.
func (fh *RecordFileHandle) InsertRecord(data []byte, ctx *Context) (page.RID, error) {
	common.SH_Assert(uint32(len(data)) == fh.hdr.RecordSize, "insert payload must be record sized")

	var h *RecordPageHandle
	slotNo := int32(-1)
	for pageNo := types.PageID(1); int32(pageNo) < fh.hdr.NumPages; pageNo++ {
		cand, err := fh.FetchPageHandle(pageNo)
		if err != nil {
			return page.InvalidRID(), err
		}
		free := page.BitmapFirstBit(false, cand.Bitmap(), int(fh.hdr.NumRecordsPerPage))
		if free < int(fh.hdr.NumRecordsPerPage) {
			h = cand
			slotNo = int32(free)
			break
		}
		fh.unpin(cand, false)
	}
	if h == nil {
		created, err := fh.createPageHandle()
		if err != nil {
			return page.InvalidRID(), err
		}
		h = created
		slotNo = 0
	}

	rid := page.RID{PageNo: h.PageNo(), SlotNo: slotNo}
	if err := fh.lockExclusive(ctx, rid); err != nil {
		fh.unpin(h, false)
		return page.InvalidRID(), err
	}
	page.BitmapSet(h.Bitmap(), int(slotNo))
	copy(h.Slot(slotNo), data)
	fh.unpin(h, true)
	return rid, nil
}

// DeleteRecord clears rid's slot, taking a record X lock first.
func (fh *RecordFileHandle) DeleteRecord(rid page.RID, ctx *Context) error {
	if err := fh.lockExclusive(ctx, rid); err != nil {
		return err
	}
	h, err := fh.FetchPageHandle(rid.PageNo)
	if err != nil {
		return err
	}
	if !page.BitmapIsSet(h.Bitmap(), int(rid.SlotNo)) {
		fh.unpin(h, false)
		return ErrRecordNotFound
	}
	page.BitmapReset(h.Bitmap(), int(rid.SlotNo))
	fh.unpin(h, true)
	return nil
}

// UpdateRecord overwrites rid's slot with data, taking a record X lock
// first.
func (fh *RecordFileHandle) UpdateRecord(rid page.RID, data []byte, ctx *Context) error {
	common.SH_Assert(uint32(len(data)) == fh.hdr.RecordSize, "update payload must be record sized")
	if err := fh.lockExclusive(ctx, rid); err != nil {
		return err
	}
	h, err := fh.FetchPageHandle(rid.PageNo)
	if err != nil {
		return err
	}
	if !page.BitmapIsSet(h.Bitmap(), int(rid.SlotNo)) {
		fh.unpin(h, false)
		return ErrRecordNotFound
	}
	copy(h.Slot(rid.SlotNo), data)
	fh.unpin(h, true)
	return nil
}
