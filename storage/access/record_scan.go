package access

import (
	"github.com/violet-cai/rucbase/storage/page"
	"github.com/violet-cai/rucbase/types"
)

// RecordScan walks the rids of all occupied slots of a heap file in
// (page ascending, slot ascending) order, skipping empty slots via the per
// page occupancy bitmaps.
type RecordScan struct {
	fh  *RecordFileHandle
	rid page.RID
}

// NewRecordScan positions the cursor on the first occupied slot, or at the
// end for a file without data pages.
func NewRecordScan(fh *RecordFileHandle) (*RecordScan, error) {
	scan := &RecordScan{fh: fh}
	hdr := fh.FileHeader()
	if hdr.NumPages <= 1 {
		scan.rid = page.RID{PageNo: types.PageID(hdr.NumPages), SlotNo: hdr.NumRecordsPerPage}
		return scan, nil
	}

	h, err := fh.FetchPageHandle(1)
	if err != nil {
		return nil, err
	}
	scan.rid.Set(1, int32(page.BitmapFirstBit(true, h.Bitmap(), int(hdr.NumRecordsPerPage))))
	fh.unpin(h, false)
	if scan.rid.SlotNo == hdr.NumRecordsPerPage {
		// page 1 holds no record, seek across the following pages
		if err := scan.seekNextPage(); err != nil {
			return nil, err
		}
	}
	return scan, nil
}

// Next advances the cursor to the next occupied slot.
func (s *RecordScan) Next() error {
	if s.IsEnd() {
		return nil
	}
	hdr := s.fh.FileHeader()
	h, err := s.fh.FetchPageHandle(s.rid.PageNo)
	if err != nil {
		return err
	}
	s.rid.SlotNo = int32(page.BitmapNextBit(true, h.Bitmap(), int(hdr.NumRecordsPerPage), int(s.rid.SlotNo)))
	s.fh.unpin(h, false)
	if s.rid.SlotNo == hdr.NumRecordsPerPage {
		return s.seekNextPage()
	}
	return nil
}

// seekNextPage moves the cursor to the first occupied slot on a page after
// the current one. The cursor keeps slot == NumRecordsPerPage while pages
// come up empty, so running off the file leaves it at the end position.
func (s *RecordScan) seekNextPage() error {
	hdr := s.fh.FileHeader()
	for s.rid.SlotNo == hdr.NumRecordsPerPage {
		s.rid.PageNo++
		if int32(s.rid.PageNo) >= hdr.NumPages {
			return nil
		}
		h, err := s.fh.FetchPageHandle(s.rid.PageNo)
		if err != nil {
			return err
		}
		s.rid.SlotNo = int32(page.BitmapFirstBit(true, h.Bitmap(), int(hdr.NumRecordsPerPage)))
		s.fh.unpin(h, false)
	}
	return nil
}

// RID returns the cursor position.
func (s *RecordScan) RID() page.RID { return s.rid }

// IsEnd reports whether the cursor ran past the last data page.
func (s *RecordScan) IsEnd() bool {
	hdr := s.fh.FileHeader()
	return s.rid.SlotNo == hdr.NumRecordsPerPage && int32(s.rid.PageNo) >= hdr.NumPages
}
