package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/violet-cai/rucbase/common"
	"github.com/violet-cai/rucbase/storage/access"
	"github.com/violet-cai/rucbase/storage/buffer"
	"github.com/violet-cai/rucbase/storage/disk"
	"github.com/violet-cai/rucbase/storage/index"
	"github.com/violet-cai/rucbase/storage/page"
	"github.com/violet-cai/rucbase/types"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableExists   = errors.New("table already exists")
	ErrIndexExists   = errors.New("index already exists")
)

// DBMeta is the database's table dictionary.
type DBMeta struct {
	Name   string
	Tables map[string]*TableMeta
}

func (db *DBMeta) GetTable(name string) (*TableMeta, error) {
	tab, ok := db.Tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return tab, nil
}

// SmManager owns the catalog and the open storage handles: one record file
// handle per table and one index handle per index. Each table gets its own
// buffer pool over its own (virtual) file, so within-file page numbers are
// also the pool's page ids.
type SmManager struct {
	DB  *DBMeta
	Fhs map[string]*access.RecordFileHandle
	Ihs map[string]*index.BTreeIndex

	latch    sync.Mutex
	nextFd   int32
	poolSize uint32
}

func NewSmManager(dbName string) *SmManager {
	return &SmManager{
		DB:       &DBMeta{Name: dbName, Tables: make(map[string]*TableMeta)},
		Fhs:      make(map[string]*access.RecordFileHandle),
		Ihs:      make(map[string]*index.BTreeIndex),
		poolSize: common.BufferPoolSize,
	}
}

// CreateTable registers a table, assigns the columns' offsets and formats
// its heap file.
func (sm *SmManager) CreateTable(name string, defs []*ColDef) (*TableMeta, error) {
	sm.latch.Lock()
	defer sm.latch.Unlock()

	if _, ok := sm.DB.Tables[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}

	cols := make([]*ColMeta, 0, len(defs))
	offset := uint32(0)
	for _, def := range defs {
		length := def.Len
		if def.Type != types.Varchar {
			length = def.Type.Size()
		}
		cols = append(cols, &ColMeta{
			TabName: name,
			Name:    def.Name,
			Type:    def.Type,
			Offset:  offset,
			Len:     length,
		})
		offset += length
	}
	tab := &TableMeta{Name: name, Cols: cols}

	dm := disk.NewVirtualDiskManagerImpl(name + ".db")
	bpm := buffer.NewBufferPoolManager(sm.poolSize, dm)
	fd := sm.nextFd
	sm.nextFd++
	fh, err := access.CreateRecordFile(bpm, fd, tab.RecordSize())
	if err != nil {
		return nil, err
	}

	sm.DB.Tables[name] = tab
	sm.Fhs[name] = fh
	return tab, nil
}

// GetIndexName is the catalog-wide name of the index on tabName over the
// given columns.
func (sm *SmManager) GetIndexName(tabName string, colNames []string) string {
	return tabName + "_" + strings.Join(colNames, "_")
}

// CreateIndex registers a secondary index and backfills it from the table's
// current rows.
func (sm *SmManager) CreateIndex(tabName string, colNames []string) (*IndexMeta, error) {
	sm.latch.Lock()
	defer sm.latch.Unlock()

	tab, err := sm.DB.GetTable(tabName)
	if err != nil {
		return nil, err
	}
	indexName := sm.GetIndexName(tabName, colNames)
	if _, ok := sm.Ihs[indexName]; ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexExists, indexName)
	}

	cols := make([]*ColMeta, 0, len(colNames))
	for _, colName := range colNames {
		col, err := tab.GetColMeta(colName)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	im := NewIndexMeta(tabName, cols)
	ih := index.NewBTreeIndex(im.ColTotLen)

	fh := sm.Fhs[tabName]
	scan, err := access.NewRecordScan(fh)
	if err != nil {
		return nil, err
	}
	for !scan.IsEnd() {
		rid := scan.RID()
		rec, err := fh.GetRecord(rid, nil)
		if err != nil {
			return nil, err
		}
		if err := ih.InsertEntry(im.MakeKey(rec.Data), rid, nil); err != nil {
			return nil, err
		}
		if err := scan.Next(); err != nil {
			return nil, err
		}
	}

	tab.Indexes = append(tab.Indexes, im)
	sm.Ihs[indexName] = ih
	return im, nil
}

// TableFile implements access.SystemCatalog.
func (sm *SmManager) TableFile(tabName string) (*access.RecordFileHandle, error) {
	fh, ok := sm.Fhs[tabName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tabName)
	}
	return fh, nil
}

// TableIndexes implements access.SystemCatalog: every secondary index of
// the table, bound to its key extractor.
func (sm *SmManager) TableIndexes(tabName string) []access.TableIndex {
	tab, err := sm.DB.GetTable(tabName)
	if err != nil {
		return nil
	}
	bound := make([]access.TableIndex, 0, len(tab.Indexes))
	for _, im := range tab.Indexes {
		ih, ok := sm.Ihs[sm.GetIndexName(tabName, im.ColNames())]
		if !ok {
			continue
		}
		bound = append(bound, &boundIndex{meta: im, handle: ih})
	}
	return bound
}

// boundIndex adapts (IndexMeta, BTreeIndex) to access.TableIndex.
type boundIndex struct {
	meta   *IndexMeta
	handle *index.BTreeIndex
}

func (b *boundIndex) MakeKey(data []byte) []byte { return b.meta.MakeKey(data) }

func (b *boundIndex) InsertEntry(key []byte, rid page.RID, txn *access.Transaction) error {
	return b.handle.InsertEntry(key, rid, txn)
}

func (b *boundIndex) DeleteEntry(key []byte, txn *access.Transaction) error {
	return b.handle.DeleteEntry(key, txn)
}
