package common

var EnableLogging bool = false
var EnableDebug bool = false

const (
	// invalid page id
	InvalidPageID = -1
	// invalid transaction id
	InvalidTxnID = -1
	// the header page of a record file
	FileHeaderPageID = 0
	// size of a data page in byte
	PageSize = 4096
	// number of frames a table's buffer pool holds by default
	BufferPoolSize = 32
	// number of shards the lock table is split into
	LockTableShardNum = 16
)
