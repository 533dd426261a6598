package access

// Record is an owned byte buffer holding exactly one fixed-width row image.
// Records handed out by the file handle are copies; mutating one never
// touches the underlying page.
type Record struct {
	Data []byte
}

func NewRecord(size uint32) *Record {
	return &Record{Data: make([]byte, size)}
}

func NewRecordFromBytes(data []byte) *Record {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Record{Data: buf}
}

func (r *Record) Size() uint32 { return uint32(len(r.Data)) }

func (r *Record) Copy() *Record {
	return NewRecordFromBytes(r.Data)
}
