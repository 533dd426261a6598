package types

import (
	"encoding/binary"
	"math"
)

// Value is a typed literal carried by a condition or a set clause. Raw holds
// the value's fixed-width byte image: 4 bytes little endian for Integer and
// Float, the string bytes (not padded) for Varchar.
type Value struct {
	valueType TypeID
	raw       []byte
}

func NewInteger(value int32) Value {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, uint32(value))
	return Value{Integer, raw}
}

func NewFloat(value float32) Value {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, math.Float32bits(value))
	return Value{Float, raw}
}

func NewVarchar(value string) Value {
	return Value{Varchar, []byte(value)}
}

func (v Value) ValueType() TypeID { return v.valueType }

func (v Value) Raw() []byte { return v.raw }

func (v Value) ToInteger() int32 {
	return int32(binary.LittleEndian.Uint32(v.raw))
}

func (v Value) ToFloat() float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(v.raw))
}

func (v Value) ToVarchar() string { return string(v.raw) }
