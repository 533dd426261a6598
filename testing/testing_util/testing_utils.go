package testing_util

import (
	"github.com/violet-cai/rucbase/types"
)

// GetValue wraps plain Go data as a typed literal value.
func GetValue(data interface{}) (value types.Value) {
	switch v := data.(type) {
	case int:
		value = types.NewInteger(int32(v))
	case int32:
		value = types.NewInteger(v)
	case float32:
		value = types.NewFloat(v)
	case string:
		value = types.NewVarchar(v)
	case types.Value:
		value = v
	}
	return
}

// GetValueType maps plain Go data to its column type.
func GetValueType(data interface{}) types.TypeID {
	switch data.(type) {
	case int, int32:
		return types.Integer
	case float32:
		return types.Float
	case string:
		return types.Varchar
	case types.Value:
		return data.(types.Value).ValueType()
	}
	panic("not implemented")
}
