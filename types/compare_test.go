package types

import (
	"testing"

	testingpkg "github.com/violet-cai/rucbase/testing/testing_assert"
)

func TestCompareIntegerBytes(t *testing.T) {
	testingpkg.Equals(t, -1, CompareBytes(NewInteger(1).Raw(), NewInteger(2).Raw(), Integer, 4))
	testingpkg.Equals(t, 0, CompareBytes(NewInteger(7).Raw(), NewInteger(7).Raw(), Integer, 4))
	testingpkg.Equals(t, 1, CompareBytes(NewInteger(3).Raw(), NewInteger(-5).Raw(), Integer, 4))
	// byte-wise comparison would get the sign wrong; the decoder must not
	testingpkg.Equals(t, -1, CompareBytes(NewInteger(-1).Raw(), NewInteger(0).Raw(), Integer, 4))
}

func TestCompareFloatBytes(t *testing.T) {
	testingpkg.Equals(t, -1, CompareBytes(NewFloat(1.5).Raw(), NewFloat(2.5).Raw(), Float, 4))
	testingpkg.Equals(t, 0, CompareBytes(NewFloat(2.5).Raw(), NewFloat(2.5).Raw(), Float, 4))
	testingpkg.Equals(t, 1, CompareBytes(NewFloat(0.0).Raw(), NewFloat(-3.25).Raw(), Float, 4))
}

func TestCompareVarcharBytes(t *testing.T) {
	lhs := []byte{'a', 0, 0, 0}
	testingpkg.Equals(t, 0, CompareBytes(lhs, NewVarchar("a").Raw(), Varchar, 4))
	testingpkg.Equals(t, -1, CompareBytes(lhs, NewVarchar("b").Raw(), Varchar, 4))
	testingpkg.Equals(t, 1, CompareBytes([]byte{'a', 'b', 0, 0}, NewVarchar("a").Raw(), Varchar, 4))
}
