package array

import "github.com/vxdb/vortex/dtype"

// NewNull constructs the canonical encoding for dtype.Null: every logical
// element is null, length n, no buffer and no children.
func NewNull(n int) *Array {
	a := New(EncodingNull, dtype.Null(), n, nil, nil, nil, Owned)
	a.Stats().Set(StatNullCount, n)
	a.Stats().Set(StatIsConstant, true)
	return a
}
