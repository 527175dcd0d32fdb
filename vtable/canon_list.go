package vtable

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
)

type listVTable struct {
	BaseVTable
}

func (listVTable) ID() array.EncodingID   { return array.EncodingList }
func (listVTable) Variants() []dtype.Kind { return []dtype.Kind{dtype.KindList} }

func (listVTable) Canonicalize(a *array.Array) (*array.Array, error) { return a, nil }

func (listVTable) Validity(a *array.Array) (array.Validity, error) {
	return array.ListValidity(a), nil
}

func (listVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	if kind == array.StatNullCount {
		return array.ListValidity(a).NullCount(a.Len()), nil
	}
	return nil, nil
}

func (listVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	v := array.ListValidity(a)
	if !v.IsValid(i) {
		return dtype.NullScalar(a.DType()), nil
	}
	ctx := GlobalContext()
	lo, hi := array.ListOffsetAt(a, i), array.ListOffsetAt(a, i+1)
	values := make([]dtype.Scalar, hi-lo)
	child := array.ListValues(a)
	for j := range values {
		s, err := ScalarAt(ctx, child, int(lo)+j)
		if err != nil {
			return dtype.Scalar{}, err
		}
		values[j] = s
	}
	return dtype.NewList(a.DType(), values), nil
}

// Slice is O(1): the offsets buffer is sliced in place and the values child
// is left untouched, since list offsets are absolute into a values buffer
// shared with the parent (spec §4.1, offset-based slicing).
func (listVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	width := listWidth(a)
	buf := a.Buffer()[lo*width : (hi+1)*width]
	return array.NewList(a.DType(), hi-lo, buf, listOffsetWidth(a), array.ListValues(a), sliceValidity(array.ListValidity(a), lo, hi)), nil
}

func (listVTable) Take(a *array.Array, indices *array.Array) (*array.Array, error) {
	n := indices.Len()
	rows := make([]int, n)
	for i := 0; i < n; i++ {
		rows[i] = int(array.PrimitiveFloat64At(indices, i))
	}
	return listGather(a, rows)
}

func (listVTable) Filter(a *array.Array, mask *FilterMask) (*array.Array, error) {
	return listGather(a, mask.Indices())
}

// listGather builds a new list array containing the rows named by rows, in
// order, by flattening each row's element range into a single Take against
// the values child. This keeps the element-gathering logic encoding-agnostic
// instead of special-casing every possible values dtype (spec §4.1's
// "generic code path" preference, mirrored from genericCompare).
func listGather(a *array.Array, rows []int) (*array.Array, error) {
	ctx := GlobalContext()
	v := array.ListValidity(a)
	lengths := make([]int, len(rows))
	valid := make([]bool, len(rows))
	var flat []int64
	for i, r := range rows {
		if r < 0 || r >= a.Len() {
			return nil, outOfBounds("list.gather", r, a.Len())
		}
		lo, hi := array.ListOffsetAt(a, r), array.ListOffsetAt(a, r+1)
		lengths[i] = int(hi - lo)
		valid[i] = v.IsValid(r)
		for e := lo; e < hi; e++ {
			flat = append(flat, e)
		}
	}
	var flatBuf []byte
	for _, e := range flat {
		flatBuf = array.PutPrimitiveFloat64(flatBuf, dtype.I64, float64(e))
	}
	flatIdx := array.NewPrimitive(dtype.I64, len(flat), flatBuf, array.NonNullableValidity())
	values, err := Take(ctx, array.ListValues(a), flatIdx)
	if err != nil {
		return nil, err
	}
	offsets := array.EncodeOffsets32(lengths)
	return array.NewList(a.DType(), len(rows), offsets, array.Offset32, values, validityFromBools(valid, a.DType().Nullable)), nil
}

func listOffsetWidth(a *array.Array) array.OffsetWidth {
	if len(a.Buffer()) == (a.Len()+1)*8 {
		return array.Offset64
	}
	return array.Offset32
}

func listWidth(a *array.Array) int {
	if listOffsetWidth(a) == array.Offset64 {
		return 8
	}
	return 4
}
