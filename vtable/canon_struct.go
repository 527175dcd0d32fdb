package vtable

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
)

type structVTable struct {
	BaseVTable
}

func (structVTable) ID() array.EncodingID   { return array.EncodingStruct }
func (structVTable) Variants() []dtype.Kind { return []dtype.Kind{dtype.KindStruct} }

func (structVTable) Canonicalize(a *array.Array) (*array.Array, error) { return a, nil }

func (structVTable) Validity(a *array.Array) (array.Validity, error) {
	return array.StructValidity(a), nil
}

func (structVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	if kind == array.StatNullCount {
		return array.StructValidity(a).NullCount(a.Len()), nil
	}
	return nil, nil
}

func (structVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	v := array.StructValidity(a)
	if !v.IsValid(i) {
		return dtype.NullScalar(a.DType()), nil
	}
	ctx := GlobalContext()
	values := make([]dtype.Scalar, len(a.DType().StructFields))
	for fi := range values {
		s, err := ScalarAt(ctx, array.StructField(a, fi), i)
		if err != nil {
			return dtype.Scalar{}, err
		}
		values[fi] = s
	}
	return dtype.NewStruct(a.DType(), values), nil
}

// Slice is O(1): spec §4.1 calls out Struct/Chunked/VarBin/Sparse as
// encodings that must slice without materializing children; a struct's
// children are sliced positionally, which each field's own Slice does in
// O(1) or O(log n) in turn.
func (structVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	ctx := GlobalContext()
	fields := make([]*array.Array, len(a.DType().StructFields))
	for i := range fields {
		f, err := Slice(ctx, array.StructField(a, i), lo, hi)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return array.NewStruct(a.DType(), hi-lo, fields, sliceValidity(array.StructValidity(a), lo, hi)), nil
}

func (structVTable) Take(a *array.Array, indices *array.Array) (*array.Array, error) {
	ctx := GlobalContext()
	fields := make([]*array.Array, len(a.DType().StructFields))
	for i := range fields {
		f, err := Take(ctx, array.StructField(a, i), indices)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	v := array.StructValidity(a)
	valid := make([]bool, indices.Len())
	for i := 0; i < indices.Len(); i++ {
		idx := int(array.PrimitiveFloat64At(indices, i))
		valid[i] = v.IsValid(idx)
	}
	return array.NewStruct(a.DType(), indices.Len(), fields, validityFromBools(valid, a.DType().Nullable)), nil
}

func (structVTable) Filter(a *array.Array, mask *FilterMask) (*array.Array, error) {
	ctx := GlobalContext()
	fields := make([]*array.Array, len(a.DType().StructFields))
	for i := range fields {
		f, err := Filter(ctx, array.StructField(a, i), mask)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	v := array.StructValidity(a)
	idxs := mask.Indices()
	valid := make([]bool, len(idxs))
	for i, srcIdx := range idxs {
		valid[i] = v.IsValid(srcIdx)
	}
	return array.NewStruct(a.DType(), mask.TrueCount(), fields, validityFromBools(valid, a.DType().Nullable)), nil
}
