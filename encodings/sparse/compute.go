package sparse

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
)

type sparseVTable struct {
	vtable.BaseVTable
}

func (sparseVTable) ID() array.EncodingID   { return array.EncodingSparse }
func (sparseVTable) Variants() []dtype.Kind { return nil }

func (sparseVTable) Canonicalize(a *array.Array) (*array.Array, error) {
	ctx := vtable.GlobalContext()
	n := a.Len()
	fill := Fill(a)
	scalars := make([]dtype.Scalar, n)
	for i := range scalars {
		scalars[i] = fill
	}
	indices, values := Indices(a), Values(a)
	offset := IndicesOffset(a)
	for i := 0; i < indices.Len(); i++ {
		local := int64(array.PrimitiveFloat64At(indices, i)) - offset
		if local < 0 || local >= int64(n) {
			continue
		}
		s, err := vtable.ScalarAt(ctx, values, i)
		if err != nil {
			return nil, err
		}
		scalars[local] = s
	}
	return array.BuildFromScalars(a.DType(), scalars), nil
}

func (sparseVTable) ScalarAt(a *array.Array, pos int) (dtype.Scalar, error) {
	idx, found := SearchIndex(a, pos)
	if !found {
		return Fill(a), nil
	}
	ctx := vtable.GlobalContext()
	return vtable.ScalarAt(ctx, Values(a), idx)
}

// Slice rebases in O(log n): only the patch sidecar's search boundaries
// change, not the patches themselves (spec §8's worked example: slicing
// [15,100) out of a 101-long sparse array with patches at 10,11,50,100
// leaves exactly one patch, 13531 at local index 35, with no data copy
// beyond the two narrowed sidecar slices).
func (sparseVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	ctx := vtable.GlobalContext()
	startIdx, _ := SearchIndex(a, lo)
	endIdx, _ := SearchIndex(a, hi)

	slicedIndices, err := vtable.Slice(ctx, Indices(a), startIdx, endIdx)
	if err != nil {
		return nil, err
	}
	slicedValues, err := vtable.Slice(ctx, Values(a), startIdx, endIdx)
	if err != nil {
		return nil, err
	}
	return New(a.DType(), hi-lo, slicedIndices, slicedValues, IndicesOffset(a)+int64(lo), Fill(a)), nil
}

func (sparseVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	if kind != array.StatNullCount {
		return nil, nil
	}
	if Fill(a).IsValid() {
		// Only explicit null patches can contribute nulls.
		n := 0
		values := Values(a)
		ctx := vtable.GlobalContext()
		for i := 0; i < values.Len(); i++ {
			s, err := vtable.ScalarAt(ctx, values, i)
			if err != nil {
				return nil, err
			}
			if !s.IsValid() {
				n++
			}
		}
		return n, nil
	}
	// Null fill: everything not covered by a non-null patch is null.
	nonNull := 0
	values := Values(a)
	ctx := vtable.GlobalContext()
	for i := 0; i < values.Len(); i++ {
		s, err := vtable.ScalarAt(ctx, values, i)
		if err != nil {
			return nil, err
		}
		if s.IsValid() {
			nonNull++
		}
	}
	return a.Len() - nonNull, nil
}
