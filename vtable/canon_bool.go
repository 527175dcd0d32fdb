package vtable

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
)

type boolVTable struct {
	BaseVTable
}

func (boolVTable) ID() array.EncodingID   { return array.EncodingBool }
func (boolVTable) Variants() []dtype.Kind { return []dtype.Kind{dtype.KindBool} }

func (boolVTable) Canonicalize(a *array.Array) (*array.Array, error) { return a, nil }

func (boolVTable) Validity(a *array.Array) (array.Validity, error) {
	return array.BoolValidity(a), nil
}

func (boolVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	switch kind {
	case array.StatTrueCount:
		n := 0
		for i := 0; i < a.Len(); i++ {
			if array.BoolValueAt(a, i) {
				n++
			}
		}
		return n, nil
	case array.StatNullCount:
		return array.BoolValidity(a).NullCount(a.Len()), nil
	default:
		return nil, nil
	}
}

func (boolVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	v := array.BoolValidity(a)
	if !v.IsValid(i) {
		return dtype.NullScalar(a.DType()), nil
	}
	return dtype.NewBool(array.BoolValueAt(a, i), a.DType().Nullable), nil
}

func (boolVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	vals := make([]bool, hi-lo)
	valid := make([]bool, hi-lo)
	v := array.BoolValidity(a)
	for i := range vals {
		vals[i] = array.BoolValueAt(a, lo+i)
		valid[i] = v.IsValid(lo + i)
	}
	return buildBoolFrom(vals, valid, a.DType().Nullable), nil
}

func (boolVTable) Take(a *array.Array, indices *array.Array) (*array.Array, error) {
	n := indices.Len()
	vals := make([]bool, n)
	valid := make([]bool, n)
	srcValidity := array.BoolValidity(a)
	for i := 0; i < n; i++ {
		idx := int(array.PrimitiveFloat64At(indices, i))
		if idx < 0 || idx >= a.Len() {
			return nil, outOfBounds("bool.take", idx, a.Len())
		}
		vals[i] = array.BoolValueAt(a, idx)
		valid[i] = srcValidity.IsValid(idx)
	}
	return buildBoolFrom(vals, valid, a.DType().Nullable), nil
}

func (boolVTable) Filter(a *array.Array, mask *FilterMask) (*array.Array, error) {
	idx := mask.Indices()
	vals := make([]bool, len(idx))
	valid := make([]bool, len(idx))
	v := array.BoolValidity(a)
	for i, srcIdx := range idx {
		vals[i] = array.BoolValueAt(a, srcIdx)
		valid[i] = v.IsValid(srcIdx)
	}
	return buildBoolFrom(vals, valid, a.DType().Nullable), nil
}

func (boolVTable) Compare(a, b *array.Array, op CompareOp) (*array.Array, error) {
	return genericCompare(a, b, op)
}

func buildBoolFrom(vals, valid []bool, nullable bool) *array.Array {
	bits := array.PackBools(vals)
	if !nullable {
		return array.NewBool(len(vals), bits, array.NonNullableValidity())
	}
	allValid := true
	for _, v := range valid {
		if !v {
			allValid = false
			break
		}
	}
	if allValid {
		return array.NewBool(len(vals), bits, array.AllValidValidity())
	}
	validityArr := array.NewBool(len(valid), array.PackBools(valid), array.NonNullableValidity())
	return array.NewBool(len(vals), bits, array.DelegatedValidity(validityArr))
}
