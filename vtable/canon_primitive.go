package vtable

import (
	"sort"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
)

type primitiveVTable struct {
	BaseVTable
}

func (primitiveVTable) ID() array.EncodingID   { return array.EncodingPrimitive }
func (primitiveVTable) Variants() []dtype.Kind { return []dtype.Kind{dtype.KindPrimitive} }

func (primitiveVTable) Canonicalize(a *array.Array) (*array.Array, error) { return a, nil }

func (primitiveVTable) Validity(a *array.Array) (array.Validity, error) {
	return array.PrimitiveValidity(a), nil
}

func (primitiveVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	n := a.Len()
	v := array.PrimitiveValidity(a)
	switch kind {
	case array.StatNullCount:
		return v.NullCount(n), nil
	case array.StatMin, array.StatMax:
		pt := array.PrimitivePType(a)
		first := true
		var best float64
		for i := 0; i < n; i++ {
			if !v.IsValid(i) {
				continue
			}
			x := array.PrimitiveFloat64At(a, i)
			if first || (kind == array.StatMin && x < best) || (kind == array.StatMax && x > best) {
				best = x
				first = false
			}
		}
		if first {
			return nil, nil
		}
		return dtype.NewPrimitive(pt, best, a.DType().Nullable), nil
	case array.StatIsSorted:
		prev := 0.0
		for i := 0; i < n; i++ {
			if !v.IsValid(i) {
				continue
			}
			x := array.PrimitiveFloat64At(a, i)
			if i > 0 && x < prev {
				return false, nil
			}
			prev = x
		}
		return true, nil
	case array.StatIsConstant:
		if n == 0 {
			return true, nil
		}
		first := array.PrimitiveFloat64At(a, 0)
		for i := 1; i < n; i++ {
			if array.PrimitiveFloat64At(a, i) != first {
				return false, nil
			}
		}
		return true, nil
	default:
		return nil, nil
	}
}

func (primitiveVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	v := array.PrimitiveValidity(a)
	if !v.IsValid(i) {
		return dtype.NullScalar(a.DType()), nil
	}
	return dtype.NewPrimitive(array.PrimitivePType(a), array.PrimitiveFloat64At(a, i), a.DType().Nullable), nil
}

func (primitiveVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	pt := array.PrimitivePType(a)
	w := pt.ByteWidth()
	buf := append([]byte(nil), a.Buffer()[lo*w:hi*w]...)
	v := array.PrimitiveValidity(a)
	validity := sliceValidity(v, lo, hi)
	return array.NewPrimitive(pt, hi-lo, buf, validity), nil
}

func (primitiveVTable) Take(a *array.Array, indices *array.Array) (*array.Array, error) {
	pt := array.PrimitivePType(a)
	n := indices.Len()
	var buf []byte
	valid := make([]bool, n)
	v := array.PrimitiveValidity(a)
	for i := 0; i < n; i++ {
		idx := int(array.PrimitiveFloat64At(indices, i))
		if idx < 0 || idx >= a.Len() {
			return nil, outOfBounds("primitive.take", idx, a.Len())
		}
		buf = array.PutPrimitiveFloat64(buf, pt, array.PrimitiveFloat64At(a, idx))
		valid[i] = v.IsValid(idx)
	}
	return array.NewPrimitive(pt, n, buf, validityFromBools(valid, a.DType().Nullable)), nil
}

func (primitiveVTable) Filter(a *array.Array, mask *FilterMask) (*array.Array, error) {
	pt := array.PrimitivePType(a)
	idx := mask.Indices()
	var buf []byte
	valid := make([]bool, len(idx))
	v := array.PrimitiveValidity(a)
	for i, srcIdx := range idx {
		buf = array.PutPrimitiveFloat64(buf, pt, array.PrimitiveFloat64At(a, srcIdx))
		valid[i] = v.IsValid(srcIdx)
	}
	return array.NewPrimitive(pt, len(idx), buf, validityFromBools(valid, a.DType().Nullable)), nil
}

func (primitiveVTable) Compare(a, b *array.Array, op CompareOp) (*array.Array, error) {
	return genericCompare(a, b, op)
}

func (primitiveVTable) SearchSorted(a *array.Array, value dtype.Scalar, side Side) (SearchResult, error) {
	n := a.Len()
	target := value.AsFloat64()
	v := array.PrimitiveValidity(a)
	firstInvalid := n
	for i := 0; i < n; i++ {
		if !v.IsValid(i) {
			firstInvalid = i
			break
		}
	}
	idx := sort.Search(firstInvalid, func(i int) bool {
		x := array.PrimitiveFloat64At(a, i)
		if side == Left {
			return x >= target
		}
		return x > target
	})
	found := idx < firstInvalid && array.PrimitiveFloat64At(a, idx) == target
	return SearchResult{Index: idx, Found: found}, nil
}

func (primitiveVTable) Cast(a *array.Array, to dtype.DType) (*array.Array, error) {
	if to.Kind != dtype.KindPrimitive {
		return nil, castUnsupported("primitive", a.DType(), to)
	}
	n := a.Len()
	var buf []byte
	v := array.PrimitiveValidity(a)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		valid[i] = v.IsValid(i)
		buf = array.PutPrimitiveFloat64(buf, to.PType, array.PrimitiveFloat64At(a, i))
	}
	return array.NewPrimitive(to.PType, n, buf, validityFromBools(valid, to.Nullable)), nil
}

func (primitiveVTable) SubtractScalar(a *array.Array, s dtype.Scalar) (*array.Array, error) {
	pt := array.PrimitivePType(a)
	n := a.Len()
	var buf []byte
	v := array.PrimitiveValidity(a)
	valid := make([]bool, n)
	sub := s.AsFloat64()
	for i := 0; i < n; i++ {
		valid[i] = v.IsValid(i)
		buf = array.PutPrimitiveFloat64(buf, pt, array.PrimitiveFloat64At(a, i)-sub)
	}
	return array.NewPrimitive(pt, n, buf, validityFromBools(valid, a.DType().Nullable)), nil
}

func sliceValidity(v array.Validity, lo, hi int) array.Validity {
	switch v.Kind {
	case array.NonNullable:
		return array.NonNullableValidity()
	case array.AllValid:
		return array.AllValidValidity()
	case array.AllInvalid:
		return array.AllInvalidValidity()
	default:
		valid := make([]bool, hi-lo)
		for i := range valid {
			valid[i] = v.IsValid(lo + i)
		}
		return validityFromBools(valid, true)
	}
}

func validityFromBools(valid []bool, nullable bool) array.Validity {
	if !nullable {
		return array.NonNullableValidity()
	}
	allValid := true
	for _, v := range valid {
		if !v {
			allValid = false
			break
		}
	}
	if allValid {
		return array.AllValidValidity()
	}
	allInvalid := true
	for _, v := range valid {
		if v {
			allInvalid = false
			break
		}
	}
	if allInvalid {
		return array.AllInvalidValidity()
	}
	return array.DelegatedValidity(array.NewBool(len(valid), array.PackBools(valid), array.NonNullableValidity()))
}
