package vtable

import (
	"bytes"
	"sort"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
)

type varBinViewVTable struct {
	BaseVTable
}

func (varBinViewVTable) ID() array.EncodingID { return array.EncodingVarBinView }
func (varBinViewVTable) Variants() []dtype.Kind {
	return []dtype.Kind{dtype.KindUtf8, dtype.KindBinary}
}

func (varBinViewVTable) Canonicalize(a *array.Array) (*array.Array, error) { return a, nil }

func (varBinViewVTable) Validity(a *array.Array) (array.Validity, error) {
	return array.VarBinValidity(a), nil
}

func (varBinViewVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	v := array.VarBinValidity(a)
	switch kind {
	case array.StatNullCount:
		return v.NullCount(a.Len()), nil
	case array.StatIsSorted:
		var prev []byte
		for i := 0; i < a.Len(); i++ {
			if !v.IsValid(i) {
				continue
			}
			cur := array.VarBinBytesAt(a, i)
			if prev != nil && bytes.Compare(cur, prev) < 0 {
				return false, nil
			}
			prev = cur
		}
		return true, nil
	default:
		return nil, nil
	}
}

func (varBinViewVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	v := array.VarBinValidity(a)
	if !v.IsValid(i) {
		return dtype.NullScalar(a.DType()), nil
	}
	b := array.VarBinBytesAt(a, i)
	if a.DType().Kind == dtype.KindUtf8 {
		return dtype.NewUtf8(string(b), a.DType().Nullable), nil
	}
	return dtype.NewBinary(b, a.DType().Nullable), nil
}

func (varBinViewVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	isUtf8 := a.DType().Kind == dtype.KindUtf8
	v := array.VarBinValidity(a)
	vals := make([][]byte, hi-lo)
	valid := make([]bool, hi-lo)
	for i := range vals {
		vals[i] = array.VarBinBytesAt(a, lo+i)
		valid[i] = v.IsValid(lo + i)
	}
	return buildVarBin(isUtf8, vals, valid, a.DType().Nullable), nil
}

func (varBinViewVTable) Take(a *array.Array, indices *array.Array) (*array.Array, error) {
	isUtf8 := a.DType().Kind == dtype.KindUtf8
	v := array.VarBinValidity(a)
	n := indices.Len()
	vals := make([][]byte, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		idx := int(array.PrimitiveFloat64At(indices, i))
		if idx < 0 || idx >= a.Len() {
			return nil, outOfBounds("varbin.take", idx, a.Len())
		}
		vals[i] = array.VarBinBytesAt(a, idx)
		valid[i] = v.IsValid(idx)
	}
	return buildVarBin(isUtf8, vals, valid, a.DType().Nullable), nil
}

func (varBinViewVTable) Filter(a *array.Array, mask *FilterMask) (*array.Array, error) {
	isUtf8 := a.DType().Kind == dtype.KindUtf8
	v := array.VarBinValidity(a)
	idxs := mask.Indices()
	vals := make([][]byte, len(idxs))
	valid := make([]bool, len(idxs))
	for i, srcIdx := range idxs {
		vals[i] = array.VarBinBytesAt(a, srcIdx)
		valid[i] = v.IsValid(srcIdx)
	}
	return buildVarBin(isUtf8, vals, valid, a.DType().Nullable), nil
}

func (varBinViewVTable) Compare(a, b *array.Array, op CompareOp) (*array.Array, error) {
	return genericCompare(a, b, op)
}

func (varBinViewVTable) SearchSorted(a *array.Array, value dtype.Scalar, side Side) (SearchResult, error) {
	var target []byte
	switch v := value.Value.(type) {
	case string:
		target = []byte(v)
	case []byte:
		target = v
	}
	n := a.Len()
	v := array.VarBinValidity(a)
	firstInvalid := n
	for i := 0; i < n; i++ {
		if !v.IsValid(i) {
			firstInvalid = i
			break
		}
	}
	idx := sort.Search(firstInvalid, func(i int) bool {
		cur := array.VarBinBytesAt(a, i)
		if side == Left {
			return bytes.Compare(cur, target) >= 0
		}
		return bytes.Compare(cur, target) > 0
	})
	found := idx < firstInvalid && bytes.Equal(array.VarBinBytesAt(a, idx), target)
	return SearchResult{Index: idx, Found: found}, nil
}

func (varBinViewVTable) Cast(a *array.Array, to dtype.DType) (*array.Array, error) {
	if to.Kind != dtype.KindUtf8 && to.Kind != dtype.KindBinary {
		return nil, castUnsupported("varbinview", a.DType(), to)
	}
	isUtf8 := to.Kind == dtype.KindUtf8
	v := array.VarBinValidity(a)
	n := a.Len()
	vals := make([][]byte, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		vals[i] = array.VarBinBytesAt(a, i)
		valid[i] = v.IsValid(i)
	}
	return buildVarBin(isUtf8, vals, valid, to.Nullable), nil
}

func buildVarBin(isUtf8 bool, vals [][]byte, valid []bool, nullable bool) *array.Array {
	views, data := array.BuildVarBinView(vals)
	return array.NewVarBinView(isUtf8, len(vals), views, data, validityFromBools(valid, nullable))
}
