package fsst

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
)

type fsstVTable struct {
	vtable.BaseVTable
}

func (fsstVTable) ID() array.EncodingID   { return array.EncodingFSST }
func (fsstVTable) Variants() []dtype.Kind { return nil }

func (fsstVTable) Canonicalize(a *array.Array) (*array.Array, error) {
	n := a.Len()
	codes := Codes(a)
	dict := Dictionary(a)
	v := Validity(a)
	isUtf8 := a.DType().Kind == dtype.KindUtf8
	vals := make([][]byte, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		valid[i] = v.IsValid(i)
		if !valid[i] {
			continue
		}
		code := int(array.PrimitiveFloat64At(codes, i))
		vals[i] = array.VarBinBytesAt(dict, code)
	}
	views, data := array.BuildVarBinView(vals)
	return array.NewVarBinView(isUtf8, n, views, data, validityFromBools(valid, a.DType().Nullable)), nil
}

func (fsstVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	if !Validity(a).IsValid(i) {
		return dtype.NullScalar(a.DType()), nil
	}
	code := int(array.PrimitiveFloat64At(Codes(a), i))
	b := array.VarBinBytesAt(Dictionary(a), code)
	if a.DType().Kind == dtype.KindUtf8 {
		return dtype.NewUtf8(string(b), a.DType().Nullable), nil
	}
	return dtype.NewBinary(b, a.DType().Nullable), nil
}

func (fsstVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	if kind == array.StatNullCount {
		return Validity(a).NullCount(a.Len()), nil
	}
	return nil, nil
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
	return array.DelegatedValidity(array.NewBool(len(valid), array.PackBools(valid), array.NonNullableValidity()))
}
