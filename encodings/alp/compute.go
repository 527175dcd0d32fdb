package alp

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
)

type alpVTable struct {
	vtable.BaseVTable
}

func (alpVTable) ID() array.EncodingID   { return array.EncodingALP }
func (alpVTable) Variants() []dtype.Kind { return nil }

func (alpVTable) Canonicalize(a *array.Array) (*array.Array, error) {
	n := a.Len()
	v := Validity(a)
	var buf []byte
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		valid[i] = v.IsValid(i)
		buf = array.PutPrimitiveFloat64(buf, dtype.F64, ValueAt(a, i))
	}
	return array.NewPrimitive(dtype.F64, n, buf, validityFromBools(valid, a.DType().Nullable)), nil
}

func (alpVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	if !Validity(a).IsValid(i) {
		return dtype.NullScalar(a.DType()), nil
	}
	return dtype.NewPrimitive(dtype.F64, ValueAt(a, i), a.DType().Nullable), nil
}

func (alpVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
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
