package vtable

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
)

type nullVTable struct {
	BaseVTable
}

func (nullVTable) ID() array.EncodingID   { return array.EncodingNull }
func (nullVTable) Variants() []dtype.Kind { return []dtype.Kind{dtype.KindNull} }

func (nullVTable) Canonicalize(a *array.Array) (*array.Array, error) { return a, nil }

func (nullVTable) Validity(a *array.Array) (array.Validity, error) {
	return array.AllInvalidValidity(), nil
}

func (nullVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	switch kind {
	case array.StatNullCount:
		return a.Len(), nil
	case array.StatIsConstant:
		return true, nil
	default:
		return nil, nil
	}
}

func (nullVTable) Filter(a *array.Array, mask *FilterMask) (*array.Array, error) {
	return array.NewNull(mask.TrueCount()), nil
}

func (nullVTable) Take(a *array.Array, indices *array.Array) (*array.Array, error) {
	return array.NewNull(indices.Len()), nil
}

func (nullVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	return array.NewNull(hi - lo), nil
}

func (nullVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	return dtype.NullScalar(dtype.Null()), nil
}
