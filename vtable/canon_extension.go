package vtable

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
)

// extensionVTable wraps a canonical storage array; most compute delegates
// straight to the storage child's own dispatch (spec §3, "Extension dtypes
// round-trip via their storage array").
type extensionVTable struct {
	BaseVTable
}

func (extensionVTable) ID() array.EncodingID   { return array.EncodingExtension }
func (extensionVTable) Variants() []dtype.Kind { return []dtype.Kind{dtype.KindExtension} }

func (extensionVTable) Canonicalize(a *array.Array) (*array.Array, error) { return a, nil }

func (extensionVTable) Validity(a *array.Array) (array.Validity, error) {
	ctx := GlobalContext()
	return Validity(ctx, array.ExtensionStorage(a))
}

func (extensionVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	ctx := GlobalContext()
	return Stat(ctx, array.ExtensionStorage(a), kind)
}

func (extensionVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	ctx := GlobalContext()
	storageScalar, err := ScalarAt(ctx, array.ExtensionStorage(a), i)
	if err != nil {
		return dtype.Scalar{}, err
	}
	return dtype.Scalar{DType: a.DType(), Value: storageScalar.Value}, nil
}

func (extensionVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	ctx := GlobalContext()
	storage, err := Slice(ctx, array.ExtensionStorage(a), lo, hi)
	if err != nil {
		return nil, err
	}
	return array.NewExtension(a.DType(), hi-lo, storage), nil
}

func (extensionVTable) Take(a *array.Array, indices *array.Array) (*array.Array, error) {
	ctx := GlobalContext()
	storage, err := Take(ctx, array.ExtensionStorage(a), indices)
	if err != nil {
		return nil, err
	}
	return array.NewExtension(a.DType(), indices.Len(), storage), nil
}

func (extensionVTable) Filter(a *array.Array, mask *FilterMask) (*array.Array, error) {
	ctx := GlobalContext()
	storage, err := Filter(ctx, array.ExtensionStorage(a), mask)
	if err != nil {
		return nil, err
	}
	return array.NewExtension(a.DType(), mask.TrueCount(), storage), nil
}

func (extensionVTable) Compare(a, b *array.Array, op CompareOp) (*array.Array, error) {
	ctx := GlobalContext()
	var other *array.Array
	if b.EncodingID() == array.EncodingExtension {
		other = array.ExtensionStorage(b)
	} else {
		other = b
	}
	return Compare(ctx, array.ExtensionStorage(a), other, op)
}

func (extensionVTable) SearchSorted(a *array.Array, value dtype.Scalar, side Side) (SearchResult, error) {
	ctx := GlobalContext()
	storageValue := dtype.Scalar{DType: *a.DType().ExtStorage, Value: value.Value}
	return SearchSorted(ctx, array.ExtensionStorage(a), storageValue, side)
}
