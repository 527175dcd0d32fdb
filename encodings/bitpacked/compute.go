package bitpacked

import (
	"sort"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/encodings/sparse"
	"github.com/vxdb/vortex/vtable"
)

type bitPackedVTable struct {
	vtable.BaseVTable
}

func (bitPackedVTable) ID() array.EncodingID   { return array.EncodingBitPacked }
func (bitPackedVTable) Variants() []dtype.Kind { return nil }

func (bitPackedVTable) Canonicalize(a *array.Array) (*array.Array, error) {
	n := a.Len()
	pt := PType(a)
	v := Validity(a)
	var buf []byte
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		valid[i] = v.IsValid(i)
		buf = array.PutPrimitiveFloat64(buf, pt, ValueAt(a, i))
	}
	return array.NewPrimitive(pt, n, buf, validityFromBools(valid, a.DType().Nullable)), nil
}

func (bitPackedVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	if kind == array.StatNullCount {
		return Validity(a).NullCount(a.Len()), nil
	}
	return nil, nil
}

func (bitPackedVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	if !Validity(a).IsValid(i) {
		return dtype.NullScalar(a.DType()), nil
	}
	return dtype.NewPrimitive(PType(a), ValueAt(a, i), a.DType().Nullable), nil
}

// SearchSorted operates on the packed slice directly, routing values beyond
// the bit width's range to the patches sidecar (spec §4.1's SearchSorted
// contract; grounded on fastlanes/src/bitpacking/compute/search_sorted.rs).
// Per this repo's Open Question decision (DESIGN.md), the total order is
// packed values < patches (by resolved value) < nulls, so nulls bound the
// valid search range from the right and a value exceeding the max packed
// value searches only the patches' tail.
func (bitPackedVTable) SearchSorted(a *array.Array, value dtype.Scalar, side vtable.Side) (vtable.SearchResult, error) {
	n := a.Len()
	v := Validity(a)
	firstInvalid := n
	for i := 0; i < n; i++ {
		if !v.IsValid(i) {
			firstInvalid = i
			break
		}
	}
	target := value.AsFloat64()
	maxPacked := float64(MaxPackedValue(a))

	// first patch position: teacher's patches live contiguously at the tail
	// for a sorted source array, so the smallest patch index bounds the
	// packed-only prefix.
	patchIndices := sparse.Indices(Patches(a))
	firstPatch := firstInvalid
	if patchIndices.Len() > 0 {
		firstPatch = int(array.PrimitiveFloat64At(patchIndices, 0))
	}

	if target > maxPacked {
		idx := sort.Search(firstInvalid-firstPatch, func(i int) bool {
			v := ValueAt(a, firstPatch+i)
			if side == vtable.Left {
				return v >= target
			}
			return v > target
		})
		idx += firstPatch
		found := idx < firstInvalid && ValueAt(a, idx) == target
		return vtable.SearchResult{Index: idx, Found: found}, nil
	}

	idx := sort.Search(firstPatch, func(i int) bool {
		v := float64(PackedValueAt(a, i))
		if side == vtable.Left {
			return v >= target
		}
		return v > target
	})
	found := idx < firstPatch && float64(PackedValueAt(a, idx)) == target
	return vtable.SearchResult{Index: idx, Found: found}, nil
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
