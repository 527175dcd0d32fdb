package roaring

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
)

type roaringVTable struct {
	vtable.BaseVTable
}

func (roaringVTable) ID() array.EncodingID   { return array.EncodingRoaringBool }
func (roaringVTable) Variants() []dtype.Kind { return []dtype.Kind{dtype.KindBool} }

func (roaringVTable) Canonicalize(a *array.Array) (*array.Array, error) {
	n := a.Len()
	v := Validity(a)
	vals := make([]bool, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		valid[i] = v.IsValid(i)
		vals[i] = ValueAt(a, i)
	}
	bits := array.PackBools(vals)
	return array.NewBool(n, bits, canonValidity(valid, a.DType().Nullable)), nil
}

func (roaringVTable) Validity(a *array.Array) (array.Validity, error) {
	return Validity(a), nil
}

func (roaringVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	switch kind {
	case array.StatTrueCount:
		return TrueCount(a), nil
	case array.StatNullCount:
		return Validity(a).NullCount(a.Len()), nil
	default:
		return nil, nil
	}
}

func (roaringVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	if !Validity(a).IsValid(i) {
		return dtype.NullScalar(a.DType()), nil
	}
	return dtype.NewBool(ValueAt(a, i), a.DType().Nullable), nil
}

// Slice rebases runs against the window [lo, hi) directly instead of
// canonicalizing first, keeping the result run-length encoded the way
// Chunked and Sparse avoid per-element materialization on slice.
func (roaringVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	var out []run
	for _, r := range runs(a) {
		start := r.start
		end := r.start + r.length
		if end <= lo || start >= hi {
			continue
		}
		if start < lo {
			start = lo
		}
		if end > hi {
			end = hi
		}
		out = append(out, run{start - lo, end - start})
	}
	buf := make([]byte, len(out)*16)
	for i, r := range out {
		putRun(buf[i*16:], r)
	}

	var children []*array.Array
	validityChild := validityArray(a)
	if validityChild != nil {
		ctx := vtable.GlobalContext()
		sliced, err := vtable.Slice(ctx, validityChild, lo, hi)
		if err != nil {
			return nil, err
		}
		children = []*array.Array{sliced}
	}
	return array.New(array.EncodingRoaringBool, a.DType(), hi-lo, buf, nil, children, array.Owned), nil
}

func putRun(buf []byte, r run) {
	for i, v := range [2]int{r.start, r.length} {
		x := uint64(v)
		for j := 0; j < 8; j++ {
			buf[i*8+j] = byte(x)
			x >>= 8
		}
	}
}

func validityArray(a *array.Array) *array.Array {
	if len(a.Children()) > 0 {
		return a.Child(0)
	}
	return nil
}

func canonValidity(valid []bool, nullable bool) array.Validity {
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
