package chunked_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/encodings/chunked"
	"github.com/vxdb/vortex/vtable"
)

func f16Array(t *testing.T, vals []float64) *array.Array {
	t.Helper()
	var buf []byte
	for _, v := range vals {
		buf = array.PutPrimitiveFloat64(buf, dtype.F16, v)
	}
	return array.NewPrimitive(dtype.F16, len(vals), buf, array.NonNullableValidity())
}

// Mirrors the teacher source's filter_chunked_floats test
// (vortex-array chunked/compute/filter.rs): three f16 chunks, one of them
// entirely NaN, filtered by a mask that keeps 9 of 11 elements.
func TestFilterChunkedFloatsWithNaN(t *testing.T) {
	c0 := f16Array(t, []float64{0.1463623})
	c1 := f16Array(t, []float64{math.NaN(), 0.24987793, 0.22497559, 0.22497559, -36160.0})
	c2 := f16Array(t, []float64{math.NaN(), math.NaN(), 0.22497559, 0.22497559, 3174.0})

	dt := dtype.Primitive(dtype.F16, false)
	chunkedArr, err := chunked.New(dt, []*array.Array{c0, c1, c2})
	require.NoError(t, err)
	require.Equal(t, 11, chunkedArr.Len())

	mask := vtable.NewFilterMask([]bool{
		true, false, false, true, true, true, true, true, true, true, true,
	})
	ctx := vtable.GlobalContext()
	filtered, err := vtable.Filter(ctx, chunkedArr, mask)
	require.NoError(t, err)
	require.Equal(t, 9, filtered.Len())
}

func TestFindChunk(t *testing.T) {
	c0 := f16Array(t, []float64{1, 2, 3})
	c1 := f16Array(t, []float64{4, 5})
	dt := dtype.Primitive(dtype.F16, false)
	a, err := chunked.New(dt, []*array.Array{c0, c1})
	require.NoError(t, err)

	ci, local := chunked.FindChunk(a, 0)
	require.Equal(t, 0, ci)
	require.Equal(t, 0, local)

	ci, local = chunked.FindChunk(a, 3)
	require.Equal(t, 1, ci)
	require.Equal(t, 0, local)

	ci, local = chunked.FindChunk(a, 4)
	require.Equal(t, 1, ci)
	require.Equal(t, 1, local)
}

func TestChunkedSliceAcrossBoundary(t *testing.T) {
	c0 := f16Array(t, []float64{1, 2, 3})
	c1 := f16Array(t, []float64{4, 5})
	dt := dtype.Primitive(dtype.F16, false)
	a, err := chunked.New(dt, []*array.Array{c0, c1})
	require.NoError(t, err)

	ctx := vtable.GlobalContext()
	sliced, err := vtable.Slice(ctx, a, 2, 4)
	require.NoError(t, err)
	require.Equal(t, 2, sliced.Len())

	canon, err := vtable.Canonicalize(ctx, sliced)
	require.NoError(t, err)
	require.InDelta(t, 3.0, array.PrimitiveFloat64At(canon, 0), 0.01)
	require.InDelta(t, 4.0, array.PrimitiveFloat64At(canon, 1), 0.01)
}

func TestChunkedTakeOutOfOrder(t *testing.T) {
	c0 := f16Array(t, []float64{10, 20})
	c1 := f16Array(t, []float64{30, 40})
	dt := dtype.Primitive(dtype.F16, false)
	a, err := chunked.New(dt, []*array.Array{c0, c1})
	require.NoError(t, err)

	ctx := vtable.GlobalContext()
	var idxBuf []byte
	for _, v := range []float64{3, 0, 2} {
		idxBuf = array.PutPrimitiveFloat64(idxBuf, dtype.I64, v)
	}
	indices := array.NewPrimitive(dtype.I64, 3, idxBuf, array.NonNullableValidity())

	taken, err := vtable.Take(ctx, a, indices)
	require.NoError(t, err)
	require.Equal(t, 3, taken.Len())

	canon, err := vtable.Canonicalize(ctx, taken)
	require.NoError(t, err)
	require.InDelta(t, 40.0, array.PrimitiveFloat64At(canon, 0), 0.2)
	require.InDelta(t, 10.0, array.PrimitiveFloat64At(canon, 1), 0.01)
	require.InDelta(t, 30.0, array.PrimitiveFloat64At(canon, 2), 0.2)
}
