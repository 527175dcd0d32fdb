package bitpacked_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/encodings/bitpacked"
	"github.com/vxdb/vortex/vtable"
)

// Reproduces spec §8's concrete BitPacked search scenario: [1,2,3,4,5]
// packed at 2-bit width, with 4 and 5 overflowing into patches.
func TestSearchSortedWithPatches(t *testing.T) {
	a := bitpacked.Encode(dtype.U32, []float64{1, 2, 3, 4, 5}, 2, array.NonNullableValidity())
	ctx := vtable.GlobalContext()

	res, err := vtable.SearchSorted(ctx, a, dtype.NewPrimitive(dtype.U32, float64(4), false), vtable.Left)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, 3, res.Index)

	res, err = vtable.SearchSorted(ctx, a, dtype.NewPrimitive(dtype.U32, float64(5), false), vtable.Left)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, 4, res.Index)

	res, err = vtable.SearchSorted(ctx, a, dtype.NewPrimitive(dtype.U32, float64(6), false), vtable.Left)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Equal(t, 5, res.Index)

	res, err = vtable.SearchSorted(ctx, a, dtype.NewPrimitive(dtype.U32, float64(0), false), vtable.Left)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Equal(t, 0, res.Index)
}

func TestCanonicalizeResolvesPatches(t *testing.T) {
	a := bitpacked.Encode(dtype.U32, []float64{1, 2, 3, 4, 5}, 2, array.NonNullableValidity())
	ctx := vtable.GlobalContext()
	canon, err := vtable.Canonicalize(ctx, a)
	require.NoError(t, err)
	require.Equal(t, 5, canon.Len())
	for i, want := range []float64{1, 2, 3, 4, 5} {
		require.Equal(t, want, array.PrimitiveFloat64At(canon, i))
	}
}

func TestScalarAtNoPatches(t *testing.T) {
	a := bitpacked.Encode(dtype.U8, []float64{0, 1, 2, 3}, 2, array.NonNullableValidity())
	ctx := vtable.GlobalContext()
	for i, want := range []float64{0, 1, 2, 3} {
		s, err := vtable.ScalarAt(ctx, a, i)
		require.NoError(t, err)
		require.Equal(t, want, s.AsFloat64())
	}
}
