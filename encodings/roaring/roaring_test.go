package roaring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/encodings/roaring"
	"github.com/vxdb/vortex/vtable"
)

func TestEncodeCollapsesIntoRuns(t *testing.T) {
	vals := []bool{false, true, true, true, false, false, true, false}
	a := roaring.Encode(vals, array.NonNullableValidity())
	require.Equal(t, len(vals), a.Len())
	for i, want := range vals {
		require.Equal(t, want, roaring.ValueAt(a, i), "index %d", i)
	}
	require.Equal(t, 4, roaring.TrueCount(a))
}

func TestValueAtAllFalse(t *testing.T) {
	vals := make([]bool, 10)
	a := roaring.Encode(vals, array.NonNullableValidity())
	for i := range vals {
		require.False(t, roaring.ValueAt(a, i))
	}
	require.Equal(t, 0, roaring.TrueCount(a))
}

func TestCanonicalizeRoundTrips(t *testing.T) {
	vals := []bool{true, true, false, true, false, false, false, true}
	a := roaring.Encode(vals, array.NonNullableValidity())
	ctx := vtable.GlobalContext()
	canon, err := vtable.Canonicalize(ctx, a)
	require.NoError(t, err)
	require.Equal(t, array.EncodingBool, canon.EncodingID())
	for i, want := range vals {
		require.Equal(t, want, array.BoolValueAt(canon, i))
	}
}

func TestSliceRebasesRuns(t *testing.T) {
	vals := []bool{false, true, true, true, true, false, true, false, false}
	a := roaring.Encode(vals, array.NonNullableValidity())
	ctx := vtable.GlobalContext()

	sliced, err := vtable.Slice(ctx, a, 2, 8)
	require.NoError(t, err)
	require.Equal(t, 6, sliced.Len())

	want := vals[2:8]
	for i, w := range want {
		require.Equal(t, w, roaring.ValueAt(sliced, i), "index %d", i)
	}
}

func TestScalarAtWithNulls(t *testing.T) {
	vals := []bool{true, false, true}
	validityBits := array.NewBool(3, array.PackBools([]bool{true, false, true}), array.NonNullableValidity())
	a := roaring.Encode(vals, array.DelegatedValidity(validityBits))

	s, err := vtable.ScalarAt(vtable.GlobalContext(), a, 0)
	require.NoError(t, err)
	require.True(t, s.IsValid())
	require.Equal(t, true, s.Value)

	null, err := vtable.ScalarAt(vtable.GlobalContext(), a, 1)
	require.NoError(t, err)
	require.False(t, null.IsValid())

	nullCount, err := vtable.Stat(vtable.GlobalContext(), a, array.StatNullCount)
	require.NoError(t, err)
	require.Equal(t, 1, nullCount)
}

func TestDType(t *testing.T) {
	a := roaring.Encode([]bool{true, false}, array.NonNullableValidity())
	require.Equal(t, dtype.KindBool, a.DType().Kind)
}
