package alp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/encodings/alp"
	"github.com/vxdb/vortex/encodings/sparse"
)

func TestBestExponentPicksExactScale(t *testing.T) {
	vals := []float64{1.5, 2.25, 3.125}
	e := alp.BestExponent(vals, 6)
	require.Equal(t, 3, e) // 3.125 needs 10^3 to land on an integer
}

func TestEncodeRoundTripsExactValues(t *testing.T) {
	vals := []float64{1.5, 2.5, -3.5, 0}
	e := alp.BestExponent(vals, 4)
	a := alp.Encode(vals, e, array.NonNullableValidity())

	require.Equal(t, 0, sparse.Indices(alp.Exceptions(a)).Len())
	for i, want := range vals {
		require.InDelta(t, want, alp.ValueAt(a, i), 1e-9)
	}
}

func TestEncodeRecordsExceptionsForNonExactValues(t *testing.T) {
	vals := []float64{1.1, 2.2, 3.00001}
	a := alp.Encode(vals, 1, array.NonNullableValidity())

	require.Equal(t, 1, sparse.Indices(alp.Exceptions(a)).Len())
	for i, want := range vals {
		require.InDelta(t, want, alp.ValueAt(a, i), 1e-6)
	}
}
