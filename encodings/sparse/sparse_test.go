package sparse_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/encodings/sparse"
	"github.com/vxdb/vortex/vtable"
)

func u32Primitive(t *testing.T, vals []float64) *array.Array {
	t.Helper()
	var buf []byte
	for _, v := range vals {
		buf = array.PutPrimitiveFloat64(buf, dtype.U32, v)
	}
	return array.NewPrimitive(dtype.U32, len(vals), buf, array.NonNullableValidity())
}

func i64Primitive(t *testing.T, vals []float64) *array.Array {
	t.Helper()
	var buf []byte
	for _, v := range vals {
		buf = array.PutPrimitiveFloat64(buf, dtype.I64, v)
	}
	return array.NewPrimitive(dtype.I64, len(vals), buf, array.NonNullableValidity())
}

// Reproduces spec §8's worked example: values=[15,135,13531,42] at
// indices=[10,11,50,100], len=101, fill=0. Slicing [15,100) should leave a
// length-85 array with exactly one non-fill value, 13531, at local index 35.
func TestSparseSliceWorkedExample(t *testing.T) {
	dt := dtype.Primitive(dtype.U32, false)
	indices := i64Primitive(t, []float64{10, 11, 50, 100})
	values := u32Primitive(t, []float64{15, 135, 13531, 42})
	fill := dtype.NewPrimitive(dtype.U32, float64(0), false)

	s := sparse.New(dt, 101, indices, values, 0, fill)

	ctx := vtable.GlobalContext()
	sliced, err := vtable.Slice(ctx, s, 15, 100)
	require.NoError(t, err)
	require.Equal(t, 85, sliced.Len())

	canon, err := vtable.Canonicalize(ctx, sliced)
	require.NoError(t, err)
	nonFill := 0
	for i := 0; i < canon.Len(); i++ {
		v := array.PrimitiveFloat64At(canon, i)
		if v != 0 {
			nonFill++
			require.Equal(t, 35, i)
			require.Equal(t, 13531.0, v)
		}
	}
	require.Equal(t, 1, nonFill)
}

func TestSparseScalarAtFillVsPatch(t *testing.T) {
	dt := dtype.Primitive(dtype.U32, false)
	indices := i64Primitive(t, []float64{10, 11, 50, 100})
	values := u32Primitive(t, []float64{15, 135, 13531, 42})
	fill := dtype.NewPrimitive(dtype.U32, float64(0), false)
	s := sparse.New(dt, 101, indices, values, 0, fill)

	ctx := vtable.GlobalContext()
	v, err := vtable.ScalarAt(ctx, s, 50)
	require.NoError(t, err)
	require.Equal(t, 13531.0, v.AsFloat64())

	v, err = vtable.ScalarAt(ctx, s, 0)
	require.NoError(t, err)
	require.Equal(t, 0.0, v.AsFloat64())
}

func TestSparseDoublySliced(t *testing.T) {
	dt := dtype.Primitive(dtype.U32, false)
	indices := i64Primitive(t, []float64{10, 11, 50, 100})
	values := u32Primitive(t, []float64{15, 135, 13531, 42})
	fill := dtype.NewPrimitive(dtype.U32, float64(0), false)
	s := sparse.New(dt, 101, indices, values, 0, fill)

	ctx := vtable.GlobalContext()
	sliced, err := vtable.Slice(ctx, s, 15, 100)
	require.NoError(t, err)
	doubly, err := vtable.Slice(ctx, sliced, 35, 36)
	require.NoError(t, err)
	require.Equal(t, 1, doubly.Len())

	v, err := vtable.ScalarAt(ctx, doubly, 0)
	require.NoError(t, err)
	require.Equal(t, 13531.0, v.AsFloat64())
}
