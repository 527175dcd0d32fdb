package vortex_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vxdb/vortex"
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
)

type memSource struct{ b []byte }

func (s memSource) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, s.b[off:]), nil
}
func (s memSource) Size() int64 { return int64(len(s.b)) }

func idColumn(t *testing.T, vals []int64) *array.Array {
	t.Helper()
	var buf []byte
	for _, v := range vals {
		buf = array.PutPrimitiveFloat64(buf, dtype.I64, float64(v))
	}
	return array.NewPrimitive(dtype.I64, len(vals), buf, array.NonNullableValidity())
}

func TestWriteReadThroughFacade(t *testing.T) {
	id := idColumn(t, []int64{1, 2, 3, 4})
	dt := dtype.Struct([]string{"id"}, []dtype.DType{id.DType()}, false)
	chunk := array.NewStruct(dt, id.Len(), []*array.Array{id}, array.NonNullableValidity())

	var buf bytes.Buffer
	w, err := vortex.NewWriter(&buf, dt)
	require.NoError(t, err)
	require.NoError(t, w.WriteChunk(chunk))
	require.NoError(t, w.Finalize())

	r, err := vortex.Open(context.Background(), "facade-test", memSource{buf.Bytes()})
	require.NoError(t, err)

	schema, err := r.Schema()
	require.NoError(t, err)
	require.Equal(t, []string{"id"}, schema.StructNames)

	batches, err := r.Read(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, 4, batches[0].Len())
}

func TestCompressThroughFacade(t *testing.T) {
	var buf []byte
	for i := 0; i < 200; i++ {
		buf = array.PutPrimitiveFloat64(buf, dtype.I64, float64(i%3))
	}
	a := array.NewPrimitive(dtype.I64, 200, buf, array.NonNullableValidity())

	out, err := vortex.Compress(a)
	require.NoError(t, err)
	require.NotNil(t, out.Array)
}
