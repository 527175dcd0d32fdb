package layout_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/expr"
	"github.com/vxdb/vortex/iodispatch"
	"github.com/vxdb/vortex/layout"
	"github.com/vxdb/vortex/vtable"
)

type bufSource struct{ b []byte }

func (s bufSource) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, s.b[off:])
	return n, nil
}
func (s bufSource) Size() int64 { return int64(len(s.b)) }

func intCol(t *testing.T, vals []int64) *array.Array {
	t.Helper()
	var buf []byte
	for _, v := range vals {
		buf = array.PutPrimitiveFloat64(buf, dtype.I64, float64(v))
	}
	return array.NewPrimitive(dtype.I64, len(vals), buf, array.NonNullableValidity())
}

func strCol(t *testing.T, vals []string) *array.Array {
	t.Helper()
	raw := make([][]byte, len(vals))
	for i, v := range vals {
		raw[i] = []byte(v)
	}
	views, data := array.BuildVarBinView(raw)
	return array.NewVarBinView(true, len(vals), views, data, array.NonNullableValidity())
}

func makeChunk(t *testing.T, ints []int64, strs []string) *array.Array {
	t.Helper()
	ic := intCol(t, ints)
	sc := strCol(t, strs)
	dt := dtype.Struct([]string{"id", "label"}, []dtype.DType{ic.DType(), sc.DType()}, false)
	return array.NewStruct(dt, len(ints), []*array.Array{ic, sc}, array.NonNullableValidity())
}

func writeTestFile(t *testing.T, chunks []*array.Array) []byte {
	t.Helper()
	schema := chunks[0].DType()
	var buf bytes.Buffer
	w, err := layout.NewWriter(&buf, schema, layout.WriterOptions{})
	require.NoError(t, err)
	for _, c := range chunks {
		require.NoError(t, w.WriteChunk(c))
	}
	require.NoError(t, w.Finalize())
	return buf.Bytes()
}

func TestWriteReadRoundTripNoFilter(t *testing.T) {
	chunk1 := makeChunk(t, []int64{0, 1, 2, 3, 4}, []string{"a", "b", "c", "d", "e"})
	chunk2 := makeChunk(t, []int64{5, 6, 7}, []string{"f", "g", "h"})
	data := writeTestFile(t, []*array.Array{chunk1, chunk2})

	r, err := layout.Open(context.Background(), "test", bufSource{data}, iodispatch.New(0))
	require.NoError(t, err)

	schema, err := r.Schema()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"id", "label"}, schema.StructNames)

	batches, err := r.Read(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	ctx := vtable.GlobalContext()
	total := 0
	for _, b := range batches {
		total += b.Len()
	}
	require.Equal(t, 8, total)

	firstID := array.StructField(batches[0], 0)
	s, err := vtable.ScalarAt(ctx, firstID, 0)
	require.NoError(t, err)
	require.Equal(t, float64(0), s.Value)
}

func TestReadProjectionDropsField(t *testing.T) {
	chunk := makeChunk(t, []int64{1, 2, 3}, []string{"x", "y", "z"})
	data := writeTestFile(t, []*array.Array{chunk})

	r, err := layout.Open(context.Background(), "test", bufSource{data}, iodispatch.New(0))
	require.NoError(t, err)

	sel := expr.Include("id")
	batches, err := r.Read(context.Background(), &sel, nil)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, []string{"id"}, batches[0].DType().StructNames)
}

func TestReadFilterPushdown(t *testing.T) {
	chunk1 := makeChunk(t, []int64{0, 1, 2, 3, 4}, []string{"a", "b", "c", "d", "e"})
	chunk2 := makeChunk(t, []int64{5, 6, 7, 8, 9}, []string{"f", "g", "h", "i", "j"})
	data := writeTestFile(t, []*array.Array{chunk1, chunk2})

	r, err := layout.Open(context.Background(), "test", bufSource{data}, iodispatch.New(0))
	require.NoError(t, err)

	rf := expr.NewRowFilter(expr.BinaryExpr{
		Left:  expr.Column{Name: "id"},
		Op:    expr.Gt,
		Right: expr.Literal{Scalar: dtype.NewPrimitive(dtype.I64, int64(6), false)},
	})
	batches, err := r.Read(context.Background(), nil, &rf)
	require.NoError(t, err)

	ctx := vtable.GlobalContext()
	total := 0
	for _, b := range batches {
		total += b.Len()
		idCol := array.StructField(b, 0)
		for i := 0; i < idCol.Len(); i++ {
			s, err := vtable.ScalarAt(ctx, idCol, i)
			require.NoError(t, err)
			require.Greater(t, s.Value.(float64), float64(6))
		}
	}
	require.Equal(t, 3, total) // ids 7, 8, 9
}

func TestReadFilterShortCircuitsWholeChunk(t *testing.T) {
	chunk1 := makeChunk(t, []int64{0, 1, 2}, []string{"a", "b", "c"})
	chunk2 := makeChunk(t, []int64{100, 101, 102}, []string{"d", "e", "f"})
	data := writeTestFile(t, []*array.Array{chunk1, chunk2})

	r, err := layout.Open(context.Background(), "test", bufSource{data}, iodispatch.New(0))
	require.NoError(t, err)

	rf := expr.NewRowFilter(expr.BinaryExpr{
		Left:  expr.Column{Name: "id"},
		Op:    expr.Gte,
		Right: expr.Literal{Scalar: dtype.NewPrimitive(dtype.I64, int64(100), false)},
	})
	batches, err := r.Read(context.Background(), nil, &rf)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Equal(t, 3, batches[0].Len())
}

func TestSplitsPartitionChunkedColumnLayout(t *testing.T) {
	chunk1 := makeChunk(t, []int64{0, 1, 2, 3}, []string{"a", "b", "c", "d"})
	chunk2 := makeChunk(t, []int64{4, 5}, []string{"e", "f"})
	data := writeTestFile(t, []*array.Array{chunk1, chunk2})

	r, err := layout.Open(context.Background(), "test", bufSource{data}, iodispatch.New(0))
	require.NoError(t, err)
	batches, err := r.Read(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Equal(t, 4, batches[0].Len())
	require.Equal(t, 2, batches[1].Len())
}
