package array

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vxdb/vortex/dtype"
)

func TestNullArray(t *testing.T) {
	a := NewNull(5)
	require.Equal(t, 5, a.Len())
	require.True(t, IsCanonicalForm(a))
	nc, _ := a.Stats().Get(StatNullCount)
	require.Equal(t, 5, nc)
}

func TestBoolArrayRoundTrip(t *testing.T) {
	vals := []bool{true, false, false, true, true, false, true, false, true}
	bits := PackBools(vals)
	a := NewBool(len(vals), bits, AllValidValidity())
	for i, v := range vals {
		require.Equal(t, v, BoolValueAt(a, i), "index %d", i)
	}
	require.True(t, IsCanonicalForm(a))
}

func TestPrimitiveArrayRoundTrip(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	var buf []byte
	for _, v := range vals {
		buf = PutPrimitiveFloat64(buf, dtype.I32, v)
	}
	a := NewPrimitive(dtype.I32, len(vals), buf, NonNullableValidity())
	for i, v := range vals {
		require.Equal(t, v, PrimitiveFloat64At(a, i))
	}
}

func TestVarBinViewRoundTrip(t *testing.T) {
	vals := [][]byte{
		[]byte("hello world"),
		[]byte("hello world this is a long string"),
		[]byte("x"),
	}
	views, data := BuildVarBinView(vals)
	a := NewVarBinView(true, len(vals), views, data, NonNullableValidity())
	for i, v := range vals {
		require.Equal(t, v, VarBinBytesAt(a, i))
	}
}

func TestStructArray(t *testing.T) {
	ids := NewPrimitive(dtype.I64, 2, append(
		PutPrimitiveFloat64(nil, dtype.I64, 1),
		PutPrimitiveFloat64(nil, dtype.I64, 2)...), NonNullableValidity())
	names := NewVarBinView(true, 2, func() []byte {
		v, _ := BuildVarBinView([][]byte{[]byte("a"), []byte("b")})
		return v
	}(), func() []byte {
		_, d := BuildVarBinView([][]byte{[]byte("a"), []byte("b")})
		return d
	}(), NonNullableValidity())

	dt := dtype.Struct([]string{"id", "name"}, []dtype.DType{dtype.Primitive(dtype.I64, false), dtype.Utf8(false)}, false)
	s := NewStruct(dt, 2, []*Array{ids, names}, NonNullableValidity())
	require.Equal(t, 2, s.Len())
	require.Equal(t, ids, StructField(s, 0))
	require.True(t, IsCanonicalForm(s))
}

func TestListArray(t *testing.T) {
	values := NewPrimitive(dtype.I32, 5, append(
		PutPrimitiveFloat64(nil, dtype.I32, 1),
		append(PutPrimitiveFloat64(nil, dtype.I32, 2),
			append(PutPrimitiveFloat64(nil, dtype.I32, 3),
				append(PutPrimitiveFloat64(nil, dtype.I32, 4),
					PutPrimitiveFloat64(nil, dtype.I32, 5)...)...)...), NonNullableValidity())
	offsets := EncodeOffsets32([]int{2, 3})
	dt := dtype.List(dtype.Primitive(dtype.I32, false), false)
	l := NewList(dt, 2, offsets, Offset32, values, NonNullableValidity())
	require.Equal(t, int64(0), ListOffsetAt(l, 0))
	require.Equal(t, int64(2), ListOffsetAt(l, 1))
	require.Equal(t, int64(5), ListOffsetAt(l, 2))
}

func TestDelegatedValidity(t *testing.T) {
	validBits := PackBools([]bool{true, false, true})
	validityArr := NewBool(3, validBits, NonNullableValidity())
	v := DelegatedValidity(validityArr)
	require.True(t, v.IsValid(0))
	require.False(t, v.IsValid(1))
	require.Equal(t, 1, v.NullCount(3))
}
