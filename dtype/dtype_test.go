package dtype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDTypeEquals(t *testing.T) {
	a := Struct([]string{"id", "name"}, []DType{
		Primitive(I64, false),
		Utf8(true),
	}, false)
	b := Struct([]string{"id", "name"}, []DType{
		Primitive(I64, false),
		Utf8(true),
	}, false)
	require.True(t, a.Equals(b))

	c := Struct([]string{"id", "name"}, []DType{
		Primitive(I32, false),
		Utf8(true),
	}, false)
	require.False(t, a.Equals(c))
}

func TestDTypeEqualsNullability(t *testing.T) {
	require.False(t, Primitive(I32, false).Equals(Primitive(I32, true)))
	require.True(t, Primitive(I32, false).Equals(Primitive(I32, false)))
}

func TestListEquals(t *testing.T) {
	a := List(Primitive(U32, false), true)
	b := List(Primitive(U32, false), true)
	require.True(t, a.Equals(b))

	c := List(Primitive(U64, false), true)
	require.False(t, a.Equals(c))
}

func TestExtensionEquals(t *testing.T) {
	a := Extension("vortex.timestamp_us", Primitive(I64, false), []byte("us"))
	b := Extension("vortex.timestamp_us", Primitive(I64, false), []byte("us"))
	require.True(t, a.Equals(b))

	c := Extension("vortex.timestamp_ms", Primitive(I64, false), []byte("us"))
	require.False(t, a.Equals(c))
}

func TestScalarValidity(t *testing.T) {
	n := NullScalar(Primitive(I32, true))
	require.False(t, n.IsValid())

	v := NewPrimitive(I32, int32(42), true)
	require.True(t, v.IsValid())
	require.Equal(t, float64(42), v.AsFloat64())
}

func TestDTypeString(t *testing.T) {
	dt := Struct([]string{"a"}, []DType{Primitive(F64, true)}, false)
	require.Equal(t, "struct{a: f64?}", dt.String())
}
