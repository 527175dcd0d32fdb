package expr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/expr"
	"github.com/vxdb/vortex/vtable"
)

func intArray(t *testing.T, vals []float64, valid []bool) *array.Array {
	t.Helper()
	var buf []byte
	for _, v := range vals {
		buf = array.PutPrimitiveFloat64(buf, dtype.I64, v)
	}
	v := array.NonNullableValidity()
	if valid != nil {
		v = array.DelegatedValidity(array.NewBool(len(valid), array.PackBools(valid), array.NonNullableValidity()))
	}
	return array.NewPrimitive(dtype.I64, len(vals), buf, v)
}

func utf8Array(t *testing.T, vals []string) *array.Array {
	t.Helper()
	raw := make([][]byte, len(vals))
	for i, v := range vals {
		raw[i] = []byte(v)
	}
	views, data := array.BuildVarBinView(raw)
	return array.NewVarBinView(true, len(vals), views, data, array.NonNullableValidity())
}

func testBatch(t *testing.T) *array.Array {
	t.Helper()
	ages := intArray(t, []float64{10, 20, 30, 40}, nil)
	names := utf8Array(t, []string{"anna", "bob", "cass", "dov"})
	dt := dtype.Struct([]string{"age", "name"}, []dtype.DType{ages.DType(), names.DType()}, false)
	return array.NewStruct(dt, 4, []*array.Array{ages, names}, array.NonNullableValidity())
}

func boolScalars(t *testing.T, a *array.Array) []bool {
	t.Helper()
	ctx := vtable.GlobalContext()
	out := make([]bool, a.Len())
	for i := range out {
		s, err := vtable.ScalarAt(ctx, a, i)
		require.NoError(t, err)
		require.True(t, s.IsValid())
		out[i] = s.Value.(bool)
	}
	return out
}

func TestColumnEvaluateResolvesField(t *testing.T) {
	batch := testBatch(t)
	got, err := expr.Column{Name: "age"}.Evaluate(vtable.GlobalContext(), batch)
	require.NoError(t, err)
	require.Equal(t, 4, got.Len())
}

func TestColumnEvaluateUnknownField(t *testing.T) {
	batch := testBatch(t)
	_, err := expr.Column{Name: "nope"}.Evaluate(vtable.GlobalContext(), batch)
	require.Error(t, err)
}

func TestBinaryExprGreaterThan(t *testing.T) {
	batch := testBatch(t)
	e := expr.BinaryExpr{
		Left:  expr.Column{Name: "age"},
		Op:    expr.Gt,
		Right: expr.Literal{Scalar: dtype.NewPrimitive(dtype.I64, int64(15), false)},
	}
	out, err := e.Evaluate(vtable.GlobalContext(), batch)
	require.NoError(t, err)
	require.Equal(t, []bool{false, true, true, true}, boolScalars(t, out))
}

func TestBinaryExprEquality(t *testing.T) {
	batch := testBatch(t)
	e := expr.BinaryExpr{
		Left:  expr.Column{Name: "age"},
		Op:    expr.Eq,
		Right: expr.Literal{Scalar: dtype.NewPrimitive(dtype.I64, int64(20), false)},
	}
	out, err := e.Evaluate(vtable.GlobalContext(), batch)
	require.NoError(t, err)
	require.Equal(t, []bool{false, true, false, false}, boolScalars(t, out))
}

func TestAndThreeValuedLogic(t *testing.T) {
	ctx := vtable.GlobalContext()
	left := array.BuildFromScalars(dtype.Bool(true), []dtype.Scalar{
		dtype.NewBool(true, true), dtype.NewBool(false, true), dtype.NullScalar(dtype.Bool(true)), dtype.NullScalar(dtype.Bool(true)),
	})
	right := array.BuildFromScalars(dtype.Bool(true), []dtype.Scalar{
		dtype.NewBool(true, true), dtype.NullScalar(dtype.Bool(true)), dtype.NewBool(false, true), dtype.NewBool(true, true),
	})
	e := expr.BinaryExpr{Left: literalArrayExpr{left}, Op: expr.And, Right: literalArrayExpr{right}}
	out, err := e.Evaluate(ctx, arrayOfLen(4))
	require.NoError(t, err)

	want := []struct {
		valid bool
		value bool
	}{
		{true, true},
		{true, false}, // false AND null == false, not null
		{true, false}, // null AND false == false
		{false, false}, // null AND true == null
	}
	for i := 0; i < 4; i++ {
		s, err := vtable.ScalarAt(ctx, out, i)
		require.NoError(t, err)
		require.Equal(t, want[i].valid, s.IsValid(), "index %d", i)
		if want[i].valid {
			require.Equal(t, want[i].value, s.Value, "index %d", i)
		}
	}
}

// literalArrayExpr wraps an already-built array for direct use as an Expr
// child in tests that don't need batch resolution.
type literalArrayExpr struct{ a *array.Array }

func (l literalArrayExpr) Evaluate(ctx *vtable.Context, batch *array.Array) (*array.Array, error) {
	return l.a, nil
}
func (l literalArrayExpr) ReferencedFields() []string { return nil }
func (l literalArrayExpr) String() string             { return "<array>" }

func arrayOfLen(n int) *array.Array {
	vals := make([]float64, n)
	var buf []byte
	for _, v := range vals {
		buf = array.PutPrimitiveFloat64(buf, dtype.I64, v)
	}
	return array.NewPrimitive(dtype.I64, n, buf, array.NonNullableValidity())
}

func TestLikeMatching(t *testing.T) {
	batch := testBatch(t)
	e := expr.Like{Child: expr.Column{Name: "name"}, Pattern: "b%"}
	out, err := e.Evaluate(vtable.GlobalContext(), batch)
	require.NoError(t, err)
	require.Equal(t, []bool{false, true, false, false}, boolScalars(t, out))
}

func TestLikeNegatedAndCaseInsensitive(t *testing.T) {
	batch := testBatch(t)
	e := expr.Like{Child: expr.Column{Name: "name"}, Pattern: "B%", Negated: true, CaseInsensitive: true}
	out, err := e.Evaluate(vtable.GlobalContext(), batch)
	require.NoError(t, err)
	require.Equal(t, []bool{true, false, true, true}, boolScalars(t, out))
}

func TestSplitAndJoinConjunction(t *testing.T) {
	a := expr.Column{Name: "a"}
	b := expr.Column{Name: "b"}
	c := expr.Column{Name: "c"}
	chain := expr.BinaryExpr{Left: expr.BinaryExpr{Left: a, Op: expr.And, Right: b}, Op: expr.And, Right: c}

	parts := expr.SplitConjunction(chain)
	require.Len(t, parts, 3)
	require.Equal(t, "a", parts[0].String())
	require.Equal(t, "b", parts[1].String())
	require.Equal(t, "c", parts[2].String())

	rejoined := expr.JoinConjunction(parts)
	require.Equal(t, chain.String(), rejoined.String())
}

func TestRowFilterShortCircuitsAllFalse(t *testing.T) {
	batch := testBatch(t)
	rf := expr.NewRowFilter(expr.BinaryExpr{
		Left: expr.BinaryExpr{
			Left:  expr.Column{Name: "age"},
			Op:    expr.Gt,
			Right: expr.Literal{Scalar: dtype.NewPrimitive(dtype.I64, int64(1000), false)},
		},
		Op: expr.And,
		Right: expr.BinaryExpr{
			Left:  expr.Column{Name: "age"},
			Op:    expr.Lt,
			Right: expr.Literal{Scalar: dtype.NewPrimitive(dtype.I64, int64(2000), false)},
		},
	})
	mask, err := rf.Evaluate(vtable.GlobalContext(), batch)
	require.NoError(t, err)
	require.True(t, mask.AllFalse())
}

func TestRowFilterAndCombination(t *testing.T) {
	batch := testBatch(t)
	rf := expr.NewRowFilter(expr.BinaryExpr{
		Left: expr.BinaryExpr{
			Left:  expr.Column{Name: "age"},
			Op:    expr.Gt,
			Right: expr.Literal{Scalar: dtype.NewPrimitive(dtype.I64, int64(15), false)},
		},
		Op: expr.And,
		Right: expr.BinaryExpr{
			Left:  expr.Column{Name: "age"},
			Op:    expr.Lt,
			Right: expr.Literal{Scalar: dtype.NewPrimitive(dtype.I64, int64(35), false)},
		},
	})
	mask, err := rf.Evaluate(vtable.GlobalContext(), batch)
	require.NoError(t, err)
	require.Equal(t, 2, mask.TrueCount())
	require.True(t, mask.IsSet(1))
	require.True(t, mask.IsSet(2))
}

func TestRowFilterOnlyFieldsDropsUnresolvableConjuncts(t *testing.T) {
	rf := expr.NewRowFilter(expr.BinaryExpr{
		Left: expr.BinaryExpr{
			Left:  expr.Column{Name: "age"},
			Op:    expr.Gt,
			Right: expr.Literal{Scalar: dtype.NewPrimitive(dtype.I64, int64(15), false)},
		},
		Op: expr.And,
		Right: expr.BinaryExpr{
			Left:  expr.Column{Name: "name"},
			Op:    expr.Eq,
			Right: expr.Literal{Scalar: dtype.NewUtf8("bob", false)},
		},
	})
	require.Len(t, rf.Conjuncts, 2)

	ageOnly := rf.OnlyFields([]string{"age"})
	require.Len(t, ageOnly.Conjuncts, 1)
	require.ElementsMatch(t, []string{"age"}, ageOnly.Conjuncts[0].ReferencedFields())
}

func TestSelectApply(t *testing.T) {
	i64 := dtype.Primitive(dtype.I64, false)
	dt := dtype.Struct([]string{"a", "b", "c"}, []dtype.DType{i64, i64, i64}, false)
	require.Equal(t, []string{"a", "c"}, expr.Exclude("b").Apply(dt))
	require.Equal(t, []string{"x", "y"}, expr.Include("x", "y").Apply(dt))
}
