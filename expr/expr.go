// Package expr implements the predicate/projection expression model used
// for pushdown during file reads (spec §4.3, "Expression model"). An Expr
// evaluates against a Struct-typed batch array and produces a Bool array
// (possibly nullable — null results are coerced to false by RowFilter, not
// by Evaluate itself). The variant set and split_conjunction below are
// grounded on vortex-expr/src/datafusion.rs and
// vortex-serde/src/layouts/read/filtering.rs (original_source); expr_project
// has no surviving source file in the retrieval pack and is designed from
// the contract its caller (RowFilter.OnlyFields) implies: a conjunct is kept
// when every field it references is in the requested set, dropped
// otherwise.
package expr

import (
	"fmt"
	"strings"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
	"github.com/vxdb/vortex/vxerr"
)

// Operator enumerates BinaryExpr's operators. Eq..Gte map directly onto
// vtable.CompareOp and are evaluated via vtable.Compare; And/Or have no
// vtable equivalent (they combine two already-evaluated Bool arrays) and
// are evaluated directly by BinaryExpr using three-valued SQL logic.
type Operator uint8

const (
	Eq Operator = iota
	NotEq
	Lt
	Lte
	Gt
	Gte
	And
	Or
)

func (op Operator) String() string {
	switch op {
	case Eq:
		return "="
	case NotEq:
		return "!="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case And:
		return "and"
	case Or:
		return "or"
	default:
		return "unknown"
	}
}

func (op Operator) isComparison() bool { return op <= Gte }

func (op Operator) compareOp() vtable.CompareOp {
	switch op {
	case Eq:
		return vtable.Eq
	case NotEq:
		return vtable.NotEq
	case Lt:
		return vtable.Lt
	case Lte:
		return vtable.Lte
	case Gt:
		return vtable.Gt
	default:
		return vtable.Gte
	}
}

// Expr is a node in a predicate or projection tree. Evaluate runs the node
// against a Struct-typed batch and returns a Bool array of batch.Len();
// ReferencedFields collects every Column name the expression (transitively)
// reads, for expr_project and for layout pushdown ("references only these
// fields").
type Expr interface {
	Evaluate(ctx *vtable.Context, batch *array.Array) (*array.Array, error)
	ReferencedFields() []string
	fmt.Stringer
}

// Column resolves a field by name from a Struct batch.
type Column struct {
	Name string
}

func (c Column) ReferencedFields() []string { return []string{c.Name} }

func (c Column) String() string { return c.Name }

func (c Column) Evaluate(ctx *vtable.Context, batch *array.Array) (*array.Array, error) {
	dt := batch.DType()
	if dt.Kind != dtype.KindStruct {
		return nil, vxerr.NewInvalidArgument("column", "batch is not a struct array (%s)", dt.Kind)
	}
	for i, name := range dt.StructNames {
		if name == c.Name {
			return array.StructField(batch, i), nil
		}
	}
	return nil, vxerr.NewInvalidArgument("column", "no such field %q", c.Name)
}

// Literal evaluates to a constant scalar, broadcast to the batch length.
type Literal struct {
	Scalar dtype.Scalar
}

func (l Literal) ReferencedFields() []string { return nil }

func (l Literal) String() string {
	if !l.Scalar.IsValid() {
		return "null"
	}
	return fmt.Sprintf("%v", l.Scalar.Value)
}

func (l Literal) Evaluate(ctx *vtable.Context, batch *array.Array) (*array.Array, error) {
	scalars := make([]dtype.Scalar, batch.Len())
	for i := range scalars {
		scalars[i] = l.Scalar
	}
	return array.BuildFromScalars(l.Scalar.DType, scalars), nil
}

// BinaryExpr applies op to the evaluated Left and Right children.
type BinaryExpr struct {
	Left  Expr
	Op    Operator
	Right Expr
}

func (b BinaryExpr) ReferencedFields() []string {
	return append(b.Left.ReferencedFields(), b.Right.ReferencedFields()...)
}

func (b BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (b BinaryExpr) Evaluate(ctx *vtable.Context, batch *array.Array) (*array.Array, error) {
	left, err := b.Left.Evaluate(ctx, batch)
	if err != nil {
		return nil, err
	}
	right, err := b.Right.Evaluate(ctx, batch)
	if err != nil {
		return nil, err
	}
	if b.Op.isComparison() {
		return vtable.Compare(ctx, left, right, b.Op.compareOp())
	}
	return combineBool(ctx, left, right, b.Op)
}

// combineBool implements And/Or over two Bool arrays with SQL three-valued
// logic: null AND false == false, null AND true == null, null OR true ==
// true, null OR false == null, null <op> null == null.
func combineBool(ctx *vtable.Context, left, right *array.Array, op Operator) (*array.Array, error) {
	n := left.Len()
	if right.Len() != n {
		return nil, vxerr.NewInvalidArgument("binary_expr", "operand length mismatch %d != %d", n, right.Len())
	}
	nullable := left.DType().Nullable || right.DType().Nullable
	out := make([]dtype.Scalar, n)
	for i := 0; i < n; i++ {
		l, err := vtable.ScalarAt(ctx, left, i)
		if err != nil {
			return nil, err
		}
		r, err := vtable.ScalarAt(ctx, right, i)
		if err != nil {
			return nil, err
		}
		out[i] = threeValued(l, r, op, nullable)
	}
	return array.BuildFromScalars(dtype.Bool(nullable), out), nil
}

func threeValued(l, r dtype.Scalar, op Operator, nullable bool) dtype.Scalar {
	lv, lok := l.Value.(bool), l.IsValid()
	rv, rok := r.Value.(bool), r.IsValid()
	if op == And {
		if (lok && !lv) || (rok && !rv) {
			return dtype.NewBool(false, nullable)
		}
		if !lok || !rok {
			return dtype.NullScalar(dtype.Bool(nullable))
		}
		return dtype.NewBool(lv && rv, nullable)
	}
	// Or
	if (lok && lv) || (rok && rv) {
		return dtype.NewBool(true, nullable)
	}
	if !lok || !rok {
		return dtype.NullScalar(dtype.Bool(nullable))
	}
	return dtype.NewBool(lv || rv, nullable)
}

// Like matches Child's Utf8 values against a SQL LIKE pattern ('%' matches
// any run, '_' matches any one rune).
type Like struct {
	Child           Expr
	Pattern         string
	Negated         bool
	CaseInsensitive bool
}

func (l Like) ReferencedFields() []string { return l.Child.ReferencedFields() }

func (l Like) String() string {
	op := "like"
	if l.Negated {
		op = "not like"
	}
	return fmt.Sprintf("(%s %s %q)", l.Child, op, l.Pattern)
}

func (l Like) Evaluate(ctx *vtable.Context, batch *array.Array) (*array.Array, error) {
	child, err := l.Child.Evaluate(ctx, batch)
	if err != nil {
		return nil, err
	}
	canon, err := vtable.Canonicalize(ctx, child)
	if err != nil {
		return nil, err
	}
	nullable := canon.DType().Nullable
	n := canon.Len()
	out := make([]dtype.Scalar, n)
	pattern := l.Pattern
	if l.CaseInsensitive {
		pattern = strings.ToLower(pattern)
	}
	for i := 0; i < n; i++ {
		s, err := vtable.ScalarAt(ctx, canon, i)
		if err != nil {
			return nil, err
		}
		if !s.IsValid() {
			out[i] = dtype.NullScalar(dtype.Bool(nullable))
			continue
		}
		str, _ := s.Value.(string)
		if l.CaseInsensitive {
			str = strings.ToLower(str)
		}
		matched := likeMatch(str, pattern)
		if l.Negated {
			matched = !matched
		}
		out[i] = dtype.NewBool(matched, nullable)
	}
	return array.BuildFromScalars(dtype.Bool(nullable), out), nil
}

// likeMatch implements SQL LIKE: '%' matches any (possibly empty) run of
// runes, '_' matches exactly one rune, every other rune matches literally.
func likeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	if p[0] == '%' {
		if likeMatchRunes(s, p[1:]) {
			return true
		}
		for len(s) > 0 {
			s = s[1:]
			if likeMatchRunes(s, p[1:]) {
				return true
			}
		}
		return false
	}
	if len(s) == 0 {
		return false
	}
	if p[0] == '_' || p[0] == s[0] {
		return likeMatchRunes(s[1:], p[1:])
	}
	return false
}

// SplitConjunction flattens top-level And nodes into their leaf conjuncts,
// the way a single `a AND b AND c` BinaryExpr chain becomes three
// independently-pushable filters.
func SplitConjunction(e Expr) []Expr {
	b, ok := e.(BinaryExpr)
	if !ok || b.Op != And {
		return []Expr{e}
	}
	return append(SplitConjunction(b.Left), SplitConjunction(b.Right)...)
}

// JoinConjunction is SplitConjunction's inverse: it rebuilds a left-deep And
// chain from a conjunct list, or returns nil for an empty list.
func JoinConjunction(conjuncts []Expr) Expr {
	if len(conjuncts) == 0 {
		return nil
	}
	out := conjuncts[0]
	for _, c := range conjuncts[1:] {
		out = BinaryExpr{Left: out, Op: And, Right: c}
	}
	return out
}
