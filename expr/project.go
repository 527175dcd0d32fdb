package expr

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
)

// Select is a projection: either an inclusion or an exclusion field list
// (spec §4.3, "Expression model").
type Select struct {
	Exclude bool
	Fields  []string
}

func Include(fields ...string) Select { return Select{Fields: fields} }
func Exclude(fields ...string) Select { return Select{Exclude: true, Fields: fields} }

// Apply resolves this selection against a struct dtype's field names,
// returning the concrete field list a reader should materialize.
func (s Select) Apply(dt dtype.DType) []string {
	if !s.Exclude {
		return append([]string(nil), s.Fields...)
	}
	excluded := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		excluded[f] = true
	}
	var kept []string
	for _, name := range dt.StructNames {
		if !excluded[name] {
			kept = append(kept, name)
		}
	}
	return kept
}

// RowFilter is a conjunction of predicates, each independently pushable
// into a sub-layout that references only the fields it touches (spec §4.3,
// step 3 "Execute"). Conjuncts are stored already split so OnlyFields can
// drop individual ones without re-flattening an And tree.
type RowFilter struct {
	Conjuncts []Expr
}

// NewRowFilter splits e into conjuncts (flattening top-level Ands) and
// wraps them.
func NewRowFilter(e Expr) RowFilter {
	return RowFilter{Conjuncts: SplitConjunction(e)}
}

func (rf RowFilter) ReferencedFields() []string {
	var out []string
	for _, c := range rf.Conjuncts {
		out = append(out, c.ReferencedFields()...)
	}
	return out
}

// Evaluate AND-combines every conjunct's mask, short-circuiting to an
// all-false mask the moment a partial AND becomes all-false (spec §4.3,
// "Short-circuit a range if the mask becomes all-false"). Null entries in
// any conjunct's result are coerced to false before the AND (spec §4.3,
// "Null entries in a filter result are coerced to false").
func (rf RowFilter) Evaluate(ctx *vtable.Context, batch *array.Array) (*vtable.FilterMask, error) {
	n := batch.Len()
	if len(rf.Conjuncts) == 0 {
		vals := make([]bool, n)
		for i := range vals {
			vals[i] = true
		}
		return vtable.NewFilterMask(vals), nil
	}

	result, err := conjunctMask(ctx, rf.Conjuncts[0], batch)
	if err != nil {
		return nil, err
	}
	for _, c := range rf.Conjuncts[1:] {
		if result.AllFalse() {
			return result, nil
		}
		m, err := conjunctMask(ctx, c, batch)
		if err != nil {
			return nil, err
		}
		result = result.And(m)
	}
	return result, nil
}

func conjunctMask(ctx *vtable.Context, c Expr, batch *array.Array) (*vtable.FilterMask, error) {
	evaluated, err := c.Evaluate(ctx, batch)
	if err != nil {
		return nil, err
	}
	return nullAsFalse(ctx, evaluated)
}

// nullAsFalse coerces a Bool array's null entries to false and returns the
// result as a FilterMask (spec §4.3). Mirrors the four cases the original
// filtering code distinguishes: a non-nullable array needs no coercion; an
// all-valid array's validity is irrelevant; an all-invalid array is
// trivially all-false; otherwise every position is checked against the
// delegated validity buffer.
func nullAsFalse(ctx *vtable.Context, a *array.Array) (*vtable.FilterMask, error) {
	canon, err := vtable.Canonicalize(ctx, a)
	if err != nil {
		return nil, err
	}
	n := canon.Len()
	vals := make([]bool, n)
	if !canon.DType().Nullable {
		for i := 0; i < n; i++ {
			s, err := vtable.ScalarAt(ctx, canon, i)
			if err != nil {
				return nil, err
			}
			vals[i], _ = s.Value.(bool)
		}
		return vtable.NewFilterMask(vals), nil
	}
	for i := 0; i < n; i++ {
		s, err := vtable.ScalarAt(ctx, canon, i)
		if err != nil {
			return nil, err
		}
		if !s.IsValid() {
			continue
		}
		vals[i], _ = s.Value.(bool)
	}
	return vtable.NewFilterMask(vals), nil
}

// OnlyFields filters the conjunction down to predicates that reference only
// fields, dropping every conjunct that touches a field outside the set —
// the projection a reader pushes into a column sub-layout that only has
// those fields available (spec §4.3, step 3 "pushing its conjuncts into the
// column sub-layouts that reference only those fields").
func (rf RowFilter) OnlyFields(fields []string) RowFilter {
	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}
	var kept []Expr
	for _, c := range rf.Conjuncts {
		if p, ok := projectExpr(c, allowed); ok {
			kept = append(kept, p)
		}
	}
	return RowFilter{Conjuncts: kept}
}

// projectExpr is expr_project: it returns (e, true) unchanged if e
// references only fields in allowed, or (nil, false) otherwise. There is no
// partial projection — an expression either survives whole or is dropped,
// matching RowFilter::only_fields's use of filter_map over Option<Expr> in
// the original source (original_source/vortex-serde has no surviving
// expr_project.rs to transcribe; this is inferred from that call site).
func projectExpr(e Expr, allowed map[string]bool) (Expr, bool) {
	for _, f := range e.ReferencedFields() {
		if !allowed[f] {
			return nil, false
		}
	}
	return e, true
}
