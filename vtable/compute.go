package vtable

import (
	"errors"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vxerr"
)

// isUnsupported reports whether err is the sentinel a vtable returns when it
// doesn't implement a compute function — the dispatch rule's fallback
// trigger (spec §4.1).
func isUnsupported(err error) bool {
	var u *vxerr.Unsupported
	return errors.As(err, &u)
}

// Canonicalize converts a to the canonical encoding of its dtype,
// idempotently (spec §4.1). Debug-logs whenever the input is non-canonical
// and longer than one element (spec §4.1, "Canonicalization is logged at
// debug level...").
func Canonicalize(ctx *Context, a *array.Array) (*array.Array, error) {
	if array.IsCanonicalForm(a) {
		return a, nil
	}
	if a.Len() > 1 {
		log.Debugw("canonicalizing", "from", a.EncodingID().String(), "dtype", a.DType().String(), "len", a.Len())
	}
	vt := ctx.MustLookup(a.EncodingID())
	return vt.Canonicalize(a)
}

func canonicalVT(ctx *Context, dt dtype.DType) VTable {
	return ctx.MustLookup(array.CanonicalEncodingFor(dt.Kind))
}

// Filter implements the vtable-first-then-canonicalize dispatch rule for
// the Filter compute function.
func Filter(ctx *Context, a *array.Array, mask *FilterMask) (*array.Array, error) {
	vt := ctx.MustLookup(a.EncodingID())
	out, err := vt.Filter(a, mask)
	if err == nil {
		return out, nil
	}
	if !isUnsupported(err) {
		return nil, err
	}
	canon, err := Canonicalize(ctx, a)
	if err != nil {
		return nil, err
	}
	return canonicalVT(ctx, a.DType()).Filter(canon, mask)
}

func Take(ctx *Context, a *array.Array, indices *array.Array) (*array.Array, error) {
	vt := ctx.MustLookup(a.EncodingID())
	out, err := vt.Take(a, indices)
	if err == nil {
		return out, nil
	}
	if !isUnsupported(err) {
		return nil, err
	}
	canon, err := Canonicalize(ctx, a)
	if err != nil {
		return nil, err
	}
	return canonicalVT(ctx, a.DType()).Take(canon, indices)
}

func Slice(ctx *Context, a *array.Array, lo, hi int) (*array.Array, error) {
	if lo < 0 || hi > a.Len() || lo > hi {
		return nil, vxerr.NewInvalidArgument("slice", "invalid range [%d, %d) for length %d", lo, hi, a.Len())
	}
	vt := ctx.MustLookup(a.EncodingID())
	out, err := vt.Slice(a, lo, hi)
	if err == nil {
		return out, nil
	}
	if !isUnsupported(err) {
		return nil, err
	}
	canon, err := Canonicalize(ctx, a)
	if err != nil {
		return nil, err
	}
	return canonicalVT(ctx, a.DType()).Slice(canon, lo, hi)
}

func Compare(ctx *Context, a, b *array.Array, op CompareOp) (*array.Array, error) {
	vt := ctx.MustLookup(a.EncodingID())
	out, err := vt.Compare(a, b, op)
	if err == nil {
		return out, nil
	}
	if !isUnsupported(err) {
		return nil, err
	}
	canon, err := Canonicalize(ctx, a)
	if err != nil {
		return nil, err
	}
	return canonicalVT(ctx, a.DType()).Compare(canon, b, op)
}

func ScalarAt(ctx *Context, a *array.Array, i int) (dtype.Scalar, error) {
	if i < 0 || i >= a.Len() {
		return dtype.Scalar{}, outOfBounds("scalar_at", i, a.Len())
	}
	vt := ctx.MustLookup(a.EncodingID())
	out, err := vt.ScalarAt(a, i)
	if err == nil {
		return out, nil
	}
	if !isUnsupported(err) {
		return dtype.Scalar{}, err
	}
	canon, err := Canonicalize(ctx, a)
	if err != nil {
		return dtype.Scalar{}, err
	}
	return canonicalVT(ctx, a.DType()).ScalarAt(canon, i)
}

func SearchSorted(ctx *Context, a *array.Array, value dtype.Scalar, side Side) (SearchResult, error) {
	vt := ctx.MustLookup(a.EncodingID())
	out, err := vt.SearchSorted(a, value, side)
	if err == nil {
		return out, nil
	}
	if !isUnsupported(err) {
		return SearchResult{}, err
	}
	canon, err := Canonicalize(ctx, a)
	if err != nil {
		return SearchResult{}, err
	}
	return canonicalVT(ctx, a.DType()).SearchSorted(canon, value, side)
}

func Cast(ctx *Context, a *array.Array, to dtype.DType) (*array.Array, error) {
	vt := ctx.MustLookup(a.EncodingID())
	out, err := vt.Cast(a, to)
	if err == nil {
		return out, nil
	}
	if !isUnsupported(err) {
		return nil, err
	}
	canon, err := Canonicalize(ctx, a)
	if err != nil {
		return nil, err
	}
	return canonicalVT(ctx, a.DType()).Cast(canon, to)
}

func SubtractScalar(ctx *Context, a *array.Array, s dtype.Scalar) (*array.Array, error) {
	vt := ctx.MustLookup(a.EncodingID())
	out, err := vt.SubtractScalar(a, s)
	if err == nil {
		return out, nil
	}
	if !isUnsupported(err) {
		return nil, err
	}
	canon, err := Canonicalize(ctx, a)
	if err != nil {
		return nil, err
	}
	return canonicalVT(ctx, a.DType()).SubtractScalar(canon, s)
}

// Stat dispatches a statistics request, falling back to delegation via
// canonicalization just like any other compute function (spec §3,
// "Stats may be ... computed on demand").
func Stat(ctx *Context, a *array.Array, kind array.StatKind) (any, error) {
	return a.Stats().ComputeIfAbsentErr(kind, func() (any, error) {
		vt := ctx.MustLookup(a.EncodingID())
		v, err := vt.Stat(a, kind)
		if err == nil && v != nil {
			return v, nil
		}
		if err != nil && !isUnsupported(err) {
			return nil, err
		}
		canon, cerr := Canonicalize(ctx, a)
		if cerr != nil {
			return nil, cerr
		}
		return canonicalVT(ctx, a.DType()).Stat(canon, kind)
	})
}

func Validity(ctx *Context, a *array.Array) (array.Validity, error) {
	vt := ctx.MustLookup(a.EncodingID())
	v, err := vt.Validity(a)
	if err == nil {
		return v, nil
	}
	if !isUnsupported(err) {
		return array.Validity{}, err
	}
	canon, err := Canonicalize(ctx, a)
	if err != nil {
		return array.Validity{}, err
	}
	return canonicalVT(ctx, a.DType()).Validity(canon)
}

func outOfBounds(op string, idx, length int) error {
	return vxerr.NewInvalidArgument(op, "index %d out of range [0, %d)", idx, length)
}

func castUnsupported(encoding string, from, to dtype.DType) error {
	return vxerr.NewUnsupported("cast", "%s encoding cannot cast %s to %s", encoding, from, to)
}

// genericCompare implements Compare by scalar-wise dispatch through the
// global context. It is the shared fallback canonical vtables use for
// dtypes where there's no cheaper vectorized path worth hand-writing —
// mirroring the teacher's preference for a single generic code path plus
// fast paths only where measured to matter (compactindexsized's
// SearchSortedEntries binary search versus a literal scan, for instance).
func genericCompare(a, b *array.Array, op CompareOp) (*array.Array, error) {
	ctx := GlobalContext()
	n := a.Len()
	bLen := b.Len()
	broadcastB := bLen == 1 && n != 1
	vals := make([]bool, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		sa, err := ScalarAt(ctx, a, i)
		if err != nil {
			return nil, err
		}
		bi := i
		if broadcastB {
			bi = 0
		}
		sb, err := ScalarAt(ctx, b, bi)
		if err != nil {
			return nil, err
		}
		if !sa.IsValid() || !sb.IsValid() {
			valid[i] = false
			continue
		}
		valid[i] = true
		vals[i] = evalOp(sa, sb, op)
	}
	return buildBoolFrom(vals, valid, a.DType().Nullable || b.DType().Nullable), nil
}

func evalOp(a, b dtype.Scalar, op CompareOp) bool {
	if a.DType.Kind == dtype.KindUtf8 || a.DType.Kind == dtype.KindBinary {
		sa, _ := a.Value.(string)
		sb, _ := b.Value.(string)
		if sa == "" {
			if bs, ok := a.Value.([]byte); ok {
				sa = string(bs)
			}
		}
		if sb == "" {
			if bs, ok := b.Value.([]byte); ok {
				sb = string(bs)
			}
		}
		switch op {
		case Eq:
			return sa == sb
		case NotEq:
			return sa != sb
		case Lt:
			return sa < sb
		case Lte:
			return sa <= sb
		case Gt:
			return sa > sb
		case Gte:
			return sa >= sb
		}
	}
	if a.DType.Kind == dtype.KindBool {
		ba, _ := a.Value.(bool)
		bb, _ := b.Value.(bool)
		switch op {
		case Eq:
			return ba == bb
		case NotEq:
			return ba != bb
		}
		return false
	}
	fa, fb := a.AsFloat64(), b.AsFloat64()
	switch op {
	case Eq:
		return fa == fb
	case NotEq:
		return fa != fb
	case Lt:
		return fa < fb
	case Lte:
		return fa <= fb
	case Gt:
		return fa > fb
	case Gte:
		return fa >= fb
	}
	return false
}
