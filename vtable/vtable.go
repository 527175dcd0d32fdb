// Package vtable implements the encoding vtable and compute dispatch layer
// described in spec §4.1: every encoding registers a small, fixed set of
// capabilities in a process-global Context; compute dispatch tries the
// array's own vtable first and falls back to canonicalizing and retrying.
package vtable

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vxerr"
)

// CompareOp enumerates the comparison operators the Compare compute
// function supports (spec §4.1, "Compare contract").
type CompareOp uint8

const (
	Eq CompareOp = iota
	NotEq
	Lt
	Lte
	Gt
	Gte
)

// Side selects which boundary SearchSorted resolves to.
type Side uint8

const (
	Left Side = iota
	Right
)

// SearchResult is the outcome of a SearchSorted call (spec §8, property 6).
type SearchResult struct {
	Index int
	Found bool
}

// VTable is the capability set an encoding registers. Every method besides
// ID/Variants/Canonicalize/Validity is optional: an implementation that
// does not support a compute function returns a *vxerr.Unsupported error,
// which dispatch recognizes and handles by canonicalizing and retrying
// (spec §4.1, "Dispatch rule"). BaseVTable supplies that default for every
// method so concrete encodings only override what they implement.
type VTable interface {
	ID() array.EncodingID
	// Variants reports which logical-array trait categories (per spec
	// §4.1's "variants" capability) this encoding implements.
	Variants() []dtype.Kind

	Canonicalize(a *array.Array) (*array.Array, error)
	Validity(a *array.Array) (array.Validity, error)
	Stat(a *array.Array, kind array.StatKind) (any, error)

	Filter(a *array.Array, mask *FilterMask) (*array.Array, error)
	Take(a *array.Array, indices *array.Array) (*array.Array, error)
	Slice(a *array.Array, lo, hi int) (*array.Array, error)
	Compare(a, b *array.Array, op CompareOp) (*array.Array, error)
	ScalarAt(a *array.Array, i int) (dtype.Scalar, error)
	SearchSorted(a *array.Array, value dtype.Scalar, side Side) (SearchResult, error)
	Cast(a *array.Array, to dtype.DType) (*array.Array, error)
	SubtractScalar(a *array.Array, s dtype.Scalar) (*array.Array, error)
}

// BaseVTable implements every optional VTable method by returning
// vxerr.Unsupported, so concrete vtables can embed it and override only the
// compute functions they actually implement — the same "small stable
// vtable, discriminated union + static dispatch table" shape spec §9
// recommends over open inheritance.
type BaseVTable struct {
	EncID    array.EncodingID
	Kinds    []dtype.Kind
	Name     string
}

func (b BaseVTable) ID() array.EncodingID   { return b.EncID }
func (b BaseVTable) Variants() []dtype.Kind { return b.Kinds }

func (b BaseVTable) unsupported(op string) error {
	return vxerr.NewUnsupported(op, "encoding %s does not implement %s", b.Name, op)
}

func (b BaseVTable) Canonicalize(a *array.Array) (*array.Array, error) {
	return nil, b.unsupported("canonicalize")
}
func (b BaseVTable) Validity(a *array.Array) (array.Validity, error) {
	return array.Validity{}, b.unsupported("validity")
}
func (b BaseVTable) Stat(a *array.Array, kind array.StatKind) (any, error) {
	return nil, b.unsupported("stat")
}
func (b BaseVTable) Filter(a *array.Array, mask *FilterMask) (*array.Array, error) {
	return nil, b.unsupported("filter")
}
func (b BaseVTable) Take(a *array.Array, indices *array.Array) (*array.Array, error) {
	return nil, b.unsupported("take")
}
func (b BaseVTable) Slice(a *array.Array, lo, hi int) (*array.Array, error) {
	return nil, b.unsupported("slice")
}
func (b BaseVTable) Compare(a, other *array.Array, op CompareOp) (*array.Array, error) {
	return nil, b.unsupported("compare")
}
func (b BaseVTable) ScalarAt(a *array.Array, i int) (dtype.Scalar, error) {
	return dtype.Scalar{}, b.unsupported("scalar_at")
}
func (b BaseVTable) SearchSorted(a *array.Array, value dtype.Scalar, side Side) (SearchResult, error) {
	return SearchResult{}, b.unsupported("search_sorted")
}
func (b BaseVTable) Cast(a *array.Array, to dtype.DType) (*array.Array, error) {
	return nil, b.unsupported("cast")
}
func (b BaseVTable) SubtractScalar(a *array.Array, s dtype.Scalar) (*array.Array, error) {
	return nil, b.unsupported("subtract_scalar")
}
