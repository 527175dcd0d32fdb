// Package compressor implements Vortex's sampling compressor: given a
// canonical array and a catalog of candidate encoders, it samples the data,
// scores each encoder on the sample, and applies the winner to the full
// array, recursing into children up to a depth budget (spec §4.2). The
// shape of the Encoder contract — id/cost/can-compress/compress/used-
// encodings, plus named and auxiliary child contexts for recursion bias —
// is grounded directly on the teacher's EncodingCompressor trait
// (vortex-sampling-compressor/src/compressors/{sparse,roaring_bool,alp_rd}.rs,
// original_source).
package compressor

import (
	"github.com/vxdb/vortex/array"
)

// Encoder is one candidate compression scheme the sampling search can pick
// for an array node.
type Encoder interface {
	// ID identifies the encoding this Encoder produces, both for the
	// CompressionTree recipe and for UsedEncodings.
	ID() array.EncodingID

	// Cost is a discouragement weight: a higher cost requires a
	// proportionally larger size win to be selected (see score in cost.go).
	Cost() uint8

	// CanCompress is a cheap pre-filter on dtype, length, or current
	// encoding, run before the expensive Compress call.
	CanCompress(a *array.Array) bool

	// Compress encodes a, optionally reusing a recipe hint from a prior
	// sampling pass (like may be nil). c is the recursion context this
	// node was reached through (see Compressor.Named / Compressor.Auxiliary).
	Compress(a *array.Array, like *CompressionTree, c *Compressor) (CompressedArray, error)

	// UsedEncodings is the set of encoding IDs the compressed output
	// depends on (this encoder's own ID plus any its children require).
	UsedEncodings() map[array.EncodingID]struct{}
}

// CompressionTree is the recipe that produced a CompressedArray: the
// encoder chosen at this node plus one recursively-described tree per
// child, each optionally named (spec §4.2 "Encoders may mark children as
// auxiliary ... with different recursion contexts").
type CompressionTree struct {
	Encoding array.EncodingID
	Children []*CompressionTree
	// ChildNames mirrors Children by index; empty string for unnamed
	// children. Present so a prior tree's per-child recursion context can
	// be recovered when it is reused as a `like` hint.
	ChildNames []string
}

// Child returns the i'th child tree, or nil if absent — mirroring the
// teacher source's `like.and_then(|l| l.child(i))` access pattern used to
// pull a recipe hint out of a prior sample's tree.
func (t *CompressionTree) Child(i int) *CompressionTree {
	if t == nil || i < 0 || i >= len(t.Children) {
		return nil
	}
	return t.Children[i]
}

// Flat returns a leaf CompressionTree for an encoder with no children.
func Flat(id array.EncodingID) *CompressionTree {
	return &CompressionTree{Encoding: id}
}

// CompressedArray pairs the encoded array with the tree that produced it.
type CompressedArray struct {
	Array *array.Array
	Tree  *CompressionTree
}
