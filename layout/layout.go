// Package layout implements the on-disk file layout engine described in
// spec §4.3: a chunked, self-describing file format with deferred (lazy)
// footer metadata and a recursive layout tree supporting projection
// pushdown, predicate pushdown, and row-range pruning. Grounded on
// ipld/ipldbindcode's CBOR footer discipline and gsfa's chunk-store
// manifest conventions (teacher) for the footer codec, and on range-cache
// for the byte-range I/O it sits on top of via package iodispatch.
package layout

import (
	"github.com/vxdb/vortex/array"
)

// Alignment is the power-of-two byte boundary every data buffer is padded
// to (spec §4.3, "Buffer alignment: power-of-two (typically 64)").
const Alignment = 64

// padTo returns the number of padding bytes needed to bring offset up to
// the next Alignment boundary.
func padTo(offset int64) int64 {
	rem := offset % Alignment
	if rem == 0 {
		return 0
	}
	return Alignment - rem
}

// ByteRange is a half-open [Offset, Offset+Length) span within the data
// buffers section of a file.
type ByteRange struct {
	Offset int64 `cbor:"o"`
	Length int64 `cbor:"l"`
}

// ArrayHeader serializes one array node's shape: its encoding, logical
// dtype, length, own buffer location (if any), metadata, and children —
// recursively, so a single ArrayHeader can describe an entire compressed
// encoding tree (spec §4.3, Flat layout: "a serialized array header
// (encoding + metadata + child descriptors)").
type ArrayHeader struct {
	Encoding array.EncodingID `cbor:"e"`
	// DType is the cbor encoding of this node's dtype.DType. Present on
	// every node (not just the file root) because a compressed tree's
	// children do not all share the parent's logical dtype (e.g. Sparse's
	// indices child is I64 positions, FSST's codes child is I32).
	DType    []byte        `cbor:"t"`
	Length   int           `cbor:"n"`
	Buffer   *ByteRange    `cbor:"b,omitempty"`
	Metadata []byte        `cbor:"m,omitempty"`
	Children []ArrayHeader `cbor:"c,omitempty"`

	// Compressed and UncompressedLength describe this node's own Buffer
	// only; a zero UncompressedLength means Buffer was stored raw.
	Compressed         bool `cbor:"z,omitempty"`
	UncompressedLength int  `cbor:"u,omitempty"`
}

// NodeKind discriminates the layout tree's four variants (spec §4.3,
// "Layout variants").
type NodeKind uint8

const (
	// Flat is a leaf: a serialized ArrayHeader plus the byte ranges its
	// tree of buffers occupies.
	Flat NodeKind = iota
	// Chunked has ordered children, each a layout for one row-chunk of the
	// same dtype, plus a RowOffsets table.
	Chunked
	// Column has one child per top-level struct field; all children share
	// the row count.
	Column
	// Inline wraps a nested layout with an explicit DType, used at the file
	// root (spec §4.3, "Inline-schema wrapper").
	Inline
)

// Node is one entry in the recursive layout tree. Every node carries its
// row count (spec §4.3, "Every node carries: its row-count..."); the
// layout-id is this node's path from the root, reconstructed by callers as
// they walk rather than stored (there is nothing to look up it by that
// isn't already implied by tree position).
type Node struct {
	Kind     NodeKind `cbor:"k"`
	RowCount int      `cbor:"n"`

	// Flat
	Header *ArrayHeader `cbor:"h,omitempty"`

	// Chunked
	RowOffsets []int64 `cbor:"o,omitempty"`
	Children   []*Node `cbor:"c,omitempty"`

	// Column (reuses Children above; FieldNames is parallel to Children)
	FieldNames []string `cbor:"f,omitempty"`

	// Inline
	DType  []byte `cbor:"d,omitempty"`
	Inline *Node  `cbor:"i,omitempty"`
}

// Splits returns the row boundaries, relative to this node's own range,
// at which the layout admits a boundary read (spec §4.3, step 2 "Plan":
// "the union of all splits partitions [0, row_count) into atomic ranges").
func (n *Node) Splits() []int64 {
	switch n.Kind {
	case Flat:
		return []int64{0, int64(n.RowCount)}
	case Chunked:
		set := map[int64]bool{}
		for _, off := range n.RowOffsets {
			set[off] = true
		}
		for i, child := range n.Children {
			base := n.RowOffsets[i]
			for _, s := range child.Splits() {
				set[base+s] = true
			}
		}
		return sortedKeys(set)
	case Column:
		set := map[int64]bool{0: true, int64(n.RowCount): true}
		for _, child := range n.Children {
			for _, s := range child.Splits() {
				set[s] = true
			}
		}
		return sortedKeys(set)
	case Inline:
		return n.Inline.Splits()
	default:
		return nil
	}
}

func sortedKeys(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// atomicRanges turns a sorted split-point set into the half-open ranges it
// partitions [0, rowCount) into.
func atomicRanges(splits []int64) [][2]int64 {
	if len(splits) < 2 {
		return nil
	}
	ranges := make([][2]int64, 0, len(splits)-1)
	for i := 0; i+1 < len(splits); i++ {
		if splits[i] == splits[i+1] {
			continue
		}
		ranges = append(ranges, [2]int64{splits[i], splits[i+1]})
	}
	return ranges
}
