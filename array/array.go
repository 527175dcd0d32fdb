// Package array implements Vortex's physical array model: an immutable,
// recursive node carrying an encoding identity, a logical DType, a length,
// an optional opaque buffer, optional encoding-specific metadata, and
// ordered children that are themselves arrays.
//
// Arrays are never mutated after construction (spec §3, "Lifecycles"):
// every compute operation allocates a new node. Buffers are reference
// counted by the Go runtime's own GC — there is nothing to do explicitly
// here, unlike the teacher's on-disk freelist (store/freelist), since array
// buffers are heap memory, not file extents.
package array

import (
	"github.com/vxdb/vortex/dtype"
)

// Ownership distinguishes a fully materialized heap buffer (Owned) from a
// zero-copy view over a larger backing byte slice, typically one owned by a
// memory-mapped or IPC-framed file read (Viewed). Both modes answer every
// operation identically; the distinction is visible only here.
type Ownership uint8

const (
	Owned Ownership = iota
	Viewed
)

func (o Ownership) String() string {
	if o == Viewed {
		return "viewed"
	}
	return "owned"
}

// Array is the immutable node described in spec §3.
type Array struct {
	encodingID EncodingID
	dtype      dtype.DType
	length     int
	buffer     []byte
	metadata   []byte
	children   []*Array
	ownership  Ownership

	stats *statsCache
}

// New constructs an array node. buffer and metadata may be nil; children may
// be empty. The caller is responsible for satisfying the invariants in
// spec §3 (child length contracts, offset monotonicity, etc.) — New itself
// performs no encoding-specific validation, matching the teacher's layered
// validation style (low-level constructors trust callers; higher-level
// Open/Decode entry points validate, see layout.Reader).
func New(encodingID EncodingID, dt dtype.DType, length int, buffer, metadata []byte, children []*Array, ownership Ownership) *Array {
	return &Array{
		encodingID: encodingID,
		dtype:      dt,
		length:     length,
		buffer:     buffer,
		metadata:   metadata,
		children:   children,
		ownership:  ownership,
		stats:      newStatsCache(),
	}
}

func (a *Array) EncodingID() EncodingID { return a.encodingID }
func (a *Array) DType() dtype.DType     { return a.dtype }
func (a *Array) Len() int               { return a.length }
func (a *Array) Buffer() []byte         { return a.buffer }
func (a *Array) Metadata() []byte       { return a.metadata }
func (a *Array) Ownership() Ownership   { return a.ownership }

// NumChildren returns the number of ordered child arrays. Children are
// referenced positionally; names (struct fields, varbin's offsets/bytes/
// validity slots) are metadata layered on top, never part of array
// identity (spec §9, "Child identity").
func (a *Array) NumChildren() int { return len(a.children) }

func (a *Array) Child(i int) *Array {
	if i < 0 || i >= len(a.children) {
		return nil
	}
	return a.children[i]
}

func (a *Array) Children() []*Array { return a.children }

// Stats returns this array's lazily-filled statistics cache (spec §3,
// "Statistics").
func (a *Array) Stats() *statsCache { return a.stats }

// WithChildren returns a shallow copy of a with its children replaced. Used
// by compute kernels that rewrite only the child set (e.g. Chunked filter
// routing) without disturbing metadata or stats on the parent.
func (a *Array) WithChildren(children []*Array) *Array {
	return &Array{
		encodingID: a.encodingID,
		dtype:      a.dtype,
		length:     a.length,
		buffer:     a.buffer,
		metadata:   a.metadata,
		children:   children,
		ownership:  a.ownership,
		stats:      newStatsCache(),
	}
}
