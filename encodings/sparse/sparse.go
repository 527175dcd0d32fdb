// Package sparse implements Vortex's Sparse encoding: a constant fill value
// with a sorted sidecar of (index, value) patches recording the exceptions
// (spec §3, "Sparse"). Slicing only narrows the patch sidecar and adjusts an
// index offset — it never touches the fill or rewrites patch positions
// (spec §4.1, "O(1) rebase on slice"; worked example in spec §8).
package sparse

import (
	"encoding/binary"
	"sort"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
)

func init() {
	vtable.GlobalContext().Register(sparseVTable{
		BaseVTable: vtable.BaseVTable{EncID: array.EncodingSparse, Name: "sparse"},
	})
}

// New constructs a Sparse array. indices must be a canonical, ascending,
// non-nullable I64 primitive array of patch positions relative to
// indicesOffset (i.e. logical index = indices[i] - indicesOffset); values is
// a parallel array of dt holding the patch value at each corresponding
// index; length is the sparse array's full logical length; fill is the
// scalar every non-patched position reads as.
func New(dt dtype.DType, length int, indices, values *array.Array, indicesOffset int64, fill dtype.Scalar) *array.Array {
	fillArr := array.BuildFromScalars(dt, []dtype.Scalar{fill})
	meta := make([]byte, 8)
	binary.LittleEndian.PutUint64(meta, uint64(indicesOffset))
	return array.New(array.EncodingSparse, dt, length, nil, meta, []*array.Array{indices, values, fillArr}, array.Owned)
}

func Indices(a *array.Array) *array.Array { return a.Child(0) }
func Values(a *array.Array) *array.Array  { return a.Child(1) }

func IndicesOffset(a *array.Array) int64 {
	return int64(binary.LittleEndian.Uint64(a.Metadata()))
}

func Fill(a *array.Array) dtype.Scalar {
	ctx := vtable.GlobalContext()
	s, err := vtable.ScalarAt(ctx, a.Child(2), 0)
	if err != nil {
		panic(err)
	}
	return s
}

// SearchIndex returns the position in the indices/values sidecar where a
// patch at logical position pos would sit (the teacher source's
// search_index, vortex-array sparse/compute/slice.rs): the leftmost i with
// indices[i] - indicesOffset >= pos, plus whether that patch's index is an
// exact match for pos.
func SearchIndex(a *array.Array, pos int) (idx int, found bool) {
	indices := Indices(a)
	offset := IndicesOffset(a)
	n := indices.Len()
	target := int64(pos) + offset
	idx = sort.Search(n, func(i int) bool {
		return int64(array.PrimitiveFloat64At(indices, i)) >= target
	})
	found = idx < n && int64(array.PrimitiveFloat64At(indices, idx)) == target
	return idx, found
}
