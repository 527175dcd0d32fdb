// Package chunked implements Vortex's Chunked encoding: a non-canonical
// array formed by concatenating same-dtype child arrays end to end, the way
// a file's column is built up one write batch at a time (spec §3,
// "Chunked"). It registers itself into the global vtable Context on import,
// the same driver-self-registration idiom database/sql uses, so the
// top-level facade package need only blank-import it.
package chunked

import (
	"encoding/binary"
	"sort"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
	"github.com/vxdb/vortex/vxerr"
)

func init() {
	vtable.GlobalContext().Register(chunkedVTable{
		BaseVTable: vtable.BaseVTable{EncID: array.EncodingChunked, Name: "chunked"},
	})
}

// New constructs a Chunked array over chunks, all of which must share dt.
// The offsets buffer (cumulative chunk lengths, n+1 int64 entries) is
// precomputed so FindChunk can binary-search it.
func New(dt dtype.DType, chunks []*array.Array) (*array.Array, error) {
	offsets := make([]byte, (len(chunks)+1)*8)
	var cum int64
	for i, c := range chunks {
		if !c.DType().Equals(dt) {
			return nil, vxerr.NewMismatchedTypes("chunked.new", dt.String(), c.DType().String())
		}
		binary.LittleEndian.PutUint64(offsets[i*8:], uint64(cum))
		cum += int64(c.Len())
	}
	binary.LittleEndian.PutUint64(offsets[len(chunks)*8:], uint64(cum))
	return array.New(array.EncodingChunked, dt, int(cum), offsets, nil, chunks, array.Owned), nil
}

// Offsets returns the n+1 cumulative chunk-start offsets.
func Offsets(a *array.Array) []int64 {
	buf := a.Buffer()
	out := make([]int64, len(buf)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}

func NChunks(a *array.Array) int { return len(a.Children()) }

func Chunk(a *array.Array, i int) *array.Array { return a.Child(i) }

// FindChunk locates the chunk containing logical index idx and the index's
// offset within that chunk, mirroring the teacher source's find_chunk_idx
// (vortex-array chunked/compute/filter.rs): binary search the offsets for
// the rightmost entry <= idx.
func FindChunk(a *array.Array, idx int) (chunkIdx, localIdx int) {
	offsets := Offsets(a)
	chunkIdx = sort.Search(len(offsets), func(i int) bool { return offsets[i] > int64(idx) }) - 1
	if chunkIdx < 0 {
		chunkIdx = 0
	}
	localIdx = idx - int(offsets[chunkIdx])
	return chunkIdx, localIdx
}
