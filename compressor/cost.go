package compressor

import "github.com/vxdb/vortex/array"

// DefaultDepthBudget is the recursion depth budget (spec §4.2, Open
// Question decision 1).
const DefaultDepthBudget = 3

// score implements the Open Question's cost penalty: score = nbytes +
// cost*nbytes/64. A cost unit discourages an encoder in proportion to the
// data it touches, rather than as a fixed constant, so the penalty stays
// scale-relative across arrays of very different sizes.
func score(nbytes int, cost uint8) float64 {
	return float64(nbytes) + float64(cost)*float64(nbytes)/64
}

// nbytesOf measures an array's on-disk footprint as the sum of its own
// buffer and metadata plus every child's, recursively — a stand-in for an
// actual encoded byte count since this module does not implement a real
// entropy coder, but it is exact for every encoding in this repo (each
// stores its payload directly in Buffer/Metadata/Children, never behind an
// opaque compressed blob).
func nbytesOf(a *array.Array) int {
	n := len(a.Buffer()) + len(a.Metadata())
	for i := 0; i < a.NumChildren(); i++ {
		n += nbytesOf(a.Child(i))
	}
	return n
}
