// Package roaring stands in for Vortex's RoaringBool encoding: a sorted
// list of true-run (start, length) pairs over a Bool array, instead of
// roaring's actual container-per-16-bit-chunk structure (spec §1 Non-goals
// exclude individual codecs' bit-level algorithms; grounded on the
// `Encoder` trait shape in
// vortex-sampling-compressor/src/compressors/roaring_bool.rs,
// original_source).
package roaring

import (
	"encoding/binary"
	"sort"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
)

func init() {
	vtable.GlobalContext().Register(roaringVTable{
		BaseVTable: vtable.BaseVTable{EncID: array.EncodingRoaringBool, Name: "roaring_bool"},
	})
}

type run struct{ start, length int }

// Encode builds a RoaringBool array from a bool slice and its validity,
// recording only the maximal true-runs.
func Encode(vals []bool, v array.Validity) *array.Array {
	n := len(vals)
	var runs []run
	inRun := false
	var start int
	for i, b := range vals {
		switch {
		case b && !inRun:
			start, inRun = i, true
		case !b && inRun:
			runs = append(runs, run{start, i - start})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, run{start, n - start})
	}

	buf := make([]byte, len(runs)*16)
	for i, r := range runs {
		binary.LittleEndian.PutUint64(buf[i*16:], uint64(r.start))
		binary.LittleEndian.PutUint64(buf[i*16+8:], uint64(r.length))
	}

	var children []*array.Array
	if v.Kind == array.ValidityDelegated {
		children = []*array.Array{v.Array}
	}
	return array.New(array.EncodingRoaringBool, dtype.Bool(v.Kind != array.NonNullable), n, buf, nil, children, array.Owned)
}

func runs(a *array.Array) []run {
	buf := a.Buffer()
	out := make([]run, len(buf)/16)
	for i := range out {
		out[i] = run{
			start:  int(binary.LittleEndian.Uint64(buf[i*16:])),
			length: int(binary.LittleEndian.Uint64(buf[i*16+8:])),
		}
	}
	return out
}

// ValueAt reports whether position i falls within a true-run, via binary
// search over run start offsets.
func ValueAt(a *array.Array, i int) bool {
	rs := runs(a)
	idx := sort.Search(len(rs), func(j int) bool { return rs[j].start > i }) - 1
	if idx < 0 {
		return false
	}
	r := rs[idx]
	return i >= r.start && i < r.start+r.length
}

func TrueCount(a *array.Array) int {
	n := 0
	for _, r := range runs(a) {
		n += r.length
	}
	return n
}

func Validity(a *array.Array) array.Validity {
	if len(a.Children()) > 0 {
		return array.DelegatedValidity(a.Child(0))
	}
	if a.DType().Nullable {
		return array.AllValidValidity()
	}
	return array.NonNullableValidity()
}
