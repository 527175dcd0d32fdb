// Package bitpacked implements Vortex's BitPacked encoding: fixed-width
// packed unsigned integers with a Sparse sidecar of patches for values that
// don't fit the chosen width (spec §3, "BitPacked"; §4.1 "SearchSorted
// contract"). Patches are themselves a Sparse array, the same reuse the
// teacher's fastlanes crate makes (BitPackedArray.patches() returns a
// SparseArray).
package bitpacked

import (
	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/encodings/sparse"
	"github.com/vxdb/vortex/vtable"
)

func init() {
	vtable.GlobalContext().Register(bitPackedVTable{
		BaseVTable: vtable.BaseVTable{EncID: array.EncodingBitPacked, Name: "bitpacked"},
	})
}

type meta struct {
	width        uint8
	validityKind array.ValidityKind
	ptype        dtype.PType
}

func (m meta) encode() []byte { return []byte{m.width, byte(m.validityKind), byte(m.ptype)} }

func decodeMeta(b []byte) meta {
	return meta{width: b[0], validityKind: array.ValidityKind(b[1]), ptype: dtype.PType(b[2])}
}

// Encode packs vals (length n, each non-negative and representable in pt)
// into a BitPacked array at the given bit width. Any value exceeding
// (1<<width)-1 is recorded as a patch instead of being packed (silently
// truncated slots in the packed buffer are never read back for patch
// positions).
func Encode(pt dtype.PType, vals []float64, width int, v array.Validity) *array.Array {
	n := len(vals)
	maxPacked := uint64(1)<<uint(width) - 1
	packed := make([]uint64, n)
	var patchIdx, patchVal []float64
	for i, f := range vals {
		u := uint64(f)
		if u > maxPacked {
			patchIdx = append(patchIdx, float64(i))
			patchVal = append(patchVal, f)
			packed[i] = 0
			continue
		}
		packed[i] = u
	}
	buf := packWidth(packed, width)

	var patchesArr *array.Array
	if len(patchIdx) > 0 {
		var idxBuf []byte
		for _, v := range patchIdx {
			idxBuf = array.PutPrimitiveFloat64(idxBuf, dtype.I64, v)
		}
		idxArr := array.NewPrimitive(dtype.I64, len(patchIdx), idxBuf, array.NonNullableValidity())
		var valBuf []byte
		for _, v := range patchVal {
			valBuf = array.PutPrimitiveFloat64(valBuf, pt, v)
		}
		valArr := array.NewPrimitive(pt, len(patchVal), valBuf, array.NonNullableValidity())
		patchesArr = sparse.New(dtype.Primitive(pt, false), n, idxArr, valArr, 0, dtype.NewPrimitive(pt, float64(0), false))
	} else {
		emptyIdx := array.NewPrimitive(dtype.I64, 0, nil, array.NonNullableValidity())
		emptyVal := array.NewPrimitive(pt, 0, nil, array.NonNullableValidity())
		patchesArr = sparse.New(dtype.Primitive(pt, false), n, emptyIdx, emptyVal, 0, dtype.NewPrimitive(pt, float64(0), false))
	}

	children := []*array.Array{patchesArr}
	if v.Kind == array.ValidityDelegated {
		children = append(children, v.Array)
	}
	m := meta{width: uint8(width), validityKind: v.Kind, ptype: pt}
	return array.New(array.EncodingBitPacked, dtype.Primitive(pt, v.Kind != array.NonNullable), n, buf, m.encode(), children, array.Owned)
}

func Width(a *array.Array) int { return int(decodeMeta(a.Metadata()).width) }

func MaxPackedValue(a *array.Array) uint64 { return uint64(1)<<uint(Width(a)) - 1 }

func Patches(a *array.Array) *array.Array { return a.Child(0) }

func PType(a *array.Array) dtype.PType { return decodeMeta(a.Metadata()).ptype }

func Validity(a *array.Array) array.Validity {
	m := decodeMeta(a.Metadata())
	switch m.validityKind {
	case array.ValidityDelegated:
		return array.DelegatedValidity(a.Child(1))
	case array.AllInvalid:
		return array.AllInvalidValidity()
	case array.AllValid:
		return array.AllValidValidity()
	default:
		return array.NonNullableValidity()
	}
}

// PackedValueAt unpacks the raw (possibly meaningless, if i is a patch
// position) width-bit value at index i.
func PackedValueAt(a *array.Array, i int) uint64 {
	return unpackAt(a.Buffer(), Width(a), i)
}

// ValueAt returns the logical value at i, resolving through the patches
// sidecar when the position's packed slot was truncated.
func ValueAt(a *array.Array, i int) float64 {
	if _, found := sparse.SearchIndex(Patches(a), i); found {
		ctx := vtable.GlobalContext()
		s, err := vtable.ScalarAt(ctx, sparse.Values(Patches(a)), mustPatchPos(a, i))
		if err != nil {
			panic(err)
		}
		return s.AsFloat64()
	}
	return float64(PackedValueAt(a, i))
}

func mustPatchPos(a *array.Array, i int) int {
	pos, _ := sparse.SearchIndex(Patches(a), i)
	return pos
}

func packWidth(vals []uint64, width int) []byte {
	buf := make([]byte, (len(vals)*width+7)/8)
	bitPos := 0
	for _, v := range vals {
		for b := 0; b < width; b++ {
			if v&(1<<uint(b)) != 0 {
				buf[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	return buf
}

func unpackAt(buf []byte, width, i int) uint64 {
	var v uint64
	base := i * width
	for b := 0; b < width; b++ {
		bitPos := base + b
		if buf[bitPos/8]&(1<<uint(bitPos%8)) != 0 {
			v |= 1 << uint(b)
		}
	}
	return v
}
