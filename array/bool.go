package array

import "github.com/vxdb/vortex/dtype"

// boolMeta is the fixed metadata struct for a canonical bool array: a
// single byte recording the validity representation.
type boolMeta struct {
	validityKind ValidityKind
}

func (m boolMeta) encode() []byte { return []byte{byte(m.validityKind)} }

func decodeBoolMeta(b []byte) boolMeta {
	if len(b) == 0 {
		return boolMeta{validityKind: NonNullable}
	}
	return boolMeta{validityKind: ValidityKind(b[0])}
}

// NewBool constructs the canonical encoding for dtype.Bool: a bit-packed
// buffer (one bit per logical element, LSB-first within each byte) and the
// array's Validity.
func NewBool(n int, bits []byte, v Validity) *Array {
	var children []*Array
	if v.Kind == ValidityDelegated {
		children = []*Array{v.Array}
	}
	meta := boolMeta{validityKind: v.Kind}
	return New(EncodingBool, dtype.Bool(v.Kind != NonNullable), n, bits, meta.encode(), children, Owned)
}

// BoolValueAt returns the logical bit at index i of a canonical bool array,
// ignoring validity (callers combine with Validity separately, matching the
// teacher's separation of "is there a value" from "what is the value").
func BoolValueAt(a *Array, i int) bool {
	byteIdx := i / 8
	bitIdx := uint(i % 8)
	if byteIdx >= len(a.buffer) {
		return false
	}
	return a.buffer[byteIdx]&(1<<bitIdx) != 0
}

// BoolValidity reconstructs the Validity descriptor for a canonical bool
// array from its metadata and trailing validity child.
func BoolValidity(a *Array) Validity {
	meta := decodeBoolMeta(a.metadata)
	switch meta.validityKind {
	case ValidityDelegated:
		return DelegatedValidity(a.children[0])
	case AllInvalid:
		return AllInvalidValidity()
	case AllValid:
		return AllValidValidity()
	default:
		return NonNullableValidity()
	}
}

// PackBools packs a []bool into the LSB-first bit-packed buffer canonical
// bool arrays use.
func PackBools(vals []bool) []byte {
	buf := make([]byte, (len(vals)+7)/8)
	for i, v := range vals {
		if v {
			buf[i/8] |= 1 << uint(i%8)
		}
	}
	return buf
}
