package array

import (
	"encoding/binary"

	"github.com/vxdb/vortex/dtype"
)

// OffsetWidth is I32 or I64, per spec invariant 4 ("Offsets are ...
// typed I32 or I64").
type OffsetWidth uint8

const (
	Offset32 OffsetWidth = iota
	Offset64
)

type listMeta struct {
	offsetWidth  OffsetWidth
	validityKind ValidityKind
}

func (m listMeta) encode() []byte { return []byte{byte(m.offsetWidth), byte(m.validityKind)} }

func decodeListMeta(b []byte) listMeta {
	if len(b) < 2 {
		return listMeta{}
	}
	return listMeta{offsetWidth: OffsetWidth(b[0]), validityKind: ValidityKind(b[1])}
}

// NewList constructs the canonical encoding for a List DType: an offsets
// buffer of length n+1 (spec invariant 3: "list offsets: length+1"), a
// values child holding the concatenated elements, and an optional trailing
// validity child.
func NewList(dt dtype.DType, n int, offsets []byte, width OffsetWidth, values *Array, v Validity) *Array {
	if dt.Kind != dtype.KindList {
		panic("array: NewList requires a list DType")
	}
	children := []*Array{values}
	if v.Kind == ValidityDelegated {
		children = append(children, v.Array)
	}
	meta := listMeta{offsetWidth: width, validityKind: v.Kind}
	return New(EncodingList, dt, n, offsets, meta.encode(), children, Owned)
}

func ListValues(a *Array) *Array { return a.children[0] }

func ListOffsetAt(a *Array, i int) int64 {
	meta := decodeListMeta(a.metadata)
	if meta.offsetWidth == Offset64 {
		return int64(binary.LittleEndian.Uint64(a.buffer[i*8:]))
	}
	return int64(int32(binary.LittleEndian.Uint32(a.buffer[i*4:])))
}

func ListValidity(a *Array) Validity {
	meta := decodeListMeta(a.metadata)
	switch meta.validityKind {
	case ValidityDelegated:
		return DelegatedValidity(a.children[1])
	case AllInvalid:
		return AllInvalidValidity()
	case AllValid:
		return AllValidValidity()
	default:
		return NonNullableValidity()
	}
}

// EncodeOffsets32/64 build an offsets buffer from logical lengths.
func EncodeOffsets32(lengths []int) []byte {
	buf := make([]byte, (len(lengths)+1)*4)
	var cum uint32
	binary.LittleEndian.PutUint32(buf[0:4], 0)
	for i, l := range lengths {
		cum += uint32(l)
		binary.LittleEndian.PutUint32(buf[(i+1)*4:], cum)
	}
	return buf
}
