package array

import (
	"encoding/binary"

	"github.com/vxdb/vortex/dtype"
)

// A view is the 16-byte "German string" descriptor: a 4-byte length
// followed by either 12 inline bytes (length <= inlineLen) or a 4-byte
// prefix plus a 4-byte data-buffer index and 4-byte offset into it.
const viewSize = 16
const inlineLen = 12

type varBinMeta struct {
	isUtf8       bool
	validityKind ValidityKind
}

func (m varBinMeta) encode() []byte {
	b := byte(0)
	if m.isUtf8 {
		b = 1
	}
	return []byte{b, byte(m.validityKind)}
}

func decodeVarBinMeta(b []byte) varBinMeta {
	if len(b) < 2 {
		return varBinMeta{}
	}
	return varBinMeta{isUtf8: b[0] == 1, validityKind: ValidityKind(b[1])}
}

// NewVarBinView constructs the canonical encoding for Utf8/Binary: a views
// buffer (spec §3, "German-string views") plus one or more backing data
// buffers, represented here as a single concatenated data child (children[0])
// for simplicity — multi-buffer views are a storage optimization this
// implementation does not need to expose.
func NewVarBinView(isUtf8 bool, n int, views []byte, data []byte, v Validity) *Array {
	dataArr := New(EncodingPrimitive, dtype.Primitive(dtype.U8, false), len(data), data, primitiveMeta{ptype: dtype.U8}.encode(), nil, Owned)
	children := []*Array{dataArr}
	if v.Kind == ValidityDelegated {
		children = append(children, v.Array)
	}
	dt := dtype.Binary(v.Kind != NonNullable)
	if isUtf8 {
		dt = dtype.Utf8(v.Kind != NonNullable)
	}
	meta := varBinMeta{isUtf8: isUtf8, validityKind: v.Kind}
	return New(EncodingVarBinView, dt, n, views, meta.encode(), children, Owned)
}

func VarBinValidity(a *Array) Validity {
	meta := decodeVarBinMeta(a.metadata)
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

// EncodeView builds one 16-byte view descriptor for a value stored at
// byte offset off within the single data buffer.
func EncodeView(value []byte, off uint32) [viewSize]byte {
	var v [viewSize]byte
	binary.LittleEndian.PutUint32(v[0:4], uint32(len(value)))
	if len(value) <= inlineLen {
		copy(v[4:4+len(value)], value)
		return v
	}
	copy(v[4:8], value[:4]) // prefix
	binary.LittleEndian.PutUint32(v[8:12], 0)
	binary.LittleEndian.PutUint32(v[12:16], off)
	return v
}

// VarBinBytesAt decodes the logical value at index i of a canonical
// VarBinView array, reading through its data child when the value isn't
// inlined.
func VarBinBytesAt(a *Array, i int) []byte {
	off := i * viewSize
	v := a.buffer[off : off+viewSize]
	length := binary.LittleEndian.Uint32(v[0:4])
	if length <= inlineLen {
		return append([]byte(nil), v[4:4+length]...)
	}
	dataOff := binary.LittleEndian.Uint32(v[12:16])
	data := a.children[0].Buffer()
	return append([]byte(nil), data[dataOff:dataOff+length]...)
}

// BuildVarBinView concatenates vals into a single data buffer and builds
// the corresponding views buffer, for use by constructors and compute
// kernels (filter/take/slice) that materialize a new VarBinView array.
func BuildVarBinView(vals [][]byte) (views []byte, data []byte) {
	views = make([]byte, 0, len(vals)*viewSize)
	data = make([]byte, 0)
	for _, val := range vals {
		var off uint32
		if len(val) > inlineLen {
			off = uint32(len(data))
			data = append(data, val...)
		}
		v := EncodeView(val, off)
		views = append(views, v[:]...)
	}
	return views, data
}
