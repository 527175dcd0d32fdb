package array

import (
	"encoding/binary"
	"math"

	"github.com/vxdb/vortex/dtype"
)

type primitiveMeta struct {
	ptype        dtype.PType
	validityKind ValidityKind
}

func (m primitiveMeta) encode() []byte { return []byte{byte(m.ptype), byte(m.validityKind)} }

func decodePrimitiveMeta(b []byte) primitiveMeta {
	if len(b) < 2 {
		return primitiveMeta{}
	}
	return primitiveMeta{ptype: dtype.PType(b[0]), validityKind: ValidityKind(b[1])}
}

// NewPrimitive constructs the canonical encoding for a fixed-width
// primitive DType: little-endian packed elements and the array's Validity.
func NewPrimitive(pt dtype.PType, n int, buf []byte, v Validity) *Array {
	var children []*Array
	if v.Kind == ValidityDelegated {
		children = []*Array{v.Array}
	}
	meta := primitiveMeta{ptype: pt, validityKind: v.Kind}
	return New(EncodingPrimitive, dtype.Primitive(pt, v.Kind != NonNullable), n, buf, meta.encode(), children, Owned)
}

func PrimitivePType(a *Array) dtype.PType { return decodePrimitiveMeta(a.metadata).ptype }

func PrimitiveValidity(a *Array) Validity {
	meta := decodePrimitiveMeta(a.metadata)
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

// PrimitiveFloat64At decodes element i as a float64 regardless of its
// stored width, for use in comparisons, stats, and compressor cost
// heuristics. Panics on an out-of-range index.
func PrimitiveFloat64At(a *Array, i int) float64 {
	pt := PrimitiveyPTypeOrPanic(a)
	w := pt.ByteWidth()
	off := i * w
	buf := a.buffer[off : off+w]
	switch pt {
	case dtype.U8:
		return float64(buf[0])
	case dtype.I8:
		return float64(int8(buf[0]))
	case dtype.U16:
		return float64(binary.LittleEndian.Uint16(buf))
	case dtype.I16:
		return float64(int16(binary.LittleEndian.Uint16(buf)))
	case dtype.U32:
		return float64(binary.LittleEndian.Uint32(buf))
	case dtype.I32:
		return float64(int32(binary.LittleEndian.Uint32(buf)))
	case dtype.U64:
		return float64(binary.LittleEndian.Uint64(buf))
	case dtype.I64:
		return float64(int64(binary.LittleEndian.Uint64(buf)))
	case dtype.F32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	case dtype.F64:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf))
	case dtype.F16:
		return f16ToFloat64(binary.LittleEndian.Uint16(buf))
	default:
		return 0
	}
}

func PrimitiveyPTypeOrPanic(a *Array) dtype.PType {
	if a.EncodingID() != EncodingPrimitive {
		panic("array: PrimitiveFloat64At requires a canonical primitive array")
	}
	return PrimitivePType(a)
}

// PutPrimitiveFloat64 encodes v into the canonical little-endian
// representation for pt, appending to buf.
func PutPrimitiveFloat64(buf []byte, pt dtype.PType, v float64) []byte {
	switch pt {
	case dtype.U8:
		return append(buf, byte(uint8(v)))
	case dtype.I8:
		return append(buf, byte(int8(v)))
	case dtype.U16:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		return append(buf, b[:]...)
	case dtype.I16:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(int16(v)))
		return append(buf, b[:]...)
	case dtype.U32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		return append(buf, b[:]...)
	case dtype.I32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(int32(v)))
		return append(buf, b[:]...)
	case dtype.U64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		return append(buf, b[:]...)
	case dtype.I64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(int64(v)))
		return append(buf, b[:]...)
	case dtype.F32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(v)))
		return append(buf, b[:]...)
	case dtype.F64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		return append(buf, b[:]...)
	case dtype.F16:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], float64ToF16(v))
		return append(buf, b[:]...)
	default:
		return buf
	}
}

// f16ToFloat64/float64ToF16 implement IEEE 754 binary16 conversion. Vortex
// treats NaN payloads as opaque (spec §8 "Chunked filter with fp16 NaNs"
// requires NaN bit patterns to survive filtering unchanged), so these only
// need to round-trip through float64 faithfully for non-NaN values and
// preserve the NaN-ness (not the exact payload) for NaN values passed
// through PrimitiveFloat64At; callers that must preserve raw NaN bit
// patterns exactly should copy the 2-byte buffer directly instead of
// going through float64.
func f16ToFloat64(bits uint16) float64 {
	sign := uint32(bits>>15) & 0x1
	exp := uint32(bits>>10) & 0x1f
	frac := uint32(bits) & 0x3ff
	var f32bits uint32
	switch exp {
	case 0:
		if frac == 0 {
			f32bits = sign << 31
		} else {
			// Subnormal: normalize.
			for frac&0x400 == 0 {
				frac <<= 1
				exp--
			}
			exp++
			frac &= 0x3ff
			f32bits = (sign << 31) | ((exp + (127 - 15)) << 23) | (frac << 13)
		}
	case 0x1f:
		f32bits = (sign << 31) | (0xff << 23) | (frac << 13)
		if frac != 0 {
			f32bits |= 1 << 22 // quiet NaN
		}
	default:
		f32bits = (sign << 31) | ((exp + (127 - 15)) << 23) | (frac << 13)
	}
	return float64(math.Float32frombits(f32bits))
}

func float64ToF16(v float64) uint16 {
	f32 := math.Float32bits(float32(v))
	sign := uint16((f32 >> 16) & 0x8000)
	exp := int32((f32>>23)&0xff) - 127 + 15
	frac := f32 & 0x7fffff
	switch {
	case exp <= 0:
		// Half-precision subnormal; magnitudes below its range shift to zero.
		return sign | uint16((frac|0x800000)>>uint(14-exp))
	case exp >= 0x1f:
		if frac != 0 {
			return sign | 0x7e00 // NaN
		}
		return sign | 0x7c00 // Inf
	default:
		return sign | uint16(exp<<10) | uint16(frac>>13)
	}
}
