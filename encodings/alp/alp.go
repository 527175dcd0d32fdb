// Package alp stands in for Vortex's ALP floating-point encoding. The
// spec excludes the concrete bit-level algorithm of individual codecs
// (spec §1 Non-goals), so this satisfies the same Encoder/vtable contract —
// a per-array power-of-ten scale factor turning floats into integers, with
// an exceptions sidecar for values that don't round-trip exactly — rather
// than ALP-RD's actual bit-cutting scheme (grounded on the `Encoder` trait
// shape in vortex-sampling-compressor/src/compressors/alp_rd.rs,
// original_source).
package alp

import (
	"encoding/binary"
	"math"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/encodings/sparse"
	"github.com/vxdb/vortex/vtable"
)

func init() {
	vtable.GlobalContext().Register(alpVTable{
		BaseVTable: vtable.BaseVTable{EncID: array.EncodingALP, Name: "alp"},
	})
}

// BestExponent picks the smallest exponent e in [0, maxExp] such that every
// value lies within 1e-6 of a multiple of 10^-e (|v*10^e - round(v*10^e)| <=
// 1e-6*10^e), and returns maxExp when no exponent satisfies all values —
// the encoder's can_compress pre-filter in spec §4.2 terms.
func BestExponent(vals []float64, maxExp int) int {
	for e := 0; e <= maxExp; e++ {
		scale := math.Pow10(e)
		ok := true
		for _, v := range vals {
			if math.Abs(v*scale-math.Round(v*scale)) > 1e-6*scale {
				ok = false
				break
			}
		}
		if ok {
			return e
		}
	}
	return maxExp
}

// Encode packs vals as round(v * 10^exponent) int64 values, recording any
// value whose round trip isn't exact as an exception in a Sparse sidecar
// holding the original float.
func Encode(vals []float64, exponent int, v array.Validity) *array.Array {
	n := len(vals)
	scale := math.Pow10(exponent)
	ints := make([]int64, n)
	var excIdx []float64
	var excVal []float64
	for i, f := range vals {
		r := math.Round(f * scale)
		ints[i] = int64(r)
		if math.Abs(r/scale-f) > 1e-9 {
			excIdx = append(excIdx, float64(i))
			excVal = append(excVal, f)
		}
	}
	var buf []byte
	for _, iv := range ints {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(iv))
		buf = append(buf, b[:]...)
	}

	var exceptions *array.Array
	if len(excIdx) > 0 {
		var idxBuf []byte
		for _, x := range excIdx {
			idxBuf = array.PutPrimitiveFloat64(idxBuf, dtype.I64, x)
		}
		idxArr := array.NewPrimitive(dtype.I64, len(excIdx), idxBuf, array.NonNullableValidity())
		var valBuf []byte
		for _, x := range excVal {
			valBuf = array.PutPrimitiveFloat64(valBuf, dtype.F64, x)
		}
		valArr := array.NewPrimitive(dtype.F64, len(excVal), valBuf, array.NonNullableValidity())
		exceptions = sparse.New(dtype.Primitive(dtype.F64, false), n, idxArr, valArr, 0, dtype.NewPrimitive(dtype.F64, 0.0, false))
	} else {
		emptyIdx := array.NewPrimitive(dtype.I64, 0, nil, array.NonNullableValidity())
		emptyVal := array.NewPrimitive(dtype.F64, 0, nil, array.NonNullableValidity())
		exceptions = sparse.New(dtype.Primitive(dtype.F64, false), n, emptyIdx, emptyVal, 0, dtype.NewPrimitive(dtype.F64, 0.0, false))
	}

	children := []*array.Array{exceptions}
	if v.Kind == array.ValidityDelegated {
		children = append(children, v.Array)
	}
	meta := []byte{byte(exponent), byte(v.Kind)}
	return array.New(array.EncodingALP, dtype.Primitive(dtype.F64, v.Kind != array.NonNullable), n, buf, meta, children, array.Owned)
}

func Exponent(a *array.Array) int { return int(a.Metadata()[0]) }

func Exceptions(a *array.Array) *array.Array { return a.Child(0) }

func IntAt(a *array.Array, i int) int64 {
	return int64(binary.LittleEndian.Uint64(a.Buffer()[i*8:]))
}

func ValueAt(a *array.Array, i int) float64 {
	if _, found := sparse.SearchIndex(Exceptions(a), i); found {
		ctx := vtable.GlobalContext()
		s, err := vtable.ScalarAt(ctx, sparse.Values(Exceptions(a)), mustExcPos(a, i))
		if err != nil {
			panic(err)
		}
		return s.AsFloat64()
	}
	return float64(IntAt(a, i)) / math.Pow10(Exponent(a))
}

func mustExcPos(a *array.Array, i int) int {
	pos, _ := sparse.SearchIndex(Exceptions(a), i)
	return pos
}

func Validity(a *array.Array) array.Validity {
	kind := array.ValidityKind(a.Metadata()[1])
	switch kind {
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
