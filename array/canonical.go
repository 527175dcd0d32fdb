package array

import "github.com/vxdb/vortex/dtype"

// CanonicalEncodingFor returns the unique physical encoding ID that is
// canonical for the given DType kind (spec §3, "Canonical forms").
func CanonicalEncodingFor(k dtype.Kind) EncodingID {
	switch k {
	case dtype.KindNull:
		return EncodingNull
	case dtype.KindBool:
		return EncodingBool
	case dtype.KindPrimitive:
		return EncodingPrimitive
	case dtype.KindUtf8, dtype.KindBinary:
		return EncodingVarBinView
	case dtype.KindStruct:
		return EncodingStruct
	case dtype.KindList:
		return EncodingList
	case dtype.KindExtension:
		return EncodingExtension
	default:
		return EncodingNull
	}
}

// IsCanonicalForm reports whether a is already in the canonical encoding
// for its own dtype — canonicalization must be idempotent on such arrays
// (spec §4.1).
func IsCanonicalForm(a *Array) bool {
	return a.EncodingID() == CanonicalEncodingFor(a.DType().Kind)
}
