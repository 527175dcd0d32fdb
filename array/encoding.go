package array

// EncodingID is a stable 16-bit code that resolves to a vtable in the
// process-global encoding Context (see package vtable). IDs below 100 are
// reserved for the canonical encodings — the unique physical form each
// DType kind maps to for Arrow interop (spec §3, "Canonical forms").
type EncodingID uint16

const (
	EncodingNull EncodingID = iota
	EncodingBool
	EncodingPrimitive
	EncodingVarBinView
	EncodingStruct
	EncodingList
	EncodingExtension
)

const (
	// Non-canonical physical encodings start at 100 so a quick range check
	// tells canonical from compressed without a registry lookup.
	EncodingChunked EncodingID = 100 + iota
	EncodingSparse
	EncodingBitPacked
	EncodingFSST
	EncodingALP
	EncodingRoaringBool
)

var encodingNames = map[EncodingID]string{
	EncodingNull:        "null",
	EncodingBool:        "bool",
	EncodingPrimitive:   "primitive",
	EncodingVarBinView:  "varbinview",
	EncodingStruct:      "struct",
	EncodingList:        "list",
	EncodingExtension:   "extension",
	EncodingChunked:     "chunked",
	EncodingSparse:      "sparse",
	EncodingBitPacked:   "bitpacked",
	EncodingFSST:        "fsst",
	EncodingALP:         "alp",
	EncodingRoaringBool: "roaring_bool",
}

func (e EncodingID) String() string {
	if n, ok := encodingNames[e]; ok {
		return n
	}
	return "unknown"
}

// IsCanonical reports whether this encoding ID is one of the canonical
// physical forms (spec §3).
func (e EncodingID) IsCanonical() bool {
	return e <= EncodingExtension
}
