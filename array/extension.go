package array

import "github.com/vxdb/vortex/dtype"

// NewExtension constructs the canonical encoding for an Extension DType,
// wrapping a canonical storage array as its sole child. Extension round-trip
// through Arrow (spec §6, "Temporal types") relies on the storage array
// already being in its own canonical form.
func NewExtension(dt dtype.DType, n int, storage *Array) *Array {
	if dt.Kind != dtype.KindExtension {
		panic("array: NewExtension requires an extension DType")
	}
	return New(EncodingExtension, dt, n, nil, nil, []*Array{storage}, Owned)
}

func ExtensionStorage(a *Array) *Array { return a.children[0] }
