package compressor

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/encodings/alp"
	"github.com/vxdb/vortex/encodings/bitpacked"
	"github.com/vxdb/vortex/encodings/fsst"
	"github.com/vxdb/vortex/encodings/roaring"
	"github.com/vxdb/vortex/encodings/sparse"
	"github.com/vxdb/vortex/vtable"
)

// Cost units, one per encoder: higher means the encoder needs a
// proportionally larger size win to be selected (scored in cost.go's
// score). Relative ordering follows the teacher's `constants::*_COST`
// table: structural rewrites (Sparse, BitPacked) are cheaper to apply than
// encoders that need a learned symbol table or split (FSST, ALP); Roaring
// only applies to bool arrays so its cost plays no role against the others.
const (
	sparseCost    uint8 = 4
	bitPackedCost uint8 = 8
	fsstCost      uint8 = 16
	alpCost       uint8 = 16
	roaringCost   uint8 = 8
)

func scalarsOf(a *array.Array) ([]dtype.Scalar, error) {
	ctx := vtable.GlobalContext()
	out := make([]dtype.Scalar, a.Len())
	for i := range out {
		s, err := vtable.ScalarAt(ctx, a, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// --- Sparse ---

// SparseCompressor rewrites an array dominated by one repeated value into
// a constant fill plus a sidecar of the minority positions that differ
// from it, matching the teacher's SparseCompressor
// (vortex-sampling-compressor/src/compressors/sparse.rs, original_source).
type SparseCompressor struct{}

func (SparseCompressor) ID() array.EncodingID { return array.EncodingSparse }
func (SparseCompressor) Cost() uint8          { return sparseCost }

func (SparseCompressor) CanCompress(a *array.Array) bool {
	if a.Len() == 0 {
		return false
	}
	switch a.DType().Kind {
	case dtype.KindPrimitive, dtype.KindBool, dtype.KindUtf8, dtype.KindBinary:
	default:
		return false
	}
	_, _, ok := modeFill(a)
	return ok
}

func (c SparseCompressor) Compress(a *array.Array, like *CompressionTree, ctx *Compressor) (CompressedArray, error) {
	fill, exceptions, ok := modeFill(a)
	if !ok {
		return CompressedArray{}, fmt.Errorf("compressor: sparse has no dominant fill value")
	}

	idxChild := ctx.Auxiliary("indices")
	valChild := ctx.Named("values")

	var idxBuf []byte
	for _, pos := range exceptions {
		idxBuf = array.PutPrimitiveFloat64(idxBuf, dtype.I64, float64(pos))
	}
	idxArr := array.NewPrimitive(dtype.I64, len(exceptions), idxBuf, array.NonNullableValidity())

	valScalars := make([]dtype.Scalar, len(exceptions))
	all, err := scalarsOf(a)
	if err != nil {
		return CompressedArray{}, err
	}
	for i, pos := range exceptions {
		valScalars[i] = all[pos]
	}
	dt := dtype.DType{Kind: a.DType().Kind, Nullable: a.DType().Nullable, PType: a.DType().PType}
	valArr := array.BuildFromScalars(dt, valScalars)

	idxCompressed, err := idxChild.Compress(idxArr, like.Child(0))
	if err != nil {
		return CompressedArray{}, err
	}
	valCompressed, err := valChild.Compress(valArr, like.Child(1))
	if err != nil {
		return CompressedArray{}, err
	}

	out := sparse.New(a.DType(), a.Len(), idxCompressed.Array, valCompressed.Array, 0, fill)
	return CompressedArray{
		Array: out,
		Tree: &CompressionTree{
			Encoding:   array.EncodingSparse,
			Children:   []*CompressionTree{idxCompressed.Tree, valCompressed.Tree},
			ChildNames: []string{"indices", "values"},
		},
	}, nil
}

func (SparseCompressor) UsedEncodings() map[array.EncodingID]struct{} {
	return map[array.EncodingID]struct{}{array.EncodingSparse: {}}
}

// modeFill finds the most frequent scalar value in a and returns it as the
// fill, plus the positions that differ from it. Returns ok=false if no
// value covers at least half the array (Sparse would not pay off).
func modeFill(a *array.Array) (fill dtype.Scalar, exceptions []int, ok bool) {
	ctx := vtable.GlobalContext()
	n := a.Len()
	counts := make(map[any]int, n)
	first := make(map[any]dtype.Scalar, n)
	for i := 0; i < n; i++ {
		s, err := vtable.ScalarAt(ctx, a, i)
		if err != nil {
			return dtype.Scalar{}, nil, false
		}
		key := scalarKey(s)
		counts[key]++
		if _, seen := first[key]; !seen {
			first[key] = s
		}
	}
	var bestKey any
	best := 0
	for k, c := range counts {
		if c > best {
			best, bestKey = c, k
		}
	}
	if best*2 < n {
		return dtype.Scalar{}, nil, false
	}
	fill = first[bestKey]
	for i := 0; i < n; i++ {
		s, _ := vtable.ScalarAt(ctx, a, i)
		if scalarKey(s) != bestKey {
			exceptions = append(exceptions, i)
		}
	}
	return fill, exceptions, true
}

func scalarKey(s dtype.Scalar) any {
	if !s.IsValid() {
		return nil
	}
	return fmt.Sprintf("%T:%v", s.Value, s.Value)
}

// --- BitPacked ---

// BitPackedCompressor packs a non-negative integer primitive array at the
// narrowest bit width that covers at least 90% of its values, routing the
// rest through BitPacked's patches sidecar, matching the fastlanes crate's
// width-selection tradeoff (search_sorted.rs, original_source).
type BitPackedCompressor struct{}

func (BitPackedCompressor) ID() array.EncodingID { return array.EncodingBitPacked }
func (BitPackedCompressor) Cost() uint8          { return bitPackedCost }

func (BitPackedCompressor) CanCompress(a *array.Array) bool {
	if a.DType().Kind != dtype.KindPrimitive || a.DType().PType.IsFloat() {
		return false
	}
	if a.Len() == 0 {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if array.PrimitiveFloat64At(a, i) < 0 {
			return false
		}
	}
	return true
}

func (BitPackedCompressor) Compress(a *array.Array, like *CompressionTree, ctx *Compressor) (CompressedArray, error) {
	pt := a.DType().PType
	n := a.Len()
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = array.PrimitiveFloat64At(a, i)
	}
	width := chooseBitWidth(vals, pt.ByteWidth()*8)

	validity, err := vtable.Validity(vtable.GlobalContext(), a)
	if err != nil {
		return CompressedArray{}, err
	}
	out := bitpacked.Encode(pt, vals, width, validity)
	return CompressedArray{Array: out, Tree: Flat(array.EncodingBitPacked)}, nil
}

func (BitPackedCompressor) UsedEncodings() map[array.EncodingID]struct{} {
	return map[array.EncodingID]struct{}{array.EncodingBitPacked: {}, array.EncodingSparse: {}}
}

// chooseBitWidth returns the smallest width in [1, maxWidth] such that at
// least 90% of vals fit in width bits, leaving the rest to the patches
// sidecar.
func chooseBitWidth(vals []float64, maxWidth int) int {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	p90 := sorted[(len(sorted)*9)/10]
	if p90 < 0 {
		p90 = 0
	}
	width := bits.Len64(uint64(p90))
	if width == 0 {
		width = 1
	}
	if width > maxWidth {
		width = maxWidth
	}
	return width
}

// --- FSST ---

// FSSTCompressor dictionary-encodes a string/binary array, matching
// FSST's Encoder contract as a dictionary over distinct values plus a
// per-row code (spec §1 Non-goals excludes FSST's actual symbol-table
// algorithm; see encodings/fsst package doc).
type FSSTCompressor struct{}

func (FSSTCompressor) ID() array.EncodingID { return array.EncodingFSST }
func (FSSTCompressor) Cost() uint8          { return fsstCost }

func (FSSTCompressor) CanCompress(a *array.Array) bool {
	return (a.DType().Kind == dtype.KindUtf8 || a.DType().Kind == dtype.KindBinary) && a.Len() > 0
}

func (FSSTCompressor) Compress(a *array.Array, like *CompressionTree, ctx *Compressor) (CompressedArray, error) {
	isUtf8 := a.DType().Kind == dtype.KindUtf8
	n := a.Len()
	vals := make([][]byte, n)
	for i := 0; i < n; i++ {
		vals[i] = array.VarBinBytesAt(a, i)
	}
	validity, err := vtable.Validity(vtable.GlobalContext(), a)
	if err != nil {
		return CompressedArray{}, err
	}
	out := fsst.Encode(isUtf8, vals, validity)
	return CompressedArray{Array: out, Tree: Flat(array.EncodingFSST)}, nil
}

func (FSSTCompressor) UsedEncodings() map[array.EncodingID]struct{} {
	return map[array.EncodingID]struct{}{array.EncodingFSST: {}}
}

// --- ALP ---

// ALPCompressor scales a float array by the best power-of-ten exponent
// into integers, matching ALP-RD's Encoder contract as a scale-and-
// exception scheme rather than its actual bit-cutting split (spec §1
// Non-goals; see encodings/alp package doc).
type ALPCompressor struct{}

func (ALPCompressor) ID() array.EncodingID { return array.EncodingALP }
func (ALPCompressor) Cost() uint8          { return alpCost }

func (ALPCompressor) CanCompress(a *array.Array) bool {
	return a.DType().Kind == dtype.KindPrimitive && a.DType().PType.IsFloat() && a.Len() > 0
}

func (ALPCompressor) Compress(a *array.Array, like *CompressionTree, ctx *Compressor) (CompressedArray, error) {
	n := a.Len()
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = array.PrimitiveFloat64At(a, i)
	}
	exponent := alp.BestExponent(vals, 18)
	validity, err := vtable.Validity(vtable.GlobalContext(), a)
	if err != nil {
		return CompressedArray{}, err
	}
	out := alp.Encode(vals, exponent, validity)
	return CompressedArray{Array: out, Tree: Flat(array.EncodingALP)}, nil
}

func (ALPCompressor) UsedEncodings() map[array.EncodingID]struct{} {
	return map[array.EncodingID]struct{}{array.EncodingALP: {}, array.EncodingSparse: {}}
}

// --- RoaringBool ---

// RoaringBoolCompressor run-length encodes a non-nullable bool array,
// matching RoaringBoolCompressor's can_compress gate (non-nullable Bool
// only) from vortex-sampling-compressor/src/compressors/roaring_bool.rs,
// original_source.
type RoaringBoolCompressor struct{}

func (RoaringBoolCompressor) ID() array.EncodingID { return array.EncodingRoaringBool }
func (RoaringBoolCompressor) Cost() uint8          { return roaringCost }

func (RoaringBoolCompressor) CanCompress(a *array.Array) bool {
	return a.DType().Kind == dtype.KindBool && !a.DType().Nullable && a.Len() > 0 && a.Len() <= math.MaxUint32
}

func (RoaringBoolCompressor) Compress(a *array.Array, like *CompressionTree, ctx *Compressor) (CompressedArray, error) {
	n := a.Len()
	vals := make([]bool, n)
	for i := range vals {
		vals[i] = array.BoolValueAt(a, i)
	}
	out := roaring.Encode(vals, array.NonNullableValidity())
	return CompressedArray{Array: out, Tree: Flat(array.EncodingRoaringBool)}, nil
}

func (RoaringBoolCompressor) UsedEncodings() map[array.EncodingID]struct{} {
	return map[array.EncodingID]struct{}{array.EncodingRoaringBool: {}}
}

// DefaultCatalog is the full stand-in encoder catalog, one per non-
// canonical encoding this repo implements.
func DefaultCatalog() []Encoder {
	return []Encoder{
		SparseCompressor{},
		BitPackedCompressor{},
		FSSTCompressor{},
		ALPCompressor{},
		RoaringBoolCompressor{},
	}
}
