package compressor

import (
	"math"
	"math/rand"
	"sort"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
)

// DefaultWindowCount is the default k (spec §4.2, Open Question decision 1).
const DefaultWindowCount = 16

// DefaultSampleThreshold is the length below which the whole array is used
// instead of sampling (spec §4.2 step 1: "If N <= sample_threshold, use the
// whole array").
const DefaultSampleThreshold = 1 << 16

// DefaultSampleLen returns s = int(sqrt(n)) * 8, the Open Question default.
func DefaultSampleLen(n int) int {
	return int(math.Sqrt(float64(n))) * 8
}

// Sample draws k disjoint windows covering a total of s elements from a,
// in ascending order of position, and concatenates them into a single
// array via vtable.Slice plus concat (per-element ScalarAt rebuilt with
// array.BuildFromScalars). Window i starts at a random offset inside the
// i-th of k equal strides of a, so windows never overlap. If a.Len() <=
// sampleThreshold or s >= a.Len(), a itself is returned unsampled.
func Sample(rng *rand.Rand, a *array.Array, k, s, sampleThreshold int) (*array.Array, error) {
	n := a.Len()
	if n <= sampleThreshold || s >= n {
		return a, nil
	}
	if k <= 0 {
		k = 1
	}
	if k > n {
		k = n
	}
	windowLen := s / k
	if windowLen == 0 {
		windowLen = 1
	}

	stride := n / k
	slack := stride - windowLen
	if slack < 0 {
		slack = 0
	}
	starts := make([]int, 0, k)
	for i := 0; i < k; i++ {
		starts = append(starts, i*stride+rng.Intn(slack+1))
	}
	sort.Ints(starts)

	ctx := vtable.GlobalContext()
	var windows []*array.Array
	for _, start := range starts {
		end := start + windowLen
		if end > n {
			end = n
		}
		w, err := vtable.Slice(ctx, a, start, end)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return concat(ctx, windows)
}

// concat flattens a sequence of same-dtype arrays into one, by walking
// every element's scalar and rebuilding — the same generic, dtype-agnostic
// path array.BuildFromScalars already gives Chunked.Canonicalize.
func concat(ctx *vtable.Context, parts []*array.Array) (*array.Array, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	dt := parts[0].DType()
	var scalars []dtype.Scalar
	for _, part := range parts {
		for i := 0; i < part.Len(); i++ {
			s, err := vtable.ScalarAt(ctx, part, i)
			if err != nil {
				return nil, err
			}
			scalars = append(scalars, s)
		}
	}
	return array.BuildFromScalars(dt, scalars), nil
}
