package compressor

import (
	"fmt"
	"math/rand"
	"reflect"

	logging "github.com/ipfs/go-log/v2"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vtable"
)

var log = logging.Logger("vortex/compressor")

// Options configures a Compressor. All fields have Open-Question defaults
// (spec §4.2 decision 1) and are safe to leave zero; Compressor fills them
// in via NewCompressor.
type Options struct {
	// WindowCount is k, the number of sample windows. Default 16.
	WindowCount int
	// SampleLen is s, the total sampled element count. Default
	// int(sqrt(n))*8, computed per-array since it depends on n.
	SampleLen func(n int) int
	// SampleThreshold is the length below which the whole array is used.
	// Default 1<<16.
	SampleThreshold int
	// DepthBudget bounds recursion. Default 3.
	DepthBudget int
	// Seed seeds the sample RNG. The sampler always uses an explicit
	// *rand.Rand derived from this seed, never the global math/rand
	// source, so two compressors built with the same seed and catalog are
	// deterministic (spec §4.2 "Determinism"). Default 0.
	Seed int64
	// SkipVerify disables the post-compression canonicalize-and-compare
	// check (spec §4.2 "Composition rules": "the final compressed tree is
	// verified"). Verification runs by default; set this for large inputs
	// where the element-by-element walk is too costly to repeat on every
	// compress call.
	SkipVerify bool
}

func (o Options) withDefaults() Options {
	if o.WindowCount == 0 {
		o.WindowCount = DefaultWindowCount
	}
	if o.SampleLen == nil {
		o.SampleLen = DefaultSampleLen
	}
	if o.SampleThreshold == 0 {
		o.SampleThreshold = DefaultSampleThreshold
	}
	if o.DepthBudget == 0 {
		o.DepthBudget = DefaultDepthBudget
	}
	return o
}

// Compressor runs the sampling search described in spec §4.2. A Compressor
// value also doubles as the "recursion context" an Encoder recurses
// through for its children (ctx.Named / ctx.Auxiliary in the teacher
// source), carrying the same catalog/options/RNG but a decremented depth
// and a path label used only for logging.
type Compressor struct {
	catalog []Encoder
	opts    Options
	rng     *rand.Rand
	depth   int
	path    string
	verify  bool
}

// NewCompressor builds a root Compressor with the given candidate catalog.
func NewCompressor(catalog []Encoder, opts Options) *Compressor {
	opts = opts.withDefaults()
	return &Compressor{
		catalog: catalog,
		opts:    opts,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		depth:   opts.DepthBudget,
		path:    "$",
		verify:  !opts.SkipVerify,
	}
}

// Named returns a child context for a uniquely-identified child (e.g.
// FSST's dictionary), one depth level down.
func (c *Compressor) Named(name string) *Compressor {
	return c.child(name)
}

// Auxiliary returns a child context for a structural sidecar (e.g.
// Sparse's indices vs values), one depth level down. Distinguished from
// Named only by the path label, so an encoder catalog may special-case
// auxiliary children by inspecting path via Compressor.Path if it chooses
// to bias encoder selection for index-shaped data.
func (c *Compressor) Auxiliary(name string) *Compressor {
	return c.child("~" + name)
}

func (c *Compressor) child(label string) *Compressor {
	return &Compressor{
		catalog: c.catalog,
		opts:    c.opts,
		rng:     c.rng,
		depth:   c.depth - 1,
		path:    c.path + "/" + label,
		verify:  false, // only the root verifies the assembled tree
	}
}

// Path returns this context's slash-separated recursion path, for logging or for an
// encoder that wants to bias its behavior on whether it's reached via a
// named or auxiliary child.
func (c *Compressor) Path() string { return c.path }

// Depth returns the remaining recursion budget.
func (c *Compressor) Depth() int { return c.depth }

// Compress runs the sampling search on a (spec §4.2, steps 1-4) and
// returns the full-array compressed form with its assembled tree.
func (c *Compressor) Compress(a *array.Array, like *CompressionTree) (CompressedArray, error) {
	result, err := c.compress(a, like)
	if err != nil {
		return CompressedArray{}, err
	}
	if c.verify {
		if err := c.verifyRoundTrip(a, result.Array); err != nil {
			return CompressedArray{}, err
		}
	}
	return result, nil
}

func (c *Compressor) compress(a *array.Array, like *CompressionTree) (CompressedArray, error) {
	baseline := CompressedArray{Array: a, Tree: Flat(a.EncodingID())}
	if c.depth <= 0 {
		return baseline, nil
	}

	sample, err := Sample(c.rng, a, c.opts.WindowCount, c.opts.SampleLen(a.Len()), c.opts.SampleThreshold)
	if err != nil {
		return CompressedArray{}, err
	}

	var best Encoder
	var bestSample CompressedArray
	// Baseline must be measured on the same sample candidates are scored
	// on (spec §4.2 step 3, "when no encoder beats the canonical
	// baseline"): scoring it from the full array would compare a
	// full-size canonical byte count against sample-size candidate byte
	// counts, favoring an encoder whenever the sample is smaller than a,
	// regardless of whether it actually wins on the full array.
	bestScore := score(nbytesOf(sample), 0) // baseline score at cost 0
	for _, enc := range c.catalog {
		if !enc.CanCompress(sample) {
			continue
		}
		compressed, err := enc.Compress(sample, like, c)
		if err != nil {
			log.Debugw("sample compress failed", "encoding", enc.ID().String(), "path", c.path, "err", err)
			continue
		}
		s := score(nbytesOf(compressed.Array), enc.Cost())
		if s < bestScore {
			bestScore = s
			best = enc
			bestSample = compressed
		}
	}

	if best == nil {
		return baseline, nil
	}
	// spec §4.2 "Composition rules": refuse an encoder whose can_compress
	// rejects the full array even if it won on the sample.
	if !best.CanCompress(a) {
		return baseline, nil
	}

	// Apply with the sample-derived recipe as the `like` hint, not the
	// recipe this node itself was reached through: it is the winning
	// encoder's own sample-pass tree (e.g. FSST's dictionary, ALP's
	// exponent) that the full-array pass should reuse rather than
	// recompute from scratch (spec §4.2, "apply … with its sample-derived
	// like").
	result, err := best.Compress(a, bestSample.Tree, c)
	if err != nil {
		return CompressedArray{}, err
	}
	return result, nil
}

// verifyRoundTrip canonicalizes compressed and checks it matches original
// element-for-element, within the dtype's equality relation (spec §4.2
// "Composition rules").
func (c *Compressor) verifyRoundTrip(original, compressed *array.Array) error {
	ctx := vtable.GlobalContext()
	wantCanon, err := vtable.Canonicalize(ctx, original)
	if err != nil {
		return err
	}
	gotCanon, err := vtable.Canonicalize(ctx, compressed)
	if err != nil {
		return err
	}
	if wantCanon.Len() != gotCanon.Len() {
		return fmt.Errorf("compressor: verify failed, length %d != %d", gotCanon.Len(), wantCanon.Len())
	}
	for i := 0; i < wantCanon.Len(); i++ {
		want, err := vtable.ScalarAt(ctx, wantCanon, i)
		if err != nil {
			return err
		}
		got, err := vtable.ScalarAt(ctx, gotCanon, i)
		if err != nil {
			return err
		}
		if !scalarsEqual(want, got) {
			return fmt.Errorf("compressor: verify failed at index %d: %v != %v", i, want, got)
		}
	}
	return nil
}

func scalarsEqual(a, b dtype.Scalar) bool {
	if a.IsValid() != b.IsValid() {
		return false
	}
	if !a.IsValid() {
		return true
	}
	return reflect.DeepEqual(a.Value, b.Value)
}
