// Package vortex ties the array model, sampling compressor, and file
// layout engine together behind a small top-level surface. Importing this
// package (rather than reaching into array/compressor/layout/encodings
// directly) guarantees every non-canonical encoding has registered itself
// into the global vtable Context, the same driver-self-registration idiom
// database/sql's blank _ imports use: callers write `import _
// "github.com/lib/pq"` for a driver, we do the same for each encodings/*
// package here so a caller never has to remember to.
package vortex

import (
	"context"
	"io"

	_ "github.com/vxdb/vortex/encodings/alp"
	_ "github.com/vxdb/vortex/encodings/bitpacked"
	_ "github.com/vxdb/vortex/encodings/chunked"
	_ "github.com/vxdb/vortex/encodings/fsst"
	_ "github.com/vxdb/vortex/encodings/roaring"
	_ "github.com/vxdb/vortex/encodings/sparse"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/compressor"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/expr"
	"github.com/vxdb/vortex/iodispatch"
	"github.com/vxdb/vortex/layout"
)

// NewCompressor builds a sampling compressor over the default encoder
// catalog (Sparse, BitPacked, FSST, ALP, RoaringBool). Pass opts to tune
// the sampling knobs described in compressor.Options' doc comment; the
// zero value picks the same defaults the teacher's sampling search ships
// with.
func NewCompressor(opts compressor.Options) *compressor.Compressor {
	return compressor.NewCompressor(compressor.DefaultCatalog(), opts)
}

// Compress runs the default compressor over a single array, with no
// "compress like this tree" hint.
func Compress(a *array.Array) (compressor.CompressedArray, error) {
	return NewCompressor(compressor.Options{}).Compress(a, nil)
}

// NewWriter opens a layout.Writer for schema over w, using the default
// writer options (zstd above 256 bytes per buffer).
func NewWriter(w io.Writer, schema dtype.DType) (*layout.Writer, error) {
	return layout.NewWriter(w, schema, layout.WriterOptions{})
}

// Open reads a Vortex file's footer from source, dispatching byte-range
// fetches through the shared process-wide iodispatch.Dispatcher (spec §5:
// "a single I/O dispatcher, shared process-wide"). sourceID distinguishes
// this source's cached ranges from every other open file's.
func Open(ctx context.Context, sourceID string, source iodispatch.Source) (*layout.Reader, error) {
	return layout.Open(ctx, sourceID, source, iodispatch.Global())
}

// Select is re-exported so callers building a query need import only this
// package and expr for predicates.
type Select = expr.Select

// RowFilter is re-exported for the same reason as Select.
type RowFilter = expr.RowFilter
