package layout

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/expr"
	"github.com/vxdb/vortex/iodispatch"
	"github.com/vxdb/vortex/vtable"
	"github.com/vxdb/vortex/vxerr"
)

// footerFetchBytes is N in "fetch the last N bytes" (spec §4.3, reader
// phase 1): large enough to usually capture the entire footer in one I/O
// for modest schemas, small enough not to waste bandwidth on tiny files.
const footerFetchBytes = 1 << 16

// Reader implements the three-phase read plan spec §4.3 describes:
// initial read, plan (splits + projection/filter), execute (per-range
// filter/read), emit (row-batches).
type Reader struct {
	sourceID   string
	source     iodispatch.Source
	dispatcher *iodispatch.Dispatcher
	footer     *Footer
	schema     *LazyDType
	cache      *MessageCache
}

// Open fetches and parses a file's footer (spec §4.3, phase 1: "Initial
// read").
func Open(ctx context.Context, sourceID string, source iodispatch.Source, dispatcher *iodispatch.Dispatcher) (*Reader, error) {
	size := source.Size()
	fetchLen := int64(footerFetchBytes)
	if fetchLen > size {
		fetchLen = size
	}
	tail, err := dispatcher.Fetch(ctx, sourceID, source, size-fetchLen, fetchLen)
	if err != nil {
		return nil, err
	}
	footer, err := decodeFooter(tail)
	if err != nil {
		return nil, err
	}
	return &Reader{
		sourceID:   sourceID,
		source:     source,
		dispatcher: dispatcher,
		footer:     footer,
		schema:     NewLazyDType(footer.DType),
		cache:      NewMessageCache(),
	}, nil
}

// Schema resolves the file's root dtype.
func (r *Reader) Schema() (dtype.DType, error) { return r.schema.Resolve() }

// rootLayout unwraps the file-root Inline node to the Chunked layout it
// carries.
func (r *Reader) rootLayout() *Node {
	n := r.footer.Root
	for n.Kind == Inline {
		n = n.Inline
	}
	return n
}

// Read executes the full plan/execute/emit pipeline (spec §4.3, steps
// 2-4) and returns one row-batch per surviving atomic range (batches with
// an all-false mask are omitted entirely, per "short-circuit a range").
// Either selection or filter may be nil (no projection narrowing / no row
// filter).
func (r *Reader) Read(ctx context.Context, selection *expr.Select, filter *expr.RowFilter) ([]*array.Array, error) {
	schema, err := r.Schema()
	if err != nil {
		return nil, err
	}
	projected := schema.StructNames
	if selection != nil {
		projected = selection.Apply(schema)
	}

	var filterFields []string
	if filter != nil {
		filterFields = filter.ReferencedFields()
	}
	needed := unionFields(projected, filterFields)

	root := r.rootLayout()
	ranges := atomicRanges(root.Splits())

	results := make([]*array.Array, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for i, rg := range ranges {
		i, rg := i, rg
		g.Go(func() error {
			batch, err := r.executeRange(gctx, root, rg, needed, projected, filter)
			if err != nil {
				return err
			}
			results[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, b := range results {
		if b != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

// executeRange runs spec §4.3 step 3 for one atomic row range: read the
// fields the filter needs, evaluate and AND-combine per-conjunct masks
// (null-as-false, all-false short-circuit), then read the projected
// columns restricted to the surviving mask.
func (r *Reader) executeRange(ctx context.Context, root *Node, rg [2]int64, needed, projected []string, filter *expr.RowFilter) (*array.Array, error) {
	chunkIdx, localLo, localHi := locateChunk(root, rg)
	chunkNode := root.Children[chunkIdx]

	neededCols, err := r.readFields(ctx, chunkNode, chunkIdx, needed, int(localLo), int(localHi))
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*array.Array, len(neededCols))
	for i, name := range needed {
		byName[name] = neededCols[i]
	}

	rowCount := int(localHi - localLo)
	globalCtx := vtable.GlobalContext()

	var mask *vtable.FilterMask
	if filter != nil && len(filter.Conjuncts) > 0 {
		filterBatch := structOf(needed, neededCols)
		mask, err = filter.OnlyFields(needed).Evaluate(globalCtx, filterBatch)
		if err != nil {
			return nil, err
		}
		if mask.AllFalse() {
			return nil, nil
		}
	}

	projectedCols := make([]*array.Array, len(projected))
	for i, name := range projected {
		col, ok := byName[name]
		if !ok {
			return nil, vxerr.NewInvalidArgument("layout.Read", "projected field %q not found in schema", name)
		}
		if mask != nil {
			col, err = vtable.Filter(globalCtx, col, mask)
			if err != nil {
				return nil, err
			}
		}
		projectedCols[i] = col
	}

	batchLen := rowCount
	if mask != nil {
		batchLen = mask.TrueCount()
	}
	dt := projectedStructDType(projected, projectedCols)
	return array.NewStruct(dt, batchLen, projectedCols, array.NonNullableValidity()), nil
}

// readFields resolves every name in fields to a (cached, decoded, sliced)
// array for one chunk.
func (r *Reader) readFields(ctx context.Context, chunkNode *Node, chunkIdx int, fields []string, lo, hi int) ([]*array.Array, error) {
	out := make([]*array.Array, len(fields))
	for i, name := range fields {
		idx := indexOf(chunkNode.FieldNames, name)
		if idx < 0 {
			return nil, vxerr.NewInvalidArgument("layout.readFields", "no such field %q", name)
		}
		col, err := r.readField(ctx, chunkNode, chunkIdx, idx, lo, hi)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

// readField materializes one chunk's field, through the per-query message
// cache, then slices it to the requested local range.
func (r *Reader) readField(ctx context.Context, chunkNode *Node, chunkIdx, fieldIdx, lo, hi int) (*array.Array, error) {
	path := fmt.Sprintf("chunk[%d].field[%d]", chunkIdx, fieldIdx)
	v, err := r.cache.GetOrCompute(path, 0, func() (any, error) {
		return r.buildArrayFromHeader(ctx, chunkNode.Children[fieldIdx].Header)
	})
	if err != nil {
		return nil, err
	}
	full := v.(*array.Array)
	if lo == 0 && hi == full.Len() {
		return full, nil
	}
	return vtable.Slice(vtable.GlobalContext(), full, lo, hi)
}

// buildArrayFromHeader reconstructs an *array.Array from a serialized
// ArrayHeader, fetching and decompressing its own buffer (if any) through
// the dispatcher and recursing depth-first into children.
func (r *Reader) buildArrayFromHeader(ctx context.Context, h *ArrayHeader) (*array.Array, error) {
	children := make([]*array.Array, len(h.Children))
	for i := range h.Children {
		c, err := r.buildArrayFromHeader(ctx, &h.Children[i])
		if err != nil {
			return nil, err
		}
		children[i] = c
	}
	dt, err := DecodeDType(h.DType)
	if err != nil {
		return nil, err
	}

	var buf []byte
	if h.Buffer != nil {
		raw, err := r.dispatcher.Fetch(ctx, r.sourceID, r.source, h.Buffer.Offset, h.Buffer.Length)
		if err != nil {
			return nil, err
		}
		if h.Compressed {
			buf, err = decompressZSTD(raw, h.UncompressedLength)
			if err != nil {
				return nil, err
			}
		} else {
			buf = raw
		}
	}
	return array.New(h.Encoding, dt, h.Length, buf, h.Metadata, children, array.Owned), nil
}

// locateChunk finds the chunk a global atomic range falls entirely within
// (guaranteed by construction: Node.Splits includes every RowOffsets
// boundary) and returns the chunk index plus the range's chunk-local
// bounds.
func locateChunk(root *Node, rg [2]int64) (idx int, lo, hi int64) {
	offsets := root.RowOffsets
	i := sort.Search(len(offsets), func(i int) bool { return offsets[i] > rg[0] }) - 1
	if i < 0 {
		i = 0
	}
	return i, rg[0] - offsets[i], rg[1] - offsets[i]
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func unionFields(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, f := range a {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range b {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func projectedStructDType(names []string, cols []*array.Array) dtype.DType {
	types := make([]dtype.DType, len(cols))
	for i, c := range cols {
		types[i] = c.DType()
	}
	return dtype.Struct(names, types, false)
}

func structOf(names []string, cols []*array.Array) *array.Array {
	n := 0
	if len(cols) > 0 {
		n = cols[0].Len()
	}
	return array.NewStruct(projectedStructDType(names, cols), n, cols, array.NonNullableValidity())
}
