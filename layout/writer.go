package layout

import (
	"io"

	logging "github.com/ipfs/go-log/v2"

	"github.com/vxdb/vortex/array"
	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vxerr"
)

var log = logging.Logger("vortex/layout")

// WriterOptions configures a Writer.
type WriterOptions struct {
	// CompressThreshold is the minimum buffer length, in bytes, a leaf
	// buffer must reach before the writer zstd-compresses it (spec §4.3,
	// "optionally compress"). A buffer is kept raw when compression would
	// not shrink it. Default 256.
	CompressThreshold int
}

func (o WriterOptions) withDefaults() WriterOptions {
	if o.CompressThreshold == 0 {
		o.CompressThreshold = 256
	}
	return o
}

// Writer accepts a stream of struct-typed row-chunks sharing one schema and
// emits a self-describing Vortex file (spec §4.3, "Writer"). Fields may
// already be arbitrary (possibly compressed) encodings — the writer does
// not canonicalize or compress logical values itself, only the raw bytes
// of each node's own buffer.
type Writer struct {
	w      io.Writer
	schema dtype.DType
	opts   WriterOptions

	offset     int64
	rowOffsets []int64 // cumulative row offsets, len(chunks)+1
	chunkNodes []*Node
}

// NewWriter builds a Writer for a Struct-typed schema.
func NewWriter(w io.Writer, schema dtype.DType, opts WriterOptions) (*Writer, error) {
	if schema.Kind != dtype.KindStruct {
		return nil, vxerr.NewInvalidArgument("layout.NewWriter", "schema must be a struct dtype, got %s", schema.Kind)
	}
	return &Writer{w: w, schema: schema, opts: opts.withDefaults(), rowOffsets: []int64{0}}, nil
}

// WriteChunk canonicalizes nothing by itself — chunk's fields must already
// match w.schema field-for-field — writes every leaf buffer to the data
// section, and records a Column layout node over the chunk's fields (spec
// §4.3, "For each chunk: ... emit each leaf array to the buffer section,
// and record its descriptor").
func (w *Writer) WriteChunk(chunk *array.Array) error {
	if chunk.DType().Kind != dtype.KindStruct {
		return vxerr.NewInvalidArgument("layout.WriteChunk", "chunk must be a struct array, got %s", chunk.DType().Kind)
	}
	nFields := len(w.schema.StructFields)
	if chunk.NumChildren() < nFields {
		return vxerr.NewInvalidArgument("layout.WriteChunk", "chunk has %d children, schema has %d fields", chunk.NumChildren(), nFields)
	}

	fieldNodes := make([]*Node, nFields)
	for i := 0; i < nFields; i++ {
		field := array.StructField(chunk, i)
		header, err := w.writeArrayTree(field)
		if err != nil {
			return err
		}
		fieldNodes[i] = &Node{Kind: Flat, RowCount: field.Len(), Header: header}
	}

	col := &Node{
		Kind:       Column,
		RowCount:   chunk.Len(),
		Children:   fieldNodes,
		FieldNames: append([]string(nil), w.schema.StructNames...),
	}
	w.chunkNodes = append(w.chunkNodes, col)
	w.rowOffsets = append(w.rowOffsets, w.rowOffsets[len(w.rowOffsets)-1]+int64(chunk.Len()))
	return nil
}

// writeArrayTree walks a in depth-first child order, writing each node's
// own buffer (if any) and recursively building the matching ArrayHeader.
func (w *Writer) writeArrayTree(a *array.Array) (*ArrayHeader, error) {
	children := make([]ArrayHeader, a.NumChildren())
	for i := 0; i < a.NumChildren(); i++ {
		h, err := w.writeArrayTree(a.Child(i))
		if err != nil {
			return nil, err
		}
		children[i] = *h
	}

	dtBytes, err := EncodeDType(a.DType())
	if err != nil {
		return nil, err
	}
	header := &ArrayHeader{
		Encoding: a.EncodingID(),
		DType:    dtBytes,
		Length:   a.Len(),
		Metadata: a.Metadata(),
		Children: children,
	}

	if buf := a.Buffer(); len(buf) > 0 {
		payload := buf
		compressed := false
		if len(buf) >= w.opts.CompressThreshold {
			z, err := compressZSTD(buf)
			if err != nil {
				return nil, err
			}
			if len(z) < len(buf) {
				payload = z
				compressed = true
			}
		}
		br, err := w.writeBuffer(payload)
		if err != nil {
			return nil, err
		}
		header.Buffer = &br
		header.Compressed = compressed
		if compressed {
			header.UncompressedLength = len(buf)
		}
	}
	return header, nil
}

// writeBuffer pads to Alignment, writes payload, and returns its ByteRange.
func (w *Writer) writeBuffer(payload []byte) (ByteRange, error) {
	pad := padTo(w.offset)
	if pad > 0 {
		if _, err := w.w.Write(make([]byte, pad)); err != nil {
			return ByteRange{}, vxerr.NewIOError("layout.writeBuffer", err)
		}
		w.offset += pad
	}
	br := ByteRange{Offset: w.offset, Length: int64(len(payload))}
	if _, err := w.w.Write(payload); err != nil {
		return ByteRange{}, vxerr.NewIOError("layout.writeBuffer", err)
	}
	w.offset += int64(len(payload))
	return br, nil
}

// Finalize assembles the Chunked-over-Column root layout, wraps it in the
// inline-schema root node, and writes the footer plus trailer (spec §4.3,
// "finalize() writes the footer").
func (w *Writer) Finalize() error {
	totalRows := 0
	if n := len(w.rowOffsets); n > 0 {
		totalRows = int(w.rowOffsets[n-1])
	}
	root := &Node{
		Kind:       Chunked,
		RowCount:   totalRows,
		RowOffsets: w.rowOffsets[:len(w.rowOffsets)-1],
		Children:   w.chunkNodes,
	}
	schemaBytes, err := EncodeDType(w.schema)
	if err != nil {
		return err
	}
	inline := &Node{Kind: Inline, RowCount: totalRows, DType: schemaBytes, Inline: root}

	footer := &Footer{DType: schemaBytes, Root: inline}
	blob, err := encodeFooter(footer)
	if err != nil {
		return err
	}
	log.Debugw("writing footer", "chunks", len(w.chunkNodes), "rows", totalRows, "footer_bytes", len(blob))
	if _, err := w.w.Write(blob); err != nil {
		return vxerr.NewIOError("layout.Finalize", err)
	}
	return nil
}
