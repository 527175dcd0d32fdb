package layout

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/vxdb/vortex/dtype"
	"github.com/vxdb/vortex/vxerr"
)

// Magic is the file trailer's fixed identifier (spec §6, "MAGIC: \"VTXF\"").
const Magic = "VTXF"

// footerTrailerLen is len(footer_length_u32) + len(magic).
const footerTrailerLen = 4 + len(Magic)

// Footer holds the root DType bytes and the layout tree, written once per
// file after all data buffers (spec §4.3, "On-disk layout"). There is no
// separate postscript: the layout root is stored directly as Root.
type Footer struct {
	DType []byte `cbor:"dtype"`
	Root  *Node  `cbor:"root"`
}

var cborEncMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("layout: building canonical cbor encode mode: %v", err))
	}
	return em
}()

// encodeCBOR canonically encodes v, the same EncMode construction
// ipldbindcode/cbor.go's encodeCBOR uses (teacher).
func encodeCBOR(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := cborEncMode.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("layout: cbor encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeCBOR(data []byte, v any) error {
	return cbor.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// EncodeDType cbor-encodes a dtype.DType for embedding in an ArrayHeader or
// Footer.
func EncodeDType(dt dtype.DType) ([]byte, error) {
	return encodeCBOR(dt)
}

// DecodeDType reverses EncodeDType.
func DecodeDType(b []byte) (dtype.DType, error) {
	var dt dtype.DType
	if err := decodeCBOR(b, &dt); err != nil {
		return dtype.DType{}, fmt.Errorf("layout: decode dtype: %w", err)
	}
	return dt, nil
}

// encodeFooter serializes f and appends the length+magic trailer (spec §6:
// "Layout: DATA… FOOTER_FB FOOTER_LEN:u32 MAGIC:\"VTXF\"" — this module uses
// canonical CBOR rather than flatbuffers for the footer body; see
// DESIGN.md).
func encodeFooter(f *Footer) ([]byte, error) {
	body, err := encodeCBOR(f)
	if err != nil {
		return nil, err
	}
	var trailer [footerTrailerLen]byte
	binary.LittleEndian.PutUint32(trailer[:4], uint32(len(body)))
	copy(trailer[4:], Magic)
	return append(body, trailer[:]...), nil
}

// decodeFooter parses the trailer out of the last bytes of a file and
// decodes the footer body. tail must contain at least the footer bytes
// plus the trailer; callers typically over-fetch (spec §4.3, reader phase
// 1: "Fetch the last N bytes ... to recover the footer length, magic, and
// (usually) the entire footer").
func decodeFooter(tail []byte) (*Footer, error) {
	if len(tail) < footerTrailerLen {
		return nil, vxerr.NewCorruption("decode_footer", "trailer shorter than %d bytes", footerTrailerLen)
	}
	trailer := tail[len(tail)-footerTrailerLen:]
	if string(trailer[4:]) != Magic {
		return nil, vxerr.NewCorruption("decode_footer", "bad magic %q", trailer[4:])
	}
	footerLen := int(binary.LittleEndian.Uint32(trailer[:4]))
	bodyStart := len(tail) - footerTrailerLen - footerLen
	if bodyStart < 0 {
		return nil, vxerr.NewCorruption("decode_footer", "footer length %d exceeds fetched tail %d", footerLen, len(tail))
	}
	var f Footer
	if err := decodeCBOR(tail[bodyStart:len(tail)-footerTrailerLen], &f); err != nil {
		return nil, vxerr.NewCorruption("decode_footer", "cbor decode: %v", err)
	}
	return &f, nil
}

// LazyDType holds the footer's raw DType bytes and decodes them on first
// use, memoizing the result (spec §9, "Lazy dtype in views": "treat it as
// {bytes, projection} → DType with memoization per-field to keep planning
// O(projected fields)" — this module memoizes the whole decode rather than
// per-field, since CBOR decode of the struct-shaped DType is already cheap
// relative to a file read).
type LazyDType struct {
	raw     []byte
	decoded *dtype.DType
}

func NewLazyDType(raw []byte) *LazyDType { return &LazyDType{raw: raw} }

// Resolve decodes (once) and returns the full DType.
func (l *LazyDType) Resolve() (dtype.DType, error) {
	if l.decoded != nil {
		return *l.decoded, nil
	}
	dt, err := DecodeDType(l.raw)
	if err != nil {
		return dtype.DType{}, err
	}
	l.decoded = &dt
	return dt, nil
}

// Project resolves the DType and narrows it to a Struct dtype containing
// only the named fields, preserving field order from the original dtype.
func (l *LazyDType) Project(fields []string) (dtype.DType, error) {
	dt, err := l.Resolve()
	if err != nil {
		return dtype.DType{}, err
	}
	if fields == nil {
		return dt, nil
	}
	want := make(map[string]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}
	var names []string
	var types []dtype.DType
	for i, name := range dt.StructNames {
		if want[name] {
			names = append(names, name)
			types = append(types, dt.StructFields[i])
		}
	}
	return dtype.Struct(names, types, dt.Nullable), nil
}
