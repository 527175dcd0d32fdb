package array

import "github.com/vxdb/vortex/dtype"

type structMeta struct {
	validityKind ValidityKind
}

func (m structMeta) encode() []byte { return []byte{byte(m.validityKind)} }

func decodeStructMeta(b []byte) structMeta {
	if len(b) == 0 {
		return structMeta{}
	}
	return structMeta{validityKind: ValidityKind(b[0])}
}

// NewStruct constructs the canonical encoding for a Struct DType: one child
// per field, in dtype field order (spec invariant 3: "struct fields:
// equal[-length]"), plus an optional trailing validity child.
func NewStruct(dt dtype.DType, n int, fields []*Array, v Validity) *Array {
	if dt.Kind != dtype.KindStruct {
		panic("array: NewStruct requires a struct DType")
	}
	if len(fields) != len(dt.StructFields) {
		panic("array: NewStruct field count must match dtype")
	}
	children := append([]*Array(nil), fields...)
	if v.Kind == ValidityDelegated {
		children = append(children, v.Array)
	}
	meta := structMeta{validityKind: v.Kind}
	return New(EncodingStruct, dt, n, nil, meta.encode(), children, Owned)
}

// StructField returns the i-th field's array by position.
func StructField(a *Array, i int) *Array { return a.children[i] }

func StructValidity(a *Array) Validity {
	meta := decodeStructMeta(a.metadata)
	nFields := len(a.dtype.StructFields)
	switch meta.validityKind {
	case ValidityDelegated:
		return DelegatedValidity(a.children[nFields])
	case AllInvalid:
		return AllInvalidValidity()
	case AllValid:
		return AllValidValidity()
	default:
		return NonNullableValidity()
	}
}
