// Package dtype implements Vortex's logical type system: a tagged union
// (DType) with structural equality, and the Scalar values that carry a
// DType alongside a literal value.
package dtype

import (
	"fmt"
	"strings"
)

// Kind discriminates the DType tagged union.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindPrimitive
	KindUtf8
	KindBinary
	KindStruct
	KindList
	KindExtension
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindPrimitive:
		return "primitive"
	case KindUtf8:
		return "utf8"
	case KindBinary:
		return "binary"
	case KindStruct:
		return "struct"
	case KindList:
		return "list"
	case KindExtension:
		return "extension"
	default:
		return fmt.Sprintf("unknown kind %d", uint8(k))
	}
}

// PType enumerates the physical primitive widths, used only when
// Kind == KindPrimitive.
type PType uint8

const (
	U8 PType = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F16
	F32
	F64
)

func (p PType) String() string {
	names := [...]string{"u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "f16", "f32", "f64"}
	if int(p) < len(names) {
		return names[p]
	}
	return fmt.Sprintf("ptype(%d)", uint8(p))
}

// ByteWidth returns the in-memory width of one element of this primitive
// type, in bytes.
func (p PType) ByteWidth() int {
	switch p {
	case U8, I8:
		return 1
	case U16, I16, F16:
		return 2
	case U32, I32, F32:
		return 4
	case U64, I64, F64:
		return 8
	default:
		return 0
	}
}

func (p PType) IsFloat() bool { return p == F16 || p == F32 || p == F64 }
func (p PType) IsSigned() bool {
	return p == I8 || p == I16 || p == I32 || p == I64 || p.IsFloat()
}

// DType is a logical type: a tagged union over Null, Bool, Primitive, Utf8,
// Binary, Struct, List, and Extension. Equality is structural (see Equals);
// a DType holds slices and pointers, so it is not comparable with == and
// callers use Equals.
type DType struct {
	Kind     Kind
	Nullable bool

	// Valid when Kind == KindPrimitive.
	PType PType

	// Valid when Kind == KindStruct. Names and Fields have equal length.
	StructNames []string
	StructFields []DType

	// Valid when Kind == KindList.
	ListElem *DType

	// Valid when Kind == KindExtension.
	ExtID      string
	ExtStorage *DType
	ExtMeta    []byte
}

func Null() DType { return DType{Kind: KindNull} }

func Bool(nullable bool) DType { return DType{Kind: KindBool, Nullable: nullable} }

func Primitive(pt PType, nullable bool) DType {
	return DType{Kind: KindPrimitive, PType: pt, Nullable: nullable}
}

func Utf8(nullable bool) DType { return DType{Kind: KindUtf8, Nullable: nullable} }

func Binary(nullable bool) DType { return DType{Kind: KindBinary, Nullable: nullable} }

func Struct(names []string, fields []DType, nullable bool) DType {
	if len(names) != len(fields) {
		panic("dtype: Struct requires len(names) == len(fields)")
	}
	return DType{Kind: KindStruct, StructNames: append([]string(nil), names...),
		StructFields: append([]DType(nil), fields...), Nullable: nullable}
}

func List(elem DType, nullable bool) DType {
	e := elem
	return DType{Kind: KindList, ListElem: &e, Nullable: nullable}
}

func Extension(id string, storage DType, meta []byte) DType {
	s := storage
	return DType{Kind: KindExtension, ExtID: id, ExtStorage: &s, ExtMeta: append([]byte(nil), meta...)}
}

// IsNullable reports whether elements of this type may be logically null.
func (d DType) IsNullable() bool { return d.Nullable }

// Equals is structural equality, per spec: "DType equality is structural."
func (d DType) Equals(o DType) bool {
	if d.Kind != o.Kind || d.Nullable != o.Nullable {
		return false
	}
	switch d.Kind {
	case KindPrimitive:
		return d.PType == o.PType
	case KindStruct:
		if len(d.StructNames) != len(o.StructNames) {
			return false
		}
		for i := range d.StructNames {
			if d.StructNames[i] != o.StructNames[i] || !d.StructFields[i].Equals(o.StructFields[i]) {
				return false
			}
		}
		return true
	case KindList:
		if d.ListElem == nil || o.ListElem == nil {
			return d.ListElem == o.ListElem
		}
		return d.ListElem.Equals(*o.ListElem)
	case KindExtension:
		if d.ExtID != o.ExtID || string(d.ExtMeta) != string(o.ExtMeta) {
			return false
		}
		if d.ExtStorage == nil || o.ExtStorage == nil {
			return d.ExtStorage == o.ExtStorage
		}
		return d.ExtStorage.Equals(*o.ExtStorage)
	default:
		return true
	}
}

// String renders a human-readable type expression, e.g. "i32?".
func (d DType) String() string {
	var sb strings.Builder
	d.writeTo(&sb)
	return sb.String()
}

func (d DType) writeTo(sb *strings.Builder) {
	switch d.Kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString("bool")
	case KindPrimitive:
		sb.WriteString(d.PType.String())
	case KindUtf8:
		sb.WriteString("utf8")
	case KindBinary:
		sb.WriteString("binary")
	case KindStruct:
		sb.WriteString("struct{")
		for i, n := range d.StructNames {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(n)
			sb.WriteString(": ")
			d.StructFields[i].writeTo(sb)
		}
		sb.WriteString("}")
	case KindList:
		sb.WriteString("list<")
		if d.ListElem != nil {
			d.ListElem.writeTo(sb)
		}
		sb.WriteString(">")
	case KindExtension:
		sb.WriteString("ext(")
		sb.WriteString(d.ExtID)
		sb.WriteString(")")
	}
	if d.Nullable {
		sb.WriteString("?")
	}
}
