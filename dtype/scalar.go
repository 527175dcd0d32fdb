package dtype

import "fmt"

// Scalar is a single value paired with its DType: used for fill values,
// predicate literals, and the single-element result of Array.ScalarAt.
type Scalar struct {
	DType DType
	// Value is nil for a null scalar. Otherwise it holds:
	//   KindBool: bool
	//   KindPrimitive: one of uint8/16/32/64, int8/16/32/64, float32/64
	//   KindUtf8: string
	//   KindBinary: []byte
	//   KindStruct: []Scalar (len == len(DType.StructFields))
	//   KindList: []Scalar
	Value any
}

// NullScalar constructs a null scalar of the given (necessarily nullable) type.
func NullScalar(dt DType) Scalar {
	return Scalar{DType: dt, Value: nil}
}

// IsValid reports whether the scalar carries a non-null value.
func (s Scalar) IsValid() bool {
	if s.DType.Kind == KindNull {
		return false
	}
	return s.Value != nil
}

func NewBool(v bool, nullable bool) Scalar {
	return Scalar{DType: Bool(nullable), Value: v}
}

func NewPrimitive(pt PType, v any, nullable bool) Scalar {
	return Scalar{DType: Primitive(pt, nullable), Value: v}
}

func NewUtf8(v string, nullable bool) Scalar {
	return Scalar{DType: Utf8(nullable), Value: v}
}

func NewBinary(v []byte, nullable bool) Scalar {
	return Scalar{DType: Binary(nullable), Value: v}
}

func NewStruct(dt DType, values []Scalar) Scalar {
	if dt.Kind != KindStruct {
		panic("dtype: NewStruct requires a struct DType")
	}
	return Scalar{DType: dt, Value: values}
}

func NewList(dt DType, values []Scalar) Scalar {
	if dt.Kind != KindList {
		panic("dtype: NewList requires a list DType")
	}
	return Scalar{DType: dt, Value: values}
}

// AsFloat64 coerces a numeric scalar to float64, for use in comparisons and
// compressor cost heuristics. Panics if the scalar is not primitive.
func (s Scalar) AsFloat64() float64 {
	switch v := s.Value.(type) {
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	default:
		panic(fmt.Sprintf("dtype: AsFloat64 on non-numeric scalar %T", s.Value))
	}
}

func (s Scalar) String() string {
	if !s.IsValid() {
		return "null"
	}
	return fmt.Sprintf("%v", s.Value)
}
