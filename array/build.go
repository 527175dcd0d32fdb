package array

import "github.com/vxdb/vortex/dtype"

// BuildFromScalars constructs a canonical array of dt from a flat slice of
// scalars, each of which must itself be of dt (or null). This is the
// generic builder path non-canonical encodings fall back on when they need
// to materialize a canonical array element-by-element rather than
// special-casing every dtype kind themselves — e.g. Chunked's
// canonicalization, which concatenates across chunk boundaries generically
// instead of hand-writing one concat routine per dtype kind.
func BuildFromScalars(dt dtype.DType, scalars []dtype.Scalar) *Array {
	n := len(scalars)
	valid := make([]bool, n)
	for i, s := range scalars {
		valid[i] = s.IsValid()
	}

	switch dt.Kind {
	case KindNull:
		return NewNull(n)
	case KindBool:
		vals := make([]bool, n)
		for i, s := range scalars {
			if valid[i] {
				vals[i], _ = s.Value.(bool)
			}
		}
		return NewBool(n, PackBools(vals), validityFromScalars(valid, dt.Nullable))
	case KindPrimitive:
		var buf []byte
		for i := range scalars {
			var f float64
			if valid[i] {
				f = scalarAsFloat64(scalars[i])
			}
			buf = PutPrimitiveFloat64(buf, dt.PType, f)
		}
		return NewPrimitive(dt.PType, n, buf, validityFromScalars(valid, dt.Nullable))
	case KindUtf8, KindBinary:
		vals := make([][]byte, n)
		for i, s := range scalars {
			if !valid[i] {
				continue
			}
			switch v := s.Value.(type) {
			case string:
				vals[i] = []byte(v)
			case []byte:
				vals[i] = v
			}
		}
		views, data := BuildVarBinView(vals)
		return NewVarBinView(dt.Kind == KindUtf8, n, views, data, validityFromScalars(valid, dt.Nullable))
	case KindStruct:
		fields := make([]*Array, len(dt.StructFields))
		for fi, fieldDT := range dt.StructFields {
			fieldScalars := make([]dtype.Scalar, n)
			for i, s := range scalars {
				if valid[i] {
					fieldScalars[i] = s.Value.([]dtype.Scalar)[fi]
				} else {
					fieldScalars[i] = dtype.NullScalar(fieldDT)
				}
			}
			fields[fi] = BuildFromScalars(fieldDT, fieldScalars)
		}
		return NewStruct(dt, n, fields, validityFromScalars(valid, dt.Nullable))
	case KindList:
		lengths := make([]int, n)
		var flat []dtype.Scalar
		for i, s := range scalars {
			if !valid[i] {
				continue
			}
			elems := s.Value.([]dtype.Scalar)
			lengths[i] = len(elems)
			flat = append(flat, elems...)
		}
		values := BuildFromScalars(*dt.ListElem, flat)
		offsets := EncodeOffsets32(lengths)
		return NewList(dt, n, offsets, Offset32, values, validityFromScalars(valid, dt.Nullable))
	case KindExtension:
		storageScalars := make([]dtype.Scalar, n)
		for i, s := range scalars {
			storageScalars[i] = dtype.Scalar{DType: *dt.ExtStorage, Value: s.Value}
		}
		storage := BuildFromScalars(*dt.ExtStorage, storageScalars)
		return NewExtension(dt, n, storage)
	default:
		panic("array: BuildFromScalars: unknown dtype kind")
	}
}

func validityFromScalars(valid []bool, nullable bool) Validity {
	if !nullable {
		return NonNullableValidity()
	}
	allValid := true
	for _, v := range valid {
		if !v {
			allValid = false
			break
		}
	}
	if allValid {
		return AllValidValidity()
	}
	allInvalid := true
	for _, v := range valid {
		if v {
			allInvalid = false
			break
		}
	}
	if allInvalid {
		return AllInvalidValidity()
	}
	return DelegatedValidity(NewBool(len(valid), PackBools(valid), NonNullableValidity()))
}

func scalarAsFloat64(s dtype.Scalar) float64 {
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
		return 0
	}
}
