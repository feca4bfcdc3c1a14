package field

import "github.com/shopspring/decimal"

// Scalar lists the Go types that map directly onto a Value kind.
type Scalar interface {
	int8 | int16 | int32 | int64 | int |
		uint8 | uint16 | uint32 | uint64 | uint |
		float32 | float64 |
		Int128 | Uint128 | decimal.Decimal | string | bool
}

// Of wraps a Go scalar in a Value of the matching kind.
func Of[V Scalar](v V) Value {
	switch x := any(v).(type) {
	case int8:
		return I8(x)
	case int16:
		return I16(x)
	case int32:
		return I32(x)
	case int64:
		return I64(x)
	case int:
		return Int(x)
	case uint8:
		return U8(x)
	case uint16:
		return U16(x)
	case uint32:
		return U32(x)
	case uint64:
		return U64(x)
	case uint:
		return Uint(x)
	case float32:
		return F32(x)
	case float64:
		return F64(x)
	case Int128:
		return I128(x)
	case Uint128:
		return U128(x)
	case decimal.Decimal:
		return Decimal(x)
	case string:
		return String(x)
	case bool:
		return Bool(x)
	default:
		return Value{}
	}
}

// KindOf returns the kind Of produces for V.
func KindOf[V Scalar]() Kind {
	var zero V
	return Of(zero).Kind()
}

// Extract adapts a typed field accessor into a Value extractor.
func Extract[T any, V Scalar](fn func(T) V) func(T) Value {
	return func(r T) Value {
		return Of(fn(r))
	}
}
