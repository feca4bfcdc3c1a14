package field

import (
	"math"
	"strconv"
	"unique"

	"github.com/shopspring/decimal"
)

// Value is a typed scalar. The zero Value has KindInvalid and compares
// unequal to everything.
//
// Strings are interned, so equal strings from many records share one
// backing allocation and compare by handle.
type Value struct {
	kind Kind
	n    uint64 // integer payload (low word), bool as 0/1
	h    uint64 // high word of 128-bit kinds
	f    float64
	s    unique.Handle[string]
	d    decimal.Decimal
}

func signed(k Kind, v int64) Value { return Value{kind: k, n: uint64(v)} }

func unsigned(k Kind, v uint64) Value { return Value{kind: k, n: v} }

// I8 returns an 8-bit signed Value.
func I8(v int8) Value { return signed(KindI8, int64(v)) }

// I16 returns a 16-bit signed Value.
func I16(v int16) Value { return signed(KindI16, int64(v)) }

// I32 returns a 32-bit signed Value.
func I32(v int32) Value { return signed(KindI32, int64(v)) }

// I64 returns a 64-bit signed Value.
func I64(v int64) Value { return signed(KindI64, v) }

// I128 returns a 128-bit signed Value.
func I128(v Int128) Value { return Value{kind: KindI128, n: v.Lo, h: uint64(v.Hi)} }

// Int returns a pointer-width signed Value.
func Int(v int) Value { return signed(KindInt, int64(v)) }

// U8 returns an 8-bit unsigned Value.
func U8(v uint8) Value { return unsigned(KindU8, uint64(v)) }

// U16 returns a 16-bit unsigned Value.
func U16(v uint16) Value { return unsigned(KindU16, uint64(v)) }

// U32 returns a 32-bit unsigned Value.
func U32(v uint32) Value { return unsigned(KindU32, uint64(v)) }

// U64 returns a 64-bit unsigned Value.
func U64(v uint64) Value { return unsigned(KindU64, v) }

// U128 returns a 128-bit unsigned Value.
func U128(v Uint128) Value { return Value{kind: KindU128, n: v.Lo, h: v.Hi} }

// Uint returns a pointer-width unsigned Value.
func Uint(v uint) Value { return unsigned(KindUint, uint64(v)) }

// F32 returns a 32-bit float Value.
func F32(v float32) Value { return Value{kind: KindF32, f: float64(v)} }

// F64 returns a 64-bit float Value.
func F64(v float64) Value { return Value{kind: KindF64, f: v} }

// Decimal returns an arbitrary-precision decimal Value.
func Decimal(v decimal.Decimal) Value { return Value{kind: KindDecimal, d: v} }

// DecimalString parses s as a decimal Value.
func DecimalString(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, err
	}
	return Decimal(d), nil
}

// String returns an interned string Value.
func String(v string) Value { return Value{kind: KindString, s: unique.Make(v)} }

// Bool returns a boolean Value.
func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, n: 1}
	}
	return Value{kind: KindBool}
}

// Kind returns the stored kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.kind.Valid() }

// AsInt64 returns v as int64 if it converts losslessly.
func (v Value) AsInt64() (int64, bool) {
	c, ok := v.ConvertTo(KindI64)
	if !ok {
		return 0, false
	}
	return int64(c.n), true
}

// AsUint64 returns v as uint64 if it converts losslessly.
func (v Value) AsUint64() (uint64, bool) {
	c, ok := v.ConvertTo(KindU64)
	if !ok {
		return 0, false
	}
	return c.n, true
}

// AsInt128 returns v as Int128 if it converts losslessly.
func (v Value) AsInt128() (Int128, bool) {
	c, ok := v.ConvertTo(KindI128)
	if !ok {
		return Int128{}, false
	}
	return Int128{Hi: int64(c.h), Lo: c.n}, true
}

// AsUint128 returns v as Uint128 if it converts losslessly.
func (v Value) AsUint128() (Uint128, bool) {
	c, ok := v.ConvertTo(KindU128)
	if !ok {
		return Uint128{}, false
	}
	return Uint128{Hi: c.h, Lo: c.n}, true
}

// AsFloat64 returns v as float64 if it converts losslessly.
func (v Value) AsFloat64() (float64, bool) {
	c, ok := v.ConvertTo(KindF64)
	if !ok {
		return 0, false
	}
	return c.f, true
}

// AsDecimal returns v as a decimal if it converts losslessly.
func (v Value) AsDecimal() (decimal.Decimal, bool) {
	c, ok := v.ConvertTo(KindDecimal)
	if !ok {
		return decimal.Decimal{}, false
	}
	return c.d, true
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.n == 1, true
}

// Interface returns the payload as its natural Go type.
func (v Value) Interface() any {
	switch v.kind {
	case KindI8:
		return int8(v.n)
	case KindI16:
		return int16(v.n)
	case KindI32:
		return int32(v.n)
	case KindI64:
		return int64(v.n)
	case KindI128:
		return Int128{Hi: int64(v.h), Lo: v.n}
	case KindInt:
		return int(v.n)
	case KindU8:
		return uint8(v.n)
	case KindU16:
		return uint16(v.n)
	case KindU32:
		return uint32(v.n)
	case KindU64:
		return v.n
	case KindU128:
		return Uint128{Hi: v.h, Lo: v.n}
	case KindUint:
		return uint(v.n)
	case KindF32:
		return float32(v.f)
	case KindF64:
		return v.f
	case KindDecimal:
		return v.d
	case KindString:
		return v.s.Value()
	case KindBool:
		return v.n == 1
	default:
		return nil
	}
}

func (v Value) String() string {
	switch {
	case v.kind.IsSigned() && v.kind != KindI128:
		return strconv.FormatInt(int64(v.n), 10)
	case v.kind.IsUnsigned() && v.kind != KindU128:
		return strconv.FormatUint(v.n, 10)
	}
	switch v.kind {
	case KindI128:
		return Int128{Hi: int64(v.h), Lo: v.n}.String()
	case KindU128:
		return Uint128{Hi: v.h, Lo: v.n}.String()
	case KindF32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindF64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDecimal:
		return v.d.String()
	case KindString:
		return strconv.Quote(v.s.Value())
	case KindBool:
		return strconv.FormatBool(v.n == 1)
	default:
		return "<invalid>"
	}
}

// wide returns the exact integer value for integer kinds.
func (v Value) wide() (wide, bool) {
	switch {
	case v.kind == KindI128:
		return wideFromI128(Int128{Hi: int64(v.h), Lo: v.n}), true
	case v.kind == KindU128:
		return wide{mag: Uint128{Hi: v.h, Lo: v.n}}, true
	case v.kind.IsSigned():
		return wideFromInt64(int64(v.n)), true
	case v.kind.IsUnsigned():
		return wide{mag: Uint128{Lo: v.n}}, true
	default:
		return wide{}, false
	}
}

// decimal returns v as a decimal for numeric kinds. Non-finite floats have
// no decimal form.
func (v Value) decimal() (decimal.Decimal, bool) {
	switch {
	case v.kind == KindDecimal:
		return v.d, true
	case v.kind == KindF32:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(float32(v.f)), true
	case v.kind == KindF64:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(v.f), true
	case v.kind.IsInteger():
		w, _ := v.wide()
		if w.fitsSigned(64) {
			return decimal.NewFromInt(w.int64()), true
		}
		return decimal.NewFromBigInt(w.big(), 0), true
	default:
		return decimal.Decimal{}, false
	}
}

// float returns v as the nearest float64 for numeric kinds.
func (v Value) float() float64 {
	switch {
	case v.kind.IsFloat():
		return v.f
	case v.kind == KindDecimal:
		return v.d.InexactFloat64()
	case v.kind.IsInteger():
		w, _ := v.wide()
		return w.float64()
	default:
		return math.NaN()
	}
}
