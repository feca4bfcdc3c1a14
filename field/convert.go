package field

import (
	"math"
	"math/big"
)

// ConvertTo converts v into kind k without losing information. Integers
// convert when in range, floats and decimals convert to integers only when
// integral, and numbers convert to floats only when the float represents
// them exactly.
func (v Value) ConvertTo(k Kind) (Value, bool) {
	if v.kind == k {
		return v, k.Valid()
	}
	switch {
	case k.IsInteger():
		w, ok := v.integral()
		if !ok {
			return Value{}, false
		}
		return fromWide(k, w)
	case k == KindF64:
		return v.toF64()
	case k == KindF32:
		f, ok := v.toF64()
		if !ok {
			return Value{}, false
		}
		if float64(float32(f.f)) != f.f && !math.IsNaN(f.f) {
			return Value{}, false
		}
		return F32(float32(f.f)), true
	case k == KindDecimal:
		d, ok := v.decimal()
		if !ok {
			return Value{}, false
		}
		return Decimal(d), true
	default:
		// Strings and booleans only convert to themselves.
		return Value{}, false
	}
}

// integral returns the exact integer a numeric value represents.
func (v Value) integral() (wide, bool) {
	if w, ok := v.wide(); ok {
		return w, true
	}
	switch {
	case v.kind == KindDecimal:
		if !v.d.Equal(v.d.Truncate(0)) {
			return wide{}, false
		}
		return wideFromBig(v.d.BigInt())
	case v.kind.IsFloat():
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) || v.f != math.Trunc(v.f) {
			return wide{}, false
		}
		b, _ := new(big.Float).SetFloat64(v.f).Int(nil)
		return wideFromBig(b)
	default:
		return wide{}, false
	}
}

func wideFromBig(b *big.Int) (wide, bool) {
	neg := b.Sign() < 0
	mag := new(big.Int).Abs(b)
	u, err := U128FromBig(mag)
	if err != nil {
		return wide{}, false
	}
	return wide{neg: neg, mag: u}, true
}

func fromWide(k Kind, w wide) (Value, bool) {
	bits := k.Bits()
	if k.IsUnsigned() {
		if !w.fitsUnsigned(bits) {
			return Value{}, false
		}
		if k == KindU128 {
			return U128(w.mag), true
		}
		return unsigned(k, w.mag.Lo), true
	}
	if !w.fitsSigned(bits) {
		return Value{}, false
	}
	if k == KindI128 {
		return I128(w.i128()), true
	}
	return signed(k, w.int64()), true
}

// maxExactFloat is the largest magnitude below which every integer is an
// exact float64.
const maxExactFloat = 1 << 53

func (v Value) toF64() (Value, bool) {
	switch {
	case v.kind.IsFloat():
		return F64(v.f), true
	case v.kind.IsInteger():
		w, _ := v.wide()
		if w.mag.Hi == 0 && w.mag.Lo <= maxExactFloat {
			return F64(w.float64()), true
		}
		f := w.float64()
		back, ok := F64(f).integral()
		if !ok || back.cmp(w) != 0 {
			return Value{}, false
		}
		return F64(f), true
	case v.kind == KindDecimal:
		f, exact := v.d.Float64()
		if !exact {
			return Value{}, false
		}
		return F64(f), true
	default:
		return Value{}, false
	}
}
