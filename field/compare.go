package field

import (
	"cmp"
	"strings"
)

// Compare orders v against o. The second result is false when the two
// values are not comparable (different families, or an invalid value).
func (v Value) Compare(o Value) (int, bool) {
	if v.kind == o.kind {
		if !v.kind.Valid() {
			return 0, false
		}
		return compareSame(v, o), true
	}

	if c, ok := compareSignMixed(v, o); ok {
		return c, true
	}

	if v.kind.family() != familyNumeric || o.kind.family() != familyNumeric {
		return 0, false
	}

	if vw, ok := v.wide(); ok {
		if ow, ok := o.wide(); ok {
			return vw.cmp(ow), true
		}
	}

	if vd, ok := v.decimal(); ok {
		if od, ok := o.decimal(); ok {
			return vd.Cmp(od), true
		}
	}

	return cmp.Compare(v.float(), o.float()), true
}

// compareSame compares two values of the same valid kind.
func compareSame(a, b Value) int {
	switch k := a.kind; {
	case k == KindI128:
		return Int128{Hi: int64(a.h), Lo: a.n}.Cmp(Int128{Hi: int64(b.h), Lo: b.n})
	case k == KindU128:
		return Uint128{Hi: a.h, Lo: a.n}.Cmp(Uint128{Hi: b.h, Lo: b.n})
	case k.IsSigned():
		return cmp.Compare(int64(a.n), int64(b.n))
	case k.IsUnsigned():
		return cmp.Compare(a.n, b.n)
	case k.IsFloat():
		return cmp.Compare(a.f, b.f)
	case k == KindDecimal:
		return a.d.Cmp(b.d)
	case k == KindString:
		if a.s == b.s {
			return 0
		}
		return strings.Compare(a.s.Value(), b.s.Value())
	default:
		return cmp.Compare(a.n, b.n)
	}
}

func isMixedSigned(k Kind) bool {
	return k == KindI32 || k == KindI64 || k == KindInt
}

func isMixedUnsigned(k Kind) bool {
	return k == KindU32 || k == KindU64 || k == KindUint
}

// compareSignMixed handles unsigned/signed 32- and 64-bit pairs without
// widening: a negative signed value is below every unsigned value.
func compareSignMixed(v, o Value) (int, bool) {
	switch {
	case isMixedUnsigned(v.kind) && isMixedSigned(o.kind):
		s := int64(o.n)
		if s < 0 {
			return 1, true
		}
		return cmp.Compare(v.n, uint64(s)), true
	case isMixedSigned(v.kind) && isMixedUnsigned(o.kind):
		s := int64(v.n)
		if s < 0 {
			return -1, true
		}
		return cmp.Compare(uint64(s), o.n), true
	default:
		return 0, false
	}
}

// Equal reports whether v and o are comparable and equal.
func (v Value) Equal(o Value) bool {
	c, ok := v.Compare(o)
	return ok && c == 0
}

// Greater reports v > o.
func (v Value) Greater(o Value) bool {
	c, ok := v.Compare(o)
	return ok && c > 0
}

// GreaterEqual reports v >= o.
func (v Value) GreaterEqual(o Value) bool {
	c, ok := v.Compare(o)
	return ok && c >= 0
}

// Less reports v < o.
func (v Value) Less(o Value) bool {
	c, ok := v.Compare(o)
	return ok && c < 0
}

// LessEqual reports v <= o.
func (v Value) LessEqual(o Value) bool {
	c, ok := v.Compare(o)
	return ok && c <= 0
}
