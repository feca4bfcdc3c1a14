package field

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"math/bits"
)

// Uint128 is an unsigned 128-bit integer.
type Uint128 struct {
	Hi, Lo uint64
}

// Int128 is a signed 128-bit integer in two's complement.
type Int128 struct {
	Hi int64
	Lo uint64
}

// U128From64 widens v.
func U128From64(v uint64) Uint128 { return Uint128{Lo: v} }

// I128From64 sign-extends v.
func I128From64(v int64) Int128 { return Int128{Hi: v >> 63, Lo: uint64(v)} }

var (
	bigMaxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	bigMaxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	bigMinI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// U128FromBig converts b, failing when it is negative or wider than 128 bits.
func U128FromBig(b *big.Int) (Uint128, error) {
	if b.Sign() < 0 || b.Cmp(bigMaxU128) > 0 {
		return Uint128{}, fmt.Errorf("%s out of u128 range", b)
	}
	var words [2]uint64
	fill(b, &words)
	return Uint128{Hi: words[1], Lo: words[0]}, nil
}

// I128FromBig converts b, failing when it does not fit 128 signed bits.
func I128FromBig(b *big.Int) (Int128, error) {
	if b.Cmp(bigMinI128) < 0 || b.Cmp(bigMaxI128) > 0 {
		return Int128{}, fmt.Errorf("%s out of i128 range", b)
	}
	var words [2]uint64
	fill(new(big.Int).Abs(b), &words)
	mag := Uint128{Hi: words[1], Lo: words[0]}
	if b.Sign() < 0 {
		mag = mag.neg()
	}
	return Int128{Hi: int64(mag.Hi), Lo: mag.Lo}, nil
}

// ParseU128 parses a base-10 unsigned 128-bit integer.
func ParseU128(s string) (Uint128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Uint128{}, fmt.Errorf("invalid u128 %q", s)
	}
	return U128FromBig(b)
}

// ParseI128 parses a base-10 signed 128-bit integer.
func ParseI128(s string) (Int128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int128{}, fmt.Errorf("invalid i128 %q", s)
	}
	return I128FromBig(b)
}

func fill(b *big.Int, words *[2]uint64) {
	lo := new(big.Int).And(b, new(big.Int).SetUint64(math.MaxUint64))
	hi := new(big.Int).Rsh(b, 64)
	words[0] = lo.Uint64()
	words[1] = hi.Uint64()
}

// Cmp returns -1, 0 or +1.
func (u Uint128) Cmp(o Uint128) int {
	if c := cmp.Compare(u.Hi, o.Hi); c != 0 {
		return c
	}
	return cmp.Compare(u.Lo, o.Lo)
}

// IsZero reports whether u == 0.
func (u Uint128) IsZero() bool { return u.Hi == 0 && u.Lo == 0 }

// Big returns u as a big.Int.
func (u Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string {
	if u.Hi == 0 {
		return fmt.Sprint(u.Lo)
	}
	return u.Big().String()
}

// Float64 returns the nearest float64.
func (u Uint128) Float64() float64 {
	return float64(u.Hi)*(1<<64) + float64(u.Lo)
}

// neg returns the two's complement of u.
func (u Uint128) neg() Uint128 {
	lo, carry := bits.Add64(^u.Lo, 1, 0)
	hi, _ := bits.Add64(^u.Hi, 0, carry)
	return Uint128{Hi: hi, Lo: lo}
}

// Sign returns -1, 0 or +1.
func (i Int128) Sign() int {
	switch {
	case i.Hi < 0:
		return -1
	case i.Hi == 0 && i.Lo == 0:
		return 0
	default:
		return 1
	}
}

// Cmp returns -1, 0 or +1.
func (i Int128) Cmp(o Int128) int {
	if c := cmp.Compare(i.Hi, o.Hi); c != 0 {
		return c
	}
	return cmp.Compare(i.Lo, o.Lo)
}

// Big returns i as a big.Int.
func (i Int128) Big() *big.Int {
	mag := i.magnitude().Big()
	if i.Hi < 0 {
		mag.Neg(mag)
	}
	return mag
}

func (i Int128) String() string {
	switch {
	case i.Hi == 0:
		return fmt.Sprint(i.Lo)
	case i.Hi == -1 && i.Lo >= 1<<63:
		return fmt.Sprint(int64(i.Lo))
	}
	return i.Big().String()
}

// Float64 returns the nearest float64.
func (i Int128) Float64() float64 {
	f := i.magnitude().Float64()
	if i.Hi < 0 {
		return -f
	}
	return f
}

func (i Int128) magnitude() Uint128 {
	u := Uint128{Hi: uint64(i.Hi), Lo: i.Lo}
	if i.Hi < 0 {
		return u.neg()
	}
	return u
}

// wide is a signed 129-bit integer (sign plus 128-bit magnitude). Every
// integer kind embeds into it exactly.
type wide struct {
	neg bool
	mag Uint128
}

func wideFromInt64(v int64) wide {
	if v < 0 {
		// -MinInt64 overflows int64 but not uint64.
		return wide{neg: true, mag: Uint128{Lo: uint64(-(v + 1)) + 1}}
	}
	return wide{mag: Uint128{Lo: uint64(v)}}
}

func wideFromI128(v Int128) wide {
	return wide{neg: v.Hi < 0, mag: v.magnitude()}
}

func (w wide) cmp(o wide) int {
	switch {
	case w.neg && !o.neg:
		return -1
	case !w.neg && o.neg:
		return 1
	case w.neg:
		return o.mag.Cmp(w.mag)
	default:
		return w.mag.Cmp(o.mag)
	}
}

// fitsUnsigned reports whether w is representable in an unsigned integer of
// the given width.
func (w wide) fitsUnsigned(width int) bool {
	if w.neg && !w.mag.IsZero() {
		return false
	}
	switch {
	case width >= 128:
		return true
	case w.mag.Hi != 0:
		return false
	case width == 64:
		return true
	default:
		return w.mag.Lo <= 1<<width-1
	}
}

// fitsSigned reports whether w is representable in a signed integer of the
// given width.
func (w wide) fitsSigned(width int) bool {
	if width >= 128 {
		if w.neg {
			return w.mag.Hi < 1<<63 || (w.mag.Hi == 1<<63 && w.mag.Lo == 0)
		}
		return w.mag.Hi < 1<<63
	}
	if w.mag.Hi != 0 {
		return false
	}
	limit := uint64(1) << (width - 1)
	if w.neg {
		return w.mag.Lo <= limit
	}
	return w.mag.Lo < limit
}

// int64 returns w as int64; the caller checks fitsSigned(64) first.
func (w wide) int64() int64 {
	if w.neg {
		return -int64(w.mag.Lo - 1) - 1
	}
	return int64(w.mag.Lo)
}

func (w wide) i128() Int128 {
	m := w.mag
	if w.neg {
		m = m.neg()
	}
	return Int128{Hi: int64(m.Hi), Lo: m.Lo}
}

func (w wide) big() *big.Int {
	b := w.mag.Big()
	if w.neg {
		b.Neg(b)
	}
	return b
}

func (w wide) float64() float64 {
	f := w.mag.Float64()
	if w.neg {
		return -f
	}
	return f
}
