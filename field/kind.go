package field

import "strconv"

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid is the zero Value's kind.
	KindInvalid Kind = iota
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	// KindInt is the pointer-width signed integer.
	KindInt
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	// KindUint is the pointer-width unsigned integer.
	KindUint
	KindF32
	KindF64
	KindDecimal
	KindString
	KindBool
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindI8:      "i8",
	KindI16:     "i16",
	KindI32:     "i32",
	KindI64:     "i64",
	KindI128:    "i128",
	KindInt:     "int",
	KindU8:      "u8",
	KindU16:     "u16",
	KindU32:     "u32",
	KindU64:     "u64",
	KindU128:    "u128",
	KindUint:    "uint",
	KindF32:     "f32",
	KindF64:     "f64",
	KindDecimal: "decimal",
	KindString:  "string",
	KindBool:    "bool",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k names a supported kind.
func (k Kind) Valid() bool {
	return k > KindInvalid && k <= KindBool
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool {
	return k >= KindI8 && k <= KindInt
}

// IsUnsigned reports whether k is an unsigned integer kind.
func (k Kind) IsUnsigned() bool {
	return k >= KindU8 && k <= KindUint
}

// IsInteger reports whether k is any integer kind.
func (k Kind) IsInteger() bool {
	return k.IsSigned() || k.IsUnsigned()
}

// IsFloat reports whether k is a floating kind.
func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

// IsNumeric reports whether k belongs to the numeric family.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k.IsFloat() || k == KindDecimal
}

// Bits returns the width of an integer kind, or 0.
func (k Kind) Bits() int {
	switch k {
	case KindI8, KindU8:
		return 8
	case KindI16, KindU16:
		return 16
	case KindI32, KindU32:
		return 32
	case KindI64, KindU64:
		return 64
	case KindI128, KindU128:
		return 128
	case KindInt, KindUint:
		return strconv.IntSize
	default:
		return 0
	}
}

type family uint8

const (
	familyNone family = iota
	familyNumeric
	familyString
	familyBool
)

func (k Kind) family() family {
	switch {
	case k.IsNumeric():
		return familyNumeric
	case k == KindString:
		return familyString
	case k == KindBool:
		return familyBool
	default:
		return familyNone
	}
}
