// Package field defines the scalar values that indices are keyed by and the
// operations evaluated against them.
//
// Value is a closed tagged union over signed and unsigned integers of every
// width (including 128-bit and pointer-width), 32- and 64-bit floats,
// arbitrary-precision decimals, strings and booleans.
//
// # Comparison
//
// Values of different kinds compare without caller-side coercion:
//
//  1. identical kinds compare natively
//  2. unsigned/signed 32- and 64-bit pairs use sign-aware fast paths
//  3. two integers widen to a signed 129-bit magnitude, so every integer
//     pair compares exactly
//  4. other numeric pairs widen to decimal when both convert losslessly,
//     otherwise to float64
//  5. strings and booleans only compare within their own family
//
// Floats are totally ordered: NaN sorts before every other float and equals
// only NaN.
//
// # Operations
//
// An Operation (Eq, NotEq, Gt, Gte, Lt, Lte, In, NotIn, Range) evaluates
// against one value. A Chain combines operations left to right with an Op
// (And, Or, Xor, AndNot, Invert) per step:
//
//	steps := field.Where(field.Gte(field.I64(100))).
//	    And(field.Lt(field.I64(500))).
//	    AndNot(field.Eq(field.I64(250))).
//	    Steps()
package field
