package field

import (
	"fmt"
	"strings"
)

// Operator names a comparison.
type Operator string

const (
	// OpEqual matches values equal to the operand.
	OpEqual Operator = "eq"
	// OpNotEqual matches values not equal to the operand.
	OpNotEqual Operator = "ne"
	// OpGreaterThan matches values above the operand.
	OpGreaterThan Operator = "gt"
	// OpGreaterEqual matches values at or above the operand.
	OpGreaterEqual Operator = "gte"
	// OpLessThan matches values below the operand.
	OpLessThan Operator = "lt"
	// OpLessEqual matches values at or below the operand.
	OpLessEqual Operator = "lte"
	// OpIn matches values equal to any operand.
	OpIn Operator = "in"
	// OpNotIn matches values equal to no operand.
	OpNotIn Operator = "nin"
	// OpRange matches values within [Low, High].
	OpRange Operator = "range"
)

// Operation is one comparison against an indexed value.
type Operation struct {
	Operator Operator
	// Value is the operand of Eq, NotEq, Gt, Gte, Lt and Lte.
	Value Value
	// Values are the operands of In and NotIn.
	Values []Value
	// Low and High bound Range inclusively.
	Low, High Value
}

// Eq matches values equal to v.
func Eq(v Value) Operation { return Operation{Operator: OpEqual, Value: v} }

// NotEq matches values not equal to v.
func NotEq(v Value) Operation { return Operation{Operator: OpNotEqual, Value: v} }

// Gt matches values greater than v.
func Gt(v Value) Operation { return Operation{Operator: OpGreaterThan, Value: v} }

// Gte matches values greater than or equal to v.
func Gte(v Value) Operation { return Operation{Operator: OpGreaterEqual, Value: v} }

// Lt matches values less than v.
func Lt(v Value) Operation { return Operation{Operator: OpLessThan, Value: v} }

// Lte matches values less than or equal to v.
func Lte(v Value) Operation { return Operation{Operator: OpLessEqual, Value: v} }

// In matches values equal to any of vs.
func In(vs ...Value) Operation { return Operation{Operator: OpIn, Values: vs} }

// NotIn matches values equal to none of vs.
func NotIn(vs ...Value) Operation { return Operation{Operator: OpNotIn, Values: vs} }

// Range matches values in [lo, hi].
func Range(lo, hi Value) Operation { return Operation{Operator: OpRange, Low: lo, High: hi} }

// Matches evaluates the operation against v.
func (o Operation) Matches(v Value) bool {
	switch o.Operator {
	case OpEqual:
		return v.Equal(o.Value)
	case OpNotEqual:
		return !v.Equal(o.Value)
	case OpGreaterThan:
		return v.Greater(o.Value)
	case OpGreaterEqual:
		return v.GreaterEqual(o.Value)
	case OpLessThan:
		return v.Less(o.Value)
	case OpLessEqual:
		return v.LessEqual(o.Value)
	case OpIn:
		return matchesAny(v, o.Values)
	case OpNotIn:
		return !matchesAny(v, o.Values)
	case OpRange:
		return v.GreaterEqual(o.Low) && v.LessEqual(o.High)
	default:
		return false
	}
}

func matchesAny(v Value, vs []Value) bool {
	for _, c := range vs {
		if v.Equal(c) {
			return true
		}
	}
	return false
}

// IsEquality reports whether the operation selects exact values.
func (o Operation) IsEquality() bool {
	return o.Operator == OpEqual || o.Operator == OpIn
}

// IsInverse reports whether the operation selects by exclusion.
func (o Operation) IsInverse() bool {
	return o.Operator == OpNotEqual || o.Operator == OpNotIn
}

// IsRange reports whether the operation selects an ordered interval.
func (o Operation) IsRange() bool {
	switch o.Operator {
	case OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual, OpRange:
		return true
	default:
		return false
	}
}

func (o Operation) String() string {
	switch o.Operator {
	case OpEqual:
		return "= " + o.Value.String()
	case OpNotEqual:
		return "!= " + o.Value.String()
	case OpGreaterThan:
		return "> " + o.Value.String()
	case OpGreaterEqual:
		return ">= " + o.Value.String()
	case OpLessThan:
		return "< " + o.Value.String()
	case OpLessEqual:
		return "<= " + o.Value.String()
	case OpIn, OpNotIn:
		parts := make([]string, len(o.Values))
		for i, v := range o.Values {
			parts[i] = v.String()
		}
		word := "IN"
		if o.Operator == OpNotIn {
			word = "NOT IN"
		}
		return fmt.Sprintf("%s (%s)", word, strings.Join(parts, ", "))
	case OpRange:
		return fmt.Sprintf("BETWEEN %s AND %s", o.Low, o.High)
	default:
		return string(o.Operator)
	}
}

// Op combines the running result with the next step's result.
type Op uint8

const (
	// And intersects.
	And Op = iota
	// Or unions.
	Or
	// Xor keeps members of exactly one side.
	Xor
	// AndNot subtracts.
	AndNot
	// Invert complements the running result and ignores the step's operation.
	Invert
)

func (o Op) String() string {
	switch o {
	case And:
		return "AND"
	case Or:
		return "OR"
	case Xor:
		return "XOR"
	case AndNot:
		return "AND NOT"
	case Invert:
		return "INVERT"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Step pairs an operation with the combinator joining it to the previous
// result. The first step's Op is ignored.
type Step struct {
	Operation Operation
	Op        Op
}

// Chain builds a step list fluently.
type Chain struct {
	steps []Step
}

// Where starts a chain.
func Where(o Operation) *Chain {
	return &Chain{steps: []Step{{Operation: o, Op: And}}}
}

func (c *Chain) push(o Operation, op Op) *Chain {
	c.steps = append(c.steps, Step{Operation: o, Op: op})
	return c
}

// And intersects with o.
func (c *Chain) And(o Operation) *Chain { return c.push(o, And) }

// Or unions with o.
func (c *Chain) Or(o Operation) *Chain { return c.push(o, Or) }

// Xor keeps the symmetric difference with o.
func (c *Chain) Xor(o Operation) *Chain { return c.push(o, Xor) }

// AndNot subtracts o.
func (c *Chain) AndNot(o Operation) *Chain { return c.push(o, AndNot) }

// Invert complements everything so far.
func (c *Chain) Invert() *Chain { return c.push(Operation{}, Invert) }

// Steps returns the built step list.
func (c *Chain) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

// Matches evaluates steps against a single value using the same left to
// right combination as index evaluation.
func Matches(steps []Step, v Value) (bool, error) {
	if len(steps) == 0 {
		return false, ErrOperationListEmpty
	}
	result := steps[0].Operation.Matches(v)
	for _, s := range steps[1:] {
		switch s.Op {
		case Invert:
			result = !result
		case And:
			result = result && s.Operation.Matches(v)
		case Or:
			result = result || s.Operation.Matches(v)
		case Xor:
			result = result != s.Operation.Matches(v)
		case AndNot:
			result = result && !s.Operation.Matches(v)
		}
	}
	return result, nil
}

// Describe renders steps left to right, e.g. "> 200 AND < 500".
func Describe(steps []Step) string {
	if len(steps) == 0 {
		return ""
	}
	s := steps[0].Operation.String()
	for _, st := range steps[1:] {
		if st.Op == Invert {
			s = "NOT (" + s + ")"
			continue
		}
		s += " " + st.Op.String() + " " + st.Operation.String()
	}
	return s
}
