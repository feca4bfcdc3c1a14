package field

import (
	"errors"
	"fmt"
)

var (
	// ErrOperationListEmpty is returned when an evaluation gets no steps.
	ErrOperationListEmpty = errors.New("operation list is empty")

	// ErrUndefinedType is returned for values or indices without a valid kind.
	ErrUndefinedType = errors.New("undefined field type")
)

// ConvertError indicates a query value cannot be coerced into an index's
// stored kind.
type ConvertError struct {
	Kind     Kind
	Operator Operator
	Value    Value
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("cannot convert %s (%s) to %s for %s", e.Value, e.Value.Kind(), e.Kind, e.Operator)
}

// OperationError indicates an operator failed to evaluate against an index.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type OperationError struct {
	Operator Operator
	Kind     Kind
	cause    error
}

func (e *OperationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("operation %s on %s failed: %v", e.Operator, e.Kind, e.cause)
	}
	return fmt.Sprintf("operation %s on %s failed", e.Operator, e.Kind)
}

func (e *OperationError) Unwrap() error { return e.cause }

// NewOperationError wraps cause as a failure of op on kind.
func NewOperationError(op Operator, kind Kind, cause error) *OperationError {
	return &OperationError{Operator: op, Kind: kind, cause: cause}
}
