package index

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMixedKinds is returned when an extractor yields values of more than one kind.
	ErrMixedKinds = errors.New("extractor returned mixed value kinds")

	// ErrInvalidBucketSize is returned for a non-positive bucket width.
	ErrInvalidBucketSize = errors.New("bucket size must be positive")

	// ErrInvalidNGramSize is returned for an n-gram length below one.
	ErrInvalidNGramSize = errors.New("n-gram size must be at least 1")

	// ErrKindMismatch is returned when an index is used as a different kind.
	ErrKindMismatch = errors.New("index kind mismatch")

	// ErrBitOutOfRange is returned for a position outside a bit index.
	ErrBitOutOfRange = errors.New("position outside bit index")
)

// BuildError indicates a named index could not be built.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type BuildError struct {
	Name   string
	Reason string
	cause  error
}

// NewBuildError wraps cause as a build failure of the named index.
func NewBuildError(name string, cause error) *BuildError {
	return &BuildError{Name: name, Reason: cause.Error(), cause: cause}
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build index %q: %s", e.Name, e.Reason)
}

func (e *BuildError) Unwrap() error { return e.cause }

// CompatibilityError indicates an index is of a different kind than the
// operation requires, either on replacement or when queried.
type CompatibilityError struct {
	Name      string
	Existing  string
	Requested string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("index %q: existing type %s is incompatible with %s", e.Name, e.Existing, e.Requested)
}

func (e *CompatibilityError) Unwrap() error { return ErrKindMismatch }

// NotFoundError reports one or more missing index names.
type NotFoundError struct {
	Names []string
}

func (e *NotFoundError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("index %q not found", e.Names[0])
	}
	return fmt.Sprintf("indexes not found: %s", strings.Join(e.Names, ", "))
}
