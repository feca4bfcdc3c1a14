package treeman

import (
	"errors"
	"fmt"

	"github.com/hupe1980/treeman/collection"
	"github.com/hupe1980/treeman/field"
	"github.com/hupe1980/treeman/group"
	"github.com/hupe1980/treeman/index"
	"github.com/hupe1980/treeman/internal/resource"
)

var (
	// ErrIndex classifies index build, compatibility and lookup failures.
	ErrIndex = errors.New("index error")

	// ErrFieldOperation classifies failed field operations.
	ErrFieldOperation = errors.New("field operation error")

	// ErrCollection classifies collection navigation and storage failures.
	ErrCollection = errors.New("collection error")

	// ErrGrouping classifies grouping tree failures.
	ErrGrouping = errors.New("grouping error")

	// ErrMemoryLimitExceeded is returned when an index would exceed
	// Config.IndexMemoryLimit.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// Classify wraps err with its kind: ErrIndex, ErrFieldOperation,
// ErrCollection or ErrGrouping. The original error stays reachable through
// errors.Is and errors.As. Errors of unknown origin are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if kind := kindOf(err); kind != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}

func kindOf(err error) error {
	switch {
	case errors.Is(err, ErrIndex), errors.Is(err, ErrFieldOperation),
		errors.Is(err, ErrCollection), errors.Is(err, ErrGrouping):
		return nil
	case errors.Is(err, group.ErrParentDataEmpty):
		return ErrGrouping
	}

	var (
		build    *index.BuildError
		compat   *index.CompatibilityError
		notFound *index.NotFoundError
	)
	switch {
	case errors.As(err, &build), errors.As(err, &compat), errors.As(err, &notFound),
		errors.Is(err, index.ErrKindMismatch), errors.Is(err, index.ErrMixedKinds),
		errors.Is(err, index.ErrInvalidBucketSize), errors.Is(err, index.ErrInvalidNGramSize),
		errors.Is(err, index.ErrBitOutOfRange), errors.Is(err, resource.ErrMemoryLimitExceeded):
		return ErrIndex
	}

	var (
		conv *field.ConvertError
		op   *field.OperationError
	)
	switch {
	case errors.As(err, &conv), errors.As(err, &op),
		errors.Is(err, field.ErrOperationListEmpty), errors.Is(err, field.ErrUndefinedType):
		return ErrFieldOperation
	}

	var mismatch *collection.IndexMismatchError
	switch {
	case errors.As(err, &mismatch),
		errors.Is(err, collection.ErrEmptyOperations), errors.Is(err, collection.ErrMaxHistoryExceeded),
		errors.Is(err, collection.ErrDataNotFound), errors.Is(err, collection.ErrParentDataUnavailable),
		errors.Is(err, collection.ErrWrongStorageMode), errors.Is(err, collection.ErrInvalidLevel),
		errors.Is(err, collection.ErrInvalidPosition):
		return ErrCollection
	}
	return nil
}
