package collection

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyOperations is returned when a query carries no operations.
	ErrEmptyOperations = errors.New("operation list is empty")

	// ErrMaxHistoryExceeded names the history bound. Filters drop the oldest
	// filtered level instead of returning it.
	ErrMaxHistoryExceeded = errors.New("maximum filter history exceeded")

	// ErrDataNotFound is returned when a requested record does not exist.
	ErrDataNotFound = errors.New("data not found")

	// ErrParentDataUnavailable is returned when a derived collection's
	// owner has been released.
	ErrParentDataUnavailable = errors.New("parent data is no longer available")

	// ErrWrongStorageMode is returned by operations that need the other
	// storage mode.
	ErrWrongStorageMode = errors.New("operation not supported by storage mode")

	// ErrInvalidLevel is returned for a level outside the history.
	ErrInvalidLevel = errors.New("invalid level")

	// ErrInvalidPosition is returned for a position outside the current sequence.
	ErrInvalidPosition = errors.New("invalid position")
)

// IndexMismatchError lists indices that do not describe the current level.
type IndexMismatchError struct {
	Names []string
}

func (e *IndexMismatchError) Error() string {
	return fmt.Sprintf("indexes out of sync with current level: %s", strings.Join(e.Names, ", "))
}
