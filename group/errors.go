package group

import "errors"

// ErrParentDataEmpty is returned when a node's records are no longer
// reachable. It wraps the collection error that caused it.
var ErrParentDataEmpty = errors.New("parent data is empty")
