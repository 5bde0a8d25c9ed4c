package playlist

import (
	"errors"
	"fmt"
)

var (
	// ErrRange is returned when a requested index is outside [0, N).
	ErrRange = errors.New("playlist index out of range")
	// ErrInvalidEntries is returned when entries do not form a contiguous index range.
	ErrInvalidEntries = errors.New("invalid playlist entries")
)

// RangeError carries the rejected index and the playlist length.
type RangeError struct {
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("playlist index %d out of range [0, %d)", e.Index, e.Len)
}

func (e *RangeError) Unwrap() error {
	return ErrRange
}
