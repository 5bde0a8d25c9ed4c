package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch matches every failure to retrieve the feed document.
	ErrFetch = errors.New("feed fetch failed")
	// ErrParse matches every failure to decode the feed document.
	ErrParse = errors.New("feed parse failed")
)

// FetchError reports a transport failure or a non-2xx response. Status is
// zero when no response was received.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("feed fetch failed: bad status %d", e.Status)
	}
	return fmt.Sprintf("feed fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// ParseError reports a malformed feed document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("feed parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
