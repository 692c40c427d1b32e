package main

import (
	"errors"
	"fmt"
)

var (
	errMissingAPIKey     = errors.New("no FMP api key configured")
	errStoreNotAvailable = errors.New("income statement store is not available")
)

// FetchError means the upstream provider could not be reached or answered
// with a non-success status. Nothing has been written when it is returned.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means the upstream payload (or one item in it) was malformed.
// Index is -1 when the body as a whole could not be decoded.
type ParseError struct {
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("parse income statement payload: %v", e.Err)
	}
	return fmt.Sprintf("parse income statement item %d: %v", e.Index, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FilterError reports a query parameter on /filter that is present but unusable.
type FilterError struct {
	Param string
	Value string
	Err   error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Param, e.Value, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }
