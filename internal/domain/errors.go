package domain

import "fmt"

// NetworkError reports an HTTP-level feed failure: a non-success response,
// or a transport error (StatusCode 0) before any response arrived.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("feed request failed: %v", e.Err)
	}
	return fmt.Sprintf("feed returned status %d", e.StatusCode)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a malformed or absent feature collection. Malformed
// individual records are tolerated and never produce a ParseError.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed feed payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
