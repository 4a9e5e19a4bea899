package github

import (
	"errors"
	"fmt"
)

var (
	ErrStatus       = errors.New("github: unexpected status")
	ErrUnauthorized = errors.New("github: unauthorized")
)

// StatusError is returned for any non-2xx response. It matches ErrUnauthorized
// for 401 and ErrStatus otherwise.
type StatusError struct {
	Code   int
	Method string
	URL    string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: %s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code == 401 {
		return ErrUnauthorized
	}
	return ErrStatus
}
