package backend

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout matches every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("backend: request timed out")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint string
	Code     int
	Status   string
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: status %d: %s", e.Endpoint, e.Code, e.Body)
}

// TimeoutError is returned when a call exceeds its endpoint timeout.
type TimeoutError struct {
	Endpoint string
	After    time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend %s: timed out after %s", e.Endpoint, e.After)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Is reports ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
