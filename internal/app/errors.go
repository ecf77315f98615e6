package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("caller identity required")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrMovementNotFound = errors.New("movement not found")
	ErrDataAccess       = errors.New("data access failed")
)

// RateLimitError is returned when the caller exhausted its window.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v: retry after %s", ErrRateLimited, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// RetryAfterSeconds rounds the wait up to whole seconds, never below one.
func (e *RateLimitError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// NotFoundError lists the requested movement ids that do not exist.
type NotFoundError struct {
	IDs []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMovementNotFound, strings.Join(e.IDs, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrMovementNotFound
}

func dataAccess(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDataAccess, op, err)
}
