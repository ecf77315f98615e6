package billing

import (
	"errors"
	"fmt"
)

var (
	ErrRateNotFound          = errors.New("billing rate not configured")
	ErrAmbiguousTariff       = errors.New("ambiguous billing rate configuration")
	ErrInvalidInput          = errors.New("invalid movement input")
	ErrClassificationMissing = errors.New("movement traffic classification missing")
)

// MovementError ties a billing failure to the movement that caused it.
type MovementError struct {
	MovementID string
	Err        error
}

func (e *MovementError) Error() string {
	return fmt.Sprintf("movement %s: %v", e.MovementID, e.Err)
}

func (e *MovementError) Unwrap() error {
	return e.Err
}

func movementErr(id string, err error) error {
	return &MovementError{MovementID: id, Err: err}
}
