package service

import (
	"errors"
	"fmt"
)

var (
	ErrTooManyAttempts = errors.New("too many booking attempts, try again later")
	ErrInvalidRange    = errors.New("from must not be after to")
)

// ValidationError reports a malformed admin input before it reaches storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
