package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("invalid user data")
	ErrNotFound    = errors.New("user not found")
	ErrPersistence = errors.New("persistence failure")
)

func NewValidation(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, a...)...)
}

func NewNotFound(format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, a...)...)
}

// NewPersistence wraps a storage error. Only the sentinel is shown to clients.
func NewPersistence(err error, format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format+": %w", append(append([]interface{}{ErrPersistence}, a...), err)...)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
