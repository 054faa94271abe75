// Package apperr defines the error taxonomy shared by the service layer.
// Handlers map these to HTTP statuses; anything unwrapped is a 500.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrProvider   = errors.New("payment provider error")
)

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

func Providerf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrProvider)...)
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsProvider(err error) bool   { return errors.Is(err, ErrProvider) }
