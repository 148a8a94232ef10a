package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrUserExists      = errors.New("user already exists")
	ErrSlugTaken       = errors.New("slug already used in this section")
	ErrInvalidSection  = errors.New("unknown section")
	ErrInvalidEntry    = errors.New("invalid entry")
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// LockoutError is returned when the login limiter refuses an attempt.
// ResetTime is when the identifier may try again.
type LockoutError struct {
	ResetTime time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrTooManyAttempts, e.ResetTime.UTC().Format(time.RFC3339))
}

func (e *LockoutError) Unwrap() error {
	return ErrTooManyAttempts
}
