package auth

import "errors"

var (
	// ErrNotFound is returned when no identity matches a lookup.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when registering an email that is
	// already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)
