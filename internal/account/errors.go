package account

import "errors"

var (
	ErrInvalidAccount    = errors.New("invalid account")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUnauthorized      = errors.New("invalid username and/or password")

	// ErrNotFound is returned by the store when no row matches.
	ErrNotFound = errors.New("account not found")
)
