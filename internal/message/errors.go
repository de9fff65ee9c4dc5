package message

import "errors"

var (
	ErrNoAssociatedUser   = errors.New("postedBy does not refer to an existing account")
	ErrInvalidMessageText = errors.New("message text must be between 1 and 255 characters")

	// ErrMessageNotFound is returned by the store when no row matches.
	ErrMessageNotFound = errors.New("message not found")
)
