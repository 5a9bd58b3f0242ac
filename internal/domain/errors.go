package domain

import "errors"

var (
	// ErrNotFound indicates an unknown username or resource id.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a user whose name is taken.
	ErrConflict = errors.New("already exists")
	// ErrInvalidPin indicates a PIN that is not exactly four decimal digits.
	ErrInvalidPin = errors.New("pin must be 4 digits")
	// ErrAlreadyClaimed is returned when claiming a PIN that is already set.
	ErrAlreadyClaimed = errors.New("pin already set")
	// ErrPinNotSet indicates the account is still unclaimed.
	ErrPinNotSet = errors.New("pin needs to be set")
	// ErrIncorrectPin indicates a PIN mismatch on login.
	ErrIncorrectPin = errors.New("incorrect pin")
	// ErrSelfDeleteForbidden is returned when an admin deletes themselves.
	ErrSelfDeleteForbidden = errors.New("cannot delete yourself")
	// ErrInvalidToken indicates a missing, unknown, or expired bearer token.
	ErrInvalidToken = errors.New("invalid or expired token")
)
