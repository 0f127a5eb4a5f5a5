package types

import "errors"

var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the resource conflicts (e.g. update of old revision)
	ErrConflict = errors.New("conflict")

	// ErrBadRequest is returned on an unclassified storage error response
	ErrBadRequest = errors.New("bad request")

	// ErrInvalidEmail is returned when the email is invalid
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidKeyFormat is returned when a key does not match its canonical shape.
	// Format failures are rejected before any store access.
	ErrInvalidKeyFormat = errors.New("invalid key format")

	// ErrKeyInvalidOrExpired covers wrong, consumed and expired keys alike so the
	// caller cannot tell whether a key ever existed
	ErrKeyInvalidOrExpired = errors.New("invalid or expired key")

	// ErrNotAuthorized is returned when the identity assertion capability is missing
	ErrNotAuthorized = errors.New("not authorized")

	// ErrUserExists is returned when registering an already registered email
	ErrUserExists = errors.New("user already exists")

	// ErrInternal (for unhandled exceptions)
	ErrInternal = errors.New("internal error")
)
