package service

import "errors"

// Sentinel errors returned by services. Callers inspect them with
// errors.Is; the wrapped message is meant for humans.
var (
	// ErrNotFound is returned when a record or a referenced user is absent.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest is returned for malformed or incomplete input.
	ErrBadRequest = errors.New("bad request")

	// ErrAlreadyExists is returned when a uniqueness constraint would be
	// violated.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotImplemented is returned for operations an entity does not
	// support, such as updating a vote.
	ErrNotImplemented = errors.New("not implemented")
)
