package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique key is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalid indicates a record failed validation.
	ErrInvalid = errors.New("invalid")
	// ErrInvalidTransition indicates a disallowed order status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrMalformedRecord indicates an external payload could not be mapped.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUpstreamUnavailable indicates the commerce platform could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUnauthorized indicates a request failed signature verification.
	ErrUnauthorized = errors.New("unauthorized")
)
