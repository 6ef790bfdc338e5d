package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested handle or record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the shared secret was wrong or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServiceUnavailable indicates the durable store could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUpstream indicates the identity provider failed or answered with garbage
	ErrUpstream = errors.New("upstream provider failure")

	// ErrSerialization indicates a token bundle could not be encoded
	ErrSerialization = errors.New("serialization failed")
)
