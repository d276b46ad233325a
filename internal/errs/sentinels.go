// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrInvalidMessage indicates a message missing sender, recipient or body.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidRequest indicates a malformed request (empty login, bad filter).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrStorageUnavailable wraps transient failures talking to the store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDeserialization indicates stored bytes that do not decode into the expected shape.
	ErrDeserialization = errors.New("deserialization error")

	// ErrStorageCorruption indicates a decodable value that violates mailbox invariants.
	ErrStorageCorruption = errors.New("storage corruption")

	// ErrNotFound indicates the requested key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the sender exceeded its send budget.
	ErrRateLimited = errors.New("rate limited")
)
