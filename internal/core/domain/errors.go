package domain

import "errors"

var (
	// ErrMalformedEvent marks an inbound frame with a missing or unusable
	// field. The event is dropped; the connection stays open.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrAlreadyVoted is returned when a user votes twice on the same poll.
	ErrAlreadyVoted = errors.New("already voted in this poll")

	ErrNotFound = errors.New("not found")

	// ErrInvalidToken is returned when a token fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token has expired.
	ErrExpiredToken = errors.New("token has expired")

	// ErrStorageUnavailable wraps a storage collaborator failure. Retryable;
	// the connection stays open.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
