package errors

import "errors"

var (
	// ErrValidation covers malformed identifiers and out-of-range parameters.
	// Surfaced verbatim to the caller, never retried.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned for unknown sessions or messages.
	ErrNotFound = errors.New("not found")
	// ErrUpstream covers embedding provider and storage failures. Retry policy
	// belongs to the caller.
	ErrUpstream = errors.New("upstream unavailable")
	// ErrStreamProtocol marks a malformed or out-of-order frame. The frame is
	// dropped, the stream continues.
	ErrStreamProtocol = errors.New("stream protocol violation")
)

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}
