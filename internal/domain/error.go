package domain

import "errors"

var (
	// Common domain errors
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotAllowed       = errors.New("user is not on the allow list")
	ErrEmptyPrompt      = errors.New("empty prompt")
	ErrBackend          = errors.New("conversation backend error")
	ErrMalformedReply   = errors.New("malformed backend reply")
	ErrSessionNotReady  = errors.New("conversation session not initialized")
	ErrStoreUnavailable = errors.New("member store unavailable")
)
