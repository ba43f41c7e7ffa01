package common

import "errors"

// Sentinel errors shared by the client layers. Callers should use
// errors.Is to match these values.
var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors. An expired token is fatal for the session:
	// the sync core must stop and hand control back to the session owner.
	ErrTokenExpired = errors.New("token expired")

	// ErrNoSession means no identity is available at all; the sync core
	// does not initialize in this state.
	ErrNoSession = errors.New("no session")
)
