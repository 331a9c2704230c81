package api

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is across the client core.
var (
	// ErrUnauthorized covers invalid credentials and invalid/expired tokens.
	// The session manager treats it as session loss.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable covers transient transport and server failures.
	// Cache callers degrade to the last good value.
	ErrUnavailable = errors.New("server unavailable")
)

// AuthError is an authentication failure carrying the server's message.
// errors.Is(err, ErrUnauthorized) matches it.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Message)
}

func (e *AuthError) Unwrap() error { return ErrUnauthorized }

// ValidationError is a user-correctable input failure. The server message is
// surfaced verbatim so forms can display it.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Reason extracts the human-readable message from err for display to the
// user. Falls back to err.Error().
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
