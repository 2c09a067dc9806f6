package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable wraps failures to reach the inference host at all.
	ErrUnreachable = errors.New("model host unreachable")

	// ErrBadRequest wraps requests the inference host rejected as invalid,
	// including unknown models.
	ErrBadRequest = errors.New("model request rejected")

	// ErrToolUnavailable is matched by tool errors that mean the tool's
	// provider is gone. The engine ends the turn with such an error instead
	// of reporting it to the model as tool output.
	ErrToolUnavailable = errors.New("tool provider unavailable")
)

// APIError is a non-success HTTP reply from the inference host.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap maps client-side status codes onto ErrBadRequest so callers can
// match with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case 400, 404, 422:
		return ErrBadRequest
	}
	return nil
}
