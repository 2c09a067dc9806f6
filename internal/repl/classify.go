package repl

import (
	"errors"
	"fmt"

	"github.com/samsaffron/tavily-agent/internal/llm"
	"github.com/samsaffron/tavily-agent/internal/mcp"
)

// Problem is the user-facing summary of a failed turn.
type Problem struct {
	Message string
	Hint    string

	// Known is false for errors outside the recognised taxonomy. Those are
	// logged with full detail and shown only as a generic message.
	Known bool
}

const genericHint = "Please try a different request."

// Classify maps a turn error to a short message and an actionable hint. It
// never includes the error text for unknown errors.
func Classify(err error) Problem {
	var connErr *mcp.ConnectionError
	var apiErr *llm.APIError

	switch {
	case errors.Is(err, llm.ErrUnreachable):
		return Problem{
			Message: "The model could not be reached.",
			Hint:    "Check that Ollama is running and OLLAMA_HOST is correct.",
			Known:   true,
		}
	case errors.As(err, &connErr):
		return Problem{
			Message: "The search service could not be reached.",
			Hint:    "Check your network connection and TAVILY_API_KEY.",
			Known:   true,
		}
	case errors.Is(err, llm.ErrBadRequest):
		return Problem{
			Message: "The model rejected the request.",
			Hint:    "Check your input, and that MODEL_ID names a model Ollama has pulled.",
			Known:   true,
		}
	case errors.As(err, &apiErr):
		return Problem{
			Message: fmt.Sprintf("The model returned an error (HTTP %d).", apiErr.StatusCode),
			Hint:    genericHint,
			Known:   true,
		}
	default:
		return Problem{
			Message: "An error occurred.",
			Hint:    genericHint,
		}
	}
}
