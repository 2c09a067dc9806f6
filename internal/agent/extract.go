package agent

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/samsaffron/tavily-agent/internal/llm"
)

// ReasoningEndMarker closes the reasoning block that thinking models (qwen3,
// deepseek-r1) emit before their answer. Everything up to and including the
// last marker is reasoning.
//
// MarkerVersion is bumped whenever the marker rule changes.
const (
	ReasoningEndMarker = "</think>\n\n"
	MarkerVersion      = 1
)

// Apology is shown in place of a reply that could not be read.
const Apology = "Sorry, I couldn't read the model's response. Please try again."

var (
	errNoResponse = errors.New("no response")
	errNoContent  = errors.New("response has no content blocks")
	errNotText    = errors.New("first content block is not text")
)

// ExtractText returns the user-facing text of a response, or an error when
// the response has no readable text block at index 0.
func ExtractText(resp *llm.Response) (string, error) {
	if resp == nil {
		return "", errNoResponse
	}
	if len(resp.Content) == 0 {
		return "", errNoContent
	}
	block := resp.Content[0]
	if block.Type != "" && block.Type != llm.ContentTypeText {
		return "", errNotText
	}
	return StripReasoning(block.Text), nil
}

// StripReasoning drops everything up to and including the last
// ReasoningEndMarker. Text without the marker is returned unchanged.
func StripReasoning(text string) string {
	if i := strings.LastIndex(text, ReasoningEndMarker); i >= 0 {
		return text[i+len(ReasoningEndMarker):]
	}
	return text
}

// Extract is ExtractText for display: a malformed response is logged and
// replaced with Apology instead of failing.
func Extract(resp *llm.Response, logger *slog.Logger) string {
	text, err := ExtractText(resp)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("could not extract response text", "error", err)
		return Apology
	}
	return text
}
