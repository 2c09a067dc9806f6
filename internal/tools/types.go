// Package tools provides the local tools offered to the model alongside the
// remote tool provider's tools.
package tools

import (
	"context"
	"fmt"

	"github.com/samsaffron/tavily-agent/internal/llm"
)

// Tool names.
const (
	ShellToolName       = "shell"
	CurrentTimeToolName = "current_time"
)

// AllToolNames lists every local tool.
var AllToolNames = []string{CurrentTimeToolName, ShellToolName}

// Tool is a locally executed tool.
type Tool interface {
	Spec() llm.ToolSpec
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ToolErrorType provides structured errors the model can act on.
type ToolErrorType string

const (
	ErrInvalidParams    ToolErrorType = "INVALID_PARAMS"
	ErrExecutionFailed  ToolErrorType = "EXECUTION_FAILED"
	ErrPermissionDenied ToolErrorType = "PERMISSION_DENIED"
	ErrUnknownTool      ToolErrorType = "UNKNOWN_TOOL"
)

// ToolError provides structured error information for retry logic.
type ToolError struct {
	Type    ToolErrorType `json:"type"`
	Message string        `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewToolError creates a new ToolError.
func NewToolError(errType ToolErrorType, message string) *ToolError {
	return &ToolError{Type: errType, Message: message}
}

// NewToolErrorf creates a new ToolError with formatted message.
func NewToolErrorf(errType ToolErrorType, format string, args ...any) *ToolError {
	return &ToolError{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// stringArg reads an optional string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", NewToolErrorf(ErrInvalidParams, "%s must be a string", key)
	}
	return s, nil
}

// intArg reads an optional integer argument. JSON numbers decode as float64.
func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	}
	return 0, NewToolErrorf(ErrInvalidParams, "%s must be a number", key)
}
