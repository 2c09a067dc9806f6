package llm

import (
	"context"
	"time"
)

// Role identifies a message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single chat message exchanged with the model.
type Message struct {
	Role      Role
	Content   string
	ToolCalls []ToolCall

	// ToolName is set on RoleTool messages to name the tool whose output
	// the message carries.
	ToolName string
}

// ToolSpec describes a callable tool.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolCall is a model-requested tool invocation.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// ModelConfig identifies the model and its sampling settings. It is fixed
// for the lifetime of a session.
type ModelConfig struct {
	Model       string
	Temperature float64
	Host        string
	KeepAlive   time.Duration
}

// ChatRequest is a single round trip to the provider.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolSpec
	Temperature float64
	KeepAlive   time.Duration
}

// ChatResult is the provider's reply to one ChatRequest.
type ChatResult struct {
	Message      Message
	InputTokens  int
	OutputTokens int

	TotalDuration time.Duration
	LoadDuration  time.Duration
	EvalDuration  time.Duration
}

// Provider performs one non-streaming chat completion.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

// ContentTypeText marks a text content block.
const ContentTypeText = "text"

// ContentBlock is one piece of the final model reply.
type ContentBlock struct {
	Type string
	Text string
}

// Metrics summarises the work done to produce a Response.
type Metrics struct {
	Cycles       int
	ToolCalls    int
	ToolNames    []string
	InputTokens  int
	OutputTokens int
	Latency      time.Duration
	ModelTime    time.Duration
}

// Attrs returns the metrics as slog key/value pairs.
func (m Metrics) Attrs() []any {
	return []any{
		"cycles", m.Cycles,
		"tool_calls", m.ToolCalls,
		"tools", m.ToolNames,
		"input_tokens", m.InputTokens,
		"output_tokens", m.OutputTokens,
		"latency", m.Latency,
		"model_time", m.ModelTime,
	}
}

// Response is the raw result of one agent invocation: the final assistant
// content plus the metrics gathered while producing it.
type Response struct {
	Content []ContentBlock
	Metrics Metrics
}

// TextResponse builds a Response holding a single text block.
func TextResponse(text string) *Response {
	return &Response{Content: []ContentBlock{{Type: ContentTypeText, Text: text}}}
}
