package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultMaxCycles = 10
	stopToolsHint    = "IMPORTANT: Do not call any more tools. Use the information already retrieved and answer directly."
)

// ToolExecutor runs a tool the model asked for and returns its output text.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// Request is one agent invocation: the system instruction, the replayed
// history (ending with the new user message) and the tools on offer.
type Request struct {
	System  string
	History []Message
	Tools   []ToolSpec
}

// Engine runs the model/tool loop: it calls the provider, executes any tool
// calls the model makes, feeds the results back and repeats until the model
// answers in plain text.
type Engine struct {
	provider  Provider
	config    ModelConfig
	executor  ToolExecutor
	maxCycles int
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxCycles bounds the number of model calls per invocation.
func WithMaxCycles(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxCycles = n
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine for the given provider and model settings.
// A nil executor means tool calls are answered with an error message.
func NewEngine(provider Provider, config ModelConfig, executor ToolExecutor, opts ...EngineOption) *Engine {
	e := &Engine{
		provider:  provider,
		config:    config,
		executor:  executor,
		maxCycles: defaultMaxCycles,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the model settings the engine was built with.
func (e *Engine) Config() ModelConfig {
	return e.config
}

// Run executes one invocation. Provider errors are returned unchanged; tool
// failures are reported back to the model as tool output, except a lost tool
// provider, which ends the invocation with that error.
func (e *Engine) Run(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	var metrics Metrics

	messages := make([]Message, 0, len(req.History)+1)
	if req.System != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: req.System})
	}
	messages = append(messages, req.History...)

	for cycle := 0; cycle < e.maxCycles; cycle++ {
		tools := req.Tools
		last := cycle == e.maxCycles-1
		if last && len(tools) > 0 {
			tools = nil
			messages = append(messages, Message{Role: RoleSystem, Content: stopToolsHint})
		}

		result, err := e.provider.Chat(ctx, ChatRequest{
			Model:       e.config.Model,
			Messages:    messages,
			Tools:       tools,
			Temperature: e.config.Temperature,
			KeepAlive:   e.config.KeepAlive,
		})
		if err != nil {
			return nil, err
		}

		metrics.Cycles++
		metrics.InputTokens += result.InputTokens
		metrics.OutputTokens += result.OutputTokens
		metrics.ModelTime += result.TotalDuration

		if len(result.Message.ToolCalls) == 0 {
			metrics.Latency = time.Since(start)
			return &Response{
				Content: []ContentBlock{{Type: ContentTypeText, Text: result.Message.Content}},
				Metrics: metrics,
			}, nil
		}

		assistant := result.Message
		assistant.Role = RoleAssistant
		messages = append(messages, assistant)

		for _, call := range result.Message.ToolCalls {
			metrics.ToolCalls++
			metrics.ToolNames = append(metrics.ToolNames, call.Name)
			output, err := e.executeTool(ctx, call)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if err != nil {
				return nil, err
			}
			messages = append(messages, Message{
				Role:     RoleTool,
				Content:  output,
				ToolName: call.Name,
			})
		}
	}

	return nil, fmt.Errorf("model did not produce an answer after %d cycles", e.maxCycles)
}

// executeTool runs one call. Tool failures become error text for the model;
// only a failure matching ErrToolUnavailable is returned.
func (e *Engine) executeTool(ctx context.Context, call ToolCall) (string, error) {
	if e.executor == nil {
		return fmt.Sprintf("Error: tool %q is not available", call.Name), nil
	}

	start := time.Now()
	out, err := e.executor.Execute(ctx, call.Name, call.Arguments)
	if errors.Is(err, ErrToolUnavailable) {
		e.logger.Warn("tool provider unavailable", "tool", call.Name, "error", err)
		return "", err
	}
	if err != nil {
		args, _ := json.Marshal(call.Arguments)
		e.logger.Warn("tool call failed",
			"tool", call.Name,
			"args", string(args),
			"error", err,
		)
		return fmt.Sprintf("Error: %v", err), nil
	}

	e.logger.Debug("tool call completed",
		"tool", call.Name,
		"duration", time.Since(start),
		"output_bytes", len(out),
	)
	return out, nil
}
