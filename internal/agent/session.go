// Package agent composes the model, the conversation window and the tool
// provider's tools into a single invocable session.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samsaffron/tavily-agent/internal/conversation"
	"github.com/samsaffron/tavily-agent/internal/llm"
	"github.com/samsaffron/tavily-agent/internal/mcp"
)

var (
	// ErrConnectionNotOpen is returned by Start when the tool provider
	// connection has not been opened (or is already closed).
	ErrConnectionNotOpen = errors.New("tool provider connection is not open")

	// ErrSessionClosed is returned by Invoke after Close.
	ErrSessionClosed = errors.New("agent session is closed")
)

// Model runs one invocation against the model collaborator. *llm.Engine
// satisfies it.
type Model interface {
	Run(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// ToolProvider is the open tool provider connection a session borrows.
// *mcp.Connection satisfies it.
type ToolProvider interface {
	IsOpen() bool
	ListTools(ctx context.Context) ([]mcp.ToolHandle, error)
}

// Options are the collaborators a session is built from.
type Options struct {
	Model Model

	// Provider must already be open. Start discovers its tools; the
	// session never closes it.
	Provider ToolProvider

	// LocalTools are offered to the model next to the provider's tools.
	LocalTools []llm.ToolSpec

	// Window must be empty. A nil window gets the default capacity.
	Window *conversation.Window

	Logger *slog.Logger
}

// Session turns one user query into one assistant reply. It is built once by
// Start and used by a single goroutine at a time.
type Session struct {
	model   Model
	window  *conversation.Window
	handles []mcp.ToolHandle
	tools   []llm.ToolSpec
	system  string
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Start discovers the provider's tools and builds a session around them.
// The provider must be open, which fixes the order: open connection,
// discover tools, build session.
func Start(ctx context.Context, opts Options) (*Session, error) {
	if opts.Model == nil {
		return nil, errors.New("agent: model is required")
	}
	if opts.Provider == nil || !opts.Provider.IsOpen() {
		return nil, ErrConnectionNotOpen
	}

	window := opts.Window
	if window == nil {
		window = conversation.NewWindow(conversation.DefaultCapacity)
	}
	if window.Len() != 0 {
		return nil, fmt.Errorf("agent: conversation window already holds %d turns", window.Len())
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handles, err := opts.Provider.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover tools: %w", err)
	}

	tools := make([]llm.ToolSpec, 0, len(opts.LocalTools)+len(handles))
	tools = append(tools, opts.LocalTools...)
	tools = append(tools, mcp.Specs(handles)...)

	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	logger.Info("agent session ready",
		"tools", names,
		"window", window.Capacity(),
	)

	return &Session{
		model:   opts.Model,
		window:  window,
		handles: handles,
		tools:   tools,
		system:  SystemPrompt,
		logger:  logger,
	}, nil
}

// Invoke appends the user text to the window, runs the model with the
// system prompt, window and tools, and appends the extracted reply. Model
// errors are returned unchanged and add no assistant turn. If ctx is done by
// the time the model returns, the reply is dropped and ctx.Err() returned.
func (s *Session) Invoke(ctx context.Context, userText string) (*llm.Response, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrSessionClosed
	}

	s.window.Append(conversation.UserTurn(userText))

	resp, err := s.model.Run(ctx, llm.Request{
		System:  s.system,
		History: toMessages(s.window.Snapshot()),
		Tools:   s.tools,
	})
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	text, err := ExtractText(resp)
	if err != nil {
		s.logger.Warn("storing apology for unreadable response", "error", err)
		text = Apology
	}
	s.window.Append(conversation.AssistantTurn(text))

	return resp, nil
}

// History returns the current window contents.
func (s *Session) History() []conversation.Turn {
	return s.window.Snapshot()
}

// Tools returns every tool offered to the model.
func (s *Session) Tools() []llm.ToolSpec {
	return s.tools
}

// ToolHandles returns the tools discovered from the provider.
func (s *Session) ToolHandles() []mcp.ToolHandle {
	return s.handles
}

// System returns the system instruction.
func (s *Session) System() string {
	return s.system
}

// Close ends the session. It does not close the tool provider connection,
// which belongs to whoever opened it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.logger.Debug("agent session closed", "turns", s.window.Len(), "evicted", s.window.Evicted())
}

func toMessages(turns []conversation.Turn) []llm.Message {
	msgs := make([]llm.Message, len(turns))
	for i, t := range turns {
		role := llm.RoleUser
		if t.Role == conversation.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs[i] = llm.Message{Role: role, Content: t.Content}
	}
	return msgs
}
