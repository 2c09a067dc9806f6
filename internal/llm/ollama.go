package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samsaffron/tavily-agent/internal/logging"
)

// DefaultOllamaHost is used when no host is configured.
const DefaultOllamaHost = "http://localhost:11434"

// OllamaProvider talks to Ollama's native /api/chat endpoint. The native API
// is used instead of the OpenAI-compatible one because it honours keep_alive.
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOllamaProvider creates a provider for the given host. A nil client
// gets one without a timeout; model calls are bounded only by ctx.
func NewOllamaProvider(host string, httpClient *http.Client, logger *slog.Logger) *OllamaProvider {
	if host == "" {
		host = DefaultOllamaHost
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(host, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (p *OllamaProvider) Name() string {
	return "Ollama"
}

type ollamaChatRequest struct {
	Model     string          `json:"model"`
	Messages  []ollamaMessage `json:"messages"`
	Tools     []ollamaTool    `json:"tools,omitempty"`
	Stream    bool            `json:"stream"`
	KeepAlive string          `json:"keep_alive,omitempty"`
	Options   *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason,omitempty"`
	TotalDuration   int64         `json:"total_duration,omitempty"`
	LoadDuration    int64         `json:"load_duration,omitempty"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
	EvalDuration    int64         `json:"eval_duration,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Chat sends one non-streaming chat request.
func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	body := ollamaChatRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req.Messages),
		Tools:    toOllamaTools(req.Tools),
		Stream:   false,
		Options:  &ollamaOptions{Temperature: req.Temperature},
	}
	if req.KeepAlive > 0 {
		body.KeepAlive = req.KeepAlive.String()
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	p.logger.Debug("ollama chat request",
		"model", req.Model,
		"messages", len(req.Messages),
		"tools", len(req.Tools),
	)
	p.logger.Log(ctx, logging.LevelTrace, "ollama chat request body", "body", string(data))

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, p.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return nil, &APIError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Body:       extractOllamaError(errBody),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	p.logger.Log(ctx, logging.LevelTrace, "ollama chat response body", "body", string(raw))

	var out ollamaChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%s error: %s", p.Name(), out.Error)
	}

	return &ChatResult{
		Message:       fromOllamaMessage(out.Message),
		InputTokens:   out.PromptEvalCount,
		OutputTokens:  out.EvalCount,
		TotalDuration: time.Duration(out.TotalDuration),
		LoadDuration:  time.Duration(out.LoadDuration),
		EvalDuration:  time.Duration(out.EvalDuration),
	}, nil
}

// Ping checks whether the host answers and returns the installed model names.
func (p *OllamaProvider) Ping(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreachable, p.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return nil, &APIError{Provider: p.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}

func toOllamaMessages(msgs []Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(msgs))
	for _, m := range msgs {
		om := ollamaMessage{
			Role:     string(m.Role),
			Content:  m.Content,
			ToolName: m.ToolName,
		}
		for _, tc := range m.ToolCalls {
			var call ollamaToolCall
			call.Function.Name = tc.Name
			call.Function.Arguments = tc.Arguments
			om.ToolCalls = append(om.ToolCalls, call)
		}
		out = append(out, om)
	}
	return out
}

func toOllamaTools(specs []ToolSpec) []ollamaTool {
	if len(specs) == 0 {
		return nil
	}
	out := make([]ollamaTool, 0, len(specs))
	for _, s := range specs {
		params := s.Schema
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, ollamaTool{
			Type: "function",
			Function: ollamaToolFunction{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func fromOllamaMessage(m ollamaMessage) Message {
	msg := Message{
		Role:    Role(m.Role),
		Content: m.Content,
	}
	if msg.Role == "" {
		msg.Role = RoleAssistant
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg
}

// extractOllamaError pulls the "error" field out of an Ollama error body,
// falling back to the raw body.
func extractOllamaError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
