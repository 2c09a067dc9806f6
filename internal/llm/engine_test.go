package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// scriptedProvider returns canned results in order and records requests.
type scriptedProvider struct {
	results  []*ChatResult
	err      error
	requests []ChatRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(_ context.Context, req ChatRequest) (*ChatResult, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	i := len(p.requests) - 1
	if i >= len(p.results) {
		return p.results[len(p.results)-1], nil
	}
	return p.results[i], nil
}

type fakeExecutor struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeExecutor) Execute(_ context.Context, name string, _ map[string]any) (string, error) {
	f.calls = append(f.calls, name)
	if err := f.errs[name]; err != nil {
		return "", err
	}
	return f.outputs[name], nil
}

func toolCallResult(name string) *ChatResult {
	return &ChatResult{Message: Message{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{Name: name, Arguments: map[string]any{"q": "x"}}},
	}}
}

func textResult(text string) *ChatResult {
	return &ChatResult{Message: Message{Role: RoleAssistant, Content: text}, InputTokens: 5, OutputTokens: 2}
}

func TestEngine_PlainAnswer(t *testing.T) {
	p := &scriptedProvider{results: []*ChatResult{textResult("hello")}}
	e := NewEngine(p, ModelConfig{Model: "qwen3:4b", Temperature: 0.2}, nil)

	resp, err := e.Run(context.Background(), Request{
		System:  "be nice",
		History: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.Content[0].Text != "hello" {
		t.Errorf("text = %q, want hello", resp.Content[0].Text)
	}
	if resp.Metrics.Cycles != 1 || resp.Metrics.InputTokens != 5 {
		t.Errorf("metrics = %+v", resp.Metrics)
	}

	req := p.requests[0]
	if req.Model != "qwen3:4b" || req.Temperature != 0.2 {
		t.Errorf("request model settings = %q/%v", req.Model, req.Temperature)
	}
	if req.Messages[0].Role != RoleSystem || req.Messages[0].Content != "be nice" {
		t.Errorf("first message = %+v, want system instruction", req.Messages[0])
	}
}

func TestEngine_ExecutesToolsThenAnswers(t *testing.T) {
	p := &scriptedProvider{results: []*ChatResult{
		toolCallResult("tavily_search"),
		textResult("found it"),
	}}
	exec := &fakeExecutor{outputs: map[string]string{"tavily_search": "result text"}}
	e := NewEngine(p, ModelConfig{Model: "m"}, exec)

	resp, err := e.Run(context.Background(), Request{
		History: []Message{{Role: RoleUser, Content: "search"}},
		Tools:   []ToolSpec{{Name: "tavily_search"}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.Content[0].Text != "found it" {
		t.Errorf("text = %q", resp.Content[0].Text)
	}
	if resp.Metrics.ToolCalls != 1 || resp.Metrics.Cycles != 2 {
		t.Errorf("metrics = %+v", resp.Metrics)
	}

	second := p.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != RoleTool || last.Content != "result text" || last.ToolName != "tavily_search" {
		t.Errorf("tool result message = %+v", last)
	}
	if prev := second[len(second)-2]; prev.Role != RoleAssistant || len(prev.ToolCalls) != 1 {
		t.Errorf("assistant tool-call message = %+v", prev)
	}
}

func TestEngine_ToolErrorIsFedBack(t *testing.T) {
	p := &scriptedProvider{results: []*ChatResult{toolCallResult("shell"), textResult("ok")}}
	exec := &fakeExecutor{errs: map[string]error{"shell": errors.New("permission denied")}}
	e := NewEngine(p, ModelConfig{Model: "m"}, exec)

	if _, err := e.Run(context.Background(), Request{Tools: []ToolSpec{{Name: "shell"}}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	msgs := p.requests[1].Messages
	if got := msgs[len(msgs)-1].Content; !strings.Contains(got, "permission denied") {
		t.Errorf("tool output = %q, want error text", got)
	}
}

func TestEngine_UnavailableToolProviderEndsRun(t *testing.T) {
	p := &scriptedProvider{results: []*ChatResult{toolCallResult("tavily_search"), textResult("never")}}
	lost := fmt.Errorf("remote tool tavily_search: %w", ErrToolUnavailable)
	exec := &fakeExecutor{errs: map[string]error{"tavily_search": lost}}
	e := NewEngine(p, ModelConfig{Model: "m"}, exec)

	_, err := e.Run(context.Background(), Request{Tools: []ToolSpec{{Name: "tavily_search"}}})
	if err != lost {
		t.Fatalf("err = %v, want the executor error", err)
	}
	if len(p.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(p.requests))
	}
}

func TestEngine_ProviderErrorReturnedUnchanged(t *testing.T) {
	wantErr := &APIError{Provider: "Ollama", StatusCode: 404, Body: "model not found"}
	p := &scriptedProvider{err: wantErr}
	e := NewEngine(p, ModelConfig{Model: "m"}, nil)

	_, err := e.Run(context.Background(), Request{})
	if err != wantErr {
		t.Fatalf("err = %v, want the provider error unchanged", err)
	}
}

func TestEngine_LastCycleDropsTools(t *testing.T) {
	p := &scriptedProvider{results: []*ChatResult{toolCallResult("shell"), toolCallResult("shell")}}
	exec := &fakeExecutor{outputs: map[string]string{"shell": "out"}}
	e := NewEngine(p, ModelConfig{Model: "m"}, exec, WithMaxCycles(2))

	_, err := e.Run(context.Background(), Request{Tools: []ToolSpec{{Name: "shell"}}})
	if err == nil {
		t.Fatal("expected error when the model never answers")
	}
	if len(p.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(p.requests))
	}
	if len(p.requests[1].Tools) != 0 {
		t.Error("final cycle should not offer tools")
	}
	msgs := p.requests[1].Messages
	if msgs[len(msgs)-1].Content != stopToolsHint {
		t.Errorf("final cycle should end with the stop hint, got %q", msgs[len(msgs)-1].Content)
	}
}

func TestEngine_CancelledDuringTool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &scriptedProvider{results: []*ChatResult{toolCallResult("shell"), textResult("late")}}
	exec := &cancellingExecutor{cancel: cancel}
	e := NewEngine(p, ModelConfig{Model: "m"}, exec)

	_, err := e.Run(ctx, Request{Tools: []ToolSpec{{Name: "shell"}}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(p.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(p.requests))
	}
}

type cancellingExecutor struct{ cancel context.CancelFunc }

func (c *cancellingExecutor) Execute(context.Context, string, map[string]any) (string, error) {
	c.cancel()
	return "", nil
}
