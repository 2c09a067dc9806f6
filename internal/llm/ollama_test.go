package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/tavily-agent/internal/logging"
)

func TestOllamaProvider_ChatRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"model":"qwen3:4b","message":{"role":"assistant","content":"hi"},"done":true,"prompt_eval_count":12,"eval_count":3,"total_duration":2000000}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", nil, nil)
	res, err := p.Chat(context.Background(), ChatRequest{
		Model:       "qwen3:4b",
		Messages:    []Message{{Role: RoleUser, Content: "hello"}},
		Tools:       []ToolSpec{{Name: "current_time", Description: "time"}},
		Temperature: 0.2,
		KeepAlive:   10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if got["model"] != "qwen3:4b" {
		t.Errorf("model = %v", got["model"])
	}
	if got["stream"] != false {
		t.Errorf("stream = %v, want false", got["stream"])
	}
	if got["keep_alive"] != "10m0s" {
		t.Errorf("keep_alive = %v, want 10m0s", got["keep_alive"])
	}
	opts, _ := got["options"].(map[string]any)
	if opts["temperature"] != 0.2 {
		t.Errorf("temperature = %v, want 0.2", opts["temperature"])
	}
	tools, _ := got["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tools = %v, want 1 entry", got["tools"])
	}
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	if fn["name"] != "current_time" {
		t.Errorf("tool name = %v", fn["name"])
	}
	if _, ok := fn["parameters"].(map[string]any); !ok {
		t.Error("tool without schema should get an empty object schema")
	}

	if res.Message.Content != "hi" {
		t.Errorf("content = %q, want hi", res.Message.Content)
	}
	if res.InputTokens != 12 || res.OutputTokens != 3 {
		t.Errorf("tokens = %d/%d, want 12/3", res.InputTokens, res.OutputTokens)
	}
	if res.TotalDuration != 2*time.Millisecond {
		t.Errorf("TotalDuration = %v, want 2ms", res.TotalDuration)
	}
}

func TestOllamaProvider_ToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"tavily_search","arguments":{"query":"go 1.25"}}}]},"done":true}`))
	}))
	defer srv.Close()

	res, err := NewOllamaProvider(srv.URL, nil, nil).Chat(context.Background(), ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(res.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(res.Message.ToolCalls))
	}
	call := res.Message.ToolCalls[0]
	if call.Name != "tavily_search" || call.Arguments["query"] != "go 1.25" {
		t.Errorf("call = %+v", call)
	}
}

func TestOllamaProvider_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		badRequest bool
	}{
		{"model not found", http.StatusNotFound, `{"error":"model 'nope' not found"}`, true},
		{"bad request", http.StatusBadRequest, `{"error":"invalid options"}`, true},
		{"server error", http.StatusInternalServerError, `boom`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaProvider(srv.URL, nil, nil).Chat(context.Background(), ChatRequest{Model: "nope"})
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if got := errors.Is(err, ErrBadRequest); got != tt.badRequest {
				t.Errorf("errors.Is(ErrBadRequest) = %v, want %v", got, tt.badRequest)
			}
		})
	}
}

func TestOllamaProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOllamaProvider(url, nil, nil).Chat(context.Background(), ChatRequest{Model: "m"})
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestOllamaProvider_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"qwen3:4b"},{"name":"llama3.2:3b"}]}`))
	}))
	defer srv.Close()

	names, err := NewOllamaProvider(srv.URL, nil, nil).Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if len(names) != 2 || names[0] != "qwen3:4b" {
		t.Errorf("names = %v", names)
	}
}

func TestOllamaProvider_DefaultHost(t *testing.T) {
	p := NewOllamaProvider("", nil, nil)
	if p.baseURL != DefaultOllamaHost {
		t.Errorf("baseURL = %q, want %q", p.baseURL, DefaultOllamaHost)
	}
}

func TestOllamaProvider_TraceLogsBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"traced answer"},"done":true}`))
	}))
	defer srv.Close()

	req := ChatRequest{Model: "m", Messages: []Message{{Role: RoleUser, Content: "traced question"}}}

	var buf bytes.Buffer
	p := NewOllamaProvider(srv.URL, nil, logging.New(&buf, logging.LevelTrace, "text"))
	if _, err := p.Chat(context.Background(), req); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"level=TRACE", "ollama chat request body", "traced question", "ollama chat response body", "traced answer"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace log missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	p = NewOllamaProvider(srv.URL, nil, logging.New(&buf, slog.LevelDebug, "text"))
	if _, err := p.Chat(context.Background(), req); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if strings.Contains(buf.String(), "traced question") {
		t.Errorf("bodies logged above trace level:\n%s", buf.String())
	}
}
