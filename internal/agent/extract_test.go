package agent

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/samsaffron/tavily-agent/internal/llm"
)

func TestStripReasoning(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no marker", "Hello there", "Hello there"},
		{"empty", "", ""},
		{"single block", "<think>x</think>\n\nHello", "Hello"},
		{"multiple markers keeps text after last", "<think>a</think>\n\nmid</think>\n\nfinal", "final"},
		{"marker without blank line is not a marker", "<think>x</think>\nHello", "<think>x</think>\nHello"},
		{"marker at end", "<think>x</think>\n\n", ""},
		{"keeps later blank lines", "<think>x</think>\n\nline 1\n\nline 2", "line 1\n\nline 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripReasoning(tt.in); got != tt.want {
				t.Errorf("StripReasoning(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripReasoning_IdempotentOnCleanText(t *testing.T) {
	for _, s := range []string{"Hello", "# Title\n\n- a\n- b", "no think tags </think> here"} {
		once := StripReasoning(s)
		if once != s {
			t.Errorf("clean text changed: %q -> %q", s, once)
		}
		if twice := StripReasoning(once); twice != once {
			t.Errorf("not idempotent: %q -> %q", once, twice)
		}
	}
}

func TestExtract_ThinkScenario(t *testing.T) {
	resp := llm.TextResponse("<think>x</think>\n\nHello")
	if got := Extract(resp, nil); got != "Hello" {
		t.Errorf("Extract = %q, want Hello", got)
	}
}

func TestExtract_MalformedReturnsApology(t *testing.T) {
	tests := []struct {
		name string
		resp *llm.Response
	}{
		{"nil response", nil},
		{"no content", &llm.Response{}},
		{"non-text block", &llm.Response{Content: []llm.ContentBlock{{Type: "image"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			if got := Extract(tt.resp, logger); got != Apology {
				t.Errorf("Extract = %q, want apology", got)
			}
			if !strings.Contains(buf.String(), "level=WARN") {
				t.Errorf("expected a warning log, got %q", buf.String())
			}
		})
	}
}

func TestExtractText_UntypedBlockIsText(t *testing.T) {
	resp := &llm.Response{Content: []llm.ContentBlock{{Text: "plain"}}}
	got, err := ExtractText(resp)
	if err != nil || got != "plain" {
		t.Errorf("ExtractText = %q, %v", got, err)
	}
}
