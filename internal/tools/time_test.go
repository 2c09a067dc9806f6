package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCurrentTimeTool(t *testing.T) {
	fixed := time.Date(2025, 9, 13, 14, 30, 0, 0, time.UTC)
	tool := NewCurrentTimeTool(func() time.Time { return fixed })

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"default utc", nil, "2025-09-13T14:30:00Z (Saturday)"},
		{"explicit utc", map[string]any{"timezone": "UTC"}, "2025-09-13T14:30:00Z"},
		{"named zone", map[string]any{"timezone": "Asia/Tokyo"}, "2025-09-13T23:30:00+09:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tool.Execute(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("got %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestCurrentTimeTool_UnknownZone(t *testing.T) {
	tool := NewCurrentTimeTool(nil)
	_, err := tool.Execute(context.Background(), map[string]any{"timezone": "Mars/Olympus"})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Type != ErrInvalidParams {
		t.Errorf("err = %v, want INVALID_PARAMS", err)
	}
}
