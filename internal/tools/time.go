package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/samsaffron/tavily-agent/internal/llm"
)

// CurrentTimeTool reports the current date and time.
type CurrentTimeTool struct {
	now func() time.Time
}

// NewCurrentTimeTool creates the tool. A nil clock uses time.Now.
func NewCurrentTimeTool(now func() time.Time) *CurrentTimeTool {
	if now == nil {
		now = time.Now
	}
	return &CurrentTimeTool{now: now}
}

func (t *CurrentTimeTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        CurrentTimeToolName,
		Description: "Get the current date and time in ISO 8601 format. Defaults to UTC.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"timezone": map[string]any{
					"type":        "string",
					"description": "IANA timezone name, e.g. America/New_York, or 'local' (default: UTC)",
				},
			},
		},
	}
}

func (t *CurrentTimeTool) Execute(_ context.Context, args map[string]any) (string, error) {
	zone, err := stringArg(args, "timezone")
	if err != nil {
		return "", err
	}

	loc := time.UTC
	switch zone {
	case "", "UTC", "utc":
	case "local":
		loc = time.Local
	default:
		loc, err = time.LoadLocation(zone)
		if err != nil {
			return "", NewToolErrorf(ErrInvalidParams, "unknown timezone %q", zone)
		}
	}

	now := t.now().In(loc)
	return fmt.Sprintf("%s (%s)", now.Format(time.RFC3339), now.Weekday()), nil
}
