package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/samsaffron/tavily-agent/internal/llm"
)

// ToolHandle names a tool offered by the provider together with its input
// schema. Handles are read-only once discovered.
type ToolHandle struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Spec returns the tool specification for the model.
func (h ToolHandle) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        h.Name,
		Description: h.Description,
		Schema:      h.Schema,
	}
}

// Specs converts handles to model tool specifications.
func Specs(handles []ToolHandle) []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(handles))
	for _, h := range handles {
		specs = append(specs, h.Spec())
	}
	return specs
}

// toolHandles validates a tools/list result. A tool without a name or with
// a schema that is not a JSON object makes the whole listing malformed.
func toolHandles(tools []*sdkmcp.Tool) ([]ToolHandle, error) {
	handles := make([]ToolHandle, 0, len(tools))
	for i, t := range tools {
		if t == nil || t.Name == "" {
			return nil, fmt.Errorf("tool %d has no name", i)
		}
		schema, err := schemaMap(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		handles = append(handles, ToolHandle{
			Name:        t.Name,
			Description: t.Description,
			Schema:      schema,
		})
	}
	return handles, nil
}

// schemaMap normalises an input schema to a map. Schemas decoded from the
// wire are already maps; anything else is round-tripped through JSON.
func schemaMap(schema any) (map[string]any, error) {
	switch s := schema.(type) {
	case nil:
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	case map[string]any:
		return s, nil
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode input schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.New("input schema is not a JSON object")
	}
	return m, nil
}
