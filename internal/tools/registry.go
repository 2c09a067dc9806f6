package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samsaffron/tavily-agent/internal/llm"
)

// Registry holds the local tools by name.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates a registry with the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.tools[t.Spec().Name] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs returns the specifications of all tools, sorted by name.
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, t.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// RemoteCaller invokes tools hosted by the remote tool provider.
type RemoteCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Dispatcher routes a tool call to a local tool, or to the remote provider
// when no local tool has that name.
type Dispatcher struct {
	local  *Registry
	remote RemoteCaller
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. Either side may be nil.
func NewDispatcher(local *Registry, remote RemoteCaller, logger *slog.Logger) *Dispatcher {
	if local == nil {
		local = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{local: local, remote: remote, logger: logger}
}

// Execute implements llm.ToolExecutor.
func (d *Dispatcher) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	if t, ok := d.local.Get(name); ok {
		d.logger.Debug("executing local tool", "tool", name)
		return t.Execute(ctx, args)
	}
	if d.remote == nil {
		return "", NewToolErrorf(ErrUnknownTool, "unknown tool %q", name)
	}
	d.logger.Debug("executing remote tool", "tool", name)
	out, err := d.remote.CallTool(ctx, name, args)
	if err != nil {
		return "", fmt.Errorf("remote tool %s: %w", name, err)
	}
	return out, nil
}
