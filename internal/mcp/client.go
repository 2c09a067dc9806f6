package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrNotOpen is returned by operations that need an open connection.
var ErrNotOpen = errors.New("tool provider connection is not open")

type connState int

const (
	stateIdle connState = iota
	stateOpen
	stateClosed
)

// ConnectionConfig configures a Connection.
type ConnectionConfig struct {
	// Name labels the provider in logs and errors.
	Name string

	// Endpoint is the streamable HTTP URL of the MCP server. It may carry
	// credentials in its query string and is redacted before logging.
	Endpoint string

	// ClientName and ClientVersion are advertised during initialize.
	ClientName    string
	ClientVersion string

	HTTPClient *http.Client
	Logger     *slog.Logger

	// Transport overrides the streamable HTTP transport. Tests use it to
	// connect to an in-memory server.
	Transport sdkmcp.Transport
}

// Connection owns a single session with a remote MCP tool provider. It is
// opened once, used for tool discovery and tool calls, and closed once.
// A Connection cannot be reopened after Close.
type Connection struct {
	name      string
	endpoint  string
	impl      *sdkmcp.Implementation
	transport sdkmcp.Transport
	logger    *slog.Logger
	secrets   []string

	mu      sync.RWMutex
	state   connState
	session *sdkmcp.ClientSession
	tools   []ToolHandle
}

// NewConnection creates an unopened connection.
func NewConnection(cfg ConnectionConfig) *Connection {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "tavily"
	}
	clientName := cfg.ClientName
	if clientName == "" {
		clientName = "tavily-agent"
	}
	clientVersion := cfg.ClientVersion
	if clientVersion == "" {
		clientVersion = "dev"
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &sdkmcp.StreamableClientTransport{
			Endpoint:   cfg.Endpoint,
			HTTPClient: cfg.HTTPClient,
		}
	}

	return &Connection{
		name:      name,
		endpoint:  cfg.Endpoint,
		impl:      &sdkmcp.Implementation{Name: clientName, Version: clientVersion},
		transport: transport,
		logger:    logger.With("mcp_server", name),
		secrets:   endpointSecrets(cfg.Endpoint),
	}
}

// Name returns the provider label.
func (c *Connection) Name() string {
	return c.name
}

// Open connects to the provider and completes the MCP handshake.
func (c *Connection) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateOpen:
		return fmt.Errorf("open %s: connection already open", c.name)
	case stateClosed:
		return fmt.Errorf("open %s: connection already closed", c.name)
	}

	c.logger.Info("connecting to tool provider", "endpoint", RedactEndpoint(c.endpoint))

	client := sdkmcp.NewClient(c.impl, nil)
	session, err := client.Connect(ctx, c.transport, nil)
	if err != nil {
		return &ConnectionError{Server: c.name, Endpoint: RedactEndpoint(c.endpoint), Err: redact(err, c.secrets)}
	}

	c.session = session
	c.state = stateOpen
	c.logger.Info("tool provider connected")
	return nil
}

// IsOpen reports whether the connection is between Open and Close.
func (c *Connection) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == stateOpen
}

// ListTools queries the provider for its tools. The first successful result
// is cached; tool handles are fixed for the lifetime of the connection.
func (c *Connection) ListTools(ctx context.Context) ([]ToolHandle, error) {
	c.mu.RLock()
	session, state, cached := c.session, c.state, c.tools
	c.mu.RUnlock()

	if state != stateOpen {
		return nil, ErrNotOpen
	}
	if cached != nil {
		return cached, nil
	}

	result, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, &ProtocolError{Server: c.name, Op: "tools/list", Err: redact(err, c.secrets)}
	}

	handles, err := toolHandles(result.Tools)
	if err != nil {
		return nil, &ProtocolError{Server: c.name, Op: "tools/list", Err: err}
	}

	c.mu.Lock()
	c.tools = handles
	c.mu.Unlock()

	c.logger.Info("discovered tools", "count", len(handles))
	return handles, nil
}

// CallTool invokes a tool on the provider and returns its text output. A
// result flagged as an error by the provider is returned as an error; a
// transport failure is returned as a *ConnectionError.
func (c *Connection) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	c.mu.RLock()
	session, state := c.session, c.state
	c.mu.RUnlock()

	if state != stateOpen {
		return "", ErrNotOpen
	}

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		var rpcErr *jsonrpc.Error
		if ctx.Err() != nil || errors.As(err, &rpcErr) {
			return "", fmt.Errorf("call tool %s: %w", name, redact(err, c.secrets))
		}
		// No reply from the provider: the transport itself failed.
		return "", &ConnectionError{
			Server:   c.name,
			Endpoint: RedactEndpoint(c.endpoint),
			Op:       "call tool " + name,
			Err:      redact(err, c.secrets),
		}
	}

	text := formatContent(result.Content)
	if result.IsError {
		return "", fmt.Errorf("tool %s returned error: %s", name, text)
	}
	return text, nil
}

// Close ends the session. It is safe to call more than once and before or
// after a failed Open; only the first call does any work.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return nil
	}
	c.state = stateClosed
	c.tools = nil

	if c.session == nil {
		return nil
	}

	err := redact(c.session.Close(), c.secrets)
	c.session = nil
	if err != nil {
		c.logger.Warn("closing tool provider session", "error", err)
		return fmt.Errorf("close %s: %w", c.name, err)
	}
	c.logger.Info("tool provider connection closed")
	return nil
}

// formatContent converts MCP content to a string.
func formatContent(content []sdkmcp.Content) string {
	var result string
	for _, c := range content {
		switch v := c.(type) {
		case *sdkmcp.TextContent:
			result += v.Text
		default:
			if data, err := json.Marshal(c); err == nil {
				result += string(data)
			}
		}
	}
	return result
}
