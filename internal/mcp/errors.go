package mcp

import (
	"fmt"
	"strings"

	"github.com/samsaffron/tavily-agent/internal/llm"
)

// ConnectionError reports that the transport session to the provider could
// not be established, or failed under a call. Op is empty for Open.
type ConnectionError struct {
	Server   string
	Endpoint string
	Op       string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("connect to MCP server %s (%s): %v", e.Server, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("MCP server %s (%s): %s: %v", e.Server, e.Endpoint, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is makes every connection error match llm.ErrToolUnavailable, so the
// engine ends the turn instead of handing the failure to the model.
func (e *ConnectionError) Is(target error) bool { return target == llm.ErrToolUnavailable }

// ProtocolError reports a malformed or failed protocol exchange on an open
// connection.
type ProtocolError struct {
	Server string
	Op     string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("MCP server %s: %s: %v", e.Server, e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// redactedError hides credentials that transport errors echo back; the HTTP
// client quotes the full request URL, query string included.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, secrets []string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, s := range secrets {
		msg = strings.ReplaceAll(msg, s, "REDACTED")
	}
	if msg == err.Error() {
		return err
	}
	return &redactedError{msg: msg, err: err}
}
