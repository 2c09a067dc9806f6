package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/samsaffron/tavily-agent/internal/llm"
)

const (
	defaultShellTimeout = 30 * time.Second
	maxShellTimeout     = 300 * time.Second
	defaultMaxOutput    = 64 * 1024
)

// ShellConfig configures the shell tool.
type ShellConfig struct {
	// Timeout is the default per-command timeout.
	Timeout time.Duration

	// Allow is a list of glob patterns (e.g. "git *", "ls*"). When empty
	// every command is allowed.
	Allow []string

	// MaxOutputBytes caps stdout and stderr separately.
	MaxOutputBytes int
}

// ShellTool runs a command through bash, or sh when bash is missing.
type ShellTool struct {
	timeout   time.Duration
	maxOutput int
	allow     []glob.Glob
}

// NewShellTool compiles the allow patterns and creates the tool.
func NewShellTool(cfg ShellConfig) (*ShellTool, error) {
	t := &ShellTool{
		timeout:   cfg.Timeout,
		maxOutput: cfg.MaxOutputBytes,
	}
	if t.timeout <= 0 {
		t.timeout = defaultShellTimeout
	}
	if t.maxOutput <= 0 {
		t.maxOutput = defaultMaxOutput
	}
	for _, pattern := range cfg.Allow {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid shell allow pattern %q: %w", pattern, err)
		}
		t.allow = append(t.allow, g)
	}
	return t, nil
}

// ShellResult contains the result of a shell command.
type ShellResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

func (t *ShellTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        ShellToolName,
		Description: "Execute a shell command on the local machine. Returns stdout, stderr, and exit code.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "Shell command to execute",
				},
				"working_dir": map[string]any{
					"type":        "string",
					"description": "Working directory (defaults to current directory)",
				},
				"timeout_seconds": map[string]any{
					"type":        "integer",
					"description": "Command timeout in seconds (max: 300)",
				},
			},
			"required": []string{"command"},
		},
	}
}

// commandSeparators split a command line into the commands it runs.
// Longer operators come first so "&&" is not read as two "&".
var commandSeparators = []string{"&&", "||", ";", "|", "&", "\n", "\r"}

// nestedShellSyntax runs or redirects to something no pattern can vouch for.
var nestedShellSyntax = []string{"`", "$(", ">", "<"}

// Allowed reports whether the command matches the allow list. With a
// non-empty list every command in a chain must match a pattern, and
// substitutions and redirections are refused.
func (t *ShellTool) Allowed(command string) bool {
	if len(t.allow) == 0 {
		return true
	}
	for _, s := range nestedShellSyntax {
		if strings.Contains(command, s) {
			return false
		}
	}
	segments := splitCommands(command)
	if len(segments) == 0 {
		return false
	}
	for _, seg := range segments {
		if !t.matches(seg) {
			return false
		}
	}
	return true
}

func (t *ShellTool) matches(command string) bool {
	for _, g := range t.allow {
		if g.Match(command) {
			return true
		}
	}
	return false
}

// splitCommands breaks a command line on shell separators. Quoting is not
// interpreted, so a quoted separator splits too and the command is refused
// unless both halves match.
func splitCommands(command string) []string {
	parts := []string{command}
	for _, sep := range commandSeparators {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (t *ShellTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	command, err := stringArg(args, "command")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(command) == "" {
		return "", NewToolError(ErrInvalidParams, "command is required")
	}
	if !t.Allowed(command) {
		return "", NewToolErrorf(ErrPermissionDenied, "command not allowed: %s", truncateCommand(command))
	}

	workDir, err := stringArg(args, "working_dir")
	if err != nil {
		return "", err
	}
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return "", NewToolErrorf(ErrExecutionFailed, "cannot get working directory: %v", err)
		}
	}

	timeout := t.timeout
	secs, err := intArg(args, "timeout_seconds")
	if err != nil {
		return "", err
	}
	if secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	if timeout > maxShellTimeout {
		timeout = maxShellTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, detectShell(), "-c", command)
	cmd.Dir = workDir
	// Background children can hold the output pipes open after the shell is
	// killed; stop waiting for them shortly after.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	result := ShellResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		return formatShellResult(result, t.maxOutput), nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return "", NewToolErrorf(ErrExecutionFailed, "command error: %v", runErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	return formatShellResult(result, t.maxOutput), nil
}

// formatShellResult formats the shell result for the model.
func formatShellResult(result ShellResult, maxBytes int) string {
	var sb strings.Builder

	stdout := result.Stdout
	stderr := result.Stderr
	truncated := false

	if len(stdout) > maxBytes {
		stdout = stdout[:maxBytes]
		truncated = true
	}
	if len(stderr) > maxBytes {
		stderr = stderr[:maxBytes]
		truncated = true
	}

	if result.TimedOut {
		sb.WriteString("[Command timed out]\n\n")
	}

	if stdout != "" {
		sb.WriteString("stdout:\n")
		sb.WriteString(stdout)
		if !strings.HasSuffix(stdout, "\n") {
			sb.WriteString("\n")
		}
	}

	if stderr != "" {
		if stdout != "" {
			sb.WriteString("\n")
		}
		sb.WriteString("stderr:\n")
		sb.WriteString(stderr)
		if !strings.HasSuffix(stderr, "\n") {
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "\nexit_code: %d", result.ExitCode)

	if truncated {
		sb.WriteString("\n\n[Output truncated due to size limit]")
	}

	return sb.String()
}

// detectShell prefers bash and falls back to sh. The user's $SHELL is not
// used because -c means something else to shells like fish.
func detectShell() string {
	if path, err := exec.LookPath("bash"); err == nil {
		return path
	}
	return "sh"
}

func truncateCommand(cmd string) string {
	if len(cmd) > 50 {
		return cmd[:47] + "..."
	}
	return cmd
}
