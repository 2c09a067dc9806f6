// Package repl drives the read-eval-print loop: read a line, classify it as
// an exit word or a query, invoke the agent, display the answer.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/samsaffron/tavily-agent/internal/agent"
	"github.com/samsaffron/tavily-agent/internal/llm"
)

const defaultDrainTimeout = 2 * time.Second

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// exitWords end the session when typed on their own.
var exitWords = map[string]struct{}{
	"exit": {},
	"quit": {},
	"q":    {},
	"bye":  {},
}

// IsExit reports whether line, trimmed and case-folded, is an exit word.
func IsExit(line string) bool {
	_, ok := exitWords[strings.ToLower(strings.TrimSpace(line))]
	return ok
}

// Invoker answers one user query. *agent.Session satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, userText string) (*llm.Response, error)
}

// Display renders loop output.
type Display interface {
	Welcome()
	Prompt()
	Answer(text string)
	Problem(message, hint string)
	Interrupted()
	Farewell()
}

// Reason records why a loop reached its terminal state.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonExit
	ReasonEOF
	ReasonInterrupted
)

func (r Reason) String() string {
	switch r {
	case ReasonExit:
		return "exit"
	case ReasonEOF:
		return "eof"
	case ReasonInterrupted:
		return "interrupted"
	default:
		return "none"
	}
}

// Config holds the collaborators of a Loop.
type Config struct {
	In      io.Reader
	Display Display
	Agent   Invoker
	Logger  *slog.Logger

	// DrainTimeout bounds how long teardown waits for an abandoned
	// invocation to return. Its result is discarded either way.
	DrainTimeout time.Duration
}

// Loop is the interactive session. It is Running from Run until it returns,
// and Terminated afterwards.
type Loop struct {
	in      io.Reader
	display Display
	agent   Invoker
	logger  *slog.Logger
	drain   time.Duration

	turns int
}

// New creates a loop.
func New(cfg Config) *Loop {
	l := &Loop{
		in:      cfg.In,
		display: cfg.Display,
		agent:   cfg.Agent,
		logger:  cfg.Logger,
		drain:   cfg.DrainTimeout,
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.drain <= 0 {
		l.drain = defaultDrainTimeout
	}
	return l
}

// Turns returns the number of queries sent to the agent.
func (l *Loop) Turns() int {
	return l.turns
}

type readResult struct {
	line string
	err  error
	eof  bool
}

type invokeResult struct {
	resp *llm.Response
	err  error
}

// Run loops until an exit word, end of input, or cancellation of ctx. Errors
// from a single turn are shown and logged but never end the loop; Run itself
// only fails when input cannot be read.
func (l *Loop) Run(ctx context.Context) (Reason, error) {
	done := make(chan struct{})
	defer close(done)
	lines := l.startReader(done)

	l.display.Welcome()

	for {
		l.display.Prompt()

		var rr readResult
		select {
		case <-ctx.Done():
			l.display.Interrupted()
			return ReasonInterrupted, nil
		case rr = <-lines:
		}

		if rr.err != nil {
			return ReasonNone, fmt.Errorf("read input: %w", rr.err)
		}
		if rr.eof {
			l.display.Farewell()
			return ReasonEOF, nil
		}

		query := strings.TrimSpace(rr.line)
		if query == "" {
			continue
		}
		if IsExit(query) {
			l.display.Farewell()
			return ReasonExit, nil
		}

		if !l.turn(ctx, query) {
			l.display.Interrupted()
			return ReasonInterrupted, nil
		}
	}
}

// turn runs one query. It returns false when ctx was cancelled before the
// agent returned.
func (l *Loop) turn(ctx context.Context, query string) bool {
	l.turns++
	start := time.Now()
	results := make(chan invokeResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("agent invocation panicked", "panic", r, "stack", string(debug.Stack()))
				results <- invokeResult{err: fmt.Errorf("agent invocation panicked: %v", r)}
			}
		}()
		resp, err := l.agent.Invoke(ctx, query)
		results <- invokeResult{resp: resp, err: err}
	}()

	var res invokeResult
	select {
	case <-ctx.Done():
		l.abandon(results)
		return false
	case res = <-results:
	}

	if ctx.Err() != nil {
		l.logger.Debug("discarding result that arrived after interrupt")
		return false
	}

	if res.err != nil {
		p := Classify(res.err)
		if p.Known {
			l.logger.Warn("turn failed", "turn", l.turns, "error", res.err)
		} else {
			l.logger.Error("turn failed", "turn", l.turns, "error", fmt.Sprintf("%+v", res.err), "type", fmt.Sprintf("%T", res.err))
		}
		l.display.Problem(p.Message, p.Hint)
		return true
	}

	l.display.Answer(agent.Extract(res.resp, l.logger))
	if res.resp != nil {
		attrs := append([]any{"turn", l.turns, "elapsed", time.Since(start)}, res.resp.Metrics.Attrs()...)
		l.logger.Info("agent metrics", attrs...)
	}
	return true
}

// abandon waits briefly for an in-flight invocation so teardown does not race
// it, then drops whatever it produced.
func (l *Loop) abandon(results <-chan invokeResult) {
	timer := time.NewTimer(l.drain)
	defer timer.Stop()
	select {
	case res := <-results:
		l.logger.Debug("discarded in-flight result after interrupt", "error", res.err)
	case <-timer.C:
		l.logger.Warn("abandoned in-flight invocation", "waited", l.drain)
	}
}

// startReader feeds input lines to the returned channel from its own
// goroutine, so that a blocked read never delays cancellation. The goroutine
// stays parked in Read until the next line arrives or input closes.
func (l *Loop) startReader(done <-chan struct{}) <-chan readResult {
	lines := make(chan readResult)
	go func() {
		scanner := bufio.NewScanner(l.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		send := func(r readResult) bool {
			select {
			case lines <- r:
				return true
			case <-done:
				return false
			}
		}
		for scanner.Scan() {
			if !send(readResult{line: scanner.Text()}) {
				return
			}
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
			send(readResult{err: err})
			return
		}
		send(readResult{eof: true})
	}()
	return lines
}
