package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	maxWidth     = 120
)

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	// Markdown renders answers with glamour.
	Markdown bool

	// Wrap word-wraps plain answers at Width.
	Wrap bool

	// Width is the wrap width for answers.
	Width int

	// NoColor disables styling even on a terminal.
	NoColor bool

	Theme *Theme
}

// Console writes the interactive session to a terminal.
type Console struct {
	out      io.Writer
	styles   *Styles
	markdown *Markdown // nil for plain answers
	wrap     bool
	width    int
}

// NewConsole creates a console for out.
func NewConsole(out io.Writer, opts ConsoleOptions) *Console {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	c := &Console{
		out:    out,
		styles: NewStyles(out, opts.Theme, opts.NoColor),
		wrap:   opts.Wrap,
		width:  width,
	}
	if opts.Markdown {
		c.markdown = NewMarkdown(opts.Theme)
	}
	return c
}

// NewTerminalConsole creates a console for f. Answers are rendered as
// markdown only when f is a terminal and raw is false.
func NewTerminalConsole(f *os.File, raw, noColor bool) *Console {
	tty := IsTerminal(f)
	return NewConsole(f, ConsoleOptions{
		Markdown: tty && !raw && !noColor,
		Wrap:     tty,
		Width:    TerminalWidth(f),
		NoColor:  noColor,
	})
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, capped for readability, or a
// default when f is not a terminal.
func TerminalWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return min(w, maxWidth)
}

func (c *Console) Welcome() {
	fmt.Fprintln(c.out, c.styles.Title.Render("Welcome to the Tavily MCP Server Search Agent!"))
	fmt.Fprintln(c.out, c.styles.Muted.Render("Type exit, quit, q or bye to leave."))
}

func (c *Console) Prompt() {
	fmt.Fprint(c.out, "\n"+c.styles.Prompt.Render(">")+" ")
}

func (c *Console) Answer(text string) {
	if c.markdown != nil {
		if rendered, err := c.markdown.Render(text, c.width); err == nil {
			fmt.Fprintln(c.out, "\n"+rendered)
			return
		}
	}
	if c.wrap {
		text = wordwrap.String(text, c.width)
	}
	fmt.Fprintln(c.out, "\n"+c.styles.Answer.Render(text))
}

func (c *Console) Problem(message, hint string) {
	fmt.Fprintln(c.out, "\n"+c.styles.Error.Render(message))
	if hint != "" {
		fmt.Fprintln(c.out, c.styles.Muted.Render(hint))
	}
}

func (c *Console) Interrupted() {
	fmt.Fprintln(c.out, "\n\n"+c.styles.Error.Render("Execution interrupted. Exiting..."))
}

func (c *Console) Farewell() {
	fmt.Fprintln(c.out, "\n"+c.styles.Prompt.Render("Goodbye! 👋"))
}

// Error prints a startup error. It is not part of the loop display.
func (c *Console) Error(err error) {
	fmt.Fprintln(c.out, c.styles.Error.Render("Error: "+err.Error()))
}
