package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// Markdown renders answers with glamour in one theme. Renderers are built
// lazily per wrap width and reused.
type Markdown struct {
	style ansi.StyleConfig

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown creates a renderer styled from theme.
func NewMarkdown(theme *Theme) *Markdown {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Markdown{
		style:     GlamourStyleFromTheme(theme),
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

func (m *Markdown) renderer(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(m.style),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}

// Render renders content wrapped at width, trimming the blank lines glamour
// puts around the document.
func (m *Markdown) Render(content string, width int) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	r, err := m.renderer(width)
	if err != nil {
		return "", err
	}
	out, err := r.Render(content)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}
