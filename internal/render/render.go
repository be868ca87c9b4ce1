// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultWidth is used when the caller passes a non-positive width.
const DefaultWidth = 80

// Renderer renders reply content for a given width.
type Renderer interface {
	Render(content string, width int) string
}

// =============================================================================
// MARKDOWN
// =============================================================================

// Markdown renders content with glamour. Term renderers are built lazily
// and cached per width. It is safe for concurrent use.
type Markdown struct {
	style    string
	fallback Renderer
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[int]*glamour.TermRenderer
}

// NewMarkdown creates a Markdown renderer for a glamour style name
// ("dark", "light", "notty", ...). "auto" or "" detects from the terminal.
func NewMarkdown(style string) *Markdown {
	return &Markdown{
		style:    strings.ToLower(strings.TrimSpace(style)),
		fallback: Plain{},
		logger:   slog.Default(),
		cache:    make(map[int]*glamour.TermRenderer),
	}
}

// WithLogger sets the logger.
func (m *Markdown) WithLogger(logger *slog.Logger) *Markdown {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Style returns the configured style name.
func (m *Markdown) Style() string {
	return m.style
}

// Render renders content as Markdown wrapped to width. Rendering errors
// fall back to Plain.
func (m *Markdown) Render(content string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	if strings.TrimSpace(content) == "" {
		return content
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tr, err := m.rendererLocked(width)
	if err != nil {
		m.logger.Debug("markdown renderer unavailable", "style", m.style, "error", err)
		return m.fallback.Render(content, width)
	}
	out, err := tr.Render(content)
	if err != nil {
		m.logger.Debug("markdown render failed", "error", err)
		return m.fallback.Render(content, width)
	}
	return strings.Trim(out, "\n")
}

// PERFORMANCE: building a TermRenderer parses the style sheet, so one is
// kept per width.
func (m *Markdown) rendererLocked(width int) (*glamour.TermRenderer, error) {
	if tr, ok := m.cache[width]; ok {
		return tr, nil
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width), glamour.WithEmoji()}
	if m.style == "" || m.style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(m.style))
	}

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	m.cache[width] = tr
	return tr, nil
}

// =============================================================================
// PLAIN
// =============================================================================

// Plain word-wraps prose and highlights fenced code blocks. Code lines are
// never wrapped.
type Plain struct {
	// NoColor disables code highlighting.
	NoColor bool
}

// Render implements Renderer.
func (p Plain) Render(content string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	var out []string
	for _, seg := range splitFences(content) {
		if !seg.code {
			out = append(out, wordwrap.String(seg.text, width))
			continue
		}
		body := seg.block.Code
		if !p.NoColor {
			body = Highlight(body, seg.block.Language)
		}
		fence := "```" + seg.block.Language
		out = append(out, fence+"\n"+body+"\n```")
	}
	return strings.Join(out, "\n")
}

// Func adapts a function to Renderer.
type Func func(content string, width int) string

// Render implements Renderer.
func (f Func) Render(content string, width int) string {
	return f(content, width)
}
