// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file implements the notification surface: non-blocking toasts that
// stack in the corner and auto-dismiss while the user keeps typing.

package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/parley-tui/internal/session"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	ToastKindInfo ToastKind = iota
	ToastKindSuccess
	ToastKindWarning
	ToastKindError
)

// String returns the kind name, matching session.Severity names.
func (k ToastKind) String() string {
	switch k {
	case ToastKindSuccess:
		return "success"
	case ToastKindWarning:
		return "warning"
	case ToastKindError:
		return "error"
	default:
		return "info"
	}
}

// KindForSeverity maps a notice severity to a toast kind.
func KindForSeverity(s session.Severity) ToastKind {
	switch s {
	case session.SeveritySuccess:
		return ToastKindSuccess
	case session.SeverityWarning:
		return ToastKindWarning
	case session.SeverityError:
		return ToastKindError
	default:
		return ToastKindInfo
	}
}

// DefaultMaxToasts is how many toasts are visible at once.
const DefaultMaxToasts = 3

// ErrorToastExtra is added to the display time of error toasts.
const ErrorToastExtra = 3 * time.Second

// Toast is one notification on screen.
type Toast struct {
	ID        int
	Title     string
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpiredAt reports whether the toast should be gone at now.
func (t Toast) IsExpiredAt(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// TimeRemainingAt returns how long the toast stays after now.
func (t Toast) TimeRemainingAt(now time.Time) time.Duration {
	remaining := t.Duration - now.Sub(t.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toasts. It implements session.Notifier and
// is safe to call from any goroutine.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
	duration  time.Duration
	now       func() time.Time
}

// NewToastManager creates a toast manager with default limits.
func NewToastManager() *ToastManager {
	return &ToastManager{
		nextID:    1,
		maxToasts: DefaultMaxToasts,
		duration:  styles.ToastDuration,
		now:       time.Now,
	}
}

// WithDuration sets how long new toasts stay on screen.
func (m *ToastManager) WithDuration(d time.Duration) *ToastManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.duration = d
	}
	return m
}

// WithMaxToasts sets how many toasts are kept.
func (m *ToastManager) WithMaxToasts(n int) *ToastManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.maxToasts = n
	}
	return m
}

// Notify adds a toast for n.
func (m *ToastManager) Notify(n session.Notice) {
	m.Add(n.Title, n.Description, KindForSeverity(n.Severity))
}

// Add adds a toast and returns its ID. The newest toast is first; the
// oldest are dropped past the limit.
func (m *ToastManager) Add(title, message string, kind ToastKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.duration
	if kind == ToastKindError {
		d += ErrorToastExtra
	}
	toast := Toast{
		ID:        m.nextID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: m.now(),
		Duration:  d,
	}
	m.nextID++

	m.toasts = append([]Toast{toast}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	return toast.ID
}

// Dismiss removes a toast by ID.
func (m *ToastManager) Dismiss(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, toast := range m.toasts {
		if toast.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent toast. It reports whether one was
// removed.
func (m *ToastManager) DismissNewest() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) == 0 {
		return false
	}
	m.toasts = m.toasts[1:]
	return true
}

// Tick drops expired toasts and returns the remaining ones.
func (m *ToastManager) Tick() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	active := m.toasts[:0]
	for _, toast := range m.toasts {
		if !toast.IsExpiredAt(now) {
			active = append(active, toast)
		}
	}
	m.toasts = active
	return m.copyLocked()
}

// Toasts returns a copy of the current toasts, newest first.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLocked()
}

func (m *ToastManager) copyLocked() []Toast {
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// HasToasts returns true if there are any active toasts.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// Clear removes all toasts.
func (m *ToastManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickInterval is how often toasts are checked for expiry.
const ToastTickInterval = 250 * time.Millisecond

// ToastTickMsg is sent periodically to expire toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd returns a command that delivers the next ToastTickMsg.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(ToastTickInterval, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

const (
	maxToastWidth = 56
	minToastWidth = 24
)

// RenderToast renders a single toast at most width cells wide.
func RenderToast(theme *styles.Theme, toast Toast, width int) string {
	boxWidth := maxToastWidth
	if width > 0 && width-4 < boxWidth {
		boxWidth = width - 4
	}
	if boxWidth < minToastWidth {
		boxWidth = minToastWidth
	}
	// Border and padding take four cells.
	textWidth := boxWidth - 4

	color := styles.SeverityColor(toast.Kind.String())
	icon := toastIcon(toast.Kind)

	title := theme.ToastTitle.Foreground(color).Render(icon + " " + toast.Title)
	lines := []string{title}
	if msg := strings.TrimSpace(toast.Message); msg != "" {
		lines = append(lines, theme.ToastMessage.Render(wordwrap.String(msg, textWidth)))
	}

	return theme.ToastBox.
		BorderForeground(color).
		Width(textWidth + 2).
		Render(strings.Join(lines, "\n"))
}

// RenderToastStack renders toasts stacked vertically, right-aligned in a
// row of width cells. It returns "" when there is nothing to show.
func RenderToastStack(theme *styles.Theme, toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, toast := range toasts {
		rendered = append(rendered, RenderToast(theme, toast, width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)

	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
	}
	return stack
}

func toastIcon(kind ToastKind) string {
	switch kind {
	case ToastKindSuccess:
		return styles.StatusIndicators.Success
	case ToastKindWarning:
		return styles.StatusIndicators.Warning
	case ToastKindError:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Info
	}
}
