// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
)

// Defaults for failure notices.
const (
	DefaultErrorTitle      = "AI Chat Error"
	DefaultFallbackMessage = "An error occurred"
	canceledMessage        = "The request was canceled."
)

// Severity ranks a notice for the notification surface.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-visible notification.
type Notice struct {
	Title       string
	Description string
	Severity    Severity
}

// Notifier is the notification surface. Implementations must be safe to call
// from any goroutine.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

// =============================================================================
// NOTICE LOG
// =============================================================================

// NoticeLog records notices in memory.
type NoticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records n.
func (l *NoticeLog) Notify(n Notice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

// Notices returns a copy of the recorded notices.
func (l *NoticeLog) Notices() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notice, len(l.notices))
	copy(out, l.notices)
	return out
}

// Len returns the number of recorded notices.
func (l *NoticeLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.notices)
}
