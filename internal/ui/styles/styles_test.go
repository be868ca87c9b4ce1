// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"
)

func TestNewTheme_Modes(t *testing.T) {
	tests := []struct {
		in       string
		wantMode string
		wantDark bool
	}{
		{"dark", "dark", true},
		{"LIGHT", "light", false},
		{" light ", "light", false},
	}
	for _, tt := range tests {
		theme := NewTheme(tt.in)
		if theme.Mode != tt.wantMode {
			t.Errorf("NewTheme(%q).Mode = %q, want %q", tt.in, theme.Mode, tt.wantMode)
		}
		if theme.IsDark != tt.wantDark {
			t.Errorf("NewTheme(%q).IsDark = %v, want %v", tt.in, theme.IsDark, tt.wantDark)
		}
	}

	if got := NewTheme("neon").Mode; got != "auto" {
		t.Errorf("unknown mode resolved to %q, want auto", got)
	}
}

func TestTheme_LayoutMode(t *testing.T) {
	theme := NewTheme("dark")
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: layout = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestTheme_BubbleWidth(t *testing.T) {
	theme := NewTheme("dark")

	theme.SetSize(8, 24)
	if got := theme.BubbleWidth(); got != 10 {
		t.Errorf("tiny width bubble = %d, want 10", got)
	}
	theme.SetSize(80, 24)
	if got := theme.BubbleWidth(); got != 68 {
		t.Errorf("medium bubble = %d, want 68", got)
	}
	theme.SetSize(120, 24)
	if got := theme.BubbleWidth(); got != 90 {
		t.Errorf("wide bubble = %d, want 90", got)
	}
}

func TestSeverityColor(t *testing.T) {
	if SeverityColor("error") != Rose {
		t.Error("error should map to Rose")
	}
	if SeverityColor("warning") != Amber {
		t.Error("warning should map to Amber")
	}
	if SeverityColor("success") != Emerald {
		t.Error("success should map to Emerald")
	}
	if SeverityColor("info") != Cyan || SeverityColor("") != Cyan {
		t.Error("info and unknown should map to Cyan")
	}
}

func TestStatusRenderersIncludeMarkers(t *testing.T) {
	tests := []struct {
		got    string
		marker string
	}{
		{RenderSuccess("copied"), "[OK]"},
		{RenderError("failed"), "[X]"},
		{RenderWarning("careful"), "[!]"},
		{RenderInfo("note"), "[i]"},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.got, tt.marker) {
			t.Errorf("%q missing marker %q", tt.got, tt.marker)
		}
	}
}

func TestSpinnerConfig(t *testing.T) {
	if got := DotsSpinner.Duration(); got != time.Second/6 {
		t.Errorf("DotsSpinner duration = %v", got)
	}
	if got := (SpinnerConfig{}).Duration(); got != time.Second {
		t.Errorf("zero FPS duration = %v, want 1s", got)
	}
	s := LineSpinner.Spinner()
	if len(s.Frames) != 4 || s.FPS != time.Second/10 {
		t.Errorf("LineSpinner.Spinner() = %+v", s)
	}
}
