// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the parley TUI.
//
// Colors are Lip Gloss AdaptiveColor values; Theme builds the styled
// components from them and resolves the "dark", "light" and "auto" modes
// against the terminal using termenv.
//
// # Usage
//
//	theme := styles.NewTheme("auto")
//	fmt.Println(theme.UserBubble.Render("Hello"))
package styles
