// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns assistant replies into terminal text.
//
// Replies are Markdown. Markdown renders them with glamour; Plain is the
// fallback, a word-wrapped passthrough that still highlights fenced code
// with chroma. CodeBlocks extracts fenced blocks for the copy-code action,
// and Reveal computes the visible prefix of the typing effect.
package render
