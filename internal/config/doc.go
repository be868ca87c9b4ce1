// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for parley.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, validation and optional hot reload.
//
// # Key Types
//
//   - Config: main configuration structure
//   - APIConfig: chat endpoint URL, timeouts, retries, rate limit
//   - UIConfig: theme, Markdown style, typing effect
//   - Watcher: reloads the file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PARLEY_*), including values from ./.env
//   - $PARLEY_CONFIG or ~/.parley/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.Timeout()
package config
