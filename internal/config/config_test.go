// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears PARLEY_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"PARLEY_CONFIG", "PARLEY_API_URL", "PARLEY_TIMEOUT", "PARLEY_MAX_ATTEMPTS", "PARLEY_LOG_LEVEL", "PARLEY_THEME", "PARLEY_TELEMETRY"} {
		t.Setenv(k, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60*time.Second, cfg.Timeout())
	assert.Equal(t, 1, cfg.API.MaxAttempts)
	assert.Equal(t, "AI Chat Error", cfg.Notify.ErrorTitle)
	assert.Equal(t, "An error occurred", cfg.Notify.FallbackMessage)
	assert.True(t, cfg.UI.TypingEffect)
	assert.True(t, cfg.Telemetry.Enabled)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[api]
base_url = "http://localhost:8080/api"
max_attempts = 3

[ui]
typing_effect = false
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 3, cfg.API.MaxAttempts)
	assert.Equal(t, DefaultChatPath, cfg.API.ChatPath)
	assert.Equal(t, DefaultTimeoutSecs, cfg.API.TimeoutSecs)
	assert.False(t, cfg.UI.TypingEffect)
	assert.Equal(t, DefaultTheme, cfg.UI.Theme)
}

func TestLoadFromPath_EmptiedValuesRefilled(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[notify]
error_title = ""
fallback_message = ""
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultErrorTitle, cfg.Notify.ErrorTitle)
	assert.Equal(t, DefaultFallbackMessage, cfg.Notify.FallbackMessage)
}

func TestLoadFromPath_Errors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[api\nbase_url = ")
	_, err := LoadFromPath(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.toml")
	writeFile(t, invalid, "[api]\ntimeout_secs = 9999\n")
	_, err = LoadFromPath(invalid)
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "api.timeout_secs", verrs[0].Field)

	_, err = LoadFromPath(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestLoadTOML_TightensPermissions(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "version = \"1\"\n")
	require.NoError(t, os.Chmod(path, 0644))

	require.NoError(t, LoadTOML(Default(), path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoad_ConfigEnvPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, "[ui]\ntheme = \"light\"\n")
	t.Setenv("PARLEY_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PARLEY_API_URL", "http://127.0.0.1:9000/api/")
	t.Setenv("PARLEY_TIMEOUT", "15")
	t.Setenv("PARLEY_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("PARLEY_LOG_LEVEL", "DEBUG")
	t.Setenv("PARLEY_THEME", "Light")
	t.Setenv("PARLEY_TELEMETRY", "false")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "http://127.0.0.1:9000/api", cfg.API.BaseURL)
	assert.Equal(t, 15, cfg.API.TimeoutSecs)
	assert.Equal(t, DefaultMaxAttempts, cfg.API.MaxAttempts)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"relative url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"ftp url", func(c *Config) { c.API.BaseURL = "ftp://example.com" }, "api.base_url"},
		{"chat path", func(c *Config) { c.API.ChatPath = "chat" }, "api.chat_path"},
		{"zero timeout", func(c *Config) { c.API.TimeoutSecs = 0 }, "api.timeout_secs"},
		{"too many attempts", func(c *Config) { c.API.MaxAttempts = 11 }, "api.max_attempts"},
		{"negative rate", func(c *Config) { c.API.RequestsPerMinute = -1 }, "api.requests_per_minute"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"markdown style", func(c *Config) { c.UI.MarkdownStyle = "fancy" }, "ui.markdown_style"},
		{"word wrap", func(c *Config) { c.UI.WordWrap = -5 }, "ui.word_wrap"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	assert.Equal(t, "no validation errors", ValidateErrors{}.Error())
	errs := ValidateErrors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}
	assert.Equal(t, "a: x; b: y", errs.Error())
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.API.MaxAttempts = 4
	cfg.UI.ModelLabel = "custom model"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# parley configuration file"))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api.max_attempts", "3"))
	require.NoError(t, cfg.Set("ui.typing_effect", "false"))
	require.NoError(t, cfg.Set("ui.theme", "light"))
	require.NoError(t, cfg.Set("api.timeout_secs", 30))

	v, err := cfg.Get("api.max_attempts")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.False(t, cfg.UI.TypingEffect)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, 30, cfg.API.TimeoutSecs)

	_, err = cfg.Get("api.nope")
	assert.Error(t, err)
	_, err = cfg.Get("api")
	assert.Error(t, err)
	_, err = cfg.Get("")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("api.max_attempts", "three"))
	assert.Error(t, cfg.Set("ui.theme", 12))
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "api.base_url")
	assert.Contains(t, keys, "ui.typing_effect")
	assert.Contains(t, keys, "telemetry.enabled")
	assert.Contains(t, keys, "version")
	assert.IsIncreasing(t, keys)

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestPaths(t *testing.T) {
	home := isolate(t)
	cfg := Default()

	logPath, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".parley", "parley.log"), logPath)

	dbPath, err := cfg.TelemetryPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".parley", "telemetry.db"), dbPath)

	cfg.Log.File = "~/logs/p.log"
	logPath, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs", "p.log"), logPath)
}

// TestConfig_ConcurrentAccess checks Global, SetGlobal and ReloadGlobal
// under the race detector.
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	wg.Wait()
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[ui]\ntheme = \"dark\"\n")

	got := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			got <- cfg
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Watch())
	defer w.Close()

	writeFile(t, path, "[ui]\ntheme = \"light\"\n")

	select {
	case cfg := <-got:
		assert.Equal(t, "light", cfg.UI.Theme)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report a reload")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "")

	calls := make(chan struct{}, 4)
	w, err := NewWatcher(path, 10*time.Millisecond, func(*Config, error) { calls <- struct{}{} })
	require.NoError(t, err)
	require.NoError(t, w.Watch())
	defer w.Close()

	writeFile(t, filepath.Join(dir, "other.toml"), "x = 1\n")

	select {
	case <-calls:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}
