// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parley configuration.
type Config struct {
	Version string `toml:"version"`

	API       APIConfig       `toml:"api"`
	UI        UIConfig        `toml:"ui"`
	Notify    NotifyConfig    `toml:"notify"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig configures the chat endpoint client.
type APIConfig struct {
	// BaseURL is the endpoint root; chat requests go to BaseURL + ChatPath.
	BaseURL  string `toml:"base_url"`
	ChatPath string `toml:"chat_path"`
	// TimeoutSecs bounds one HTTP attempt.
	TimeoutSecs int `toml:"timeout_secs"`
	// MaxAttempts is the total number of attempts per submission (1 = no retry).
	MaxAttempts int `toml:"max_attempts"`
	// RequestsPerMinute caps outbound requests. 0 disables the cap.
	RequestsPerMinute int    `toml:"requests_per_minute"`
	UserAgent         string `toml:"user_agent"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// MarkdownStyle is the glamour style used for assistant turns.
	MarkdownStyle string `toml:"markdown_style"`
	// WordWrap is the render width; 0 follows the terminal width.
	WordWrap int `toml:"word_wrap"`
	// TypingEffect reveals new assistant turns character by character.
	TypingEffect   bool   `toml:"typing_effect"`
	ShowTimestamps bool   `toml:"show_timestamps"`
	ModelLabel     string `toml:"model_label"`
}

// NotifyConfig holds the text of failure notices.
type NotifyConfig struct {
	ErrorTitle      string `toml:"error_title"`
	FallbackMessage string `toml:"fallback_message"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// File is the log path; empty means ~/.parley/parley.log.
	File string `toml:"file"`
}

// TelemetryConfig configures the local call journal.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
	// Path is the SQLite file; empty means ~/.parley/telemetry.db.
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default values shared with the packages that consume them.
const (
	DefaultVersion         = "1"
	DefaultBaseURL         = "https://us-central1-meta-plus-86284.cloudfunctions.net/api"
	DefaultChatPath        = "/chat"
	DefaultTimeoutSecs     = 60
	DefaultMaxAttempts     = 1
	DefaultUserAgent       = "parley/0.1.0"
	DefaultTheme           = "dark"
	DefaultMarkdownStyle   = "dark"
	DefaultModelLabel      = "2953645 - itz-llama-3.3"
	DefaultErrorTitle      = "AI Chat Error"
	DefaultFallbackMessage = "An error occurred"
	DefaultLogLevel        = "info"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: DefaultVersion,
		API: APIConfig{
			BaseURL:     DefaultBaseURL,
			ChatPath:    DefaultChatPath,
			TimeoutSecs: DefaultTimeoutSecs,
			MaxAttempts: DefaultMaxAttempts,
			UserAgent:   DefaultUserAgent,
		},
		UI: UIConfig{
			Theme:          DefaultTheme,
			MarkdownStyle:  DefaultMarkdownStyle,
			TypingEffect:   true,
			ShowTimestamps: true,
			ModelLabel:     DefaultModelLabel,
		},
		Notify: NotifyConfig{
			ErrorTitle:      DefaultErrorTitle,
			FallbackMessage: DefaultFallbackMessage,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// Timeout returns the per-attempt timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// LogPath returns the resolved log file path.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "parley.log"), nil
}

// TelemetryPath returns the resolved telemetry database path.
func (c *Config) TelemetryPath() (string, error) {
	if c.Telemetry.Path != "" {
		return expandHome(c.Telemetry.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "telemetry.db"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the parley configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// ConfigPath returns the config file path. PARLEY_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := os.Getenv("PARLEY_CONFIG"); p != "" {
		return expandHome(p)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the configuration from ConfigPath, falling back to defaults
// when the file does not exist. A .env file in the working directory is
// loaded first so its values reach ApplyEnvOverrides.
func Load() (*Config, error) {
	// Missing .env is the common case.
	_ = godotenv.Load()

	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys absent from the file keep their
// current values. Unknown keys are logged and ignored.
func LoadTOML(cfg *Config, path string) error {
	// SECURITY: config may carry a private endpoint URL
	if err := ensureSecurePermissions(path); err != nil {
		slog.Warn("could not ensure secure permissions", "path", path, "error", err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slog.Warn("unknown config keys ignored", "path", path, "keys", keys)
	}
	return fillDefaults(cfg)
}

// fillDefaults fills in values that were explicitly emptied.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// API
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.ChatPath == "" {
		cfg.API.ChatPath = defaults.API.ChatPath
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if cfg.API.MaxAttempts == 0 {
		cfg.API.MaxAttempts = defaults.API.MaxAttempts
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = defaults.API.UserAgent
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.MarkdownStyle == "" {
		cfg.UI.MarkdownStyle = defaults.UI.MarkdownStyle
	}
	if cfg.UI.ModelLabel == "" {
		cfg.UI.ModelLabel = defaults.UI.ModelLabel
	}

	// Notify
	if cfg.Notify.ErrorTitle == "" {
		cfg.Notify.ErrorTitle = defaults.Notify.ErrorTitle
	}
	if cfg.Notify.FallbackMessage == "" {
		cfg.Notify.FallbackMessage = defaults.Notify.FallbackMessage
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to ConfigPath.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# parley configuration file\n")
	buf.WriteString("# Generated by parley - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// RELIABILITY: atomic write so a crash never leaves a half-written file
	if err := util.AtomicWriteFileWithDir(path, []byte(buf.String()), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validThemes         = []string{"auto", "dark", "light"}
	validMarkdownStyles = []string{"ascii", "auto", "dark", "dracula", "light", "notty", "pink", "tokyo-night"}
	validLogLevels      = []string{"debug", "info", "warn", "error"}
)

// Validate validates the configuration and returns ValidateErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// API
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		add("api.base_url", "invalid URL '%s', must be an absolute http or https URL", c.API.BaseURL)
	}
	if !strings.HasPrefix(c.API.ChatPath, "/") {
		add("api.chat_path", "must start with '/'")
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		add("api.timeout_secs", "must be between 1 and 600, got %d", c.API.TimeoutSecs)
	}
	if c.API.MaxAttempts < 1 || c.API.MaxAttempts > 10 {
		add("api.max_attempts", "must be between 1 and 10, got %d", c.API.MaxAttempts)
	}
	if c.API.RequestsPerMinute < 0 {
		add("api.requests_per_minute", "cannot be negative")
	}

	// UI
	if !oneOf(c.UI.Theme, validThemes) {
		add("ui.theme", "invalid theme '%s', must be one of: %s", c.UI.Theme, strings.Join(validThemes, ", "))
	}
	if !oneOf(c.UI.MarkdownStyle, validMarkdownStyles) {
		add("ui.markdown_style", "invalid style '%s', must be one of: %s", c.UI.MarkdownStyle, strings.Join(validMarkdownStyles, ", "))
	}
	if c.UI.WordWrap < 0 {
		add("ui.word_wrap", "cannot be negative")
	}

	// Log
	if !oneOf(c.Log.Level, validLogLevels) {
		add("log.level", "invalid level '%s', must be one of: %s", c.Log.Level, strings.Join(validLogLevels, ", "))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(v)
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PARLEY_API_URL: overrides api.base_url
//   - PARLEY_TIMEOUT: overrides api.timeout_secs
//   - PARLEY_MAX_ATTEMPTS: overrides api.max_attempts
//   - PARLEY_LOG_LEVEL: overrides log.level
//   - PARLEY_THEME: overrides ui.theme
//   - PARLEY_TELEMETRY: "0"/"false" disables the call journal
//
// Unparseable numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PARLEY_API_URL"); v != "" {
		c.API.BaseURL = strings.TrimSuffix(v, "/")
	}
	if v := os.Getenv("PARLEY_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = n
		}
	}
	if v := os.Getenv("PARLEY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.MaxAttempts = n
		}
	}
	if v := os.Getenv("PARLEY_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("PARLEY_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("PARLEY_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value by its TOML key, e.g. "api.timeout_secs".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value by its TOML key. String values are
// parsed into the field's type; other values must match it exactly.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks the struct following toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i], "."))
		}
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
	}
	return v, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]; strings.EqualFold(tag, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from a value with type conversion.
func setFieldValue(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %w", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(s))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() || !val.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("cannot assign %T to %s", value, field.Type())
	}
	field.Set(val)
	return nil
}

// Keys returns every settable key in dot notation, sorted.
func Keys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := strings.Split(f.Tag.Get("toml"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, prefix+name+".")
				continue
			}
			keys = append(keys, prefix+name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of the config. Config holds no reference types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as TOML for display.
func (c *Config) String() string {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Load errors fall back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			slog.Warn("config load failed, using defaults", "error", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
