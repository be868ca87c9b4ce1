// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for parley.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file path
//   init [--force]      Write a default configuration file
//   get <key>           Print one value, e.g. api.base_url
//   set <key> <value>   Change one value in the file
//
// Examples:
//   parley config
//   parley config show --json
//   parley config set ui.theme light
//   parley config set api.max_attempts 3
//   parley --config ./dev.toml config init
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// ConfigData is the JSON payload of "parley config show --json".
type ConfigData struct {
	Path   string         `json:"path"`
	Exists bool           `json:"exists"`
	Config *config.Config `json:"config,omitempty"`
}

// HandleConfig runs a config subcommand. It does not need a working
// endpoint, so it loads the configuration itself.
func HandleConfig(w io.Writer, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(w, args)
	case "path":
		return handleConfigPath(w, args)
	case "init":
		return handleConfigInit(w, args)
	case "get":
		return handleConfigGet(w, args)
	case "set":
		return handleConfigSet(w, args)
	default:
		return ErrUnknownSubcommand("config", args.Subcommand, []string{"show", "path", "init", "get", "set"})
	}
}

func resolveConfigPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	path, err := config.ConfigPath()
	if err != nil {
		return "", &CommandError{Command: "config", Reason: "cannot locate config file", Err: err, Code: ExitConfigError}
	}
	return path, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// handleConfigShow displays the effective configuration, flags included.
func handleConfigShow(w io.Writer, args Args) error {
	cfg, path, err := LoadConfig(args)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config show", ConfigData{Path: path, Exists: fileExists(path), Config: cfg}).Print(w)
	}

	source := path
	if !fileExists(path) {
		source += " (not created, showing defaults)"
	}
	fmt.Fprintln(w, TitleStyle.Render("parley configuration"))
	fmt.Fprintln(w, DimStyle.Render("# "+source))
	fmt.Fprintln(w)
	fmt.Fprint(w, cfg.String())
	return nil
}

func handleConfigPath(w io.Writer, args Args) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config path", ConfigData{Path: path, Exists: fileExists(path)}).Print(w)
	}
	fmt.Fprintln(w, path)
	return nil
}

func handleConfigInit(w io.Writer, args Args) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}
	if fileExists(path) && !args.Force {
		return &CommandError{Command: "config", Action: "init",
			Reason: path + " already exists (use --force to overwrite)", Code: ExitUsageError}
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return &CommandError{Command: "config", Action: "init", Reason: err.Error(), Err: err, Code: ExitConfigError}
	}
	if !args.Quiet {
		fmt.Fprintln(w, styles.RenderSuccess("Wrote "+path))
	}
	return nil
}

func handleConfigGet(w io.Writer, args Args) error {
	cfg, _, err := LoadConfig(args)
	if err != nil {
		return err
	}
	value, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return unknownKeyError(args.ConfigKey, err)
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]any{"key": args.ConfigKey, "value": value}).Print(w)
	}
	fmt.Fprintln(w, value)
	return nil
}

// handleConfigSet edits the file itself, so environment overrides and
// flags are never written back.
func handleConfigSet(w io.Writer, args Args) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if fileExists(path) {
		if err := config.LoadTOML(cfg, path); err != nil {
			return &CommandError{Command: "config", Action: "set", Reason: err.Error(), Err: err, Code: ExitConfigError}
		}
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		if strings.HasPrefix(err.Error(), "unknown field") || strings.Contains(err.Error(), "section") {
			return unknownKeyError(args.ConfigKey, err)
		}
		return ErrInvalidFormat(args.ConfigKey, args.ConfigVal, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return &CommandError{Command: "config", Action: "set", Reason: err.Error(), Err: err, Code: ExitConfigError}
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return &CommandError{Command: "config", Action: "set", Reason: err.Error(), Err: err, Code: ExitConfigError}
	}

	if !args.Quiet {
		fmt.Fprintln(w, styles.RenderSuccess(fmt.Sprintf("%s = %s", args.ConfigKey, args.ConfigVal)))
	}
	return nil
}

func unknownKeyError(key string, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return NewValidationErrorWithExample("key", key, err.Error(), "one of: "+strings.Join(config.Keys(), ", "))
}
