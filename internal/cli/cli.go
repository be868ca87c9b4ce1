// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for parley.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdConfig
	CmdStats
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdConfig:
		return "config"
	case CmdStats:
		return "stats"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "tui"
	}
}

// DefaultStatsDays is the window of "parley stats" without --days.
const DefaultStatsDays = 7

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	URL        string
	Timeout    time.Duration
	ConfigPath string
	Quiet      bool
	Verbose    bool
	NoColor    bool
	JSON       bool

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Force      bool
	Days       int
	Recent     int
	Prune      bool

	// Raw args remaining after the command name
	Raw []string
}

const usageText = `parley - terminal chat client

Usage:
  parley                         Start the chat TUI (default)
  parley ask "question"          Ask a single question and print the reply
  parley chat                    Line-mode chat with history
  parley config [show|path|init] Show or create the configuration
  parley config get <key>        Print one configuration value
  parley config set <key> <val>  Change one configuration value
  parley stats [--days N]        Summarize recorded calls
        [--recent N] [--prune]   List the last N calls; drop older records
  parley version                 Show version information
  parley help                    Show this help

Global Flags:
  --url URL          Endpoint base URL (overrides api.base_url)
  --timeout DUR      Per-attempt timeout, e.g. 30s or 30
  --config PATH      Config file (default ~/.parley/config.toml)
  -q, --quiet        Minimal output
  -v, --verbose      Debug logging to stderr (ask, chat)
  --no-color         Disable colored output
  --json             JSON output (ask, config, stats, version)

Chat Commands:
  /help              Show chat commands
  /regen [n]         Regenerate the last reply, or turn n
  /copy [n]          Copy the last reply, or turn n
  /history           List the turns of this session
  /new               Start a new session
  /stats             Show session statistics
  /quit              Exit

Environment:
  PARLEY_CONFIG, PARLEY_API_URL, PARLEY_TIMEOUT, PARLEY_MAX_ATTEMPTS,
  PARLEY_LOG_LEVEL, PARLEY_THEME, PARLEY_TELEMETRY, NO_COLOR

Examples:
  parley ask "What is the Transformers architecture?"
  echo "Describe generative AI using emojis." | parley ask
  parley --url http://localhost:8080/api chat
  parley config set ui.theme light
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// VersionData is the JSON payload of "parley version --json".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HandleVersion writes version information.
func HandleVersion(w io.Writer, args Args) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if args.JSON {
		return NewJSONResponse("version", data).Print(w)
	}
	fmt.Fprintf(w, "parley %s\n", data.Version)
	if !args.Quiet {
		fmt.Fprintf(w, "  commit: %s\n  built:  %s\n  go:     %s (%s)\n",
			data.GitCommit, data.BuildDate, data.GoVersion, data.Platform)
	}
	return nil
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name). Global flags may appear
// anywhere before "--"; everything after "--" is positional.
func ParseArgs(argv []string) (Command, Args, error) {
	remaining, parsed, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, parsed, err
	}

	if len(remaining) == 0 {
		return CmdTUI, parsed, nil
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsed, nil

	case "ask", "a":
		parsed.Query = strings.Join(remaining, " ")
		return CmdAsk, parsed, nil

	case "chat", "c":
		if len(remaining) > 0 {
			return CmdChat, parsed, NewValidationErrorWithExample("argument", remaining[0],
				"chat takes no arguments", "parley chat")
		}
		return CmdChat, parsed, nil

	case "config":
		return CmdConfig, parsed, parseConfigArgs(&parsed, remaining)

	case "stats":
		return CmdStats, parsed, parseStatsArgs(&parsed, remaining)

	case "version":
		return CmdVersion, parsed, nil

	case "help":
		return CmdHelp, parsed, nil

	default:
		return CmdHelp, parsed, ErrUnknownCommand(cmd)
	}
}

// parseGlobalFlags extracts global flags from args and returns the rest.
func parseGlobalFlags(args []string) ([]string, Args, error) {
	var remaining []string
	parsed := Args{Days: DefaultStatsDays}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			remaining = append(remaining, args[i+1:]...)
			break
		}

		name, value, hasValue := strings.Cut(arg, "=")
		switch name {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--no-color":
			parsed.NoColor = true
		case "--json":
			parsed.JSON = true
		case "-h", "--help":
			return nil, parsed, ErrHelpRequested
		case "--version":
			return []string{"version"}, parsed, nil
		case "--url", "--timeout", "--config":
			if !hasValue {
				if i+1 >= len(args) {
					return nil, parsed, ErrMissingArgument(name, name+" VALUE")
				}
				i++
				value = args[i]
			}
			if err := setValueFlag(&parsed, name, value); err != nil {
				return nil, parsed, err
			}
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsed, nil
}

func setValueFlag(parsed *Args, name, value string) error {
	switch name {
	case "--url":
		parsed.URL = strings.TrimSpace(value)
	case "--config":
		parsed.ConfigPath = strings.TrimSpace(value)
	case "--timeout":
		d, err := parseTimeout(value)
		if err != nil {
			return err
		}
		parsed.Timeout = d
	}
	return nil
}

// parseTimeout accepts a Go duration ("45s", "2m") or whole seconds ("45").
func parseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		if n <= 0 {
			return 0, ErrInvalidFormat("timeout", value, "a positive duration such as 30s")
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, ErrInvalidFormat("timeout", value, "a positive duration such as 30s")
	}
	return d, nil
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) error {
	p := NewArgParser(remaining, "force")
	args.Subcommand = strings.ToLower(p.Subcommand())
	args.Force = p.BoolFlag("force")
	args.ConfigKey = p.Positional(1)
	args.ConfigVal = strings.Join(p.PositionalFrom(2), " ")

	switch args.Subcommand {
	case "", "show", "path", "init":
	case "get":
		if args.ConfigKey == "" {
			return ErrMissingArgument("key", "parley config get api.base_url")
		}
	case "set":
		if args.ConfigKey == "" || p.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "parley config set ui.theme light")
		}
	default:
		return ErrUnknownSubcommand("config", args.Subcommand, []string{"show", "path", "init", "get", "set"})
	}
	return nil
}

// parseStatsArgs parses stats command specific arguments.
func parseStatsArgs(args *Args, remaining []string) error {
	p := NewArgParser(remaining, "prune")
	if p.PositionalCount() > 0 {
		return NewValidationErrorWithExample("argument", p.Subcommand(), "stats takes no arguments", "parley stats --days 30")
	}
	if p.HasFlag("days") {
		n, err := p.IntFlag("days")
		if err != nil || n < 1 {
			return ErrInvalidFormat("days", p.Flag("days"), "a positive number of days")
		}
		args.Days = n
	}
	if p.HasFlag("recent") {
		n, err := p.IntFlag("recent")
		if err != nil || n < 1 {
			return ErrInvalidFormat("recent", p.Flag("recent"), "a positive number of calls")
		}
		args.Recent = n
	}
	args.Prune = p.BoolFlag("prune")
	return nil
}
