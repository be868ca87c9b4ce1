// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Subcommand argument parsing shared by the config and stats commands.

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits subcommand arguments into flags and positionals.
// It handles:
//   - Long flags: --flag value or --flag=value
//   - Boolean flags: --flag (names passed to NewArgParser never take a value)
//   - Positional arguments: arguments without a leading dash
//   - Subcommands: the first positional argument
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser parses raw. Flags named in boolNames are boolean and never
// consume the following argument.
//
// Example:
//
//	p := NewArgParser([]string{"init", "--force"}, "force")
//	p.Subcommand()      // "init"
//	p.BoolFlag("force") // true
func NewArgParser(raw []string, boolNames ...string) *ArgParser {
	parser := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
		raw:       raw,
	}
	isBool := make(map[string]bool, len(boolNames))
	for _, name := range boolNames {
		isBool[name] = true
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			parser.positional = append(parser.positional, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch {
		case hasValue && isBool[name]:
			b, err := ParseBoolString(value)
			parser.boolFlags[name] = err == nil && b
		case hasValue:
			parser.flags[name] = value
		case isBool[name]:
			parser.boolFlags[name] = true
		case i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-"):
			parser.flags[name] = raw[i+1]
			i++
		default:
			parser.boolFlags[name] = true
		}
	}

	if len(parser.positional) > 0 {
		parser.subcommand = parser.positional[0]
	}
	return parser
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	return p.subcommand
}

// Flag returns the value of a string flag, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[strings.TrimLeft(name, "-")]
}

// IntFlag returns the flag value as an integer.
func (p *ArgParser) IntFlag(name string) (int, error) {
	val := p.Flag(name)
	if val == "" {
		return 0, fmt.Errorf("flag %s not found", name)
	}
	return strconv.Atoi(val)
}

// BoolFlag returns the value of a boolean flag, false if absent.
func (p *ArgParser) BoolFlag(name string) bool {
	return p.boolFlags[strings.TrimLeft(name, "-")]
}

// HasFlag returns true if the flag exists (either as string or bool flag).
func (p *ArgParser) HasFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	_, hasString := p.flags[name]
	_, hasBool := p.boolFlags[name]
	return hasString || hasBool
}

// Positional returns the positional argument at index, or "".
// Index 0 is the subcommand.
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalFrom returns all positional arguments starting from index.
func (p *ArgParser) PositionalFrom(index int) []string {
	if index < 0 || index >= len(p.positional) {
		return []string{}
	}
	return p.positional[index:]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the original raw arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}

// ParseBoolString parses a boolean from various string representations.
// Accepts: true/false, yes/no, y/n, 1/0, on/off (case-insensitive)
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}
