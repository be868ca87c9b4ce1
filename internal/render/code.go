// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// CodeBlock is one fenced block of a reply.
type CodeBlock struct {
	Language string
	Code     string
}

// CodeBlocks extracts fenced (```) blocks in order. An unclosed final
// fence runs to the end of content.
func CodeBlocks(content string) []CodeBlock {
	var blocks []CodeBlock
	for _, seg := range splitFences(content) {
		if seg.code {
			blocks = append(blocks, seg.block)
		}
	}
	return blocks
}

// LastCodeBlock returns the final fenced block, if any.
func LastCodeBlock(content string) (CodeBlock, bool) {
	blocks := CodeBlocks(content)
	if len(blocks) == 0 {
		return CodeBlock{}, false
	}
	return blocks[len(blocks)-1], true
}

type segment struct {
	code  bool
	text  string
	block CodeBlock
}

// splitFences splits content into prose and code segments.
func splitFences(content string) []segment {
	var (
		segs    []segment
		prose   []string
		code    []string
		lang    string
		inFence bool
	)
	flushProse := func() {
		if len(prose) > 0 {
			segs = append(segs, segment{text: strings.Join(prose, "\n")})
			prose = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inFence && strings.HasPrefix(trimmed, "```"):
			flushProse()
			lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			inFence = true
		case inFence && trimmed == "```":
			segs = append(segs, segment{code: true, block: CodeBlock{Language: lang, Code: strings.Join(code, "\n")}})
			code, lang, inFence = nil, "", false
		case inFence:
			code = append(code, line)
		default:
			prose = append(prose, line)
		}
	}

	if inFence {
		segs = append(segs, segment{code: true, block: CodeBlock{Language: lang, Code: strings.Join(code, "\n")}})
	}
	flushProse()
	return segs
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// Highlight colors code for a 256-color terminal. Unknown languages are
// detected from the content; any failure returns code unchanged.
func Highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// DetectLanguage returns chroma's best guess at the language of code.
func DetectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
