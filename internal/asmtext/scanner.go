// Package asmtext drives a capture streamer from GAS-flavoured AArch64
// assembly text. It is a host-side frontend: the capture core only ever
// sees the events it emits.
package asmtext

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"asmcap/internal/capture"
	"asmcap/internal/ir"
)

// Scanner feeds assembly source to a Streamer one line at a time.
type Scanner struct {
	sink capture.Streamer
	line uint32 // physical line of the last fed line, 1-based
}

// NewScanner returns a scanner that emits into sink.
func NewScanner(sink capture.Streamer) *Scanner {
	return &Scanner{sink: sink}
}

// Scan reads r to EOF, emitting events for every construct found. Only a
// read failure is an error; unrecognized input produces no events.
func (s *Scanner) Scan(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		s.FeedLine(sc.Text())
	}
	return sc.Err()
}

// FeedLine processes one source line. It exists separately from Scan so
// incremental input, such as a tailed file, can be fed as it arrives.
func (s *Scanner) FeedLine(text string) {
	s.line++
	// The reported location follows the decoder convention the capture
	// expects: the lexer has already advanced past the statement when the
	// event fires, so the line is one ahead of the physical line.
	loc := ir.Location{Line: s.line + 1, Column: 1}
	s.scanLine(stripComment(text), loc)
}

func (s *Scanner) scanLine(text string, loc ir.Location) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	// Labels come first on a line; the remainder is rescanned so
	// "loop: add x0, x0, #1" works.
	if name, rest, ok := splitLabel(text); ok {
		s.sink.EmitLabel(name, loc)
		s.scanLine(rest, loc)
		return
	}

	if strings.HasPrefix(text, ".") {
		s.scanDirective(text)
		return
	}

	mnemonic, rest := cutField(text)
	raw := parseOperands(rest)
	s.sink.EmitInstruction(strings.ToLower(mnemonic), raw, loc)
}

// scanDirective maps the handful of directives the event contract covers
// onto pass-through events. Everything else is ignored entirely.
func (s *Scanner) scanDirective(text string) {
	dir, rest := cutField(text)
	args := splitArgs(rest)

	switch dir {
	case ".globl", ".global", ".weak", ".local", ".hidden", ".protected", ".internal":
		for _, sym := range args {
			s.sink.EmitSymbolAttribute(sym, strings.TrimPrefix(dir, "."))
		}
	case ".comm", ".lcomm":
		if len(args) >= 2 {
			size, _ := strconv.ParseUint(args[1], 0, 64)
			align := 0
			if len(args) >= 3 {
				align, _ = strconv.Atoi(args[2])
			}
			s.sink.EmitCommonSymbol(args[0], size, align)
		}
	case ".zero", ".skip", ".space":
		if len(args) >= 1 {
			size, _ := strconv.ParseUint(args[0], 0, 64)
			s.sink.EmitZerofill("", "", size, 0)
		}
	case ".zerofill":
		// .zerofill segment,section[,symbol[,size[,align]]]
		var symbol string
		var size uint64
		align := 0
		if len(args) >= 3 {
			symbol = args[2]
		}
		if len(args) >= 4 {
			size, _ = strconv.ParseUint(args[3], 0, 64)
		}
		if len(args) >= 5 {
			align, _ = strconv.Atoi(args[4])
		}
		if len(args) >= 2 {
			s.sink.EmitZerofill(args[0]+","+args[1], symbol, size, align)
		}
	}
}

// parseOperands splits an operand list on top-level commas and classifies
// each piece, preserving input order. Memory references and register lists
// come through as untracked operands; the capture drops those.
func parseOperands(text string) []capture.RawOperand {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parts := splitArgs(text)
	raw := make([]capture.RawOperand, 0, len(parts))
	for _, part := range parts {
		raw = append(raw, classifyOperand(part))
	}
	return raw
}

func classifyOperand(tok string) capture.RawOperand {
	if strings.HasPrefix(tok, "[") || strings.HasPrefix(tok, "{") ||
		strings.HasSuffix(tok, "]") || strings.HasSuffix(tok, "!") {
		return capture.RawOperand{Kind: capture.OperandUntracked}
	}

	imm := strings.TrimPrefix(tok, "#")
	if v, err := strconv.ParseInt(imm, 0, 64); err == nil {
		return capture.Imm(v)
	}
	if strings.HasPrefix(tok, "#") {
		// A '#' that does not parse as an integer (e.g. #:lo12:sym) is a
		// relocation expression we do not track.
		return capture.RawOperand{Kind: capture.OperandUntracked}
	}

	if id, ok := registerID(tok); ok {
		return capture.Reg(id)
	}
	return capture.Sym(tok)
}

// cutField splits off the first whitespace-delimited field.
func cutField(text string) (field, rest string) {
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		return text[:i], strings.TrimSpace(text[i+1:])
	}
	return text, ""
}

// splitLabel recognizes "name:" at the start of a line. Label names follow
// GAS rules: letters, digits, '_', '.', '$'.
func splitLabel(text string) (name, rest string, ok bool) {
	i := 0
	for i < len(text) && isSymbolChar(text[i]) {
		i++
	}
	if i == 0 || i >= len(text) || text[i] != ':' {
		return "", "", false
	}
	return text[:i], strings.TrimSpace(text[i+1:]), true
}

func isSymbolChar(c byte) bool {
	return c == '_' || c == '.' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// splitArgs splits on commas that are not nested inside brackets or braces,
// so "[sp, #16]" stays one argument.
func splitArgs(text string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}

// stripComment removes line comments: "//" and "@" anywhere, ";" and "#"
// only at the start of the line ('#' marks immediates elsewhere).
func stripComment(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	if i := strings.Index(text, "//"); i >= 0 {
		text = text[:i]
	}
	if i := strings.Index(text, "@"); i >= 0 {
		text = text[:i]
	}
	return text
}
