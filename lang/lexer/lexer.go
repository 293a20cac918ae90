// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package lexer implements the line-oriented tokenizer for pug source.
//
// Design overview:
//
//   - One pass over the source, one line at a time. Blank lines are skipped
//     and never affect indentation.
//   - The first indented line fixes the indentation unit for the whole file:
//     either a run of spaces or a single tab. Every later line must use an
//     exact integer multiple of that unit with the same character.
//   - Depth transitions between consecutive content lines emit one INDENT or
//     DEDENT token per level; every content line ends with EOL.
//   - Interpolation spans (#{...}, !{...}) and attribute lists are scanned
//     with quote- and bracket-balancing so nested expressions never terminate
//     a span early.
package lexer

import (
	"fmt"
	"strings"

	"github.com/carlos-sweb/go-pug/lang/token"
)

// SyntaxError reports a malformed construct at a source position.
type SyntaxError struct {
	Pos      token.Position
	Msg      string
	Expected string // construct the scanner was looking for, may be empty
}

func (e *SyntaxError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("%s: syntax error: %s (expected %s)", e.Pos, e.Msg, e.Expected)
	}
	return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Msg)
}

// IndentationError reports inconsistent indentation: a mixed unit, a wrong
// character, or a width that is not a multiple of the file's unit.
type IndentationError struct {
	Pos token.Position
	Msg string
}

func (e *IndentationError) Error() string {
	return fmt.Sprintf("%s: indentation error: %s", e.Pos, e.Msg)
}

// Lexer holds the state for a single tokenization run.
type Lexer struct {
	filename string
	src      string

	toks  []token.Token
	unit  string // indentation unit, "" until the first indented line fixes it
	depth int    // depth of the previous content line

	lineNo  int // 1-based line currently being scanned
	lineOff int // byte offset of the current line's first character
}

// New creates a new Lexer for the given filename and source text.
func New(filename, source string) *Lexer {
	return &Lexer{filename: filename, src: source}
}

// Tokenize scans the whole input and returns the token stream terminated by
// EOF. It stops at the first error.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	off := 0
	for off <= len(l.src) {
		end := strings.IndexByte(l.src[off:], '\n')
		last := end < 0
		if last {
			end = len(l.src)
		} else {
			end += off
		}
		line := strings.TrimSuffix(l.src[off:end], "\r")
		l.lineNo++
		l.lineOff = off
		if err := l.scanLine(line); err != nil {
			return nil, err
		}
		if last {
			break
		}
		off = end + 1
	}
	// Close any open levels before EOF.
	for l.depth > 0 {
		l.depth--
		l.emit(token.DEDENT, "", 1, 0)
	}
	l.emit(token.EOF, "", 1, 0)
	return l.toks, nil
}

// pos builds a Position for the given 0-based byte index within the current
// line. col is the matching 1-based column.
func (l *Lexer) pos(col, idx int) token.Position {
	return token.Position{
		File:   l.filename,
		Line:   l.lineNo,
		Column: col,
		Offset: l.lineOff + idx,
	}
}

func (l *Lexer) emit(typ token.Type, literal string, col, idx int) {
	l.toks = append(l.toks, token.Token{Type: typ, Literal: literal, Pos: l.pos(col, idx)})
}

// scanLine handles one physical line: indentation bookkeeping followed by the
// line-head construct and any inline content.
func (l *Lexer) scanLine(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	ws := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	d, err := l.lineDepth(ws)
	if err != nil {
		return err
	}
	for l.depth < d {
		l.depth++
		l.emit(token.INDENT, "", 1, 0)
	}
	for l.depth > d {
		l.depth--
		l.emit(token.DEDENT, "", 1, 0)
	}
	if err := l.scanHead(line[len(ws):], len(ws)); err != nil {
		return err
	}
	l.emit(token.EOL, "", len(line)+1, len(line))
	return nil
}

// lineDepth validates the leading whitespace of a content line and converts
// it into a depth. The first indented line fixes the unit.
func (l *Lexer) lineDepth(ws string) (int, error) {
	if ws == "" {
		return 0, nil
	}
	if strings.ContainsRune(ws, ' ') && strings.ContainsRune(ws, '\t') {
		return 0, &IndentationError{Pos: l.pos(1, 0), Msg: "mixed spaces and tabs in indentation"}
	}
	if l.unit == "" {
		if ws[0] == '\t' {
			l.unit = "\t"
		} else {
			l.unit = ws
		}
	}
	if ws[0] != l.unit[0] {
		return 0, &IndentationError{
			Pos: l.pos(1, 0),
			Msg: fmt.Sprintf("indentation uses %s but the file's unit uses %s", charName(ws[0]), charName(l.unit[0])),
		}
	}
	if len(ws)%len(l.unit) != 0 {
		return 0, &IndentationError{
			Pos: l.pos(1, 0),
			Msg: fmt.Sprintf("indentation of %d is not a multiple of the unit width %d", len(ws), len(l.unit)),
		}
	}
	return len(ws) / len(l.unit), nil
}

func charName(c byte) string {
	if c == '\t' {
		return "tabs"
	}
	return "spaces"
}

// ---------------------------------------------------------------------------
// Line-head scanning
// ---------------------------------------------------------------------------

// scanHead scans the content of a line after its indentation. base is the
// width of that indentation, used for column arithmetic.
func (l *Lexer) scanHead(rest string, base int) error {
	col := func(i int) int { return base + i + 1 }
	idx := func(i int) int { return base + i }

	switch {
	case strings.HasPrefix(rest, "//-"):
		l.emit(token.SILENT, strings.TrimPrefix(rest[3:], " "), col(0), idx(0))
		return nil

	case strings.HasPrefix(rest, "//"):
		l.emit(token.COMMENT, strings.TrimPrefix(rest[2:], " "), col(0), idx(0))
		return nil

	case rest[0] == '|':
		return l.scanText(strings.TrimPrefix(rest[1:], " "), base+len(rest)-len(strings.TrimPrefix(rest[1:], " ")))

	case strings.HasPrefix(rest, "!="):
		l.emit(token.ECHORAW, "", col(0), idx(0))
		return l.scanEchoExpr(rest[2:], base+2)

	case rest[0] == '=':
		l.emit(token.ECHO, "", col(0), idx(0))
		return l.scanEchoExpr(rest[1:], base+1)

	case rest[0] == '+':
		return l.scanMixinCall(rest, base)

	case rest[0] == '.' || rest[0] == '#':
		// Class/id shorthand without a tag name implies div.
		return l.scanTagLine(rest, base)
	}

	name := readName(rest)
	if name == "" {
		return &SyntaxError{Pos: l.pos(col(0), idx(0)), Msg: fmt.Sprintf("unexpected character %q at start of line", rest[0])}
	}
	if name == "doctype" && (len(rest) == len(name) || rest[len(name)] == ' ') {
		l.emit(token.DOCTYPE, strings.TrimSpace(rest[len(name):]), col(0), idx(0))
		return nil
	}
	if token.IsKeyword(name) && (len(rest) == len(name) || rest[len(name)] == ' ' || rest[len(name)] == ':') {
		return l.scanKeywordLine(name, rest, base)
	}
	return l.scanTagLine(rest, base)
}

// scanEchoExpr emits the EXPR following an echo marker. off is the offset of
// the expression text within the line.
func (l *Lexer) scanEchoExpr(s string, off int) error {
	expr := strings.TrimSpace(s)
	if expr == "" {
		return &SyntaxError{Pos: l.pos(off+1, off), Msg: "missing expression after echo marker", Expected: "expression"}
	}
	lead := strings.Index(s, expr)
	l.emit(token.EXPR, expr, off+lead+1, off+lead)
	return nil
}

// scanMixinCall scans "+name(args)".
func (l *Lexer) scanMixinCall(rest string, base int) error {
	name := readName(rest[1:])
	if name == "" {
		return &SyntaxError{Pos: l.pos(base+2, base+1), Msg: "missing mixin name after '+'", Expected: "mixin name"}
	}
	l.emit(token.MIXINCALL, name, base+1, base)
	i := 1 + len(name)
	if i < len(rest) && rest[i] == '(' {
		var err error
		i, err = l.scanAttrList(rest, i, base)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(rest[i:]) != "" {
		return &SyntaxError{Pos: l.pos(base + i + 1, base + i), Msg: "unexpected content after mixin call"}
	}
	return nil
}

// scanKeywordLine scans a control-flow or composition line.
func (l *Lexer) scanKeywordLine(word, rest string, base int) error {
	l.emit(token.KEYWORD, word, base+1, base)
	i := len(word)

	switch word {
	case "if", "unless", "each":
		expr := strings.TrimSpace(rest[i:])
		if expr == "" {
			return &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: "missing expression after '" + word + "'", Expected: "expression"}
		}
		at := strings.Index(rest, expr)
		l.emit(token.EXPR, expr, base+at+1, base+at)
		return nil

	case "else":
		tail := strings.TrimSpace(rest[i:])
		if tail == "" {
			return nil
		}
		if tail == "if" || strings.HasPrefix(tail, "if ") {
			at := strings.Index(rest[i:], "if") + i
			l.emit(token.KEYWORD, "if", base+at+1, base+at)
			expr := strings.TrimSpace(tail[2:])
			if expr == "" {
				return &SyntaxError{Pos: l.pos(base+at+3, base+at+2), Msg: "missing expression after 'else if'", Expected: "expression"}
			}
			eat := strings.LastIndex(rest, expr)
			l.emit(token.EXPR, expr, base+eat+1, base+eat)
			return nil
		}
		return &SyntaxError{Pos: l.pos(base+i+2, base+i+1), Msg: "unexpected content after 'else'"}

	case "mixin":
		for i < len(rest) && rest[i] == ' ' {
			i++
		}
		name := readName(rest[i:])
		if name == "" {
			return &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: "missing mixin name", Expected: "mixin name"}
		}
		l.emit(token.IDENT, name, base+i+1, base+i)
		i += len(name)
		if i < len(rest) && rest[i] == '(' {
			var err error
			i, err = l.scanAttrList(rest, i, base)
			if err != nil {
				return err
			}
		}
		if strings.TrimSpace(rest[i:]) != "" {
			return &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: "unexpected content after mixin declaration"}
		}
		return nil

	case "block":
		for _, f := range strings.Fields(rest[i:]) {
			at := strings.Index(rest[i:], f) + i
			l.emit(token.IDENT, f, base+at+1, base+at)
			i = at + len(f)
		}
		return nil

	case "extends":
		path := strings.TrimSpace(rest[i:])
		if path == "" {
			return &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: "missing path after 'extends'", Expected: "path"}
		}
		at := strings.Index(rest, path)
		l.emit(token.TEXT, path, base+at+1, base+at)
		return nil

	case "include":
		if i < len(rest) && rest[i] == ':' {
			filter := readName(rest[i+1:])
			if filter == "" {
				return &SyntaxError{Pos: l.pos(base+i+2, base+i+1), Msg: "missing filter name after 'include:'", Expected: "filter name"}
			}
			l.emit(token.IDENT, filter, base+i+2, base+i+1)
			i += 1 + len(filter)
		}
		path := strings.TrimSpace(rest[i:])
		if path == "" {
			return &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: "missing path after 'include'", Expected: "path"}
		}
		at := strings.LastIndex(rest, path)
		l.emit(token.TEXT, path, base+at+1, base+at)
		return nil
	}
	return &SyntaxError{Pos: l.pos(base+1, base), Msg: "unhandled keyword " + word}
}

// scanTagLine scans "name(.class)*(#id)?(attrs)? tail".
func (l *Lexer) scanTagLine(rest string, base int) error {
	i := 0
	if name := readName(rest); name != "" {
		l.emit(token.TAG, name, base+1, base)
		i = len(name)
	}
	sawID := false
	for i < len(rest) {
		switch rest[i] {
		case '.':
			cls := readName(rest[i+1:])
			if cls == "" {
				return &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: "missing class name after '.'", Expected: "class name"}
			}
			l.emit(token.CLASS, cls, base+i+1, base+i)
			i += 1 + len(cls)
			continue
		case '#':
			if sawID {
				return &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: "an element may carry at most one #id shorthand"}
			}
			id := readName(rest[i+1:])
			if id == "" {
				return &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: "missing id after '#'", Expected: "id"}
			}
			l.emit(token.ID, id, base+i+1, base+i)
			sawID = true
			i += 1 + len(id)
			continue
		}
		break
	}
	if i < len(rest) && rest[i] == '(' {
		var err error
		i, err = l.scanAttrList(rest, i, base)
		if err != nil {
			return err
		}
	}
	if i < len(rest) && rest[i] == '/' {
		l.emit(token.SELFCLOSE, "/", base+i+1, base+i)
		i++
	}
	if i >= len(rest) {
		return nil
	}
	switch {
	case strings.HasPrefix(rest[i:], "!="):
		l.emit(token.ECHORAW, "", base+i+1, base+i)
		return l.scanEchoExpr(rest[i+2:], base+i+2)
	case rest[i] == '=':
		l.emit(token.ECHO, "", base+i+1, base+i)
		return l.scanEchoExpr(rest[i+1:], base+i+1)
	case rest[i] == ' ':
		return l.scanText(rest[i+1:], base+i+1)
	}
	return &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: fmt.Sprintf("unexpected character %q after tag head", rest[i])}
}

// scanAttrList scans a balanced parenthesized attribute list starting at
// rest[i] == '(' and emits a single ATTRS token holding the inside text.
// Returns the index just past the closing parenthesis.
func (l *Lexer) scanAttrList(rest string, i, base int) (int, error) {
	end := scanBalanced(rest[i+1:], '(', ')')
	if end < 0 {
		return 0, &SyntaxError{Pos: l.pos(base+i+1, base+i), Msg: "unclosed attribute list", Expected: "')'"}
	}
	l.emit(token.ATTRS, rest[i+1:i+1+end], base+i+1, base+i)
	return i + 1 + end + 1, nil
}

// scanText scans inline text, splitting out #{...} and !{...} interpolation
// spans. off is the offset of s within the current line.
func (l *Lexer) scanText(s string, off int) error {
	start := 0
	i := 0
	flush := func(end int) {
		if end > start {
			l.emit(token.TEXT, s[start:end], off+start+1, off+start)
		}
	}
	for i < len(s) {
		raw := false
		switch {
		case strings.HasPrefix(s[i:], "#{"):
		case strings.HasPrefix(s[i:], "!{"):
			raw = true
		default:
			i++
			continue
		}
		flush(i)
		end := scanBalanced(s[i+2:], '{', '}')
		if end < 0 {
			return &SyntaxError{Pos: l.pos(off+i+1, off+i), Msg: "unterminated interpolation span", Expected: "'}'"}
		}
		typ := token.INTERP
		if raw {
			typ = token.INTERPRAW
		}
		l.emit(typ, s[i+2:i+2+end], off+i+1, off+i)
		i = i + 2 + end + 1
		start = i
	}
	flush(len(s))
	return nil
}

// ---------------------------------------------------------------------------
// Low-level helpers
// ---------------------------------------------------------------------------

// scanBalanced returns the index in s of the close byte that matches an
// already-consumed open delimiter, honouring nested open/close pairs and
// skipping quoted strings ('', "", ``) with backslash escapes. Returns -1 if
// the close is never found.
func scanBalanced(s string, open, close byte) int {
	depth := 1
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '-' || (c >= '0' && c <= '9')
}

// readName reads a leading identifier (letters, digits, '-', '_') from s.
func readName(s string) string {
	if s == "" || !isNameStart(s[0]) {
		return ""
	}
	i := 1
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	return s[:i]
}
