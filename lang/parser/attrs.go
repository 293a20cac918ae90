// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package parser

import (
	"fmt"
	"strings"

	"github.com/carlos-sweb/go-pug/lang/ast"
	"github.com/carlos-sweb/go-pug/lang/lexer"
	"github.com/carlos-sweb/go-pug/lang/token"
)

// parseAttrs splits the inside of an attribute list into name/expression
// pairs. Entries are separated by commas or whitespace at the top nesting
// level; a bare name is a boolean attribute and parses as the literal
// "true". Expression text may contain any balanced brackets and quoted
// strings; a top-level space terminates it, so expressions containing spaces
// must be wrapped in quotes, parentheses or brackets.
func parseAttrs(src string, pos token.Position) ([]ast.Attr, error) {
	var attrs []ast.Attr
	i := 0
	for {
		for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == ',') {
			i++
		}
		if i >= len(src) {
			return attrs, nil
		}
		at := shift(pos, i)
		name := readAttrName(src[i:])
		if name == "" {
			return nil, &lexer.SyntaxError{Pos: at, Msg: fmt.Sprintf("bad attribute name at %q", src[i:]), Expected: "attribute name"}
		}
		i += len(name)
		attr := ast.Attr{Name: name, Expr: "true", Pos: at}
		if i < len(src) && src[i] == '=' {
			i++
			start := i
			i = scanAttrExpr(src, i)
			expr := strings.TrimSpace(src[start:i])
			if expr == "" {
				return nil, &lexer.SyntaxError{Pos: shift(pos, start), Msg: "missing value after '='", Expected: "expression"}
			}
			attr.Expr = expr
		}
		attrs = append(attrs, attr)
	}
}

// scanAttrExpr advances past one attribute value expression, stopping at a
// top-level comma or whitespace.
func scanAttrExpr(src string, i int) int {
	depth := 0
	var quote byte
	for ; i < len(src); i++ {
		c := src[i]
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
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',', ' ', '\t':
			if depth == 0 {
				return i
			}
		}
	}
	return i
}

// parseParams splits a mixin parameter list: comma-separated names, each
// with an optional "=default" expression.
func parseParams(src string, pos token.Position) ([]ast.MixinParam, error) {
	var params []ast.MixinParam
	for _, entry := range splitTopLevel(src, ',') {
		name, def, hasDef := cutTopLevel(entry, '=')
		name = strings.TrimSpace(name)
		if !isIdent(name) {
			return nil, &lexer.SyntaxError{Pos: pos, Msg: fmt.Sprintf("bad mixin parameter %q", entry), Expected: "parameter name"}
		}
		p := ast.MixinParam{Name: name}
		if hasDef {
			p.Default = strings.TrimSpace(def)
			if p.Default == "" {
				return nil, &lexer.SyntaxError{Pos: pos, Msg: fmt.Sprintf("missing default for parameter %q", name), Expected: "expression"}
			}
		}
		params = append(params, p)
	}
	return params, nil
}

// splitEach takes the raw "v[, i] in expr" text of an each line apart.
func splitEach(src string) (item, index, iter string, err error) {
	vars, rest, ok := cutTopLevelWord(src, "in")
	if !ok {
		return "", "", "", fmt.Errorf("missing 'in' in each header %q", src)
	}
	iter = strings.TrimSpace(rest)
	if iter == "" {
		return "", "", "", fmt.Errorf("missing iterable expression in each header %q", src)
	}
	names := strings.Split(vars, ",")
	if len(names) > 2 {
		return "", "", "", fmt.Errorf("each declares at most two loop variables, got %q", vars)
	}
	item = strings.TrimSpace(names[0])
	if !isIdent(item) {
		return "", "", "", fmt.Errorf("bad loop variable %q", item)
	}
	if len(names) == 2 {
		index = strings.TrimSpace(names[1])
		if !isIdent(index) {
			return "", "", "", fmt.Errorf("bad index variable %q", index)
		}
	}
	return item, index, iter, nil
}

// ---------------------------------------------------------------------------
// Balanced string splitting
// ---------------------------------------------------------------------------

// splitTopLevel splits src on sep occurrences at bracket/quote depth zero,
// trimming each piece and dropping empty ones.
func splitTopLevel(src string, sep byte) []string {
	var out []string
	depth := 0
	var quote byte
	start := 0
	flush := func(end int) {
		if piece := strings.TrimSpace(src[start:end]); piece != "" {
			out = append(out, piece)
		}
	}
	for i := 0; i < len(src); i++ {
		c := src[i]
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
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(src))
	return out
}

// cutTopLevel splits src around the first top-level occurrence of sep.
func cutTopLevel(src string, sep byte) (before, after string, found bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
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
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		default:
			if c == sep && depth == 0 {
				return src[:i], src[i+1:], true
			}
		}
	}
	return src, "", false
}

// cutTopLevelWord splits src around the first top-level, space-delimited
// occurrence of word.
func cutTopLevelWord(src, word string) (before, after string, found bool) {
	depth := 0
	var quote byte
	for i := 0; i+len(word) <= len(src); i++ {
		c := src[i]
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
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
		if depth == 0 && src[i:i+len(word)] == word {
			if i > 0 && src[i-1] != ' ' && src[i-1] != '\t' {
				continue
			}
			end := i + len(word)
			if end < len(src) && src[end] != ' ' && src[end] != '\t' {
				continue
			}
			return src[:i], src[end:], true
		}
	}
	return src, "", false
}

func shift(pos token.Position, by int) token.Position {
	pos.Column += by
	pos.Offset += by
	return pos
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// readAttrName reads a leading attribute name: letters, digits and the
// punctuation HTML attribute names use (data-*, xml:lang, @click).
func readAttrName(s string) string {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '-' || c == '_' || c == ':' || c == '@' || c == '.' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			i++
			continue
		}
		break
	}
	return s[:i]
}
