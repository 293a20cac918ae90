// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package token defines the lexical token types for the pug template language.
//
// The language is line- and indentation-oriented: the lexer emits one
// INDENT/DEDENT per depth transition between consecutive non-blank lines and
// an EOL at the end of every content line, so the parser never has to look at
// raw source again.
package token

import "fmt"

// Token represents a lexical token.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}

// Position tracks source location.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Type is the set of lexical token types.
type Type int

const (
	// Special tokens
	ILLEGAL Type = iota
	EOF
	INDENT // depth went one level deeper
	DEDENT // depth went one level shallower
	EOL    // end of a content line

	// Line-head constructs
	TAG       // div, span, my-tag
	CLASS     // .container  (literal holds "container")
	ID        // #main       (literal holds "main")
	ATTRS     // (a=1, b="x"), literal holds the balanced inside text
	SELFCLOSE // trailing "/" on a tag line
	MIXINCALL // +name       (literal holds "name")
	KEYWORD   // if, else, unless, each, mixin, block, extends, include
	IDENT     // bare name after a keyword (mixin name, block name, filter)
	DOCTYPE   // doctype html, literal holds the kind
	COMMENT   // // text, visible HTML comment
	SILENT    // //- text, compile-time only comment

	// Inline content
	TEXT      // literal text segment
	INTERP    // #{expr}, escaped interpolation, literal holds expr source
	INTERPRAW // !{expr}, raw interpolation
	ECHO      // = expr, escaped buffered echo marker
	ECHORAW   // != expr, raw buffered echo marker
	EXPR      // raw expression source (after if/each/echo markers)
)

var tokenNames = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	INDENT:  "INDENT",
	DEDENT:  "DEDENT",
	EOL:     "EOL",

	TAG:       "TAG",
	CLASS:     "CLASS",
	ID:        "ID",
	ATTRS:     "ATTRS",
	SELFCLOSE: "SELFCLOSE",
	MIXINCALL: "MIXINCALL",
	KEYWORD:   "KEYWORD",
	IDENT:     "IDENT",
	DOCTYPE:   "DOCTYPE",
	COMMENT:   "COMMENT",
	SILENT:    "SILENT",

	TEXT:      "TEXT",
	INTERP:    "INTERP",
	INTERPRAW: "INTERPRAW",
	ECHO:      "ECHO",
	ECHORAW:   "ECHORAW",
	EXPR:      "EXPR",
}

// String returns the string form of a token type.
func (t Type) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// Keywords recognised at the head of a line. "else if" is lexed as two
// KEYWORD tokens; "append"/"prepend" after "block" arrive as IDENT.
var keywords = map[string]bool{
	"if":      true,
	"else":    true,
	"unless":  true,
	"each":    true,
	"mixin":   true,
	"block":   true,
	"extends": true,
	"include": true,
}

// IsKeyword reports whether word is a line-head keyword.
func IsKeyword(word string) bool {
	return keywords[word]
}
