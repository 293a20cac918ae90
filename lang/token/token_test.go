// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package token

import "testing"

func TestIsKeyword(t *testing.T) {
	for _, word := range []string{"if", "else", "unless", "each", "mixin", "block", "extends", "include"} {
		if !IsKeyword(word) {
			t.Errorf("IsKeyword(%q) = false", word)
		}
	}
	for _, word := range []string{"div", "doctype", "If", "elseif", ""} {
		if IsKeyword(word) {
			t.Errorf("IsKeyword(%q) = true", word)
		}
	}
}

func TestPositionString(t *testing.T) {
	pos := Position{File: "a.pug", Line: 3, Column: 7, Offset: 21}
	if got := pos.String(); got != "a.pug:3:7" {
		t.Errorf("Position.String() = %q", got)
	}
}

func TestTypeNames(t *testing.T) {
	if ILLEGAL.String() == "" || EOF.String() == "" || INTERP.String() == "" {
		t.Error("token type has no name")
	}
	if INDENT.String() == DEDENT.String() {
		t.Error("INDENT and DEDENT share a name")
	}
}
