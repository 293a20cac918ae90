// Copyright 2025 The go-pug Authors
// This file is part of go-pug.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carlos-sweb/go-pug/lang/value"
)

func writeVars(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vars.toml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadVars(t *testing.T) {
	path := writeVars(t, `
name = "ana"
age = 20
ratio = 0.5
admin = true
tags = ["go", "pug"]

[site]
title = "My Site"
year = 2026
`)
	vars, err := loadVars(path)
	if err != nil {
		t.Fatalf("loadVars: %v", err)
	}

	checks := []struct {
		key  string
		want value.Value
	}{
		{"name", value.String("ana")},
		{"age", value.Number(20)},
		{"ratio", value.Number(0.5)},
		{"admin", value.Bool(true)},
		{"tags", value.List(value.String("go"), value.String("pug"))},
		{"site", value.MapValue(value.NewMap().
			Set("title", value.String("My Site")).
			Set("year", value.Number(2026)))},
	}
	for _, c := range checks {
		got, ok := vars[c.key]
		if !ok {
			t.Errorf("missing key %q", c.key)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("vars[%q] = %s, want %s", c.key, got, c.want)
		}
	}
}

func TestLoadVarsEmptyPath(t *testing.T) {
	vars, err := loadVars("")
	if err != nil {
		t.Fatalf("loadVars: %v", err)
	}
	if len(vars) != 0 {
		t.Errorf("got %d vars, want none", len(vars))
	}
}

func TestLoadVarsBadFile(t *testing.T) {
	if _, err := loadVars(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file loaded without error")
	}
	if _, err := loadVars(writeVars(t, "= broken")); err == nil {
		t.Error("malformed TOML loaded without error")
	}
}

func TestOutputPath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"page.pug", "page.html"},
		{"a/b/page.pug", "a/b/page.html"},
		{"noext", "noext.html"},
	}
	for _, tc := range cases {
		if got := outputPath(tc.in); got != tc.want {
			t.Errorf("outputPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
