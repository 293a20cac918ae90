// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package pug is the public face of the template engine: a compilation
// context holding a variable environment, and string-in/HTML-out
// compilation over the full pipeline (tokenize, parse, link, expand,
// render).
//
// A Context is not safe for concurrent use; independent compiles should
// each build their own.
package pug

import (
	"github.com/carlos-sweb/go-pug/lang/ast"
	"github.com/carlos-sweb/go-pug/lang/eval"
	"github.com/carlos-sweb/go-pug/lang/linker"
	"github.com/carlos-sweb/go-pug/lang/mixin"
	"github.com/carlos-sweb/go-pug/lang/parser"
	"github.com/carlos-sweb/go-pug/lang/render"
	"github.com/carlos-sweb/go-pug/lang/value"
)

const version = "0.3.0"

// Version returns the engine version string.
func Version() string { return version }

// Context carries the variable environment and the expression evaluator for
// one or more sequential compiles.
type Context struct {
	env  *value.Env
	eval eval.Evaluator
}

// New returns a Context with an empty environment and the default
// JavaScript expression evaluator.
func New() *Context {
	return &Context{env: value.NewEnv(), eval: eval.New()}
}

// NewWithEvaluator returns a Context backed by a caller-supplied expression
// evaluator.
func NewWithEvaluator(ev eval.Evaluator) *Context {
	return &Context{env: value.NewEnv(), eval: ev}
}

// Set binds a variable for subsequent compiles.
func (c *Context) Set(key string, v value.Value) { c.env.Set(key, v) }

// SetString binds a string variable.
func (c *Context) SetString(key, v string) { c.env.Set(key, value.String(v)) }

// SetInt binds an integer variable.
func (c *Context) SetInt(key string, v int64) { c.env.Set(key, value.Number(float64(v))) }

// SetFloat binds a floating-point variable.
func (c *Context) SetFloat(key string, v float64) { c.env.Set(key, value.Number(v)) }

// SetBool binds a boolean variable.
func (c *Context) SetBool(key string, v bool) { c.env.Set(key, value.Bool(v)) }

// Compile compiles an in-memory template to HTML. Templates compiled this
// way have no file loader, so extends and include fail.
func (c *Context) Compile(source string, mode render.Mode) (string, error) {
	tmpl, err := parser.Parse("<string>", source)
	if err != nil {
		return "", err
	}
	return c.finish(tmpl, linker.NoFiles{}, mode)
}

// CompileFile compiles the template at path to HTML, resolving extends and
// include relative to it.
func (c *Context) CompileFile(path string, mode render.Mode) (string, error) {
	var loader linker.DirLoader
	canonical, err := loader.Resolve(path, path)
	if err != nil {
		return "", err
	}
	src, err := loader.Read(canonical)
	if err != nil {
		return "", err
	}
	tmpl, err := parser.Parse(canonical, string(src))
	if err != nil {
		return "", err
	}
	return c.finish(tmpl, loader, mode)
}

func (c *Context) finish(tmpl *ast.Template, loader linker.Loader, mode render.Mode) (string, error) {
	linked, err := linker.Link(tmpl, loader)
	if err != nil {
		return "", err
	}
	expanded, err := mixin.Expand(linked)
	if err != nil {
		return "", err
	}
	return render.Render(expanded, c.env, c.eval, mode)
}
