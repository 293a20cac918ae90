// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package value

// Env is a variable environment: a frame of name bindings with an optional
// parent. The caller-supplied environment is the root frame; loop variables
// and mixin parameter bindings live in child frames so they cannot leak into
// sibling renders. An Env is written before a compile starts and by the
// renderer's own child frames only; it must not be shared between concurrent
// compiles while one of them writes.
type Env struct {
	parent *Env
	vars   map[string]Value
}

// NewEnv returns an empty root environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]Value)}
}

// Child returns a new frame whose lookups fall through to e.
func (e *Env) Child() *Env {
	return &Env{parent: e, vars: make(map[string]Value)}
}

// Set binds a name in this frame, shadowing any outer binding.
func (e *Env) Set(name string, v Value) {
	e.vars[name] = v
}

// Lookup resolves a name through the frame chain.
func (e *Env) Lookup(name string) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Flatten collapses the frame chain into a single name→value view, inner
// frames shadowing outer ones.
func (e *Env) Flatten() map[string]Value {
	var frames []*Env
	for f := e; f != nil; f = f.parent {
		frames = append(frames, f)
	}
	out := make(map[string]Value)
	for i := len(frames) - 1; i >= 0; i-- {
		for k, v := range frames[i].vars {
			out[k] = v
		}
	}
	return out
}
