// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package mixin inlines every mixin call of a linked tree.
//
// Design overview:
//
//   - A first pass hoists all definitions into one name→definition map, so a
//     call may reference a mixin declared textually later or in an included
//     file. Redefinition is allowed; the last definition wins.
//   - A second pass rewrites the tree. Each call becomes a Scope node: the
//     definition body is deep-cloned, call-site block content is spliced at
//     bare block markers, and the declared parameters are bound to the
//     positional argument expressions (falling back to declared defaults, or
//     to null when neither exists, never an error).
//   - Expansion is static, so recursion cannot terminate on a runtime
//     condition; a depth bound turns runaway recursion into an error instead
//     of divergence.
//
// After Expand returns, no MixinDef or MixinCall nodes remain.
package mixin

import (
	"fmt"

	"github.com/carlos-sweb/go-pug/lang/ast"
	"github.com/carlos-sweb/go-pug/lang/token"
)

// MaxDepth bounds nested mixin expansion.
const MaxDepth = 100

// ErrKind classifies expansion failures.
type ErrKind int

const (
	ErrUnknownMixin ErrKind = iota
	ErrRecursionLimit
)

// ExpansionError reports a failed mixin expansion.
type ExpansionError struct {
	Kind ErrKind
	Name string
	Pos  token.Position
}

func (e *ExpansionError) Error() string {
	switch e.Kind {
	case ErrUnknownMixin:
		return fmt.Sprintf("%s: expansion error: unknown mixin %q", e.Pos, e.Name)
	case ErrRecursionLimit:
		return fmt.Sprintf("%s: expansion error: mixin %q exceeds the expansion depth limit of %d", e.Pos, e.Name, MaxDepth)
	}
	return fmt.Sprintf("%s: expansion error: mixin %q", e.Pos, e.Name)
}

// Expand inlines all mixin calls in nodes and strips the definitions.
func Expand(nodes []ast.Node) ([]ast.Node, error) {
	x := &expander{defs: make(map[string]*ast.MixinDef)}
	x.hoist(nodes)
	return x.rewrite(nodes, 0)
}

type expander struct {
	defs map[string]*ast.MixinDef
}

// hoist collects every definition in the tree, including those nested in
// other constructs.
func (x *expander) hoist(nodes []ast.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *ast.MixinDef:
			x.defs[n.Name] = n
			x.hoist(n.Body)
		case *ast.Element:
			x.hoist(n.Children)
		case *ast.Conditional:
			for _, b := range n.Branches {
				x.hoist(b.Body)
			}
			x.hoist(n.Else)
		case *ast.Each:
			x.hoist(n.Body)
			x.hoist(n.Else)
		case *ast.Block:
			x.hoist(n.Body)
		case *ast.MixinCall:
			x.hoist(n.Block)
		}
	}
}

// rewrite walks a node list replacing calls and dropping definitions.
func (x *expander) rewrite(nodes []ast.Node, depth int) ([]ast.Node, error) {
	if nodes == nil {
		return nil, nil
	}
	out := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		switch n := n.(type) {
		case *ast.MixinDef:
			continue
		case *ast.MixinCall:
			scope, err := x.expandCall(n, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, scope)
			continue
		}
		rewritten, err := x.rewriteIn(n, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, rewritten)
	}
	return out, nil
}

func (x *expander) rewriteIn(n ast.Node, depth int) (ast.Node, error) {
	var err error
	switch n := n.(type) {
	case *ast.Element:
		n.Children, err = x.rewrite(n.Children, depth)
	case *ast.Conditional:
		for i := range n.Branches {
			n.Branches[i].Body, err = x.rewrite(n.Branches[i].Body, depth)
			if err != nil {
				return n, err
			}
		}
		n.Else, err = x.rewrite(n.Else, depth)
	case *ast.Each:
		n.Body, err = x.rewrite(n.Body, depth)
		if err != nil {
			return n, err
		}
		n.Else, err = x.rewrite(n.Else, depth)
	case *ast.Scope:
		n.Body, err = x.rewrite(n.Body, depth)
	case *ast.Block:
		n.Body, err = x.rewrite(n.Body, depth)
	}
	return n, err
}

// expandCall inlines one call: clone the definition body, splice the call's
// block content at bare markers, bind parameters, then expand nested calls
// one level deeper.
func (x *expander) expandCall(call *ast.MixinCall, depth int) (ast.Node, error) {
	def, ok := x.defs[call.Name]
	if !ok {
		return nil, &ExpansionError{Kind: ErrUnknownMixin, Name: call.Name, Pos: call.Pos()}
	}
	if depth+1 > MaxDepth {
		return nil, &ExpansionError{Kind: ErrRecursionLimit, Name: call.Name, Pos: call.Pos()}
	}

	body := spliceBlocks(ast.CloneNodes(def.Body), call.Block)

	bindings := make([]ast.Binding, len(def.Params))
	for i, param := range def.Params {
		b := ast.Binding{Name: param.Name}
		switch {
		case i < len(call.Args):
			b.Expr = call.Args[i]
		case param.Default != "":
			b.Expr = param.Default
		}
		bindings[i] = b
	}

	body, err := x.rewrite(body, depth+1)
	if err != nil {
		return nil, err
	}
	return &ast.Scope{Origin: ast.At(call.Pos()), Bindings: bindings, Body: body}, nil
}

// spliceBlocks replaces every bare block marker with the call-site content.
// Without call-site content the marker simply disappears; a call-site block
// with no marker in the definition body is silently discarded.
func spliceBlocks(nodes, content []ast.Node) []ast.Node {
	if nodes == nil {
		return nil
	}
	out := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if b, ok := n.(*ast.Block); ok && b.Name == "" {
			out = append(out, ast.CloneNodes(content)...)
			continue
		}
		switch n := n.(type) {
		case *ast.Element:
			n.Children = spliceBlocks(n.Children, content)
		case *ast.Conditional:
			for i := range n.Branches {
				n.Branches[i].Body = spliceBlocks(n.Branches[i].Body, content)
			}
			n.Else = spliceBlocks(n.Else, content)
		case *ast.Each:
			n.Body = spliceBlocks(n.Body, content)
			n.Else = spliceBlocks(n.Else, content)
		case *ast.MixinCall:
			n.Block = spliceBlocks(n.Block, content)
		}
		out = append(out, n)
	}
	return out
}
