// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package ast defines the Abstract Syntax Tree for pug templates.
//
// Design overview:
//
//   - Every node carries the source position of the line that produced it so
//     later stages can attach positions to their errors.
//   - Expressions are kept as raw source strings; they cross the evaluator
//     boundary untouched and are only given meaning at render time.
//   - Nodes are built once per compile and treated as immutable afterwards.
//     The linker and the mixin expander produce new nodes (see Clone) rather
//     than mutating trees they did not build.
package ast

import (
	"github.com/carlos-sweb/go-pug/lang/token"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() token.Position
	node()
}

// Origin is the position field embedded by every node type.
type Origin token.Position

func (o Origin) Pos() token.Position { return token.Position(o) }

// Template is the root of a parsed file: its top-level nodes plus an optional
// extends reference. When Extends is set the parser guarantees the top level
// holds only block overrides, mixin definitions and comments.
type Template struct {
	Filename string
	Extends  *Extends
	Nodes    []Node
}

// ---------------------------------------------------------------------------
// Content nodes
// ---------------------------------------------------------------------------

// Attr is one entry of an element's attribute list. Expr holds the raw
// expression source; a bare attribute name parses as the literal "true".
type Attr struct {
	Name string
	Expr string
	Pos  token.Position
}

// Element is a single HTML tag with its shorthand classes and id, attribute
// list and children.
type Element struct {
	Origin
	Name        string
	Classes     []string // first-seen order, duplicates dropped
	ID          string   // #id shorthand, "" when absent
	Attrs       []Attr
	Children    []Node
	SelfClosing bool
}

func (*Element) node() {}

// SegmentKind distinguishes the pieces of a Text node.
type SegmentKind int

const (
	Literal   SegmentKind = iota // verbatim text
	Interp                       // #{expr}: evaluated, stringified, escaped
	InterpRaw                    // !{expr}: evaluated, stringified, not escaped
)

// Segment is one literal or interpolated piece of a text line.
type Segment struct {
	Kind SegmentKind
	Text string // literal text, or expression source for interpolations
	Pos  token.Position
}

// Text is a run of inline text: plain text lines, inline tag text and
// buffered echoes all lower to this.
type Text struct {
	Origin
	Segments []Segment
}

func (*Text) node() {}

// CondBranch is one "if"/"else if" arm of a Conditional.
type CondBranch struct {
	Expr   string
	Negate bool // true for "unless"
	Pos    token.Position
	Body   []Node
}

// Conditional is an if/else-if/else chain. Else is non-nil (possibly empty)
// once an else arm has been attached; a second else is a parse error.
type Conditional struct {
	Origin
	Branches []CondBranch
	Else     []Node
}

func (*Conditional) node() {}

// Each is a loop over a list or map. Else is rendered when the iterable is
// empty; non-nil marks its presence, as with Conditional.
type Each struct {
	Origin
	ItemVar  string
	IndexVar string // "" when not declared; bound to index or map key
	Expr     string
	Body     []Node
	Else     []Node
}

func (*Each) node() {}

// MixinParam is a declared mixin parameter with an optional default
// expression.
type MixinParam struct {
	Name    string
	Default string // "" means no default: unbound arguments are undefined
}

// MixinDef declares a reusable, parameterized body. Definitions are hoisted
// by the expander and removed from the final tree.
type MixinDef struct {
	Origin
	Name   string
	Params []MixinParam
	Body   []Node
}

func (*MixinDef) node() {}

// MixinCall invokes a mixin with positional argument expressions. A deeper
// indented block following the call is captured as Block content and spliced
// at bare block markers inside the definition body.
type MixinCall struct {
	Origin
	Name  string
	Args  []string
	Block []Node
}

func (*MixinCall) node() {}

// BlockMode is how a block override combines with inherited content.
type BlockMode int

const (
	BlockDefault BlockMode = iota // plain "block name": declares or replaces
	BlockAppend
	BlockPrepend
)

// Block is a named, overridable content slot, or, with an empty Name, the
// bare "block" marker inside a mixin body where call-site content lands.
type Block struct {
	Origin
	Name string
	Mode BlockMode
	Body []Node
}

func (*Block) node() {}

// Extends declares the template's ancestor.
type Extends struct {
	Origin
	Path string
}

func (*Extends) node() {}

// Include splices another file in place. A non-empty Filter makes the target
// opaque: its raw bytes become a single unescaped text leaf.
type Include struct {
	Origin
	Path   string
	Filter string
}

func (*Include) node() {}

// Comment is a template comment; visible comments emit an HTML comment.
type Comment struct {
	Origin
	Text    string
	Visible bool
}

func (*Comment) node() {}

// Doctype emits a fixed doctype literal chosen by Kind.
type Doctype struct {
	Origin
	Kind string
}

func (*Doctype) node() {}

// Scope is produced by the mixin expander: it binds parameter names to
// argument expressions for exactly one expansion. The renderer evaluates the
// bindings in the enclosing environment and renders Body in a child frame,
// so bindings never leak to siblings.
type Scope struct {
	Origin
	Bindings []Binding
	Body     []Node
}

func (*Scope) node() {}

// Binding is one name=expression pair of a Scope. An empty Expr binds null.
type Binding struct {
	Name string
	Expr string
}

// At builds the embeddable Origin field for a node created at pos.
func At(pos token.Position) Origin { return Origin(pos) }

// ---------------------------------------------------------------------------
// Cloning
//
// The expander substitutes parameter bindings and call-site blocks into
// mixin bodies. Cloning first keeps the hoisted definitions reusable and the
// shared ancestors untouched.
// ---------------------------------------------------------------------------

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch n := n.(type) {
	case *Element:
		c := *n
		c.Classes = append([]string(nil), n.Classes...)
		c.Attrs = append([]Attr(nil), n.Attrs...)
		c.Children = CloneNodes(n.Children)
		return &c
	case *Text:
		c := *n
		c.Segments = append([]Segment(nil), n.Segments...)
		return &c
	case *Conditional:
		c := *n
		c.Branches = make([]CondBranch, len(n.Branches))
		for i, b := range n.Branches {
			b.Body = CloneNodes(b.Body)
			c.Branches[i] = b
		}
		c.Else = CloneNodes(n.Else)
		return &c
	case *Each:
		c := *n
		c.Body = CloneNodes(n.Body)
		c.Else = CloneNodes(n.Else)
		return &c
	case *MixinDef:
		c := *n
		c.Params = append([]MixinParam(nil), n.Params...)
		c.Body = CloneNodes(n.Body)
		return &c
	case *MixinCall:
		c := *n
		c.Args = append([]string(nil), n.Args...)
		c.Block = CloneNodes(n.Block)
		return &c
	case *Block:
		c := *n
		c.Body = CloneNodes(n.Body)
		return &c
	case *Scope:
		c := *n
		c.Bindings = append([]Binding(nil), n.Bindings...)
		c.Body = CloneNodes(n.Body)
		return &c
	case *Extends:
		c := *n
		return &c
	case *Include:
		c := *n
		return &c
	case *Comment:
		c := *n
		return &c
	case *Doctype:
		c := *n
		return &c
	}
	return n
}

// CloneNodes deep-copies a node list. A nil list stays nil so "else body
// present but empty" survives cloning.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Clone(n)
	}
	return out
}
