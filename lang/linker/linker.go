// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package linker flattens multi-file template composition into one AST.
//
// Design overview:
//
//   - Includes are resolved depth-first and independently of inheritance:
//     the target is parsed with the ordinary parser and spliced in place,
//     sharing the including file's lexical scope. Path stacks detect include
//     and extends cycles, including cycles that mix the two.
//   - Inheritance is an explicit fold over named content slots. The extends
//     chain is resolved from the most-ancestral file down: the root ancestor
//     contributes the structural skeleton and the default block contents,
//     then every level's top-level overrides are applied in order (replace
//     discards, append/prepend concatenate), the leaf last. Finally the
//     skeleton's named placeholders are substituted with the folded content.
//   - The linker never mutates a parsed tree it did not build; substitution
//     produces fresh node lists.
package linker

import (
	"fmt"

	"github.com/carlos-sweb/go-pug/lang/ast"
	"github.com/carlos-sweb/go-pug/lang/parser"
	"github.com/carlos-sweb/go-pug/lang/token"
)

// Loader is the file-loading collaborator: it resolves a relative reference
// against the file that mentions it and reads source bytes.
type Loader interface {
	Resolve(relPath, fromFile string) (string, error)
	Read(canonicalPath string) ([]byte, error)
}

// ErrKind classifies link failures.
type ErrKind int

const (
	ErrMissingFile ErrKind = iota
	ErrUnknownBlock
	ErrIncludeCycle
	ErrExtendsCycle
	ErrDuplicateBlock
)

var errKindNames = [...]string{
	ErrMissingFile:    "missing file",
	ErrUnknownBlock:   "unknown block",
	ErrIncludeCycle:   "include cycle",
	ErrExtendsCycle:   "extends cycle",
	ErrDuplicateBlock: "duplicate block",
}

// LinkError reports a failure while resolving inheritance or includes.
type LinkError struct {
	Kind ErrKind
	Name string // block name or file path, depending on Kind
	Pos  token.Position
	Err  error // underlying loader or parser error, may be nil
}

func (e *LinkError) Error() string {
	msg := fmt.Sprintf("%s: link error: %s: %s", e.Pos, errKindNames[e.Kind], e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LinkError) Unwrap() error { return e.Err }

// Link resolves t's extends chain and includes through loader and returns
// the flattened node list. t.Filename anchors relative paths.
func Link(t *ast.Template, loader Loader) ([]ast.Node, error) {
	l := &linker{loader: loader}
	skeleton, blocks, err := l.resolve(t)
	if err != nil {
		return nil, err
	}
	return l.substitute(skeleton, blocks, map[string]bool{}), nil
}

type linker struct {
	loader Loader
	stack  []string // canonical paths currently being included
	chain  []string // canonical paths on the extends ancestry being resolved
}

// blockFold is the running block-name → content mapping of the inheritance
// fold.
type blockFold struct {
	content map[string][]ast.Node
}

// resolve links t's includes, then folds its extends chain. It returns the
// root ancestor's skeleton (named Block nodes still in place) and the folded
// content per block name.
func (l *linker) resolve(t *ast.Template) ([]ast.Node, *blockFold, error) {
	nodes, err := l.resolveIncludes(t.Nodes, t.Filename)
	if err != nil {
		return nil, nil, err
	}

	if t.Extends == nil {
		fold := &blockFold{content: make(map[string][]ast.Node)}
		if err := collectBlocks(nodes, fold); err != nil {
			return nil, nil, err
		}
		return nodes, fold, nil
	}

	parent, err := l.loadTemplate(t.Extends.Path, t.Filename, t.Extends.Pos())
	if err != nil {
		return nil, nil, err
	}
	skeleton, fold, err := l.resolve(parent)
	if err != nil {
		return nil, nil, err
	}

	// Apply this level's own top-level overrides, oldest ancestor first:
	// recursion above already folded every level closer to the root.
	for _, n := range nodes {
		switch n := n.(type) {
		case *ast.Block:
			if _, ok := fold.content[n.Name]; !ok {
				return nil, nil, &LinkError{Kind: ErrUnknownBlock, Name: n.Name, Pos: n.Pos()}
			}
			switch n.Mode {
			case ast.BlockAppend:
				fold.content[n.Name] = append(append([]ast.Node{}, fold.content[n.Name]...), n.Body...)
			case ast.BlockPrepend:
				fold.content[n.Name] = append(append([]ast.Node{}, n.Body...), fold.content[n.Name]...)
			default:
				fold.content[n.Name] = n.Body
			}
			collectNested(n.Body, fold)
		case *ast.MixinDef:
			// Mixins declared next to the overrides stay visible in the
			// final tree; the expander hoists them regardless of position.
			skeleton = append(skeleton, n)
		}
	}
	return skeleton, fold, nil
}

// collectBlocks records the default content of every named block in a fully
// include-resolved tree. Duplicate names within one file are rejected.
func collectBlocks(nodes []ast.Node, fold *blockFold) error {
	return walk(nodes, func(n ast.Node) error {
		if b, ok := n.(*ast.Block); ok && b.Name != "" {
			if _, dup := fold.content[b.Name]; dup {
				return &LinkError{Kind: ErrDuplicateBlock, Name: b.Name, Pos: b.Pos()}
			}
			fold.content[b.Name] = b.Body
		}
		return nil
	})
}

// collectNested registers named blocks declared inside an override body so
// that their default content survives substitution and stays overridable by
// later levels. A name the fold already knows is a placeholder for existing
// content, not a new declaration, and is left alone.
func collectNested(nodes []ast.Node, fold *blockFold) {
	walk(nodes, func(n ast.Node) error {
		if b, ok := n.(*ast.Block); ok && b.Name != "" {
			if _, known := fold.content[b.Name]; !known {
				fold.content[b.Name] = b.Body
			}
		}
		return nil
	})
}

// substitute replaces every named Block placeholder with its folded content.
// active guards against a block's content containing its own placeholder.
func (l *linker) substitute(nodes []ast.Node, fold *blockFold, active map[string]bool) []ast.Node {
	if nodes == nil {
		return nil
	}
	out := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if b, ok := n.(*ast.Block); ok && b.Name != "" {
			content := fold.content[b.Name]
			if !active[b.Name] {
				active[b.Name] = true
				content = l.substitute(content, fold, active)
				delete(active, b.Name)
			}
			out = append(out, content...)
			continue
		}
		out = append(out, l.substituteIn(n, fold, active))
	}
	return out
}

// substituteIn rewrites the child lists of a single node.
func (l *linker) substituteIn(n ast.Node, fold *blockFold, active map[string]bool) ast.Node {
	switch n := n.(type) {
	case *ast.Element:
		c := *n
		c.Children = l.substitute(n.Children, fold, active)
		return &c
	case *ast.Conditional:
		c := *n
		c.Branches = make([]ast.CondBranch, len(n.Branches))
		for i, b := range n.Branches {
			b.Body = l.substitute(b.Body, fold, active)
			c.Branches[i] = b
		}
		c.Else = l.substitute(n.Else, fold, active)
		return &c
	case *ast.Each:
		c := *n
		c.Body = l.substitute(n.Body, fold, active)
		c.Else = l.substitute(n.Else, fold, active)
		return &c
	case *ast.MixinDef:
		c := *n
		c.Body = l.substitute(n.Body, fold, active)
		return &c
	case *ast.MixinCall:
		c := *n
		c.Block = l.substitute(n.Block, fold, active)
		return &c
	}
	return n
}

// ---------------------------------------------------------------------------
// Includes
// ---------------------------------------------------------------------------

// resolveIncludes splices every Include in the list, depth-first.
func (l *linker) resolveIncludes(nodes []ast.Node, fromFile string) ([]ast.Node, error) {
	if nodes == nil {
		return nil, nil
	}
	out := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		inc, ok := n.(*ast.Include)
		if !ok {
			rewritten, err := l.resolveIncludesIn(n, fromFile)
			if err != nil {
				return nil, err
			}
			out = append(out, rewritten)
			continue
		}
		spliced, err := l.splice(inc, fromFile)
		if err != nil {
			return nil, err
		}
		out = append(out, spliced...)
	}
	return out, nil
}

func (l *linker) resolveIncludesIn(n ast.Node, fromFile string) (ast.Node, error) {
	var err error
	switch n := n.(type) {
	case *ast.Element:
		n.Children, err = l.resolveIncludes(n.Children, fromFile)
	case *ast.Conditional:
		for i := range n.Branches {
			n.Branches[i].Body, err = l.resolveIncludes(n.Branches[i].Body, fromFile)
			if err != nil {
				return n, err
			}
		}
		n.Else, err = l.resolveIncludes(n.Else, fromFile)
	case *ast.Each:
		n.Body, err = l.resolveIncludes(n.Body, fromFile)
		if err != nil {
			return n, err
		}
		n.Else, err = l.resolveIncludes(n.Else, fromFile)
	case *ast.MixinDef:
		n.Body, err = l.resolveIncludes(n.Body, fromFile)
	case *ast.MixinCall:
		n.Block, err = l.resolveIncludes(n.Block, fromFile)
	case *ast.Block:
		n.Body, err = l.resolveIncludes(n.Body, fromFile)
	}
	return n, err
}

// splice loads one include target. Filtered includes stay opaque: the raw
// bytes become a single unescaped text leaf. Plain includes are parsed and,
// when the target itself extends or includes, fully linked first.
func (l *linker) splice(inc *ast.Include, fromFile string) ([]ast.Node, error) {
	path, err := l.loader.Resolve(inc.Path, fromFile)
	if err != nil {
		return nil, &LinkError{Kind: ErrMissingFile, Name: inc.Path, Pos: inc.Pos(), Err: err}
	}
	for _, on := range l.stack {
		if on == path {
			return nil, &LinkError{Kind: ErrIncludeCycle, Name: path, Pos: inc.Pos()}
		}
	}
	src, err := l.loader.Read(path)
	if err != nil {
		return nil, &LinkError{Kind: ErrMissingFile, Name: inc.Path, Pos: inc.Pos(), Err: err}
	}

	if inc.Filter != "" {
		return []ast.Node{&ast.Text{
			Origin:   ast.At(inc.Pos()),
			Segments: []ast.Segment{{Kind: ast.Literal, Text: string(src), Pos: inc.Pos()}},
		}}, nil
	}

	sub, err := parser.Parse(path, string(src))
	if err != nil {
		return nil, err
	}
	l.stack = append(l.stack, path)
	defer func() { l.stack = l.stack[:len(l.stack)-1] }()

	if sub.Extends != nil {
		// An included file with its own inheritance is linked as a
		// self-contained unit before splicing. It keeps the include and
		// extends stacks so cycles that alternate between the two forms
		// of composition are still caught.
		sl := &linker{loader: l.loader, stack: l.stack, chain: l.chain}
		skeleton, fold, err := sl.resolve(sub)
		if err != nil {
			return nil, err
		}
		return sl.substitute(skeleton, fold, map[string]bool{}), nil
	}
	return l.resolveIncludes(sub.Nodes, path)
}

// loadTemplate loads and parses an extends target. The canonical path joins
// l.chain so that a template reachable from its own ancestry is rejected
// instead of recursing forever.
func (l *linker) loadTemplate(relPath, fromFile string, pos token.Position) (*ast.Template, error) {
	path, err := l.loader.Resolve(relPath, fromFile)
	if err != nil {
		return nil, &LinkError{Kind: ErrMissingFile, Name: relPath, Pos: pos, Err: err}
	}
	for _, on := range l.chain {
		if on == path {
			return nil, &LinkError{Kind: ErrExtendsCycle, Name: path, Pos: pos}
		}
	}
	src, err := l.loader.Read(path)
	if err != nil {
		return nil, &LinkError{Kind: ErrMissingFile, Name: relPath, Pos: pos, Err: err}
	}
	l.chain = append(l.chain, path)
	return parser.Parse(path, string(src))
}

// walk visits every node of a tree depth-first.
func walk(nodes []ast.Node, fn func(ast.Node) error) error {
	for _, n := range nodes {
		if err := fn(n); err != nil {
			return err
		}
		var children [][]ast.Node
		switch n := n.(type) {
		case *ast.Element:
			children = [][]ast.Node{n.Children}
		case *ast.Conditional:
			for _, b := range n.Branches {
				children = append(children, b.Body)
			}
			children = append(children, n.Else)
		case *ast.Each:
			children = [][]ast.Node{n.Body, n.Else}
		case *ast.MixinDef:
			children = [][]ast.Node{n.Body}
		case *ast.MixinCall:
			children = [][]ast.Node{n.Block}
		case *ast.Block:
			children = [][]ast.Node{n.Body}
		case *ast.Scope:
			children = [][]ast.Node{n.Body}
		}
		for _, c := range children {
			if err := walk(c, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
