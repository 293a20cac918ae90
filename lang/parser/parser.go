// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package parser builds the template AST from the lexer's token stream.
//
// Design overview:
//
//   - The nesting structure is driven entirely by INDENT/DEDENT tokens. The
//     parser keeps an explicit stack of (depth, child-list) frames; each
//     content line pops frames whose depth is not shallower than its own,
//     appends its node to the frame left on top, and pushes a new frame when
//     the construct admits children.
//   - "else"/"else if" lines do not become nodes: they attach to the
//     conditional (or each) that is the last node at the same depth.
//   - Expression text inside attribute lists is split with full bracket and
//     quote balancing; the expressions themselves stay raw strings.
//   - The parser fails fast: the first malformed line aborts the parse with
//     a *lexer.SyntaxError.
package parser

import (
	"fmt"

	"github.com/carlos-sweb/go-pug/lang/ast"
	"github.com/carlos-sweb/go-pug/lang/lexer"
	"github.com/carlos-sweb/go-pug/lang/token"
)

// Parse tokenizes and parses one source file.
func Parse(filename, source string) (*ast.Template, error) {
	toks, err := lexer.New(filename, source).Tokenize()
	if err != nil {
		return nil, err
	}
	return ParseTokens(filename, toks)
}

// ParseTokens parses an already-tokenized file.
func ParseTokens(filename string, toks []token.Token) (*ast.Template, error) {
	p := &parser{
		toks: toks,
		tmpl: &ast.Template{Filename: filename},
	}
	p.frames = []frame{{depth: -1, body: &p.tmpl.Nodes}}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.tmpl, nil
}

// frame is one level of the construction stack: the depth at which the
// construct's header line appeared and the child list its children land in.
type frame struct {
	depth int
	body  *[]ast.Node
}

type parser struct {
	toks   []token.Token
	i      int
	depth  int
	frames []frame
	tmpl   *ast.Template
}

func (p *parser) cur() token.Token  { return p.toks[p.i] }
func (p *parser) next() token.Token { t := p.toks[p.i]; p.i++; return t }

func (p *parser) is(typ token.Type) bool { return p.toks[p.i].Type == typ }

// take consumes the current token if it has the given type.
func (p *parser) take(typ token.Type) (token.Token, bool) {
	if p.is(typ) {
		return p.next(), true
	}
	return p.cur(), false
}

func (p *parser) errf(pos token.Position, expected, format string, args ...interface{}) error {
	return &lexer.SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...), Expected: expected}
}

func (p *parser) run() error {
	for {
		switch p.cur().Type {
		case token.EOF:
			return nil
		case token.INDENT:
			p.depth++
			p.i++
		case token.DEDENT:
			p.depth--
			p.i++
		default:
			if err := p.parseLine(); err != nil {
				return err
			}
		}
	}
}

// parent pops frames down to the enclosing construct for a line at depth d
// and returns the frame the line's node belongs to.
func (p *parser) parent(d int) *frame {
	for len(p.frames) > 1 && p.frames[len(p.frames)-1].depth >= d {
		p.frames = p.frames[:len(p.frames)-1]
	}
	return &p.frames[len(p.frames)-1]
}

func (p *parser) push(d int, body *[]ast.Node) {
	p.frames = append(p.frames, frame{depth: d, body: body})
}

// append places a node into fr, enforcing the extends restriction: once a
// template extends an ancestor, its top level may hold only block overrides,
// mixin definitions and comments.
func (p *parser) append(fr *frame, n ast.Node) error {
	if p.tmpl.Extends != nil && fr == &p.frames[0] {
		switch n.(type) {
		case *ast.Block, *ast.MixinDef, *ast.Comment:
		default:
			return p.errf(n.Pos(), "block override", "a template that extends another may only contain block overrides at the top level")
		}
	}
	*fr.body = append(*fr.body, n)
	return nil
}

// endLine consumes the EOL that terminates every content line.
func (p *parser) endLine() error {
	if t, ok := p.take(token.EOL); !ok {
		return p.errf(t.Pos, "end of line", "unexpected %s token %q", t.Type, t.Literal)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Line dispatch
// ---------------------------------------------------------------------------

func (p *parser) parseLine() error {
	d := p.depth
	t := p.cur()

	if t.Type == token.KEYWORD && t.Literal == "else" {
		return p.parseElse(d)
	}

	fr := p.parent(d)
	switch t.Type {
	case token.KEYWORD:
		return p.parseKeyword(d, fr)
	case token.TAG, token.CLASS, token.ID:
		return p.parseElement(d, fr)
	case token.MIXINCALL:
		return p.parseMixinCall(d, fr)
	case token.TEXT, token.INTERP, token.INTERPRAW:
		txt, err := p.parseTextRun()
		if err != nil {
			return err
		}
		if err := p.append(fr, txt); err != nil {
			return err
		}
		return p.endLine()
	case token.ECHO, token.ECHORAW:
		txt, err := p.parseEcho()
		if err != nil {
			return err
		}
		if err := p.append(fr, txt); err != nil {
			return err
		}
		return p.endLine()
	case token.COMMENT, token.SILENT:
		c := p.next()
		n := &ast.Comment{Origin: ast.At(c.Pos), Text: c.Literal, Visible: c.Type == token.COMMENT}
		if err := p.append(fr, n); err != nil {
			return err
		}
		return p.endLine()
	case token.DOCTYPE:
		dt := p.next()
		n := &ast.Doctype{Origin: ast.At(dt.Pos), Kind: dt.Literal}
		if err := p.append(fr, n); err != nil {
			return err
		}
		return p.endLine()
	}
	return p.errf(t.Pos, "", "unexpected %s token %q", t.Type, t.Literal)
}

// ---------------------------------------------------------------------------
// else / else if attachment
// ---------------------------------------------------------------------------

func (p *parser) parseElse(d int) error {
	elseTok := p.next() // KEYWORD else
	fr := p.parent(d)

	var last ast.Node
	if n := len(*fr.body); n > 0 {
		last = (*fr.body)[n-1]
	}

	// "else if expr" extends the conditional chain.
	if ifTok, ok := p.take(token.KEYWORD); ok && ifTok.Literal == "if" {
		expr, ok := p.take(token.EXPR)
		if !ok {
			return p.errf(expr.Pos, "expression", "missing expression after 'else if'")
		}
		cond, ok := last.(*ast.Conditional)
		if !ok || cond.Else != nil {
			return p.errf(elseTok.Pos, "", "'else if' does not follow a conditional at the same depth")
		}
		cond.Branches = append(cond.Branches, ast.CondBranch{Expr: expr.Literal, Pos: expr.Pos})
		p.push(d, &cond.Branches[len(cond.Branches)-1].Body)
		return p.endLine()
	}

	switch n := last.(type) {
	case *ast.Conditional:
		if n.Else != nil {
			return p.errf(elseTok.Pos, "", "duplicate 'else' for the same conditional")
		}
		n.Else = []ast.Node{}
		p.push(d, &n.Else)
	case *ast.Each:
		if n.Else != nil {
			return p.errf(elseTok.Pos, "", "duplicate 'else' for the same 'each'")
		}
		n.Else = []ast.Node{}
		p.push(d, &n.Else)
	default:
		return p.errf(elseTok.Pos, "", "'else' does not follow 'if', 'unless' or 'each' at the same depth")
	}
	return p.endLine()
}

// ---------------------------------------------------------------------------
// Keyword lines
// ---------------------------------------------------------------------------

func (p *parser) parseKeyword(d int, fr *frame) error {
	kw := p.next()
	switch kw.Literal {
	case "if", "unless":
		expr, ok := p.take(token.EXPR)
		if !ok {
			return p.errf(expr.Pos, "expression", "missing expression after %q", kw.Literal)
		}
		cond := &ast.Conditional{
			Origin: ast.At(kw.Pos),
			Branches: []ast.CondBranch{{
				Expr:   expr.Literal,
				Negate: kw.Literal == "unless",
				Pos:    expr.Pos,
			}},
		}
		if err := p.append(fr, cond); err != nil {
			return err
		}
		p.push(d, &cond.Branches[0].Body)
		return p.endLine()

	case "each":
		expr, ok := p.take(token.EXPR)
		if !ok {
			return p.errf(expr.Pos, "expression", "missing expression after 'each'")
		}
		item, index, iter, err := splitEach(expr.Literal)
		if err != nil {
			return p.errf(expr.Pos, "'each var[, index] in expr'", "%s", err)
		}
		each := &ast.Each{Origin: ast.At(kw.Pos), ItemVar: item, IndexVar: index, Expr: iter}
		if err := p.append(fr, each); err != nil {
			return err
		}
		p.push(d, &each.Body)
		return p.endLine()

	case "mixin":
		name, ok := p.take(token.IDENT)
		if !ok {
			return p.errf(name.Pos, "mixin name", "missing mixin name")
		}
		def := &ast.MixinDef{Origin: ast.At(kw.Pos), Name: name.Literal}
		if attrs, ok := p.take(token.ATTRS); ok {
			params, err := parseParams(attrs.Literal, attrs.Pos)
			if err != nil {
				return err
			}
			def.Params = params
		}
		if err := p.append(fr, def); err != nil {
			return err
		}
		p.push(d, &def.Body)
		return p.endLine()

	case "block":
		return p.parseBlock(d, fr, kw)

	case "extends":
		path, ok := p.take(token.TEXT)
		if !ok {
			return p.errf(path.Pos, "path", "missing path after 'extends'")
		}
		if err := p.checkExtendsFirst(kw.Pos, d); err != nil {
			return err
		}
		p.tmpl.Extends = &ast.Extends{Origin: ast.At(kw.Pos), Path: path.Literal}
		return p.endLine()

	case "include":
		inc := &ast.Include{Origin: ast.At(kw.Pos)}
		if filter, ok := p.take(token.IDENT); ok {
			inc.Filter = filter.Literal
		}
		path, ok := p.take(token.TEXT)
		if !ok {
			return p.errf(path.Pos, "path", "missing path after 'include'")
		}
		inc.Path = path.Literal
		if err := p.append(fr, inc); err != nil {
			return err
		}
		return p.endLine()
	}
	return p.errf(kw.Pos, "", "unexpected keyword %q", kw.Literal)
}

func (p *parser) checkExtendsFirst(pos token.Position, d int) error {
	if d != 0 {
		return p.errf(pos, "", "'extends' must appear at the top level")
	}
	if p.tmpl.Extends != nil {
		return p.errf(pos, "", "duplicate 'extends'")
	}
	for _, n := range p.tmpl.Nodes {
		if _, ok := n.(*ast.Comment); !ok {
			return p.errf(pos, "", "'extends' must be the first construct in the file")
		}
	}
	return nil
}

func (p *parser) parseBlock(d int, fr *frame, kw token.Token) error {
	var words []token.Token
	for p.is(token.IDENT) {
		words = append(words, p.next())
	}
	b := &ast.Block{Origin: ast.At(kw.Pos)}
	switch len(words) {
	case 0:
		// Bare "block": the content marker inside a mixin body. It admits
		// no children of its own.
		if err := p.append(fr, b); err != nil {
			return err
		}
		return p.endLine()
	case 1:
		b.Name = words[0].Literal
	case 2:
		switch words[0].Literal {
		case "append":
			b.Mode = ast.BlockAppend
		case "prepend":
			b.Mode = ast.BlockPrepend
		default:
			return p.errf(words[0].Pos, "'append' or 'prepend'", "unknown block modifier %q", words[0].Literal)
		}
		b.Name = words[1].Literal
	default:
		return p.errf(words[2].Pos, "end of line", "too many words after 'block'")
	}
	if err := p.append(fr, b); err != nil {
		return err
	}
	p.push(d, &b.Body)
	return p.endLine()
}

// ---------------------------------------------------------------------------
// Elements, text and mixin calls
// ---------------------------------------------------------------------------

func (p *parser) parseElement(d int, fr *frame) error {
	head := p.cur()
	el := &ast.Element{Origin: ast.At(head.Pos), Name: "div"}
	if tag, ok := p.take(token.TAG); ok {
		el.Name = tag.Literal
	}
	for {
		if cls, ok := p.take(token.CLASS); ok {
			el.Classes = addClass(el.Classes, cls.Literal)
			continue
		}
		if id, ok := p.take(token.ID); ok {
			el.ID = id.Literal
			continue
		}
		break
	}
	if attrs, ok := p.take(token.ATTRS); ok {
		parsed, err := parseAttrs(attrs.Literal, attrs.Pos)
		if err != nil {
			return err
		}
		el.Attrs = parsed
	}
	if _, ok := p.take(token.SELFCLOSE); ok {
		el.SelfClosing = true
	}

	switch p.cur().Type {
	case token.ECHO, token.ECHORAW:
		txt, err := p.parseEcho()
		if err != nil {
			return err
		}
		el.Children = append(el.Children, txt)
	case token.TEXT, token.INTERP, token.INTERPRAW:
		txt, err := p.parseTextRun()
		if err != nil {
			return err
		}
		el.Children = append(el.Children, txt)
	}

	if err := p.append(fr, el); err != nil {
		return err
	}
	p.push(d, &el.Children)
	return p.endLine()
}

// parseTextRun collects the TEXT/INTERP/INTERPRAW tokens of one line into a
// Text node.
func (p *parser) parseTextRun() (*ast.Text, error) {
	txt := &ast.Text{Origin: ast.At(p.cur().Pos)}
	for {
		switch p.cur().Type {
		case token.TEXT:
			t := p.next()
			txt.Segments = append(txt.Segments, ast.Segment{Kind: ast.Literal, Text: t.Literal, Pos: t.Pos})
		case token.INTERP:
			t := p.next()
			txt.Segments = append(txt.Segments, ast.Segment{Kind: ast.Interp, Text: t.Literal, Pos: t.Pos})
		case token.INTERPRAW:
			t := p.next()
			txt.Segments = append(txt.Segments, ast.Segment{Kind: ast.InterpRaw, Text: t.Literal, Pos: t.Pos})
		default:
			return txt, nil
		}
	}
}

// parseEcho turns "= expr" / "!= expr" into a single-segment Text node.
func (p *parser) parseEcho() (*ast.Text, error) {
	marker := p.next()
	expr, ok := p.take(token.EXPR)
	if !ok {
		return nil, p.errf(expr.Pos, "expression", "missing expression after echo marker")
	}
	kind := ast.Interp
	if marker.Type == token.ECHORAW {
		kind = ast.InterpRaw
	}
	return &ast.Text{
		Origin:   ast.At(marker.Pos),
		Segments: []ast.Segment{{Kind: kind, Text: expr.Literal, Pos: expr.Pos}},
	}, nil
}

func (p *parser) parseMixinCall(d int, fr *frame) error {
	call := p.next()
	node := &ast.MixinCall{Origin: ast.At(call.Pos), Name: call.Literal}
	if attrs, ok := p.take(token.ATTRS); ok {
		node.Args = splitTopLevel(attrs.Literal, ',')
	}
	if err := p.append(fr, node); err != nil {
		return err
	}
	// A deeper-indented block after the call is captured for substitution at
	// the definition's bare block marker.
	p.push(d, &node.Block)
	return p.endLine()
}

// addClass appends a class keeping first-seen order and dropping duplicates.
func addClass(classes []string, c string) []string {
	for _, have := range classes {
		if have == c {
			return classes
		}
	}
	return append(classes, c)
}
