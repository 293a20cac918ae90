// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package render walks the expanded AST into HTML text.
//
// Design overview:
//
//   - One depth-first pass in document order. Expressions are evaluated
//     through the eval.Evaluator boundary exactly when a construct needs
//     them: predicates of untaken branches and bodies of empty loops are
//     never evaluated.
//   - Compact and pretty mode agree byte-for-byte on tag, attribute and text
//     content; pretty mode only inserts newline-plus-indent whitespace
//     between structural emissions.
//   - The first error aborts the render; no partial output escapes.
package render

import (
	"fmt"
	"strings"

	"github.com/carlos-sweb/go-pug/lang/ast"
	"github.com/carlos-sweb/go-pug/lang/eval"
	"github.com/carlos-sweb/go-pug/lang/token"
	"github.com/carlos-sweb/go-pug/lang/value"
)

// Mode selects the output formatting.
type Mode int

const (
	Compact Mode = iota
	Pretty
)

const indentUnit = "  "

// RenderError reports a structural impossibility discovered while emitting
// HTML, such as children under a void element.
type RenderError struct {
	Pos token.Position
	Msg string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: render error: %s", e.Pos, e.Msg)
}

// voidElements is the fixed set of HTML tags with no closing form.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// doctypes maps doctype kinds to their fixed literals. Unlisted kinds emit
// a generic <!DOCTYPE kind>.
var doctypes = map[string]string{
	"html":         "<!DOCTYPE html>",
	"xml":          `<?xml version="1.0" encoding="utf-8" ?>`,
	"transitional": `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">`,
	"strict":       `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">`,
	"frameset":     `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Frameset//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-frameset.dtd">`,
	"1.1":          `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">`,
	"basic":        `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML Basic 1.1//EN" "http://www.w3.org/TR/xhtml-basic/xhtml-basic11.dtd">`,
	"mobile":       `<!DOCTYPE html PUBLIC "-//WAPFORUM//DTD XHTML Mobile 1.2//EN" "http://www.openmobilealliance.org/tech/DTD/xhtml-mobile12.dtd">`,
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// Render walks nodes into an HTML string. The tree must already be linked
// and mixin-expanded.
func Render(nodes []ast.Node, env *value.Env, ev eval.Evaluator, mode Mode) (string, error) {
	r := &renderer{env: env, eval: ev, mode: mode}
	if err := r.nodes(nodes, 0); err != nil {
		return "", err
	}
	out := r.out.String()
	if mode == Pretty {
		out = strings.TrimPrefix(out, "\n")
	}
	return out, nil
}

type renderer struct {
	out  strings.Builder
	env  *value.Env
	eval eval.Evaluator
	mode Mode
}

// breakLine starts a new structural line in pretty mode; a no-op in compact
// mode.
func (r *renderer) breakLine(depth int) {
	if r.mode != Pretty {
		return
	}
	r.out.WriteByte('\n')
	for i := 0; i < depth; i++ {
		r.out.WriteString(indentUnit)
	}
}

func (r *renderer) nodes(nodes []ast.Node, depth int) error {
	for _, n := range nodes {
		if err := r.node(n, depth); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) node(n ast.Node, depth int) error {
	switch n := n.(type) {
	case *ast.Element:
		return r.element(n, depth)
	case *ast.Text:
		return r.text(n)
	case *ast.Conditional:
		return r.conditional(n, depth)
	case *ast.Each:
		return r.each(n, depth)
	case *ast.Scope:
		return r.scope(n, depth)
	case *ast.Comment:
		if n.Visible {
			r.breakLine(depth)
			r.out.WriteString("<!-- ")
			r.out.WriteString(n.Text)
			r.out.WriteString(" -->")
		}
		return nil
	case *ast.Doctype:
		r.breakLine(depth)
		if lit, ok := doctypes[n.Kind]; ok {
			r.out.WriteString(lit)
		} else {
			r.out.WriteString("<!DOCTYPE " + n.Kind + ">")
		}
		return nil
	case *ast.Block:
		// Bare markers left behind by an expansion with no call-site block.
		return nil
	}
	return &RenderError{Pos: n.Pos(), Msg: fmt.Sprintf("unexpected %T node in expanded tree", n)}
}

// ---------------------------------------------------------------------------
// Elements
// ---------------------------------------------------------------------------

func (r *renderer) element(el *ast.Element, depth int) error {
	attrs, err := r.mergeAttrs(el)
	if err != nil {
		return err
	}

	void := voidElements[el.Name] || el.SelfClosing
	if void && len(el.Children) > 0 {
		return &RenderError{Pos: el.Pos(), Msg: fmt.Sprintf("element <%s> has no closing tag and cannot hold children", el.Name)}
	}

	r.breakLine(depth)
	r.out.WriteString("<" + el.Name)
	for _, a := range attrs {
		if a.bare {
			r.out.WriteString(" " + a.name)
		} else {
			r.out.WriteString(` ` + a.name + `="` + a.value + `"`)
		}
	}
	if void {
		r.out.WriteString("/>")
		return nil
	}
	r.out.WriteString(">")

	if err := r.nodes(el.Children, depth+1); err != nil {
		return err
	}
	if r.mode == Pretty && hasStructuralChild(el.Children) {
		r.breakLine(depth)
	}
	r.out.WriteString("</" + el.Name + ">")
	return nil
}

// hasStructuralChild reports whether any child opened its own line, which
// decides where the closing tag goes in pretty mode.
func hasStructuralChild(children []ast.Node) bool {
	for _, c := range children {
		switch c := c.(type) {
		case *ast.Element, *ast.Doctype:
			return true
		case *ast.Comment:
			if c.Visible {
				return true
			}
		case *ast.Conditional, *ast.Each, *ast.Scope:
			// Control nodes may or may not emit structure; assume they do.
			return true
		}
	}
	return false
}

type renderedAttr struct {
	name  string
	value string
	bare  bool
}

// mergeAttrs evaluates the attribute list and folds the class and id
// shorthands in: shorthand classes and a dynamic class attribute merge into
// one ordered, deduplicated token list; an explicit id attribute wins over
// the #id shorthand.
func (r *renderer) mergeAttrs(el *ast.Element) ([]renderedAttr, error) {
	classes := append([]string(nil), el.Classes...)
	id := el.ID
	var rest []renderedAttr

	for _, a := range el.Attrs {
		v, err := r.eval.Evaluate(a.Expr, a.Pos, r.env)
		if err != nil {
			return nil, err
		}
		switch a.Name {
		case "class":
			tokens, err := classTokens(v, a.Pos, a.Expr)
			if err != nil {
				return nil, err
			}
			for _, t := range tokens {
				classes = appendClass(classes, t)
			}
			continue
		case "id":
			text, err := v.Text()
			if err != nil {
				return nil, &eval.EvaluationError{Pos: a.Pos, Expr: a.Expr, Msg: err.Error()}
			}
			id = text
			continue
		}
		switch v.Kind() {
		case value.KindBool:
			if v.Bool() {
				rest = append(rest, renderedAttr{name: a.Name, bare: true})
			}
		case value.KindNull:
			// Omitted, like a false boolean.
		default:
			text, err := v.Text()
			if err != nil {
				return nil, &eval.EvaluationError{Pos: a.Pos, Expr: a.Expr, Msg: err.Error()}
			}
			rest = append(rest, renderedAttr{name: a.Name, value: htmlEscaper.Replace(text)})
		}
	}

	var out []renderedAttr
	if len(classes) > 0 {
		out = append(out, renderedAttr{name: "class", value: htmlEscaper.Replace(strings.Join(classes, " "))})
	}
	if id != "" {
		out = append(out, renderedAttr{name: "id", value: htmlEscaper.Replace(id)})
	}
	return append(out, rest...), nil
}

// classTokens converts a dynamic class value into its token list: a string
// splits on whitespace, a list contributes its stringified elements, and a
// map keeps the keys whose values are truthy.
func classTokens(v value.Value, pos token.Position, expr string) ([]string, error) {
	bad := func(err error) error {
		return &eval.EvaluationError{Pos: pos, Expr: expr, Msg: "class attribute: " + err.Error()}
	}
	switch v.Kind() {
	case value.KindNull:
		return nil, nil
	case value.KindString:
		return strings.Fields(v.Str()), nil
	case value.KindList:
		var out []string
		for _, el := range v.Elems() {
			text, err := el.Text()
			if err != nil {
				return nil, bad(err)
			}
			if text != "" {
				out = append(out, text)
			}
		}
		return out, nil
	case value.KindMap:
		var out []string
		for _, k := range v.Map().Keys() {
			if e, _ := v.Map().Get(k); e.Truthy() {
				out = append(out, k)
			}
		}
		return out, nil
	}
	text, err := v.Text()
	if err != nil {
		return nil, bad(err)
	}
	return strings.Fields(text), nil
}

func appendClass(classes []string, c string) []string {
	for _, have := range classes {
		if have == c {
			return classes
		}
	}
	return append(classes, c)
}

// ---------------------------------------------------------------------------
// Text and control flow
// ---------------------------------------------------------------------------

func (r *renderer) text(t *ast.Text) error {
	for _, seg := range t.Segments {
		switch seg.Kind {
		case ast.Literal:
			r.out.WriteString(seg.Text)
		case ast.Interp, ast.InterpRaw:
			v, err := r.eval.Evaluate(seg.Text, seg.Pos, r.env)
			if err != nil {
				return err
			}
			text, err := v.Text()
			if err != nil {
				return &eval.EvaluationError{Pos: seg.Pos, Expr: seg.Text, Msg: err.Error()}
			}
			if seg.Kind == ast.Interp {
				text = htmlEscaper.Replace(text)
			}
			r.out.WriteString(text)
		}
	}
	return nil
}

func (r *renderer) conditional(c *ast.Conditional, depth int) error {
	for _, branch := range c.Branches {
		v, err := r.eval.Evaluate(branch.Expr, branch.Pos, r.env)
		if err != nil {
			return err
		}
		taken := v.Truthy()
		if branch.Negate {
			taken = !taken
		}
		if taken {
			return r.nodes(branch.Body, depth)
		}
	}
	if c.Else != nil {
		return r.nodes(c.Else, depth)
	}
	return nil
}

func (r *renderer) each(e *ast.Each, depth int) error {
	v, err := r.eval.Evaluate(e.Expr, e.Pos(), r.env)
	if err != nil {
		return err
	}

	iterate := func(bind func(child *value.Env, i int)) error {
		outer := r.env
		defer func() { r.env = outer }()
		for i := 0; i < v.Len(); i++ {
			child := outer.Child()
			bind(child, i)
			r.env = child
			if err := r.nodes(e.Body, depth); err != nil {
				return err
			}
		}
		return nil
	}

	switch v.Kind() {
	case value.KindList:
		if len(v.Elems()) == 0 {
			break
		}
		return iterate(func(child *value.Env, i int) {
			child.Set(e.ItemVar, v.Elems()[i])
			if e.IndexVar != "" {
				child.Set(e.IndexVar, value.Number(float64(i)))
			}
		})
	case value.KindMap:
		if v.Map().Len() == 0 {
			break
		}
		return iterate(func(child *value.Env, i int) {
			key := v.Map().Keys()[i]
			el, _ := v.Map().Get(key)
			child.Set(e.ItemVar, el)
			if e.IndexVar != "" {
				child.Set(e.IndexVar, value.String(key))
			}
		})
	case value.KindNull:
		// Iterating nothing renders the else body, like an empty list.
	default:
		return &RenderError{Pos: e.Pos(), Msg: fmt.Sprintf("cannot iterate a %s value", v.Kind())}
	}

	if e.Else != nil {
		return r.nodes(e.Else, depth)
	}
	return nil
}

// scope binds mixin parameters for one expansion: argument expressions are
// evaluated in the enclosing environment, then the body renders in a child
// frame, so bindings stay invisible to siblings.
func (r *renderer) scope(s *ast.Scope, depth int) error {
	child := r.env.Child()
	for _, b := range s.Bindings {
		if b.Expr == "" {
			child.Set(b.Name, value.Null())
			continue
		}
		v, err := r.eval.Evaluate(b.Expr, s.Pos(), r.env)
		if err != nil {
			return err
		}
		child.Set(b.Name, v)
	}
	outer := r.env
	r.env = child
	err := r.nodes(s.Body, depth)
	r.env = outer
	return err
}
