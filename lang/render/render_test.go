// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlos-sweb/go-pug/lang/eval"
	"github.com/carlos-sweb/go-pug/lang/mixin"
	"github.com/carlos-sweb/go-pug/lang/parser"
	"github.com/carlos-sweb/go-pug/lang/render"
	"github.com/carlos-sweb/go-pug/lang/value"
)

// compile runs a single-file source through the whole pipeline.
func compile(t *testing.T, source string, env *value.Env, mode render.Mode) (string, error) {
	t.Helper()
	tmpl, err := parser.Parse("test.pug", source)
	require.NoError(t, err, "parse")
	nodes, err := mixin.Expand(tmpl.Nodes)
	require.NoError(t, err, "expand")
	if env == nil {
		env = value.NewEnv()
	}
	return render.Render(nodes, env, eval.New(), mode)
}

func mustCompile(t *testing.T, source string, env *value.Env, mode render.Mode) string {
	t.Helper()
	out, err := compile(t, source, env, mode)
	require.NoError(t, err, "render")
	return out
}

func TestCompactOutput(t *testing.T) {
	env := value.NewEnv()
	env.Set("age", value.Number(20))

	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			"shorthand tree",
			"div.container\n  p#importante Hello",
			`<div class="container"><p id="importante">Hello</p></div>`,
		},
		{
			"interpolated ternary",
			"p Adult: #{age >= 18 ? 'Yes' : 'No'}",
			"<p>Adult: Yes</p>",
		},
		{
			"doctype and structure",
			"doctype html\nhtml\n  body\n    p hi",
			"<!DOCTYPE html><html><body><p>hi</p></body></html>",
		},
		{
			"custom doctype",
			"doctype custom",
			"<!DOCTYPE custom>",
		},
		{
			"visible comment",
			"// hello",
			"<!-- hello -->",
		},
		{
			"silent comment emits nothing",
			"//- hidden\np x",
			"<p>x</p>",
		},
		{
			"void element",
			"br",
			"<br/>",
		},
		{
			"self closing non-void",
			"foo/",
			"<foo/>",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mustCompile(t, tc.source, env, render.Compact))
		})
	}
}

func TestEscaping(t *testing.T) {
	env := value.NewEnv()
	env.Set("markup", value.String(`<b>&"</b>`))

	assert.Equal(t, "<p>&lt;b&gt;&amp;&quot;&lt;/b&gt;</p>",
		mustCompile(t, "p= markup", env, render.Compact))
	assert.Equal(t, `<p><b>&"</b></p>`,
		mustCompile(t, "p!= markup", env, render.Compact))
	assert.Equal(t, "<p>&lt;b&gt;&amp;&quot;&lt;/b&gt;</p>",
		mustCompile(t, "p #{markup}", env, render.Compact))
	assert.Equal(t, `<p><b>&"</b></p>`,
		mustCompile(t, "p !{markup}", env, render.Compact))
	// String literals inside spans follow the same rule as variables.
	assert.Equal(t, "<p>&lt;b&gt;</p>", mustCompile(t, `p #{"<b>"}`, env, render.Compact))
	assert.Equal(t, "<p><b></p>", mustCompile(t, `p !{"<b>"}`, env, render.Compact))

	// Literal template text is trusted and passes through untouched.
	assert.Equal(t, "<p>a < b</p>", mustCompile(t, "p a < b", env, render.Compact))
	assert.Equal(t, "a < b", mustCompile(t, "| a < b", env, render.Compact))
}

func TestAttributes(t *testing.T) {
	env := value.NewEnv()
	env.Set("tab", value.String("_blank"))
	env.Set("quoted", value.String(`say "hi"`))

	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"static expression", `a(href="/home")`, `<a href="/home"></a>`},
		{"variable", "a(target=tab)", `<a target="_blank"></a>`},
		{"number value", "td(colspan=2)", `<td colspan="2"></td>`},
		{"value escaping", "a(title=quoted)", `<a title="say &quot;hi&quot;"></a>`},
		{"bare boolean", "input(disabled)", `<input disabled/>`},
		{"explicit true", "input(disabled=true)", `<input disabled/>`},
		{"false omitted", "input(disabled=false)", `<input/>`},
		{"null omitted", "a(rel=null) x", `<a>x</a>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mustCompile(t, tc.source, env, render.Compact))
		})
	}
}

func TestClassMerging(t *testing.T) {
	env := value.NewEnv()
	env.Set("more", value.List(value.String("x"), value.String("btn")))
	env.Set("flags", value.MapValue(value.NewMap().
		Set("on", value.Bool(true)).
		Set("off", value.Bool(false)).
		Set("n", value.Number(1))))

	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"string splits on whitespace", `p.a(class="b  c")`, `<p class="a b c"></p>`},
		{"duplicates collapse", `p.btn(class="btn primary")`, `<p class="btn primary"></p>`},
		{"list value", "p(class=more)", `<p class="x btn"></p>`},
		{"list merges after shorthand", "p.btn(class=more)", `<p class="btn x"></p>`},
		{"map keeps truthy keys", "p(class=flags)", `<p class="on n"></p>`},
		{"null contributes nothing", "p.a(class=null)", `<p class="a"></p>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mustCompile(t, tc.source, env, render.Compact))
		})
	}
}

func TestIDPrecedence(t *testing.T) {
	assert.Equal(t, `<p id="real"></p>`,
		mustCompile(t, `p#short(id="real")`, nil, render.Compact))
	// class comes before id, id before the rest.
	assert.Equal(t, `<a class="c" id="i" href="/x"></a>`,
		mustCompile(t, `a.c#i(href="/x")`, nil, render.Compact))
}

func TestConditionals(t *testing.T) {
	env := value.NewEnv()
	env.Set("role", value.String("admin"))

	out := mustCompile(t, "if role == 'admin'\n  p A\nelse if role == 'user'\n  p U\nelse\n  p G", env, render.Compact)
	assert.Equal(t, "<p>A</p>", out)

	env.Set("role", value.String("user"))
	out = mustCompile(t, "if role == 'admin'\n  p A\nelse if role == 'user'\n  p U\nelse\n  p G", env, render.Compact)
	assert.Equal(t, "<p>U</p>", out)

	env.Set("role", value.String(""))
	out = mustCompile(t, "if role == 'admin'\n  p A\nelse if role == 'user'\n  p U\nelse\n  p G", env, render.Compact)
	assert.Equal(t, "<p>G</p>", out)

	out = mustCompile(t, "unless role\n  p anonymous", env, render.Compact)
	assert.Equal(t, "<p>anonymous</p>", out)
}

func TestUntakenBranchesAreNotEvaluated(t *testing.T) {
	env := value.NewEnv()
	env.Set("yes", value.Bool(true))

	// The second predicate references an unbound name and would throw if it
	// were ever evaluated.
	out, err := compile(t, "if yes\n  p a\nelse if neverBound\n  p b", env, render.Compact)
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", out)
}

func TestEach(t *testing.T) {
	env := value.NewEnv()
	env.Set("items", value.List(value.String("a"), value.String("b"), value.String("c")))
	env.Set("empty", value.List())
	env.Set("scores", value.MapValue(value.NewMap().
		Set("ana", value.Number(3)).
		Set("bo", value.Number(7))))

	t.Run("list with index", func(t *testing.T) {
		out := mustCompile(t, "ul\n  each item, i in items\n    li #{i}: #{item}", env, render.Compact)
		assert.Equal(t, "<ul><li>0: a</li><li>1: b</li><li>2: c</li></ul>", out)
	})

	t.Run("map iterates in insertion order with string key", func(t *testing.T) {
		out := mustCompile(t, "each score, who in scores\n  p #{who}=#{score}", env, render.Compact)
		assert.Equal(t, "<p>ana=3</p><p>bo=7</p>", out)
	})

	t.Run("empty list renders else", func(t *testing.T) {
		out := mustCompile(t, "each item in empty\n  li= item\nelse\n  li none", env, render.Compact)
		assert.Equal(t, "<li>none</li>", out)
	})

	t.Run("null renders else", func(t *testing.T) {
		out := mustCompile(t, "each item in null\n  li= item\nelse\n  li none", env, render.Compact)
		assert.Equal(t, "<li>none</li>", out)
	})

	t.Run("empty list without else renders nothing", func(t *testing.T) {
		out := mustCompile(t, "div\n  each item in empty\n    li= item", env, render.Compact)
		assert.Equal(t, "<div></div>", out)
	})

	t.Run("loop variable does not leak", func(t *testing.T) {
		// After the loop the binding is gone; the evaluator sees undefined,
		// which interpolates as the empty string.
		out := mustCompile(t, "each item in items\n  li= item\np= typeof item", env, render.Compact)
		assert.Equal(t, "<li>a</li><li>b</li><li>c</li><p>undefined</p>", out)
	})

	t.Run("scalar iterable is an error", func(t *testing.T) {
		_, err := compile(t, "each item in 42\n  li= item", env, render.Compact)
		var rerr *render.RenderError
		require.ErrorAs(t, err, &rerr)
	})
}

func TestMixinsRender(t *testing.T) {
	src := "mixin icon(name, size='medium')\n  span(class=('icon-' + name), data-size=size)\n+icon('home')\n+icon('user', 'small')"
	out := mustCompile(t, src, nil, render.Compact)
	assert.Equal(t,
		`<span class="icon-home" data-size="medium"></span><span class="icon-user" data-size="small"></span>`,
		out)
}

func TestMixinBlockContent(t *testing.T) {
	src := "mixin card(title)\n  div.card\n    h2= title\n    block\n+card('Hi')\n  p body text"
	out := mustCompile(t, src, nil, render.Compact)
	assert.Equal(t, `<div class="card"><h2>Hi</h2><p>body text</p></div>`, out)
}

func TestMixinBindingsDoNotLeak(t *testing.T) {
	src := "mixin m(x)\n  p= x\n+m('bound')\np= typeof x"
	out := mustCompile(t, src, nil, render.Compact)
	assert.Equal(t, "<p>bound</p><p>undefined</p>", out)
}

func TestRenderErrors(t *testing.T) {
	env := value.NewEnv()
	env.Set("items", value.List(value.Number(1)))

	t.Run("children under void element", func(t *testing.T) {
		_, err := compile(t, "br\n  p x", env, render.Compact)
		var rerr *render.RenderError
		require.ErrorAs(t, err, &rerr)
	})

	t.Run("list in text position", func(t *testing.T) {
		_, err := compile(t, "p= items", env, render.Compact)
		var eerr *eval.EvaluationError
		require.ErrorAs(t, err, &eerr)
		assert.NotEmpty(t, eerr.Msg)
	})

	t.Run("list as plain attribute", func(t *testing.T) {
		_, err := compile(t, "a(title=items) x", env, render.Compact)
		var eerr *eval.EvaluationError
		require.ErrorAs(t, err, &eerr)
	})

	t.Run("error aborts with empty output", func(t *testing.T) {
		out, err := compile(t, "p ok\np= items", env, render.Compact)
		require.Error(t, err)
		assert.Empty(t, out)
	})
}

func TestPrettyOutput(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			"structural children indent",
			"div\n  p Hi",
			"<div>\n  <p>Hi</p>\n</div>",
		},
		{
			"inline text keeps the closing tag on the same line",
			"p Hello",
			"<p>Hello</p>",
		},
		{
			"doctype opens the document",
			"doctype html\nhtml\n  body\n    p hi",
			"<!DOCTYPE html>\n<html>\n  <body>\n    <p>hi</p>\n  </body>\n</html>",
		},
		{
			"void elements sit on their own line",
			"div\n  br\n  br",
			"<div>\n  <br/>\n  <br/>\n</div>",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mustCompile(t, tc.source, nil, render.Pretty))
		})
	}
}

func TestModesAgreeOnContent(t *testing.T) {
	env := value.NewEnv()
	env.Set("items", value.List(value.String("a"), value.String("b")))

	src := "div.wrap\n  ul\n    each item in items\n      li= item"
	compact := mustCompile(t, src, env, render.Compact)
	pretty := mustCompile(t, src, env, render.Pretty)

	strip := func(s string) string {
		out := make([]byte, 0, len(s))
		skip := false
		for i := 0; i < len(s); i++ {
			switch {
			case s[i] == '\n':
				skip = true
			case skip && s[i] == ' ':
			default:
				skip = false
				out = append(out, s[i])
			}
		}
		return string(out)
	}
	assert.Equal(t, compact, strip(pretty), "modes differ beyond whitespace")
}
