// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package eval_test

import (
	"errors"
	"testing"

	"github.com/carlos-sweb/go-pug/lang/eval"
	"github.com/carlos-sweb/go-pug/lang/token"
	"github.com/carlos-sweb/go-pug/lang/value"
)

var noPos = token.Position{File: "test.pug", Line: 1, Column: 1}

func mustEval(t *testing.T, e *eval.JS, src string, env *value.Env) value.Value {
	t.Helper()
	v, err := e.Evaluate(src, noPos, env)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", src, err)
	}
	return v
}

func TestEvaluateExpressions(t *testing.T) {
	env := value.NewEnv()
	env.Set("age", value.Number(20))
	env.Set("name", value.String("ana"))
	env.Set("items", value.List(value.Number(1), value.Number(2)))

	cases := []struct {
		name string
		src  string
		want value.Value
	}{
		{"arithmetic", "1 + 2 * 3", value.Number(7)},
		{"comparison", "age >= 18", value.Bool(true)},
		{"ternary", "age >= 18 ? 'Yes' : 'No'", value.String("Yes")},
		{"string concat", "'hi ' + name", value.String("hi ana")},
		{"member access", "items.length", value.Number(2)},
		{"index", "items[1]", value.Number(2)},
		{"null literal", "null", value.Null()},
		{"undefined literal", "undefined", value.Null()},
		{"array literal", "[1, 'a', true]", value.List(value.Number(1), value.String("a"), value.Bool(true))},
	}
	e := eval.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mustEval(t, e, tc.src, env)
			if !got.Equal(tc.want) {
				t.Errorf("Evaluate(%q) = %s, want %s", tc.src, got, tc.want)
			}
		})
	}
}

func TestObjectLiteralAtStatementPosition(t *testing.T) {
	e := eval.New()
	got := mustEval(t, e, "{a: 1, b: 'x'}", value.NewEnv())
	if got.Kind() != value.KindMap {
		t.Fatalf("kind = %s, want map", got.Kind())
	}
	keys := got.Map().Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v, want [a b]", keys)
	}
}

func TestObjectKeyOrderRoundTrip(t *testing.T) {
	m := value.NewMap()
	m.Set("zeta", value.Number(1))
	m.Set("alpha", value.Number(2))
	m.Set("mid", value.Number(3))
	env := value.NewEnv()
	env.Set("o", value.MapValue(m))

	e := eval.New()
	got := mustEval(t, e, "o", env)
	if got.Kind() != value.KindMap {
		t.Fatalf("kind = %s, want map", got.Kind())
	}
	want := []string{"zeta", "alpha", "mid"}
	keys := got.Map().Keys()
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestBindingsDoNotLeak(t *testing.T) {
	e := eval.New()

	inner := value.NewEnv()
	inner.Set("item", value.String("x"))
	if v := mustEval(t, e, "item", inner); v.Str() != "x" {
		t.Fatalf("inner item = %s", v)
	}

	// A later evaluation without the binding must see it gone.
	if v := mustEval(t, e, "typeof item", value.NewEnv()); v.Str() != "undefined" {
		t.Errorf("stale binding survived: typeof item = %s", v)
	}
}

func TestChildFrameShadowsRoot(t *testing.T) {
	root := value.NewEnv()
	root.Set("n", value.Number(1))
	child := root.Child()
	child.Set("n", value.Number(2))

	e := eval.New()
	if v := mustEval(t, e, "n", child); v.Num() != 2 {
		t.Errorf("n = %s, want 2", v)
	}
	if v := mustEval(t, e, "n", root); v.Num() != 1 {
		t.Errorf("n in root = %s, want 1", v)
	}
}

func TestEvaluationErrors(t *testing.T) {
	e := eval.New()

	_, err := e.Evaluate("1 ++* 2", noPos, value.NewEnv())
	var eerr *eval.EvaluationError
	if !errors.As(err, &eerr) {
		t.Fatalf("err = %v, want *EvaluationError", err)
	}
	if eerr.Pos != noPos {
		t.Errorf("error position = %v, want %v", eerr.Pos, noPos)
	}

	_, err = e.Evaluate("(function(){})", noPos, value.NewEnv())
	if !errors.As(err, &eerr) {
		t.Fatalf("function result: err = %v, want *EvaluationError", err)
	}

	// An unbound identifier is a runtime ReferenceError, not a silent null.
	if _, err = e.Evaluate("missing", noPos, value.NewEnv()); err == nil {
		t.Error("unbound identifier evaluated without error")
	}
}

func TestRoundTripKinds(t *testing.T) {
	env := value.NewEnv()
	env.Set("ls", value.List(value.Bool(true), value.Null(), value.String("s")))
	e := eval.New()

	got := mustEval(t, e, "ls", env)
	want := value.List(value.Bool(true), value.Null(), value.String("s"))
	if !got.Equal(want) {
		t.Errorf("round trip = %s, want %s", got, want)
	}

	if v := mustEval(t, e, "ls.concat([4])", env); v.Len() != 4 {
		t.Errorf("concat length = %d, want 4", v.Len())
	}
}
