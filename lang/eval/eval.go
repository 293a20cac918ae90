// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package eval defines the expression evaluator boundary consumed by the
// renderer, and ships an implementation backed by the goja JavaScript
// engine.
//
// The compiler core is agnostic about the embedded expression language: it
// only requires that evaluation maps an expression source string plus a
// variable environment to a value.Value, and that failures surface as
// *EvaluationError carrying the expression's source position. A host may
// substitute any other implementation of Evaluator.
package eval

import (
	"fmt"

	"github.com/carlos-sweb/go-pug/lang/token"
	"github.com/carlos-sweb/go-pug/lang/value"
)

// Evaluator evaluates one expression against an environment. Implementations
// must not retain env between calls and must be safe to reuse across
// expressions of a single compile; they need not be safe for concurrent use.
type Evaluator interface {
	Evaluate(src string, pos token.Position, env *value.Env) (value.Value, error)
}

// EvaluationError reports an expression that failed to evaluate, or produced
// a value the surrounding context cannot consume.
type EvaluationError struct {
	Pos  token.Position
	Expr string
	Msg  string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s: evaluation error in %q: %s", e.Pos, e.Expr, e.Msg)
}
