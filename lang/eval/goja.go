// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package eval

import (
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/carlos-sweb/go-pug/lang/token"
	"github.com/carlos-sweb/go-pug/lang/value"
)

// JS is an Evaluator backed by a goja JavaScript runtime. One JS instance
// serves one compile; it keeps a single runtime alive across expressions so
// repeated evaluations stay cheap.
type JS struct {
	vm    *goja.Runtime
	bound map[string]bool // names currently set on the runtime
}

// New returns a fresh JavaScript evaluator.
func New() *JS {
	return &JS{vm: goja.New(), bound: make(map[string]bool)}
}

// Evaluate runs src as a JavaScript expression with the environment's
// bindings installed as globals, and converts the result into the value
// union.
func (e *JS) Evaluate(src string, pos token.Position, env *value.Env) (value.Value, error) {
	e.bind(env)
	program := src
	if strings.HasPrefix(strings.TrimSpace(src), "{") {
		// An object literal at statement position would parse as a block.
		program = "(" + src + ")"
	}
	res, err := e.vm.RunString(program)
	if err != nil {
		return value.Null(), &EvaluationError{Pos: pos, Expr: src, Msg: err.Error()}
	}
	v, convErr := e.toValue(res)
	if convErr != nil {
		return value.Null(), &EvaluationError{Pos: pos, Expr: src, Msg: convErr.Error()}
	}
	return v, nil
}

// bind installs the flattened environment on the runtime. Names bound by a
// previous call that are absent from the current environment are reset to
// undefined, so scoped bindings never leak between evaluations.
func (e *JS) bind(env *value.Env) {
	vars := map[string]value.Value{}
	if env != nil {
		vars = env.Flatten()
	}
	for name := range e.bound {
		if _, ok := vars[name]; !ok {
			e.vm.Set(name, goja.Undefined())
			delete(e.bound, name)
		}
	}
	for name, v := range vars {
		e.vm.Set(name, e.toGoja(v))
		e.bound[name] = true
	}
}

// toGoja converts a value into something the runtime understands. Maps
// become real objects so that key enumeration keeps insertion order.
func (e *JS) toGoja(v value.Value) goja.Value {
	switch v.Kind() {
	case value.KindNull:
		return goja.Null()
	case value.KindBool:
		return e.vm.ToValue(v.Bool())
	case value.KindNumber:
		return e.vm.ToValue(v.Num())
	case value.KindString:
		return e.vm.ToValue(v.Str())
	case value.KindList:
		elems := make([]interface{}, len(v.Elems()))
		for i, el := range v.Elems() {
			elems[i] = e.toGoja(el)
		}
		return e.vm.ToValue(elems)
	case value.KindMap:
		obj := e.vm.NewObject()
		for _, k := range v.Map().Keys() {
			el, _ := v.Map().Get(k)
			_ = obj.Set(k, e.toGoja(el))
		}
		return obj
	}
	return goja.Undefined()
}

// toValue converts a runtime result into the value union. Arrays map to
// lists; plain objects map to ordered maps using the engine's own key
// enumeration order, which for JavaScript objects is insertion order.
func (e *JS) toValue(v goja.Value) (value.Value, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return value.Null(), nil
	}
	if obj, ok := v.(*goja.Object); ok {
		if obj.ClassName() == "Array" {
			n := int(obj.Get("length").ToInteger())
			elems := make([]value.Value, 0, n)
			for i := 0; i < n; i++ {
				el, err := e.toValue(obj.Get(strconv.Itoa(i)))
				if err != nil {
					return value.Null(), err
				}
				elems = append(elems, el)
			}
			return value.List(elems...), nil
		}
		if obj.ClassName() == "Function" {
			return value.Null(), errFunctionValue
		}
		m := value.NewMap()
		for _, k := range obj.Keys() {
			el, err := e.toValue(obj.Get(k))
			if err != nil {
				return value.Null(), err
			}
			m.Set(k, el)
		}
		return value.MapValue(m), nil
	}
	switch ex := v.Export().(type) {
	case bool:
		return value.Bool(ex), nil
	case int64:
		return value.Number(float64(ex)), nil
	case float64:
		return value.Number(ex), nil
	case string:
		return value.String(ex), nil
	}
	return value.Null(), errUnsupported
}

var (
	errFunctionValue = errStr("expression produced a function, not a value")
	errUnsupported   = errStr("expression produced an unsupported value")
)

type errStr string

func (e errStr) Error() string { return string(e) }
