// Copyright 2025 The go-pug Authors
// This file is part of go-pug.
//
// go-pug is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package value defines the tagged value union that crosses the expression
// evaluator boundary, together with its truthiness and stringification rules
// and the variable environment the renderer reads from.
//
// The union is deliberately closed: null, bool, number, string, list and map
// are the only shapes the compiler ever sees, regardless of what the host
// expression language can produce internally.
package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindList:   "list",
	KindMap:    "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is an immutable tagged union. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	l    []Value
	m    *Map
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64. Integers are numbers with no fractional part.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List wraps an ordered sequence of values.
func List(elems ...Value) Value { return Value{kind: KindList, l: elems} }

// MapValue wraps an ordered map.
func MapValue(m *Map) Value { return Value{kind: KindMap, m: m} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.b }

// Num returns the numeric payload; 0 for other kinds.
func (v Value) Num() float64 { return v.n }

// Str returns the string payload; "" for other kinds.
func (v Value) Str() string { return v.s }

// Elems returns the list payload; nil for other kinds.
func (v Value) Elems() []Value { return v.l }

// Map returns the map payload; nil for other kinds.
func (v Value) Map() *Map { return v.m }

// Len returns the element count of a list or map, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.l)
	case KindMap:
		return v.m.Len()
	}
	return 0
}

// Truthy applies the language's truth rule: false, null, 0, the empty
// string, the empty list and the empty map are falsy; everything else is
// truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.l) > 0
	case KindMap:
		return v.m.Len() > 0
	}
	return false
}

// ErrNoText reports a list or map reaching a plain text or attribute
// context, where no default stringification is defined.
var ErrNoText = errors.New("value has no text form")

// Text returns the canonical textual form used for interpolation: numbers in
// shortest decimal form, booleans as "true"/"false", null as the empty
// string. Lists and maps have no text form and return ErrNoText.
func (v Value) Text() (string, error) {
	switch v.kind {
	case KindNull:
		return "", nil
	case KindBool:
		return strconv.FormatBool(v.b), nil
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64), nil
	case KindString:
		return v.s, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoText, v.kind)
}

// String is the debug form used by tests and the AST dumper; it is not the
// interpolation form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindList:
		parts := make([]string, len(v.l))
		for i, e := range v.l {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, v.m.Len())
		for _, k := range v.m.Keys() {
			e, _ := v.m.Get(k)
			parts = append(parts, k+": "+e.String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.l) != len(o.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(o.l[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if v.m.Len() != o.m.Len() {
			return false
		}
		for i, k := range v.m.Keys() {
			if o.m.Keys()[i] != k {
				return false
			}
			a, _ := v.m.Get(k)
			b, _ := o.m.Get(k)
			if !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Ordered map
// ---------------------------------------------------------------------------

// Map is a string-keyed map that remembers insertion order, which is the
// iteration order "each" exposes.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Set stores a key, keeping its first-insertion position on overwrite.
func (m *Map) Set(key string, v Value) *Map {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
	return m
}

// Get looks a key up.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order. The slice is shared; callers
// must not modify it.
func (m *Map) Keys() []string { return m.keys }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }
