// Copyright 2025 The go-pug Authors
// This file is part of go-pug.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/naoina/toml"

	"github.com/carlos-sweb/go-pug/lang/value"
	"github.com/carlos-sweb/go-pug/pug"
)

// varMap is the decoded variable file: template variable names to values.
type varMap map[string]value.Value

// loadVars reads a TOML variable file. An empty path yields an empty map.
func loadVars(path string) (varMap, error) {
	if path == "" {
		return varMap{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vars file: %w", err)
	}
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	vars := make(varMap, len(raw))
	for k, v := range raw {
		converted, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("vars file %s, key %q: %w", path, k, err)
		}
		vars[k] = converted
	}
	return vars, nil
}

// apply copies the variables into a compile context.
func (m varMap) apply(c *pug.Context) {
	for k, v := range m {
		c.Set(k, v)
	}
}

// toValue converts a decoded TOML value into the engine's value union. TOML
// tables decode to Go maps with no order, so their keys are sorted for a
// deterministic iteration order.
func toValue(v interface{}) (value.Value, error) {
	switch v := v.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(v), nil
	case int64:
		return value.Number(float64(v)), nil
	case float64:
		return value.Number(v), nil
	case string:
		return value.String(v), nil
	case []interface{}:
		elems := make([]value.Value, len(v))
		for i, el := range v {
			converted, err := toValue(el)
			if err != nil {
				return value.Null(), err
			}
			elems[i] = converted
		}
		return value.List(elems...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := value.NewMap()
		for _, k := range keys {
			converted, err := toValue(v[k])
			if err != nil {
				return value.Null(), err
			}
			m.Set(k, converted)
		}
		return value.MapValue(m), nil
	}
	return value.Null(), fmt.Errorf("unsupported TOML value of type %T", v)
}
