package config

import (
	"fmt"
	"maps"
	"slices"
)

// Value is a configuration node. Only Scalar and Mapping implement it.
type Value interface {
	configValue()
}

// Scalar is a leaf value: a string, number, bool, null or array. Arrays are
// leaves, so a merge replaces them wholesale.
type Scalar struct {
	V any
}

func (Scalar) configValue() {}

// Mapping is a keyed configuration node.
type Mapping map[string]Value

func (Mapping) configValue() {}

// Str wraps s as a Scalar.
func Str(s string) Scalar {
	return Scalar{V: s}
}

// FromAny converts decoded JSON or YAML data into a Value. Maps become
// Mappings; everything else becomes a Scalar.
func FromAny(v any) Value {
	switch t := v.(type) {
	case Value:
		return t
	case map[string]any:
		m := make(Mapping, len(t))
		for k, child := range t {
			m[k] = FromAny(child)
		}
		return m
	case map[any]any:
		m := make(Mapping, len(t))
		for k, child := range t {
			m[fmt.Sprint(k)] = FromAny(child)
		}
		return m
	default:
		return Scalar{V: cloneAny(v)}
	}
}

// ToAny converts a Value back into plain data suitable for encoding.
func ToAny(v Value) any {
	switch t := v.(type) {
	case Mapping:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = ToAny(child)
		}
		return out
	case Scalar:
		return cloneAny(t.V)
	default:
		return nil
	}
}

// Merge returns base overlaid with override. For each key of override:
// when both sides hold a Mapping the two are merged recursively, otherwise
// the override value replaces the base value. Neither input is modified.
func Merge(base, override Value) Value {
	if override == nil {
		return clone(base)
	}
	bm, bok := base.(Mapping)
	om, ook := override.(Mapping)
	if !bok || !ook {
		return clone(override)
	}

	out := make(Mapping, len(bm)+len(om))
	for k, v := range bm {
		out[k] = clone(v)
	}
	for k, ov := range om {
		bv, ok := bm[k]
		if !ok {
			out[k] = clone(ov)
			continue
		}
		out[k] = Merge(bv, ov)
	}
	return out
}

// Lookup walks keys from v and returns the value found, if any.
func Lookup(v Value, keys ...string) (Value, bool) {
	for _, k := range keys {
		m, ok := v.(Mapping)
		if !ok {
			return nil, false
		}
		if v, ok = m[k]; !ok {
			return nil, false
		}
	}
	return v, v != nil
}

func clone(v Value) Value {
	switch t := v.(type) {
	case Mapping:
		out := make(Mapping, len(t))
		for k, child := range t {
			out[k] = clone(child)
		}
		return out
	case Scalar:
		return Scalar{V: cloneAny(t.V)}
	default:
		return v
	}
}

// cloneAny copies the containers inside a scalar so merged trees never
// share backing arrays with their inputs.
func cloneAny(v any) any {
	switch t := v.(type) {
	case []any:
		out := slices.Clone(t)
		for i := range out {
			out[i] = cloneAny(out[i])
		}
		return out
	case []string:
		return slices.Clone(t)
	case map[string]any:
		out := maps.Clone(t)
		for k := range out {
			out[k] = cloneAny(out[k])
		}
		return out
	default:
		return v
	}
}
