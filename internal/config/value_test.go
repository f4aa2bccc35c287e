package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestMerge_OverrideWins(t *testing.T) {
	base := FromAny(map[string]any{"a": 1, "b": map[string]any{"c": 2, "d": 3}})
	override := FromAny(map[string]any{"b": map[string]any{"c": 9}})

	got := ToAny(Merge(base, override))

	want := map[string]any{"a": 1, "b": map[string]any{"c": 9, "d": 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_Cases(t *testing.T) {
	tests := []struct {
		name     string
		base     map[string]any
		override map[string]any
		want     map[string]any
	}{
		{
			name:     "new key added",
			base:     map[string]any{"a": "x"},
			override: map[string]any{"b": "y"},
			want:     map[string]any{"a": "x", "b": "y"},
		},
		{
			name:     "scalar replaces mapping",
			base:     map[string]any{"a": map[string]any{"b": 1}},
			override: map[string]any{"a": "flat"},
			want:     map[string]any{"a": "flat"},
		},
		{
			name:     "mapping replaces scalar",
			base:     map[string]any{"a": "flat"},
			override: map[string]any{"a": map[string]any{"b": 1}},
			want:     map[string]any{"a": map[string]any{"b": 1}},
		},
		{
			name:     "arrays replaced wholesale",
			base:     map[string]any{"a": []any{"x", "y"}},
			override: map[string]any{"a": []any{"z"}},
			want:     map[string]any{"a": []any{"z"}},
		},
		{
			name:     "null override replaces",
			base:     map[string]any{"a": "x"},
			override: map[string]any{"a": nil},
			want:     map[string]any{"a": nil},
		},
		{
			name:     "empty override is identity",
			base:     map[string]any{"a": map[string]any{"b": true}},
			override: map[string]any{},
			want:     map[string]any{"a": map[string]any{"b": true}},
		},
		{
			name:     "deep recursion",
			base:     map[string]any{"a": map[string]any{"b": map[string]any{"c": 1, "d": 2}}},
			override: map[string]any{"a": map[string]any{"b": map[string]any{"d": 5, "e": 6}}},
			want:     map[string]any{"a": map[string]any{"b": map[string]any{"c": 1, "d": 5, "e": 6}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToAny(Merge(FromAny(tt.base), FromAny(tt.override)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := Mapping{
		"list": Scalar{V: []any{"a"}},
		"nested": Mapping{
			"keep": Str("base"),
		},
	}
	override := Mapping{
		"nested": Mapping{"extra": Str("override")},
	}
	baseBefore := ToAny(base)
	overrideBefore := ToAny(override)

	merged := Merge(base, override).(Mapping)
	merged["nested"].(Mapping)["keep"] = Str("changed")
	merged["list"].(Scalar).V.([]any)[0] = "changed"

	assert.Empty(t, cmp.Diff(baseBefore, ToAny(base)))
	assert.Empty(t, cmp.Diff(overrideBefore, ToAny(override)))
}

func TestMerge_NilOverride(t *testing.T) {
	base := Mapping{"a": Str("x")}
	assert.Equal(t, base, Merge(base, nil))
}

func TestLookup(t *testing.T) {
	v := Mapping{"a": Mapping{"b": Str("c")}}

	got, ok := Lookup(v, "a", "b")
	assert.True(t, ok)
	assert.Equal(t, Str("c"), got)

	_, ok = Lookup(v, "a", "missing")
	assert.False(t, ok)

	_, ok = Lookup(v, "a", "b", "deeper")
	assert.False(t, ok, "cannot descend into a scalar")
}

func TestFromAny_NonStringKeys(t *testing.T) {
	v := FromAny(map[any]any{1: "one"})
	assert.Equal(t, Mapping{"1": Str("one")}, v)
}
