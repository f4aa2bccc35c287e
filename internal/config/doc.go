// Package config builds the page configuration a notebook page embeds in
// its jupyter-config-data script element.
//
// Configuration is a tree of Values. Merge overlays one tree on another with
// the override winning structurally: scalars and arrays are replaced, and
// mappings present on both sides are merged key by key.
//
// A page configuration is assembled from Base, the element attribute
// overrides, and optionally an overrides file, then checked against an
// embedded CUE schema before it is rendered.
package config
