package ir

import (
	"path/filepath"
	"strings"
)

// MetaPrefix marks a layer as a meta layer. Meta layers take part in
// condition matching but never appear in public metadata or images.
const MetaPrefix = "_"

// Trait is one resolved (layer, value) pair.
type Trait struct {
	Layer string `json:"trait_type"`
	Value string `json:"value"`
}

// IsMeta reports whether the trait belongs to a meta layer.
func (t Trait) IsMeta() bool {
	return IsMetaLayer(t.Layer)
}

// Display returns the trait with its value stripped of any file extension.
func (t Trait) Display() Trait {
	return Trait{Layer: t.Layer, Value: DisplayValue(t.Value)}
}

// AttributeSet is an ordered sequence of traits, one per declared layer in
// layer order.
type AttributeSet []Trait

// IsMetaLayer reports whether a layer name carries the meta prefix.
func IsMetaLayer(layer string) bool {
	return strings.HasPrefix(layer, MetaPrefix)
}

// DisplayValue strips the file extension from an asset value name.
// "blue.png" becomes "blue"; names without an extension are returned as is.
func DisplayValue(value string) string {
	ext := filepath.Ext(value)
	if ext == "" || ext == value {
		return value
	}
	return strings.TrimSuffix(value, ext)
}

// Public returns the non-meta view of the set, preserving order.
func (s AttributeSet) Public() AttributeSet {
	out := make(AttributeSet, 0, len(s))
	for _, t := range s {
		if !t.IsMeta() {
			out = append(out, t)
		}
	}
	return out
}

// Display returns the set with every value stripped of its extension.
func (s AttributeSet) Display() AttributeSet {
	out := make(AttributeSet, len(s))
	for i, t := range s {
		out[i] = t.Display()
	}
	return out
}

// Lookup returns the value resolved for layer, if present.
func (s AttributeSet) Lookup(layer string) (string, bool) {
	for _, t := range s {
		if t.Layer == layer {
			return t.Value, true
		}
	}
	return "", false
}

// Equal reports whether two sets hold the same pairs in the same order.
func (s AttributeSet) Equal(other AttributeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s AttributeSet) Clone() AttributeSet {
	out := make(AttributeSet, len(s))
	copy(out, s)
	return out
}
