package rarity

import (
	"strings"

	"github.com/roach88/resin/internal/ir"
)

// Condition key syntax.
const (
	// FallbackKey marks the table used when no other condition matches.
	FallbackKey = "_"

	// DefaultConditionLayer is the layer a bare predicate ("joker") refers to.
	DefaultConditionLayer = "_key"

	andSeparator  = "&"
	orSeparator   = "|"
	pairSeparator = ":"
)

// ConditionKind tags the variant held by a Condition.
type ConditionKind int

const (
	// ConditionFallback always matches; it is consulted only after every
	// other rule has failed.
	ConditionFallback ConditionKind = iota
	// ConditionSingle holds one predicate.
	ConditionSingle
	// ConditionAll holds predicates that must all match.
	ConditionAll
	// ConditionAny holds predicates of which at least one must match.
	ConditionAny
)

// String returns the kind name for diagnostics.
func (k ConditionKind) String() string {
	switch k {
	case ConditionFallback:
		return "fallback"
	case ConditionSingle:
		return "single"
	case ConditionAll:
		return "all"
	case ConditionAny:
		return "any"
	default:
		return "unknown"
	}
}

// Predicate asserts that Layer was resolved to Value.
type Predicate struct {
	Layer string
	Value string
}

// Matches reports whether the predicate holds for the traits resolved so far.
// Value is compared against both the raw resolved value ("red.png") and its
// display form ("red").
func (p Predicate) Matches(resolved ir.AttributeSet) bool {
	got, ok := resolved.Lookup(p.Layer)
	if !ok {
		return false
	}
	return got == p.Value || ir.DisplayValue(got) == p.Value
}

// String renders the predicate in key syntax.
func (p Predicate) String() string {
	return p.Layer + pairSeparator + p.Value
}

// Condition is a parsed condition key.
type Condition struct {
	Kind       ConditionKind
	Predicates []Predicate
}

// Fallback returns the fallback condition.
func Fallback() Condition {
	return Condition{Kind: ConditionFallback}
}

// ParseCondition parses a condition key once, at compile time.
//
// Accepted forms:
//
//	_                 fallback
//	face:gold         single predicate
//	joker             single predicate on DefaultConditionLayer
//	a:x & b:y         all must hold
//	a:x | b:y         any must hold
//
// Mixing "&" and "|" in one key is rejected.
func ParseCondition(key string) (Condition, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == FallbackKey {
		return Fallback(), nil
	}
	if trimmed == "" {
		return Condition{}, NewConfigError(ErrCodeBadCondition, "", key, "condition key is empty")
	}

	hasAnd := strings.Contains(trimmed, andSeparator)
	hasOr := strings.Contains(trimmed, orSeparator)

	var kind ConditionKind
	var parts []string
	switch {
	case hasAnd && hasOr:
		return Condition{}, NewConfigError(ErrCodeBadCondition, "", key,
			"condition mixes %q and %q; use one separator per key", andSeparator, orSeparator)
	case hasAnd:
		kind = ConditionAll
		parts = strings.Split(trimmed, andSeparator)
	case hasOr:
		kind = ConditionAny
		parts = strings.Split(trimmed, orSeparator)
	default:
		kind = ConditionSingle
		parts = []string{trimmed}
	}

	preds := make([]Predicate, 0, len(parts))
	for _, part := range parts {
		p, err := parsePredicate(part)
		if err != nil {
			err.Key = key
			return Condition{}, err
		}
		preds = append(preds, p)
	}

	return Condition{Kind: kind, Predicates: preds}, nil
}

// parsePredicate parses "layer:value" or a bare value.
func parsePredicate(s string) (Predicate, *ConfigError) {
	s = strings.TrimSpace(s)
	layer, value, found := strings.Cut(s, pairSeparator)
	if !found {
		layer, value = DefaultConditionLayer, s
	}
	layer = strings.TrimSpace(layer)
	value = strings.TrimSpace(value)

	if layer == "" || value == "" {
		return Predicate{}, NewConfigError(ErrCodeBadCondition, "", s,
			"predicate %q must have the form layer:value", s)
	}
	return Predicate{Layer: layer, Value: value}, nil
}

// Matches evaluates the condition against the traits resolved so far.
func (c Condition) Matches(resolved ir.AttributeSet) bool {
	switch c.Kind {
	case ConditionFallback:
		return true
	case ConditionSingle, ConditionAll:
		for _, p := range c.Predicates {
			if !p.Matches(resolved) {
				return false
			}
		}
		return len(c.Predicates) > 0
	case ConditionAny:
		for _, p := range c.Predicates {
			if p.Matches(resolved) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Layers returns the layer names the condition reads, in order.
func (c Condition) Layers() []string {
	layers := make([]string, len(c.Predicates))
	for i, p := range c.Predicates {
		layers[i] = p.Layer
	}
	return layers
}

// String renders the condition in key syntax.
func (c Condition) String() string {
	switch c.Kind {
	case ConditionFallback:
		return FallbackKey
	case ConditionAll:
		return joinPredicates(c.Predicates, " "+andSeparator+" ")
	case ConditionAny:
		return joinPredicates(c.Predicates, " "+orSeparator+" ")
	default:
		return joinPredicates(c.Predicates, "")
	}
}

func joinPredicates(preds []Predicate, sep string) string {
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.String()
	}
	return strings.Join(parts, sep)
}
