package rarity

import (
	"github.com/roach88/resin/internal/ir"
)

// AttributeKind tags the variant held by an Attribute.
type AttributeKind int

const (
	// AttributeFlat is an unconditional Table.
	AttributeFlat AttributeKind = iota
	// AttributeConditional selects a Table by evaluating Rules.
	AttributeConditional
)

// String returns the kind name for diagnostics.
func (k AttributeKind) String() string {
	switch k {
	case AttributeFlat:
		return "flat"
	case AttributeConditional:
		return "conditional"
	default:
		return "unknown"
	}
}

// Rule pairs a condition with the table to sample when it matches.
type Rule struct {
	When  Condition
	Table Table
}

// Attribute is the declaration of one layer's distribution.
//
// For AttributeFlat only Flat is set. For AttributeConditional, Rules are
// evaluated in order and Fallback (if non-nil) is used when none match.
type Attribute struct {
	Kind     AttributeKind
	Flat     Table
	Rules    []Rule
	Fallback *Table
}

// Flat creates an unconditional attribute.
func Flat(t Table) Attribute {
	return Attribute{Kind: AttributeFlat, Flat: t}
}

// Conditional creates a conditional attribute. fallback may be nil.
func Conditional(rules []Rule, fallback *Table) Attribute {
	return Attribute{Kind: AttributeConditional, Rules: rules, Fallback: fallback}
}

// Select returns the table to sample given the traits resolved so far.
// The first matching rule wins; the fallback applies if none match.
func (a Attribute) Select(resolved ir.AttributeSet) (Table, error) {
	switch a.Kind {
	case AttributeFlat:
		return a.Flat, nil
	case AttributeConditional:
		for _, r := range a.Rules {
			if r.When.Matches(resolved) {
				return r.Table, nil
			}
		}
		if a.Fallback != nil {
			return *a.Fallback, nil
		}
		return Table{}, NewConfigError(ErrCodeNoMatch, "", "",
			"no condition matched and no %q fallback is declared", FallbackKey)
	default:
		return Table{}, NewConfigError(ErrCodeBadCondition, "", "", "unknown attribute kind %d", a.Kind)
	}
}

// Tables returns every table the attribute can sample from, fallback last.
func (a Attribute) Tables() []Table {
	if a.Kind == AttributeFlat {
		return []Table{a.Flat}
	}
	tables := make([]Table, 0, len(a.Rules)+1)
	for _, r := range a.Rules {
		tables = append(tables, r.Table)
	}
	if a.Fallback != nil {
		tables = append(tables, *a.Fallback)
	}
	return tables
}

// Values returns every distinct value name the attribute can produce,
// in first-seen order.
func (a Attribute) Values() []string {
	seen := make(map[string]bool)
	var values []string
	for _, t := range a.Tables() {
		for _, n := range t.Names {
			if !seen[n] {
				seen[n] = true
				values = append(values, n)
			}
		}
	}
	return values
}

// Layer is a named attribute axis.
type Layer struct {
	Name      string
	Attribute Attribute
}

// IsMeta reports whether the layer is a meta layer.
func (l Layer) IsMeta() bool {
	return ir.IsMetaLayer(l.Name)
}

// Model is the compiled, ordered set of layer declarations.
type Model struct {
	Layers []Layer
}

// LayerNames returns layer names in resolution order.
func (m *Model) LayerNames() []string {
	names := make([]string, len(m.Layers))
	for i, l := range m.Layers {
		names[i] = l.Name
	}
	return names
}

// PublicLayerCount returns the number of non-meta layers.
func (m *Model) PublicLayerCount() int {
	n := 0
	for _, l := range m.Layers {
		if !l.IsMeta() {
			n++
		}
	}
	return n
}

// Combinations returns an upper bound on the number of distinct public
// attribute sets the model can produce. It ignores conditions, so the true
// count may be lower. Returns -1 on overflow.
func (m *Model) Combinations() int64 {
	total := int64(1)
	for _, l := range m.Layers {
		if l.IsMeta() {
			continue
		}
		live := make(map[string]bool)
		for _, t := range l.Attribute.Tables() {
			for i, w := range t.Weights {
				if w > 0 {
					live[t.Names[i]] = true
				}
			}
		}
		n := int64(len(live))
		if n == 0 {
			return 0
		}
		if total > (1<<62)/n {
			return -1
		}
		total *= n
	}
	return total
}
