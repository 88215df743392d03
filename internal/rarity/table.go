package rarity

import (
	"math"
	"sort"
)

// Table is a weighted distribution over value names.
// Names and Weights are parallel slices in declaration order.
type Table struct {
	Names   []string
	Weights []float64
}

// Entry is one (value, weight) pair of a Table.
type Entry struct {
	Name   string
	Weight float64
}

// NewTable builds a Table from entries, preserving their order.
func NewTable(entries ...Entry) Table {
	t := Table{
		Names:   make([]string, len(entries)),
		Weights: make([]float64, len(entries)),
	}
	for i, e := range entries {
		t.Names[i] = e.Name
		t.Weights[i] = e.Weight
	}
	return t
}

// Len returns the number of entries.
func (t Table) Len() int {
	return len(t.Names)
}

// Contains reports whether name is one of the table's values.
func (t Table) Contains(name string) bool {
	for _, n := range t.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Total returns the sum of all weights.
func (t Table) Total() float64 {
	var total float64
	for _, w := range t.Weights {
		total += w
	}
	return total
}

// Validate checks that the table can be sampled: at least one entry, every
// weight finite and non-negative, and a positive total.
// Returned errors carry no layer or index; callers add that context.
func (t Table) Validate() error {
	if len(t.Names) == 0 || len(t.Names) != len(t.Weights) {
		return NewConfigError(ErrCodeEmptyTable, "", "", "rarity table has no entries")
	}
	for i, w := range t.Weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return NewConfigError(ErrCodeNegativeWeight, "", t.Names[i],
				"weight %v is not a finite non-negative number", w)
		}
	}
	if t.Total() <= 0 {
		return NewConfigError(ErrCodeZeroSum, "", "", "all %d weights are zero", len(t.Weights))
	}
	return nil
}

// Sample draws one value name with probability weight/total.
//
// A cumulative distribution is built from the weights, r is drawn uniformly
// from [0, total), and the first entry whose cumulative weight exceeds r is
// chosen. Zero-weight entries can never be chosen.
func (t Table) Sample(src Source) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	cumulative := make([]float64, len(t.Weights))
	var total float64
	for i, w := range t.Weights {
		total += w
		cumulative[i] = total
	}

	r := src.Float64() * total
	i := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > r })

	// Rounding can push r onto the last boundary; take the last entry with mass.
	if i == len(cumulative) {
		i = len(t.Weights) - 1
		for i > 0 && t.Weights[i] == 0 {
			i--
		}
	}

	return t.Names[i], nil
}
