package rarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/resin/internal/ir"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		key   string
		kind  ConditionKind
		preds []Predicate
	}{
		{"_", ConditionFallback, nil},
		{" _ ", ConditionFallback, nil},
		{"face:gold", ConditionSingle, []Predicate{{"face", "gold"}}},
		{"joker", ConditionSingle, []Predicate{{DefaultConditionLayer, "joker"}}},
		{"_key:joker", ConditionSingle, []Predicate{{"_key", "joker"}}},
		{"face:gold & eyes:star", ConditionAll, []Predicate{{"face", "gold"}, {"eyes", "star"}}},
		{"face:gold|face:teal", ConditionAny, []Predicate{{"face", "gold"}, {"face", "teal"}}},
		{"face : gold.png", ConditionSingle, []Predicate{{"face", "gold.png"}}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c, err := ParseCondition(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.preds, c.Predicates)
		})
	}
}

func TestParseConditionErrors(t *testing.T) {
	for _, key := range []string{"", "   ", "a:x & b:y | c:z", "face:", ":gold", "a:x & "} {
		t.Run(key, func(t *testing.T) {
			_, err := ParseCondition(key)
			require.Error(t, err)
			assert.Equal(t, ErrCodeBadCondition, ConfigErrorCodeOf(err))
		})
	}
}

func TestConditionMatches(t *testing.T) {
	resolved := ir.AttributeSet{
		{Layer: "_key", Value: "joker"},
		{Layer: "face", Value: "gold.png"},
		{Layer: "eyes", Value: "star.png"},
	}

	tests := []struct {
		key  string
		want bool
	}{
		{"_", true},
		{"joker", true},
		{"face:gold", true},
		{"face:gold.png", true},
		{"face:teal", false},
		{"hat:cap", false},
		{"face:gold & eyes:star", true},
		{"face:gold & eyes:heart", false},
		{"face:teal | eyes:star", true},
		{"face:teal | eyes:heart", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c, err := ParseCondition(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Matches(resolved))
		})
	}
}

func TestConditionMatchesOnlyResolvedLayers(t *testing.T) {
	c, err := ParseCondition("face:gold")
	require.NoError(t, err)
	assert.False(t, c.Matches(nil))
}

func TestConditionStringRoundTrip(t *testing.T) {
	for _, key := range []string{"_", "face:gold", "a:x & b:y", "a:x | b:y"} {
		c, err := ParseCondition(key)
		require.NoError(t, err)

		again, err := ParseCondition(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, again)
	}
}

func TestConditionLayers(t *testing.T) {
	c, err := ParseCondition("face:gold & joker")
	require.NoError(t, err)
	assert.Equal(t, []string{"face", DefaultConditionLayer}, c.Layers())
}
