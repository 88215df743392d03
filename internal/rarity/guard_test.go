package rarity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/resin/internal/ir"
	"github.com/roach88/resin/internal/testutil"
)

func twoCombinationModel() *Model {
	return &Model{Layers: []Layer{
		{Name: "bg", Attribute: Flat(NewTable(Entry{"red.png", 0.5}, Entry{"blue.png", 0.5}))},
		{Name: "eyes", Attribute: Flat(NewTable(Entry{"big.png", 1}))},
	}}
}

func TestGuardPassThroughWithoutUniqueness(t *testing.T) {
	src := testutil.NewSequenceSource(0.25)
	guard := NewGuard(NewResolver(twoCombinationModel(), src), DefaultPolicy(), nil, nil)

	for i := 0; i < 5; i++ {
		set, retries, err := guard.ResolveUnique(i)
		require.NoError(t, err)
		assert.Equal(t, 0, retries)
		assert.Equal(t, "red.png", set[0].Value, "duplicates are allowed")
	}
	assert.Equal(t, 10, src.Draws(), "exactly one resolve per item")
}

func TestGuardProducesDistinctSets(t *testing.T) {
	rolls := NewGeneratedRolls()
	policy := Policy{RequireUnique: true, MaxRetries: DefaultMaxRetries}
	guard := NewGuard(NewResolver(twoCombinationModel(), NewSeededSource(1)), policy, rolls, nil)

	var sets []ir.AttributeSet
	for i := 0; i < 2; i++ {
		set, _, err := guard.ResolveUnique(i)
		require.NoError(t, err)
		sets = append(sets, set)
	}

	assert.False(t, sets[0].Equal(sets[1]))
	assert.Equal(t, 2, rolls.Len())
}

func TestGuardExhaustion(t *testing.T) {
	// Only one combination exists: every re-roll collides.
	model := &Model{Layers: []Layer{
		{Name: "bg", Attribute: Flat(NewTable(Entry{"red.png", 1}))},
	}}
	src := testutil.NewSequenceSource(0.5)
	policy := Policy{RequireUnique: true, MaxRetries: 5}
	guard := NewGuard(NewResolver(model, src), policy, NewGeneratedRolls(), nil)

	_, _, err := guard.ResolveUnique(0)
	require.NoError(t, err)

	_, retries, err := guard.ResolveUnique(1)
	require.Error(t, err)
	assert.True(t, IsUniquenessExhausted(err))

	var ue *UniquenessExhaustedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 1, ue.Index)
	assert.Equal(t, 6, ue.Retries, "fails once a duplicate is found with retries > max")
	assert.Equal(t, 5, ue.MaxRetries)
	assert.Equal(t, 1, ue.Generated)
	assert.Equal(t, 6, retries)
	assert.Equal(t, 1+7, src.Draws(), "first item plus max+2 attempts")
}

func TestGuardComparesPublicViewByDefault(t *testing.T) {
	model := &Model{Layers: []Layer{
		{Name: "_key", Attribute: Flat(NewTable(Entry{"a", 1}, Entry{"b", 1}))},
		{Name: "bg", Attribute: Flat(NewTable(Entry{"red.png", 1}))},
	}}

	// Item 0 draws (a, red); item 1 draws (b, red), then wraps to (a, red).
	newSrc := func() *testutil.SequenceSource { return testutil.NewSequenceSource(0.25, 0.25, 0.75, 0.25) }

	t.Run("public view", func(t *testing.T) {
		guard := NewGuard(NewResolver(model, newSrc()), Policy{RequireUnique: true, MaxRetries: 0}, nil, nil)
		_, _, err := guard.ResolveUnique(0)
		require.NoError(t, err)
		_, _, err = guard.ResolveUnique(1)
		assert.True(t, IsUniquenessExhausted(err), "sets differing only in meta layers collide")
	})

	t.Run("include meta", func(t *testing.T) {
		policy := Policy{RequireUnique: true, MaxRetries: 0, IncludeMeta: true}
		guard := NewGuard(NewResolver(model, newSrc()), policy, nil, nil)
		_, _, err := guard.ResolveUnique(0)
		require.NoError(t, err)
		set, _, err := guard.ResolveUnique(1)
		require.NoError(t, err)
		assert.Equal(t, "b", set[0].Value)
	})
}

func TestGuardRegister(t *testing.T) {
	guaranteed := ir.AttributeSet{{Layer: "bg", Value: "red.png"}, {Layer: "eyes", Value: "big.png"}}

	t.Run("exempt by default", func(t *testing.T) {
		rolls := NewGeneratedRolls()
		guard := NewGuard(NewResolver(twoCombinationModel(), nil), Policy{RequireUnique: true, MaxRetries: 3}, rolls, nil)
		added, err := guard.Register(guaranteed)
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, 0, rolls.Len(), "guaranteed rolls stay out of the pool")
	})

	t.Run("included in pool", func(t *testing.T) {
		rolls := NewGeneratedRolls()
		policy := Policy{RequireUnique: true, MaxRetries: 3, IncludeGuaranteed: true}
		src := testutil.NewSequenceSource(0.25) // always red
		guard := NewGuard(NewResolver(twoCombinationModel(), src), policy, rolls, nil)

		added, err := guard.Register(guaranteed)
		require.NoError(t, err)
		assert.True(t, added)

		added, err = guard.Register(guaranteed)
		require.NoError(t, err)
		assert.False(t, added, "duplicate guaranteed rolls are reported, not rejected")

		_, _, err = guard.ResolveUnique(1)
		assert.True(t, IsUniquenessExhausted(err), "sampled items cannot duplicate a guaranteed roll")
	})
}

func TestGeneratedRollsAdd(t *testing.T) {
	rolls := NewGeneratedRolls()
	assert.True(t, rolls.Add("x"))
	assert.False(t, rolls.Add("x"))
	assert.True(t, rolls.Contains("x"))
	assert.False(t, rolls.Contains("y"))
	assert.Equal(t, 1, rolls.Len())
}
