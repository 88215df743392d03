package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// goldenScenarios replay scripted draws, so their traces are fixed.
var goldenScenarios = []string{
	"conditional_mouth",
	"guaranteed_unique",
	"missing_asset",
	"meta_layer",
	"forward_reference",
}

func TestScenarios_Golden(t *testing.T) {
	for _, name := range goldenScenarios {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertions failed: %v", result.Errors)
		})
	}
}

func TestScenarios_AllPass(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertions failed: %v", result.Errors)
		})
	}
}

func TestRun_SeededIsReproducible(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "seeded_unique.yaml"))
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_DefaultAssetsCoverEveryValue(t *testing.T) {
	scenario := &Scenario{
		Name:        "default_assets",
		Description: "assets derived from the config",
		Config: `
name: Faces
symbol: FCE
description: d
attributes:
  background:
    red.png: 1
    blue.png: 1
guaranteedAttributeRolls:
  - [gold.png]
amount: 4
`,
		Draws: []float64{0.75},
		Assertions: []Assertion{
			{Type: AssertErrorCode},
			{Type: AssertFailedImages},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "assertions failed: %v", result.Errors)
	require.Len(t, result.Trace, 4)
	assert.Equal(t, []string{"background=gold.png"}, result.Trace[2].Traits)
	assert.Equal(t, "guaranteed", result.Trace[2].Source)
	assert.Equal(t, 4, result.Summary.Composited)
}

func TestRun_FailOn(t *testing.T) {
	scenario := &Scenario{
		Name:        "fail_on",
		Description: "stacker fails one image",
		Config:      `{"name": "A", "symbol": "A", "description": "d", "attributes": {"bg": {"red.png": 1}}, "amount": 3}`,
		Format:      "json",
		FailOn:      []string{"1.png"},
		Assertions: []Assertion{
			{Type: AssertFailedImages, Indices: []int{1}},
			{Type: AssertItemCount, Count: 3},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "assertions failed: %v", result.Errors)
	assert.ErrorIs(t, result.Err, errStackFailed)
	assert.Equal(t, "ERROR", result.ErrorCode)
}

func TestRun_SchemaError(t *testing.T) {
	scenario := &Scenario{
		Name:        "schema",
		Description: "amount below one",
		Config:      "name: A\nsymbol: A\ndescription: d\nattributes:\n  bg:\n    red.png: 1\namount: 0\n",
		Assertions:  []Assertion{{Type: AssertErrorCode, Code: "SCHEMA"}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "assertions failed: %v", result.Errors)
	assert.Nil(t, result.Summary)
	assert.Empty(t, result.Trace)
}

func TestRun_ReportsFailedAssertions(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_expectations",
		Description: "every assertion is false",
		Config:      `{"name": "A", "symbol": "A", "description": "d", "attributes": {"bg": {"red.png": 1}}, "amount": 2}`,
		Format:      "json",
		Assertions: []Assertion{
			{Type: AssertItemCount, Count: 5},
			{Type: AssertItemValue, Index: 0, Layer: "bg", Value: "blue.png"},
			{Type: AssertItemSource, Index: 9, Source: "sampled"},
			{Type: AssertAllUnique},
			{Type: AssertErrorCode, Code: "MISSING_ASSET"},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 5)
}

func TestRun_LeavesNoWorkDir(t *testing.T) {
	before, err := filepath.Glob(filepath.Join(os.TempDir(), "resin-scenario-*"))
	require.NoError(t, err)

	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "conditional_mouth.yaml"))
	require.NoError(t, err)
	_, err = Run(context.Background(), scenario)
	require.NoError(t, err)

	after, err := filepath.Glob(filepath.Join(os.TempDir(), "resin-scenario-*"))
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}
