package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/resin/internal/config"
	"github.com/roach88/resin/internal/rarity"
)

func parse(t *testing.T, data string) *config.Document {
	t.Helper()
	doc, err := config.Parse(config.FormatJSON, []byte(data))
	require.NoError(t, err)
	return doc
}

// codes returns the ConfigError codes in err, in order.
func codes(err error) []rarity.ConfigErrorCode {
	var out []rarity.ConfigErrorCode
	for _, e := range Flatten(err) {
		out = append(out, rarity.ConfigErrorCodeOf(e))
	}
	return out
}

const faceConfig = `{
	"name": "Faces",
	"symbol": "FCE",
	"description": "d",
	"attributes": {
		"_key": {"joker": 0.01, "plain": 0.99},
		"background": {"_": {"blue.png": 0.04, "red.png": 0.05}},
		"face": {
			"joker": {"gold-face.png": 0.11},
			"_": {"teal-face.png": 0.46}
		},
		"mouth": {
			"face:gold-face & _key:joker": {"triangle-mouth.png": 1},
			"block-mouth.png": 0.23,
			"smile-mouth.png": 0.09
		}
	},
	"guaranteedAttributeRolls": [["joker", "red.png", "gold-face.png", "triangle-mouth.png"]],
	"amount": 10,
	"requireUnique": true,
	"uniqueness": {"includeGuaranteed": true}
}`

func TestCompileModel(t *testing.T) {
	prog, err := Compile(parse(t, faceConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"_key", "background", "face", "mouth"}, prog.Model.LayerNames())
	assert.Equal(t, 3, prog.Model.PublicLayerCount())

	layers := prog.Model.Layers
	assert.Equal(t, rarity.AttributeFlat, layers[0].Attribute.Kind)
	assert.Equal(t, rarity.AttributeConditional, layers[1].Attribute.Kind)
	assert.Empty(t, layers[1].Attribute.Rules)
	require.NotNil(t, layers[1].Attribute.Fallback)

	mouth := layers[3].Attribute
	require.Len(t, mouth.Rules, 1)
	assert.Equal(t, rarity.ConditionAll, mouth.Rules[0].When.Kind)
	require.NotNil(t, mouth.Fallback, "plain weights form the fallback")
	assert.Equal(t, []string{"block-mouth.png", "smile-mouth.png"}, mouth.Fallback.Names)

	assert.Equal(t, rarity.Policy{
		RequireUnique:     true,
		MaxRetries:        rarity.DefaultMaxRetries,
		IncludeGuaranteed: true,
	}, prog.Policy)
	assert.Equal(t, 10, prog.Amount)

	sched, err := prog.Schedule()
	require.NoError(t, err)
	assert.Equal(t, []int{5}, sched.Slots())
}

func TestCompileLayerOrder(t *testing.T) {
	doc := parse(t, `{
		"attributes": {
			"eyes": {"e.png": 1},
			"face": {"f.png": 1},
			"background": {"b.png": 1}
		},
		"layerOrder": ["background", "face", "eyes"],
		"amount": 1
	}`)

	prog, err := Compile(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"background", "face", "eyes"}, prog.Model.LayerNames())
}

func TestCompileLayerOrderErrors(t *testing.T) {
	tests := []struct {
		name  string
		order string
		want  string
	}{
		{"undeclared", `["a", "b", "c"]`, `undeclared layer "c"`},
		{"duplicate", `["a", "a"]`, `more than once`},
		{"missing", `["b"]`, `omits declared layer "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, `{"attributes": {"a": {"x": 1}, "b": {"y": 1}}, "layerOrder": `+tt.order+`, "amount": 1}`)
			_, err := Compile(doc)
			require.Error(t, err)
			assert.Equal(t, []rarity.ConfigErrorCode{rarity.ErrCodeLayerOrder}, codes(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileSemanticErrors(t *testing.T) {
	tests := []struct {
		name      string
		attrs     string
		wantCode  rarity.ConfigErrorCode
		wantLayer string
	}{
		{
			name:      "forward reference",
			attrs:     `"a": {"b:x": {"1.png": 1}, "_": {"2.png": 1}}, "b": {"x": 1}`,
			wantCode:  rarity.ErrCodeForwardReference,
			wantLayer: "a",
		},
		{
			name:      "self reference",
			attrs:     `"a": {"a:x": {"1.png": 1}}`,
			wantCode:  rarity.ErrCodeForwardReference,
			wantLayer: "a",
		},
		{
			name:      "unknown layer",
			attrs:     `"a": {"x": 1}, "b": {"nope:x": {"1.png": 1}}`,
			wantCode:  rarity.ErrCodeUnknownLayer,
			wantLayer: "b",
		},
		{
			name:      "bare predicate without _key",
			attrs:     `"a": {"x": 1}, "b": {"joker": {"1.png": 1}}`,
			wantCode:  rarity.ErrCodeUnknownLayer,
			wantLayer: "b",
		},
		{
			name:      "mixed operators",
			attrs:     `"a": {"x": 1}, "b": {"a:x & a:y | a:z": {"1.png": 1}}`,
			wantCode:  rarity.ErrCodeBadCondition,
			wantLayer: "b",
		},
		{
			name:      "bad condition beside plain weights",
			attrs:     `"a": {"x": 1}, "b": {"a:x & a:y | a:z": {"1.png": 1}, "2.png": 1}`,
			wantCode:  rarity.ErrCodeBadCondition,
			wantLayer: "b",
		},
		{
			name:      "ambiguous fallback",
			attrs:     `"a": {"x": 1}, "b": {"a:x": {"1.png": 1}, "_": {"2.png": 1}, "3.png": 1}`,
			wantCode:  rarity.ErrCodeAmbiguousFallback,
			wantLayer: "b",
		},
		{
			name:      "empty nested table",
			attrs:     `"a": {"_": {}}`,
			wantCode:  rarity.ErrCodeEmptyTable,
			wantLayer: "a",
		},
		{
			name:      "empty layer",
			attrs:     `"a": {}`,
			wantCode:  rarity.ErrCodeEmptyTable,
			wantLayer: "a",
		},
		{
			name:      "zero sum",
			attrs:     `"a": {"x.png": 0, "y.png": 0}`,
			wantCode:  rarity.ErrCodeZeroSum,
			wantLayer: "a",
		},
		{
			name:      "negative weight in rule",
			attrs:     `"a": {"x": 1}, "b": {"a:x": {"1.png": -1}, "_": {"2.png": 1}}`,
			wantCode:  rarity.ErrCodeNegativeWeight,
			wantLayer: "b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(parse(t, `{"attributes": {`+tt.attrs+`}, "amount": 1}`))
			require.Error(t, err)

			errs := Flatten(err)
			require.Len(t, errs, 1, "got %v", err)
			assert.Equal(t, tt.wantCode, rarity.ConfigErrorCodeOf(errs[0]))

			var ce *rarity.ConfigError
			require.ErrorAs(t, errs[0], &ce)
			assert.Equal(t, tt.wantLayer, ce.Layer)
			assert.Equal(t, rarity.NoIndex, ce.Index)
		})
	}
}

func TestCompileReportsAllErrors(t *testing.T) {
	doc := parse(t, `{
		"attributes": {
			"a": {"x.png": 0},
			"b": {"c:x": {"1.png": 1}, "_": {"2.png": 1}},
			"c": {"y.png": -2}
		},
		"amount": 0
	}`)

	_, err := Compile(doc)
	require.Error(t, err)
	assert.Equal(t, []rarity.ConfigErrorCode{
		rarity.ErrCodeBadAmount,
		rarity.ErrCodeZeroSum,
		rarity.ErrCodeForwardReference,
		rarity.ErrCodeNegativeWeight,
	}, codes(err))
}

func TestCompileGuaranteedErrors(t *testing.T) {
	t.Run("length", func(t *testing.T) {
		doc := parse(t, `{"attributes": {"a": {"x": 1}, "b": {"y": 1}}, "guaranteedAttributeRolls": [["x"]], "amount": 4}`)
		_, err := Compile(doc)
		assert.Equal(t, []rarity.ConfigErrorCode{rarity.ErrCodeGuaranteedLength}, codes(err))
	})

	t.Run("overflow", func(t *testing.T) {
		doc := parse(t, `{"attributes": {"a": {"x": 1}}, "guaranteedAttributeRolls": [["x"], ["x"], ["x"]], "amount": 2}`)
		_, err := Compile(doc)
		assert.Equal(t, []rarity.ConfigErrorCode{rarity.ErrCodeGuaranteedOverflow}, codes(err))
	})
}

func TestCompileNoLayers(t *testing.T) {
	_, err := Compile(parse(t, `{"attributes": {}, "amount": 1}`))
	assert.Equal(t, []rarity.ConfigErrorCode{rarity.ErrCodeEmptyTable}, codes(err))
}

func TestCompileOnlyMetaLayers(t *testing.T) {
	_, err := Compile(parse(t, `{"attributes": {"_key": {"joker": 1}, "_mood": {"happy": 1}}, "amount": 1}`))
	assert.Equal(t, []rarity.ConfigErrorCode{rarity.ErrCodeNoPublicLayer}, codes(err))

	_, err = Compile(parse(t, `{"attributes": {"_key": {"joker": 1}, "face": {"joker": {"gold.png": 1}}}, "amount": 1}`))
	assert.NoError(t, err)
}

func TestCompilePolicyOverrides(t *testing.T) {
	prog, err := Compile(parse(t, `{
		"attributes": {"a": {"x": 1, "y": 1}},
		"amount": 2,
		"requireUnique": true,
		"maxRetries": 0,
		"uniqueness": {"includeMeta": true}
	}`))
	require.NoError(t, err)
	assert.Equal(t, rarity.Policy{RequireUnique: true, MaxRetries: 0, IncludeMeta: true}, prog.Policy)
}

func TestCompileCapacityWarning(t *testing.T) {
	prog, err := Compile(parse(t, `{
		"attributes": {"a": {"x": 1, "y": 1}, "b": {"z": 1}},
		"amount": 3,
		"requireUnique": true
	}`))
	require.NoError(t, err)
	require.Len(t, prog.Warnings, 1)
	assert.Contains(t, prog.Warnings[0].Message, "at most 2")

	prog, err = Compile(parse(t, `{"attributes": {"a": {"x": 1, "y": 1}}, "amount": 3}`))
	require.NoError(t, err)
	assert.Empty(t, prog.Warnings, "no warning without requireUnique")
}
