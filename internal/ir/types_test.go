package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"blue.png", "blue"},
		{"star-eyes.png", "star-eyes"},
		{"a.b.png", "a.b"},
		{"joker", "joker"},
		{".png", ".png"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayValue(tt.in))
		})
	}
}

func TestIsMetaLayer(t *testing.T) {
	assert.True(t, IsMetaLayer("_key"))
	assert.True(t, IsMetaLayer("_"))
	assert.False(t, IsMetaLayer("background"))
	assert.False(t, IsMetaLayer("eyes_"))
}

func TestAttributeSetPublicPreservesOrder(t *testing.T) {
	set := AttributeSet{
		{Layer: "_key", Value: "joker"},
		{Layer: "background", Value: "blue.png"},
		{Layer: "_mood", Value: "calm"},
		{Layer: "face", Value: "gold-face.png"},
	}

	public := set.Public()

	assert.Equal(t, AttributeSet{
		{Layer: "background", Value: "blue.png"},
		{Layer: "face", Value: "gold-face.png"},
	}, public)
	assert.Len(t, set, 4, "Public must not mutate the receiver")
}

func TestAttributeSetDisplay(t *testing.T) {
	set := AttributeSet{{Layer: "bg", Value: "red.png"}, {Layer: "eyes", Value: "big"}}

	assert.Equal(t, AttributeSet{{Layer: "bg", Value: "red"}, {Layer: "eyes", Value: "big"}}, set.Display())
	assert.Equal(t, "red.png", set[0].Value)
}

func TestAttributeSetEqualIsOrderSensitive(t *testing.T) {
	a := AttributeSet{{Layer: "bg", Value: "red.png"}, {Layer: "eyes", Value: "big.png"}}
	b := AttributeSet{{Layer: "eyes", Value: "big.png"}, {Layer: "bg", Value: "red.png"}}

	assert.True(t, a.Equal(a.Clone()))
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(a[:1]))
}

func TestAttributeSetLookup(t *testing.T) {
	set := AttributeSet{{Layer: "bg", Value: "red.png"}}

	v, ok := set.Lookup("bg")
	assert.True(t, ok)
	assert.Equal(t, "red.png", v)

	_, ok = set.Lookup("eyes")
	assert.False(t, ok)
}
