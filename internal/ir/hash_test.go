package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalShape(t *testing.T) {
	set := AttributeSet{
		{Layer: "background", Value: "blue.png"},
		{Layer: "eyes", Value: "<3&.png"},
	}

	data, err := MarshalCanonical(set)
	require.NoError(t, err)
	assert.Equal(t, `[["background","blue.png"],["eyes","<3&.png"]]`, string(data))
}

func TestMarshalCanonicalEmptySet(t *testing.T) {
	data, err := MarshalCanonical(AttributeSet{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestMarshalCanonicalRejectsEmptyLayer(t *testing.T) {
	_, err := MarshalCanonical(AttributeSet{{Layer: "", Value: "x.png"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty layer name")
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "é" as a single code point vs "e" + combining acute accent
	composed := AttributeSet{{Layer: "hat", Value: "caf\u00e9.png"}}
	decomposed := AttributeSet{{Layer: "hat", Value: "cafe\u0301.png"}}

	a, err := MarshalCanonical(composed)
	require.NoError(t, err)
	b, err := MarshalCanonical(decomposed)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, MustFingerprint(composed), "")
	assert.Equal(t, MustFingerprint(composed), MustFingerprint(decomposed))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	// A real U+2028 is emitted literally.
	data, err := MarshalCanonical(AttributeSet{{Layer: "l", Value: "a\u2028b"}})
	require.NoError(t, err)
	assert.Equal(t, "[[\"l\",\"a\u2028b\"]]", string(data))

	// A literal backslash followed by "u2028" stays escaped.
	data, err = MarshalCanonical(AttributeSet{{Layer: "l", Value: `a\u2028b`}})
	require.NoError(t, err)
	assert.Equal(t, `[["l","a\\u2028b"]]`, string(data))
}

func TestFingerprintDeterminism(t *testing.T) {
	set := AttributeSet{{Layer: "bg", Value: "red.png"}, {Layer: "eyes", Value: "big.png"}}

	fp1, err := Fingerprint(set)
	require.NoError(t, err)
	fp2, err := Fingerprint(set.Clone())
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2, "Fingerprint must be deterministic")
	assert.Len(t, fp1, 64, "SHA-256 hex is 64 characters")
}

func TestFingerprintChangesWithInput(t *testing.T) {
	base := AttributeSet{{Layer: "bg", Value: "red.png"}, {Layer: "eyes", Value: "big.png"}}
	swapped := AttributeSet{{Layer: "eyes", Value: "big.png"}, {Layer: "bg", Value: "red.png"}}
	other := AttributeSet{{Layer: "bg", Value: "blue.png"}, {Layer: "eyes", Value: "big.png"}}

	assert.NotEqual(t, MustFingerprint(base), MustFingerprint(swapped), "order is part of identity")
	assert.NotEqual(t, MustFingerprint(base), MustFingerprint(other))
}

func TestFingerprintDomainSeparation(t *testing.T) {
	set := AttributeSet{}
	data, err := MarshalCanonical(set)
	require.NoError(t, err)

	assert.NotEqual(t, MustFingerprint(set), ConfigHash(data))
}
