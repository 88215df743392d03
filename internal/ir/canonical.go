package ir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for an attribute set.
// CRITICAL: This is the ONLY serialization that should be used for
// fingerprinting. Metadata files use ordinary indented JSON.
//
// The encoding is an array of [layer, value] pairs in set order:
//
//	[["background","blue.png"],["eyes","star-eyes.png"]]
//
// Key differences from json.Marshal:
//  1. Strings are NFC normalized, so visually identical names collide
//  2. No HTML escaping (< > & are NOT escaped)
//  3. U+2028 and U+2029 are emitted literally
func MarshalCanonical(set AttributeSet) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, t := range set {
		if i > 0 {
			buf.WriteByte(',')
		}
		if t.Layer == "" {
			return nil, fmt.Errorf("trait[%d]: empty layer name", i)
		}

		layer, err := marshalCanonicalString(t.Layer)
		if err != nil {
			return nil, fmt.Errorf("trait[%d] layer: %w", i, err)
		}
		value, err := marshalCanonicalString(t.Value)
		if err != nil {
			return nil, fmt.Errorf("trait[%d] value: %w", i, err)
		}

		buf.WriteByte('[')
		buf.Write(layer)
		buf.WriteByte(',')
		buf.Write(value)
		buf.WriteByte(']')
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalCanonicalString produces a canonical JSON string with NFC normalization.
// Only control characters, backslash, and quote are escaped.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline, remove it
	result := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters. An escape preceded by an odd
// number of backslashes is literal text (\\u2028) and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) &&
			data[i+1] == 'u' && data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			backslashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}
