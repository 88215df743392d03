package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UnmarshalJSON decodes the attributes object keeping key order.
func (l *Layers) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := expectDelim(dec, '{'); err != nil {
		return fmt.Errorf("attributes: %w", err)
	}

	var layers Layers
	seen := make(map[string]bool)
	err := readFields(dec, func(name string) error {
		if seen[name] {
			return fmt.Errorf("attributes: duplicate layer %q", name)
		}
		seen[name] = true

		if err := expectDelim(dec, '{'); err != nil {
			return fmt.Errorf("attributes.%s: %w", name, err)
		}
		entries, err := readEntries(dec, name)
		if err != nil {
			return err
		}
		layers = append(layers, Layer{Name: name, Entries: entries})
		return nil
	})
	if err != nil {
		return err
	}

	*l = layers
	return nil
}

func readEntries(dec *json.Decoder, layer string) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]bool)
	err := readFields(dec, func(key string) error {
		if seen[key] {
			return fmt.Errorf("attributes.%s: duplicate key %q", layer, key)
		}
		seen[key] = true

		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case json.Number:
			w, err := v.Float64()
			if err != nil {
				return fmt.Errorf("attributes.%s.%s: %w", layer, key, err)
			}
			entries = append(entries, Entry{Key: key, Weight: w})
			return nil
		case json.Delim:
			if v != '{' {
				break
			}
			table, err := readTable(dec, layer, key)
			if err != nil {
				return err
			}
			entries = append(entries, Entry{Key: key, Table: table})
			return nil
		}
		return fmt.Errorf("attributes.%s.%s: expected a number or an object, got %v", layer, key, tok)
	})
	return entries, err
}

func readTable(dec *json.Decoder, layer, key string) ([]Weighted, error) {
	table := []Weighted{}
	seen := make(map[string]bool)
	err := readFields(dec, func(name string) error {
		if seen[name] {
			return fmt.Errorf("attributes.%s.%s: duplicate value %q", layer, key, name)
		}
		seen[name] = true

		tok, err := dec.Token()
		if err != nil {
			return err
		}
		num, ok := tok.(json.Number)
		if !ok {
			return fmt.Errorf("attributes.%s.%s.%s: expected a number, got %v", layer, key, name, tok)
		}
		w, err := num.Float64()
		if err != nil {
			return fmt.Errorf("attributes.%s.%s.%s: %w", layer, key, name, err)
		}
		table = append(table, Weighted{Name: name, Weight: w})
		return nil
	})
	return table, err
}

// readFields calls fn for each key of an object whose opening brace was
// already consumed, then consumes the closing brace. fn must consume the
// key's value.
func readFields(dec *json.Decoder, fn func(key string) error) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// MarshalJSON encodes the attributes object in declaration order.
func (l Layers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, layer := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, layer.Name); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, e := range layer.Entries {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, e.Key); err != nil {
				return nil, err
			}
			if !e.Nested() {
				if err := writeJSON(&buf, e.Weight); err != nil {
					return nil, fmt.Errorf("attributes.%s.%s: %w", layer.Name, e.Key, err)
				}
				continue
			}
			buf.WriteByte('{')
			for k, w := range e.Table {
				if k > 0 {
					buf.WriteByte(',')
				}
				if err := writeKey(&buf, w.Name); err != nil {
					return nil, err
				}
				if err := writeJSON(&buf, w.Weight); err != nil {
					return nil, fmt.Errorf("attributes.%s.%s.%s: %w", layer.Name, e.Key, w.Name, err)
				}
			}
			buf.WriteByte('}')
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	if err := writeJSON(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// UnmarshalYAML decodes the attributes mapping keeping key order.
func (l *Layers) UnmarshalYAML(value *yaml.Node) error {
	value = deref(value)
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: attributes must be a mapping", value.Line)
	}

	var layers Layers
	seen := make(map[string]bool)
	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value
		body := deref(value.Content[i+1])
		if seen[name] {
			return fmt.Errorf("line %d: attributes: duplicate layer %q", value.Content[i].Line, name)
		}
		seen[name] = true

		if body.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: attributes.%s must be a mapping", body.Line, name)
		}

		entries, err := entriesFromNode(name, body)
		if err != nil {
			return err
		}
		layers = append(layers, Layer{Name: name, Entries: entries})
	}

	*l = layers
	return nil
}

func entriesFromNode(layer string, body *yaml.Node) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]bool)
	for i := 0; i+1 < len(body.Content); i += 2 {
		key := body.Content[i].Value
		val := deref(body.Content[i+1])
		if seen[key] {
			return nil, fmt.Errorf("line %d: attributes.%s: duplicate key %q", body.Content[i].Line, layer, key)
		}
		seen[key] = true

		switch val.Kind {
		case yaml.ScalarNode:
			var w float64
			if err := val.Decode(&w); err != nil {
				return nil, fmt.Errorf("line %d: attributes.%s.%s: expected a number", val.Line, layer, key)
			}
			entries = append(entries, Entry{Key: key, Weight: w})
		case yaml.MappingNode:
			table := []Weighted{}
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				wn := deref(val.Content[j+1])
				var w float64
				if wn.Kind != yaml.ScalarNode || wn.Decode(&w) != nil {
					return nil, fmt.Errorf("line %d: attributes.%s.%s.%s: expected a number", wn.Line, layer, key, name)
				}
				table = append(table, Weighted{Name: name, Weight: w})
			}
			entries = append(entries, Entry{Key: key, Table: table})
		default:
			return nil, fmt.Errorf("line %d: attributes.%s.%s: expected a number or a mapping", val.Line, layer, key)
		}
	}
	return entries, nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// MarshalYAML encodes the attributes mapping in declaration order.
func (l Layers) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, layer := range l {
		entries := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range layer.Entries {
			val := numberNode(e.Weight)
			if e.Nested() {
				val = &yaml.Node{Kind: yaml.MappingNode}
				for _, w := range e.Table {
					val.Content = append(val.Content, stringNode(w.Name), numberNode(w.Weight))
				}
			}
			entries.Content = append(entries.Content, stringNode(e.Key), val)
		}
		root.Content = append(root.Content, stringNode(layer.Name), entries)
	}
	return root, nil
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func numberNode(f float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(f, 'g', -1, 64)}
}
