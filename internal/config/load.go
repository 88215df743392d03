package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a configuration file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFor picks the format from the file extension. Anything other than
// .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Source is the raw bytes of a configuration file.
type Source struct {
	Path   string
	Format Format
	Data   []byte
}

// ReadSource reads the file at path without decoding it.
func ReadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return &Source{Path: path, Format: FormatFor(path), Data: data}, nil
}

// Decode parses the source into a Document.
func (s *Source) Decode() (*Document, error) {
	doc, err := Parse(s.Format, s.Data)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", s.Path, err)
	}
	return doc, nil
}

// Load reads and decodes the configuration at path.
func Load(path string) (*Document, *Source, error) {
	src, err := ReadSource(path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := src.Decode()
	if err != nil {
		return nil, nil, err
	}
	return doc, src, nil
}

// Parse decodes data in the given format.
func Parse(format Format, data []byte) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, err
		}
		if len(root.Content) == 0 {
			return nil, errors.New("empty document")
		}
		if err := root.Content[0].Decode(&doc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			var syn *json.SyntaxError
			if errors.As(err, &syn) {
				return nil, fmt.Errorf("line %d: %w", lineAt(data, syn.Offset), err)
			}
			return nil, err
		}
	}
	return &doc, nil
}

// Marshal encodes doc in the given format, keeping layer order.
func Marshal(format Format, doc *Document) ([]byte, error) {
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write encodes doc to path in the format implied by its extension.
func Write(path string, doc *Document) error {
	data, err := Marshal(FormatFor(path), doc)
	if err != nil {
		return fmt.Errorf("encode config %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// lineAt returns the 1-based line containing byte offset.
func lineAt(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}
