package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/resin/internal/config"
)

// Scenario defines one generation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Config is the inline config document.
	Config string `yaml:"config"`

	// Format is "yaml" (default) or "json".
	Format string `yaml:"format,omitempty"`

	// Assets maps layer names to the files to create. When empty, every
	// value named anywhere in the config gets a file.
	Assets map[string][]string `yaml:"assets,omitempty"`

	// Draws is the scripted random sequence, replayed cyclically.
	Draws []float64 `yaml:"draws,omitempty"`

	// Seed selects a seeded source instead of scripted draws.
	Seed *uint64 `yaml:"seed,omitempty"`

	// FailOn lists image names ("3.png") the stacker fails on.
	FailOn []string `yaml:"fail_on,omitempty"`

	// Assertions validate the result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the trace or the batch outcome.
type Assertion struct {
	// Type specifies the assertion type:
	// - "item_count": exactly Count items were recorded
	// - "item_value": item Index resolved Layer to Value
	// - "item_source": item Index came from Source
	// - "all_unique": no two items share their public traits
	// - "error_code": the batch failed with Code ("" asserts success)
	// - "failed_images": exactly Indices failed to composite
	Type string `yaml:"type"`

	Index   int    `yaml:"index,omitempty"`
	Layer   string `yaml:"layer,omitempty"`
	Value   string `yaml:"value,omitempty"`
	Source  string `yaml:"source,omitempty"`
	Count   int    `yaml:"count,omitempty"`
	Code    string `yaml:"code,omitempty"`
	Indices []int  `yaml:"indices,omitempty"`
}

// Assertion type constants.
const (
	AssertItemCount    = "item_count"
	AssertItemValue    = "item_value"
	AssertItemSource   = "item_source"
	AssertAllUnique    = "all_unique"
	AssertErrorCode    = "error_code"
	AssertFailedImages = "failed_images"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// configFormat returns the format of the inline config.
func (s *Scenario) configFormat() config.Format {
	if s.Format == "json" {
		return config.FormatJSON
	}
	return config.FormatYAML
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Config == "" {
		return fmt.Errorf("config is required")
	}

	switch s.Format {
	case "", "yaml", "json":
	default:
		return fmt.Errorf("format must be yaml or json, got %q", s.Format)
	}

	if len(s.Draws) > 0 && s.Seed != nil {
		return fmt.Errorf("draws and seed are mutually exclusive")
	}
	for i, d := range s.Draws {
		if d < 0 || d >= 1 {
			return fmt.Errorf("draws[%d]: %v is outside [0, 1)", i, d)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertItemCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for item_count", index)
		}
	case AssertItemValue:
		if a.Layer == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: layer and value are required for item_value", index)
		}
	case AssertItemSource:
		if a.Source == "" {
			return fmt.Errorf("assertions[%d]: source is required for item_source", index)
		}
	case AssertAllUnique, AssertErrorCode, AssertFailedImages:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
