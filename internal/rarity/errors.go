package rarity

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeEmptyTable indicates a rarity table with no entries.
	ErrCodeEmptyTable ConfigErrorCode = "EMPTY_TABLE"

	// ErrCodeNegativeWeight indicates a negative, NaN, or infinite weight.
	ErrCodeNegativeWeight ConfigErrorCode = "NEGATIVE_WEIGHT"

	// ErrCodeZeroSum indicates every weight in a table is zero.
	ErrCodeZeroSum ConfigErrorCode = "ZERO_SUM"

	// ErrCodeNoMatch indicates no condition matched and no fallback exists.
	ErrCodeNoMatch ConfigErrorCode = "NO_MATCH"

	// ErrCodeBadCondition indicates a condition key that cannot be parsed.
	ErrCodeBadCondition ConfigErrorCode = "BAD_CONDITION"

	// ErrCodeUnknownLayer indicates a reference to a layer that is not declared.
	ErrCodeUnknownLayer ConfigErrorCode = "UNKNOWN_LAYER"

	// ErrCodeForwardReference indicates a condition on a layer declared later.
	ErrCodeForwardReference ConfigErrorCode = "FORWARD_REFERENCE"

	// ErrCodeAmbiguousFallback indicates both flat entries and a "_" table.
	ErrCodeAmbiguousFallback ConfigErrorCode = "AMBIGUOUS_FALLBACK"

	// ErrCodeGuaranteedLength indicates a guaranteed roll of the wrong length.
	ErrCodeGuaranteedLength ConfigErrorCode = "GUARANTEED_LENGTH"

	// ErrCodeGuaranteedOverflow indicates more guaranteed rolls than slots.
	ErrCodeGuaranteedOverflow ConfigErrorCode = "GUARANTEED_OVERFLOW"

	// ErrCodeBadAmount indicates a batch amount below one.
	ErrCodeBadAmount ConfigErrorCode = "BAD_AMOUNT"

	// ErrCodeNoPublicLayer indicates a config whose layers are all meta
	// layers, so no item has anything to composite.
	ErrCodeNoPublicLayer ConfigErrorCode = "NO_PUBLIC_LAYER"

	// ErrCodeLayerOrder indicates a layerOrder that is not a permutation of
	// the declared layers.
	ErrCodeLayerOrder ConfigErrorCode = "LAYER_ORDER"
)

// NoIndex marks a ConfigError raised before any item was being resolved.
const NoIndex = -1

// ConfigError represents a malformed rarity declaration.
//
// Errors detected while compiling the configuration carry Index == NoIndex
// and abort the batch before any work is scheduled. Errors detected while
// resolving carry the item index.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Layer is the layer being declared or resolved.
	Layer string

	// Key is the condition key or value name involved, if any.
	Key string

	// Index is the item index, or NoIndex.
	Index int

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var ctx []string
	if e.Index != NoIndex {
		ctx = append(ctx, fmt.Sprintf("item=%d", e.Index))
	}
	if e.Layer != "" {
		ctx = append(ctx, fmt.Sprintf("layer=%s", e.Layer))
	}
	if e.Key != "" {
		ctx = append(ctx, fmt.Sprintf("key=%q", e.Key))
	}
	if len(ctx) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(ctx, ", "))
}

// NewConfigError creates a ConfigError with no item index.
func NewConfigError(code ConfigErrorCode, layer, key, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:    code,
		Layer:   layer,
		Key:     key,
		Index:   NoIndex,
		Message: fmt.Sprintf(format, args...),
	}
}

// atItem returns err with the item index and layer filled in when err is a
// ConfigError that lacks them. Other errors are returned unchanged.
func atItem(err error, index int, layer string) error {
	var ce *ConfigError
	if !errors.As(err, &ce) {
		return err
	}
	out := *ce
	if out.Index == NoIndex {
		out.Index = index
	}
	if out.Layer == "" {
		out.Layer = layer
	}
	return &out
}

// IsConfigError returns true if the error is a ConfigError.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ConfigErrorCodeOf returns the code of a wrapped ConfigError, or "".
func ConfigErrorCodeOf(err error) ConfigErrorCode {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// UniquenessExhaustedError is returned when the Guard cannot find a new
// combination within the retry budget. It means the configuration does not
// have enough combinatorial space for the requested amount.
type UniquenessExhaustedError struct {
	Index      int // The item being resolved
	Retries    int // Re-rolls attempted
	MaxRetries int // Configured limit
	Generated  int // Distinct sets already in the pool
}

// Error implements the error interface.
func (e *UniquenessExhaustedError) Error() string {
	return fmt.Sprintf("item %d: exceeded retry count to ensure uniqueness (%d retries > %d limit, %d distinct sets generated); the configuration may need more attributes",
		e.Index, e.Retries, e.MaxRetries, e.Generated)
}

// IsUniquenessExhausted returns true if the error is a UniquenessExhaustedError.
// Uses errors.As to handle wrapped errors.
func IsUniquenessExhausted(err error) bool {
	var ue *UniquenessExhaustedError
	return errors.As(err, &ue)
}
