package cli

import (
	"context"
	"errors"

	"github.com/roach88/resin/internal/compiler"
	"github.com/roach88/resin/internal/compositor"
	"github.com/roach88/resin/internal/engine"
	"github.com/roach88/resin/internal/rarity"
)

// Error codes for failures that carry no code of their own.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeSchema      = "SCHEMA"
	ErrCodeExhausted   = "UNIQUENESS_EXHAUSTED"
	ErrCodeMissing     = "MISSING_ASSET"
	ErrCodeTool        = "EXTERNAL_TOOL"
	ErrCodeOutput      = "OUTPUT"
	ErrCodeCancelled   = "CANCELLED"
	ErrCodeItemsFailed = "ITEMS_FAILED"
)

// classify maps a domain error to a response code and exit code.
// Config problems are command errors; anything that went wrong while
// producing items is a failure.
func classify(err error) (code string, exit int) {
	switch {
	case compiler.IsSchemaError(err):
		return ErrCodeSchema, ExitCommandError
	case rarity.IsConfigError(err):
		return string(rarity.ConfigErrorCodeOf(err)), ExitCommandError
	case engine.IsOutputError(err):
		return ErrCodeOutput, ExitCommandError
	case errors.Is(err, context.Canceled):
		return ErrCodeCancelled, ExitFailure
	case rarity.IsUniquenessExhausted(err):
		return ErrCodeExhausted, ExitFailure
	case len(engine.ItemErrors(err)) > 1:
		return ErrCodeItemsFailed, ExitFailure
	case compositor.IsMissingAsset(err):
		return ErrCodeMissing, ExitFailure
	case compositor.IsExternalTool(err):
		return ErrCodeTool, ExitFailure
	default:
		return ErrCodeGeneric, ExitFailure
	}
}
