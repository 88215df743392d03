package compiler

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/resin/internal/config"
)

//go:embed schema.cue
var schemaSource string

// SchemaError represents a structural violation with source position.
type SchemaError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	field := e.Field
	if field == "" {
		field = "config"
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			field, e.Message)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// IsSchemaError returns true if the error is a SchemaError.
// Uses errors.As to handle wrapped errors.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// ValidateSchema checks src against the #Config definition.
// Every violation is returned, joined, as a *SchemaError.
func ValidateSchema(src *config.Source) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	var data cue.Value
	switch src.Format {
	case config.FormatYAML:
		f, err := cueyaml.Extract(src.Path, src.Data)
		if err != nil {
			return formatCUEError(err, src.Path)
		}
		data = ctx.BuildFile(f)
	default:
		expr, err := cuejson.Extract(src.Path, src.Data)
		if err != nil {
			return formatCUEError(err, src.Path)
		}
		data = ctx.BuildExpr(expr)
	}
	if err := data.Err(); err != nil {
		return formatCUEError(err, src.Path)
	}

	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err, src.Path)
	}
	return nil
}

// formatCUEError converts CUE errors into SchemaErrors, preferring
// positions inside the document over positions inside the schema.
func formatCUEError(err error, filename string) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}

	var out []error
	seen := make(map[string]bool)
	for _, e := range errs {
		format, args := e.Msg()
		se := &SchemaError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		}
		for _, pos := range cueerrors.Positions(e) {
			if !se.Pos.IsValid() || pos.Filename() == filename {
				se.Pos = pos
			}
			if pos.Filename() == filename {
				break
			}
		}
		// Disjunctions report one error per branch at the same spot.
		if key := se.Error(); !seen[key] {
			seen[key] = true
			out = append(out, se)
		}
	}
	return errors.Join(out...)
}
