package rarity

import (
	"github.com/roach88/resin/internal/ir"
)

// Resolver produces one attribute set per call by walking the model's layers
// in order. It holds no per-batch state; all randomness comes from src.
type Resolver struct {
	model *Model
	src   Source
}

// NewResolver creates a resolver. A nil src uses DefaultSource.
func NewResolver(model *Model, src Source) *Resolver {
	if src == nil {
		src = DefaultSource{}
	}
	return &Resolver{model: model, src: src}
}

// Model returns the model the resolver samples from.
func (r *Resolver) Model() *Model {
	return r.model
}

// Resolve rolls one complete attribute set for item index.
//
// Each layer sees only the traits resolved before it. Meta layers are
// resolved like any other layer and remain in the returned set; callers use
// AttributeSet.Public for the public view.
//
// Returns a *ConfigError carrying the index and layer when a conditional
// layer has no applicable table or the selected table cannot be sampled.
func (r *Resolver) Resolve(index int) (ir.AttributeSet, error) {
	resolved := make(ir.AttributeSet, 0, len(r.model.Layers))

	for _, layer := range r.model.Layers {
		table, err := layer.Attribute.Select(resolved)
		if err != nil {
			return nil, atItem(err, index, layer.Name)
		}

		value, err := table.Sample(r.src)
		if err != nil {
			return nil, atItem(err, index, layer.Name)
		}

		resolved = append(resolved, ir.Trait{Layer: layer.Name, Value: value})
	}

	return resolved, nil
}
