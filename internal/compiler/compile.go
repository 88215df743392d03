package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/resin/internal/config"
	"github.com/roach88/resin/internal/ir"
	"github.com/roach88/resin/internal/rarity"
)

// Program is a compiled configuration, ready to drive a batch.
type Program struct {
	// Doc is the decoded document the program was compiled from.
	Doc *config.Document

	// Model holds the layers in resolution order.
	Model *rarity.Model

	// Policy is the uniqueness policy.
	Policy rarity.Policy

	// Amount is the number of items in the batch.
	Amount int

	// Guaranteed holds the guaranteed rolls, validated against Model.
	Guaranteed [][]string

	// ConfigHash identifies the source bytes. Empty when compiled from a
	// document without a source.
	ConfigHash string

	// Warnings are non-fatal findings.
	Warnings []Warning
}

// Warning is a non-fatal compile finding.
type Warning struct {
	Message string `json:"message"`
	Level   string `json:"level"` // "warning" or "info"
}

// Schedule returns a fresh guaranteed-roll schedule for one batch run.
func (p *Program) Schedule() (*rarity.GuaranteedSchedule, error) {
	return rarity.NewGuaranteedSchedule(p.Amount, p.Model.LayerNames(), p.Guaranteed)
}

// Load reads, validates, and compiles the configuration at path.
func Load(path string) (*Program, error) {
	src, err := config.ReadSource(path)
	if err != nil {
		return nil, err
	}
	return CompileSource(src)
}

// CompileSource validates src against the schema, decodes it, and
// compiles it. Schema errors stop compilation.
func CompileSource(src *config.Source) (*Program, error) {
	if err := ValidateSchema(src); err != nil {
		return nil, err
	}
	doc, err := src.Decode()
	if err != nil {
		return nil, err
	}
	prog, err := Compile(doc)
	if err != nil {
		return nil, err
	}
	prog.ConfigHash = ir.ConfigHash(src.Data)
	return prog, nil
}

// Compile performs the semantic checks and builds the model.
// All problems are reported, joined, as *rarity.ConfigError values.
func Compile(doc *config.Document) (*Program, error) {
	var errs []error

	if doc.Amount < 1 {
		errs = append(errs, rarity.NewConfigError(rarity.ErrCodeBadAmount, "", "amount",
			"amount must be at least 1, got %d", doc.Amount))
	}
	if len(doc.Attributes) == 0 {
		errs = append(errs, rarity.NewConfigError(rarity.ErrCodeEmptyTable, "", "attributes",
			"no layers are declared"))
		return nil, errors.Join(errs...)
	}

	order, err := resolveOrder(doc)
	if err != nil {
		errs = append(errs, err)
		return nil, errors.Join(errs...)
	}

	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}

	model := &rarity.Model{Layers: make([]rarity.Layer, 0, len(order))}
	for i, name := range order {
		layer, _ := doc.Attributes.Lookup(name)
		attr, layerErrs := compileLayer(layer, i, position)
		errs = append(errs, layerErrs...)
		model.Layers = append(model.Layers, rarity.Layer{Name: name, Attribute: attr})
	}
	if model.PublicLayerCount() == 0 {
		errs = append(errs, rarity.NewConfigError(rarity.ErrCodeNoPublicLayer, "", "attributes",
			"every layer is a meta layer (prefix %q); at least one layer must be composited", ir.MetaPrefix))
	}

	if _, err := rarity.NewGuaranteedSchedule(doc.Amount, order, doc.GuaranteedAttributeRolls); err != nil && doc.Amount >= 1 {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	prog := &Program{
		Doc:        doc,
		Model:      model,
		Policy:     policyFor(doc),
		Amount:     doc.Amount,
		Guaranteed: doc.GuaranteedAttributeRolls,
	}
	prog.Warnings = capacityWarnings(prog)
	return prog, nil
}

// resolveOrder returns layerOrder when present, after checking that it is a
// permutation of the declared layers, or declaration order otherwise.
func resolveOrder(doc *config.Document) ([]string, error) {
	declared := doc.Attributes.Names()
	if len(doc.LayerOrder) == 0 {
		return declared, nil
	}

	listed := make(map[string]bool, len(doc.LayerOrder))
	for _, name := range doc.LayerOrder {
		if _, ok := doc.Attributes.Lookup(name); !ok {
			return nil, rarity.NewConfigError(rarity.ErrCodeLayerOrder, name, "layerOrder",
				"layerOrder names undeclared layer %q", name)
		}
		if listed[name] {
			return nil, rarity.NewConfigError(rarity.ErrCodeLayerOrder, name, "layerOrder",
				"layerOrder lists %q more than once", name)
		}
		listed[name] = true
	}
	for _, name := range declared {
		if !listed[name] {
			return nil, rarity.NewConfigError(rarity.ErrCodeLayerOrder, name, "layerOrder",
				"layerOrder omits declared layer %q", name)
		}
	}
	return doc.LayerOrder, nil
}

// compileLayer builds the attribute for the layer at position index.
func compileLayer(layer config.Layer, index int, position map[string]int) (rarity.Attribute, []error) {
	var errs []error
	fail := func(err error) {
		var ce *rarity.ConfigError
		if errors.As(err, &ce) && ce.Layer == "" {
			copied := *ce
			copied.Layer = layer.Name
			err = &copied
		}
		errs = append(errs, err)
	}

	if len(layer.Entries) == 0 {
		fail(rarity.NewConfigError(rarity.ErrCodeEmptyTable, layer.Name, "", "layer declares no values"))
		return rarity.Attribute{}, errs
	}

	var flat []rarity.Entry
	var explicit *rarity.Table
	var rules []rarity.Rule
	nested := false
	for _, e := range layer.Entries {
		if !e.Nested() {
			flat = append(flat, rarity.Entry{Name: e.Key, Weight: e.Weight})
			continue
		}
		nested = true

		table := tableOf(e.Table)
		if err := table.Validate(); err != nil {
			fail(withKey(err, e.Key))
		}

		cond, err := rarity.ParseCondition(e.Key)
		if err != nil {
			fail(err)
			continue
		}
		if cond.Kind == rarity.ConditionFallback {
			explicit = &table
			continue
		}
		for _, ref := range cond.Layers() {
			if err := checkReference(ref, e.Key, index, position); err != nil {
				fail(err)
			}
		}
		rules = append(rules, rarity.Rule{When: cond, Table: table})
	}

	if !nested {
		table := rarity.NewTable(flat...)
		if err := table.Validate(); err != nil {
			fail(err)
		}
		return rarity.Flat(table), errs
	}

	fallback := explicit
	if len(flat) > 0 {
		if explicit != nil {
			fail(rarity.NewConfigError(rarity.ErrCodeAmbiguousFallback, layer.Name, rarity.FallbackKey,
				"layer has both plain weights and a %q table", rarity.FallbackKey))
		}
		table := rarity.NewTable(flat...)
		if err := table.Validate(); err != nil {
			fail(err)
		}
		fallback = &table
	}
	return rarity.Conditional(rules, fallback), errs
}

// checkReference verifies that a condition only looks at earlier layers.
func checkReference(ref, key string, index int, position map[string]int) error {
	at, ok := position[ref]
	if !ok {
		msg := fmt.Sprintf("condition references undeclared layer %q", ref)
		if ref == rarity.DefaultConditionLayer {
			msg += " (bare predicates refer to this layer)"
		}
		return rarity.NewConfigError(rarity.ErrCodeUnknownLayer, "", key, "%s", msg)
	}
	if at >= index {
		return rarity.NewConfigError(rarity.ErrCodeForwardReference, "", key,
			"condition references layer %q, which is not resolved before this one", ref)
	}
	return nil
}

func tableOf(weights []config.Weighted) rarity.Table {
	entries := make([]rarity.Entry, len(weights))
	for i, w := range weights {
		entries[i] = rarity.Entry{Name: w.Name, Weight: w.Weight}
	}
	return rarity.NewTable(entries...)
}

// withKey fills in the condition key on table errors that name no value.
func withKey(err error, key string) error {
	var ce *rarity.ConfigError
	if !errors.As(err, &ce) || ce.Key != "" {
		return err
	}
	copied := *ce
	copied.Key = key
	return &copied
}

func policyFor(doc *config.Document) rarity.Policy {
	policy := rarity.DefaultPolicy()
	policy.RequireUnique = doc.RequireUnique
	if doc.MaxRetries != nil {
		policy.MaxRetries = *doc.MaxRetries
	}
	if doc.Uniqueness != nil {
		policy.IncludeMeta = doc.Uniqueness.IncludeMeta
		policy.IncludeGuaranteed = doc.Uniqueness.IncludeGuaranteed
	}
	return policy
}

// capacityWarnings flags batches that cannot be unique. The combination
// count ignores conditions, so it is an upper bound and a shortfall means
// exhaustion is certain.
func capacityWarnings(p *Program) []Warning {
	if !p.Policy.RequireUnique || p.Policy.IncludeMeta {
		return nil
	}
	combos := p.Model.Combinations()
	if combos < 0 {
		return nil
	}
	sampled := int64(p.Amount - len(p.Guaranteed))
	if p.Policy.IncludeGuaranteed {
		sampled = int64(p.Amount)
	}
	if sampled > combos {
		return []Warning{{
			Level: "warning",
			Message: fmt.Sprintf("requireUnique asks for %d distinct sets but the layers allow at most %d",
				sampled, combos),
		}}
	}
	return nil
}

// Flatten returns the individual errors of a joined compile error.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	return []error{err}
}
