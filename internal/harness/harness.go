package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/resin/internal/compiler"
	"github.com/roach88/resin/internal/compositor"
	"github.com/roach88/resin/internal/config"
	"github.com/roach88/resin/internal/engine"
	"github.com/roach88/resin/internal/metadata"
	"github.com/roach88/resin/internal/rarity"
	"github.com/roach88/resin/internal/store"
	"github.com/roach88/resin/internal/testutil"
)

// errStackFailed is what the recording stacker returns for FailOn images.
var errStackFailed = errors.New("stack failed")

// Run executes a scenario and returns its result.
//
// Steps:
//  1. Lay out the asset tree in a temporary directory
//  2. Validate and compile the inline config
//  3. Run the batch against an in-memory ledger and a recording stacker
//  4. Build the trace from the ledger and the kept side channel
//  5. Evaluate assertions
//
// Compile and batch errors end up in Result.ErrorCode; a Go error is
// returned only when the scenario itself could not be set up.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	work, err := os.MkdirTemp("", "resin-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	result := NewResult()

	src := &config.Source{
		Path:   scenario.Name + "." + scenario.configFormat().String(),
		Format: scenario.configFormat(),
		Data:   []byte(scenario.Config),
	}
	prog, err := compiler.CompileSource(src)
	if err != nil {
		result.Err = err
		result.ErrorCode = errorCode(err)
		evaluate(scenario, result)
		return result, nil
	}

	assets := filepath.Join(work, "assets")
	if err := writeAssets(assets, scenario.assetTree(prog)); err != nil {
		return nil, err
	}
	output := filepath.Join(work, "output")

	ledger, err := store.Open(":memory:", store.WithIDGenerator(store.NewFixedGenerator("run-1")))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer ledger.Close()

	stacker := testutil.NewRecordingStacker()
	for _, name := range scenario.FailOn {
		stacker.FailOn(name, errStackFailed)
	}

	batch := engine.NewBatch(prog, engine.Options{
		Assets:      assets,
		Output:      output,
		KeepSidecar: true,
		Workers:     2,
	}, stacker,
		engine.WithSource(scenario.source()),
		engine.WithRecorder(ledger),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	summary, err := batch.Run(ctx)
	result.Summary = summary
	if err != nil {
		result.Err = err
		result.ErrorCode = errorCode(err)
	}

	trace, err := buildTrace(ctx, ledger, summary.RunID, output)
	if err != nil {
		return nil, err
	}
	result.Trace = trace

	evaluate(scenario, result)
	return result, nil
}

// source returns the draw source the scenario asks for.
func (s *Scenario) source() rarity.Source {
	if s.Seed != nil {
		return rarity.NewSeededSource(*s.Seed)
	}
	return testutil.NewSequenceSource(s.Draws...)
}

// assetTree returns the declared assets, or one file per value the
// compiled model can produce.
func (s *Scenario) assetTree(prog *compiler.Program) map[string][]string {
	if len(s.Assets) > 0 {
		return s.Assets
	}
	tree := make(map[string][]string, len(prog.Model.Layers))
	for _, layer := range prog.Model.Layers {
		tree[layer.Name] = layer.Attribute.Values()
	}
	for _, roll := range prog.Guaranteed {
		for i, value := range roll {
			name := prog.Model.Layers[i].Name
			tree[name] = append(tree[name], value)
		}
	}
	return tree
}

// writeAssets creates one file per (layer, name) holding "<layer>/<name>".
func writeAssets(root string, tree map[string][]string) error {
	for layer, names := range tree {
		dir := filepath.Join(root, layer)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create layer dir: %w", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(layer+"/"+name), 0o644); err != nil {
				return fmt.Errorf("failed to write asset: %w", err)
			}
		}
	}
	return nil
}

// buildTrace joins the ledger rows with the traits in the side channel.
func buildTrace(ctx context.Context, ledger *store.Ledger, runID, output string) ([]TraceEvent, error) {
	items, err := ledger.ListItems(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	trace := make([]TraceEvent, 0, len(items))
	for _, item := range items {
		ev := TraceEvent{
			Index:   item.Index,
			Source:  item.Source,
			Retries: item.Retries,
			Traits:  []string{},
			Image:   item.ImageStatus,
		}
		path, _, err := metadata.Locate(output, item.Index)
		if err == nil {
			set, err := metadata.ReadAttributeSet(path)
			if err != nil {
				return nil, err
			}
			for _, t := range set {
				ev.Traits = append(ev.Traits, t.Layer+"="+t.Value)
			}
		}
		trace = append(trace, ev)
	}
	sort.Slice(trace, func(i, j int) bool { return trace[i].Index < trace[j].Index })
	return trace, nil
}

// errorCode classifies err the way the generate command reports it.
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case compiler.IsSchemaError(err):
		return "SCHEMA"
	case rarity.IsConfigError(err):
		return string(rarity.ConfigErrorCodeOf(err))
	case engine.IsOutputError(err):
		return "OUTPUT"
	case errors.Is(err, context.Canceled):
		return "CANCELLED"
	case rarity.IsUniquenessExhausted(err):
		return "UNIQUENESS_EXHAUSTED"
	case len(engine.ItemErrors(err)) > 1:
		return "ITEMS_FAILED"
	case compositor.IsMissingAsset(err):
		return "MISSING_ASSET"
	case compositor.IsExternalTool(err):
		return "EXTERNAL_TOOL"
	default:
		return "ERROR"
	}
}
