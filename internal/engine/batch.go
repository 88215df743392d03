package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/resin/internal/compiler"
	"github.com/roach88/resin/internal/compositor"
	"github.com/roach88/resin/internal/ir"
	"github.com/roach88/resin/internal/metadata"
	"github.com/roach88/resin/internal/rarity"
)

// DefaultWorkers bounds concurrent compositing when nothing is configured.
const DefaultWorkers = 32

// Options configures a batch.
type Options struct {
	// Assets is the asset root, laid out as <layer>/<value>.
	Assets string

	// Output receives records and images. It is emptied before the
	// metadata phase unless SkipMetadata is set.
	Output string

	// SkipMetadata composites from records already in Output.
	SkipMetadata bool

	// KeepSidecar keeps the side-channel records after a successful run.
	// Runs with SkipMetadata never remove them.
	KeepSidecar bool

	// Workers bounds concurrent compositing. Zero means DefaultWorkers.
	Workers int

	// ProgressInterval is the reporter period. Zero means
	// DefaultProgressInterval.
	ProgressInterval time.Duration
}

// Option configures optional batch collaborators.
type Option func(*Batch)

// WithSource sets the random source. Use a seeded source for
// reproducible batches.
func WithSource(src rarity.Source) Option {
	return func(b *Batch) {
		b.src = src
	}
}

// WithRecorder sets where run history is persisted.
func WithRecorder(r Recorder) Option {
	return func(b *Batch) {
		b.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Batch) {
		b.logger = logger
	}
}

// Summary reports what a batch did.
type Summary struct {
	RunID      string        `json:"run_id,omitempty"`
	Items      int           `json:"items"`
	Guaranteed int           `json:"guaranteed"`
	Retries    int           `json:"retries"`
	Composited int           `json:"composited"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration_ns"`
}

// Batch drives one generation run.
//
// Thread-safety: a Batch runs once. GenerateMetadata must not run
// concurrently with itself; CompositeAll manages its own workers.
type Batch struct {
	prog       *compiler.Program
	opts       Options
	src        rarity.Source
	emitter    *metadata.Emitter
	compositor *compositor.Compositor
	recorder   Recorder
	logger     *slog.Logger
	runID      string
}

// NewBatch creates a batch for prog that stacks images with stacker.
func NewBatch(prog *compiler.Program, opts Options, stacker compositor.Stacker, options ...Option) *Batch {
	b := &Batch{
		prog:     prog,
		opts:     opts,
		recorder: NopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range options {
		opt(b)
	}
	if b.opts.Workers <= 0 {
		b.opts.Workers = DefaultWorkers
	}

	b.emitter = metadata.NewEmitter(opts.Output, metadata.InfoFrom(prog.Doc), b.logger)
	b.compositor = compositor.New(opts.Assets, opts.Output, stacker, b.logger)
	return b
}

// Run executes the whole batch: prepare the output directory, emit
// metadata, composite every record, and drop the side channel this run
// wrote when every item succeeded.
//
// The returned summary is filled in as far as the batch got, even on error.
func (b *Batch) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	runID, err := b.recorder.BeginRun(ctx, RunInfo{ConfigHash: b.prog.ConfigHash, Amount: b.prog.Amount})
	if err != nil {
		return summary, fmt.Errorf("begin run: %w", err)
	}
	b.runID = runID
	summary.RunID = runID

	err = b.run(ctx, summary)
	summary.Duration = time.Since(start)

	status := RunSucceeded
	if err != nil {
		status = RunFailed
	}
	if ferr := b.recorder.FinishRun(ctx, runID, status); ferr != nil {
		b.logger.Warn("failed to record run status", "run", runID, "error", ferr)
	}
	return summary, err
}

func (b *Batch) run(ctx context.Context, summary *Summary) error {
	if b.opts.SkipMetadata {
		info, err := os.Stat(b.opts.Output)
		if err != nil || !info.IsDir() {
			return &OutputError{Path: b.opts.Output, Message: "no existing output to composite from", Err: err}
		}
	} else {
		if err := b.cleanOutput(); err != nil {
			return err
		}
		stats, err := b.GenerateMetadata(ctx)
		summary.Items, summary.Guaranteed, summary.Retries = stats.Items, stats.Guaranteed, stats.Retries
		if err != nil {
			return err
		}
	}

	done, failed, err := b.CompositeAll(ctx)
	summary.Composited, summary.Failed = done-failed, failed
	if err != nil {
		return err
	}

	// A side channel left by an earlier run is not ours to remove.
	if !b.opts.SkipMetadata && !b.opts.KeepSidecar {
		if err := os.RemoveAll(filepath.Join(b.opts.Output, metadata.SidecarDir)); err != nil {
			return fmt.Errorf("remove side channel: %w", err)
		}
	}
	return nil
}

// cleanOutput empties the output directory. It refuses paths that would
// take the assets with them.
func (b *Batch) cleanOutput() error {
	out, err := filepath.Abs(b.opts.Output)
	if err != nil {
		return &OutputError{Path: b.opts.Output, Message: "resolve path", Err: err}
	}
	assets, err := filepath.Abs(b.opts.Assets)
	if err != nil {
		return &OutputError{Path: b.opts.Assets, Message: "resolve path", Err: err}
	}
	if out == filepath.Dir(out) {
		return &OutputError{Path: b.opts.Output, Message: "refusing to clean the filesystem root"}
	}
	if within(out, assets) {
		return &OutputError{Path: b.opts.Output, Message: "refusing to clean a directory containing the assets"}
	}

	if err := os.RemoveAll(out); err != nil {
		return &OutputError{Path: b.opts.Output, Message: "clean", Err: err}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return &OutputError{Path: b.opts.Output, Message: "create", Err: err}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// MetadataStats reports the metadata phase.
type MetadataStats struct {
	Items      int
	Guaranteed int
	Retries    int
}

// GenerateMetadata resolves and emits every item, sequentially.
//
// Guaranteed rolls are placed at their slots and bypass the uniqueness
// check. With includeGuaranteed they are registered in the pool before
// any item is sampled, so no sampled item can duplicate one.
func (b *Batch) GenerateMetadata(ctx context.Context) (MetadataStats, error) {
	var stats MetadataStats

	sched, err := b.prog.Schedule()
	if err != nil {
		return stats, err
	}
	guard := rarity.NewGuard(rarity.NewResolver(b.prog.Model, b.src), b.prog.Policy, rarity.NewGeneratedRolls(), b.logger)

	for _, set := range sched.Pending() {
		added, err := guard.Register(set)
		if err != nil {
			return stats, err
		}
		if !added {
			b.logger.Warn("guaranteed roll repeats another guaranteed roll", "traits", set.Public().Display())
		}
	}

	for i := 0; i < b.prog.Amount; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		source := SourceSampled
		retries := 0
		set, ok := sched.Next(i)
		if ok {
			source = SourceGuaranteed
			stats.Guaranteed++
		} else {
			set, retries, err = guard.ResolveUnique(i)
			if err != nil {
				return stats, err
			}
			stats.Retries += retries
		}

		if err := b.emitter.Emit(i, set); err != nil {
			return stats, err
		}
		stats.Items++

		if err := b.recordItem(ctx, i, set, source, retries); err != nil {
			return stats, err
		}
	}

	b.logger.Info("metadata generated", "items", stats.Items, "guaranteed", stats.Guaranteed, "retries", stats.Retries)
	return stats, nil
}

func (b *Batch) recordItem(ctx context.Context, index int, set ir.AttributeSet, source ItemSource, retries int) error {
	fp, err := ir.Fingerprint(set)
	if err != nil {
		return fmt.Errorf("item %d: %w", index, err)
	}
	if err := b.recorder.RecordItem(ctx, b.runID, ItemInfo{Index: index, Fingerprint: fp, Source: source, Retries: retries}); err != nil {
		return fmt.Errorf("item %d: record: %w", index, err)
	}
	return nil
}

// CompositeAll composites every record in the output directory on a
// bounded worker pool. It returns the finished and failed counts and the
// joined per-item errors.
func (b *Batch) CompositeAll(ctx context.Context) (done, failed int, err error) {
	indices, err := metadata.ListRecords(b.opts.Output)
	if err != nil {
		return 0, 0, err
	}

	progress := NewProgress(len(indices))
	stop := progress.Report(ctx, b.opts.ProgressInterval, b.logger.With("component", "progress"))

	var (
		mu   sync.Mutex
		errs []error
	)
	collect := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	// A plain Group: one item's failure must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(b.opts.Workers)
	for _, index := range indices {
		if ctx.Err() != nil {
			collect(fmt.Errorf("compositing stopped before item %d: %w", index, ctx.Err()))
			break
		}
		g.Go(func() error {
			itemErr := b.compositeOne(ctx, index)
			progress.Done(itemErr == nil)
			if itemErr != nil {
				collect(itemErr)
				b.logger.Error("composite failed", "item", index, "error", itemErr)
			}
			if rerr := b.recorder.RecordImage(ctx, b.runID, index, itemErr); rerr != nil {
				b.logger.Warn("failed to record image status", "item", index, "error", rerr)
			}
			return nil
		})
	}
	_ = g.Wait() // errors captured in errs
	stop()

	d, f, _ := progress.Snapshot()
	return int(d), int(f), errors.Join(errs...)
}

func (b *Batch) compositeOne(ctx context.Context, index int) error {
	path, _, err := metadata.Locate(b.opts.Output, index)
	if err != nil {
		return err
	}
	set, err := metadata.ReadAttributeSet(path)
	if err != nil {
		return fmt.Errorf("item %d: %w", index, err)
	}
	return b.compositor.Composite(ctx, index, set)
}
