package engine

import "context"

// ItemSource says how an item's attributes were produced.
type ItemSource string

const (
	SourceSampled    ItemSource = "sampled"
	SourceGuaranteed ItemSource = "guaranteed"

	// SourceExisting marks items composited from records a previous run
	// left in the output directory.
	SourceExisting ItemSource = "existing"
)

// RunStatus is the outcome of a batch.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunInfo describes a batch when it starts.
type RunInfo struct {
	ConfigHash string
	Amount     int
}

// ItemInfo describes one emitted item.
type ItemInfo struct {
	Index       int
	Fingerprint string
	Source      ItemSource
	Retries     int
}

// Recorder persists a batch's history. Implementations must be safe for
// concurrent use: RecordImage is called from compositing workers.
type Recorder interface {
	BeginRun(ctx context.Context, info RunInfo) (runID string, err error)
	RecordItem(ctx context.Context, runID string, item ItemInfo) error
	RecordImage(ctx context.Context, runID string, index int, imageErr error) error
	FinishRun(ctx context.Context, runID string, status RunStatus) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) BeginRun(context.Context, RunInfo) (string, error)     { return "", nil }
func (NopRecorder) RecordItem(context.Context, string, ItemInfo) error    { return nil }
func (NopRecorder) RecordImage(context.Context, string, int, error) error { return nil }
func (NopRecorder) FinishRun(context.Context, string, RunStatus) error    { return nil }
