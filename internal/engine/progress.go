package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultProgressInterval is how often the reporter logs.
const DefaultProgressInterval = time.Second

// Progress counts finished items of a phase.
//
// Thread-safety: Progress is safe for concurrent use (atomic operations).
// Workers call Done; the reporter goroutine calls Snapshot.
type Progress struct {
	total  int64
	done   atomic.Int64
	failed atomic.Int64
}

// NewProgress creates a counter for total items.
func NewProgress(total int) *Progress {
	return &Progress{total: int64(total)}
}

// Done records one finished item and returns the new finished count.
func (p *Progress) Done(ok bool) int64 {
	if !ok {
		p.failed.Add(1)
	}
	return p.done.Add(1)
}

// Snapshot returns finished, failed, and total counts.
func (p *Progress) Snapshot() (done, failed, total int64) {
	return p.done.Load(), p.failed.Load(), p.total
}

// Report starts a goroutine that logs progress every interval until the
// returned stop function is called. stop logs a final line and waits for
// the goroutine to exit. It is safe to call stop more than once.
func (p *Progress) Report(ctx context.Context, interval time.Duration, logger *slog.Logger) (stop func()) {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.log(logger)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			p.log(logger)
		})
	}
}

func (p *Progress) log(logger *slog.Logger) {
	done, failed, total := p.Snapshot()
	logger.Info("composited", "done", done, "total", total, "failed", failed)
}
