package engine

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Concurrent(t *testing.T) {
	p := NewProgress(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(ok bool) {
			defer wg.Done()
			p.Done(ok)
		}(i%10 != 0)
	}
	wg.Wait()

	done, failed, total := p.Snapshot()
	assert.Equal(t, int64(100), done)
	assert.Equal(t, int64(10), failed)
	assert.Equal(t, int64(100), total)
}

// syncBuffer is a bytes.Buffer safe for the reporter goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgress_ReportLogsFinalLine(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	p := NewProgress(3)
	stop := p.Report(context.Background(), time.Hour, logger)
	p.Done(true)
	p.Done(true)
	p.Done(false)
	stop()
	stop() // idempotent

	assert.Equal(t, 1, bytes.Count([]byte(out.String()), []byte("msg=composited")))
	assert.Contains(t, out.String(), "done=3 total=3 failed=1")
}

func TestProgress_ReportTicks(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	p := NewProgress(1)
	stop := p.Report(context.Background(), 5*time.Millisecond, logger)
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("msg=composited"))
	}, time.Second, 5*time.Millisecond)
	stop()
}
