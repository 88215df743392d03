package harness

import (
	"fmt"

	"github.com/roach88/resin/internal/engine"
)

// TraceEvent is one recorded item.
type TraceEvent struct {
	Index   int      `json:"index"`
	Source  string   `json:"source"`
	Retries int      `json:"retries"`
	Traits  []string `json:"traits"` // "layer=value", raw values, meta layers included
	Image   string   `json:"image"`  // "ok", "failed" or "pending"
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates every assertion held.
	Pass bool `json:"pass"`

	// Trace lists recorded items in index order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// ErrorCode classifies the batch error, empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	// Err is the batch error itself.
	Err error `json:"-"`

	// Summary is what the batch reported. Nil when the config did not compile.
	Summary *engine.Summary `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Item returns the trace event for index.
func (r *Result) Item(index int) (TraceEvent, bool) {
	for _, ev := range r.Trace {
		if ev.Index == index {
			return ev, true
		}
	}
	return TraceEvent{}, false
}
