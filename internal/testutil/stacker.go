package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// StackCall records one Stack invocation.
type StackCall struct {
	Layers []string
	Out    string
}

// RecordingStacker is an in-process stand-in for an external stacking tool.
//
// Stack writes the contents of each layer file, joined by "+", to the
// output path, so tests can check which layers were stacked and in what
// order. Outputs registered with FailOn return the given error instead.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingStacker struct {
	mu    sync.Mutex
	calls []StackCall
	fail  map[string]error
}

// NewRecordingStacker creates a stacker with no failures.
func NewRecordingStacker() *RecordingStacker {
	return &RecordingStacker{fail: make(map[string]error)}
}

// FailOn makes Stack return err for outputs whose base name is name,
// e.g. "3.png".
func (s *RecordingStacker) FailOn(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[name] = err
}

// Stack implements the compositor's Stacker interface.
func (s *RecordingStacker) Stack(ctx context.Context, layers []string, out string) error {
	s.mu.Lock()
	s.calls = append(s.calls, StackCall{Layers: append([]string(nil), layers...), Out: out})
	err := s.fail[filepath.Base(out)]
	s.mu.Unlock()
	if err != nil {
		return err
	}

	parts := make([]string, len(layers))
	for i, layer := range layers {
		data, err := os.ReadFile(layer)
		if err != nil {
			return err
		}
		parts[i] = string(data)
	}
	return os.WriteFile(out, []byte(strings.Join(parts, "+")), 0o644)
}

// Calls returns the recorded invocations sorted by output path.
func (s *RecordingStacker) Calls() []StackCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	calls := append([]StackCall(nil), s.calls...)
	sort.Slice(calls, func(i, j int) bool { return calls[i].Out < calls[j].Out })
	return calls
}

// Count returns the number of Stack invocations.
func (s *RecordingStacker) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
