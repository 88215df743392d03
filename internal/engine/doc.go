// Package engine runs a generation batch.
//
// A batch has two phases.
//
// Metadata phase:
// A single goroutine walks item indices 0..amount-1. Each index either
// receives the next guaranteed roll or is resolved through the uniqueness
// guard, then the emitter writes its records. Running this phase on one
// goroutine makes it the only writer of the batch's GeneratedRolls pool, so
// the duplicate check needs no coordination and a seeded run is
// reproducible.
//
// Compositing phase:
// Every emitted record is read back (side channel first) and handed to the
// compositor on a bounded errgroup pool. A failing item does not cancel
// its siblings; per-item errors are collected and joined after Wait, so
// the batch result still reflects them. A cancelled context only stops
// admission of new items.
//
// Progress is an atomic counter polled by a reporter goroutine that logs
// through slog.
package engine
