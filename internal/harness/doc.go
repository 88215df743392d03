// Package harness runs generation scenarios end to end and checks them.
//
// A scenario is a YAML file holding an inline config, the asset files to
// lay out, a scripted sequence of random draws (or a seed), and a list of
// assertions. Run executes the full batch against a temporary output
// folder, an in-memory ledger, and a recording stacker in place of the
// external image tool, then builds a trace of every recorded item.
//
// With scripted draws a scenario is fully deterministic, so its trace can
// be compared against a golden file:
//
//	go test ./internal/harness -update
//
// regenerates testdata/golden/*.golden.
//
// Without draws or a seed every draw is 0, which always picks the first
// entry with weight.
package harness
