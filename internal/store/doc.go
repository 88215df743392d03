// Package store provides the SQLite run ledger.
//
// The ledger is an append-mostly history of batches:
//   - Runs: one row per generate invocation, with its config hash and status
//   - Items: one row per emitted item, with its fingerprint and image status
//
// # Ordering
//
// Runs are ordered by started_seq, a logical sequence assigned on insert,
// never by wall time. Items are ordered by item_index.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks
//   - foreign_keys=ON: Items must belong to a run
package store
