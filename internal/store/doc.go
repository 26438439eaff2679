// Package store is the SQLite journal of executed transactions.
//
// Two append-only tables:
//   - transactions: one row per executed transaction, committed or aborted
//   - events: the events of committed transactions
//
// Aborted transactions are journaled with their abort code and no events,
// since their effects never happened.
//
// # Ordering
//
// Every row carries a seq from the engine's logical clock. Queries order
// by seq ASC, id ASC COLLATE BINARY so results are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: events must reference a journaled transaction
//
// The journal is an audit trail. The object store itself lives in memory;
// persistence format is the host's concern.
package store
