// Package engine hosts the object store: it executes transactions one at
// a time with all-or-nothing effect and journals every outcome.
//
// ARCHITECTURE:
//
// Single Writer:
// The core packages (object, slot, cell) do no locking and assume no two
// mutators touch the same record concurrently. The engine provides that
// discipline: every transaction runs under the engine's write lock, and
// read-only View calls take the read lock, so no reader observes a
// half-applied transaction.
//
// Transaction Flow:
//  1. Generate a digest (UUIDv7 by default)
//  2. Open an object.Tx overlay as the sender
//  3. Run the caller's function against the overlay
//  4. On error: drop the overlay, journal the abort with its code
//  5. On success: stamp seq and event IDs, journal, then commit
//
// Submit/Run offer the same execution through a FIFO queue drained by a
// single Run goroutine, for callers that prefer to hand work off.
//
// Logical Clock:
// Transactions and events are stamped from one monotonic seq counter.
// Wall-clock time is never used for ordering.
package engine
