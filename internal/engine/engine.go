package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/objstore/internal/fault"
	"github.com/roach88/objstore/internal/identity"
	"github.com/roach88/objstore/internal/ir"
	"github.com/roach88/objstore/internal/object"
	"github.com/roach88/objstore/internal/store"
)

// TxFunc is the body of a transaction. Returning an error aborts the
// transaction and discards every effect it made.
type TxFunc func(tx *object.Tx) error

// Receipt describes an executed transaction.
type Receipt struct {
	Digest string            `json:"digest"`
	Sender ir.Address        `json:"sender"`
	Status string            `json:"status"`
	Seq    int64             `json:"seq"`
	Issued int64             `json:"issued"`
	Events []ir.Event        `json:"events,omitempty"`
	Abort  *fault.AbortError `json:"abort,omitempty"`
}

// Committed reports whether the transaction's effects were applied.
func (r Receipt) Committed() bool {
	return r.Status == ir.StatusCommitted
}

// Record returns the journal entry for the receipt.
func (r Receipt) Record() ir.TxRecord {
	rec := ir.TxRecord{Digest: r.Digest, Sender: r.Sender, Status: r.Status, Seq: r.Seq, Issued: r.Issued}
	if r.Abort != nil {
		rec.AbortCode = string(r.Abort.Code)
		rec.Message = r.Abort.Message
	}
	return rec
}

// Engine serializes transactions over an object store.
//
// Thread-safety model:
//   - Execute, View, Submit: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Engine struct {
	mu      sync.RWMutex
	objects *object.Store
	journal *store.Store // optional
	clock   *identity.Clock
	digests DigestGenerator
	queue   *requestQueue
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithJournal records every executed transaction in j.
func WithJournal(j *store.Store) EngineOption {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithDigestGenerator replaces the default UUIDv7 digest source.
func WithDigestGenerator(g DigestGenerator) EngineOption {
	return func(e *Engine) {
		e.digests = g
	}
}

// WithClock sets the logical clock, e.g. one resumed from a journal.
func WithClock(c *identity.Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an engine over objects. A nil objects gets a fresh store.
func New(objects *object.Store, opts ...EngineOption) *Engine {
	if objects == nil {
		objects = object.NewStore(identity.NewRegistry())
	}
	e := &Engine{
		objects: objects,
		clock:   identity.NewClock(),
		digests: UUIDv7Generator{},
		queue:   newRequestQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resume moves the logical clock past the last seq in the journal and the
// identifier registry past the last journaled issue count, so a restarted
// engine reuses neither. A no-op without a journal.
func (e *Engine) Resume(ctx context.Context) error {
	if e.journal == nil {
		return nil
	}
	last, err := e.journal.LastSeq(ctx)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	issued, err := e.journal.LastIssued(ctx)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if last > e.clock.Current() {
		e.clock = identity.NewClockAt(last)
	}
	e.objects.Registry().Resume(issued)
	slog.Debug("engine resumed", "seq", e.clock.Current(), "issued", issued)
	return nil
}

// Objects returns the underlying store. Callers must not read it while
// transactions may run; use View instead.
func (e *Engine) Objects() *object.Store {
	return e.objects
}

// Seq returns the last seq handed out.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// Execute runs fn as a transaction sent by sender.
//
// If fn returns an error (or panics, or leaves an issued identifier
// unused) the transaction is aborted: the store is unchanged, the abort
// is journaled, and the receipt carries the abort. The returned error is
// then the abort cause. A journal failure returns a RuntimeError and
// leaves the store unchanged.
func (e *Engine) Execute(ctx context.Context, sender ir.Address, fn TxFunc) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	digest := e.digests.Generate()
	tx := e.objects.Begin(sender, digest)

	err := run(tx, fn)
	if err == nil {
		err = tx.Validate()
	}
	if err != nil {
		tx.Rollback()
		return e.abort(ctx, sender, digest, err)
	}

	receipt := Receipt{
		Digest: digest,
		Sender: sender,
		Status: ir.StatusCommitted,
		Seq:    e.clock.Next(),
		Issued: e.objects.Registry().Issued(),
	}
	events := tx.Events()
	for i := range events {
		events[i].Seq = e.clock.Next()
		id, err := ir.EventID(digest, events[i].Seq, events[i].Kind, events[i].Fields)
		if err != nil {
			tx.Rollback()
			return Receipt{}, fmt.Errorf("execute %s: event %s: %w", digest, events[i].Kind, err)
		}
		events[i].ID = id
	}
	receipt.Events = events

	if e.journal != nil {
		if err := e.journalWrite(ctx, receipt, events); err != nil {
			tx.Rollback()
			return Receipt{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		// Journaled but not applied. Validate ran first, so this means
		// the overlay was already finished.
		slog.Error("commit failed after journal write", "digest", digest, "error", err)
		return Receipt{}, fmt.Errorf("execute %s: commit: %w", digest, err)
	}

	slog.Debug("transaction committed",
		"digest", digest,
		"sender", sender.Short(),
		"seq", receipt.Seq,
		"events", len(events))
	return receipt, nil
}

// abort journals a failed transaction and builds its receipt.
func (e *Engine) abort(ctx context.Context, sender ir.Address, digest string, cause error) (Receipt, error) {
	receipt := Receipt{
		Digest: digest,
		Sender: sender,
		Status: ir.StatusAborted,
		Seq:    e.clock.Next(),
		Issued: e.objects.Registry().Issued(),
	}
	var ae *fault.AbortError
	var re *RuntimeError
	switch {
	case errors.As(cause, &ae):
		receipt.Abort = ae
	case errors.As(cause, &re):
		receipt.Abort = &fault.AbortError{Code: fault.Code(re.Code), Message: re.Message}
	default:
		receipt.Abort = &fault.AbortError{Message: cause.Error()}
	}

	if e.journal != nil {
		if err := e.journalWrite(ctx, receipt, nil); err != nil {
			return receipt, err
		}
	}

	slog.Debug("transaction aborted",
		"digest", digest,
		"sender", sender.Short(),
		"code", receipt.Abort.Code,
		"error", cause)
	return receipt, cause
}

// journalWrite records receipt and its events. A digest that is already
// journaled fails: the journal keeps the first entry for a digest, so the
// new one would be lost.
func (e *Engine) journalWrite(ctx context.Context, receipt Receipt, events []ir.Event) error {
	inserted, err := e.journal.WriteTransaction(ctx, receipt.Record(), events)
	if err == nil && !inserted {
		err = fmt.Errorf("digest %s is already journaled", receipt.Digest)
	}
	if err != nil {
		slog.Error("journal write failed", "digest", receipt.Digest, "error", err)
		return newJournalError(receipt.Digest, err)
	}
	return nil
}

// run calls fn, turning a panic into an error.
func run(tx *object.Tx, fn TxFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuntimeError{
				Code:    ErrCodePanic,
				Message: fmt.Sprint(r),
				Digest:  tx.Digest(),
			}
		}
	}()
	return fn(tx)
}

// View runs fn with read access to the store. fn never observes a
// partially applied transaction.
func (e *Engine) View(fn func(s *object.Store) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.objects)
}

// Submit queues fn for the Run loop and waits for its receipt.
// Returns a RuntimeError with ErrCodeStopped if the engine is stopped.
func (e *Engine) Submit(ctx context.Context, sender ir.Address, fn TxFunc) (Receipt, error) {
	r := &request{sender: sender, fn: fn, done: make(chan result, 1)}
	if !e.queue.Enqueue(r) {
		return Receipt{}, errStopped
	}
	select {
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	case res := <-r.done:
		return res.receipt, res.err
	}
}

// Run executes submitted transactions in FIFO order.
// Blocks until ctx is cancelled or Stop is called.
//
// Must be called from exactly one goroutine.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")

	for {
		r, ok := e.queue.TryDequeue()
		if ok {
			receipt, err := e.Execute(ctx, r.sender, r.fn)
			r.done <- result{receipt: receipt, err: err}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.Stop()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed, which
			// fires this case immediately.
			if e.queue.Len() == 0 && e.queue.Closed() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once it is idle; requests still
// queued fail with ErrCodeStopped.
func (e *Engine) Stop() {
	for _, r := range e.queue.Close() {
		r.done <- result{err: errStopped}
	}
}
