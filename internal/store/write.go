package store

import (
	"context"
	"fmt"

	"github.com/roach88/objstore/internal/ir"
)

// WriteTransaction journals one executed transaction and its events in a
// single SQL transaction: either all rows land or none do.
//
// Uses ON CONFLICT(digest) DO NOTHING for idempotency. Rewriting a digest
// that is already journaled is a no-op and reports inserted=false.
//
// Aborted transactions must not carry events.
func (s *Store) WriteTransaction(ctx context.Context, rec ir.TxRecord, events []ir.Event) (inserted bool, err error) {
	if rec.Status != ir.StatusCommitted && rec.Status != ir.StatusAborted {
		return false, fmt.Errorf("write transaction %s: invalid status %q", rec.Digest, rec.Status)
	}
	if rec.Status == ir.StatusAborted && len(events) > 0 {
		return false, fmt.Errorf("write transaction %s: aborted transaction has %d events", rec.Digest, len(events))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write transaction: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
		(digest, sender, status, abort_code, message, seq, issued)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`,
		rec.Digest,
		rec.Sender.String(),
		rec.Status,
		rec.AbortCode,
		rec.Message,
		rec.Seq,
		rec.Issued,
	)
	if err != nil {
		return false, fmt.Errorf("write transaction %s: %w", rec.Digest, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write transaction %s: rows affected: %w", rec.Digest, err)
	}
	if affected == 0 {
		return false, nil
	}

	for _, ev := range events {
		if ev.Digest != rec.Digest {
			return false, fmt.Errorf("write transaction %s: event %s belongs to %s", rec.Digest, ev.ID, ev.Digest)
		}
		fields, err := marshalFields(ev.Fields)
		if err != nil {
			return false, fmt.Errorf("write event %s: %w", ev.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events
			(id, digest, seq, kind, object, fields)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			ev.ID,
			ev.Digest,
			ev.Seq,
			ev.Kind,
			ev.Object.String(),
			fields,
		)
		if err != nil {
			return false, fmt.Errorf("write event %s: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write transaction: commit: %w", err)
	}
	return true, nil
}
