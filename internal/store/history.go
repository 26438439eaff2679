package store

import (
	"context"
	"fmt"

	"github.com/roach88/objstore/internal/ir"
)

// ObjectHistory returns every event recorded against object, oldest first.
// Events live only in committed transactions, so the history never shows
// effects of an aborted one.
func (s *Store) ObjectHistory(ctx context.Context, object ir.ID) ([]ir.Event, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE object = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, object.String())
}

// LastSeq returns the highest seq used in the journal, or 0 if empty.
// Used to resume the engine's logical clock across restarts.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(seq), 0) FROM transactions),
			(SELECT COALESCE(MAX(seq), 0) FROM events)
		)
	`).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return maxSeq, nil
}

// LastIssued returns the highest identifier count recorded by any
// transaction, or 0 if the journal is empty. Used to resume the identifier
// registry across restarts.
func (s *Store) LastIssued(ctx context.Context) (int64, error) {
	var issued int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(issued), 0) FROM transactions
	`).Scan(&issued)
	if err != nil {
		return 0, fmt.Errorf("get last issued: %w", err)
	}
	return issued, nil
}

// Stats summarizes the journal.
type Stats struct {
	Committed int64 `json:"committed"`
	Aborted   int64 `json:"aborted"`
	Events    int64 `json:"events"`
}

// Stats counts journaled transactions by status and events.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM transactions WHERE status = 'committed'),
			(SELECT COUNT(*) FROM transactions WHERE status = 'aborted'),
			(SELECT COUNT(*) FROM events)
	`).Scan(&st.Committed, &st.Aborted, &st.Events)
	if err != nil {
		return Stats{}, fmt.Errorf("journal stats: %w", err)
	}
	return st, nil
}
