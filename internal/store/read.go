package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/objstore/internal/ir"
)

const txColumns = `digest, sender, status, abort_code, message, seq, issued`

const eventColumns = `id, digest, seq, kind, object, fields`

// ReadTransaction retrieves a journaled transaction by digest.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadTransaction(ctx context.Context, digest string) (ir.TxRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE digest = ?
	`, digest)

	rec, err := scanTransaction(row)
	if err != nil {
		return ir.TxRecord{}, fmt.Errorf("read transaction %s: %w", digest, err)
	}
	return rec, nil
}

// ReadTransactions returns every journaled transaction in seq order.
func (s *Store) ReadTransactions(ctx context.Context) ([]ir.TxRecord, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		ORDER BY seq ASC, digest COLLATE BINARY ASC
	`)
}

// ReadTransactionsBySender returns the transactions sent by sender.
func (s *Store) ReadTransactionsBySender(ctx context.Context, sender ir.Address) ([]ir.TxRecord, error) {
	return s.queryTransactions(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE sender = ?
		ORDER BY seq ASC, digest COLLATE BINARY ASC
	`, sender.String())
}

// ReadEvents returns the events of one transaction in emission order.
// Returns an empty slice (not nil) for aborted or unknown transactions.
func (s *Store) ReadEvents(ctx context.Context, digest string) ([]ir.Event, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE digest = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, digest)
}

// ReadAllEvents returns every journaled event in seq order.
func (s *Store) ReadAllEvents(ctx context.Context) ([]ir.Event, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]ir.TxRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	records := []ir.TxRecord{}
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return records, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(sc scanner) (ir.TxRecord, error) {
	var rec ir.TxRecord
	var sender string
	if err := sc.Scan(&rec.Digest, &sender, &rec.Status, &rec.AbortCode, &rec.Message, &rec.Seq, &rec.Issued); err != nil {
		if err == sql.ErrNoRows {
			return ir.TxRecord{}, err
		}
		return ir.TxRecord{}, fmt.Errorf("scan transaction: %w", err)
	}
	addr, err := ir.ParseAddress(sender)
	if err != nil {
		return ir.TxRecord{}, fmt.Errorf("scan transaction %s: sender: %w", rec.Digest, err)
	}
	rec.Sender = addr
	return rec, nil
}

func scanEvent(sc scanner) (ir.Event, error) {
	var ev ir.Event
	var object, fields string
	if err := sc.Scan(&ev.ID, &ev.Digest, &ev.Seq, &ev.Kind, &object, &fields); err != nil {
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}
	id, err := ir.ParseID(object)
	if err != nil {
		return ir.Event{}, fmt.Errorf("scan event %s: object: %w", ev.ID, err)
	}
	ev.Object = id
	if ev.Fields, err = unmarshalFields(fields); err != nil {
		return ir.Event{}, fmt.Errorf("scan event %s: %w", ev.ID, err)
	}
	return ev, nil
}
