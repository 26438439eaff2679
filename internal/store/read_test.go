package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/roach88/objstore/internal/ir"
)

func seedJournal(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	bob := ir.AddressFromLabel("bob")

	writes := []struct {
		rec    ir.TxRecord
		events []ir.Event
	}{
		{
			createTestRecord("tx-a", ir.StatusCommitted, 1),
			[]ir.Event{createTestEvent("tx-a", 2, ir.EventCreated, testObject(1), ir.IRObject{})},
		},
		{
			createTestRecord("tx-b", ir.StatusAborted, 3),
			nil,
		},
		{
			ir.TxRecord{Digest: "tx-c", Sender: bob, Status: ir.StatusCommitted, Seq: 4},
			[]ir.Event{
				createTestEvent("tx-c", 5, ir.EventTransferred, testObject(1), ir.IRObject{}),
				createTestEvent("tx-c", 6, ir.EventCreated, testObject(2), ir.IRObject{}),
			},
		},
	}
	for _, w := range writes {
		if _, err := s.WriteTransaction(ctx, w.rec, w.events); err != nil {
			t.Fatalf("WriteTransaction(%s) failed: %v", w.rec.Digest, err)
		}
	}
}

func TestReadTransaction_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadTransaction(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestReadTransactions_Ordered(t *testing.T) {
	s := createTestStore(t)
	seedJournal(t, s)

	records, err := s.ReadTransactions(context.Background())
	if err != nil {
		t.Fatalf("ReadTransactions() failed: %v", err)
	}
	want := []string{"tx-a", "tx-b", "tx-c"}
	if len(records) != len(want) {
		t.Fatalf("len = %d, want %d", len(records), len(want))
	}
	for i, d := range want {
		if records[i].Digest != d {
			t.Errorf("records[%d] = %s, want %s", i, records[i].Digest, d)
		}
	}
}

func TestReadTransactionsBySender(t *testing.T) {
	s := createTestStore(t)
	seedJournal(t, s)

	records, err := s.ReadTransactionsBySender(context.Background(), alice)
	if err != nil {
		t.Fatalf("ReadTransactionsBySender() failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len = %d, want 2", len(records))
	}
}

func TestReadEvents_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	events, err := s.ReadEvents(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if events == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestObjectHistory(t *testing.T) {
	s := createTestStore(t)
	seedJournal(t, s)

	history, err := s.ObjectHistory(context.Background(), testObject(1))
	if err != nil {
		t.Fatalf("ObjectHistory() failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len = %d, want 2", len(history))
	}
	if history[0].Kind != ir.EventCreated || history[1].Kind != ir.EventTransferred {
		t.Errorf("history = %s, %s", history[0].Kind, history[1].Kind)
	}
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("empty journal LastSeq = %d, want 0", seq)
	}

	seedJournal(t, s)
	seq, err = s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 6 {
		t.Errorf("LastSeq = %d, want 6", seq)
	}
}

func TestStats(t *testing.T) {
	s := createTestStore(t)
	seedJournal(t, s)

	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	want := Stats{Committed: 2, Aborted: 1, Events: 3}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
}

func TestFieldsRoundTripLargeInt(t *testing.T) {
	fields := ir.IRObject{"fee": ir.IRInt(1 << 60), "note": ir.IRString("<&>")}

	text, err := marshalFields(fields)
	if err != nil {
		t.Fatalf("marshalFields() failed: %v", err)
	}
	if text != `{"fee":1152921504606846976,"note":"<&>"}` {
		t.Errorf("marshalFields() = %s", text)
	}

	back, err := unmarshalFields(text)
	if err != nil {
		t.Fatalf("unmarshalFields() failed: %v", err)
	}
	if back["fee"] != ir.IRInt(1<<60) {
		t.Errorf("fee = %v", back["fee"])
	}
}

func TestLastIssued(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	issued, err := s.LastIssued(ctx)
	if err != nil {
		t.Fatalf("LastIssued() failed: %v", err)
	}
	if issued != 0 {
		t.Errorf("empty journal LastIssued = %d, want 0", issued)
	}

	for i, n := range []int64{2, 5, 5} {
		rec := createTestRecord(fmt.Sprintf("tx-%d", i), ir.StatusAborted, int64(i+1))
		rec.Issued = n
		if _, err := s.WriteTransaction(ctx, rec, nil); err != nil {
			t.Fatalf("WriteTransaction() failed: %v", err)
		}
	}

	issued, err = s.LastIssued(ctx)
	if err != nil {
		t.Fatalf("LastIssued() failed: %v", err)
	}
	if issued != 5 {
		t.Errorf("LastIssued = %d, want 5", issued)
	}

	rec, err := s.ReadTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("ReadTransaction() failed: %v", err)
	}
	if rec.Issued != 5 {
		t.Errorf("Issued = %d, want 5", rec.Issued)
	}
}
