package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/events"
	"finboard/internal/export/memory"
	"finboard/internal/storage"
)

type fakeRecords struct {
	records map[string]core.Transaction
	err     error
}

func (f *fakeRecords) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	t, ok := f.records[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func TestHandleEventCreated(t *testing.T) {
	records := &fakeRecords{records: map[string]core.Transaction{
		"42": {
			ID:         "42",
			Title:      "Coffee",
			Amount:     core.Money{Cents: 450},
			Kind:       core.Expense,
			Category:   "Food",
			OccurredAt: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
		},
	}}
	sink := memory.New()
	w := NewExportWorker(records, sink)

	err := w.HandleEvent(context.Background(), events.NewTransactionEvent(events.ActionCreated, "42"))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}

	rows := sink.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if len(row) != 8 {
		t.Fatalf("row has %d columns", len(row))
	}
	if row[1] != events.ActionCreated || row[2] != "42" || row[3] != "Coffee" {
		t.Errorf("row = %v", row)
	}
	if row[4] != "4.5" {
		t.Errorf("amount column = %q", row[4])
	}
	if row[7] != "2025-06-10T09:00:00Z" {
		t.Errorf("occurred-at column = %q", row[7])
	}
}

func TestHandleEventDeletedWritesTombstone(t *testing.T) {
	sink := memory.New()
	w := NewExportWorker(&fakeRecords{}, sink)

	err := w.HandleEvent(context.Background(), events.NewTransactionEvent(events.ActionDeleted, "42"))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}

	rows := sink.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row[1] != events.ActionDeleted || row[2] != "42" {
		t.Errorf("row = %v", row)
	}
	if row[3] != "" || row[4] != "" {
		t.Errorf("tombstone carries record fields: %v", row)
	}
}

func TestHandleEventRecordGoneBeforeExport(t *testing.T) {
	// The record was deleted between the event and the read; a tombstone
	// is written instead of failing the message.
	sink := memory.New()
	w := NewExportWorker(&fakeRecords{records: map[string]core.Transaction{}}, sink)

	err := w.HandleEvent(context.Background(), events.NewTransactionEvent(events.ActionUpdated, "gone"))
	if err != nil {
		t.Fatalf("expected tombstone, got error: %v", err)
	}
	rows := sink.Rows()
	if len(rows) != 1 || rows[0][2] != "gone" {
		t.Errorf("rows = %v", rows)
	}
}

func TestHandleEventStorageFailureIsReturned(t *testing.T) {
	sink := memory.New()
	w := NewExportWorker(&fakeRecords{err: errors.New("db locked")}, sink)

	err := w.HandleEvent(context.Background(), events.NewTransactionEvent(events.ActionCreated, "42"))
	if err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if len(sink.Rows()) != 0 {
		t.Error("row written despite storage failure")
	}
}

func TestHandleEventUnknownAction(t *testing.T) {
	w := NewExportWorker(&fakeRecords{}, memory.New())

	err := w.HandleEvent(context.Background(), &events.TransactionEvent{Action: "archived", ID: "1"})
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
}

type flakyAppender struct {
	failures int
	calls    int
	rows     [][]string
}

func (f *flakyAppender) Append(_ context.Context, row []string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient")
	}
	f.rows = append(f.rows, row)
	return "ok", nil
}

func TestAppendRetriesTransientFailures(t *testing.T) {
	sink := &flakyAppender{failures: 2}
	w := NewExportWorker(&fakeRecords{}, sink)
	w.maxElapsed = 5 * time.Second

	err := w.HandleEvent(context.Background(), events.NewTransactionEvent(events.ActionDeleted, "42"))
	if err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if sink.calls < 3 {
		t.Errorf("expected at least 3 attempts, got %d", sink.calls)
	}
	if len(sink.rows) != 1 {
		t.Errorf("rows = %d", len(sink.rows))
	}
}

func TestAppendStopsOnContextCancel(t *testing.T) {
	sink := &flakyAppender{failures: 1 << 30}
	w := NewExportWorker(&fakeRecords{}, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.HandleEvent(ctx, events.NewTransactionEvent(events.ActionDeleted, "42"))
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
}
