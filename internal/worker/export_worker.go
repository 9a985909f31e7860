// Package worker turns ledger change events into audit rows on the
// export sheet. Events carry only an id, so each row is built from a
// fresh read of storage; deletions get a tombstone row instead.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"finboard/internal/core"
	"finboard/internal/events"
	"finboard/internal/export"
	"finboard/internal/storage"
)

// RecordGetter is the slice of storage the worker reads from.
type RecordGetter interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
}

type ExportWorker struct {
	records  RecordGetter
	appender export.RowAppender

	// maxElapsed bounds the retry window per row.
	maxElapsed time.Duration
}

func NewExportWorker(records RecordGetter, appender export.RowAppender) *ExportWorker {
	return &ExportWorker{
		records:    records,
		appender:   appender,
		maxElapsed: 2 * time.Minute,
	}
}

// HandleEvent processes one change event. A transaction that was
// deleted between the event and the read is exported as a tombstone,
// not treated as a failure: the requeue would never succeed.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *events.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", ev.Action,
		"id", ev.ID)

	var row []string
	switch ev.Action {
	case events.ActionDeleted:
		row = tombstoneRow(ev)
	case events.ActionCreated, events.ActionUpdated:
		record, err := w.records.GetTransaction(ctx, ev.ID)
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction gone before export, writing tombstone", "id", ev.ID)
			row = tombstoneRow(ev)
			break
		}
		if err != nil {
			return fmt.Errorf("get transaction %s: %w", ev.ID, err)
		}
		row = recordRow(ev.Action, record)
	default:
		return fmt.Errorf("unknown event action %q", ev.Action)
	}

	if err := w.appendWithRetry(ctx, row); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}

// appendWithRetry retries transient append failures with exponential
// backoff until the window closes or ctx is cancelled.
func (w *ExportWorker) appendWithRetry(ctx context.Context, row []string) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = w.maxElapsed

	return backoff.Retry(func() error {
		_, err := w.appender.Append(ctx, row)
		if err != nil {
			slog.WarnContext(ctx, "Sheet append failed, will retry", "error", err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

func recordRow(action string, t core.Transaction) []string {
	return []string{
		time.Now().UTC().Format(time.RFC3339),
		action,
		t.ID,
		t.Title,
		t.Amount.String(),
		string(t.Kind),
		t.Category,
		t.OccurredAt.UTC().Format(time.RFC3339),
	}
}

func tombstoneRow(ev *events.TransactionEvent) []string {
	return []string{
		time.Now().UTC().Format(time.RFC3339),
		events.ActionDeleted,
		ev.ID,
		"", "", "", "",
		ev.Timestamp.UTC().Format(time.RFC3339),
	}
}
