// Package export defines the outbound port for the ledger audit trail.
package export

import "context"

// RowAppender appends one audit row to an external sheet or log.
// Implementations must be safe to retry: the worker re-delivers rows
// after transient failures.
type RowAppender interface {
	Append(ctx context.Context, row []string) (rowRef string, err error)
}
