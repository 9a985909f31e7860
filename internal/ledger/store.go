// Package ledger owns the local copy of the transaction ledger and
// keeps it synchronized with the remote persistence service. The Store
// is the single writer; every other component only reads from it and
// derives its output on access. The original app kept this state in a
// UI-global context object; here it is an explicit state owner so each
// consumer (and each test) can hold its own instance.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/remote"
	"finboard/internal/report"
)

// DefaultBudget is the monthly budget a fresh store starts with, in
// cents. The budget is process-local state and is never persisted.
var DefaultBudget = core.Money{Cents: 20_000_00}

// Store is the authoritative local copy of the ledger plus the
// process-local view state (budget, active filter, editing target).
//
// The ledger reflects only service-acknowledged records: no mutation is
// applied optimistically, and a failed call always leaves the ledger in
// its last-known-good state. Remote calls run outside the lock, so
// readers observe the pre-call ledger until a call resolves. When two
// mutations are in flight, responses apply in arrival order, which may
// differ from issue order; the store does not sequence requests per id.
type Store struct {
	api   remote.API
	clock func() time.Time

	mu      sync.Mutex
	items   []core.Transaction
	pending int
	lastErr string
	editing *core.Transaction
	budget  core.Money
	active  string
}

// NewStore returns an empty store bound to the given remote API, with
// the default budget and no active filter.
func NewStore(api remote.API) *Store {
	return &Store{
		api:    api,
		clock:  time.Now,
		budget: DefaultBudget,
		active: report.AllCategories,
	}
}

// LoadAll replaces the ledger wholesale with the service's canonical
// list (most recent occurrence first). Unlike the mutation methods it
// does not return the failure: there is no caller decision to make at
// load time, so a failure only shows up in LastError.
func (s *Store) LoadAll(ctx context.Context) {
	s.begin()

	items, err := s.api.ListAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if err != nil {
		s.lastErr = failureMessage("Failed to load transactions.", err)
		return
	}
	s.items = items
}

// Create validates the draft locally, persists it, and prepends the
// canonical record the service returned. A validation failure never
// reaches the service. Failures are both recorded in LastError and
// returned, so a form-level caller can show its own message.
func (s *Store) Create(ctx context.Context, d core.Draft) error {
	s.begin()
	defer s.end()

	d = d.Normalize(s.clock())
	if err := d.Validate(); err != nil {
		s.fail(err.Error())
		return err
	}

	created, err := s.api.Create(ctx, d)
	if err != nil {
		s.fail(failureMessage("Failed to create transaction.", err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.Transaction{created}, s.items...)
	return nil
}

// Update validates the draft, persists the change and replaces the
// matching ledger entry in place with the returned canonical record.
// On success the editing target is cleared; on failure both the ledger
// and the editing target stay untouched.
func (s *Store) Update(ctx context.Context, id string, d core.Draft) error {
	s.begin()
	defer s.end()

	d = d.Normalize(s.clock())
	if err := d.Validate(); err != nil {
		s.fail(err.Error())
		return err
	}

	updated, err := s.api.Update(ctx, id, d)
	if err != nil {
		s.fail(failureMessage("Failed to update transaction.", err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = updated
			break
		}
	}
	s.editing = nil
	return nil
}

// Remove deletes the record remotely, then drops it from the ledger.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.begin()
	defer s.end()

	if _, err := s.api.Delete(ctx, id); err != nil {
		s.fail(failureMessage("Failed to delete transaction.", err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0:0]
	for _, it := range s.items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	s.items = kept
	return nil
}

// BeginEdit marks a record as the current editing target. No network
// effect; the form layer reads it to switch into edit mode.
func (s *Store) BeginEdit(t core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = &t
}

// CancelEdit clears the editing target without touching the ledger.
func (s *Store) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil
}

// Editing returns the record currently being edited, if any.
func (s *Store) Editing() (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return core.Transaction{}, false
	}
	return *s.editing, true
}

// SetBudget replaces the monthly budget. Negative input is clamped to
// zero; the budget is a threshold, not a balance.
func (s *Store) SetBudget(m core.Money) {
	if m.Cents < 0 {
		m.Cents = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = m
}

// Budget returns the current monthly budget.
func (s *Store) Budget() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget
}

// SetActiveCategory sets the view filter. Use report.AllCategories to
// clear it. A category with no remaining records simply yields an empty
// filtered view.
func (s *Store) SetActiveCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = category
}

// ActiveCategory returns the current view filter.
func (s *Store) ActiveCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Items returns a copy of the full ledger in its current order.
func (s *Store) Items() []core.Transaction {
	return s.snapshot()
}

// Loading reports whether any remote call is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// LastError returns the message of the most recent failure, or "" when
// the latest operation succeeded. It is a single slot, not a log.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Totals recomputes income, expense and balance from the ledger.
func (s *Store) Totals() report.Totals {
	return report.ComputeTotals(s.snapshot())
}

// Categories recomputes the category index ("All" first, rest sorted).
func (s *Store) Categories() []string {
	return report.Categories(s.snapshot())
}

// Filtered returns the ledger restricted to the active category.
func (s *Store) Filtered() []core.Transaction {
	s.mu.Lock()
	items := append([]core.Transaction(nil), s.items...)
	active := s.active
	s.mu.Unlock()
	return report.Filter(items, active)
}

// MonthToDateExpense sums this month's expenses relative to ref.
func (s *Store) MonthToDateExpense(ref time.Time) core.Money {
	return report.MonthToDateExpense(s.snapshot(), ref)
}

// OverBudget reports whether month-to-date spend strictly exceeds the
// budget as of ref.
func (s *Store) OverBudget(ref time.Time) bool {
	return report.OverBudget(s.MonthToDateExpense(ref), s.Budget())
}

// DailySeries returns the 14-day expense trend ending at ref.
func (s *Store) DailySeries(ref time.Time) []report.SeriesPoint {
	return report.DailyExpenseSeries(s.snapshot(), ref)
}

// HasTrendData reports whether the 14-day trend has any spend in it.
func (s *Store) HasTrendData(ref time.Time) bool {
	return report.HasTrendData(s.DailySeries(ref))
}

func (s *Store) snapshot() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}

// begin opens an operation: the error slot is cleared and the pending
// counter raised so Loading holds for the call's duration.
func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
	s.pending++
}

func (s *Store) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
}

func (s *Store) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = msg
}

// failureMessage prefers the service-supplied message, then the raw
// error text, then a generic fallback, mirroring how the dashboard
// historically surfaced failures.
func failureMessage(fallback string, err error) string {
	var rerr *remote.Error
	if errors.As(err, &rerr) && rerr.Message != "" {
		return rerr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
