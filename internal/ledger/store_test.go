package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/remote"
	"finboard/internal/report"
)

// fakeAPI is a scriptable remote.API that counts calls.
type fakeAPI struct {
	listItems []core.Transaction
	listErr   error

	created   core.Transaction
	createErr error

	updated   core.Transaction
	updateErr error

	deleteErr error

	calls int
}

func (f *fakeAPI) ListAll(context.Context) ([]core.Transaction, error) {
	f.calls++
	return f.listItems, f.listErr
}

func (f *fakeAPI) Create(_ context.Context, d core.Draft) (core.Transaction, error) {
	f.calls++
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	if f.created.ID == "" {
		f.created = core.Transaction{
			ID:         "srv-1",
			Title:      d.Title,
			Amount:     d.Amount,
			Kind:       d.Kind,
			Category:   d.Category,
			OccurredAt: d.OccurredAt,
		}
	}
	return f.created, nil
}

func (f *fakeAPI) Update(_ context.Context, id string, d core.Draft) (core.Transaction, error) {
	f.calls++
	if f.updateErr != nil {
		return core.Transaction{}, f.updateErr
	}
	f.updated = core.Transaction{
		ID:         id,
		Title:      d.Title,
		Amount:     d.Amount,
		Kind:       d.Kind,
		Category:   d.Category,
		OccurredAt: d.OccurredAt,
	}
	return f.updated, nil
}

func (f *fakeAPI) Delete(_ context.Context, id string) (string, error) {
	f.calls++
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	return id, nil
}

func seed(n int) []core.Transaction {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := make([]core.Transaction, n)
	for i := range items {
		items[i] = core.Transaction{
			ID:         string(rune('a' + i)),
			Title:      "seed",
			Amount:     core.Money{Cents: 100},
			Kind:       core.Expense,
			Category:   "Food",
			OccurredAt: base.AddDate(0, 0, -i),
		}
	}
	return items
}

func validDraft() core.Draft {
	return core.Draft{
		Title:      "Coffee",
		Amount:     core.Money{Cents: 450},
		Kind:       core.Expense,
		Category:   "Food",
		OccurredAt: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestLoadAllReplacesLedger(t *testing.T) {
	api := &fakeAPI{listItems: seed(3)}
	s := NewStore(api)

	s.LoadAll(context.Background())

	if got := len(s.Items()); got != 3 {
		t.Fatalf("expected 3 items, got %d", got)
	}
	if s.LastError() != "" {
		t.Errorf("unexpected error: %q", s.LastError())
	}
	if s.Loading() {
		t.Error("store still loading after LoadAll returned")
	}
}

func TestLoadAllFailureKeepsLedger(t *testing.T) {
	api := &fakeAPI{listItems: seed(2)}
	s := NewStore(api)
	s.LoadAll(context.Background())

	api.listErr = errors.New("connection refused")
	s.LoadAll(context.Background())

	if got := len(s.Items()); got != 2 {
		t.Fatalf("failed reload changed ledger: %d items", got)
	}
	if s.LastError() == "" {
		t.Error("expected LastError after failed load")
	}
}

func TestCreatePrependsCanonicalRecord(t *testing.T) {
	api := &fakeAPI{listItems: seed(2)}
	s := NewStore(api)
	s.LoadAll(context.Background())

	if err := s.Create(context.Background(), validDraft()); err != nil {
		t.Fatalf("create: %v", err)
	}

	items := s.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != "srv-1" {
		t.Errorf("new record not first: %q", items[0].ID)
	}
	if s.LastError() != "" {
		t.Errorf("unexpected error: %q", s.LastError())
	}
}

func TestCreateValidationNeverReachesService(t *testing.T) {
	api := &fakeAPI{}
	s := NewStore(api)

	err := s.Create(context.Background(), core.Draft{
		Title:  "",
		Amount: core.Money{Cents: 100},
		Kind:   core.Expense,
	})
	if !errors.Is(err, core.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if api.calls != 0 {
		t.Errorf("validation failure reached the service: %d calls", api.calls)
	}
	if s.LastError() == "" {
		t.Error("expected LastError to carry the validation message")
	}
	if len(s.Items()) != 0 {
		t.Error("ledger changed on rejected create")
	}
}

func TestCreateFailureLeavesLedgerUntouched(t *testing.T) {
	api := &fakeAPI{listItems: seed(2)}
	s := NewStore(api)
	s.LoadAll(context.Background())

	api.createErr = &remote.Error{Status: 500, Message: "boom from service"}
	err := s.Create(context.Background(), validDraft())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := len(s.Items()); got != 2 {
		t.Errorf("ledger changed on failed create: %d items", got)
	}
	if s.LastError() != "boom from service" {
		t.Errorf("expected service message, got %q", s.LastError())
	}
}

func TestUpdateReplacesInPlaceAndClearsEditing(t *testing.T) {
	api := &fakeAPI{listItems: seed(3)}
	s := NewStore(api)
	s.LoadAll(context.Background())

	target := s.Items()[1]
	s.BeginEdit(target)

	d := validDraft()
	d.Title = "Updated title"
	if err := s.Update(context.Background(), target.ID, d); err != nil {
		t.Fatalf("update: %v", err)
	}

	items := s.Items()
	if len(items) != 3 {
		t.Fatalf("update changed ledger length: %d", len(items))
	}
	if items[1].Title != "Updated title" {
		t.Errorf("record not replaced in place: %q", items[1].Title)
	}
	if items[1].ID != target.ID {
		t.Errorf("id changed: %q", items[1].ID)
	}
	if _, ok := s.Editing(); ok {
		t.Error("editing target not cleared after successful update")
	}
}

func TestUpdateFailureKeepsEditingTarget(t *testing.T) {
	api := &fakeAPI{listItems: seed(1)}
	s := NewStore(api)
	s.LoadAll(context.Background())

	target := s.Items()[0]
	s.BeginEdit(target)

	api.updateErr = errors.New("timeout")
	if err := s.Update(context.Background(), target.ID, validDraft()); err == nil {
		t.Fatal("expected error")
	}

	if _, ok := s.Editing(); !ok {
		t.Error("editing target cleared on failed update")
	}
	if s.Items()[0].Title != "seed" {
		t.Error("ledger changed on failed update")
	}
}

func TestRemoveDropsRecord(t *testing.T) {
	api := &fakeAPI{listItems: seed(3)}
	s := NewStore(api)
	s.LoadAll(context.Background())

	victim := s.Items()[1].ID
	if err := s.Remove(context.Background(), victim); err != nil {
		t.Fatalf("remove: %v", err)
	}

	for _, it := range s.Items() {
		if it.ID == victim {
			t.Fatalf("record %q still present", victim)
		}
	}
	if got := len(s.Items()); got != 2 {
		t.Errorf("expected 2 items, got %d", got)
	}
}

func TestRemoveFailureKeepsRecord(t *testing.T) {
	api := &fakeAPI{listItems: seed(2)}
	s := NewStore(api)
	s.LoadAll(context.Background())

	api.deleteErr = errors.New("gone away")
	if err := s.Remove(context.Background(), s.Items()[0].ID); err == nil {
		t.Fatal("expected error")
	}
	if got := len(s.Items()); got != 2 {
		t.Errorf("ledger changed on failed remove: %d items", got)
	}
}

func TestNewOperationClearsLastError(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("boom")}
	s := NewStore(api)
	s.LoadAll(context.Background())
	if s.LastError() == "" {
		t.Fatal("expected error from first load")
	}

	api.listErr = nil
	api.listItems = seed(1)
	s.LoadAll(context.Background())
	if s.LastError() != "" {
		t.Errorf("stale error survived a successful operation: %q", s.LastError())
	}
}

func TestBudgetDefaultsAndClamping(t *testing.T) {
	s := NewStore(&fakeAPI{})

	if s.Budget() != DefaultBudget {
		t.Errorf("fresh store budget = %v", s.Budget())
	}

	s.SetBudget(core.Money{Cents: -500})
	if s.Budget().Cents != 0 {
		t.Errorf("negative budget not clamped: %d", s.Budget().Cents)
	}

	s.SetBudget(core.Money{Cents: 150000})
	if s.Budget().Cents != 150000 {
		t.Errorf("budget = %d", s.Budget().Cents)
	}
}

func TestActiveCategoryFiltering(t *testing.T) {
	items := seed(3)
	items[0].Category = "Travel"
	api := &fakeAPI{listItems: items}
	s := NewStore(api)
	s.LoadAll(context.Background())

	if s.ActiveCategory() != report.AllCategories {
		t.Errorf("fresh store filter = %q", s.ActiveCategory())
	}
	if got := len(s.Filtered()); got != 3 {
		t.Fatalf("All filter returned %d items", got)
	}

	s.SetActiveCategory("Travel")
	if got := len(s.Filtered()); got != 1 {
		t.Errorf("Travel filter returned %d items", got)
	}

	// Filtering is a view concern; the ledger itself is untouched.
	if got := len(s.Items()); got != 3 {
		t.Errorf("filter changed ledger: %d items", got)
	}

	s.SetActiveCategory("Nope")
	if got := len(s.Filtered()); got != 0 {
		t.Errorf("stale filter returned %d items", got)
	}
}

func TestDerivedViewsOverLedger(t *testing.T) {
	ref := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{listItems: []core.Transaction{
		{ID: "1", Title: "Salary", Amount: core.Money{Cents: 500000}, Kind: core.Income, Category: "Work", OccurredAt: ref},
		{ID: "2", Title: "Rent", Amount: core.Money{Cents: 120000}, Kind: core.Expense, Category: "Housing", OccurredAt: ref},
	}}
	s := NewStore(api)
	s.LoadAll(context.Background())

	totals := s.Totals()
	if totals.Balance.Cents != 380000 {
		t.Errorf("balance = %d", totals.Balance.Cents)
	}

	cats := s.Categories()
	if len(cats) != 3 || cats[0] != report.AllCategories {
		t.Errorf("categories = %v", cats)
	}

	if got := s.MonthToDateExpense(ref).Cents; got != 120000 {
		t.Errorf("month to date = %d", got)
	}

	s.SetBudget(core.Money{Cents: 100000})
	if !s.OverBudget(ref) {
		t.Error("expected over budget")
	}

	series := s.DailySeries(ref)
	if len(series) != report.TrendDays {
		t.Fatalf("series has %d points", len(series))
	}
	if !s.HasTrendData(ref) {
		t.Error("expected trend data")
	}
}

func TestCancelEdit(t *testing.T) {
	s := NewStore(&fakeAPI{})
	s.BeginEdit(core.Transaction{ID: "x"})
	if _, ok := s.Editing(); !ok {
		t.Fatal("expected editing target")
	}
	s.CancelEdit()
	if _, ok := s.Editing(); ok {
		t.Error("editing target survived cancel")
	}
}
