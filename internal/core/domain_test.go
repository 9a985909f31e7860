package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDraftNormalize(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	d := Draft{Title: "  Groceries  ", Category: "  "}
	n := d.Normalize(now)

	if n.Title != "Groceries" {
		t.Errorf("expected trimmed title, got %q", n.Title)
	}
	if n.Category != DefaultCategory {
		t.Errorf("expected default category, got %q", n.Category)
	}
	if !n.OccurredAt.Equal(now) {
		t.Errorf("expected zero date to default to now, got %v", n.OccurredAt)
	}
}

func TestDraftNormalizeKeepsExplicitValues(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	when := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	d := Draft{Title: "Rent", Category: "Housing", OccurredAt: when}
	n := d.Normalize(now)

	if n.Category != "Housing" {
		t.Errorf("category changed: %q", n.Category)
	}
	if !n.OccurredAt.Equal(when) {
		t.Errorf("explicit date replaced: %v", n.OccurredAt)
	}
}

func TestDraftValidate(t *testing.T) {
	valid := Draft{
		Title:    "Coffee",
		Amount:   Money{Cents: 450},
		Kind:     Expense,
		Category: "Food",
	}

	cases := []struct {
		name    string
		mutate  func(d *Draft)
		wantErr error
	}{
		{"valid", func(d *Draft) {}, nil},
		{"empty title", func(d *Draft) { d.Title = "" }, ErrEmptyTitle},
		{"whitespace title", func(d *Draft) { d.Title = "   " }, ErrEmptyTitle},
		{"title too long", func(d *Draft) { d.Title = strings.Repeat("x", 61) }, ErrTitleTooLong},
		{"title at limit", func(d *Draft) { d.Title = strings.Repeat("x", 60) }, nil},
		{"zero amount", func(d *Draft) { d.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(d *Draft) { d.Amount = Money{Cents: -100} }, ErrInvalidAmount},
		{"bad kind", func(d *Draft) { d.Kind = "transfer" }, ErrInvalidKind},
		{"empty kind", func(d *Draft) { d.Kind = "" }, ErrInvalidKind},
		{"income kind", func(d *Draft) { d.Kind = Income }, nil},
		{"category too long", func(d *Draft) { d.Category = strings.Repeat("c", 31) }, ErrCategoryTooLong},
		{"category at limit", func(d *Draft) { d.Category = strings.Repeat("c", 30) }, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid
			tc.mutate(&d)
			err := d.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	for _, err := range []error{
		ErrEmptyTitle, ErrTitleTooLong, ErrInvalidAmount, ErrInvalidKind, ErrCategoryTooLong,
	} {
		if !IsValidationError(err) {
			t.Errorf("expected %v to be a validation error", err)
		}
	}
	if IsValidationError(errors.New("connection refused")) {
		t.Error("transport error classified as validation error")
	}
	if IsValidationError(nil) {
		t.Error("nil classified as validation error")
	}
}

func TestCategoryOrDefault(t *testing.T) {
	if got := (Transaction{Category: "Food"}).CategoryOrDefault(); got != "Food" {
		t.Errorf("got %q", got)
	}
	if got := (Transaction{}).CategoryOrDefault(); got != DefaultCategory {
		t.Errorf("got %q", got)
	}
	if got := (Transaction{Category: "  "}).CategoryOrDefault(); got != DefaultCategory {
		t.Errorf("got %q", got)
	}
}
