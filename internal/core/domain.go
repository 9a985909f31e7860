package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	// DefaultCategory is assigned when a draft carries no category.
	DefaultCategory = "General"

	maxTitleLen    = 60
	maxCategoryLen = 30
)

type (
	// Kind distinguishes money coming in from money going out.
	Kind string

	// Transaction is one ledger entry as acknowledged by the
	// persistence service. ID is assigned server-side and is empty
	// only on records that were never persisted.
	Transaction struct {
		ID         string    `json:"id"`
		Title      string    `json:"title"`
		Amount     Money     `json:"amount"`
		Kind       Kind      `json:"type"`
		Category   string    `json:"category"`
		OccurredAt time.Time `json:"date"`
	}

	// Draft is user input for a create or update. It carries no ID;
	// the target of an update is addressed separately.
	Draft struct {
		Title      string    `json:"title"`
		Amount     Money     `json:"amount"`
		Kind       Kind      `json:"type"`
		Category   string    `json:"category"`
		OccurredAt time.Time `json:"date"`
	}
)

var (
	ErrEmptyTitle      = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title must be 60 characters or less")
	ErrInvalidAmount   = errors.New("amount must be greater than 0")
	ErrInvalidKind     = errors.New("type must be income or expense")
	ErrCategoryTooLong = errors.New("category must be 30 characters or less")
)

// IsValidationError reports whether err is one of the draft invariant
// violations, as opposed to a storage or transport failure.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrEmptyTitle, ErrTitleTooLong, ErrInvalidAmount, ErrInvalidKind, ErrCategoryTooLong,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

// Normalize returns a copy of the draft with surrounding whitespace
// removed, the category defaulted and a zero occurrence time replaced
// by now. Call it before Validate so the invariants see canonical input.
func (d Draft) Normalize(now time.Time) Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = strings.TrimSpace(d.Category)
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	if d.OccurredAt.IsZero() {
		d.OccurredAt = now
	}
	return d
}

// Validate enforces the record invariants on a normalized draft.
// The same check runs on both sides of the wire: the state engine runs
// it before contacting the service, the service runs it again on arrival.
func (d Draft) Validate() error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > maxTitleLen {
		return ErrTitleTooLong
	}
	if d.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if err := d.Kind.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(d.Category)) > maxCategoryLen {
		return ErrCategoryTooLong
	}
	return nil
}

// CategoryOrDefault returns the record's category, falling back to
// DefaultCategory for records that arrived without one.
func (t Transaction) CategoryOrDefault() string {
	if strings.TrimSpace(t.Category) == "" {
		return DefaultCategory
	}
	return t.Category
}
