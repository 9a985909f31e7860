// Package service orchestrates ledger mutations on the persistence
// side: validate, write to storage, then announce the change. The
// announcement is best-effort; a record that is safely on disk is never
// rolled back because a broker was unreachable.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finboard/internal/core"
	"finboard/internal/events"
)

// Repository is the slice of the storage layer the service needs.
type Repository interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	CreateTransaction(ctx context.Context, d core.Draft) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, d core.Draft) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// EventPublisher announces acknowledged mutations. Nil-able: the
// service runs fine without a broker.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, action, id string) error
}

// LedgerService validates and persists ledger mutations and publishes
// change events for the export pipeline.
type LedgerService struct {
	repo      Repository
	publisher EventPublisher
}

func NewLedgerService(repo Repository, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		repo:      repo,
		publisher: publisher,
	}
}

// List returns the ledger in canonical order.
func (s *LedgerService) List(ctx context.Context) ([]core.Transaction, error) {
	items, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

// Get returns a single record by id.
func (s *LedgerService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// Create validates the draft, stores it and returns the canonical
// record from storage.
func (s *LedgerService) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	d = d.Normalize(time.Now())
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.repo.CreateTransaction(ctx, d)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.publish(ctx, events.ActionCreated, created.ID)
	return created, nil
}

// Update validates the draft and replaces the stored record.
func (s *LedgerService) Update(ctx context.Context, id string, d core.Draft) (core.Transaction, error) {
	d = d.Normalize(time.Now())
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.repo.UpdateTransaction(ctx, id, d)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, events.ActionUpdated, updated.ID)
	return updated, nil
}

// Delete removes the record from storage.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.ActionDeleted, id)
	return nil
}

// publish sends a change event when a broker is configured. Failures
// are logged and swallowed: the mutation already succeeded.
func (s *LedgerService) publish(ctx context.Context, action, id string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action,
			"id", id,
			"error", err)
	}
}
