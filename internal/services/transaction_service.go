// Package services orchestrates transaction writes across storage, the
// category suggester, and the import job queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	"spendtrack/internal/importer"
	"spendtrack/internal/parse"
)

// ErrAsyncUnavailable is returned by EnqueueImport when no job queue is
// configured.
var ErrAsyncUnavailable = errors.New("async import not configured")

// TxStore is the storage surface the service writes and reads through.
// *storage.Repository satisfies it.
type TxStore interface {
	InsertTransaction(ctx context.Context, tx *core.Transaction) error
	ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error)
}

// Categorizer suggests a category for a title and amount. Best-effort;
// ok=false means proceed with the fallback.
type Categorizer interface {
	Suggest(ctx context.Context, title string, amount core.Money) (string, bool)
}

// Bus is the message broker surface. *amqp.Client satisfies it.
type Bus interface {
	PublishImportJob(ctx context.Context, owner, blob string) error
	PublishTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error
}

type TransactionService struct {
	store       TxStore
	importer    *importer.Importer
	categorizer Categorizer
	queue       Bus
	now         func() time.Time
}

// NewTransactionService wires the write path. categorizer and queue may
// be nil; the corresponding features degrade gracefully.
func NewTransactionService(store TxStore, imp *importer.Importer, categorizer Categorizer, queue Bus) *TransactionService {
	return &TransactionService{
		store:       store,
		importer:    imp,
		categorizer: categorizer,
		queue:       queue,
		now:         time.Now,
	}
}

// Create validates and stores a manually entered transaction. A missing
// payment method is inferred from the title; a missing category asks
// the suggestion service and falls back to the default. The date must
// be supplied by the caller; only the notification parser defaults it.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.PaymentMethod == "" {
		tx.PaymentMethod = core.InferMethod(tx.Title)
	} else {
		tx.PaymentMethod = core.NormalizeMethod(tx.PaymentMethod)
	}
	if tx.Category == "" {
		if s.categorizer != nil {
			if cat, ok := s.categorizer.Suggest(ctx, tx.Title, tx.Amount); ok {
				tx.Category = cat
				tx.AIGenerated = true
			}
		}
		if tx.Category == "" {
			tx.Category = core.DefaultCategory
		}
	}

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.InsertTransaction(ctx, &tx); err != nil {
		return core.Transaction{}, fmt.Errorf("store transaction: %w", err)
	}

	// The write already succeeded; a lost event never fails the call.
	if s.queue != nil {
		event := &amqp.TransactionCreatedMessage{
			ID:          tx.ID,
			Owner:       tx.Owner,
			AmountCents: tx.Amount.Cents,
			Category:    tx.Category,
			Timestamp:   s.now(),
		}
		if err := s.queue.PublishTransactionCreated(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed to publish created event",
				"error", err, "id", tx.ID)
		}
	}
	return tx, nil
}

// SmartCreate parses a pasted notification and stores the result.
func (s *TransactionService) SmartCreate(ctx context.Context, owner, text string) (core.Transaction, error) {
	draft, err := parse.Notification(text, s.now())
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		Owner:         owner,
		Title:         draft.Title,
		Amount:        draft.Amount,
		Category:      draft.Category,
		Date:          draft.Date,
		PaymentMethod: draft.PaymentMethod,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.InsertTransaction(ctx, &tx); err != nil {
		return core.Transaction{}, fmt.Errorf("store parsed transaction: %w", err)
	}

	slog.InfoContext(ctx, "Parsed transaction stored",
		"owner", owner,
		"amount_cents", tx.Amount.Cents,
		"payment_method", tx.PaymentMethod)
	return tx, nil
}

// List returns all transactions for the owner, newest first.
func (s *TransactionService) List(ctx context.Context, owner string) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, owner)
}

// Import runs a CSV import synchronously.
func (s *TransactionService) Import(ctx context.Context, owner, blob string) (importer.Result, error) {
	return s.importer.Import(ctx, owner, blob)
}

// EnqueueImport publishes the blob for the background worker.
func (s *TransactionService) EnqueueImport(ctx context.Context, owner, blob string) error {
	if s.queue == nil {
		return ErrAsyncUnavailable
	}
	if err := s.queue.PublishImportJob(ctx, owner, blob); err != nil {
		return fmt.Errorf("enqueue import: %w", err)
	}
	return nil
}
