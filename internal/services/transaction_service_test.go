package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	"spendtrack/internal/importer"
	"spendtrack/internal/parse"
)

type fakeTxStore struct {
	inserted []core.Transaction
	batches  int
	failNext bool
}

func (f *fakeTxStore) InsertTransaction(ctx context.Context, tx *core.Transaction) error {
	if f.failNext {
		return errors.New("disk full")
	}
	tx.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, *tx)
	return nil
}

func (f *fakeTxStore) InsertTransactionBatch(ctx context.Context, txs []core.Transaction) error {
	f.batches++
	f.inserted = append(f.inserted, txs...)
	return nil
}

func (f *fakeTxStore) ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, tx := range f.inserted {
		if tx.Owner == owner {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeCategorizer struct {
	category string
	ok       bool
	calls    int
}

func (f *fakeCategorizer) Suggest(ctx context.Context, title string, amount core.Money) (string, bool) {
	f.calls++
	return f.category, f.ok
}

type fakeQueue struct {
	published []string
	events    []*amqp.TransactionCreatedMessage
	fail      bool
}

func (f *fakeQueue) PublishImportJob(ctx context.Context, owner, blob string) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.published = append(f.published, blob)
	return nil
}

func (f *fakeQueue) PublishTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.events = append(f.events, msg)
	return nil
}

func newService(store *fakeTxStore, cat Categorizer, queue Bus) *TransactionService {
	svc := NewTransactionService(store, importer.New(store, 100), cat, queue)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateDefaults(t *testing.T) {
	store := &fakeTxStore{}
	svc := newService(store, nil, nil)

	tx, err := svc.Create(context.Background(), core.Transaction{
		Owner:  "u1",
		Title:  "Chai at paytm stall",
		Amount: core.Money{Cents: 1500},
		Date:   core.NewDate(2025, 12, 4),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tx.ID == 0 {
		t.Error("no ID assigned")
	}
	if tx.PaymentMethod != core.MethodPaytm {
		t.Errorf("method = %s, want inferred PAYTM", tx.PaymentMethod)
	}
	if tx.Category != core.DefaultCategory {
		t.Errorf("category = %s, want %s", tx.Category, core.DefaultCategory)
	}
	if tx.AIGenerated {
		t.Error("aiGenerated set without a suggestion")
	}
}

func TestCreateUsesSuggestion(t *testing.T) {
	store := &fakeTxStore{}
	cat := &fakeCategorizer{category: "Food", ok: true}
	svc := newService(store, cat, nil)

	tx, err := svc.Create(context.Background(), core.Transaction{
		Owner:  "u1",
		Title:  "Zomato",
		Amount: core.Money{Cents: 5500},
		Date:   core.NewDate(2025, 12, 4),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tx.Category != "Food" || !tx.AIGenerated {
		t.Errorf("category = %s aiGenerated = %v", tx.Category, tx.AIGenerated)
	}

	// Caller-provided category skips the suggester entirely.
	calls := cat.calls
	tx, err = svc.Create(context.Background(), core.Transaction{
		Owner:    "u1",
		Title:    "Zomato",
		Amount:   core.Money{Cents: 5500},
		Category: "Dining",
		Date:     core.NewDate(2025, 12, 4),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tx.Category != "Dining" || tx.AIGenerated {
		t.Errorf("category = %s aiGenerated = %v", tx.Category, tx.AIGenerated)
	}
	if cat.calls != calls {
		t.Error("suggester called despite explicit category")
	}
}

func TestCreateValidates(t *testing.T) {
	store := &fakeTxStore{}
	svc := newService(store, nil, nil)

	_, err := svc.Create(context.Background(), core.Transaction{
		Owner:  "u1",
		Title:  "Zero",
		Amount: core.Money{Cents: 0},
		Date:   core.NewDate(2025, 12, 4),
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
	if len(store.inserted) != 0 {
		t.Error("invalid transaction stored")
	}
}

func TestCreateRequiresDate(t *testing.T) {
	store := &fakeTxStore{}
	svc := newService(store, nil, nil)

	// A manual create without a date is rejected, never filled in.
	_, err := svc.Create(context.Background(), core.Transaction{
		Owner:  "u1",
		Title:  "Chai",
		Amount: core.Money{Cents: 1500},
	})
	if !errors.Is(err, core.ErrMissingDate) {
		t.Errorf("err = %v, want ErrMissingDate", err)
	}
	if len(store.inserted) != 0 {
		t.Error("dateless transaction stored")
	}
}

func TestCreateNormalizesExplicitMethod(t *testing.T) {
	store := &fakeTxStore{}
	svc := newService(store, nil, nil)

	tx, err := svc.Create(context.Background(), core.Transaction{
		Owner:         "u1",
		Title:         "Rent",
		Amount:        core.Money{Cents: 100000},
		Date:          core.NewDate(2025, 12, 1),
		PaymentMethod: " phonepe ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tx.PaymentMethod != "PHONEPE" {
		t.Errorf("method = %s, want PHONEPE", tx.PaymentMethod)
	}
}

func TestSmartCreate(t *testing.T) {
	store := &fakeTxStore{}
	svc := newService(store, nil, nil)

	tx, err := svc.SmartCreate(context.Background(), "u1", "Rs 55.00 paid to Zomato via PhonePe UPI on 04-12-2025")
	if err != nil {
		t.Fatalf("SmartCreate: %v", err)
	}
	if tx.Amount.Cents != 5500 || tx.PaymentMethod != core.MethodPhonePe {
		t.Errorf("tx = %+v", tx)
	}
	if tx.Category != core.ParsedCategory {
		t.Errorf("category = %s", tx.Category)
	}

	_, err = svc.SmartCreate(context.Background(), "u1", "no amount here")
	if !errors.Is(err, parse.ErrAmountNotFound) {
		t.Errorf("err = %v, want ErrAmountNotFound", err)
	}
	if len(store.inserted) != 1 {
		t.Errorf("stored = %d, want 1", len(store.inserted))
	}
}

func TestImportSync(t *testing.T) {
	store := &fakeTxStore{}
	svc := newService(store, nil, nil)

	res, err := svc.Import(context.Background(), "u1", "2025-12-04,55,Zomato,PHONEPE\nbad")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 1 || len(res.Skipped) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestCreatePublishesEvent(t *testing.T) {
	store := &fakeTxStore{}
	queue := &fakeQueue{}
	svc := newService(store, nil, queue)

	tx, err := svc.Create(context.Background(), core.Transaction{
		Owner:  "u1",
		Title:  "Chai",
		Amount: core.Money{Cents: 1500},
		Date:   core.NewDate(2025, 12, 4),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(queue.events) != 1 {
		t.Fatalf("events = %d, want 1", len(queue.events))
	}
	if queue.events[0].ID != tx.ID || queue.events[0].AmountCents != 1500 {
		t.Errorf("event = %+v", queue.events[0])
	}

	// A broker failure is logged, never surfaced.
	queue.fail = true
	if _, err := svc.Create(context.Background(), core.Transaction{
		Owner:  "u1",
		Title:  "Chai",
		Amount: core.Money{Cents: 1500},
		Date:   core.NewDate(2025, 12, 5),
	}); err != nil {
		t.Errorf("Create failed on publish error: %v", err)
	}
}

func TestEnqueueImport(t *testing.T) {
	store := &fakeTxStore{}
	queue := &fakeQueue{}
	svc := newService(store, nil, queue)

	if err := svc.EnqueueImport(context.Background(), "u1", "blob"); err != nil {
		t.Fatalf("EnqueueImport: %v", err)
	}
	if len(queue.published) != 1 {
		t.Errorf("published = %d, want 1", len(queue.published))
	}

	// Without a queue the caller gets a typed error, not a panic.
	noQueue := newService(store, nil, nil)
	if err := noQueue.EnqueueImport(context.Background(), "u1", "blob"); !errors.Is(err, ErrAsyncUnavailable) {
		t.Errorf("err = %v, want ErrAsyncUnavailable", err)
	}
}
