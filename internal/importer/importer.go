// Package importer converts CSV-style text blobs into stored
// transactions.
//
// Import is best-effort: malformed rows are skipped and reported, never
// fatal. Writes are committed in fixed-size chunks, each chunk inside
// one store transaction, so a mid-import store failure leaves prior
// chunks durable and aborts the rest.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"spendtrack/internal/core"
)

// Expected row shape: date, amount, title, paymentMethod?
// Example: 2025-12-04,55,Zomato,PHONEPE

const DefaultChunkSize = 100

// Skip reasons reported per dropped row.
const (
	ReasonTooFewFields  = "too few fields"
	ReasonInvalidAmount = "invalid amount"
	ReasonInvalidDate   = "invalid date"
	ReasonEmptyTitle    = "empty title"
)

var lineSplitRe = regexp.MustCompile(`\r?\n`)

// BatchWriter persists a chunk of rows atomically.
type BatchWriter interface {
	InsertTransactionBatch(ctx context.Context, txs []core.Transaction) error
}

// SkippedRow identifies a dropped input line (1-based) and why.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result reports what an import run did.
type Result struct {
	Created int          `json:"created"`
	Skipped []SkippedRow `json:"skipped"`
}

type Importer struct {
	store     BatchWriter
	chunkSize int
}

func New(store BatchWriter, chunkSize int) *Importer {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Importer{store: store, chunkSize: chunkSize}
}

// Import ingests a multi-line blob for one owner. Rows that fail to
// parse are skipped and collected in the result; a store failure
// returns the partial result alongside the error.
func (imp *Importer) Import(ctx context.Context, owner, blob string) (Result, error) {
	var res Result
	var pending []core.Transaction

	lineNo := 0
	for _, raw := range lineSplitRe.Split(blob, -1) {
		lineNo++
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		tx, reason := parseRow(owner, line)
		if reason != "" {
			res.Skipped = append(res.Skipped, SkippedRow{Line: lineNo, Reason: reason})
			continue
		}
		pending = append(pending, tx)
		if len(pending) >= imp.chunkSize {
			if err := imp.flush(ctx, &res, pending); err != nil {
				return res, err
			}
			pending = pending[:0]
		}
	}
	if len(pending) > 0 {
		if err := imp.flush(ctx, &res, pending); err != nil {
			return res, err
		}
	}

	slog.InfoContext(ctx, "Import finished",
		"owner", owner,
		"created", res.Created,
		"skipped", len(res.Skipped))
	return res, nil
}

func (imp *Importer) flush(ctx context.Context, res *Result, chunk []core.Transaction) error {
	if err := imp.store.InsertTransactionBatch(ctx, chunk); err != nil {
		return fmt.Errorf("insert chunk of %d rows: %w", len(chunk), err)
	}
	res.Created += len(chunk)
	return nil
}

// parseRow converts one comma-separated line into a transaction, or
// returns a non-empty skip reason.
func parseRow(owner, line string) (core.Transaction, string) {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		return core.Transaction{}, ReasonTooFewFields
	}

	cents, err := core.ParseAmountToCents(parts[1])
	if err != nil {
		return core.Transaction{}, ReasonInvalidAmount
	}

	date, err := core.ParseDate(parts[0])
	if err != nil {
		return core.Transaction{}, ReasonInvalidDate
	}

	method := core.InferMethod(line)
	if len(parts) >= 4 && parts[3] != "" {
		method = core.NormalizeMethod(parts[3])
	}

	tx := core.Transaction{
		Owner:         owner,
		Title:         parts[2],
		Amount:        core.Money{Cents: cents},
		Category:      core.ImportedCategory,
		Date:          date,
		PaymentMethod: method,
	}
	// Same invariants as every other ingestion path. Field parsing
	// above cannot catch an empty title or a zero amount ("0" parses).
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, skipReason(err)
	}
	return tx, ""
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyTitle):
		return ReasonEmptyTitle
	case errors.Is(err, core.ErrInvalidAmount):
		return ReasonInvalidAmount
	case errors.Is(err, core.ErrMissingDate):
		return ReasonInvalidDate
	default:
		return err.Error()
	}
}
