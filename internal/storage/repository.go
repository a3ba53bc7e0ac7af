// Package storage persists users and transactions in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"spendtrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrUserNotFound is returned when an email lookup matches no user.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateEmail is returned when an insert trips the UNIQUE
// constraint on users.email.
var ErrDuplicateEmail = errors.New("email already exists")

type (
	// DateTotal is one day bucket.
	DateTotal struct {
		Date  core.Date
		Cents int64
	}

	// MonthTotal is one month bucket; YearMonth is "YYYY-MM".
	MonthTotal struct {
		YearMonth string
		Cents     int64
	}

	// YearTotal is one year bucket.
	YearTotal struct {
		Year  string
		Cents int64
	}

	// CategoryTotal is one category bucket.
	CategoryTotal struct {
		Category string
		Cents    int64
	}
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return r, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash)
	if err != nil {
		// modernc/sqlite exposes constraint failures only through the
		// error text.
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE email = ?`,
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// --- transactions ---

func (r *Repository) InsertTransaction(ctx context.Context, tx *core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (owner, title, amount_cents, category, date, payment_method, ai_generated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.Owner, tx.Title, tx.Amount.Cents, tx.Category, tx.Date.String(), tx.PaymentMethod, tx.AIGenerated)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert transaction id: %w", err)
	}
	tx.ID = id

	slog.DebugContext(ctx, "Transaction saved",
		"id", tx.ID,
		"owner", tx.Owner,
		"amount_cents", tx.Amount.Cents,
		"date", tx.Date.String())
	return nil
}

// InsertTransactionBatch writes all rows inside a single database
// transaction: a chunk either commits whole or not at all.
func (r *Repository) InsertTransactionBatch(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO transactions (owner, title, amount_cents, category, date, payment_method, ai_generated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		if _, err := stmt.ExecContext(ctx,
			tx.Owner, tx.Title, tx.Amount.Cents, tx.Category, tx.Date.String(), tx.PaymentMethod, tx.AIGenerated); err != nil {
			return fmt.Errorf("batch insert row: %w", err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

const txColumns = `id, owner, title, amount_cents, category, date, payment_method, ai_generated`

func (r *Repository) ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE owner = ? ORDER BY date DESC, id DESC`, owner)
}

func (r *Repository) ListRecentTransactions(ctx context.Context, owner string, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE owner = ? ORDER BY date DESC, id DESC LIMIT ?`, owner, limit)
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var date string
		if err := rows.Scan(&tx.ID, &tx.Owner, &tx.Title, &tx.Amount.Cents, &tx.Category, &date, &tx.PaymentMethod, &tx.AIGenerated); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repository) CountTransactions(ctx context.Context, owner string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE owner = ?`, owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// SumSince totals all transactions on or after from.
func (r *Repository) SumSince(ctx context.Context, owner string, from core.Date) (int64, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM transactions WHERE owner = ? AND date >= ?`,
		owner, from.String()).Scan(&cents)
	if err != nil {
		return 0, fmt.Errorf("sum since %s: %w", from, err)
	}
	return cents.Int64, nil
}

// SumBetween totals transactions with from <= date < to.
func (r *Repository) SumBetween(ctx context.Context, owner string, from, to core.Date) (int64, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM transactions WHERE owner = ? AND date >= ? AND date < ?`,
		owner, from.String(), to.String()).Scan(&cents)
	if err != nil {
		return 0, fmt.Errorf("sum between %s and %s: %w", from, to, err)
	}
	return cents.Int64, nil
}

// methodFilter appends an optional payment-method clause. An empty
// method or "ALL" means no filtering.
func methodFilter(method string, args []any) (string, []any) {
	if method == "" || method == "ALL" {
		return "", args
	}
	return " AND payment_method = ?", append(args, method)
}

func (r *Repository) DayTotals(ctx context.Context, owner, method string) ([]DateTotal, error) {
	clause, args := methodFilter(method, []any{owner})
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, SUM(amount_cents) FROM transactions WHERE owner = ?`+clause+
			` GROUP BY date ORDER BY date ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("day totals: %w", err)
	}
	defer rows.Close()

	var out []DateTotal
	for rows.Next() {
		var date string
		var t DateTotal
		if err := rows.Scan(&date, &t.Cents); err != nil {
			return nil, fmt.Errorf("scan day total: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) MonthTotals(ctx context.Context, owner, method string) ([]MonthTotal, error) {
	clause, args := methodFilter(method, []any{owner})
	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(date, 1, 7), SUM(amount_cents) FROM transactions WHERE owner = ?`+clause+
			` GROUP BY substr(date, 1, 7) ORDER BY substr(date, 1, 7) ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("month totals: %w", err)
	}
	defer rows.Close()

	var out []MonthTotal
	for rows.Next() {
		var t MonthTotal
		if err := rows.Scan(&t.YearMonth, &t.Cents); err != nil {
			return nil, fmt.Errorf("scan month total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) YearTotals(ctx context.Context, owner, method string) ([]YearTotal, error) {
	clause, args := methodFilter(method, []any{owner})
	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(date, 1, 4), SUM(amount_cents) FROM transactions WHERE owner = ?`+clause+
			` GROUP BY substr(date, 1, 4) ORDER BY substr(date, 1, 4) ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("year totals: %w", err)
	}
	defer rows.Close()

	var out []YearTotal
	for rows.Next() {
		var t YearTotal
		if err := rows.Scan(&t.Year, &t.Cents); err != nil {
			return nil, fmt.Errorf("scan year total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CategoryTotalsDesc groups by category sorted by total, largest first.
func (r *Repository) CategoryTotalsDesc(ctx context.Context, owner, method string) ([]CategoryTotal, error) {
	clause, args := methodFilter(method, []any{owner})
	return r.queryCategoryTotals(ctx,
		`SELECT category, SUM(amount_cents) AS total FROM transactions WHERE owner = ?`+clause+
			` GROUP BY category ORDER BY total DESC`, args...)
}

// CategoryTotals groups by category with no ordering guarantee.
func (r *Repository) CategoryTotals(ctx context.Context, owner string) ([]CategoryTotal, error) {
	return r.queryCategoryTotals(ctx,
		`SELECT category, SUM(amount_cents) FROM transactions WHERE owner = ? GROUP BY category`, owner)
}

func (r *Repository) queryCategoryTotals(ctx context.Context, query string, args ...any) ([]CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var t CategoryTotal
		if err := rows.Scan(&t.Category, &t.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TopCategory returns the all-time biggest category, or ok=false when
// the owner has no transactions.
func (r *Repository) TopCategory(ctx context.Context, owner string) (CategoryTotal, bool, error) {
	var t CategoryTotal
	err := r.db.QueryRowContext(ctx,
		`SELECT category, SUM(amount_cents) AS total FROM transactions WHERE owner = ?
		 GROUP BY category ORDER BY total DESC LIMIT 1`, owner).Scan(&t.Category, &t.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return CategoryTotal{}, false, nil
	}
	if err != nil {
		return CategoryTotal{}, false, fmt.Errorf("top category: %w", err)
	}
	return t, true, nil
}

// BiggestDaySince returns the single day with the highest total on or
// after since, or ok=false when there are no matching rows.
func (r *Repository) BiggestDaySince(ctx context.Context, owner string, since core.Date) (DateTotal, bool, error) {
	var date string
	var t DateTotal
	err := r.db.QueryRowContext(ctx,
		`SELECT date, SUM(amount_cents) AS total FROM transactions WHERE owner = ? AND date >= ?
		 GROUP BY date ORDER BY total DESC LIMIT 1`, owner, since.String()).Scan(&date, &t.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return DateTotal{}, false, nil
	}
	if err != nil {
		return DateTotal{}, false, fmt.Errorf("biggest day: %w", err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return DateTotal{}, false, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	return t, true, nil
}
