package insights

import (
	"context"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// fakeStore returns canned aggregates keyed by the query windows the
// service is expected to use.
type fakeStore struct {
	days       []storage.DateTotal
	months     []storage.MonthTotal
	years      []storage.YearTotal
	catsDesc   []storage.CategoryTotal
	cats       []storage.CategoryTotal
	top        storage.CategoryTotal
	hasTop     bool
	biggest    storage.DateTotal
	hasBiggest bool
	sums       map[string]int64 // keyed by "from" or "from..to"
	count      int64
	recent     []core.Transaction

	gotMethod string
}

func (f *fakeStore) DayTotals(ctx context.Context, owner, method string) ([]storage.DateTotal, error) {
	f.gotMethod = method
	return f.days, nil
}
func (f *fakeStore) MonthTotals(ctx context.Context, owner, method string) ([]storage.MonthTotal, error) {
	f.gotMethod = method
	return f.months, nil
}
func (f *fakeStore) YearTotals(ctx context.Context, owner, method string) ([]storage.YearTotal, error) {
	return f.years, nil
}
func (f *fakeStore) CategoryTotalsDesc(ctx context.Context, owner, method string) ([]storage.CategoryTotal, error) {
	return f.catsDesc, nil
}
func (f *fakeStore) CategoryTotals(ctx context.Context, owner string) ([]storage.CategoryTotal, error) {
	return f.cats, nil
}
func (f *fakeStore) TopCategory(ctx context.Context, owner string) (storage.CategoryTotal, bool, error) {
	return f.top, f.hasTop, nil
}
func (f *fakeStore) BiggestDaySince(ctx context.Context, owner string, since core.Date) (storage.DateTotal, bool, error) {
	return f.biggest, f.hasBiggest, nil
}
func (f *fakeStore) SumSince(ctx context.Context, owner string, from core.Date) (int64, error) {
	return f.sums[from.String()], nil
}
func (f *fakeStore) SumBetween(ctx context.Context, owner string, from, to core.Date) (int64, error) {
	return f.sums[from.String()+".."+to.String()], nil
}
func (f *fakeStore) CountTransactions(ctx context.Context, owner string) (int64, error) {
	return f.count, nil
}
func (f *fakeStore) ListRecentTransactions(ctx context.Context, owner string, limit int) ([]core.Transaction, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

// Fixed clock: 15 March 2026.
func fixedNow() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func TestDailyLabels(t *testing.T) {
	store := &fakeStore{days: []storage.DateTotal{
		{Date: core.NewDate(2025, 12, 4), Cents: 5500},
		{Date: core.NewDate(2025, 12, 5), Cents: 4000},
	}}
	svc := NewServiceWithClock(store, fixedNow)

	series, err := svc.Daily(context.Background(), "u1", "phonepe")
	if err != nil {
		t.Fatalf("Daily: %v", err)
	}
	if store.gotMethod != "PHONEPE" {
		t.Errorf("method passed to store = %s, want PHONEPE", store.gotMethod)
	}
	if len(series) != 2 {
		t.Fatalf("series length = %d, want 2", len(series))
	}
	if series[0].Label != "04/12/2025" || series[0].Value != 55 {
		t.Errorf("series[0] = %+v, want 04/12/2025 / 55", series[0])
	}
}

func TestMonthlyLabels(t *testing.T) {
	store := &fakeStore{months: []storage.MonthTotal{
		{YearMonth: "2025-11", Cents: 100000},
		{YearMonth: "2025-12", Cents: 120000},
	}}
	svc := NewServiceWithClock(store, fixedNow)

	series, err := svc.Monthly(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if series[0].Label != "11/2025" {
		t.Errorf("label = %s, want 11/2025", series[0].Label)
	}
	if series[1].Value != 1200 {
		t.Errorf("value = %v, want 1200", series[1].Value)
	}
}

func TestYearlyLabels(t *testing.T) {
	store := &fakeStore{years: []storage.YearTotal{{Year: "2025", Cents: 500000}}}
	svc := NewServiceWithClock(store, fixedNow)

	series, err := svc.Yearly(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("Yearly: %v", err)
	}
	if series[0].Label != "2025" || series[0].Value != 5000 {
		t.Errorf("series[0] = %+v, want 2025 / 5000", series[0])
	}
}

func TestSummarizeChange(t *testing.T) {
	store := &fakeStore{
		sums: map[string]int64{
			"2026-03-01":             120000, // this month
			"2026-02-01..2026-03-01": 100000, // previous month
		},
		top:    storage.CategoryTotal{Category: "Food", Cents: 80000},
		hasTop: true,
	}
	svc := NewServiceWithClock(store, fixedNow)

	sum, err := svc.Summarize(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.ThisMonthTotal != 1200 || sum.PrevMonthTotal != 1000 {
		t.Fatalf("totals = %v / %v, want 1200 / 1000", sum.ThisMonthTotal, sum.PrevMonthTotal)
	}
	if sum.ChangePercent == nil || *sum.ChangePercent != 20.0 {
		t.Fatalf("changePercent = %v, want 20.0", sum.ChangePercent)
	}
	if !strings.Contains(sum.Summary, "more") || strings.Contains(sum.Summary, "less") {
		t.Errorf("narrative = %q, want a 'more' clause", sum.Summary)
	}
	if !strings.Contains(sum.Summary, "Food") {
		t.Errorf("narrative = %q, want top category clause", sum.Summary)
	}
}

func TestSummarizeNoBaseline(t *testing.T) {
	store := &fakeStore{
		sums: map[string]int64{"2026-03-01": 50000},
	}
	svc := NewServiceWithClock(store, fixedNow)

	sum, err := svc.Summarize(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	// Undefined without a previous-month baseline, even with spending now.
	if sum.ChangePercent != nil {
		t.Errorf("changePercent = %v, want nil", *sum.ChangePercent)
	}
	if strings.Contains(sum.Summary, "than last month") {
		t.Errorf("narrative = %q, should omit comparison clause", sum.Summary)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	store := &fakeStore{sums: map[string]int64{}}
	svc := NewServiceWithClock(store, fixedNow)

	sum, err := svc.Summarize(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Summary != "No spending data yet. Start adding transactions to see insights." {
		t.Errorf("narrative = %q", sum.Summary)
	}
}

func TestSummarizeLess(t *testing.T) {
	store := &fakeStore{
		sums: map[string]int64{
			"2026-03-01":             50000,
			"2026-02-01..2026-03-01": 100000,
		},
	}
	svc := NewServiceWithClock(store, fixedNow)

	sum, err := svc.Summarize(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.ChangePercent == nil || *sum.ChangePercent != -50.0 {
		t.Fatalf("changePercent = %v, want -50.0", sum.ChangePercent)
	}
	if !strings.Contains(sum.Summary, "50.0% less") {
		t.Errorf("narrative = %q, want '50.0%% less'", sum.Summary)
	}
}

func TestDashboardStats(t *testing.T) {
	store := &fakeStore{
		sums: map[string]int64{
			"2026-03-15": 4500,   // today
			"2026-03-01": 120000, // this month
			"2026-01-01": 500000, // this year
		},
		count: 42,
		cats:  []storage.CategoryTotal{{Category: "Food", Cents: 80000}},
		recent: []core.Transaction{
			{ID: 9, Title: "Chai", Amount: core.Money{Cents: 1500}},
			{ID: 8}, {ID: 7}, {ID: 6}, {ID: 5}, {ID: 4},
		},
	}
	svc := NewServiceWithClock(store, fixedNow)

	dash, err := svc.DashboardStats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if dash.DailyTotal != 45 || dash.MonthlyTotal != 1200 || dash.YearlyTotal != 5000 {
		t.Errorf("totals = %v/%v/%v", dash.DailyTotal, dash.MonthlyTotal, dash.YearlyTotal)
	}
	if dash.TxCount != 42 {
		t.Errorf("txCount = %d, want 42", dash.TxCount)
	}
	if len(dash.LastFive) != 5 {
		t.Errorf("lastFive length = %d, want 5", len(dash.LastFive))
	}
	if len(dash.CategoryTotals) != 1 || dash.CategoryTotals[0].Total != 800 {
		t.Errorf("categoryTotals = %+v", dash.CategoryTotals)
	}
}
