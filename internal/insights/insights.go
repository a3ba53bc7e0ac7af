// Package insights computes time-bucketed and category-bucketed
// spending totals and the month-over-month narrative for one owner.
//
// Every read recomputes from the stored record set; nothing here is
// cached.
package insights

import (
	"context"
	"fmt"
	"math"
	"time"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

// Store is the read-side of the transaction repository the engine
// needs. *storage.Repository satisfies it.
type Store interface {
	DayTotals(ctx context.Context, owner, method string) ([]storage.DateTotal, error)
	MonthTotals(ctx context.Context, owner, method string) ([]storage.MonthTotal, error)
	YearTotals(ctx context.Context, owner, method string) ([]storage.YearTotal, error)
	CategoryTotalsDesc(ctx context.Context, owner, method string) ([]storage.CategoryTotal, error)
	CategoryTotals(ctx context.Context, owner string) ([]storage.CategoryTotal, error)
	TopCategory(ctx context.Context, owner string) (storage.CategoryTotal, bool, error)
	BiggestDaySince(ctx context.Context, owner string, since core.Date) (storage.DateTotal, bool, error)
	SumSince(ctx context.Context, owner string, from core.Date) (int64, error)
	SumBetween(ctx context.Context, owner string, from, to core.Date) (int64, error)
	CountTransactions(ctx context.Context, owner string) (int64, error)
	ListRecentTransactions(ctx context.Context, owner string, limit int) ([]core.Transaction, error)
}

type (
	// SeriesPoint is one bucket of a time series.
	SeriesPoint struct {
		Label string  `json:"label"`
		Value float64 `json:"value"`
	}

	// CategoryTotal is one bucket of the category series.
	CategoryTotal struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	// DayTotal labels a single calendar day with its summed total.
	DayTotal struct {
		Date  string  `json:"date"`
		Total float64 `json:"total"`
	}

	// Summary is the month-over-month comparative report.
	Summary struct {
		ThisMonthTotal float64        `json:"thisMonthTotal"`
		PrevMonthTotal float64        `json:"prevMonthTotal"`
		ChangePercent  *float64       `json:"changePercent"`
		TopCategory    *CategoryTotal `json:"topCategory"`
		BiggestDay     *DayTotal      `json:"biggestDay"`
		Summary        string         `json:"summary"`
	}

	// Dashboard aggregates the landing-page numbers.
	Dashboard struct {
		DailyTotal     float64            `json:"dailyTotal"`
		MonthlyTotal   float64            `json:"monthlyTotal"`
		YearlyTotal    float64            `json:"yearlyTotal"`
		TxCount        int64              `json:"txCount"`
		CategoryTotals []CategoryTotal    `json:"categoryTotals"`
		LastFive       []core.Transaction `json:"lastFive"`
	}
)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// NewServiceWithClock pins "now" for deterministic summaries in tests.
func NewServiceWithClock(store Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

func units(cents int64) float64 {
	return float64(cents) / 100.0
}

// Daily returns per-day totals sorted ascending, labeled DD/MM/YYYY.
func (s *Service) Daily(ctx context.Context, owner, method string) ([]SeriesPoint, error) {
	totals, err := s.store.DayTotals(ctx, owner, core.NormalizeMethod(method))
	if err != nil {
		return nil, err
	}
	series := make([]SeriesPoint, 0, len(totals))
	for _, t := range totals {
		series = append(series, SeriesPoint{Label: t.Date.Label(), Value: units(t.Cents)})
	}
	return series, nil
}

// Monthly returns per-month totals sorted ascending, labeled MM/YYYY.
func (s *Service) Monthly(ctx context.Context, owner, method string) ([]SeriesPoint, error) {
	totals, err := s.store.MonthTotals(ctx, owner, core.NormalizeMethod(method))
	if err != nil {
		return nil, err
	}
	series := make([]SeriesPoint, 0, len(totals))
	for _, t := range totals {
		// YearMonth is "YYYY-MM"; display form is MM/YYYY.
		label := t.YearMonth
		if len(label) == 7 {
			label = label[5:7] + "/" + label[0:4]
		}
		series = append(series, SeriesPoint{Label: label, Value: units(t.Cents)})
	}
	return series, nil
}

// Yearly returns per-year totals sorted ascending, labeled YYYY.
func (s *Service) Yearly(ctx context.Context, owner, method string) ([]SeriesPoint, error) {
	totals, err := s.store.YearTotals(ctx, owner, core.NormalizeMethod(method))
	if err != nil {
		return nil, err
	}
	series := make([]SeriesPoint, 0, len(totals))
	for _, t := range totals {
		series = append(series, SeriesPoint{Label: t.Year, Value: units(t.Cents)})
	}
	return series, nil
}

// Categories returns per-category totals, largest first.
func (s *Service) Categories(ctx context.Context, owner, method string) ([]CategoryTotal, error) {
	totals, err := s.store.CategoryTotalsDesc(ctx, owner, core.NormalizeMethod(method))
	if err != nil {
		return nil, err
	}
	series := make([]CategoryTotal, 0, len(totals))
	for _, t := range totals {
		series = append(series, CategoryTotal{Category: t.Category, Total: units(t.Cents)})
	}
	return series, nil
}

// Summarize compares the current calendar month against the previous
// one and builds the narrative sentence.
func (s *Service) Summarize(ctx context.Context, owner string) (Summary, error) {
	now := s.now()
	startOfThisMonth := core.NewDate(now.Year(), int(now.Month()), 1)
	startOfPrevMonth := core.NewDate(now.Year(), int(now.Month())-1, 1)

	thisCents, err := s.store.SumSince(ctx, owner, startOfThisMonth)
	if err != nil {
		return Summary{}, err
	}
	prevCents, err := s.store.SumBetween(ctx, owner, startOfPrevMonth, startOfThisMonth)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		ThisMonthTotal: units(thisCents),
		PrevMonthTotal: units(prevCents),
	}

	// Percent change is undefined (null, not zero) without a baseline.
	if prevCents > 0 {
		change := (sum.ThisMonthTotal - sum.PrevMonthTotal) / sum.PrevMonthTotal * 100
		sum.ChangePercent = &change
	}

	if top, ok, err := s.store.TopCategory(ctx, owner); err != nil {
		return Summary{}, err
	} else if ok {
		sum.TopCategory = &CategoryTotal{Category: top.Category, Total: units(top.Cents)}
	}

	sixtyDaysAgo := core.DateOf(now.AddDate(0, 0, -60))
	if day, ok, err := s.store.BiggestDaySince(ctx, owner, sixtyDaysAgo); err != nil {
		return Summary{}, err
	} else if ok {
		sum.BiggestDay = &DayTotal{Date: day.Date.Label(), Total: units(day.Cents)}
	}

	sum.Summary = narrative(sum)
	return sum, nil
}

// narrative builds the human-readable sentence, omitting each clause
// whose underlying value is unavailable.
func narrative(sum Summary) string {
	if sum.ThisMonthTotal == 0 && sum.PrevMonthTotal == 0 {
		return "No spending data yet. Start adding transactions to see insights."
	}
	text := fmt.Sprintf("You have spent approximately %.0f this month.", sum.ThisMonthTotal)
	if sum.ChangePercent != nil {
		dir := "more"
		if *sum.ChangePercent < 0 {
			dir = "less"
		}
		text += fmt.Sprintf(" That is %.1f%% %s than last month.", math.Abs(*sum.ChangePercent), dir)
	}
	if sum.TopCategory != nil {
		text += fmt.Sprintf(" Your top category overall is %s (%.0f).", sum.TopCategory.Category, sum.TopCategory.Total)
	}
	if sum.BiggestDay != nil {
		text += fmt.Sprintf(" Your biggest single day in the last 60 days was %s (%.0f).", sum.BiggestDay.Date, sum.BiggestDay.Total)
	}
	return text
}

// DashboardStats assembles the landing-page totals and the five most
// recent transactions.
func (s *Service) DashboardStats(ctx context.Context, owner string) (Dashboard, error) {
	now := s.now()
	startOfDay := core.DateOf(now)
	startOfMonth := core.NewDate(now.Year(), int(now.Month()), 1)
	startOfYear := core.NewDate(now.Year(), 1, 1)

	dash := Dashboard{}

	dailyCents, err := s.store.SumSince(ctx, owner, startOfDay)
	if err != nil {
		return Dashboard{}, err
	}
	monthlyCents, err := s.store.SumSince(ctx, owner, startOfMonth)
	if err != nil {
		return Dashboard{}, err
	}
	yearlyCents, err := s.store.SumSince(ctx, owner, startOfYear)
	if err != nil {
		return Dashboard{}, err
	}
	dash.DailyTotal = units(dailyCents)
	dash.MonthlyTotal = units(monthlyCents)
	dash.YearlyTotal = units(yearlyCents)

	if dash.TxCount, err = s.store.CountTransactions(ctx, owner); err != nil {
		return Dashboard{}, err
	}

	cats, err := s.store.CategoryTotals(ctx, owner)
	if err != nil {
		return Dashboard{}, err
	}
	dash.CategoryTotals = make([]CategoryTotal, 0, len(cats))
	for _, c := range cats {
		dash.CategoryTotals = append(dash.CategoryTotals, CategoryTotal{Category: c.Category, Total: units(c.Cents)})
	}

	if dash.LastFive, err = s.store.ListRecentTransactions(ctx, owner, 5); err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}
