// Package report derives read-only views from a slice of transactions:
// running totals, the category index, the filtered view, month-to-date
// spend and the 14-day expense trend. Every function is pure; callers
// recompute on read instead of holding derived state that could drift
// from the ledger.
package report

import (
	"sort"
	"time"

	"finboard/internal/core"
)

// AllCategories is the filter sentinel meaning "no filter".
const AllCategories = "All"

// TrendDays is the width of the daily expense series.
const TrendDays = 14

// Totals holds the ledger-wide sums. Balance is always derived, never
// stored.
type Totals struct {
	Income  core.Money
	Expense core.Money
	Balance core.Money
}

// SeriesPoint is one calendar-day bucket of the expense trend.
type SeriesPoint struct {
	Day   time.Time
	Label string
	Value core.Money
}

// ComputeTotals sums income and expense amounts over the whole ledger.
func ComputeTotals(items []core.Transaction) Totals {
	var t Totals
	for _, it := range items {
		switch it.Kind {
		case core.Income:
			t.Income.Cents += it.Amount.Cents
		case core.Expense:
			t.Expense.Cents += it.Amount.Cents
		}
	}
	t.Balance.Cents = t.Income.Cents - t.Expense.Cents
	return t
}

// Categories returns the distinct categories present in the ledger,
// sorted ascending, with AllCategories prepended.
func Categories(items []core.Transaction) []string {
	seen := map[string]struct{}{}
	for _, it := range items {
		if c := it.Category; c != "" {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen)+1)
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return append([]string{AllCategories}, out...)
}

// Filter returns the subsequence of items whose category matches. The
// sentinel AllCategories returns the input unchanged. Records without a
// category count as core.DefaultCategory. A filter naming a category no
// longer present yields an empty result; there is no fallback to "All".
func Filter(items []core.Transaction, category string) []core.Transaction {
	if category == AllCategories {
		return items
	}
	out := make([]core.Transaction, 0)
	for _, it := range items {
		if it.CategoryOrDefault() == category {
			out = append(out, it)
		}
	}
	return out
}

// MonthToDateExpense sums expenses whose occurrence date falls in the
// same calendar month and year as ref. Calendar math uses ref's
// location; record timestamps are converted into it first.
func MonthToDateExpense(items []core.Transaction, ref time.Time) core.Money {
	loc := ref.Location()
	var sum core.Money
	for _, it := range items {
		if it.Kind != core.Expense {
			continue
		}
		d := it.OccurredAt.In(loc)
		if d.Year() == ref.Year() && d.Month() == ref.Month() {
			sum.Cents += it.Amount.Cents
		}
	}
	return sum
}

// DailyExpenseSeries buckets expense amounts into exactly TrendDays
// calendar days ending at ref, oldest first. Every bucket exists even
// when no transaction falls on it, so the series always has TrendDays
// points. Income records and anything outside the window are ignored.
// Day boundaries follow ref's location.
func DailyExpenseSeries(items []core.Transaction, ref time.Time) []SeriesPoint {
	loc := ref.Location()
	end := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)

	series := make([]SeriesPoint, TrendDays)
	index := make(map[string]int, TrendDays)
	for i := 0; i < TrendDays; i++ {
		day := end.AddDate(0, 0, i-(TrendDays-1))
		key := day.Format("2006-01-02")
		series[i] = SeriesPoint{Day: day, Label: day.Format("01-02")}
		index[key] = i
	}

	for _, it := range items {
		if it.Kind != core.Expense {
			continue
		}
		key := it.OccurredAt.In(loc).Format("2006-01-02")
		if i, ok := index[key]; ok {
			series[i].Value.Cents += it.Amount.Cents
		}
	}
	return series
}

// HasTrendData reports whether at least one bucket is above zero. The
// presentation layer uses it to choose between the chart and an
// empty-state message.
func HasTrendData(series []SeriesPoint) bool {
	for _, p := range series {
		if p.Value.Cents > 0 {
			return true
		}
	}
	return false
}

// OverBudget reports whether month-to-date spend strictly exceeds the
// budget. Spending exactly the budget is not over.
func OverBudget(monthToDate, budget core.Money) bool {
	return monthToDate.Cents > budget.Cents
}
