// finboard-dash renders the dashboard once in the terminal: totals,
// month-to-date budget status, the category index and the 14-day
// spending trend, all driven by the same state engine a UI would use.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"finboard/internal/cli"
	"finboard/internal/ledger"
	"finboard/internal/remote"
	"finboard/internal/report"
)

func main() {
	cli.LoadEnvFile()
	// Keep request logging out of the rendered dashboard.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)
	cfg := cli.LoadAndValidateConfig(logger)

	store := ledger.NewStore(remote.NewClient(cfg.APIBaseURL))
	store.SetBudget(cfg.MonthlyBudget)
	if c := strings.TrimSpace(os.Getenv("DASH_CATEGORY")); c != "" {
		store.SetActiveCategory(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store.LoadAll(ctx)
	if msg := store.LastError(); msg != "" {
		fmt.Fprintln(os.Stderr, "error:", msg)
		os.Exit(1)
	}

	now := time.Now()
	totals := store.Totals()

	fmt.Printf("Balance: %s   Income: %s   Expense: %s\n",
		totals.Balance, totals.Income, totals.Expense)

	mtd := store.MonthToDateExpense(now)
	status := "within budget"
	if store.OverBudget(now) {
		status = "OVER BUDGET"
	}
	fmt.Printf("This month: %s of %s (%s)\n\n", mtd, store.Budget(), status)

	fmt.Println("Categories:", strings.Join(store.Categories(), ", "))
	fmt.Println("Filter:    ", store.ActiveCategory())
	fmt.Println()

	printTrend(store, now)
	fmt.Println()
	printTransactions(store)
}

func printTrend(store *ledger.Store, now time.Time) {
	series := store.DailySeries(now)
	if !report.HasTrendData(series) {
		fmt.Println("No expense data in the last 14 days. Add a recent expense to see the trend.")
		return
	}

	var max int64
	for _, p := range series {
		if p.Value.Cents > max {
			max = p.Value.Cents
		}
	}

	fmt.Println("Spending trend (last 14 days):")
	for _, p := range series {
		width := 0
		if max > 0 {
			width = int(p.Value.Cents * 40 / max)
		}
		fmt.Printf("  %s  %-40s %s\n", p.Label, strings.Repeat("#", width), p.Value)
	}
}

func printTransactions(store *ledger.Store) {
	items := store.Filtered()
	if len(items) == 0 {
		fmt.Println("No transactions for this filter.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTITLE\tCATEGORY\tTYPE\tAMOUNT")
	for _, t := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.OccurredAt.Format("2006-01-02"),
			t.Title,
			t.CategoryOrDefault(),
			t.Kind,
			t.Amount)
	}
	w.Flush()
}
