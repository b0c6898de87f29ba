// Package services holds the derived-state computations of the tracker:
// aggregation, renewal scheduling, budget notices, and insight heuristics,
// plus the Tracker that orchestrates them over a storage backend. The
// computation functions are pure; they read only their arguments and are
// safe to re-run.
package services

import (
	"sort"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// MonthTotals bundles the records of one month with their amount sum.
type MonthTotals struct {
	Matching []core.Record
	Total    int64
}

// TotalsForMonth selects the records bucketed under monthKey and sums their
// amounts. Input order is preserved in Matching.
func TotalsForMonth(records []core.Record, monthKey string) MonthTotals {
	var out MonthTotals
	for _, r := range records {
		if r.MonthKey == monthKey {
			out.Matching = append(out.Matching, r)
			out.Total += r.Amount
		}
	}
	return out
}

// TotalsForDay sums the amounts recorded on an exact date.
func TotalsForDay(records []core.Record, date string) int64 {
	var total int64
	for _, r := range records {
		if r.Date == date {
			total += r.Amount
		}
	}
	return total
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
}

// CategoryBreakdown folds records into per-category sums, ordered by amount
// descending. Ties keep the order categories were first encountered in.
func CategoryBreakdown(records []core.Record) []CategoryTotal {
	totals := make(map[string]int64, len(records))
	var order []string
	for _, r := range records {
		if _, seen := totals[r.Category]; !seen {
			order = append(order, r.Category)
		}
		totals[r.Category] += r.Amount
	}
	out := make([]CategoryTotal, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryTotal{Category: c, Total: totals[c]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}
