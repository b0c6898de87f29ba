package services

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// InsightKind tags each observation so renderers can style them.
type InsightKind string

const (
	InsightBudgetUsage   InsightKind = "budget_usage"
	InsightDailyAverage  InsightKind = "daily_average"
	InsightTrend         InsightKind = "trend"
	InsightTopCategory   InsightKind = "top_category"
	InsightSubscriptions InsightKind = "subscriptions"
	InsightRecurring     InsightKind = "recurring_charge"
)

// Insight is one human-readable spending observation.
type Insight struct {
	Kind InsightKind `json:"kind"`
	Text string      `json:"text"`
}

// InsightInput is the snapshot an insight pass reads. Nothing else is
// consulted, so the same input always produces the same list.
type InsightInput struct {
	Records  []core.Record
	MonthKey string
	Today    string
	Settings core.Settings
}

const (
	recurringWindowDays = 60
	recurringThreshold  = 3
	labelDisplayLimit   = 40
)

// BuildInsights produces the ordered observation list for a month. Each
// observation is computed independently and left out when its precondition
// does not hold.
func BuildInsights(in InsightInput) []Insight {
	var out []Insight
	month := TotalsForMonth(in.Records, in.MonthKey)
	currency := in.Settings.Currency

	if usage, ok := UsagePercent(month.Total, in.Settings.MonthlyBudget); ok && month.Total > 0 {
		out = append(out, Insight{
			Kind: InsightBudgetUsage,
			Text: fmt.Sprintf("You've used %d%% of your monthly budget.", usage),
		})
	}

	if month.Total > 0 {
		if days := daysElapsed(in.MonthKey, in.Today); days > 0 {
			avg := (month.Total + int64(days)/2) / int64(days)
			out = append(out, Insight{
				Kind: InsightDailyAverage,
				Text: fmt.Sprintf("You're averaging %s per day this month.", core.FormatMoney(avg, currency)),
			})
		}
	}

	prev := TotalsForMonth(in.Records, core.PreviousMonthKey(in.MonthKey))
	if prev.Total > 0 && month.Total > 0 {
		delta := int(math.Round(float64(month.Total-prev.Total) / float64(prev.Total) * 100))
		switch {
		case delta == 0:
			out = append(out, Insight{Kind: InsightTrend, Text: "Spending is flat compared to last month."})
		case delta > 0:
			out = append(out, Insight{Kind: InsightTrend, Text: fmt.Sprintf("Spending is up %d%% compared to last month.", delta)})
		default:
			out = append(out, Insight{Kind: InsightTrend, Text: fmt.Sprintf("Spending is down %d%% compared to last month.", -delta)})
		}
	}

	if cats := CategoryBreakdown(month.Matching); len(cats) > 0 {
		text := fmt.Sprintf("Top category: %s (%s)", cats[0].Category, core.FormatMoney(cats[0].Total, currency))
		if len(cats) > 1 {
			text += fmt.Sprintf(", followed by %s (%s)", cats[1].Category, core.FormatMoney(cats[1].Total, currency))
		}
		out = append(out, Insight{Kind: InsightTopCategory, Text: text + "."})
	}

	subs := 0
	for _, r := range in.Records {
		if r.IsSubscription {
			subs++
		}
	}
	if subs == 0 {
		out = append(out, Insight{
			Kind: InsightSubscriptions,
			Text: "Tip: mark recurring charges as subscriptions to track their renewals.",
		})
	} else {
		noun := "subscriptions"
		if subs == 1 {
			noun = "subscription"
		}
		out = append(out, Insight{
			Kind: InsightSubscriptions,
			Text: fmt.Sprintf("You're tracking %d %s.", subs, noun),
		})
	}

	if label, ok := recurringLabel(in.Records, in.Today); ok {
		out = append(out, Insight{
			Kind: InsightRecurring,
			Text: fmt.Sprintf("%q keeps showing up. Worth marking it as a subscription?", label),
		})
	}

	return out
}

// daysElapsed is the divisor for the daily average: the day of month when
// the queried month is still running, the full day count otherwise.
func daysElapsed(monthKey, today string) int {
	if monthKey == core.MonthKeyOf(today) {
		return core.DayOfMonth(today)
	}
	t, err := core.ParseDate(monthKey + "-01")
	if err != nil {
		return 0
	}
	return core.DaysInMonth(t.Year(), t.Month())
}

// recurringLabel scans non-subscription records inside the trailing window
// and reports the first normalized label to reach the occurrence threshold.
func recurringLabel(records []core.Record, today string) (string, bool) {
	start := core.AddDays(today, -recurringWindowDays)
	if start == "" {
		return "", false
	}
	counts := make(map[string]int)
	for _, r := range records {
		if r.IsSubscription {
			continue
		}
		if r.Date < start || r.Date > today {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(r.Note))
		if label == "" {
			label = strings.ToLower(strings.TrimSpace(r.Category))
		}
		if label == "" {
			continue
		}
		counts[label]++
		if counts[label] == recurringThreshold {
			return truncateLabel(label), true
		}
	}
	return "", false
}

func truncateLabel(label string) string {
	if utf8.RuneCountInString(label) <= labelDisplayLimit {
		return label
	}
	runes := []rune(label)
	return string(runes[:labelDisplayLimit]) + "…"
}
