package services

import (
	"fmt"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// ExceededLevel is the notice level for a fully spent budget. The warn
// level is the configured threshold value itself, so a stored notice stays
// comparable against the settings that produced it.
const ExceededLevel = 100

// UsagePercent returns the rounded share of the monthly budget consumed.
// The second return is false when no budget is set.
func UsagePercent(monthTotal, budget int64) (int, bool) {
	if budget <= 0 {
		return 0, false
	}
	return int((monthTotal*100 + budget/2) / budget), true
}

// EvaluateNotice runs the budget notice state machine for one month. A
// notice fires only when the computed level strictly exceeds the level
// already recorded for that month; switching months resets the baseline.
// The caller persists the returned notice before showing it, so a re-render
// can never repeat an alert.
func EvaluateNotice(monthKey string, monthTotal int64, s core.Settings) (core.BudgetNotice, bool) {
	usage, ok := UsagePercent(monthTotal, s.MonthlyBudget)
	if !ok {
		return core.BudgetNotice{}, false
	}
	level := 0
	switch {
	case usage >= ExceededLevel:
		level = ExceededLevel
	case usage >= s.WarnAtPercent:
		level = s.WarnAtPercent
	}
	if level == 0 {
		return core.BudgetNotice{}, false
	}
	prev := 0
	if s.BudgetNotice != nil && s.BudgetNotice.Month == monthKey {
		prev = s.BudgetNotice.Level
	}
	if level <= prev {
		return core.BudgetNotice{}, false
	}
	return core.BudgetNotice{Month: monthKey, Level: level}, true
}

// NoticeMessage renders the user-facing text for a fired notice.
func NoticeMessage(n core.BudgetNotice) string {
	if n.Level >= ExceededLevel {
		return fmt.Sprintf("Budget exceeded for %s.", n.Month)
	}
	return fmt.Sprintf("You've passed %d%% of your budget for %s.", n.Level, n.Month)
}
