package services

import (
	"testing"

	"github.com/evansmunsha/expense-guard/internal/core"
)

func TestUsagePercent(t *testing.T) {
	cases := []struct {
		total  int64
		budget int64
		want   int
		ok     bool
	}{
		{7000, 10000, 70, true},
		{8500, 10000, 85, true},
		{10100, 10000, 101, true},
		{0, 10000, 0, true},
		{50, 10000, 1, true}, // 0.5% rounds up
		{5000, 0, 0, false},  // no budget set
	}
	for _, tc := range cases {
		got, ok := UsagePercent(tc.total, tc.budget)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("UsagePercent(%d, %d) = (%d, %v), want (%d, %v)", tc.total, tc.budget, got, ok, tc.want, tc.ok)
		}
	}
}

// The machine fires at most once per (month, level) pair and only escalates.
func TestNoticeSequence(t *testing.T) {
	s := core.DefaultSettings()
	s.MonthlyBudget = 10000
	s.WarnAtPercent = 80

	steps := []struct {
		total     int64
		wantFire  bool
		wantLevel int
	}{
		{7000, false, 0},
		{8500, true, 80},
		{8500, false, 0},
		{10100, true, 100},
		{10100, false, 0},
	}
	for i, step := range steps {
		notice, fired := EvaluateNotice("2026-02", step.total, s)
		if fired != step.wantFire {
			t.Fatalf("step %d: fired = %v, want %v", i, fired, step.wantFire)
		}
		if fired {
			if notice.Level != step.wantLevel || notice.Month != "2026-02" {
				t.Fatalf("step %d: notice = %+v, want level %d", i, notice, step.wantLevel)
			}
			// Persisting the fired notice is what suppresses the next pass.
			n := notice
			s.BudgetNotice = &n
		}
	}
}

func TestNoticeMonthSwitchResets(t *testing.T) {
	s := core.DefaultSettings()
	s.MonthlyBudget = 10000
	s.BudgetNotice = &core.BudgetNotice{Month: "2026-01", Level: 100}

	// Same usage, new month: fires again from a clean baseline.
	notice, fired := EvaluateNotice("2026-02", 8500, s)
	if !fired || notice.Level != 80 {
		t.Fatalf("expected warn to fire for the new month, got (%+v, %v)", notice, fired)
	}
}

func TestNoticeNeverDowngrades(t *testing.T) {
	s := core.DefaultSettings()
	s.MonthlyBudget = 10000
	s.BudgetNotice = &core.BudgetNotice{Month: "2026-02", Level: 100}

	// Usage fell back under the warn line after an exceeded notice; nothing
	// new fires this month.
	if _, fired := EvaluateNotice("2026-02", 8500, s); fired {
		t.Fatal("warn must not fire after exceeded was recorded")
	}
}

func TestNoticeWithoutBudget(t *testing.T) {
	s := core.DefaultSettings() // MonthlyBudget zero
	if _, fired := EvaluateNotice("2026-02", 999999, s); fired {
		t.Fatal("no budget set, nothing should fire")
	}
}

func TestNoticeMessage(t *testing.T) {
	warn := NoticeMessage(core.BudgetNotice{Month: "2026-02", Level: 80})
	if warn != "You've passed 80% of your budget for 2026-02." {
		t.Fatalf("warn text = %q", warn)
	}
	exceeded := NoticeMessage(core.BudgetNotice{Month: "2026-02", Level: 100})
	if exceeded != "Budget exceeded for 2026-02." {
		t.Fatalf("exceeded text = %q", exceeded)
	}
}
