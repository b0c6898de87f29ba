package services

import (
	"testing"

	"github.com/evansmunsha/expense-guard/internal/core"
)

func TestNextRenewal(t *testing.T) {
	tests := []struct {
		name   string
		anchor string
		days   int
		today  string
		want   string
		wantOK bool
	}{
		{"far past anchor lands on first offset at or after today", "2026-01-01", 30, "2026-03-01", "2026-03-02", true},
		{"anchor today is the occurrence", "2026-03-01", 30, "2026-03-01", "2026-03-01", true},
		{"future anchor is the occurrence", "2026-03-15", 30, "2026-03-01", "2026-03-15", true},
		{"exact multiple lands on today", "2026-01-01", 30, "2026-03-02", "2026-03-02", true},
		{"daily cadence", "2026-02-27", 1, "2026-03-01", "2026-03-01", true},
		{"anchor years back", "2020-01-01", 30, "2026-03-01", "2026-03-30", true},
		{"no cadence", "2026-01-01", 0, "2026-03-01", "", false},
		{"no anchor", "", 30, "2026-03-01", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := core.Record{Date: tt.anchor, RenewalDays: tt.days, IsSubscription: true}
			got, ok := NextRenewal(r, tt.today)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("NextRenewal = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
			if ok && core.DaysBetween(tt.today, got) < 0 {
				t.Fatalf("projected date %s is before today %s", got, tt.today)
			}
		})
	}
}

func TestNextRenewalStepArithmetic(t *testing.T) {
	// 2020-01-01 to 2026-03-01 is 2251 days; ceil(2251/30) = 76 steps of 30
	// days lands 2280 days out.
	r := core.Record{Date: "2020-01-01", RenewalDays: 30, IsSubscription: true}
	got, ok := NextRenewal(r, "2026-03-01")
	if !ok {
		t.Fatal("expected schedulable")
	}
	if want := core.AddDays("2020-01-01", 76*30); got != want {
		t.Fatalf("next = %s, want %s", got, want)
	}
}

func TestClassifyRenewal(t *testing.T) {
	today := "2026-03-01"
	cases := []struct {
		next string
		want RenewalStatus
	}{
		{"2026-02-28", StatusOverdue},
		{"2026-03-01", StatusUpcoming},
		{"2026-03-04", StatusUpcoming}, // edge of the window
		{"2026-03-05", StatusScheduled},
		{"2026-06-01", StatusScheduled},
	}
	for _, tc := range cases {
		if got := ClassifyRenewal(tc.next, today, DefaultLookaheadDays); got != tc.want {
			t.Fatalf("ClassifyRenewal(%s) = %s, want %s", tc.next, got, tc.want)
		}
	}
}

func TestSubscriptionSchedule(t *testing.T) {
	broken := sub("broken", "2026-01-05", 30, 999)
	broken.RenewalDays = 0 // not schedulable
	records := []core.Record{
		sub("far", "2026-01-01", 90, 999),   // next 2026-04-01
		sub("soon", "2026-02-27", 3, 999),   // next 2026-03-01
		rec("plain", "2026-02-10", "food", 500),
		broken,
	}
	got := SubscriptionSchedule(records, "2026-03-01", DefaultLookaheadDays)
	if len(got) != 3 {
		t.Fatalf("schedule length = %d, want 3", len(got))
	}
	if got[0].Record.ID != "soon" || got[1].Record.ID != "far" {
		t.Fatalf("order = [%s %s], want [soon far]", got[0].Record.ID, got[1].Record.ID)
	}
	if got[2].Record.ID != "broken" || got[2].NextDate != "" {
		t.Fatalf("unschedulable entry should sort last, got %+v", got[2])
	}
	if got[0].Status != StatusUpcoming {
		t.Fatalf("soon status = %s, want upcoming", got[0].Status)
	}
	if got[0].DaysUntil != 0 {
		t.Fatalf("soon daysUntil = %d, want 0", got[0].DaysUntil)
	}
	if got[1].Status != StatusScheduled {
		t.Fatalf("far status = %s, want scheduled", got[1].Status)
	}
}

func TestDueAlerts(t *testing.T) {
	fresh := sub("fresh", "2026-02-27", 3, 999)     // next 2026-03-01, never alerted
	alerted := sub("alerted", "2026-02-28", 3, 999) // next 2026-03-02
	alerted.LastAlerted = "2026-03-02"
	stale := sub("stale", "2026-02-26", 3, 999) // next 2026-03-01, alerted for an old date
	stale.LastAlerted = "2026-02-26"
	quiet := sub("quiet", "2026-01-01", 90, 999) // next 2026-04-01, outside window

	records := []core.Record{fresh, alerted, stale, quiet}
	got := DueAlerts(records, "2026-03-01", DefaultLookaheadDays)
	if len(got) != 2 {
		t.Fatalf("alerts = %d, want 2: %+v", len(got), got)
	}
	ids := map[string]bool{}
	for _, a := range got {
		ids[a.Record.ID] = true
	}
	if !ids["fresh"] || !ids["stale"] {
		t.Fatalf("expected fresh and stale to alert, got %v", ids)
	}
}

func TestDueAlertsRepeatSuppression(t *testing.T) {
	s := sub("s", "2026-02-27", 3, 999) // next 2026-03-01
	first := DueAlerts([]core.Record{s}, "2026-03-01", DefaultLookaheadDays)
	if len(first) != 1 {
		t.Fatalf("first pass should alert, got %d", len(first))
	}
	// Persisting the surfaced date silences the same projection.
	s.LastAlerted = first[0].NextDate
	second := DueAlerts([]core.Record{s}, "2026-03-01", DefaultLookaheadDays)
	if len(second) != 0 {
		t.Fatalf("second pass should be silent, got %d", len(second))
	}
	// A later projection alerts again.
	third := DueAlerts([]core.Record{s}, "2026-03-03", DefaultLookaheadDays)
	if len(third) != 1 || third[0].NextDate == s.LastAlerted {
		t.Fatalf("new projection should alert, got %+v", third)
	}
}
