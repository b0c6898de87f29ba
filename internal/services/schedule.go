package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// DefaultLookaheadDays is the window within which a renewal counts as
// upcoming rather than merely scheduled.
const DefaultLookaheadDays = 3

// RenewalStatus classifies a subscription's next renewal relative to today.
type RenewalStatus string

const (
	StatusOverdue   RenewalStatus = "overdue"
	StatusUpcoming  RenewalStatus = "upcoming"
	StatusScheduled RenewalStatus = "scheduled"
)

// Renewal is one subscription's projected next charge. NextDate is empty
// when the subscription is not schedulable (no anchor or no cadence).
type Renewal struct {
	Record    core.Record   `json:"record"`
	NextDate  string        `json:"nextDate,omitempty"`
	DaysUntil int           `json:"daysUntil"`
	Status    RenewalStatus `json:"status,omitempty"`
}

// NextRenewal projects the first scheduled occurrence on or after today,
// counting in RenewalDays steps from the anchor date. The step count is
// computed in closed form, so anchors arbitrarily far in the past cost the
// same as recent ones. Returns false when the record has no anchor date or
// no valid cadence.
func NextRenewal(rec core.Record, today string) (string, bool) {
	if rec.RenewalDays < 1 {
		return "", false
	}
	if _, err := core.ParseDate(rec.Date); err != nil {
		return "", false
	}
	gap := core.DaysBetween(rec.Date, today)
	if gap <= 0 {
		// Anchor is on or after today; it is itself the next occurrence.
		return rec.Date, true
	}
	steps := (gap + rec.RenewalDays - 1) / rec.RenewalDays
	return core.AddDays(rec.Date, steps*rec.RenewalDays), true
}

// ClassifyRenewal buckets a projected date relative to today and the
// lookahead window.
func ClassifyRenewal(next, today string, lookahead int) RenewalStatus {
	until := core.DaysBetween(today, next)
	switch {
	case until < 0:
		return StatusOverdue
	case until <= lookahead:
		return StatusUpcoming
	default:
		return StatusScheduled
	}
}

// SubscriptionSchedule projects every subscription in the collection,
// ordered by next renewal date ascending. Entries with no computable next
// date sort last, keeping their relative order.
func SubscriptionSchedule(records []core.Record, today string, lookahead int) []Renewal {
	var out []Renewal
	for _, r := range records {
		if !r.IsSubscription {
			continue
		}
		next, ok := NextRenewal(r, today)
		if !ok {
			out = append(out, Renewal{Record: r})
			continue
		}
		out = append(out, Renewal{
			Record:    r,
			NextDate:  next,
			DaysUntil: core.DaysBetween(today, next),
			Status:    ClassifyRenewal(next, today, lookahead),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].NextDate, out[j].NextDate
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})
	return out
}

// AlertMessage renders the user-facing text for a due renewal.
func AlertMessage(r Renewal) string {
	label := strings.TrimSpace(r.Record.Note)
	if label == "" {
		label = r.Record.Category
	}
	if r.Status == StatusOverdue {
		return fmt.Sprintf("%s renewal was due on %s.", label, r.NextDate)
	}
	return fmt.Sprintf("%s renews on %s.", label, r.NextDate)
}

// DueAlerts filters the schedule down to renewals worth surfacing now:
// upcoming or overdue entries whose projected date has not been alerted for
// this record yet. Suppression reads only the persisted LastAlerted field,
// so it survives restarts; callers persist the field after surfacing.
func DueAlerts(records []core.Record, today string, lookahead int) []Renewal {
	var out []Renewal
	for _, ren := range SubscriptionSchedule(records, today, lookahead) {
		if ren.NextDate == "" || ren.Status == StatusScheduled {
			continue
		}
		if ren.Record.LastAlerted == ren.NextDate {
			continue
		}
		out = append(out, ren)
	}
	return out
}
