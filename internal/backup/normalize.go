// Package backup is the trust boundary for externally supplied data. Backup
// payloads are decoded into loosely typed raw shapes and coerced into valid
// domain values here, in one place; nothing downstream ever touches an
// unvalidated field.
package backup

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// RawRecord mirrors one item of a backup's expenses list. Every field is
// untyped because backups are never trusted; NormalizeRecords is the only
// reader.
type RawRecord struct {
	ID             any `json:"id"`
	Amount         any `json:"amount"`
	Category       any `json:"category"`
	Note           any `json:"note"`
	Date           any `json:"date"`
	IsSubscription any `json:"isSubscription"`
	RenewalDays    any `json:"renewalDays"`
	LastAlerted    any `json:"lastAlerted"`
	CreatedAt      any `json:"createdAt"`
}

// NormalizeRecords coerces raw items into well-formed records. Items whose
// amount is zero or invalid, or whose date is missing or unparseable, are
// dropped; everything else is repaired: categories default, month keys are
// rederived, subscription cadences fall back to 30 days, missing ids get a
// fresh one unique within the batch, and updatedAt is always restamped.
// Input order is preserved minus the skipped items.
func NormalizeRecords(items []RawRecord, now int64) []core.Record {
	out := make([]core.Record, 0, len(items))
	for _, item := range items {
		amount := asAmount(item.Amount)
		date := strings.TrimSpace(asString(item.Date))
		if amount <= 0 || date == "" {
			continue
		}
		if _, err := core.ParseDate(date); err != nil {
			continue
		}

		category := strings.TrimSpace(asString(item.Category))
		if category == "" {
			category = core.DefaultCategory
		}

		rec := core.Record{
			ID:             strings.TrimSpace(asString(item.ID)),
			Amount:         amount,
			Category:       category,
			Note:           strings.TrimSpace(asString(item.Note)),
			Date:           date,
			MonthKey:       core.MonthKeyOf(date),
			IsSubscription: asBool(item.IsSubscription),
			CreatedAt:      asEpoch(item.CreatedAt),
			UpdatedAt:      now,
		}
		if rec.IsSubscription {
			if days := asInt(item.RenewalDays); days >= 1 {
				rec.RenewalDays = days
			} else {
				rec.RenewalDays = core.DefaultRenewalDays
			}
			rec.LastAlerted = strings.TrimSpace(asString(item.LastAlerted))
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt <= 0 {
			rec.CreatedAt = now
		}
		out = append(out, rec)
	}
	return out
}

// asString accepts strings and stringifies numbers, so numeric ids from
// older exports survive.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// asAmount coerces to a rounded non-negative integer; anything negative or
// non-numeric collapses to zero, which callers treat as invalid.
func asAmount(v any) int64 {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int64(math.Round(f))
}

func asInt(v any) int {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

// asEpoch accepts numeric timestamps only; a string creation date from a
// foreign tool is not worth guessing about.
func asEpoch(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	}
	return 0
}

func asBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
