package backup

import (
	"strings"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// RawSettings and RawEntitlement mirror the optional payload sections,
// untyped for the same reason RawRecord is.
type RawSettings struct {
	Currency      any `json:"currency"`
	MonthlyBudget any `json:"monthlyBudget"`
	WarnAtPercent any `json:"warnAtPercent"`
}

type RawEntitlement struct {
	IsPremium any `json:"isPremium"`
}

// MergeResult is the fully specified replacement state a valid backup
// produces. Applying it replaces on-device records wholesale; import is
// never a union.
type MergeResult struct {
	Settings  core.Settings
	IsPremium bool
	Records   []core.Record
	Skipped   int
}

// Merge combines a decoded payload with defaults. Missing settings fields
// fall back to the defaults, the budget is clamped to be non-negative, the
// warn threshold is clamped into [1,100], and the transient notice and
// nudge fields are always reset no matter what the payload claims.
func Merge(p *Payload, now int64) MergeResult {
	s := core.DefaultSettings()
	if p.Settings != nil {
		if c := strings.TrimSpace(asString(p.Settings.Currency)); c != "" {
			s.Currency = c
		}
		if b := asAmount(p.Settings.MonthlyBudget); b > 0 {
			s.MonthlyBudget = b
		}
		if w := asInt(p.Settings.WarnAtPercent); w != 0 {
			s.WarnAtPercent = clampWarn(w)
		}
	}
	s.BudgetNotice = nil
	s.LastNudgeDate = ""

	res := MergeResult{Settings: s}
	if p.Entitlement != nil {
		res.IsPremium = asBool(p.Entitlement.IsPremium)
	}
	items := p.rawRecords()
	res.Records = NormalizeRecords(items, now)
	res.Skipped = len(items) - len(res.Records)
	return res
}

func clampWarn(w int) int {
	if w < 1 {
		return 1
	}
	if w > 100 {
		return 100
	}
	return w
}
