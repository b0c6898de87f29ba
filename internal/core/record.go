// Package core defines the domain types of the tracker: expense records,
// user settings, and the premium entitlement, together with their
// validation rules. Everything here is storage-agnostic; persistence and
// derived views live in other packages.
package core

import (
	"errors"
	"strings"
)

const (
	// DefaultCategory labels records that arrive without one.
	DefaultCategory = "general"

	// DefaultRenewalDays is assumed for subscriptions imported without a cadence.
	DefaultRenewalDays = 30

	// DefaultWarnAtPercent is the budget warning threshold until the user sets one.
	DefaultWarnAtPercent = 80

	// DefaultCurrency is the display code used until the user picks one.
	DefaultCurrency = "USD"
)

type (
	// Record is a single transaction, or the definition of a recurring
	// subscription when IsSubscription is set.
	Record struct {
		ID             string `json:"id"`
		Amount         int64  `json:"amount"`
		Category       string `json:"category"`
		Note           string `json:"note,omitempty"`
		Date           string `json:"date"`
		MonthKey       string `json:"monthKey"`
		IsSubscription bool   `json:"isSubscription"`
		RenewalDays    int    `json:"renewalDays,omitempty"`
		LastAlerted    string `json:"lastAlerted,omitempty"`
		CreatedAt      int64  `json:"createdAt"`
		UpdatedAt      int64  `json:"updatedAt"`
	}

	// BudgetNotice records the strongest budget alert already shown for a
	// month, so re-renders do not repeat it.
	BudgetNotice struct {
		Month string `json:"month"`
		Level int    `json:"level"`
	}

	// Settings is the singleton user configuration. BudgetNotice and
	// LastNudgeDate are transient bookkeeping and reset on import.
	Settings struct {
		Currency      string        `json:"currency"`
		MonthlyBudget int64         `json:"monthlyBudget"`
		WarnAtPercent int           `json:"warnAtPercent"`
		BudgetNotice  *BudgetNotice `json:"budgetNotice,omitempty"`
		LastNudgeDate string        `json:"lastNudgeDate,omitempty"`
	}

	// Entitlement is the singleton premium flag, written only through the
	// billing provider.
	Entitlement struct {
		IsPremium bool  `json:"isPremium"`
		UpdatedAt int64 `json:"updatedAt"`
	}
)

var (
	ErrInvalidAmount      = errors.New("amount must be a positive integer")
	ErrMissingDate        = errors.New("missing or malformed date")
	ErrMonthKeyMismatch   = errors.New("month key does not match date")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidRenewal     = errors.New("renewal interval must be at least 1 day")
	ErrRenewalNotAllowed  = errors.New("renewal interval set on a non-subscription")
	ErrNegativeBudget     = errors.New("monthly budget cannot be negative")
	ErrInvalidWarnLevel   = errors.New("warn threshold must be between 1 and 100")
	ErrInvalidNoticeLevel = errors.New("notice level out of range")
	ErrEmptyCurrency      = errors.New("empty currency code")
)

func (r Record) Validate() error {
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := ParseDate(r.Date); err != nil {
		return ErrMissingDate
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.MonthKey != MonthKeyOf(r.Date) {
		return ErrMonthKeyMismatch
	}
	if r.IsSubscription {
		if r.RenewalDays < 1 {
			return ErrInvalidRenewal
		}
	} else if r.RenewalDays != 0 {
		return ErrRenewalNotAllowed
	}
	return nil
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.Currency) == "" {
		return ErrEmptyCurrency
	}
	if s.MonthlyBudget < 0 {
		return ErrNegativeBudget
	}
	if s.WarnAtPercent < 1 || s.WarnAtPercent > 100 {
		return ErrInvalidWarnLevel
	}
	if n := s.BudgetNotice; n != nil {
		if n.Level != 0 && n.Level != s.WarnAtPercent && n.Level != 100 {
			return ErrInvalidNoticeLevel
		}
	}
	return nil
}

// DefaultSettings returns the configuration a fresh install starts with.
// MonthlyBudget of zero means no budget is set.
func DefaultSettings() Settings {
	return Settings{
		Currency:      DefaultCurrency,
		MonthlyBudget: 0,
		WarnAtPercent: DefaultWarnAtPercent,
	}
}
