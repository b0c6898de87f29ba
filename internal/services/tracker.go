package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evansmunsha/expense-guard/internal/backup"
	"github.com/evansmunsha/expense-guard/internal/billing"
	"github.com/evansmunsha/expense-guard/internal/cache"
	"github.com/evansmunsha/expense-guard/internal/core"
	"github.com/evansmunsha/expense-guard/internal/export"
	"github.com/evansmunsha/expense-guard/internal/log"
	"github.com/evansmunsha/expense-guard/internal/storage"
)

// ErrValidation marks rejected user input. Handlers surface it inline; the
// underlying cause is wrapped alongside it.
var ErrValidation = errors.New("invalid input")

// ErrNotConfirmed rejects an import that did not carry the explicit
// confirmation flag. Importing replaces the whole collection, so destructive
// intent has to be stated.
var ErrNotConfirmed = errors.New("import replaces all records and must be confirmed")

// PartialImportError reports an import that failed after some of its
// persistence steps already succeeded. The applied steps are not rolled
// back; Completed names them in order.
type PartialImportError struct {
	Completed []string
	Err       error
}

func (e *PartialImportError) Error() string {
	return fmt.Sprintf("import incomplete: applied %s, then failed: %v", strings.Join(e.Completed, ", "), e.Err)
}

func (e *PartialImportError) Unwrap() error { return e.Err }

// RecordInput is the user-supplied shape of a record. Amount is a decimal
// string in major units, e.g. "12.50".
type RecordInput struct {
	Amount         string `json:"amount"`
	Category       string `json:"category"`
	Note           string `json:"note"`
	Date           string `json:"date"`
	IsSubscription bool   `json:"isSubscription"`
	RenewalDays    int    `json:"renewalDays"`
}

// SettingsInput replaces the user-editable settings fields wholesale.
// MonthlyBudget is a decimal string; empty or "0" clears the budget.
type SettingsInput struct {
	Currency      string `json:"currency"`
	MonthlyBudget string `json:"monthlyBudget"`
	WarnAtPercent int    `json:"warnAtPercent"`
}

// RecordListView is the expense list for one filter combination.
type RecordListView struct {
	Records []core.Record `json:"records"`
	Total   int64         `json:"total"`
}

// StatsView is the headline budget summary for one month.
type StatsView struct {
	MonthKey     string `json:"monthKey"`
	Currency     string `json:"currency"`
	Total        int64  `json:"total"`
	TotalDisplay string `json:"totalDisplay"`
	RecordCount  int    `json:"recordCount"`
	Budget       int64  `json:"budget"`
	HasBudget    bool   `json:"hasBudget"`
	UsagePercent int    `json:"usagePercent"`
	TodayTotal   int64  `json:"todayTotal"`
	Notice       string `json:"notice,omitempty"`
}

// SubscriptionView lists projected renewals plus the alerts due right now.
type SubscriptionView struct {
	Renewals []Renewal `json:"renewals"`
	Alerts   []string  `json:"alerts,omitempty"`
}

// MonthView bundles the derived views that depend only on the record
// collection, one month, and the calendar day. It is what the tracker
// caches between mutations.
type MonthView struct {
	MonthKey  string          `json:"monthKey"`
	Records   []core.Record   `json:"records"`
	Total     int64           `json:"total"`
	Breakdown []CategoryTotal `json:"breakdown"`
	Insights  []Insight       `json:"insights"`
}

// ImportSummary reports what a completed import did.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// TrackerConfig tunes a Tracker. Zero values fall back to defaults.
type TrackerConfig struct {
	Currency      string
	LookaheadDays int
	CacheTTL      time.Duration
	CacheSize     int
	// Now supplies the clock, overridable in tests.
	Now func() time.Time
}

// Tracker owns the application state: the record collection, settings, and
// entitlement, mirrored in memory and written through to the store. All
// actions take the tracker lock, so each one is a single atomic step over a
// consistent snapshot; the pure computation functions only ever see copies.
// Writes persist first and mutate memory on success, so a storage failure
// leaves the in-memory state untouched.
type Tracker struct {
	store    storage.Store
	provider billing.Provider
	logger   *log.Logger
	cfg      TrackerConfig

	mu       sync.Mutex
	records  []core.Record
	settings core.Settings
	premium  core.Entitlement
	months   *cache.LRUCache[MonthView]
}

func NewTracker(store storage.Store, provider billing.Provider, logger *log.Logger, cfg TrackerConfig) (*Tracker, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = DefaultLookaheadDays
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 12
	}

	t := &Tracker{
		store:    store,
		provider: provider,
		logger:   logger.WithComponent(log.ComponentTracker),
		cfg:      cfg,
		months:   cache.NewLRUCache[MonthView](cfg.CacheSize, cfg.CacheTTL),
	}

	ctx := context.Background()
	records, err := store.GetAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	t.records = records

	settings, err := store.GetSettings(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		settings = core.DefaultSettings()
		if cfg.Currency != "" {
			settings.Currency = cfg.Currency
		}
		if err := store.PutSettings(ctx, settings); err != nil {
			t.logger.Warn("Could not persist initial settings", log.FieldError, err)
		}
	case err != nil:
		return nil, fmt.Errorf("load settings: %w", err)
	}
	t.settings = settings

	premium, err := store.GetEntitlement(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		premium = core.Entitlement{}
	case err != nil:
		return nil, fmt.Errorf("load entitlement: %w", err)
	}
	t.premium = premium

	t.logger.Info("Tracker ready", log.FieldCount, len(records))
	return t, nil
}

func (t *Tracker) Close() error {
	return t.store.Close()
}

// MonthCache exposes the view cache for lifecycle management.
func (t *Tracker) MonthCache() *cache.LRUCache[MonthView] {
	return t.months
}

func (t *Tracker) today() string {
	return core.FormatDate(t.cfg.Now())
}

func (t *Tracker) nowMillis() int64 {
	return t.cfg.Now().UnixMilli()
}

// CurrentMonthKey returns the month key of the present day.
func (t *Tracker) CurrentMonthKey() string {
	return core.MonthKeyAt(t.cfg.Now())
}

func (t *Tracker) snapshotLocked() []core.Record {
	out := make([]core.Record, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Tracker) findLocked(id string) (int, bool) {
	for i, r := range t.records {
		if r.ID == id {
			return i, true
		}
	}
	return 0, false
}

// buildRecord turns user input into a well-formed record. Category falls
// back to the default label; a cadence on a plain record is dropped rather
// than rejected, mirroring what import normalization does.
func (t *Tracker) buildRecord(id string, in RecordInput, createdAt int64) (core.Record, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Record{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = core.DefaultCategory
	}

	rec := core.Record{
		ID:             id,
		Amount:         amount,
		Category:       category,
		Note:           strings.TrimSpace(in.Note),
		Date:           strings.TrimSpace(in.Date),
		MonthKey:       core.MonthKeyOf(strings.TrimSpace(in.Date)),
		IsSubscription: in.IsSubscription,
		CreatedAt:      createdAt,
		UpdatedAt:      t.nowMillis(),
	}
	if rec.IsSubscription {
		rec.RenewalDays = in.RenewalDays
		if rec.RenewalDays < 1 {
			rec.RenewalDays = core.DefaultRenewalDays
		}
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return rec, nil
}

func (t *Tracker) AddRecord(ctx context.Context, in RecordInput) (core.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.buildRecord(uuid.NewString(), in, t.nowMillis())
	if err != nil {
		return core.Record{}, err
	}
	if err := t.store.PutRecord(ctx, rec); err != nil {
		t.logger.ErrorContext(ctx, "Record not saved", log.FieldOperation, log.OpAdd, log.FieldError, err)
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}

	t.records = append(t.records, rec)
	t.months.Purge()
	t.logger.InfoContext(ctx, "Record added",
		log.FieldRecordID, rec.ID,
		log.FieldAmount, rec.Amount,
		log.FieldCategory, rec.Category,
		log.FieldMonth, rec.MonthKey)
	return rec, nil
}

func (t *Tracker) UpdateRecord(ctx context.Context, id string, in RecordInput) (core.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.findLocked(id)
	if !ok {
		return core.Record{}, storage.ErrNotFound
	}
	prev := t.records[idx]

	rec, err := t.buildRecord(id, in, prev.CreatedAt)
	if err != nil {
		return core.Record{}, err
	}
	// An alert for an unchanged projection stays suppressed; any cadence or
	// date change produces a new projected date, which alerts afresh.
	rec.LastAlerted = prev.LastAlerted
	if rec.UpdatedAt < prev.UpdatedAt {
		rec.UpdatedAt = prev.UpdatedAt
	}

	if err := t.store.PutRecord(ctx, rec); err != nil {
		t.logger.ErrorContext(ctx, "Record not saved", log.FieldOperation, log.OpUpdate, log.FieldError, err)
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}

	t.records[idx] = rec
	t.months.Purge()
	t.logger.InfoContext(ctx, "Record updated", log.FieldRecordID, rec.ID)
	return rec, nil
}

func (t *Tracker) DeleteRecord(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.findLocked(id)
	if !ok {
		return storage.ErrNotFound
	}
	if err := t.store.DeleteRecord(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		t.logger.ErrorContext(ctx, "Record not deleted", log.FieldRecordID, id, log.FieldError, err)
		return fmt.Errorf("delete record: %w", err)
	}

	t.records = append(t.records[:idx], t.records[idx+1:]...)
	t.months.Purge()
	t.logger.InfoContext(ctx, "Record deleted", log.FieldRecordID, id)
	return nil
}

// Records lists the collection, optionally narrowed to a month and a
// category, in insertion order.
func (t *Tracker) Records(monthKey, category string) RecordListView {
	t.mu.Lock()
	defer t.mu.Unlock()

	view := RecordListView{Records: []core.Record{}}
	for _, r := range t.records {
		if monthKey != "" && r.MonthKey != monthKey {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		view.Records = append(view.Records, r)
		view.Total += r.Amount
	}
	return view
}

// monthViewLocked returns the cached derived views for a month, computing
// them on miss. Entries are keyed by day as well, since insights shift when
// the calendar does.
func (t *Tracker) monthViewLocked(monthKey, today string) MonthView {
	key := monthKey + "|" + today
	if view, ok := t.months.Get(key); ok {
		return view
	}

	snapshot := t.snapshotLocked()
	totals := TotalsForMonth(snapshot, monthKey)
	view := MonthView{
		MonthKey:  monthKey,
		Records:   totals.Matching,
		Total:     totals.Total,
		Breakdown: CategoryBreakdown(totals.Matching),
		Insights: BuildInsights(InsightInput{
			Records:  snapshot,
			MonthKey: monthKey,
			Today:    today,
			Settings: t.settings,
		}),
	}
	t.months.Set(key, view)
	return view
}

// Stats summarizes one month against the budget. For the current month it
// also runs the notice state machine: a fired notice is persisted before it
// is surfaced, so re-rendering the same state never repeats an alert.
func (t *Tracker) Stats(ctx context.Context, monthKey string) StatsView {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.today()
	if monthKey == "" {
		monthKey = core.MonthKeyOf(today)
	}
	view := t.monthViewLocked(monthKey, today)

	stats := StatsView{
		MonthKey:     monthKey,
		Currency:     t.settings.Currency,
		Total:        view.Total,
		TotalDisplay: core.FormatMoney(view.Total, t.settings.Currency),
		RecordCount:  len(view.Records),
		Budget:       t.settings.MonthlyBudget,
	}
	if usage, ok := UsagePercent(view.Total, t.settings.MonthlyBudget); ok {
		stats.HasBudget = true
		stats.UsagePercent = usage
	}
	if monthKey == core.MonthKeyOf(today) {
		stats.TodayTotal = TotalsForDay(t.records, today)

		if notice, fired := EvaluateNotice(monthKey, view.Total, t.settings); fired {
			next := t.settings
			next.BudgetNotice = &notice
			if err := t.store.PutSettings(ctx, next); err != nil {
				// Not persisted means not shown; otherwise the same alert
				// would fire again on the next render.
				t.logger.WarnContext(ctx, "Budget notice not persisted", log.FieldError, err)
			} else {
				t.settings = next
				stats.Notice = NoticeMessage(notice)
				t.logger.InfoContext(ctx, "Budget notice fired",
					log.FieldMonth, notice.Month, "level", notice.Level)
			}
		}
	}
	return stats
}

// Breakdown returns per-category totals for a month, largest first.
func (t *Tracker) Breakdown(monthKey string) []CategoryTotal {
	t.mu.Lock()
	defer t.mu.Unlock()
	if monthKey == "" {
		monthKey = core.MonthKeyOf(t.today())
	}
	return t.monthViewLocked(monthKey, t.today()).Breakdown
}

// Insights returns the observation list for a month.
func (t *Tracker) Insights(monthKey string) []Insight {
	t.mu.Lock()
	defer t.mu.Unlock()
	if monthKey == "" {
		monthKey = core.MonthKeyOf(t.today())
	}
	return t.monthViewLocked(monthKey, t.today()).Insights
}

// Subscriptions projects every subscription's next renewal and surfaces the
// alerts due now. Surfaced alerts are recorded on the record itself, so the
// same projected date is never alerted twice, restarts included.
func (t *Tracker) Subscriptions(ctx context.Context) SubscriptionView {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.today()
	view := SubscriptionView{
		Renewals: SubscriptionSchedule(t.snapshotLocked(), today, t.cfg.LookaheadDays),
	}

	for _, due := range DueAlerts(t.records, today, t.cfg.LookaheadDays) {
		idx, ok := t.findLocked(due.Record.ID)
		if !ok {
			continue
		}
		marked := t.records[idx]
		marked.LastAlerted = due.NextDate
		if err := t.store.PutRecord(ctx, marked); err != nil {
			// Skip rather than surface: an unpersisted mark would repeat
			// this alert after a restart.
			t.logger.WarnContext(ctx, "Renewal alert not persisted",
				log.FieldRecordID, marked.ID, log.FieldError, err)
			continue
		}
		t.records[idx] = marked
		view.Alerts = append(view.Alerts, AlertMessage(due))
	}
	return view
}

// Import replaces the whole state with a backup payload. The three persisted
// facets are written in order: records, settings, entitlement. A failure on
// the first step leaves everything untouched; a later failure is reported as
// a PartialImportError and already-applied steps stay applied.
func (t *Tracker) Import(ctx context.Context, data []byte, confirm bool) (ImportSummary, error) {
	if !confirm {
		return ImportSummary{}, ErrNotConfirmed
	}

	payload, err := backup.DecodePayload(data)
	if err != nil {
		return ImportSummary{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	merged := backup.Merge(&payload, t.nowMillis())
	summary := ImportSummary{Imported: len(merged.Records), Skipped: merged.Skipped}

	if err := t.store.ReplaceAllRecords(ctx, merged.Records); err != nil {
		t.logger.ErrorContext(ctx, "Import failed before any change", log.FieldError, err)
		return ImportSummary{}, fmt.Errorf("replace records: %w", err)
	}
	t.records = merged.Records
	t.months.Purge()
	completed := []string{"records"}

	if err := t.store.PutSettings(ctx, merged.Settings); err != nil {
		t.logger.ErrorContext(ctx, "Import incomplete", log.FieldError, err, "completed", completed)
		return summary, &PartialImportError{Completed: completed, Err: err}
	}
	t.settings = merged.Settings
	completed = append(completed, "settings")

	ent := core.Entitlement{IsPremium: merged.IsPremium, UpdatedAt: t.nowMillis()}
	if err := t.store.PutEntitlement(ctx, ent); err != nil {
		t.logger.ErrorContext(ctx, "Import incomplete", log.FieldError, err, "completed", completed)
		return summary, &PartialImportError{Completed: completed, Err: err}
	}
	t.premium = ent

	t.logger.InfoContext(ctx, "Backup imported",
		log.FieldOperation, log.OpImport,
		"imported", summary.Imported,
		"skipped", summary.Skipped)
	return summary, nil
}

// ExportCSV renders the collection, optionally one month of it, as CSV.
func (t *Tracker) ExportCSV(monthKey string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records := t.snapshotLocked()
	if monthKey != "" {
		records = TotalsForMonth(records, monthKey).Matching
	}
	return export.MarshalCSV(records)
}

// ExportBackup serializes the full state as a versioned backup document.
func (t *Tracker) ExportBackup() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return backup.EncodeBackup(t.snapshotLocked(), t.settings, t.premium)
}

// Settings returns a copy of the current settings.
func (t *Tracker) Settings() core.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.settings
	if s.BudgetNotice != nil {
		n := *s.BudgetNotice
		s.BudgetNotice = &n
	}
	return s
}

// UpdateSettings replaces the user-editable settings. Changing the budget or
// the warn threshold clears the recorded notice, so the next render
// re-evaluates against the new limits.
func (t *Tracker) UpdateSettings(ctx context.Context, in SettingsInput) (core.Settings, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	budget, err := parseBudget(in.MonthlyBudget)
	if err != nil {
		return core.Settings{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	next := core.Settings{
		Currency:      strings.TrimSpace(in.Currency),
		MonthlyBudget: budget,
		WarnAtPercent: in.WarnAtPercent,
		LastNudgeDate: t.settings.LastNudgeDate,
	}
	if budget == t.settings.MonthlyBudget && in.WarnAtPercent == t.settings.WarnAtPercent {
		next.BudgetNotice = t.settings.BudgetNotice
	}
	if err := next.Validate(); err != nil {
		return core.Settings{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := t.store.PutSettings(ctx, next); err != nil {
		t.logger.ErrorContext(ctx, "Settings not saved", log.FieldError, err)
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	t.settings = next
	t.months.Purge()
	t.logger.InfoContext(ctx, "Settings updated",
		"budget", next.MonthlyBudget, "warn_at_percent", next.WarnAtPercent)

	out := next
	if out.BudgetNotice != nil {
		n := *out.BudgetNotice
		out.BudgetNotice = &n
	}
	return out, nil
}

// parseBudget reads a decimal budget in major units. Empty and "0" mean no
// budget.
func parseBudget(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return core.ParseAmount(s)
}

// Premium returns the current entitlement.
func (t *Tracker) Premium() core.Entitlement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.premium
}

// PurchasePremium runs the purchase flow and, on success, persists the
// entitlement. The returned state is the billing outcome, purchased or
// cancelled.
func (t *Tracker) PurchasePremium(ctx context.Context) (core.Entitlement, string, error) {
	purchase, err := t.provider.PurchasePremium(ctx)
	if err != nil {
		return t.Premium(), "", fmt.Errorf("purchase: %w", err)
	}
	if purchase.State != billing.StatePurchased {
		t.logger.InfoContext(ctx, "Purchase cancelled", log.FieldOperation, log.OpPurchase)
		return t.Premium(), purchase.State, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ent := core.Entitlement{IsPremium: true, UpdatedAt: t.nowMillis()}
	if err := t.store.PutEntitlement(ctx, ent); err != nil {
		t.logger.ErrorContext(ctx, "Entitlement not saved", log.FieldError, err)
		return t.premium, purchase.State, fmt.Errorf("save entitlement: %w", err)
	}
	t.premium = ent
	t.logger.InfoContext(ctx, "Premium unlocked", log.FieldOperation, log.OpPurchase)
	return ent, purchase.State, nil
}

// RestorePurchases re-derives the entitlement from past purchase tokens and
// persists the result either way.
func (t *Tracker) RestorePurchases(ctx context.Context) (core.Entitlement, int, error) {
	tokens, err := t.provider.ListExistingPurchases(ctx)
	if err != nil {
		return t.Premium(), 0, fmt.Errorf("list purchases: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ent := core.Entitlement{IsPremium: len(tokens) > 0, UpdatedAt: t.nowMillis()}
	if err := t.store.PutEntitlement(ctx, ent); err != nil {
		t.logger.ErrorContext(ctx, "Entitlement not saved", log.FieldError, err)
		return t.premium, len(tokens), fmt.Errorf("save entitlement: %w", err)
	}
	t.premium = ent
	t.logger.InfoContext(ctx, "Purchases restored",
		log.FieldOperation, log.OpRestore, log.FieldCount, len(tokens))
	return ent, len(tokens), nil
}

// NudgeIfDue emits at most one same-day reminder when nothing has been
// logged today. The nudge date is persisted before the reminder is
// returned, mirroring how budget notices avoid repeats.
func (t *Tracker) NudgeIfDue(ctx context.Context) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.today()
	if t.settings.LastNudgeDate == today {
		return "", false
	}
	if TotalsForDay(t.records, today) > 0 {
		return "", false
	}

	next := t.settings
	next.LastNudgeDate = today
	if err := t.store.PutSettings(ctx, next); err != nil {
		t.logger.WarnContext(ctx, "Nudge date not persisted", log.FieldError, err)
		return "", false
	}
	t.settings = next
	return "No expenses logged today. Take a minute to record your spending.", true
}
