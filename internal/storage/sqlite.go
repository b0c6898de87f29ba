package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/evansmunsha/expense-guard/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const recordColumns = "id, amount, category, note, date, month_key, is_subscription, renewal_days, last_alerted, created_at, updated_at"

// GetAllRecords returns the collection ordered by rowid, which is insertion
// order: upserts keep the original rowid, so edits never reorder the list.
func (s *SQLiteStore) GetAllRecords(ctx context.Context) ([]core.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+recordColumns+" FROM records ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var r core.Record
		if err := rows.Scan(
			&r.ID, &r.Amount, &r.Category, &r.Note, &r.Date, &r.MonthKey,
			&r.IsSubscription, &r.RenewalDays, &r.LastAlerted, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

const upsertRecordSQL = `
INSERT INTO records (` + recordColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    amount = excluded.amount,
    category = excluded.category,
    note = excluded.note,
    date = excluded.date,
    month_key = excluded.month_key,
    is_subscription = excluded.is_subscription,
    renewal_days = excluded.renewal_days,
    last_alerted = excluded.last_alerted,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at`

func (s *SQLiteStore) PutRecord(ctx context.Context, rec core.Record) error {
	_, err := s.db.ExecContext(ctx, upsertRecordSQL,
		rec.ID, rec.Amount, rec.Category, rec.Note, rec.Date, rec.MonthKey,
		rec.IsSubscription, rec.RenewalDays, rec.LastAlerted, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ReplaceAllRecords(ctx context.Context, records []core.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, upsertRecordSQL,
			rec.ID, rec.Amount, rec.Category, rec.Note, rec.Date, rec.MonthKey,
			rec.IsSubscription, rec.RenewalDays, rec.LastAlerted, rec.CreatedAt, rec.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}

	slog.InfoContext(ctx, "Record collection replaced", "count", len(records))
	return nil
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (core.Settings, error) {
	var (
		set         core.Settings
		noticeMonth string
		noticeLevel int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT currency, monthly_budget, warn_at_percent, notice_month, notice_level, last_nudge_date FROM settings WHERE id = 1",
	).Scan(&set.Currency, &set.MonthlyBudget, &set.WarnAtPercent, &noticeMonth, &noticeLevel, &set.LastNudgeDate)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	if noticeMonth != "" {
		set.BudgetNotice = &core.BudgetNotice{Month: noticeMonth, Level: noticeLevel}
	}
	return set, nil
}

func (s *SQLiteStore) PutSettings(ctx context.Context, set core.Settings) error {
	noticeMonth, noticeLevel := "", 0
	if set.BudgetNotice != nil {
		noticeMonth, noticeLevel = set.BudgetNotice.Month, set.BudgetNotice.Level
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings (id, currency, monthly_budget, warn_at_percent, notice_month, notice_level, last_nudge_date)
VALUES (1, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    currency = excluded.currency,
    monthly_budget = excluded.monthly_budget,
    warn_at_percent = excluded.warn_at_percent,
    notice_month = excluded.notice_month,
    notice_level = excluded.notice_level,
    last_nudge_date = excluded.last_nudge_date`,
		set.Currency, set.MonthlyBudget, set.WarnAtPercent, noticeMonth, noticeLevel, set.LastNudgeDate,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetEntitlement(ctx context.Context) (core.Entitlement, error) {
	var ent core.Entitlement
	err := s.db.QueryRowContext(ctx,
		"SELECT is_premium, updated_at FROM entitlement WHERE id = 1",
	).Scan(&ent.IsPremium, &ent.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entitlement{}, ErrNotFound
	}
	if err != nil {
		return core.Entitlement{}, fmt.Errorf("query entitlement: %w", err)
	}
	return ent, nil
}

func (s *SQLiteStore) PutEntitlement(ctx context.Context, ent core.Entitlement) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO entitlement (id, is_premium, updated_at)
VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    is_premium = excluded.is_premium,
    updated_at = excluded.updated_at`,
		ent.IsPremium, ent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert entitlement: %w", err)
	}
	return nil
}
