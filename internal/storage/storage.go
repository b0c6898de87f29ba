// Package storage persists records, settings, and the entitlement flag.
// Two implementations exist: SQLite for real use and an in-memory store for
// tests and throwaway runs. Both hand out copies; callers never share state
// with the store.
package storage

import (
	"context"
	"errors"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// ErrNotFound reports a missing row. Singleton reads return it before the
// first write; record reads return it for unknown ids.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence contract. Record order is insertion order: a
// replaced collection keeps the given order, and editing a record in place
// does not move it.
type Store interface {
	GetAllRecords(ctx context.Context) ([]core.Record, error)
	// PutRecord inserts or overwrites by id.
	PutRecord(ctx context.Context, rec core.Record) error
	DeleteRecord(ctx context.Context, id string) error
	// ReplaceAllRecords atomically clears the collection and inserts the
	// given records in order.
	ReplaceAllRecords(ctx context.Context, records []core.Record) error

	GetSettings(ctx context.Context) (core.Settings, error)
	PutSettings(ctx context.Context, s core.Settings) error

	GetEntitlement(ctx context.Context) (core.Entitlement, error)
	PutEntitlement(ctx context.Context, ent core.Entitlement) error

	Close() error
}
