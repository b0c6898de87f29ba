package storage

import (
	"context"
	"sync"

	"github.com/evansmunsha/expense-guard/internal/core"
)

// MemoryStore implements Store entirely in memory. It backs tests and the
// memory backend; nothing survives the process.
type MemoryStore struct {
	mu          sync.RWMutex
	order       []string
	records     map[string]core.Record
	settings    *core.Settings
	entitlement *core.Entitlement
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]core.Record)}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) GetAllRecords(ctx context.Context) ([]core.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Record, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out, nil
}

func (m *MemoryStore) PutRecord(ctx context.Context, rec core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.ID]; !exists {
		m.order = append(m.order, rec.ID)
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryStore) DeleteRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[id]; !exists {
		return ErrNotFound
	}
	delete(m.records, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) ReplaceAllRecords(ctx context.Context, records []core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = make([]string, 0, len(records))
	m.records = make(map[string]core.Record, len(records))
	for _, rec := range records {
		if _, exists := m.records[rec.ID]; !exists {
			m.order = append(m.order, rec.ID)
		}
		m.records[rec.ID] = rec
	}
	return nil
}

func (m *MemoryStore) GetSettings(ctx context.Context) (core.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return core.Settings{}, ErrNotFound
	}
	s := *m.settings
	if m.settings.BudgetNotice != nil {
		n := *m.settings.BudgetNotice
		s.BudgetNotice = &n
	}
	return s, nil
}

func (m *MemoryStore) PutSettings(ctx context.Context, s core.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.BudgetNotice != nil {
		n := *s.BudgetNotice
		s.BudgetNotice = &n
	}
	m.settings = &s
	return nil
}

func (m *MemoryStore) GetEntitlement(ctx context.Context) (core.Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.entitlement == nil {
		return core.Entitlement{}, ErrNotFound
	}
	return *m.entitlement, nil
}

func (m *MemoryStore) PutEntitlement(ctx context.Context, ent core.Entitlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entitlement = &ent
	return nil
}
