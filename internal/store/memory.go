package store

import (
	"sync"

	"github.com/tel9980/boduan/internal/models"
)

// MemoryStore is an in-memory Store. Used in tests and for ephemeral runs
// where nothing should touch disk.
type MemoryStore struct {
	mu        sync.Mutex
	rules     []models.AlertRule
	history   []models.AlertHistoryItem
	positions []models.Position
	settings  *models.NotificationSettings

	// Err, when set, is returned by every operation.
	Err error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadRules returns the stored rules.
func (m *MemoryStore) LoadRules() ([]models.AlertRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.AlertRule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

// SaveRules replaces the stored rules.
func (m *MemoryStore) SaveRules(rules []models.AlertRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.rules = make([]models.AlertRule, len(rules))
	copy(m.rules, rules)
	return nil
}

// LoadHistory returns the stored history.
func (m *MemoryStore) LoadHistory() ([]models.AlertHistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.AlertHistoryItem, len(m.history))
	copy(out, m.history)
	return out, nil
}

// SaveHistory replaces the stored history.
func (m *MemoryStore) SaveHistory(items []models.AlertHistoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.history = make([]models.AlertHistoryItem, len(items))
	copy(m.history, items)
	return nil
}

// LoadPositions returns the stored positions.
func (m *MemoryStore) LoadPositions() ([]models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Position, len(m.positions))
	copy(out, m.positions)
	return out, nil
}

// SavePositions replaces the stored positions.
func (m *MemoryStore) SavePositions(positions []models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.positions = make([]models.Position, len(positions))
	copy(m.positions, positions)
	return nil
}

// LoadSettings returns the stored settings, defaulting when never saved.
func (m *MemoryStore) LoadSettings() (models.NotificationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.DefaultNotificationSettings(), m.Err
	}
	if m.settings == nil {
		return models.DefaultNotificationSettings(), nil
	}
	return *m.settings, nil
}

// SaveSettings replaces the stored settings.
func (m *MemoryStore) SaveSettings(settings models.NotificationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	s := settings
	m.settings = &s
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
