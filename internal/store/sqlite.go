// Package store provides data persistence implementations.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/models"
)

// SQLiteStore implements Store on a single key-value table. Values are
// whole-collection JSON blobs, matching the repository contract: one key per
// collection, last write wins.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore creates a new SQLite-backed store at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single-writer resource: one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	_, err := s.db.Exec(schema)
	return err
}

// load reads one collection blob into target. A missing key leaves target
// untouched and returns nil.
func (s *SQLiteStore) load(key string, target interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.NewStoreError("load", key, apperrors.ErrStoreClosed)
	}

	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return apperrors.NewStoreError("load", key, err)
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return apperrors.NewStoreError("decode", key, err)
	}
	return nil
}

// save writes one collection blob, replacing any previous value.
func (s *SQLiteStore) save(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.NewStoreError("save", key, apperrors.ErrStoreClosed)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewStoreError("encode", key, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(raw),
	)
	if err != nil {
		return apperrors.NewStoreError("save", key, err)
	}
	return nil
}

// LoadRules loads the full rule list.
func (s *SQLiteStore) LoadRules() ([]models.AlertRule, error) {
	var rules []models.AlertRule
	if err := s.load(KeyRules, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// SaveRules persists the full rule list.
func (s *SQLiteStore) SaveRules(rules []models.AlertRule) error {
	if rules == nil {
		rules = []models.AlertRule{}
	}
	return s.save(KeyRules, rules)
}

// LoadHistory loads the alert history, newest first.
func (s *SQLiteStore) LoadHistory() ([]models.AlertHistoryItem, error) {
	var items []models.AlertHistoryItem
	if err := s.load(KeyHistory, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveHistory persists the alert history.
func (s *SQLiteStore) SaveHistory(items []models.AlertHistoryItem) error {
	if items == nil {
		items = []models.AlertHistoryItem{}
	}
	return s.save(KeyHistory, items)
}

// LoadPositions loads the full position list.
func (s *SQLiteStore) LoadPositions() ([]models.Position, error) {
	var positions []models.Position
	if err := s.load(KeyPositions, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// SavePositions persists the full position list.
func (s *SQLiteStore) SavePositions(positions []models.Position) error {
	if positions == nil {
		positions = []models.Position{}
	}
	return s.save(KeyPositions, positions)
}

// LoadSettings loads the notification settings, falling back to defaults
// when none have been saved.
func (s *SQLiteStore) LoadSettings() (models.NotificationSettings, error) {
	settings := models.DefaultNotificationSettings()
	if err := s.load(KeySettings, &settings); err != nil {
		return models.DefaultNotificationSettings(), err
	}
	return settings, nil
}

// SaveSettings persists the notification settings.
func (s *SQLiteStore) SaveSettings(settings models.NotificationSettings) error {
	return s.save(KeySettings, settings)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
