// Package store provides data persistence interfaces and implementations.
package store

import "github.com/tel9980/boduan/internal/models"

// Storage keys. Each key holds one full collection as a JSON blob; the core
// always reads and writes whole collections, never partial records.
const (
	KeyRules     = "boduan/alert_rules"
	KeyHistory   = "boduan/alert_history"
	KeyPositions = "boduan/positions"
	KeySettings  = "boduan/notification_settings"
)

// Store defines the typed repository over the persisted key-value store.
// A missing key yields an empty collection and a nil error; callers treat
// any returned error as log-and-default, never fatal.
type Store interface {
	LoadRules() ([]models.AlertRule, error)
	SaveRules(rules []models.AlertRule) error

	LoadHistory() ([]models.AlertHistoryItem, error)
	SaveHistory(items []models.AlertHistoryItem) error

	LoadPositions() ([]models.Position, error)
	SavePositions(positions []models.Position) error

	LoadSettings() (models.NotificationSettings, error)
	SaveSettings(settings models.NotificationSettings) error

	Close() error
}
