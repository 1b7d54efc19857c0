// Package rules manages persisted alert rules and the trigger history.
package rules

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tel9980/boduan/internal/models"
	"github.com/tel9980/boduan/internal/store"
)

// historyCap is the maximum number of retained history items; the oldest
// entry is evicted on insert.
const historyCap = 100

// Filter narrows List results.
type Filter struct {
	Type     models.RuleType
	IsActive *bool
}

// Store holds the working copy of all alert rules and the alert history,
// persisting full collections through the repository. Persistence failures
// are logged and the in-memory state stays authoritative.
type Store struct {
	repo   store.Store
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	rules   []models.AlertRule
	history []models.AlertHistoryItem // newest first
}

// NewStore creates a rule store, loading state from the repository and
// sweeping expired rules.
func NewStore(repo store.Store, logger zerolog.Logger) *Store {
	s := &Store{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}

	rules, err := repo.LoadRules()
	if err != nil {
		logger.Warn().Err(err).Msg("Loading alert rules failed, starting empty")
	}
	s.rules = rules

	history, err := repo.LoadHistory()
	if err != nil {
		logger.Warn().Err(err).Msg("Loading alert history failed, starting empty")
	}
	s.history = history

	s.SweepExpired()
	return s
}

// SetClock overrides the time source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// newID generates a time-based id with a random suffix. Uniqueness is not
// cryptographically guaranteed; collision probability is negligible here.
func (s *Store) newID() string {
	return strconv.FormatInt(s.now().UnixNano(), 36) + strconv.FormatInt(int64(rand.Intn(46656)), 36)
}

// Add assigns an id and creation time to the rule, appends it and persists
// the full list. Returns the assigned id.
func (s *Store) Add(rule models.AlertRule) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule.ID = s.newID()
	rule.CreatedAt = s.now()
	s.rules = append(s.rules, rule)
	s.persistRules()

	s.logger.Debug().
		Str("rule_id", rule.ID).
		Str("stock", rule.StockCode).
		Str("type", string(rule.Type)).
		Msg("Alert rule added")
	return rule.ID
}

// Remove deletes the rule with the given id. Missing ids are a silent no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			s.persistRules()
			return
		}
	}
}

// RemoveBySource deletes every rule derived from the given position.
// Returns the number of rules removed.
func (s *Store) RemoveBySource(positionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rules[:0]
	removed := 0
	for _, r := range s.rules {
		if r.SourcePositionID != "" && r.SourcePositionID == positionID {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rules = kept

	if removed > 0 {
		s.persistRules()
	}
	return removed
}

// Update applies a mutation to the rule with the given id and persists.
// Missing ids are a silent no-op.
func (s *Store) Update(id string, apply func(*models.AlertRule)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			apply(&s.rules[i])
			s.persistRules()
			return
		}
	}
}

// SetActive toggles a rule's active flag.
func (s *Store) SetActive(id string, active bool) {
	s.Update(id, func(r *models.AlertRule) { r.IsActive = active })
}

// Get returns the rule with the given id.
func (s *Store) Get(id string) (models.AlertRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rules {
		if r.ID == id {
			return r, true
		}
	}
	return models.AlertRule{}, false
}

// List returns rules matching the filter, preserving insertion order.
func (s *Store) List(filter Filter) []models.AlertRule {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.AlertRule
	for _, r := range s.rules {
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.IsActive != nil && r.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SweepExpired forces IsActive=false on every rule past its expiry, then
// persists. Returns the number of rules swept.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	swept := 0
	for i := range s.rules {
		if s.rules[i].IsActive && s.rules[i].Expired(now) {
			s.rules[i].IsActive = false
			swept++
		}
	}

	if swept > 0 {
		s.persistRules()
		s.logger.Debug().Int("swept", swept).Msg("Expired rules deactivated")
	}
	return swept
}

// Deactivate marks a rule inactive in memory without persisting. The engine
// persists once per evaluation cycle via Persist.
func (s *Store) Deactivate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].IsActive = false
			return
		}
	}
}

// RecordTrigger stamps a rule's last trigger time in memory without
// persisting.
func (s *Store) RecordTrigger(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			t := at
			s.rules[i].LastTriggeredAt = &t
			return
		}
	}
}

// Persist saves the full rule list. Called by the engine exactly once per
// evaluation cycle.
func (s *Store) Persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistRules()
}

// persistRules saves the rule list, logging on failure. Callers hold s.mu.
func (s *Store) persistRules() {
	if err := s.repo.SaveRules(s.rules); err != nil {
		s.logger.Error().Err(err).Msg("Persisting alert rules failed")
	}
}

// AppendHistory records one dispatched alert, evicting the oldest entry past
// the cap.
func (s *Store) AppendHistory(ruleID, message string, data map[string]any) models.AlertHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := models.AlertHistoryItem{
		ID:          s.newID(),
		RuleID:      ruleID,
		TriggeredAt: s.now(),
		Message:     message,
		Data:        data,
	}

	s.history = append([]models.AlertHistoryItem{item}, s.history...)
	if len(s.history) > historyCap {
		s.history = s.history[:historyCap]
	}

	if err := s.repo.SaveHistory(s.history); err != nil {
		s.logger.Error().Err(err).Msg("Persisting alert history failed")
	}
	return item
}

// History returns a copy of the history, newest first.
func (s *Store) History() []models.AlertHistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AlertHistoryItem, len(s.history))
	copy(out, s.history)
	return out
}

// MarkRead marks one history item as read. Missing ids are a silent no-op.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.history {
		if s.history[i].ID == id {
			s.history[i].Read = true
			if err := s.repo.SaveHistory(s.history); err != nil {
				s.logger.Error().Err(err).Msg("Persisting alert history failed")
			}
			return
		}
	}
}

// UnreadCount returns the number of unread history items.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.history {
		if !item.Read {
			count++
		}
	}
	return count
}

// TriggersSince counts history items recorded at or after the given instant.
// The engine uses this for the daily alert budget.
func (s *Store) TriggersSince(t time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.history {
		if !item.TriggeredAt.Before(t) {
			count++
		}
	}
	return count
}

// String implements fmt.Stringer for debug logging.
func (s *Store) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("rules.Store{rules: %d, history: %d}", len(s.rules), len(s.history))
}
