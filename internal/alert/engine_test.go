package alert

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/market"
	"github.com/tel9980/boduan/internal/models"
	"github.com/tel9980/boduan/internal/notify"
	"github.com/tel9980/boduan/internal/rules"
	"github.com/tel9980/boduan/internal/store"
	"github.com/tel9980/boduan/pkg/utils"
)

// tradingTime is a Tuesday 10:00 in the market timezone, inside the morning
// session.
func tradingTime() time.Time {
	return time.Date(2025, 9, 2, 10, 0, 0, 0, utils.ChinaLocation)
}

// closedTime is a Saturday.
func closedTime() time.Time {
	return time.Date(2025, 9, 6, 10, 0, 0, 0, utils.ChinaLocation)
}

// captureChannel records every message it receives.
type captureChannel struct {
	kind models.ChannelKind
	sent []notify.Message
}

func (c *captureChannel) Name() string             { return "capture" }
func (c *captureChannel) Kind() models.ChannelKind { return c.kind }
func (c *captureChannel) Send(msg notify.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

type engineFixture struct {
	engine   *Engine
	rules    *rules.Store
	repo     *store.MemoryStore
	provider *market.StaticProvider
	channel  *captureChannel
}

func newEngineFixture(t *testing.T, now time.Time) *engineFixture {
	t.Helper()

	repo := store.NewMemoryStore()
	logger := zerolog.Nop()

	ruleStore := rules.NewStore(repo, logger)
	ruleStore.SetClock(func() time.Time { return now })

	provider := market.NewStaticProvider(map[string]models.Quote{})
	channel := &captureChannel{kind: models.ChannelInternal}
	dispatcher := notify.NewDispatcher(logger, channel)

	engine := NewEngine(ruleStore, repo, provider, dispatcher, time.Minute, logger)
	engine.SetClock(func() time.Time { return now })

	return &engineFixture{
		engine:   engine,
		rules:    ruleStore,
		repo:     repo,
		provider: provider,
		channel:  channel,
	}
}

func (f *engineFixture) addRule(t *testing.T, rule models.AlertRule) string {
	t.Helper()
	if rule.Channels == nil {
		rule.Channels = []models.ChannelKind{models.ChannelInternal}
	}
	return f.rules.Add(rule)
}

func TestRunCycleTriggersMatchingRule(t *testing.T) {
	now := tradingTime()
	f := newEngineFixture(t, now)
	f.provider.Quotes["600519"] = models.Quote{Code: "600519", Price: 1450}

	id := f.addRule(t, models.AlertRule{
		Type:       models.RuleStopLoss,
		StockCode:  "600519",
		Conditions: models.TargetConditions(1500, ""),
		IsActive:   true,
		ExpiresAt:  now.Add(24 * time.Hour),
	})

	result := f.engine.RunCycle(context.Background())
	if result.Skipped != SkipNone {
		t.Fatalf("cycle skipped: %s", result.Skipped)
	}
	if result.Triggered != 1 {
		t.Fatalf("Triggered = %d, want 1", result.Triggered)
	}
	if len(f.channel.sent) != 1 {
		t.Fatalf("dispatched %d messages, want 1", len(f.channel.sent))
	}

	history := f.rules.History()
	if len(history) != 1 || history[0].RuleID != id {
		t.Fatalf("history = %+v, want one entry for %s", history, id)
	}

	rule, _ := f.rules.Get(id)
	if rule.LastTriggeredAt == nil || !rule.LastTriggeredAt.Equal(now) {
		t.Errorf("LastTriggeredAt = %v, want %v", rule.LastTriggeredAt, now)
	}
}

func TestRunCycleExpiredRuleNeverDispatches(t *testing.T) {
	now := tradingTime()
	f := newEngineFixture(t, now)
	f.provider.Quotes["600519"] = models.Quote{Code: "600519", Price: 1450}

	id := f.addRule(t, models.AlertRule{
		Type:       models.RuleStopLoss,
		StockCode:  "600519",
		Conditions: models.TargetConditions(1500, ""),
		IsActive:   true,
		ExpiresAt:  now.Add(-time.Hour),
	})

	result := f.engine.RunCycle(context.Background())
	if result.Triggered != 0 {
		t.Errorf("Triggered = %d, want 0", result.Triggered)
	}
	if result.Expired != 1 {
		t.Errorf("Expired = %d, want 1", result.Expired)
	}
	if len(f.channel.sent) != 0 {
		t.Errorf("dispatched %d messages for an expired rule", len(f.channel.sent))
	}

	rule, _ := f.rules.Get(id)
	if rule.IsActive {
		t.Error("expired rule still active after cycle")
	}
}

func TestRunCycleCooldownSuppressesRetrigger(t *testing.T) {
	now := tradingTime()
	f := newEngineFixture(t, now)
	f.provider.Quotes["600519"] = models.Quote{Code: "600519", Price: 1450}

	f.addRule(t, models.AlertRule{
		Type:       models.RuleStopLoss,
		StockCode:  "600519",
		Conditions: models.TargetConditions(1500, ""),
		IsActive:   true,
		ExpiresAt:  now.Add(24 * time.Hour),
	})

	first := f.engine.RunCycle(context.Background())
	if first.Triggered != 1 {
		t.Fatalf("first cycle Triggered = %d, want 1", first.Triggered)
	}

	// Thirty minutes later, still inside the default 1h cooldown.
	later := now.Add(30 * time.Minute)
	f.engine.SetClock(func() time.Time { return later })
	second := f.engine.RunCycle(context.Background())
	if second.Triggered != 0 {
		t.Errorf("second cycle Triggered = %d, want 0 during cooldown", second.Triggered)
	}

	// Past the cooldown the rule fires again.
	after := now.Add(61 * time.Minute)
	f.engine.SetClock(func() time.Time { return after })
	third := f.engine.RunCycle(context.Background())
	if third.Triggered != 1 {
		t.Errorf("third cycle Triggered = %d, want 1 after cooldown", third.Triggered)
	}
}

func TestRunCycleMasterSwitchOff(t *testing.T) {
	now := tradingTime()
	f := newEngineFixture(t, now)

	settings := models.DefaultNotificationSettings()
	settings.MasterSwitch = false
	if err := f.repo.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}

	result := f.engine.RunCycle(context.Background())
	if result.Skipped != SkipMasterSwitch {
		t.Errorf("Skipped = %q, want %q", result.Skipped, SkipMasterSwitch)
	}
}

func TestRunCycleOutsideTradingHours(t *testing.T) {
	f := newEngineFixture(t, closedTime())
	f.engine.SetClock(closedTime)

	result := f.engine.RunCycle(context.Background())
	if result.Skipped != SkipMarketClosed {
		t.Errorf("Skipped = %q, want %q", result.Skipped, SkipMarketClosed)
	}

	// With the trading-hours gate off the cycle runs.
	settings := models.DefaultNotificationSettings()
	settings.TradingHoursOnly = false
	if err := f.repo.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}
	result = f.engine.RunCycle(context.Background())
	if result.Skipped != SkipNone {
		t.Errorf("Skipped = %q, want none with gate off", result.Skipped)
	}
}

func TestRunCycleCategoryDisabled(t *testing.T) {
	now := tradingTime()
	f := newEngineFixture(t, now)
	f.provider.Quotes["600519"] = models.Quote{Code: "600519", Price: 1450}

	f.addRule(t, models.AlertRule{
		Type:       models.RuleStopLoss,
		StockCode:  "600519",
		Conditions: models.TargetConditions(1500, ""),
		IsActive:   true,
		ExpiresAt:  now.Add(24 * time.Hour),
	})

	settings := models.DefaultNotificationSettings()
	settings.PositionAlert = false
	if err := f.repo.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}

	result := f.engine.RunCycle(context.Background())
	if result.Triggered != 0 {
		t.Errorf("Triggered = %d, want 0 with position alerts disabled", result.Triggered)
	}
}

func TestRunCycleDailyBudget(t *testing.T) {
	now := tradingTime()
	f := newEngineFixture(t, now)

	settings := models.DefaultNotificationSettings()
	settings.MaxAlertsPerDay = 2
	settings.AlertIntervalHours = 0
	if err := f.repo.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}

	codes := []string{"600519", "000001", "002594"}
	for _, code := range codes {
		f.provider.Quotes[code] = models.Quote{Code: code, Price: 5}
		f.addRule(t, models.AlertRule{
			Type:       models.RuleStopLoss,
			StockCode:  code,
			Conditions: models.TargetConditions(10, ""),
			IsActive:   true,
			ExpiresAt:  now.Add(24 * time.Hour),
		})
	}

	result := f.engine.RunCycle(context.Background())
	if result.Triggered != 2 {
		t.Errorf("Triggered = %d, want 2 with a daily budget of 2", result.Triggered)
	}
	if len(f.rules.History()) != 2 {
		t.Errorf("history has %d entries, want 2", len(f.rules.History()))
	}
}

func TestRunCycleProviderFailureSkipsStock(t *testing.T) {
	now := tradingTime()
	f := newEngineFixture(t, now)
	f.provider.Quotes["000001"] = models.Quote{Code: "000001", Price: 5}
	// 600519 has no quote configured: the fetch fails.

	for _, code := range []string{"600519", "000001"} {
		f.addRule(t, models.AlertRule{
			Type:       models.RuleStopLoss,
			StockCode:  code,
			Conditions: models.TargetConditions(10, ""),
			IsActive:   true,
			ExpiresAt:  now.Add(24 * time.Hour),
		})
	}

	result := f.engine.RunCycle(context.Background())
	if result.Triggered != 1 {
		t.Errorf("Triggered = %d, want 1 (failed stock skipped, healthy stock fires)", result.Triggered)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	f := newEngineFixture(t, closedTime())
	f.engine.SetClock(closedTime)

	ctx := context.Background()
	if err := f.engine.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer f.engine.Stop()

	if err := f.engine.Start(ctx); !apperrors.Is(err, apperrors.ErrMonitorRunning) {
		t.Errorf("second Start = %v, want ErrMonitorRunning", err)
	}
	if !f.engine.Running() {
		t.Error("engine not running after Start")
	}

	f.engine.Stop()
	f.engine.Stop() // second Stop is a no-op
	if f.engine.Running() {
		t.Error("engine still running after Stop")
	}
}
