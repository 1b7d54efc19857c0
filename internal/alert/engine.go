package alert

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/logging"
	"github.com/tel9980/boduan/internal/market"
	"github.com/tel9980/boduan/internal/models"
	"github.com/tel9980/boduan/internal/notify"
	"github.com/tel9980/boduan/internal/rules"
	"github.com/tel9980/boduan/internal/store"
	"github.com/tel9980/boduan/pkg/utils"
)

// SkipReason explains why an evaluation cycle did no work.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipOverlap      SkipReason = "previous cycle still running"
	SkipMasterSwitch SkipReason = "master switch off"
	SkipMarketClosed SkipReason = "market closed"
)

// CycleResult summarises one evaluation cycle.
type CycleResult struct {
	Skipped   SkipReason
	Evaluated int
	Triggered int
	Expired   int
}

// Engine walks the active rules on a fixed interval, evaluates each against a
// fresh quote and fans triggered alerts out to the notification channels.
// All collaborators are injected; the engine owns no I/O of its own.
type Engine struct {
	rules      *rules.Store
	repo       store.Store
	provider   market.QuoteProvider
	dispatcher *notify.Dispatcher
	logger     zerolog.Logger

	now      func() time.Time
	interval time.Duration

	running    atomic.Bool
	evaluating atomic.Bool
	stop       chan struct{}
	done       chan struct{}
}

// NewEngine creates an Engine. interval <= 0 falls back to one minute.
func NewEngine(ruleStore *rules.Store, repo store.Store, provider market.QuoteProvider, dispatcher *notify.Dispatcher, interval time.Duration, logger zerolog.Logger) *Engine {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Engine{
		rules:      ruleStore,
		repo:       repo,
		provider:   provider,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		interval:   interval,
	}
}

// SetClock overrides the time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Start launches the evaluation loop: one immediate cycle, then one per
// interval tick. A second Start while running returns ErrMonitorRunning and
// leaves the first loop untouched.
func (e *Engine) Start(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return apperrors.ErrMonitorRunning
	}

	e.stop = make(chan struct{})
	e.done = make(chan struct{})

	e.logger.Info().
		Dur("interval", e.interval).
		Msg("Alert monitor started")

	go e.loop(ctx)
	return nil
}

// Stop halts the evaluation loop and waits for the current cycle to finish.
// Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	close(e.stop)
	<-e.done
	e.logger.Info().Msg("Alert monitor stopped")
}

// Running reports whether the evaluation loop is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			e.running.Store(false)
			return
		case <-e.stop:
			return
		case <-ticker.C:
			e.RunCycle(ctx)
		}
	}
}

// RunCycle executes one evaluation pass over all active rules. Overlapping
// calls are rejected: if a previous cycle is still running the new one is
// skipped entirely rather than queued.
func (e *Engine) RunCycle(ctx context.Context) CycleResult {
	if !e.evaluating.CompareAndSwap(false, true) {
		e.logger.Warn().Msg("Evaluation cycle overlap, skipping")
		return CycleResult{Skipped: SkipOverlap}
	}
	defer e.evaluating.Store(false)

	now := e.now()

	settings, err := e.repo.LoadSettings()
	if err != nil {
		e.logger.Warn().Err(err).Msg("Loading notification settings failed, using defaults")
		settings = models.DefaultNotificationSettings()
	}

	if !settings.MasterSwitch {
		return CycleResult{Skipped: SkipMasterSwitch}
	}
	if settings.TradingHoursOnly && !utils.IsTradingHours(now) {
		e.logger.Debug().Msg("Market closed, skipping evaluation cycle")
		return CycleResult{Skipped: SkipMarketClosed}
	}

	active := true
	candidates := e.rules.List(rules.Filter{IsActive: &active})

	dayStart := startOfDay(now)
	budget := settings.MaxAlertsPerDay - e.rules.TriggersSince(dayStart)

	cooldown := time.Duration(settings.AlertIntervalHours * float64(time.Hour))

	var result CycleResult
	quotes := make(map[string]models.Quote)
	failed := make(map[string]bool)
	dirty := false

	for _, rule := range candidates {
		if rule.Expired(now) {
			e.rules.Deactivate(rule.ID)
			result.Expired++
			dirty = true
			continue
		}
		if rule.LastTriggeredAt != nil && now.Sub(*rule.LastTriggeredAt) < cooldown {
			continue
		}
		if !settings.CategoryEnabled(rule.Type) {
			continue
		}
		if budget <= 0 {
			continue
		}

		quote, ok := e.quoteFor(ctx, rule.StockCode, quotes, failed)
		if !ok {
			continue
		}

		result.Evaluated++
		if !Evaluate(rule, quote) {
			continue
		}

		msg := BuildMessage(rule, quote)
		e.dispatcher.Dispatch(rule.Channels, settings.Channels, msg)
		e.rules.AppendHistory(rule.ID, msg.Text(), map[string]any{
			"stock_code":     rule.StockCode,
			"rule_type":      string(rule.Type),
			"price":          quote.Price,
			"change_percent": quote.ChangePercent,
		})
		e.rules.RecordTrigger(rule.ID, now)
		logging.LogAlert(e.logger, rule.ID, rule.StockCode, string(rule.Type), quote.Price)

		result.Triggered++
		budget--
		dirty = true
	}

	if result.Expired > 0 {
		logging.LogRuleSweep(e.logger, result.Expired)
	}
	if dirty {
		e.rules.Persist()
	}
	return result
}

// quoteFor fetches a quote, memoizing hits and misses for the duration of one
// cycle so each stock is fetched at most once.
func (e *Engine) quoteFor(ctx context.Context, code string, quotes map[string]models.Quote, failed map[string]bool) (models.Quote, bool) {
	if q, ok := quotes[code]; ok {
		return q, true
	}
	if failed[code] {
		return models.Quote{}, false
	}

	start := e.now()
	quote, err := e.provider.FetchQuote(ctx, code)
	logging.LogQuoteFetch(e.logger, code, time.Since(start), err)
	if err != nil {
		e.logger.Warn().Err(err).Str("stock", code).Msg("Quote fetch failed, skipping rules for stock")
		failed[code] = true
		return models.Quote{}, false
	}

	quotes[code] = quote
	return quote, true
}

// startOfDay returns local midnight for the market timezone.
func startOfDay(now time.Time) time.Time {
	now = now.In(utils.ChinaLocation)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, utils.ChinaLocation)
}
