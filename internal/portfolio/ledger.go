package portfolio

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
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

// Lifetime of the stop-loss and take-profit rules derived from a new
// position.
const derivedRuleTTL = 90 * 24 * time.Hour

// Ledger manages open positions, keeps their prices fresh and maintains the
// alert rules derived from stop-loss and take-profit levels.
type Ledger struct {
	repo       store.Store
	rules      *rules.Store
	provider   market.QuoteProvider
	dispatcher *notify.Dispatcher
	logger     zerolog.Logger

	now      func() time.Time
	interval time.Duration

	mu        sync.Mutex
	positions []models.Position

	running    atomic.Bool
	refreshing atomic.Bool
	stop       chan struct{}
	done       chan struct{}
}

// NewLedger creates a Ledger, loading positions from the repository.
// interval <= 0 falls back to 30 seconds.
func NewLedger(repo store.Store, ruleStore *rules.Store, provider market.QuoteProvider, dispatcher *notify.Dispatcher, interval time.Duration, logger zerolog.Logger) *Ledger {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	l := &Ledger{
		repo:       repo,
		rules:      ruleStore,
		provider:   provider,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		interval:   interval,
	}

	positions, err := repo.LoadPositions()
	if err != nil {
		logger.Warn().Err(err).Msg("Loading positions failed, starting empty")
	}
	l.positions = positions
	return l
}

// newID generates a time-based id with a random suffix.
func newID(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 36) + strconv.FormatInt(int64(rand.Intn(46656)), 36)
}

// SetClock overrides the time source. Test hook.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Add validates and stores a new position, deriving stop-loss and take-profit
// alert rules when those levels are set. Returns the assigned position id.
func (l *Ledger) Add(p models.Position) (string, error) {
	if p.BuyPrice <= 0 {
		return "", apperrors.NewValidationError("buy_price", p.BuyPrice, "must be positive")
	}
	if p.Quantity <= 0 {
		return "", apperrors.NewValidationError("quantity", p.Quantity, "must be positive")
	}
	if p.StockCode == "" {
		return "", apperrors.NewValidationError("stock_code", p.StockCode, "must not be empty")
	}

	l.mu.Lock()
	now := l.now()
	p.ID = newID(now)
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.BuyDate.IsZero() {
		p.BuyDate = now
	}
	l.positions = append(l.positions, p)
	l.persist()
	l.mu.Unlock()

	l.deriveRules(p, now)

	l.logger.Info().
		Str("position_id", p.ID).
		Str("stock", p.StockCode).
		Float64("buy_price", p.BuyPrice).
		Int("quantity", p.Quantity).
		Msg("Position added")
	return p.ID, nil
}

// deriveRules creates the alert rules backing a position's stop-loss and
// take-profit levels. The rules carry the position id so removal cascades.
func (l *Ledger) deriveRules(p models.Position, now time.Time) {
	base := models.AlertRule{
		StockCode:        p.StockCode,
		StockName:        p.StockName,
		IsActive:         true,
		ExpiresAt:        now.Add(derivedRuleTTL),
		Channels:         []models.ChannelKind{models.ChannelBrowser, models.ChannelSound},
		SourcePositionID: p.ID,
	}

	if p.StopLoss != nil {
		rule := base
		rule.Type = models.RuleStopLoss
		rule.Conditions = models.TargetConditions(*p.StopLoss, "")
		l.rules.Add(rule)
	}
	if p.TakeProfit != nil {
		rule := base
		rule.Type = models.RuleTakeProfit
		rule.Conditions = models.TargetConditions(*p.TakeProfit, "")
		l.rules.Add(rule)
	}
}

// Remove deletes a position and cascades to its derived alert rules. Missing
// ids are a silent no-op.
func (l *Ledger) Remove(id string) {
	l.mu.Lock()
	found := false
	for i := range l.positions {
		if l.positions[i].ID == id {
			l.positions = append(l.positions[:i], l.positions[i+1:]...)
			found = true
			break
		}
	}
	if found {
		l.persist()
	}
	l.mu.Unlock()

	if found {
		removed := l.rules.RemoveBySource(id)
		l.logger.Info().
			Str("position_id", id).
			Int("derived_rules_removed", removed).
			Msg("Position removed")
	}
}

// Update applies a mutation to the position with the given id, refreshing its
// update stamp. Missing ids are a silent no-op.
func (l *Ledger) Update(id string, apply func(*models.Position)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.positions {
		if l.positions[i].ID == id {
			apply(&l.positions[i])
			l.positions[i].UpdatedAt = l.now()
			l.persist()
			return
		}
	}
}

// Get returns the position with the given id.
func (l *Ledger) Get(id string) (models.Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.positions {
		if p.ID == id {
			return p, true
		}
	}
	return models.Position{}, false
}

// List returns a copy of all positions in insertion order.
func (l *Ledger) List() []models.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Position, len(l.positions))
	copy(out, l.positions)
	return out
}

// TotalPnL aggregates profit/loss across the portfolio.
func (l *Ledger) TotalPnL() models.TotalPnL {
	return ComputeTotalPnL(l.List())
}

// Statistics summarises the portfolio.
func (l *Ledger) Statistics() models.PortfolioStatistics {
	l.mu.Lock()
	now := l.now()
	l.mu.Unlock()
	return ComputeStatistics(l.List(), now)
}

// Risk grades the portfolio's concentration risk.
func (l *Ledger) Risk() models.RiskAssessment {
	return AssessRisk(l.List())
}

// StartPriceRefresh launches the price refresh loop: one immediate pass, then
// one per interval tick. A second call while running returns
// ErrMonitorRunning.
func (l *Ledger) StartPriceRefresh(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return apperrors.ErrMonitorRunning
	}

	l.stop = make(chan struct{})
	l.done = make(chan struct{})

	l.logger.Info().
		Dur("interval", l.interval).
		Msg("Position price refresh started")

	go l.loop(ctx)
	return nil
}

// StopPriceRefresh halts the refresh loop. Stopping a stopped ledger is a
// no-op.
func (l *Ledger) StopPriceRefresh() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	close(l.stop)
	<-l.done
	l.logger.Info().Msg("Position price refresh stopped")
}

func (l *Ledger) loop(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.RefreshPrices(ctx)

	for {
		select {
		case <-ctx.Done():
			l.running.Store(false)
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.RefreshPrices(ctx)
		}
	}
}

// RefreshPrices fetches a fresh quote for every position, records the new
// price and raises a proximity warning for positions trading within 1% of
// their stop loss. Fetch failures skip the position. Overlapping calls are
// skipped, and the position list is persisted once per pass.
func (l *Ledger) RefreshPrices(ctx context.Context) {
	if !l.refreshing.CompareAndSwap(false, true) {
		l.logger.Warn().Msg("Price refresh overlap, skipping")
		return
	}
	defer l.refreshing.Store(false)

	snapshot := l.List()
	updated := 0

	for _, p := range snapshot {
		start := time.Now()
		quote, err := l.provider.FetchQuote(ctx, p.StockCode)
		logging.LogQuoteFetch(l.logger, p.StockCode, time.Since(start), err)
		if err != nil {
			l.logger.Warn().Err(err).Str("stock", p.StockCode).Msg("Price refresh failed for position")
			continue
		}

		price := quote.Price
		l.setPrice(p.ID, price)
		logging.LogPositionUpdate(l.logger, p.ID, p.StockCode, price)
		updated++

		l.checkStopLossProximity(p, price)
	}

	if updated > 0 {
		l.mu.Lock()
		l.persist()
		l.mu.Unlock()
	}
}

// setPrice records a fresh price on a position without persisting; the
// refresh pass persists once at the end.
func (l *Ledger) setPrice(id string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.positions {
		if l.positions[i].ID == id {
			p := price
			l.positions[i].CurrentPrice = &p
			l.positions[i].UpdatedAt = l.now()
			return
		}
	}
}

// checkStopLossProximity raises an in-app warning when the price sits within
// 1% above the stop loss. The warning bypasses alert history and cooldown;
// crossing the stop loss itself is the derived rule's job.
func (l *Ledger) checkStopLossProximity(p models.Position, price float64) {
	if p.StopLoss == nil {
		return
	}
	stop := *p.StopLoss
	if price <= stop || price > stop*1.01 {
		return
	}

	ch, ok := l.dispatcher.Channel(models.ChannelInternal)
	if !ok {
		return
	}

	name := p.StockName
	if name == "" {
		name = p.StockCode
	}
	msg := notify.Message{
		Title: "Approaching stop loss: " + name,
		Body: name + " (" + p.StockCode + ") at " + utils.FormatCurrency(price) +
			", within 1% of stop loss " + utils.FormatCurrency(stop),
		StockCode: p.StockCode,
		Tag:       "stop-proximity-" + p.ID,
		Severity:  notify.SeverityWarning,
	}
	if err := ch.Send(msg); err != nil {
		l.logger.Warn().Err(err).Str("stock", p.StockCode).Msg("Proximity warning dispatch failed")
	}
}

// persist saves the position list, logging on failure. Callers hold l.mu.
func (l *Ledger) persist() {
	if err := l.repo.SavePositions(l.positions); err != nil {
		l.logger.Error().Err(err).Msg("Persisting positions failed")
	}
}
