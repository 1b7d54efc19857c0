// Package alert implements the rule evaluation engine that drives
// notifications.
package alert

import (
	"fmt"
	"math"

	"github.com/tel9980/boduan/internal/models"
	"github.com/tel9980/boduan/internal/notify"
	"github.com/tel9980/boduan/pkg/utils"
)

// Policy defaults applied when a threshold rule leaves a field at zero.
const (
	defaultAbnormalChangePercent = 5
	defaultAbnormalVolumeRatio   = 3
)

// Band-signal screen bounds. A signal fires on a modest mover with elevated
// but not parabolic volume in a small-cap name.
const (
	signalChangeMin    = -2
	signalChangeMax    = 5
	signalVolumeMin    = 1.5
	signalVolumeMax    = 3
	signalMarketCapMax = 160 // 100M CNY
)

// Evaluate reports whether the quote satisfies the rule's condition. It is a
// pure function of its inputs: no clock, no stores, no side effects.
func Evaluate(rule models.AlertRule, quote models.Quote) bool {
	switch rule.Type {
	case models.RulePrice:
		t := rule.Conditions.Target
		if t == nil {
			return false
		}
		if t.Direction == models.DirectionDown {
			return quote.Price <= t.TargetPrice
		}
		return quote.Price >= t.TargetPrice

	case models.RuleStopLoss:
		t := rule.Conditions.Target
		return t != nil && quote.Price <= t.TargetPrice

	case models.RuleTakeProfit:
		t := rule.Conditions.Target
		return t != nil && quote.Price >= t.TargetPrice

	case models.RuleAbnormal:
		changeLimit := float64(defaultAbnormalChangePercent)
		volumeLimit := float64(defaultAbnormalVolumeRatio)
		if th := rule.Conditions.Threshold; th != nil {
			if th.ChangePercent != 0 {
				changeLimit = th.ChangePercent
			}
			if th.VolumeRatio != 0 {
				volumeLimit = th.VolumeRatio
			}
		}
		return math.Abs(quote.ChangePercent) > changeLimit || quote.VolumeRatio > volumeLimit

	case models.RuleSignal:
		return quote.ChangePercent >= signalChangeMin &&
			quote.ChangePercent <= signalChangeMax &&
			quote.VolumeRatio >= signalVolumeMin &&
			quote.VolumeRatio <= signalVolumeMax &&
			quote.MarketCap <= signalMarketCapMax
	}

	return false
}

// BuildMessage renders the notification for a triggered rule.
func BuildMessage(rule models.AlertRule, quote models.Quote) notify.Message {
	name := rule.StockName
	if name == "" {
		name = rule.StockCode
	}

	msg := notify.Message{
		StockCode: rule.StockCode,
		Tag:       "rule-" + rule.ID,
		Severity:  notify.SeverityInfo,
	}

	switch rule.Type {
	case models.RulePrice:
		dir := "reached"
		if t := rule.Conditions.Target; t != nil && t.Direction == models.DirectionDown {
			dir = "fell to"
		}
		msg.Title = fmt.Sprintf("Price alert: %s", name)
		msg.Body = fmt.Sprintf("%s (%s) %s %s, now %s",
			name, rule.StockCode, dir, targetText(rule), utils.FormatCurrency(quote.Price))

	case models.RuleStopLoss:
		msg.Title = fmt.Sprintf("Stop loss hit: %s", name)
		msg.Body = fmt.Sprintf("%s (%s) dropped to %s, at or below stop loss %s",
			name, rule.StockCode, utils.FormatCurrency(quote.Price), targetText(rule))
		msg.Severity = notify.SeverityError

	case models.RuleTakeProfit:
		msg.Title = fmt.Sprintf("Take profit hit: %s", name)
		msg.Body = fmt.Sprintf("%s (%s) rose to %s, at or above take profit %s",
			name, rule.StockCode, utils.FormatCurrency(quote.Price), targetText(rule))
		msg.Severity = notify.SeveritySuccess

	case models.RuleAbnormal:
		msg.Title = fmt.Sprintf("Abnormal move: %s", name)
		msg.Body = fmt.Sprintf("%s (%s) moved %s with volume ratio %.2f",
			name, rule.StockCode, utils.FormatPercent(quote.ChangePercent), quote.VolumeRatio)
		msg.Severity = notify.SeverityWarning

	case models.RuleSignal:
		msg.Title = fmt.Sprintf("Band signal: %s", name)
		msg.Body = fmt.Sprintf("%s (%s) at %s, change %s, volume ratio %.2f",
			name, rule.StockCode, utils.FormatCurrency(quote.Price),
			utils.FormatPercent(quote.ChangePercent), quote.VolumeRatio)
	}

	return msg
}

func targetText(rule models.AlertRule) string {
	if t := rule.Conditions.Target; t != nil {
		return utils.FormatCurrency(t.TargetPrice)
	}
	return "?"
}
