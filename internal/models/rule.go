// Package models defines the core data types shared across the application.
package models

import "time"

// RuleType identifies the kind of watch condition a rule evaluates.
type RuleType string

const (
	RulePrice      RuleType = "price"
	RuleStopLoss   RuleType = "stop_loss"
	RuleTakeProfit RuleType = "take_profit"
	RuleAbnormal   RuleType = "abnormal"
	RuleSignal     RuleType = "signal"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	switch t {
	case RulePrice, RuleStopLoss, RuleTakeProfit, RuleAbnormal, RuleSignal:
		return true
	}
	return false
}

// Direction indicates which way a price rule watches.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ChannelKind names a notification channel a rule can fan out to.
type ChannelKind string

const (
	ChannelBrowser  ChannelKind = "browser"
	ChannelSound    ChannelKind = "sound"
	ChannelInternal ChannelKind = "internal"
)

// TargetCondition holds the conditions for price, stop_loss and take_profit
// rules.
type TargetCondition struct {
	TargetPrice float64   `json:"target_price"`
	Direction   Direction `json:"direction,omitempty"`
}

// ThresholdCondition holds the conditions for abnormal and signal rules.
// Zero values fall back to the engine's policy defaults.
type ThresholdCondition struct {
	ChangePercent float64 `json:"change_percent,omitempty"`
	VolumeRatio   float64 `json:"volume_ratio,omitempty"`
}

// Conditions is a discriminated variant keyed by the rule type: exactly one
// branch is set for a valid rule.
type Conditions struct {
	Target    *TargetCondition    `json:"target,omitempty"`
	Threshold *ThresholdCondition `json:"threshold,omitempty"`
}

// TargetConditions builds the conditions for a price-keyed rule.
func TargetConditions(targetPrice float64, direction Direction) Conditions {
	return Conditions{Target: &TargetCondition{TargetPrice: targetPrice, Direction: direction}}
}

// ThresholdConditions builds the conditions for an abnormal or signal rule.
func ThresholdConditions(changePercent, volumeRatio float64) Conditions {
	return Conditions{Threshold: &ThresholdCondition{ChangePercent: changePercent, VolumeRatio: volumeRatio}}
}

// AlertRule is a persisted watch condition over one stock.
type AlertRule struct {
	ID               string        `json:"id"`
	Type             RuleType      `json:"type"`
	StockCode        string        `json:"stock_code"`
	StockName        string        `json:"stock_name"`
	Conditions       Conditions    `json:"conditions"`
	IsActive         bool          `json:"is_active"`
	CreatedAt        time.Time     `json:"created_at"`
	ExpiresAt        time.Time     `json:"expires_at"`
	LastTriggeredAt  *time.Time    `json:"last_triggered_at,omitempty"`
	Channels         []ChannelKind `json:"notification_channels"`
	SourcePositionID string        `json:"source_position_id,omitempty"`
}

// Expired reports whether the rule is past its expiry at the given instant.
func (r *AlertRule) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}

// HasChannel reports whether the rule fans out to the given channel.
func (r *AlertRule) HasChannel(kind ChannelKind) bool {
	for _, c := range r.Channels {
		if c == kind {
			return true
		}
	}
	return false
}

// AlertHistoryItem is an immutable record of one dispatched alert. RuleID is
// a weak reference and may outlive the rule it points at.
type AlertHistoryItem struct {
	ID          string         `json:"id"`
	RuleID      string         `json:"rule_id"`
	TriggeredAt time.Time      `json:"triggered_at"`
	Message     string         `json:"message"`
	Read        bool           `json:"read"`
	Data        map[string]any `json:"data,omitempty"`
}
