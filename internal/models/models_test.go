package models

import (
	"testing"
	"time"
)

func TestRuleTypeValid(t *testing.T) {
	for _, rt := range []RuleType{RulePrice, RuleStopLoss, RuleTakeProfit, RuleAbnormal, RuleSignal} {
		if !rt.Valid() {
			t.Errorf("%s should be valid", rt)
		}
	}
	if RuleType("bogus").Valid() {
		t.Error("bogus type should be invalid")
	}
	if RuleType("").Valid() {
		t.Error("empty type should be invalid")
	}
}

func TestRuleExpired(t *testing.T) {
	now := time.Date(2025, 9, 2, 10, 0, 0, 0, time.UTC)

	rule := AlertRule{ExpiresAt: now.Add(time.Minute)}
	if rule.Expired(now) {
		t.Error("rule expiring in the future reported expired")
	}

	rule.ExpiresAt = now.Add(-time.Minute)
	if !rule.Expired(now) {
		t.Error("rule past its expiry reported live")
	}

	// Exactly at the boundary the rule is still live.
	rule.ExpiresAt = now
	if rule.Expired(now) {
		t.Error("rule expiring exactly now reported expired")
	}
}

func TestCategoryEnabled(t *testing.T) {
	s := DefaultNotificationSettings()
	s.PriceAlert = false
	s.PositionAlert = true
	s.WatchlistAlert = false

	tests := []struct {
		ruleType RuleType
		want     bool
	}{
		{RulePrice, false},
		{RuleStopLoss, true},
		{RuleTakeProfit, true},
		{RuleAbnormal, false},
		{RuleSignal, false},
	}

	for _, tt := range tests {
		if got := s.CategoryEnabled(tt.ruleType); got != tt.want {
			t.Errorf("CategoryEnabled(%s) = %v, want %v", tt.ruleType, got, tt.want)
		}
	}
}

func TestChannelSettingsEnabled(t *testing.T) {
	s := ChannelSettings{Browser: true, Sound: false, Internal: true}
	if !s.Enabled(ChannelBrowser) || s.Enabled(ChannelSound) || !s.Enabled(ChannelInternal) {
		t.Errorf("Enabled mismatch for %+v", s)
	}
	if s.Enabled(ChannelKind("carrier-pigeon")) {
		t.Error("unknown channel kind should be disabled")
	}
}

func TestMarketPriceFallback(t *testing.T) {
	p := Position{BuyPrice: 10}
	if got := p.MarketPrice(); got != 10 {
		t.Errorf("MarketPrice = %v, want buy price fallback", got)
	}

	current := 12.5
	p.CurrentPrice = &current
	if got := p.MarketPrice(); got != 12.5 {
		t.Errorf("MarketPrice = %v, want current price", got)
	}
}

func TestHasChannel(t *testing.T) {
	r := AlertRule{Channels: []ChannelKind{ChannelBrowser, ChannelSound}}
	if !r.HasChannel(ChannelBrowser) {
		t.Error("browser channel missing")
	}
	if r.HasChannel(ChannelInternal) {
		t.Error("internal channel unexpectedly present")
	}
}
