package models

// ChannelSettings enables or disables each notification channel globally.
type ChannelSettings struct {
	Browser  bool `json:"browser"`
	Sound    bool `json:"sound"`
	Internal bool `json:"internal"`
}

// Enabled reports whether the given channel is switched on.
func (c ChannelSettings) Enabled(kind ChannelKind) bool {
	switch kind {
	case ChannelBrowser:
		return c.Browser
	case ChannelSound:
		return c.Sound
	case ChannelInternal:
		return c.Internal
	}
	return false
}

// NotificationSettings holds the user-tunable alerting knobs. The engine
// reloads them from the repository at the start of every evaluation cycle.
type NotificationSettings struct {
	MasterSwitch       bool            `json:"master_switch"`
	PriceAlert         bool            `json:"price_alert"`
	PositionAlert      bool            `json:"position_alert"`
	WatchlistAlert     bool            `json:"watchlist_alert"`
	MaxAlertsPerDay    int             `json:"max_alerts_per_day"`
	AlertIntervalHours float64         `json:"alert_interval_hours"`
	TradingHoursOnly   bool            `json:"trading_hours_only"`
	Channels           ChannelSettings `json:"channels"`
}

// DefaultNotificationSettings returns the settings used before the user has
// saved any.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		MasterSwitch:       true,
		PriceAlert:         true,
		PositionAlert:      true,
		WatchlistAlert:     true,
		MaxAlertsPerDay:    20,
		AlertIntervalHours: 1,
		TradingHoursOnly:   true,
		Channels:           ChannelSettings{Browser: true, Sound: true, Internal: true},
	}
}

// CategoryEnabled reports whether alerts of the given rule type are enabled.
// Price rules map to the price toggle, stop-loss and take-profit to the
// position toggle, abnormal and signal to the watchlist toggle.
func (s NotificationSettings) CategoryEnabled(t RuleType) bool {
	switch t {
	case RulePrice:
		return s.PriceAlert
	case RuleStopLoss, RuleTakeProfit:
		return s.PositionAlert
	case RuleAbnormal, RuleSignal:
		return s.WatchlistAlert
	}
	return true
}

// Quote is a point-in-time market snapshot for one stock. MarketCap is in
// units of 100 million CNY.
type Quote struct {
	Code          string  `json:"code"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	VolumeRatio   float64 `json:"volume_ratio"`
	MarketCap     float64 `json:"market_cap"`
}
