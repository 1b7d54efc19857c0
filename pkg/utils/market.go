// Package utils provides shared market-calendar and formatting helpers.
package utils

import "time"

// ChinaLocation is the timezone for mainland A-share markets.
var ChinaLocation *time.Location

func init() {
	var err error
	ChinaLocation, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// Fallback to UTC+8
		ChinaLocation = time.FixedZone("CST", 8*60*60)
	}
}

// MarketStatus represents the current trading-session state.
type MarketStatus string

const (
	MarketClosed     MarketStatus = "closed"
	MarketOpen       MarketStatus = "open"
	MarketLunchBreak MarketStatus = "lunch_break"
)

// GetMarketStatus returns the market status at the given instant.
// Sessions: weekdays 09:30-11:30 and 13:00-15:00 local time.
func GetMarketStatus(now time.Time) MarketStatus {
	now = now.In(ChinaLocation)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return MarketClosed
	}

	timeMinutes := now.Hour()*60 + now.Minute()

	// Morning session: 9:30 - 11:30
	if timeMinutes >= 570 && timeMinutes <= 690 {
		return MarketOpen
	}

	// Lunch break: 11:30 - 13:00
	if timeMinutes > 690 && timeMinutes < 780 {
		return MarketLunchBreak
	}

	// Afternoon session: 13:00 - 15:00
	if timeMinutes >= 780 && timeMinutes <= 900 {
		return MarketOpen
	}

	return MarketClosed
}

// IsTradingHours reports whether the market is in session at the given
// instant.
func IsTradingHours(now time.Time) bool {
	return GetMarketStatus(now) == MarketOpen
}

// NextTradingOpen returns the next session opening time after now.
func NextTradingOpen(now time.Time) time.Time {
	now = now.In(ChinaLocation)

	morning := time.Date(now.Year(), now.Month(), now.Day(), 9, 30, 0, 0, ChinaLocation)
	afternoon := time.Date(now.Year(), now.Month(), now.Day(), 13, 0, 0, 0, ChinaLocation)

	var next time.Time
	switch {
	case now.Before(morning):
		next = morning
	case now.Before(afternoon):
		next = afternoon
	default:
		next = morning.AddDate(0, 0, 1)
	}

	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

// TodayClose returns today's final session close time.
func TodayClose(now time.Time) time.Time {
	now = now.In(ChinaLocation)
	return time.Date(now.Year(), now.Month(), now.Day(), 15, 0, 0, 0, ChinaLocation)
}
