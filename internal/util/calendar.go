package util

import (
	"time"
)

// Beijing time, the exchange timezone for both SSE and SZSE.
var cst = time.FixedZone("CST", 8*60*60)

// Session hours for the A-share market: 09:30-11:30 and 13:00-15:00.
const (
	morningOpenMin    = 9*60 + 30
	morningCloseMin   = 11*60 + 30
	afternoonOpenMin  = 13 * 60
	afternoonCloseMin = 15 * 60
)

// TradingCalendar provides market-hours awareness for the China A-share
// market. Exchange holidays are not modelled; a holiday simply yields an
// empty fetch upstream.
type TradingCalendar struct{}

// NewTradingCalendar creates a TradingCalendar.
func NewTradingCalendar() *TradingCalendar {
	return &TradingCalendar{}
}

// IsTradingDay returns whether t falls on a weekday in exchange time.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	wd := t.In(cst).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsMarketOpen returns whether the market is in session at time t.
func (tc *TradingCalendar) IsMarketOpen(t time.Time) bool {
	if !tc.IsTradingDay(t) {
		return false
	}
	lt := t.In(cst)
	mins := lt.Hour()*60 + lt.Minute()
	return (mins >= morningOpenMin && mins < morningCloseMin) ||
		(mins >= afternoonOpenMin && mins < afternoonCloseMin)
}

// NextOpen returns the next session open at or after t.
func (tc *TradingCalendar) NextOpen(t time.Time) time.Time {
	lt := t.In(cst)
	for {
		if tc.IsTradingDay(lt) {
			mins := lt.Hour()*60 + lt.Minute()
			switch {
			case mins < morningOpenMin:
				return time.Date(lt.Year(), lt.Month(), lt.Day(), 9, 30, 0, 0, cst)
			case mins >= morningCloseMin && mins < afternoonOpenMin:
				return time.Date(lt.Year(), lt.Month(), lt.Day(), 13, 0, 0, 0, cst)
			case tc.IsMarketOpen(lt):
				return lt
			}
		}
		// Roll to the next day's morning.
		lt = time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, cst).AddDate(0, 0, 1)
	}
}

// LatestFinishedTradingDay returns the most recent weekday whose 15:00 close
// has already passed at time now, as a midnight-UTC date.
func LatestFinishedTradingDay(now time.Time) time.Time {
	lt := now.In(cst)
	for {
		wd := lt.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			mins := lt.Hour()*60 + lt.Minute()
			if mins >= afternoonCloseMin {
				return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
			}
		}
		lt = time.Date(lt.Year(), lt.Month(), lt.Day(), 23, 59, 0, 0, cst).AddDate(0, 0, -1)
	}
}
