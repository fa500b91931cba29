// Package markethours reports the FCPO trading session state on Bursa
// Malaysia Derivatives. The dashboard shows it next to the simulated price.
package markethours

import (
	"fmt"
	"time"
)

// MYT is Malaysia Time (UTC+8).
var MYT = time.FixedZone("MYT", 8*3600)

// Session is one continuous trading window in MYT.
type Session struct {
	OpenHour, OpenMinute   int
	CloseHour, CloseMinute int
}

func (s Session) open(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), s.OpenHour, s.OpenMinute, 0, 0, MYT)
}

func (s Session) close(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), s.CloseHour, s.CloseMinute, 0, 0, MYT)
}

// Sessions are the FCPO day sessions: 10:30–12:30 and 14:30–18:00 MYT.
var Sessions = []Session{
	{OpenHour: 10, OpenMinute: 30, CloseHour: 12, CloseMinute: 30},
	{OpenHour: 14, OpenMinute: 30, CloseHour: 18, CloseMinute: 0},
}

// IsWeekday returns true if t is Mon–Fri in MYT.
func IsWeekday(t time.Time) bool {
	wd := t.In(MYT).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if t is a weekday and not a holiday.
func IsTradingDay(t time.Time) bool {
	myt := t.In(MYT)
	return IsWeekday(myt) && !IsHoliday(myt)
}

// currentSession returns the session containing t, if any.
func currentSession(t time.Time) (Session, bool) {
	myt := t.In(MYT)
	if !IsTradingDay(myt) {
		return Session{}, false
	}
	for _, s := range Sessions {
		if !myt.Before(s.open(myt)) && myt.Before(s.close(myt)) {
			return s, true
		}
	}
	return Session{}, false
}

// IsMarketOpen returns true if t falls inside a trading session.
func IsMarketOpen(t time.Time) bool {
	_, ok := currentSession(t)
	return ok
}

// NextOpen returns the start of the next session strictly after t.
// If t is between the morning and afternoon sessions, that is today's
// afternoon open.
func NextOpen(t time.Time) time.Time {
	myt := t.In(MYT)
	if IsTradingDay(myt) {
		for _, s := range Sessions {
			if o := s.open(myt); myt.Before(o) {
				return o
			}
		}
	}

	d := myt.AddDate(0, 0, 1)
	for i := 0; i < 14; i++ { // weekends plus the longest holiday run
		if IsTradingDay(d) {
			return Sessions[0].open(d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return Sessions[0].open(myt.AddDate(0, 0, 1))
}

// TimeUntilClose returns the duration until the current session closes.
// Returns 0 if the market is closed.
func TimeUntilClose(t time.Time) time.Duration {
	s, ok := currentSession(t)
	if !ok {
		return 0
	}
	myt := t.In(MYT)
	return s.close(myt).Sub(myt)
}

// StatusString returns a human-readable market status.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		return fmt.Sprintf("Market Open (closes in %s)", fmtDur(TimeUntilClose(t)))
	}
	next := NextOpen(t)
	myt := next.In(MYT)
	return fmt.Sprintf("Market Closed (opens %s %s, in %s)",
		myt.Weekday().String()[:3], myt.Format("15:04"), fmtDur(next.Sub(t)))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
