package market

import (
	"fmt"
	"time"
)

// Calendar answers market-session questions for a single equity exchange:
// open/close instants, weekday sessions, and the as-of boundaries the
// timeframe synchronizer needs.
type Calendar struct {
	Location    *time.Location
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
}

// NewCalendar builds a Calendar for the given IANA timezone and "HH:MM"
// open/close times.
func NewCalendar(timezone, open, close string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load market timezone: %w", err)
	}
	c := &Calendar{Location: loc}
	if c.OpenHour, c.OpenMinute, err = parseClock(open); err != nil {
		return nil, fmt.Errorf("parse market open: %w", err)
	}
	if c.CloseHour, c.CloseMinute, err = parseClock(close); err != nil {
		return nil, fmt.Errorf("parse market close: %w", err)
	}
	return c, nil
}

func parseClock(s string) (hour, minute int, err error) {
	if _, err = fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, err
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	return hour, minute, nil
}

// Now returns the current instant in the exchange timezone.
func (c *Calendar) Now() time.Time { return time.Now().In(c.Location) }

// OpenAt returns the session open instant on t's calendar day.
func (c *Calendar) OpenAt(t time.Time) time.Time {
	t = t.In(c.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), c.OpenHour, c.OpenMinute, 0, 0, c.Location)
}

// CloseAt returns the session close instant on t's calendar day.
func (c *Calendar) CloseAt(t time.Time) time.Time {
	t = t.In(c.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), c.CloseHour, c.CloseMinute, 0, 0, c.Location)
}

// IsOpen reports whether the market is in session at t.
func (c *Calendar) IsOpen(t time.Time) bool {
	t = t.In(c.Location)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !t.Before(c.OpenAt(t)) && !t.After(c.CloseAt(t))
}

// HourBoundary returns the top-of-hour instant whose 60-minute bar is fully
// closed at t: t itself when t sits exactly on an hour boundary, otherwise
// one hour before the floored hour. The floor is built from local clock
// components so zones with fractional UTC offsets floor to their own :00.
func (c *Calendar) HourBoundary(t time.Time) time.Time {
	t = t.In(c.Location)
	floored := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, c.Location)
	if t.Equal(floored) {
		return floored
	}
	return floored.Add(-time.Hour)
}

// DailyBoundary returns the most recent market-close instant at or before t,
// rolling back over weekends.
func (c *Calendar) DailyBoundary(t time.Time) time.Time {
	t = t.In(c.Location)
	boundary := c.CloseAt(t)
	if t.Before(boundary) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	for boundary.Weekday() == time.Saturday || boundary.Weekday() == time.Sunday {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}

// SameTradingDay reports whether a and b fall on the same calendar date in
// the exchange timezone.
func (c *Calendar) SameTradingDay(a, b time.Time) bool {
	a, b = a.In(c.Location), b.In(c.Location)
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
