// Package workinghours resolves per-principal working-hours calendars and
// computes how much of an arbitrary timestamp interval falls inside them.
package workinghours

import (
	"fmt"
	"time"
)

// Weekday is the calendar day numbering used throughout this package:
// Monday..Sunday, independent of time.Weekday's Sunday-first numbering.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func (d Weekday) String() string {
	names := [...]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
	if d < Monday || d > Sunday {
		return "invalid"
	}
	return names[d]
}

// timeWeekdayToOurs re-tabulates time.Weekday (Sunday=0..Saturday=6) to our
// Monday-first numbering. Indexed directly by int(time.Weekday()).
var timeWeekdayToOurs = [7]Weekday{
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

// WeekdayOf returns the Monday-first weekday of t in the given zone.
func WeekdayOf(t time.Time, loc *time.Location) Weekday {
	if loc == nil {
		loc = time.UTC
	}
	return timeWeekdayToOurs[int(t.In(loc).Weekday())]
}

// Window is a half-open [Start, End) time-of-day range, expressed as an
// offset from midnight. End < Start denotes an overnight range that wraps
// into the following calendar day.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// closed reports whether this window contributes zero seconds for any
// interval: both offsets pinned to 00:00:00, or a degenerate zero-length
// same-instant window.
func (w Window) closed() bool {
	return w.Start == w.End
}

// overnight reports whether the window wraps past midnight.
func (w Window) overnight() bool {
	return w.End < w.Start
}

// Schedule is a recurring weekly working-hours calendar: a window per
// weekday (nil/absent means closed that day) evaluated in Zone.
type Schedule struct {
	Windows [7]*Window
	Zone    *time.Location
}

// zone returns the schedule's reference zone, defaulting to UTC.
func (s Schedule) zone() *time.Location {
	if s.Zone == nil {
		return time.UTC
	}
	return s.Zone
}

// WindowFor returns the window configured for a weekday, or nil if that day
// is closed (absent or explicitly 00:00:00-00:00:00).
func (s Schedule) WindowFor(d Weekday) *Window {
	if d < Monday || d > Sunday {
		return nil
	}
	w := s.Windows[d]
	if w == nil || w.closed() {
		return nil
	}
	return w
}

// DefaultSchedule is the built-in fallback: open every day 09:00-18:00 in
// zone. A nil zone defaults to UTC (§9: the configured reference zone,
// ANALYTICS_SCHEDULE_TZ, with UTC as its own default).
func DefaultSchedule(zone *time.Location) Schedule {
	if zone == nil {
		zone = time.UTC
	}
	w := Window{Start: 9 * time.Hour, End: 18 * time.Hour}
	sched := Schedule{Zone: zone}
	for d := Monday; d <= Sunday; d++ {
		win := w
		sched.Windows[d] = &win
	}
	return sched
}

// ParseClock parses a wall-clock "HH:MM:SS" string into a duration offset
// from midnight. Returns an error for anything that isn't a valid
// 00:00:00-23:59:59 instant.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}
