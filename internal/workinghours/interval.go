package workinghours

import "time"

// Options tunes WorkingSeconds's observable behavior.
type Options struct {
	// StrictSameDayContainment reproduces the source system's fast-path
	// bug (§9 Open Question 1): for a same-civil-day interval, if it is not
	// *entirely* contained within a single weekday's window, the interval
	// contributes zero rather than the correctly clipped overlap. Defaults
	// to false (the correct, clipping behavior). Cross-day intervals always
	// use the correct day-walk regardless of this flag (§9 Open Question 2).
	StrictSameDayContainment bool
}

// span is a concrete, non-recurring [start, end) instant range.
type span struct {
	start, end time.Time
}

func (s span) seconds() float64 {
	d := s.end.Sub(s.start)
	if d <= 0 {
		return 0
	}
	return d.Seconds()
}

// overlap returns the half-open intersection of s with [lo, hi), or the
// zero span if they don't overlap.
func (s span) overlap(lo, hi time.Time) span {
	start := s.start
	if lo.After(start) {
		start = lo
	}
	end := s.end
	if hi.Before(end) {
		end = hi
	}
	if !start.Before(end) {
		return span{}
	}
	return span{start, end}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daySpans returns the disjoint, sorted open sub-intervals of civil day
// `day` (must already be truncated to midnight in the schedule's zone):
// the day's own weekday window (clipped to day if it wraps past midnight),
// plus any overnight carry-in from the previous weekday's window.
func daySpans(day time.Time, sched Schedule) []span {
	var out []span

	wd := WeekdayOf(day, day.Location())
	if w := sched.WindowFor(wd); w != nil {
		if w.overnight() {
			out = append(out, span{day.Add(w.Start), day.Add(24 * time.Hour)})
		} else {
			out = append(out, span{day.Add(w.Start), day.Add(w.End)})
		}
	}

	prevDay := day.AddDate(0, 0, -1)
	prevWd := WeekdayOf(prevDay, prevDay.Location())
	if pw := sched.WindowFor(prevWd); pw != nil && pw.overnight() {
		out = append(out, span{day, day.Add(pw.End)})
	}

	return mergeSpans(out)
}

// mergeSpans sorts and coalesces overlapping/adjacent spans.
func mergeSpans(spans []span) []span {
	if len(spans) < 2 {
		return spans
	}
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].start.Before(spans[j-1].start); j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if !s.start.After(last.end) {
			if s.end.After(last.end) {
				last.end = s.end
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// intersectSeconds sums the overlap of day's open sub-intervals with
// [lo, hi).
func intersectSeconds(day time.Time, sched Schedule, lo, hi time.Time) float64 {
	var total float64
	for _, s := range daySpans(day, sched) {
		total += s.overlap(lo, hi).seconds()
	}
	return total
}

// fullDaySeconds sums the total open seconds contributed to this civil day
// by its own window and any overnight carry-in, independent of any
// external interval bound. Used for whole days strictly between t0 and t1.
func fullDaySeconds(day time.Time, sched Schedule) float64 {
	var total float64
	for _, s := range daySpans(day, sched) {
		total += s.seconds()
	}
	return total
}

// sameDaySeconds handles the single-civil-day case, branching on the
// compatibility flag per §9 Open Question 1.
func sameDaySeconds(t0, t1, day time.Time, sched Schedule, opts Options) float64 {
	if !opts.StrictSameDayContainment {
		return intersectSeconds(day, sched, t0, t1)
	}
	for _, s := range daySpans(day, sched) {
		if !s.start.After(t0) && !t1.After(s.end) {
			return t1.Sub(t0).Seconds()
		}
	}
	return 0
}

// WorkingSeconds computes how many seconds of [t0, t1) intersect sched,
// per §4.D. t0 >= t1 returns 0. The result is always non-negative and
// bounded by t1-t0.
func WorkingSeconds(t0, t1 time.Time, sched Schedule, opts Options) float64 {
	if !t0.Before(t1) {
		return 0
	}
	loc := sched.zone()
	t0 = t0.In(loc)
	t1 = t1.In(loc)

	d0 := startOfDay(t0)
	d1 := startOfDay(t1)
	if d0.Equal(d1) {
		return sameDaySeconds(t0, t1, d0, sched, opts)
	}

	total := intersectSeconds(d0, sched, t0, d0.Add(24*time.Hour))
	for day := d0.AddDate(0, 0, 1); day.Before(d1); day = day.AddDate(0, 0, 1) {
		total += fullDaySeconds(day, sched)
	}
	total += intersectSeconds(d1, sched, d1, t1)
	return total
}
