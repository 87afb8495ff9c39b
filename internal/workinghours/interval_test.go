package workinghours

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func weekdaySchedule(open Weekday, w Window) Schedule {
	sched := Schedule{Zone: time.UTC}
	win := w
	sched.Windows[open] = &win
	return sched
}

func mondayToFriday(w Window) Schedule {
	sched := Schedule{Zone: time.UTC}
	for d := Monday; d <= Friday; d++ {
		win := w
		sched.Windows[d] = &win
	}
	return sched
}

func TestWorkingSeconds_S1_FullyWithinDay(t *testing.T) {
	sched := mondayToFriday(Window{Start: 9 * time.Hour, End: 18 * time.Hour})
	t0 := mustTime(t, "2025-01-06T10:00:00Z")
	t1 := mustTime(t, "2025-01-06T10:05:00Z")
	got := WorkingSeconds(t0, t1, sched, Options{})
	if got != 300 {
		t.Fatalf("got %v, want 300", got)
	}
}

func TestWorkingSeconds_S2_StraddlesStart(t *testing.T) {
	sched := mondayToFriday(Window{Start: 9 * time.Hour, End: 18 * time.Hour})
	t0 := mustTime(t, "2025-01-06T08:30:00Z")
	t1 := mustTime(t, "2025-01-06T09:30:00Z")

	correct := WorkingSeconds(t0, t1, sched, Options{})
	if correct != 1800 {
		t.Fatalf("correct mode: got %v, want 1800", correct)
	}

	compat := WorkingSeconds(t0, t1, sched, Options{StrictSameDayContainment: true})
	if compat != 0 {
		t.Fatalf("compat mode: got %v, want 0", compat)
	}
}

func TestWorkingSeconds_S3_ClosedWeekend(t *testing.T) {
	sched := mondayToFriday(Window{Start: 9 * time.Hour, End: 18 * time.Hour})
	t0 := mustTime(t, "2025-01-04T10:00:00Z") // Saturday
	t1 := mustTime(t, "2025-01-06T10:00:00Z") // Monday
	got := WorkingSeconds(t0, t1, sched, Options{})
	if got != 3600 {
		t.Fatalf("got %v, want 3600", got)
	}
}

func TestWorkingSeconds_S4_OvernightWindow(t *testing.T) {
	sched := weekdaySchedule(Monday, Window{Start: 22 * time.Hour, End: 6 * time.Hour})
	t0 := mustTime(t, "2025-01-06T23:30:00Z")
	t1 := mustTime(t, "2025-01-07T02:30:00Z")
	got := WorkingSeconds(t0, t1, sched, Options{})
	if got != 10800 {
		t.Fatalf("got %v, want 10800", got)
	}
}

func TestWorkingSeconds_ZeroOrNegativeRange(t *testing.T) {
	sched := DefaultSchedule(nil)
	t0 := mustTime(t, "2025-01-06T10:00:00Z")
	if got := WorkingSeconds(t0, t0, sched, Options{}); got != 0 {
		t.Fatalf("t0==t1: got %v, want 0", got)
	}
	t1 := mustTime(t, "2025-01-06T09:00:00Z")
	if got := WorkingSeconds(t0, t1, sched, Options{}); got != 0 {
		t.Fatalf("t0>t1: got %v, want 0", got)
	}
}

func TestWorkingSeconds_ClosedDay_SameWeekday(t *testing.T) {
	sched := mondayToFriday(Window{Start: 9 * time.Hour, End: 18 * time.Hour})
	t0 := mustTime(t, "2025-01-04T01:00:00Z") // Saturday
	t1 := mustTime(t, "2025-01-04T23:00:00Z") // Saturday
	if got := WorkingSeconds(t0, t1, sched, Options{}); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestWorkingSeconds_ZeroZeroRangeIsClosed(t *testing.T) {
	sched := weekdaySchedule(Monday, Window{Start: 0, End: 0})
	t0 := mustTime(t, "2025-01-06T00:00:00Z")
	t1 := mustTime(t, "2025-01-06T23:59:59Z")
	if got := WorkingSeconds(t0, t1, sched, Options{}); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestWorkingSeconds_Monotonic(t *testing.T) {
	sched := mondayToFriday(Window{Start: 9 * time.Hour, End: 18 * time.Hour})
	t0 := mustTime(t, "2025-01-03T12:00:00Z")
	checkpoints := []string{
		"2025-01-03T18:00:00Z",
		"2025-01-06T09:30:00Z",
		"2025-01-08T23:00:00Z",
		"2025-01-10T09:00:00Z",
	}
	prev := 0.0
	for _, cp := range checkpoints {
		got := WorkingSeconds(t0, mustTime(t, cp), sched, Options{})
		if got < prev {
			t.Fatalf("monotonicity violated at %s: %v < %v", cp, got, prev)
		}
		prev = got
	}
}

func TestWorkingSeconds_SubAdditiveSplit(t *testing.T) {
	sched := mondayToFriday(Window{Start: 9 * time.Hour, End: 18 * time.Hour})
	t0 := mustTime(t, "2025-01-03T12:00:00Z")
	tm := mustTime(t, "2025-01-06T09:30:00Z")
	t1 := mustTime(t, "2025-01-08T23:00:00Z")

	whole := WorkingSeconds(t0, t1, sched, Options{})
	left := WorkingSeconds(t0, tm, sched, Options{})
	right := WorkingSeconds(tm, t1, sched, Options{})
	if whole != left+right {
		t.Fatalf("split mismatch: whole=%v left+right=%v", whole, left+right)
	}
}

func TestWorkingSeconds_Bounded(t *testing.T) {
	sched := mondayToFriday(Window{Start: 9 * time.Hour, End: 18 * time.Hour})
	t0 := mustTime(t, "2025-01-03T00:00:00Z")
	t1 := mustTime(t, "2025-01-10T00:00:00Z")
	got := WorkingSeconds(t0, t1, sched, Options{})
	if got < 0 || got > t1.Sub(t0).Seconds() {
		t.Fatalf("bound violated: got %v, range %v", got, t1.Sub(t0).Seconds())
	}
}

func TestWorkingSeconds_S6_AverageScenario(t *testing.T) {
	sched := mondayToFriday(Window{Start: 9 * time.Hour, End: 18 * time.Hour})
	pairs := [][2]string{
		{"2025-01-06T09:00:00Z", "2025-01-06T09:05:00Z"},
		{"2025-01-06T09:30:00Z", "2025-01-06T09:32:00Z"},
		{"2025-01-06T20:00:00Z", "2025-01-07T10:00:00Z"},
	}
	want := []float64{300, 120, 3600}
	for i, p := range pairs {
		got := WorkingSeconds(mustTime(t, p[0]), mustTime(t, p[1]), sched, Options{})
		if got != want[i] {
			t.Fatalf("pair %d: got %v, want %v", i, got, want[i])
		}
	}
}
