package availability

import (
	"testing"
	"time"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
)

func mustClock(t *testing.T, s string) clock.Minute {
	t.Helper()
	m, err := clock.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func openWindow(t *testing.T, open, close string) OperatingWindow {
	t.Helper()
	return OperatingWindow{
		BranchID: 1,
		Weekday:  time.Monday,
		IsOpen:   true,
		Open:     mustClock(t, open),
		Close:    mustClock(t, close),
	}
}

func TestOverlapsSymmetry(t *testing.T) {
	pairs := []struct{ a, b Interval }{
		{Interval{540, 600}, Interval{570, 630}},
		{Interval{540, 600}, Interval{600, 660}},
		{Interval{540, 690}, Interval{600, 660}},
		{Interval{540, 600}, Interval{900, 960}},
	}
	for _, p := range pairs {
		if p.a.Overlaps(p.b) != p.b.Overlaps(p.a) {
			t.Errorf("overlap not symmetric for %v and %v", p.a, p.b)
		}
	}
}

func TestOverlapsBoundary(t *testing.T) {
	// [09:00,10:00) and [10:00,11:00) touch but do not overlap.
	a := Interval{540, 600}
	b := Interval{600, 660}
	if a.Overlaps(b) || b.Overlaps(a) {
		t.Fatal("back-to-back intervals must not conflict")
	}
}

func TestOverlapsNested(t *testing.T) {
	// Candidate [10:00,11:00) sits entirely inside booking [09:00,11:30).
	booking := Interval{540, 690}
	candidate := Interval{600, 660}
	if !candidate.Overlaps(booking) {
		t.Fatal("nested interval must conflict")
	}
}

func TestCandidates_FullDayNoBreak(t *testing.T) {
	slots := Candidates(openWindow(t, "09:00", "17:00"), 60)
	// Every 30 minutes from 09:00 through 16:00 inclusive.
	if len(slots) != 15 {
		t.Fatalf("expected 15 candidates, got %d", len(slots))
	}
	if slots[0].Time.String() != "09:00" {
		t.Errorf("first candidate %s, want 09:00", slots[0].Time)
	}
	if last := slots[len(slots)-1]; last.Time.String() != "16:00" {
		t.Errorf("last candidate %s, want 16:00", last.Time)
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Time-slots[i-1].Time != SlotStepMinutes {
			t.Fatalf("cadence broken between %s and %s", slots[i-1].Time, slots[i].Time)
		}
	}
}

func TestCandidates_BreakExcluded(t *testing.T) {
	w := openWindow(t, "09:00", "17:00")
	w.Break = &Interval{Start: mustClock(t, "12:00"), End: mustClock(t, "13:00")}

	for _, s := range Candidates(w, 60) {
		if s.Time.String() == "12:00" || s.Time.String() == "12:30" {
			t.Errorf("candidate %s generated inside break window", s.Time)
		}
	}
}

func TestCandidates_StartBeforeBreakStillGenerated(t *testing.T) {
	w := openWindow(t, "09:00", "17:00")
	w.Break = &Interval{Start: mustClock(t, "12:00"), End: mustClock(t, "13:00")}

	found := false
	for _, s := range Candidates(w, 60) {
		if s.Time.String() == "11:30" {
			found = true
		}
	}
	if !found {
		t.Fatal("11:30 starts before the break and must be generated")
	}
}

func TestCandidates_ClosedDay(t *testing.T) {
	w := openWindow(t, "09:00", "17:00")
	w.IsOpen = false
	if slots := Candidates(w, 60); slots != nil {
		t.Fatalf("closed day produced %d candidates", len(slots))
	}
}

func TestCandidates_DurationLongerThanDay(t *testing.T) {
	if slots := Candidates(openWindow(t, "09:00", "10:00"), 120); slots != nil {
		t.Fatalf("expected no candidates, got %d", len(slots))
	}
}

func TestPeriodOfDay(t *testing.T) {
	cases := []struct {
		at   string
		want string
	}{
		{"09:00", "Morning"},
		{"09:30", "Morning"},
		{"10:00", "Late Morning"},
		{"11:30", "Late Morning"},
		{"12:00", "Afternoon"},
		{"14:30", "Afternoon"},
		{"15:00", "Evening"},
		{"18:00", "Evening"},
	}
	for _, tc := range cases {
		if got := PeriodOfDay(mustClock(t, tc.at)); got != tc.want {
			t.Errorf("PeriodOfDay(%s) = %q, want %q", tc.at, got, tc.want)
		}
	}
}

func TestEvaluate_SufficiencyBeforeConflicts(t *testing.T) {
	closeAt := mustClock(t, "17:00")
	// The candidate both exceeds close and overlaps a booking;
	// insufficient_time is checked first and wins.
	bookings := []BookedPeriod{{Start: mustClock(t, "16:00"), DurationMinutes: 60}}

	ok, reason := Evaluate(mustClock(t, "16:00"), 120, closeAt, bookings, nil)
	if ok || reason != ReasonInsufficientTime {
		t.Fatalf("got (%v, %q), want (false, insufficient_time)", ok, reason)
	}
}

func TestEvaluate_EndAtCloseIsAvailable(t *testing.T) {
	closeAt := mustClock(t, "17:00")
	ok, reason := Evaluate(mustClock(t, "15:00"), 120, closeAt, nil, nil)
	if !ok || reason != ReasonNone {
		t.Fatalf("slot ending exactly at close must be available, got (%v, %q)", ok, reason)
	}
}

func TestEvaluate_OverlapBeforeBlocked(t *testing.T) {
	closeAt := mustClock(t, "17:00")
	bookings := []BookedPeriod{{Start: mustClock(t, "09:00"), DurationMinutes: 60}}
	blocks := []BlockedPeriod{{Start: mustClock(t, "09:00"), End: mustClock(t, "10:00"), Reason: "maintenance"}}

	ok, reason := Evaluate(mustClock(t, "09:30"), 60, closeAt, bookings, blocks)
	if ok || reason != ReasonOverlap {
		t.Fatalf("got (%v, %q), want (false, overlap)", ok, reason)
	}
}

func TestEvaluate_Blocked(t *testing.T) {
	closeAt := mustClock(t, "17:00")
	blocks := []BlockedPeriod{{Start: mustClock(t, "14:00"), End: mustClock(t, "15:00"), Reason: "equipment repair"}}

	ok, reason := Evaluate(mustClock(t, "14:30"), 60, closeAt, nil, blocks)
	if ok || reason != ReasonBlocked {
		t.Fatalf("got (%v, %q), want (false, blocked)", ok, reason)
	}
}

func TestEvaluate_BackToBackBookingAllowed(t *testing.T) {
	closeAt := mustClock(t, "17:00")
	bookings := []BookedPeriod{{Start: mustClock(t, "09:00"), DurationMinutes: 60}}

	ok, reason := Evaluate(mustClock(t, "10:00"), 60, closeAt, bookings, nil)
	if !ok || reason != ReasonNone {
		t.Fatalf("back-to-back slot must be available, got (%v, %q)", ok, reason)
	}
}

func TestEvaluate_AdjacentStartsConflictWithinDuration(t *testing.T) {
	closeAt := mustClock(t, "17:00")
	// Booking [09:00,10:00): the 09:30 candidate [09:30,10:30) overlaps it.
	bookings := []BookedPeriod{{Start: mustClock(t, "09:00"), DurationMinutes: 60}}

	ok, reason := Evaluate(mustClock(t, "09:30"), 60, closeAt, bookings, nil)
	if ok || reason != ReasonOverlap {
		t.Fatalf("got (%v, %q), want (false, overlap)", ok, reason)
	}
}
