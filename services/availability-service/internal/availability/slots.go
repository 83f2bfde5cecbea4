package availability

import (
	"time"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
)

// SlotStepMinutes is the fixed cadence between candidate start times.
// The cadence does not grow with the requested treatment duration, so long
// treatments can still start on any half-hour boundary.
const SlotStepMinutes = 30

// DefaultDurationMinutes applies when neither the appointment nor its
// treatment type carries an explicit duration.
const DefaultDurationMinutes = 60

// Interval is a half-open time range [Start, End). The end minute itself is
// not occupied, which is what allows back-to-back bookings.
type Interval struct {
	Start clock.Minute
	End   clock.Minute
}

// Overlaps reports whether two half-open intervals share any minute.
// [s1,e1) overlaps [s2,e2) iff s1 < e2 && s2 < e1.
func (p Interval) Overlaps(q Interval) bool {
	return p.Start < q.End && q.Start < p.End
}

// OperatingWindow is one weekday's open/close/break configuration for a branch.
type OperatingWindow struct {
	BranchID int64
	Weekday  time.Weekday
	IsOpen   bool
	Open     clock.Minute
	Close    clock.Minute
	Break    *Interval
}

// BookedPeriod is an active appointment's occupied interval.
type BookedPeriod struct {
	Start           clock.Minute
	DurationMinutes int
}

func (b BookedPeriod) Interval() Interval {
	return Interval{Start: b.Start, End: b.Start + clock.Minute(b.DurationMinutes)}
}

// BlockedPeriod is a manually blocked window authored by staff.
type BlockedPeriod struct {
	Start  clock.Minute
	End    clock.Minute
	Reason string
}

func (b BlockedPeriod) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// Reason explains why a slot is unavailable. Empty means available.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonInsufficientTime Reason = "insufficient_time"
	ReasonOverlap          Reason = "overlap"
	ReasonBlocked          Reason = "blocked"
)

// CandidateSlot is a generated, not-yet-evaluated start time.
type CandidateSlot struct {
	Time            clock.Minute
	Display         string
	Period          string
	DurationMinutes int
}

// EvaluatedSlot is a candidate with its availability verdict.
type EvaluatedSlot struct {
	CandidateSlot
	End       clock.Minute
	Available bool
	Reason    Reason
}

// PeriodOfDay buckets a start time into the display band shown to patients.
// Boundaries are half-open: a slot at exactly 12:00 is Afternoon.
func PeriodOfDay(m clock.Minute) string {
	switch h := m.Hour(); {
	case h < 10:
		return "Morning"
	case h < 12:
		return "Late Morning"
	case h < 15:
		return "Afternoon"
	default:
		return "Evening"
	}
}

// Candidates generates the ordered start times for one day at the fixed
// cadence. A start is produced only if a booking of durationMinutes fits
// before close, and never when the start falls inside the break window.
// A start before the break whose interval merely crosses into it is still
// produced.
func Candidates(window OperatingWindow, durationMinutes int) []CandidateSlot {
	if !window.IsOpen || durationMinutes <= 0 {
		return nil
	}
	if window.Open >= window.Close {
		return nil
	}

	var slots []CandidateSlot
	for t := window.Open; int(t)+durationMinutes <= int(window.Close); t += SlotStepMinutes {
		if window.Break != nil && t >= window.Break.Start && t < window.Break.End {
			continue
		}
		slots = append(slots, CandidateSlot{
			Time:            t,
			Display:         t.Display(),
			Period:          PeriodOfDay(t),
			DurationMinutes: durationMinutes,
		})
	}
	return slots
}

// Evaluate decides whether a candidate interval is bookable. Checks run in a
// fixed order and the first failure wins: the slot must fit before close,
// must not overlap an active booking, and must not overlap a blocked period.
func Evaluate(start clock.Minute, durationMinutes int, close clock.Minute, bookings []BookedPeriod, blocks []BlockedPeriod) (bool, Reason) {
	candidate := Interval{Start: start, End: start + clock.Minute(durationMinutes)}

	if candidate.End > close {
		return false, ReasonInsufficientTime
	}
	for _, b := range bookings {
		if candidate.Overlaps(b.Interval()) {
			return false, ReasonOverlap
		}
	}
	for _, b := range blocks {
		if candidate.Overlaps(b.Interval()) {
			return false, ReasonBlocked
		}
	}
	return true, ReasonNone
}
