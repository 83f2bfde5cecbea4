package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
)

// ScheduleSource provides a branch's weekly operating configuration.
type ScheduleSource interface {
	// OperatingWindow returns the configuration for one weekday. A missing
	// row (found == false) is treated the same as a closed day.
	OperatingWindow(ctx context.Context, branchID int64, weekday time.Weekday) (OperatingWindow, bool, error)
	WeeklySchedule(ctx context.Context, branchID int64) ([]OperatingWindow, error)
}

// BookingSource provides the active appointments for a branch and date.
type BookingSource interface {
	BookedPeriods(ctx context.Context, branchID int64, date time.Time) ([]BookedPeriod, error)
}

// BlockSource provides staff-authored blocked windows for a branch and date.
type BlockSource interface {
	BlockedPeriods(ctx context.Context, branchID int64, date time.Time) ([]BlockedPeriod, error)
}

// Service answers slot availability queries over injected data sources.
// It holds no state between calls; every request evaluates a fresh snapshot.
type Service struct {
	schedules ScheduleSource
	bookings  BookingSource
	blocks    BlockSource
}

func NewService(schedules ScheduleSource, bookings BookingSource, blocks BlockSource) *Service {
	return &Service{schedules: schedules, bookings: bookings, blocks: blocks}
}

// DayResult is the answer to "which start times are free on this date".
type DayResult struct {
	Day             string
	IsOpen          bool
	HoursDisplay    string
	BreakDisplay    string
	DurationMinutes int
	Slots           []EvaluatedSlot
	AvailableCount  int
	BookedCount     int
	BlockedCount    int
}

// DaySlots computes the evaluated slot list for a branch, date, and
// requested treatment duration. A closed weekday (or a weekday with no
// schedule row) is a normal result with no slots, not an error.
func (s *Service) DaySlots(ctx context.Context, branchID int64, date time.Time, durationMinutes int) (DayResult, error) {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}

	weekday := date.Weekday()
	window, found, err := s.schedules.OperatingWindow(ctx, branchID, weekday)
	if err != nil {
		return DayResult{}, fmt.Errorf("load operating window: %w", err)
	}

	result := DayResult{
		Day:             clock.WeekdayName(weekday),
		DurationMinutes: durationMinutes,
	}
	if !found || !window.IsOpen {
		return result, nil
	}
	result.IsOpen = true
	result.HoursDisplay = hoursDisplay(window)
	result.BreakDisplay = breakDisplay(window)

	bookings, err := s.bookings.BookedPeriods(ctx, branchID, date)
	if err != nil {
		return DayResult{}, fmt.Errorf("load booked periods: %w", err)
	}
	blocks, err := s.blocks.BlockedPeriods(ctx, branchID, date)
	if err != nil {
		return DayResult{}, fmt.Errorf("load blocked periods: %w", err)
	}
	result.BookedCount = len(bookings)
	result.BlockedCount = len(blocks)

	for _, candidate := range Candidates(window, durationMinutes) {
		available, reason := Evaluate(candidate.Time, durationMinutes, window.Close, bookings, blocks)
		if available {
			result.AvailableCount++
		}
		result.Slots = append(result.Slots, EvaluatedSlot{
			CandidateSlot: candidate,
			End:           candidate.Time + clock.Minute(durationMinutes),
			Available:     available,
			Reason:        reason,
		})
	}
	return result, nil
}

// WeekDay is one row of the weekly schedule, shaped for display.
type WeekDay struct {
	Weekday      time.Weekday
	IsOpen       bool
	Open         clock.Minute
	Close        clock.Minute
	Break        *Interval
	HoursDisplay string
	BreakDisplay string
}

// WeekSchedule returns the branch's configuration ordered Monday through
// Sunday, independent of the source's native ordering. Weekdays with no
// schedule row appear as closed.
func (s *Service) WeekSchedule(ctx context.Context, branchID int64) ([]WeekDay, error) {
	windows, err := s.schedules.WeeklySchedule(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("load weekly schedule: %w", err)
	}

	byDay := make(map[time.Weekday]OperatingWindow, len(windows))
	for _, w := range windows {
		byDay[w.Weekday] = w
	}

	out := make([]WeekDay, 0, 7)
	for _, weekday := range clock.MondayFirst {
		window, ok := byDay[weekday]
		day := WeekDay{Weekday: weekday, HoursDisplay: "Closed"}
		if ok && window.IsOpen {
			day.IsOpen = true
			day.Open = window.Open
			day.Close = window.Close
			day.Break = window.Break
			day.HoursDisplay = hoursDisplay(window)
			day.BreakDisplay = breakDisplay(window)
		}
		out = append(out, day)
	}
	return out, nil
}

func hoursDisplay(w OperatingWindow) string {
	if !w.IsOpen {
		return "Closed"
	}
	return w.Open.String() + " - " + w.Close.String()
}

func breakDisplay(w OperatingWindow) string {
	if w.Break == nil {
		return ""
	}
	return w.Break.Start.String() + " - " + w.Break.End.String()
}
