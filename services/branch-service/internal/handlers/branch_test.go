package handlers

import (
	"testing"
	"time"
)

func TestHoursFromRequest(t *testing.T) {
	base := upsertHoursRequest{
		BranchID:  1,
		Day:       "monday",
		IsOpen:    true,
		OpenTime:  "09:00",
		CloseTime: "17:00",
	}

	t.Run("open day without break", func(t *testing.T) {
		day, err := hoursFromRequest(base)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if day.Weekday != time.Monday || !day.IsOpen {
			t.Fatalf("day %+v", day)
		}
		if day.Open.String() != "09:00" || day.Close.String() != "17:00" {
			t.Fatalf("hours %s-%s", day.Open, day.Close)
		}
		if day.BreakStart != nil || day.BreakEnd != nil {
			t.Fatalf("break must be nil, got %v-%v", day.BreakStart, day.BreakEnd)
		}
	})

	t.Run("open day with break", func(t *testing.T) {
		req := base
		req.BreakStartTime = "12:00"
		req.BreakEndTime = "13:00"
		day, err := hoursFromRequest(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if day.BreakStart == nil || day.BreakEnd == nil {
			t.Fatal("break bounds missing")
		}
		if day.BreakStart.String() != "12:00" || day.BreakEnd.String() != "13:00" {
			t.Fatalf("break %s-%s", day.BreakStart, day.BreakEnd)
		}
	})

	t.Run("closed day ignores times", func(t *testing.T) {
		req := upsertHoursRequest{BranchID: 1, Day: "sunday", IsOpen: false}
		day, err := hoursFromRequest(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if day.IsOpen || day.Weekday != time.Sunday {
			t.Fatalf("day %+v", day)
		}
	})

	rejects := []struct {
		name   string
		mutate func(*upsertHoursRequest)
	}{
		{"zero branch_id", func(r *upsertHoursRequest) { r.BranchID = 0 }},
		{"bad day", func(r *upsertHoursRequest) { r.Day = "funday" }},
		{"bad open_time", func(r *upsertHoursRequest) { r.OpenTime = "9am" }},
		{"open after close", func(r *upsertHoursRequest) { r.OpenTime = "18:00" }},
		{"open equals close", func(r *upsertHoursRequest) { r.OpenTime = "17:00" }},
		{"break start only", func(r *upsertHoursRequest) { r.BreakStartTime = "12:00" }},
		{"break end only", func(r *upsertHoursRequest) { r.BreakEndTime = "13:00" }},
		{"inverted break", func(r *upsertHoursRequest) {
			r.BreakStartTime = "13:00"
			r.BreakEndTime = "12:00"
		}},
		{"break before open", func(r *upsertHoursRequest) {
			r.BreakStartTime = "08:00"
			r.BreakEndTime = "09:30"
		}},
		{"break past close", func(r *upsertHoursRequest) {
			r.BreakStartTime = "16:30"
			r.BreakEndTime = "17:30"
		}},
	}
	for _, tc := range rejects {
		req := base
		tc.mutate(&req)
		if _, err := hoursFromRequest(req); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
