package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
	"github.com/nusrat-jahan/clinicbook/services/availability-service/internal/availability"
)

type fakeBackend struct {
	branchName string
	windows    map[time.Weekday]availability.OperatingWindow
	bookings   []availability.BookedPeriod
	blocks     []availability.BlockedPeriod
	err        error
}

func (f *fakeBackend) OperatingWindow(_ context.Context, _ int64, weekday time.Weekday) (availability.OperatingWindow, bool, error) {
	if f.err != nil {
		return availability.OperatingWindow{}, false, f.err
	}
	w, ok := f.windows[weekday]
	return w, ok, nil
}

func (f *fakeBackend) WeeklySchedule(context.Context, int64) ([]availability.OperatingWindow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []availability.OperatingWindow
	for _, w := range f.windows {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeBackend) BookedPeriods(context.Context, int64, time.Time) ([]availability.BookedPeriod, error) {
	return f.bookings, f.err
}

func (f *fakeBackend) BlockedPeriods(context.Context, int64, time.Time) ([]availability.BlockedPeriod, error) {
	return f.blocks, f.err
}

func (f *fakeBackend) BranchName(context.Context, int64) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	return f.branchName, f.branchName != "", nil
}

func minuteOf(t *testing.T, s string) clock.Minute {
	t.Helper()
	m, err := clock.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func newFake(t *testing.T) *fakeBackend {
	t.Helper()
	return &fakeBackend{
		branchName: "Downtown Dental",
		windows: map[time.Weekday]availability.OperatingWindow{
			time.Monday: {
				BranchID: 1,
				Weekday:  time.Monday,
				IsOpen:   true,
				Open:     minuteOf(t, "09:00"),
				Close:    minuteOf(t, "17:00"),
			},
		},
	}
}

func newHandler(f *fakeBackend) *AvailabilityHandler {
	svc := availability.NewService(f, f, f)
	return NewAvailabilityHandler(svc, f, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doRequest(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestDaySlots_Validation(t *testing.T) {
	h := newHandler(newFake(t))

	cases := []struct {
		name   string
		target string
	}{
		{"missing branch_id", "/api/v1/public/slots?date=2026-03-09"},
		{"non-numeric branch_id", "/api/v1/public/slots?branch_id=abc&date=2026-03-09"},
		{"zero branch_id", "/api/v1/public/slots?branch_id=0&date=2026-03-09"},
		{"missing date", "/api/v1/public/slots?branch_id=1"},
		{"bad date", "/api/v1/public/slots?branch_id=1&date=03-09-2026"},
		{"bad duration", "/api/v1/public/slots?branch_id=1&date=2026-03-09&duration_minutes=-30"},
		{"huge duration", "/api/v1/public/slots?branch_id=1&date=2026-03-09&duration_minutes=9999"},
	}
	for _, tc := range cases {
		rec := doRequest(h.DaySlots, tc.target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", tc.name, rec.Code)
		}
		var body struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: invalid JSON error body: %v", tc.name, err)
		}
		if body.Success || body.Error == "" {
			t.Errorf("%s: error body %+v", tc.name, body)
		}
	}
}

func TestDaySlots_OpenDay(t *testing.T) {
	f := newFake(t)
	f.bookings = []availability.BookedPeriod{{Start: minuteOf(t, "09:00"), DurationMinutes: 60}}
	h := newHandler(f)

	rec := doRequest(h.DaySlots, "/api/v1/public/slots?branch_id=1&date=2026-03-09&duration_minutes=60")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Slots   []struct {
			Time      string  `json:"time"`
			Display   string  `json:"display"`
			Period    string  `json:"period"`
			Available bool    `json:"available"`
			Reason    *string `json:"reason"`
			EndTime   string  `json:"end_time"`
			Duration  int     `json:"duration"`
		} `json:"slots"`
		DayInfo struct {
			Day    string `json:"day"`
			IsOpen bool   `json:"is_open"`
			Hours  string `json:"hours"`
		} `json:"day_info"`
		TotalSlots     int `json:"total_slots"`
		AvailableCount int `json:"available_count"`
		BookedCount    int `json:"booked_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || !body.DayInfo.IsOpen || body.DayInfo.Day != "Monday" {
		t.Fatalf("day_info %+v", body.DayInfo)
	}
	if body.TotalSlots != 15 || len(body.Slots) != 15 {
		t.Fatalf("total %d len %d, want 15", body.TotalSlots, len(body.Slots))
	}
	if body.AvailableCount != 13 || body.BookedCount != 1 {
		t.Fatalf("available %d booked %d", body.AvailableCount, body.BookedCount)
	}

	first := body.Slots[0]
	if first.Time != "09:00" || first.Available || first.Reason == nil || *first.Reason != "overlap" {
		t.Errorf("first slot %+v", first)
	}
	if first.Display != "9:00 AM" || first.Period != "Morning" || first.EndTime != "10:00" {
		t.Errorf("first slot shaping %+v", first)
	}
	free := body.Slots[2]
	if free.Time != "10:00" || !free.Available || free.Reason != nil {
		t.Errorf("10:00 slot %+v", free)
	}
}

func TestDaySlots_ClosedDay(t *testing.T) {
	h := newHandler(newFake(t))

	// 2026-03-08 is a Sunday; the fake only has Monday hours.
	rec := doRequest(h.DaySlots, "/api/v1/public/slots?branch_id=1&date=2026-03-08")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Slots   []json.RawMessage `json:"slots"`
		DayInfo struct {
			Day    string `json:"day"`
			IsOpen bool   `json:"is_open"`
		} `json:"day_info"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Message != "Branch is closed on this day" {
		t.Fatalf("body %+v", body)
	}
	if body.Slots == nil || len(body.Slots) != 0 {
		t.Fatalf("slots must be an empty array, got %v", body.Slots)
	}
	if body.DayInfo.IsOpen || body.DayInfo.Day != "Sunday" {
		t.Fatalf("day_info %+v", body.DayInfo)
	}
}

func TestDaySlots_SourceFailure(t *testing.T) {
	f := newFake(t)
	f.err = errors.New("db down")
	h := newHandler(f)

	rec := doRequest(h.DaySlots, "/api/v1/public/slots?branch_id=1&date=2026-03-09")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error == "" {
		t.Fatalf("body %+v", body)
	}
}

func TestWeekSchedule(t *testing.T) {
	f := newFake(t)
	sat := availability.OperatingWindow{
		BranchID: 1,
		Weekday:  time.Saturday,
		IsOpen:   true,
		Open:     minuteOf(t, "10:00"),
		Close:    minuteOf(t, "14:00"),
		Break:    &availability.Interval{Start: minuteOf(t, "12:00"), End: minuteOf(t, "12:30")},
	}
	f.windows[time.Saturday] = sat
	h := newHandler(f)

	rec := doRequest(h.WeekSchedule, "/api/v1/public/schedule?branch_id=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success    bool   `json:"success"`
		BranchName string `json:"branch_name"`
		BranchID   int64  `json:"branch_id"`
		Schedule   []struct {
			Day            string  `json:"day"`
			DayDisplay     string  `json:"day_display"`
			IsOpen         bool    `json:"is_open"`
			OpenTime       string  `json:"open_time"`
			CloseTime      string  `json:"close_time"`
			BreakStartTime string  `json:"break_start_time"`
			HoursDisplay   string  `json:"hours_display"`
			BreakDisplay   *string `json:"break_display"`
		} `json:"schedule"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.BranchName != "Downtown Dental" || body.BranchID != 1 {
		t.Fatalf("header fields %+v", body)
	}
	if len(body.Schedule) != 7 {
		t.Fatalf("schedule rows %d, want 7", len(body.Schedule))
	}
	if body.Schedule[0].Day != "monday" || body.Schedule[0].DayDisplay != "Monday" {
		t.Errorf("first row %+v", body.Schedule[0])
	}
	if body.Schedule[6].Day != "sunday" {
		t.Errorf("last row %+v", body.Schedule[6])
	}
	if !body.Schedule[0].IsOpen || body.Schedule[0].HoursDisplay != "09:00 - 17:00" {
		t.Errorf("monday row %+v", body.Schedule[0])
	}
	if body.Schedule[1].IsOpen || body.Schedule[1].HoursDisplay != "Closed" || body.Schedule[1].BreakDisplay != nil {
		t.Errorf("tuesday row %+v", body.Schedule[1])
	}
	satRow := body.Schedule[5]
	if satRow.BreakStartTime != "12:00" || satRow.BreakDisplay == nil || *satRow.BreakDisplay != "12:00 - 12:30" {
		t.Errorf("saturday row %+v", satRow)
	}
}

func TestWeekSchedule_UnknownBranch(t *testing.T) {
	f := newFake(t)
	f.branchName = ""
	h := newHandler(f)

	rec := doRequest(h.WeekSchedule, "/api/v1/public/schedule?branch_id=42")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}
