package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
	"github.com/nusrat-jahan/clinicbook/services/booking-service/internal/storage"
)

func postJSON(t *testing.T, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCreate_Validation(t *testing.T) {
	h := NewBookingHandler(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing branch_id", `{"date":"2026-03-09","time":"09:00","patient_name":"A","patient_email":"a@x.io"}`},
		{"missing patient", `{"branch_id":1,"date":"2026-03-09","time":"09:00"}`},
		{"bad date", `{"branch_id":1,"date":"09/03/2026","time":"09:00","patient_name":"A","patient_email":"a@x.io"}`},
		{"bad time", `{"branch_id":1,"date":"2026-03-09","time":"9am","patient_name":"A","patient_email":"a@x.io"}`},
		{"negative duration", `{"branch_id":1,"date":"2026-03-09","time":"09:00","duration_minutes":-30,"patient_name":"A","patient_email":"a@x.io"}`},
		{"huge duration", `{"branch_id":1,"date":"2026-03-09","time":"09:00","duration_minutes":9999,"patient_name":"A","patient_email":"a@x.io"}`},
	}
	for _, tc := range cases {
		rec := postJSON(t, h.Create, "/api/v1/public/book", tc.body)
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

func TestCreate_MethodNotAllowed(t *testing.T) {
	h := NewBookingHandler(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/book", nil)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d, want 405", rec.Code)
	}
}

func TestCancel_Validation(t *testing.T) {
	h := NewBookingHandler(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing appointment_id", `{"branch_id":1}`},
		{"missing branch_id", `{"appointment_id":"abc"}`},
	}
	for _, tc := range cases {
		rec := postJSON(t, h.Cancel, "/api/v1/appointments/cancel", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", tc.name, rec.Code)
		}
	}
}

func mustMinute(t *testing.T, s string) clock.Minute {
	t.Helper()
	m, err := clock.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func TestFitsWindow(t *testing.T) {
	breakStart := 720
	breakEnd := 780
	open := storage.OpenWindow{
		IsOpen:        true,
		OpenMinute:    540,
		CloseMinute:   1020,
		BreakStartMin: &breakStart,
		BreakEndMin:   &breakEnd,
	}

	cases := []struct {
		name     string
		window   storage.OpenWindow
		found    bool
		start    string
		duration int
		want     bool
	}{
		{"fits morning", open, true, "09:00", 60, true},
		{"ends exactly at close", open, true, "16:00", 60, true},
		{"runs past close", open, true, "16:30", 60, false},
		{"before open", open, true, "08:30", 30, false},
		{"starts inside break", open, true, "12:30", 30, false},
		{"crosses into break", open, true, "11:30", 60, true},
		{"ends exactly at break start", open, true, "11:00", 60, true},
		{"starts exactly at break end", open, true, "13:00", 60, true},
		{"no hours row", storage.OpenWindow{}, false, "09:00", 30, false},
		{"closed day", storage.OpenWindow{IsOpen: false}, true, "09:00", 30, false},
	}
	for _, tc := range cases {
		msg, ok := fitsWindow(tc.window, tc.found, mustMinute(t, tc.start), tc.duration)
		if ok != tc.want {
			t.Errorf("%s: ok=%v msg=%q, want ok=%v", tc.name, ok, msg, tc.want)
		}
		if !ok && msg == "" {
			t.Errorf("%s: rejection must carry a message", tc.name)
		}
	}
}
