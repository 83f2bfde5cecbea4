package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
	"github.com/nusrat-jahan/clinicbook/services/availability-service/internal/availability"
)

// BranchDirectory resolves branch display names.
type BranchDirectory interface {
	BranchName(ctx context.Context, branchID int64) (string, bool, error)
}

type AvailabilityHandler struct {
	svc      *availability.Service
	branches BranchDirectory
	logger   *slog.Logger
}

func NewAvailabilityHandler(svc *availability.Service, branches BranchDirectory, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, branches: branches, logger: logger}
}

type slotItem struct {
	Time      string  `json:"time"`
	Display   string  `json:"display"`
	Period    string  `json:"period"`
	Available bool    `json:"available"`
	Reason    *string `json:"reason"`
	EndTime   string  `json:"end_time"`
	Duration  int     `json:"duration"`
}

type dayInfo struct {
	Day    string `json:"day"`
	IsOpen bool   `json:"is_open"`
	Hours  string `json:"hours,omitempty"`
	Break  string `json:"break,omitempty"`
}

type daySlotsResponse struct {
	Success        bool       `json:"success"`
	Slots          []slotItem `json:"slots"`
	DayInfo        dayInfo    `json:"day_info"`
	TotalSlots     int        `json:"total_slots"`
	AvailableCount int        `json:"available_count"`
	BookedCount    int        `json:"booked_count"`
	BlockedCount   int        `json:"blocked_count"`
	Duration       int        `json:"duration"`
}

type closedDayResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Slots   []slotItem `json:"slots"`
	DayInfo dayInfo    `json:"day_info"`
}

// DaySlots handles GET /api/v1/public/slots?branch_id=&date=&duration_minutes=.
func (h *AvailabilityHandler) DaySlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	branchID, err := parseBranchID(r.URL.Query().Get("branch_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := clock.ParseDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	durationMins := availability.DefaultDurationMinutes
	if raw := strings.TrimSpace(r.URL.Query().Get("duration_minutes")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 8*60 {
			writeError(w, http.StatusBadRequest, "invalid duration_minutes")
			return
		}
		durationMins = n
	}

	res, err := h.svc.DaySlots(r.Context(), branchID, date, durationMins)
	if err != nil {
		h.logger.Error("day slots query failed", "err", err, "branch_id", branchID, "date", dateStr)
		writeError(w, http.StatusInternalServerError, "failed to load availability")
		return
	}

	if !res.IsOpen {
		writeJSON(w, http.StatusOK, closedDayResponse{
			Success: true,
			Message: "Branch is closed on this day",
			Slots:   []slotItem{},
			DayInfo: dayInfo{Day: res.Day, IsOpen: false},
		})
		return
	}

	slots := make([]slotItem, 0, len(res.Slots))
	for _, s := range res.Slots {
		item := slotItem{
			Time:      s.Time.String(),
			Display:   s.Display,
			Period:    s.Period,
			Available: s.Available,
			EndTime:   s.End.String(),
			Duration:  s.DurationMinutes,
		}
		if s.Reason != availability.ReasonNone {
			reason := string(s.Reason)
			item.Reason = &reason
		}
		slots = append(slots, item)
	}

	writeJSON(w, http.StatusOK, daySlotsResponse{
		Success: true,
		Slots:   slots,
		DayInfo: dayInfo{
			Day:    res.Day,
			IsOpen: true,
			Hours:  res.HoursDisplay,
			Break:  res.BreakDisplay,
		},
		TotalSlots:     len(slots),
		AvailableCount: res.AvailableCount,
		BookedCount:    res.BookedCount,
		BlockedCount:   res.BlockedCount,
		Duration:       res.DurationMinutes,
	})
}

type scheduleDay struct {
	Day            string  `json:"day"`
	DayDisplay     string  `json:"day_display"`
	IsOpen         bool    `json:"is_open"`
	OpenTime       string  `json:"open_time,omitempty"`
	CloseTime      string  `json:"close_time,omitempty"`
	BreakStartTime string  `json:"break_start_time,omitempty"`
	BreakEndTime   string  `json:"break_end_time,omitempty"`
	HoursDisplay   string  `json:"hours_display"`
	BreakDisplay   *string `json:"break_display"`
}

type weekScheduleResponse struct {
	Success    bool          `json:"success"`
	BranchName string        `json:"branch_name"`
	BranchID   int64         `json:"branch_id"`
	Schedule   []scheduleDay `json:"schedule"`
}

// WeekSchedule handles GET /api/v1/public/schedule?branch_id=.
func (h *AvailabilityHandler) WeekSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	branchID, err := parseBranchID(r.URL.Query().Get("branch_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, found, err := h.branches.BranchName(r.Context(), branchID)
	if err != nil {
		h.logger.Error("branch lookup failed", "err", err, "branch_id", branchID)
		writeError(w, http.StatusInternalServerError, "failed to load branch")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "branch not found")
		return
	}

	week, err := h.svc.WeekSchedule(r.Context(), branchID)
	if err != nil {
		h.logger.Error("week schedule query failed", "err", err, "branch_id", branchID)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	schedule := make([]scheduleDay, 0, len(week))
	for _, d := range week {
		row := scheduleDay{
			Day:          clock.WeekdayKey(d.Weekday),
			DayDisplay:   clock.WeekdayName(d.Weekday),
			IsOpen:       d.IsOpen,
			HoursDisplay: d.HoursDisplay,
		}
		if d.IsOpen {
			row.OpenTime = d.Open.String()
			row.CloseTime = d.Close.String()
			if d.Break != nil {
				row.BreakStartTime = d.Break.Start.String()
				row.BreakEndTime = d.Break.End.String()
			}
			if d.BreakDisplay != "" {
				bd := d.BreakDisplay
				row.BreakDisplay = &bd
			}
		}
		schedule = append(schedule, row)
	}

	writeJSON(w, http.StatusOK, weekScheduleResponse{
		Success:    true,
		BranchName: name,
		BranchID:   branchID,
		Schedule:   schedule,
	})
}

func parseBranchID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errInvalidBranchID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidBranchID
	}
	return id, nil
}

var errInvalidBranchID = &validationError{"branch_id must be a positive integer"}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
