package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
	"github.com/nusrat-jahan/clinicbook/services/booking-service/internal/model"
	"github.com/nusrat-jahan/clinicbook/services/booking-service/internal/outbox"
	"github.com/nusrat-jahan/clinicbook/services/booking-service/internal/storage"
)

const maxDurationMinutes = 8 * 60

type BookingHandler struct {
	repo       *storage.BookingRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewBookingHandler(repo *storage.BookingRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{repo: repo, outboxRepo: outboxRepo, logger: logger}
}

type createBookingRequest struct {
	BranchID        int64  `json:"branch_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	TreatmentID     string `json:"treatment_id"`
	PatientName     string `json:"patient_name"`
	PatientEmail    string `json:"patient_email"`
	PatientPhone    string `json:"patient_phone"`
}

type appointmentView struct {
	AppointmentID   string `json:"appointment_id"`
	BranchID        int64  `json:"branch_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	TreatmentID     string `json:"treatment_id,omitempty"`
	PatientName     string `json:"patient_name"`
	Status          string `json:"status"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
}

type createBookingResponse struct {
	Success     bool            `json:"success"`
	Appointment appointmentView `json:"appointment"`
}

// Create handles POST /api/v1/public/book. The appointment insert and
// its outbox event share a transaction; overlap with an active booking
// is rejected by the database and mapped to 409.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.PatientName = strings.TrimSpace(req.PatientName)
	req.PatientEmail = strings.TrimSpace(req.PatientEmail)
	req.PatientPhone = strings.TrimSpace(req.PatientPhone)
	req.TreatmentID = strings.TrimSpace(req.TreatmentID)

	if req.BranchID <= 0 {
		writeError(w, http.StatusBadRequest, "branch_id must be a positive integer")
		return
	}
	if req.PatientName == "" || req.PatientEmail == "" {
		writeError(w, http.StatusBadRequest, "patient_name and patient_email are required")
		return
	}
	date, err := clock.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := clock.Parse(strings.TrimSpace(req.Time))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time, expected HH:MM")
		return
	}
	if req.DurationMinutes < 0 || req.DurationMinutes > maxDurationMinutes {
		writeError(w, http.StatusBadRequest, "invalid duration_minutes")
		return
	}

	ctx := r.Context()
	durationMins, err := h.resolveDuration(ctx, req)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusBadRequest, "unknown treatment_id for this branch")
			return
		}
		h.logger.Error("treatment lookup failed", "err", err, "branch_id", req.BranchID)
		writeError(w, http.StatusInternalServerError, "failed to resolve duration")
		return
	}

	window, found, err := h.repo.BranchOpenWindow(ctx, req.BranchID, int(date.Weekday()))
	if err != nil {
		h.logger.Error("branch hours lookup failed", "err", err, "branch_id", req.BranchID)
		writeError(w, http.StatusInternalServerError, "failed to load branch hours")
		return
	}
	if msg, ok := fitsWindow(window, found, start, durationMins); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	appt := &model.Appointment{
		BranchID:        req.BranchID,
		VisitDate:       date,
		Start:           start,
		DurationMinutes: durationMins,
		TreatmentID:     req.TreatmentID,
		PatientName:     req.PatientName,
		PatientEmail:    req.PatientEmail,
		PatientPhone:    req.PatientPhone,
		Status:          "booked",
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := h.repo.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusConflict, "time slot already booked")
			return
		}
		h.logger.Error("appointment insert failed", "err", err, "branch_id", req.BranchID)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	appt.ID = id

	evt, err := outbox.AppointmentBooked(*appt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build event payload")
		return
	}
	if err := h.outboxRepo.Stage(ctx, tx, evt); err != nil {
		h.logger.Error("outbox stage failed", "err", err, "appointment_id", id)
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	writeJSON(w, http.StatusCreated, createBookingResponse{
		Success:     true,
		Appointment: viewOf(*appt),
	})
}

// resolveDuration picks the slot length: explicit request value first,
// then the treatment's default, then 60 minutes.
func (h *BookingHandler) resolveDuration(ctx context.Context, req createBookingRequest) (int, error) {
	if req.DurationMinutes > 0 {
		return req.DurationMinutes, nil
	}
	if req.TreatmentID != "" {
		mins, err := h.repo.TreatmentDuration(ctx, req.BranchID, req.TreatmentID)
		if err != nil {
			return 0, err
		}
		if mins > 0 {
			return mins, nil
		}
	}
	return 60, nil
}

func fitsWindow(w storage.OpenWindow, found bool, start clock.Minute, durationMins int) (string, bool) {
	if !found || !w.IsOpen {
		return "branch is closed on this day", false
	}
	end := int(start) + durationMins
	if int(start) < w.OpenMinute || end > w.CloseMinute {
		return "requested time is outside branch operating hours", false
	}
	// Starts inside the break are rejected; a start before the break whose
	// interval crosses into it is allowed, matching slot generation.
	if w.BreakStartMin != nil && w.BreakEndMin != nil {
		if int(start) >= *w.BreakStartMin && int(start) < *w.BreakEndMin {
			return "requested time falls within the branch break", false
		}
	}
	return "", true
}

type cancelBookingRequest struct {
	BranchID      int64  `json:"branch_id"`
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type cancelBookingResponse struct {
	Success       bool   `json:"success"`
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at"`
}

// Cancel handles POST /api/v1/appointments/cancel. Cancelling an
// already-cancelled appointment returns the original result.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.BranchID <= 0 || req.AppointmentID == "" {
		writeError(w, http.StatusBadRequest, "branch_id and appointment_id required")
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetAppointmentForUpdate(ctx, tx, req.BranchID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("appointment lookup failed", "err", err, "appointment_id", req.AppointmentID)
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}

	if appt.Status == "cancelled" && appt.CancelledAt != nil {
		writeJSON(w, http.StatusOK, cancelBookingResponse{
			Success:       true,
			AppointmentID: appt.ID,
			Status:        "cancelled",
			CancelledAt:   appt.CancelledAt.UTC().Format(time.RFC3339),
		})
		return
	}
	if appt.Status != "booked" {
		writeError(w, http.StatusConflict, "appointment cannot be cancelled")
		return
	}

	cancelledAt, err := h.repo.CancelAppointment(ctx, tx, req.BranchID, appt.ID, req.Reason)
	if err != nil {
		h.logger.Error("appointment cancel failed", "err", err, "appointment_id", appt.ID)
		writeError(w, http.StatusInternalServerError, "failed to cancel appointment")
		return
	}
	appt.Status = "cancelled"
	appt.CancelledAt = &cancelledAt
	appt.CancelReason = req.Reason

	evt, err := outbox.AppointmentCancelled(appt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build event payload")
		return
	}
	if err := h.outboxRepo.Stage(ctx, tx, evt); err != nil {
		h.logger.Error("outbox stage failed", "err", err, "appointment_id", appt.ID)
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	writeJSON(w, http.StatusOK, cancelBookingResponse{
		Success:       true,
		AppointmentID: appt.ID,
		Status:        "cancelled",
		CancelledAt:   cancelledAt.UTC().Format(time.RFC3339),
	})
}

type listAppointmentsResponse struct {
	Success      bool              `json:"success"`
	Appointments []appointmentView `json:"appointments"`
}

// List handles GET /api/v1/appointments?branch_id=&date=&limit=.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	branchID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("branch_id")), 10, 64)
	if err != nil || branchID <= 0 {
		writeError(w, http.StatusBadRequest, "branch_id must be a positive integer")
		return
	}
	date, err := clock.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	appts, err := h.repo.ListByBranchDate(r.Context(), branchID, date, limit)
	if err != nil {
		h.logger.Error("appointment list failed", "err", err, "branch_id", branchID)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	items := make([]appointmentView, 0, len(appts))
	for _, appt := range appts {
		items = append(items, viewOf(appt))
	}
	writeJSON(w, http.StatusOK, listAppointmentsResponse{Success: true, Appointments: items})
}

func viewOf(appt model.Appointment) appointmentView {
	v := appointmentView{
		AppointmentID:   appt.ID,
		BranchID:        appt.BranchID,
		Date:            appt.VisitDate.Format("2006-01-02"),
		Time:            appt.Start.String(),
		EndTime:         appt.End().String(),
		DurationMinutes: appt.DurationMinutes,
		TreatmentID:     appt.TreatmentID,
		PatientName:     appt.PatientName,
		Status:          appt.Status,
	}
	if appt.CancelledAt != nil {
		v.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
	}
	return v
}

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
