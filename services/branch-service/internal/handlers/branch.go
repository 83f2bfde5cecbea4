package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
	"github.com/nusrat-jahan/clinicbook/services/branch-service/internal/model"
	"github.com/nusrat-jahan/clinicbook/services/branch-service/internal/storage"
)

type BranchHandler struct {
	repo   *storage.Repository
	logger *slog.Logger
}

func NewBranchHandler(repo *storage.Repository, logger *slog.Logger) *BranchHandler {
	return &BranchHandler{repo: repo, logger: logger}
}

type branchView struct {
	BranchID int64  `json:"branch_id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Profile handles GET and PUT on /api/v1/branch.
func (h *BranchHandler) Profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPut:
		h.updateProfile(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *BranchHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	branchID, err := parseBranchID(r.URL.Query().Get("branch_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	branch, found, err := h.repo.GetBranch(r.Context(), branchID)
	if err != nil {
		h.logger.Error("branch lookup failed", "err", err, "branch_id", branchID)
		writeError(w, http.StatusInternalServerError, "failed to load branch")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "branch not found")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool       `json:"success"`
		Branch  branchView `json:"branch"`
	}{true, branchView{BranchID: branch.ID, Name: branch.Name, Address: branch.Address, Phone: branch.Phone}})
}

type updateBranchRequest struct {
	BranchID int64  `json:"branch_id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

func (h *BranchHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.BranchID <= 0 || req.Name == "" {
		writeError(w, http.StatusBadRequest, "branch_id and name required")
		return
	}
	updated, err := h.repo.UpdateBranch(r.Context(), req.BranchID, req.Name, strings.TrimSpace(req.Address), strings.TrimSpace(req.Phone))
	if err != nil {
		h.logger.Error("branch update failed", "err", err, "branch_id", req.BranchID)
		writeError(w, http.StatusInternalServerError, "failed to update branch")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "branch not found")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool       `json:"success"`
		Branch  branchView `json:"branch"`
	}{true, branchView{BranchID: req.BranchID, Name: req.Name, Address: req.Address, Phone: req.Phone}})
}

type hoursView struct {
	Day            string `json:"day"`
	IsOpen         bool   `json:"is_open"`
	OpenTime       string `json:"open_time,omitempty"`
	CloseTime      string `json:"close_time,omitempty"`
	BreakStartTime string `json:"break_start_time,omitempty"`
	BreakEndTime   string `json:"break_end_time,omitempty"`
}

// Hours handles GET and PUT on /api/v1/branch/hours.
func (h *BranchHandler) Hours(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listHours(w, r)
	case http.MethodPut:
		h.upsertHours(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *BranchHandler) listHours(w http.ResponseWriter, r *http.Request) {
	branchID, err := parseBranchID(r.URL.Query().Get("branch_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	days, err := h.repo.WeeklyHours(r.Context(), branchID)
	if err != nil {
		h.logger.Error("hours lookup failed", "err", err, "branch_id", branchID)
		writeError(w, http.StatusInternalServerError, "failed to load hours")
		return
	}

	byDay := make(map[string]model.DayHours, len(days))
	for _, d := range days {
		byDay[clock.WeekdayKey(d.Weekday)] = d
	}
	out := make([]hoursView, 0, 7)
	for _, wd := range clock.MondayFirst {
		key := clock.WeekdayKey(wd)
		d, ok := byDay[key]
		if !ok || !d.IsOpen {
			out = append(out, hoursView{Day: key})
			continue
		}
		v := hoursView{
			Day:       key,
			IsOpen:    true,
			OpenTime:  d.Open.String(),
			CloseTime: d.Close.String(),
		}
		if d.BreakStart != nil && d.BreakEnd != nil {
			v.BreakStartTime = d.BreakStart.String()
			v.BreakEndTime = d.BreakEnd.String()
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool        `json:"success"`
		Hours   []hoursView `json:"hours"`
	}{true, out})
}

type upsertHoursRequest struct {
	BranchID       int64  `json:"branch_id"`
	Day            string `json:"day"`
	IsOpen         bool   `json:"is_open"`
	OpenTime       string `json:"open_time"`
	CloseTime      string `json:"close_time"`
	BreakStartTime string `json:"break_start_time"`
	BreakEndTime   string `json:"break_end_time"`
}

func (h *BranchHandler) upsertHours(w http.ResponseWriter, r *http.Request) {
	var req upsertHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	day, err := hoursFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.UpsertHours(r.Context(), day); err != nil {
		h.logger.Error("hours upsert failed", "err", err, "branch_id", req.BranchID, "day", req.Day)
		writeError(w, http.StatusInternalServerError, "failed to save hours")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}

// hoursFromRequest validates one weekday of operating hours. An open day
// needs open < close; a break must sit inside the open window with
// start < end, and both bounds must be present together.
func hoursFromRequest(req upsertHoursRequest) (model.DayHours, error) {
	if req.BranchID <= 0 {
		return model.DayHours{}, &validationError{"branch_id must be a positive integer"}
	}
	weekday, ok := clock.ParseWeekday(strings.ToLower(strings.TrimSpace(req.Day)))
	if !ok {
		return model.DayHours{}, &validationError{"day must be a weekday name like \"monday\""}
	}
	day := model.DayHours{BranchID: req.BranchID, Weekday: weekday, IsOpen: req.IsOpen}
	if !req.IsOpen {
		return day, nil
	}

	open, err := clock.Parse(strings.TrimSpace(req.OpenTime))
	if err != nil {
		return model.DayHours{}, &validationError{"invalid open_time, expected HH:MM"}
	}
	closeAt, err := clock.Parse(strings.TrimSpace(req.CloseTime))
	if err != nil {
		return model.DayHours{}, &validationError{"invalid close_time, expected HH:MM"}
	}
	if open >= closeAt {
		return model.DayHours{}, &validationError{"open_time must be before close_time"}
	}
	day.Open = open
	day.Close = closeAt

	breakStartRaw := strings.TrimSpace(req.BreakStartTime)
	breakEndRaw := strings.TrimSpace(req.BreakEndTime)
	if breakStartRaw == "" && breakEndRaw == "" {
		return day, nil
	}
	if breakStartRaw == "" || breakEndRaw == "" {
		return model.DayHours{}, &validationError{"break_start_time and break_end_time must be set together"}
	}
	breakStart, err := clock.Parse(breakStartRaw)
	if err != nil {
		return model.DayHours{}, &validationError{"invalid break_start_time, expected HH:MM"}
	}
	breakEnd, err := clock.Parse(breakEndRaw)
	if err != nil {
		return model.DayHours{}, &validationError{"invalid break_end_time, expected HH:MM"}
	}
	if breakStart >= breakEnd {
		return model.DayHours{}, &validationError{"break_start_time must be before break_end_time"}
	}
	if breakStart < open || breakEnd > closeAt {
		return model.DayHours{}, &validationError{"break must fall within operating hours"}
	}
	day.BreakStart = &breakStart
	day.BreakEnd = &breakEnd
	return day, nil
}

type treatmentView struct {
	TreatmentID            string `json:"treatment_id"`
	Name                   string `json:"name"`
	DefaultDurationMinutes int    `json:"default_duration_minutes"`
}

// Treatments handles GET and POST on /api/v1/branch/treatments.
func (h *BranchHandler) Treatments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTreatments(w, r)
	case http.MethodPost:
		h.createTreatment(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *BranchHandler) listTreatments(w http.ResponseWriter, r *http.Request) {
	branchID, err := parseBranchID(r.URL.Query().Get("branch_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	treatments, err := h.repo.ListTreatments(r.Context(), branchID)
	if err != nil {
		h.logger.Error("treatment list failed", "err", err, "branch_id", branchID)
		writeError(w, http.StatusInternalServerError, "failed to list treatments")
		return
	}
	items := make([]treatmentView, 0, len(treatments))
	for _, t := range treatments {
		items = append(items, treatmentView{TreatmentID: t.ID, Name: t.Name, DefaultDurationMinutes: t.DefaultDurationMinutes})
	}
	writeJSON(w, http.StatusOK, struct {
		Success    bool            `json:"success"`
		Treatments []treatmentView `json:"treatments"`
	}{true, items})
}

type createTreatmentRequest struct {
	BranchID               int64  `json:"branch_id"`
	Name                   string `json:"name"`
	DefaultDurationMinutes int    `json:"default_duration_minutes"`
}

func (h *BranchHandler) createTreatment(w http.ResponseWriter, r *http.Request) {
	var req createTreatmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.BranchID <= 0 || req.Name == "" {
		writeError(w, http.StatusBadRequest, "branch_id and name required")
		return
	}
	if req.DefaultDurationMinutes <= 0 || req.DefaultDurationMinutes > 8*60 {
		writeError(w, http.StatusBadRequest, "invalid default_duration_minutes")
		return
	}
	t, err := h.repo.CreateTreatment(r.Context(), req.BranchID, req.Name, req.DefaultDurationMinutes)
	if err != nil {
		h.logger.Error("treatment create failed", "err", err, "branch_id", req.BranchID)
		writeError(w, http.StatusInternalServerError, "failed to create treatment")
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Success   bool          `json:"success"`
		Treatment treatmentView `json:"treatment"`
	}{true, treatmentView{TreatmentID: t.ID, Name: t.Name, DefaultDurationMinutes: t.DefaultDurationMinutes}})
}

type blockedPeriodView struct {
	BlockID   string `json:"block_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

// BlockedPeriods handles GET, POST and DELETE on /api/v1/branch/blocked.
func (h *BranchHandler) BlockedPeriods(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listBlocked(w, r)
	case http.MethodPost:
		h.createBlocked(w, r)
	case http.MethodDelete:
		h.deleteBlocked(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *BranchHandler) listBlocked(w http.ResponseWriter, r *http.Request) {
	branchID, err := parseBranchID(r.URL.Query().Get("branch_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := clock.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	blocks, err := h.repo.ListBlockedPeriods(r.Context(), branchID, date)
	if err != nil {
		h.logger.Error("blocked period list failed", "err", err, "branch_id", branchID)
		writeError(w, http.StatusInternalServerError, "failed to list blocked periods")
		return
	}
	items := make([]blockedPeriodView, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, blockedPeriodView{
			BlockID:   b.ID,
			Date:      b.Date.Format("2006-01-02"),
			StartTime: b.Start.String(),
			EndTime:   b.End.String(),
			Reason:    b.Reason,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Success        bool                `json:"success"`
		BlockedPeriods []blockedPeriodView `json:"blocked_periods"`
	}{true, items})
}

type createBlockedRequest struct {
	BranchID  int64  `json:"branch_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

func (h *BranchHandler) createBlocked(w http.ResponseWriter, r *http.Request) {
	var req createBlockedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.BranchID <= 0 {
		writeError(w, http.StatusBadRequest, "branch_id must be a positive integer")
		return
	}
	date, err := clock.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := clock.Parse(strings.TrimSpace(req.StartTime))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time, expected HH:MM")
		return
	}
	end, err := clock.Parse(strings.TrimSpace(req.EndTime))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_time, expected HH:MM")
		return
	}
	if start >= end {
		writeError(w, http.StatusBadRequest, "start_time must be before end_time")
		return
	}
	bp, err := h.repo.CreateBlockedPeriod(r.Context(), model.BlockedPeriod{
		BranchID: req.BranchID,
		Date:     date,
		Start:    start,
		End:      end,
		Reason:   strings.TrimSpace(req.Reason),
	})
	if err != nil {
		h.logger.Error("blocked period create failed", "err", err, "branch_id", req.BranchID)
		writeError(w, http.StatusInternalServerError, "failed to create blocked period")
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Success       bool              `json:"success"`
		BlockedPeriod blockedPeriodView `json:"blocked_period"`
	}{true, blockedPeriodView{
		BlockID:   bp.ID,
		Date:      bp.Date.Format("2006-01-02"),
		StartTime: bp.Start.String(),
		EndTime:   bp.End.String(),
		Reason:    bp.Reason,
	}})
}

func (h *BranchHandler) deleteBlocked(w http.ResponseWriter, r *http.Request) {
	branchID, err := parseBranchID(r.URL.Query().Get("branch_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("block_id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "block_id required")
		return
	}
	deleted, err := h.repo.DeleteBlockedPeriod(r.Context(), branchID, id)
	if err != nil {
		h.logger.Error("blocked period delete failed", "err", err, "branch_id", branchID)
		writeError(w, http.StatusInternalServerError, "failed to delete blocked period")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "blocked period not found")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
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
