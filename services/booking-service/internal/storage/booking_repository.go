package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nusrat-jahan/clinicbook/libs/clock"
	"github.com/nusrat-jahan/clinicbook/libs/db"
	"github.com/nusrat-jahan/clinicbook/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// OpenWindow is the slice of branch_hours the booking validator needs.
type OpenWindow struct {
	IsOpen        bool
	OpenMinute    int
	CloseMinute   int
	BreakStartMin *int
	BreakEndMin   *int
}

func (r *BookingRepository) BranchOpenWindow(ctx context.Context, branchID int64, weekday int) (OpenWindow, bool, error) {
	var w OpenWindow
	err := r.pool.QueryRow(ctx, `
		SELECT is_open, open_minute, close_minute, break_start_minute, break_end_minute
		FROM branch_hours
		WHERE branch_id = $1 AND weekday = $2
	`, branchID, weekday).Scan(&w.IsOpen, &w.OpenMinute, &w.CloseMinute, &w.BreakStartMin, &w.BreakEndMin)
	if errors.Is(err, pgx.ErrNoRows) {
		return OpenWindow{}, false, nil
	}
	if err != nil {
		return OpenWindow{}, false, err
	}
	return w, true, nil
}

func (r *BookingRepository) TreatmentDuration(ctx context.Context, branchID int64, treatmentID string) (int, error) {
	var mins int
	err := r.pool.QueryRow(ctx, `
		SELECT default_duration_minutes
		FROM treatments
		WHERE branch_id = $1 AND id = $2
	`, branchID, treatmentID).Scan(&mins)
	return mins, err
}

// Create inserts a booked appointment. Overlap with an existing active
// booking violates the appointments_no_overlap exclusion constraint and
// surfaces through IsConflict.
func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	id := uuid.NewString()
	var treatmentID *string
	if appt.TreatmentID != "" {
		treatmentID = &appt.TreatmentID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO appointments
			(id, branch_id, visit_date, start_minute, duration_minutes, treatment_id,
			 patient_name, patient_email, patient_phone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, appt.BranchID, appt.VisitDate, int(appt.Start), appt.DurationMinutes, treatmentID,
		appt.PatientName, appt.PatientEmail, appt.PatientPhone, appt.Status)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) GetAppointmentForUpdate(ctx context.Context, tx pgx.Tx, branchID int64, appointmentID string) (model.Appointment, error) {
	var (
		appt        model.Appointment
		startMin    int
		treatmentID *string
		cancelledAt *time.Time
	)
	err := tx.QueryRow(ctx, `
		SELECT a.id, a.branch_id, a.visit_date, a.start_minute,
			COALESCE(a.duration_minutes, t.default_duration_minutes, 60),
			a.treatment_id, a.patient_name, a.patient_email, a.patient_phone,
			a.status, a.cancelled_at, COALESCE(a.cancellation_reason, ''), a.created_at
		FROM appointments a
		LEFT JOIN treatments t ON t.id = a.treatment_id
		WHERE a.id = $1 AND a.branch_id = $2
		FOR UPDATE OF a
	`, appointmentID, branchID).Scan(
		&appt.ID,
		&appt.BranchID,
		&appt.VisitDate,
		&startMin,
		&appt.DurationMinutes,
		&treatmentID,
		&appt.PatientName,
		&appt.PatientEmail,
		&appt.PatientPhone,
		&appt.Status,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Start = clock.Minute(startMin)
	if treatmentID != nil {
		appt.TreatmentID = *treatmentID
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

func (r *BookingRepository) CancelAppointment(ctx context.Context, tx pgx.Tx, branchID int64, appointmentID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $3
		WHERE id = $1 AND branch_id = $2
		RETURNING cancelled_at
	`, appointmentID, branchID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *BookingRepository) ListByBranchDate(ctx context.Context, branchID int64, date time.Time, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.branch_id, a.visit_date, a.start_minute,
			COALESCE(a.duration_minutes, t.default_duration_minutes, 60),
			COALESCE(a.treatment_id::text, ''), a.patient_name, a.patient_email, a.patient_phone,
			a.status, a.cancelled_at, COALESCE(a.cancellation_reason, ''), a.created_at
		FROM appointments a
		LEFT JOIN treatments t ON t.id = a.treatment_id
		WHERE a.branch_id = $1 AND a.visit_date = $2
		ORDER BY a.start_minute ASC
		LIMIT $3
	`, branchID, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var (
			appt        model.Appointment
			startMin    int
			cancelledAt *time.Time
		)
		if err := rows.Scan(
			&appt.ID,
			&appt.BranchID,
			&appt.VisitDate,
			&startMin,
			&appt.DurationMinutes,
			&appt.TreatmentID,
			&appt.PatientName,
			&appt.PatientEmail,
			&appt.PatientPhone,
			&appt.Status,
			&cancelledAt,
			&appt.CancelReason,
			&appt.CreatedAt,
		); err != nil {
			return nil, err
		}
		appt.Start = clock.Minute(startMin)
		appt.CancelledAt = cancelledAt
		out = append(out, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// IsConflict reports whether err is the overlap exclusion constraint or a
// unique violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
