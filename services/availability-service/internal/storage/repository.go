package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nusrat-jahan/clinicbook/libs/clock"
	"github.com/nusrat-jahan/clinicbook/libs/db"
	"github.com/nusrat-jahan/clinicbook/services/availability-service/internal/availability"
)

// Repository reads branch schedules, bookings, and blocked periods from
// Postgres. It implements the availability source interfaces.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) OperatingWindow(ctx context.Context, branchID int64, weekday time.Weekday) (availability.OperatingWindow, bool, error) {
	var (
		isOpen                     bool
		openMin, closeMin          int
		breakStartMin, breakEndMin *int
	)
	err := r.pool.QueryRow(ctx, `
		SELECT is_open, open_minute, close_minute, break_start_minute, break_end_minute
		FROM branch_hours
		WHERE branch_id = $1 AND weekday = $2
	`, branchID, int(weekday)).Scan(&isOpen, &openMin, &closeMin, &breakStartMin, &breakEndMin)
	if errors.Is(err, pgx.ErrNoRows) {
		return availability.OperatingWindow{}, false, nil
	}
	if err != nil {
		return availability.OperatingWindow{}, false, err
	}
	return buildWindow(branchID, weekday, isOpen, openMin, closeMin, breakStartMin, breakEndMin), true, nil
}

func (r *Repository) WeeklySchedule(ctx context.Context, branchID int64) ([]availability.OperatingWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, is_open, open_minute, close_minute, break_start_minute, break_end_minute
		FROM branch_hours
		WHERE branch_id = $1
		ORDER BY weekday ASC
	`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.OperatingWindow
	for rows.Next() {
		var (
			weekday                    int
			isOpen                     bool
			openMin, closeMin          int
			breakStartMin, breakEndMin *int
		)
		if err := rows.Scan(&weekday, &isOpen, &openMin, &closeMin, &breakStartMin, &breakEndMin); err != nil {
			return nil, err
		}
		out = append(out, buildWindow(branchID, time.Weekday(weekday), isOpen, openMin, closeMin, breakStartMin, breakEndMin))
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// BookedPeriods returns active appointments for the date. Duration falls
// back from the appointment row to the treatment default to 60 minutes.
func (r *Repository) BookedPeriods(ctx context.Context, branchID int64, date time.Time) ([]availability.BookedPeriod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.start_minute, COALESCE(a.duration_minutes, t.default_duration_minutes, 60)
		FROM appointments a
		LEFT JOIN treatments t ON t.id = a.treatment_id
		WHERE a.branch_id = $1
			AND a.visit_date = $2
			AND a.status = 'booked'
		ORDER BY a.start_minute ASC
	`, branchID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.BookedPeriod
	for rows.Next() {
		var startMin, durationMins int
		if err := rows.Scan(&startMin, &durationMins); err != nil {
			return nil, err
		}
		out = append(out, availability.BookedPeriod{
			Start:           clock.Minute(startMin),
			DurationMinutes: durationMins,
		})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) BlockedPeriods(ctx context.Context, branchID int64, date time.Time) ([]availability.BlockedPeriod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_minute, end_minute, COALESCE(reason, '')
		FROM blocked_periods
		WHERE branch_id = $1 AND block_date = $2
		ORDER BY start_minute ASC
	`, branchID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.BlockedPeriod
	for rows.Next() {
		var startMin, endMin int
		var reason string
		if err := rows.Scan(&startMin, &endMin, &reason); err != nil {
			return nil, err
		}
		out = append(out, availability.BlockedPeriod{
			Start:  clock.Minute(startMin),
			End:    clock.Minute(endMin),
			Reason: reason,
		})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// BranchName resolves the display name for the week-schedule response.
func (r *Repository) BranchName(ctx context.Context, branchID int64) (string, bool, error) {
	var name string
	err := r.pool.QueryRow(ctx, `
		SELECT name FROM branches WHERE id = $1
	`, branchID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func buildWindow(branchID int64, weekday time.Weekday, isOpen bool, openMin, closeMin int, breakStartMin, breakEndMin *int) availability.OperatingWindow {
	w := availability.OperatingWindow{
		BranchID: branchID,
		Weekday:  weekday,
		IsOpen:   isOpen,
		Open:     clock.Minute(openMin),
		Close:    clock.Minute(closeMin),
	}
	if breakStartMin != nil && breakEndMin != nil {
		w.Break = &availability.Interval{
			Start: clock.Minute(*breakStartMin),
			End:   clock.Minute(*breakEndMin),
		}
	}
	return w
}
