package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nusrat-jahan/clinicbook/libs/clock"
	"github.com/nusrat-jahan/clinicbook/libs/db"
	"github.com/nusrat-jahan/clinicbook/services/branch-service/internal/model"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetBranch(ctx context.Context, branchID int64) (model.Branch, bool, error) {
	var b model.Branch
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(address, ''), COALESCE(phone, ''), created_at
		FROM branches
		WHERE id = $1
	`, branchID).Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Branch{}, false, nil
	}
	if err != nil {
		return model.Branch{}, false, err
	}
	return b, true, nil
}

func (r *Repository) UpdateBranch(ctx context.Context, branchID int64, name, address, phone string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE branches
		SET name = $2, address = $3, phone = $4
		WHERE id = $1
	`, branchID, name, address, phone)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) WeeklyHours(ctx context.Context, branchID int64) ([]model.DayHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, is_open, open_minute, close_minute, break_start_minute, break_end_minute
		FROM branch_hours
		WHERE branch_id = $1
		ORDER BY weekday
	`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DayHours
	for rows.Next() {
		var (
			d                          model.DayHours
			weekday, openMin, closeMin int
			breakStart, breakEnd       *int
		)
		if err := rows.Scan(&weekday, &d.IsOpen, &openMin, &closeMin, &breakStart, &breakEnd); err != nil {
			return nil, err
		}
		d.BranchID = branchID
		d.Weekday = time.Weekday(weekday)
		d.Open = clock.Minute(openMin)
		d.Close = clock.Minute(closeMin)
		if breakStart != nil && breakEnd != nil {
			bs := clock.Minute(*breakStart)
			be := clock.Minute(*breakEnd)
			d.BreakStart = &bs
			d.BreakEnd = &be
		}
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// UpsertHours replaces a single weekday row.
func (r *Repository) UpsertHours(ctx context.Context, d model.DayHours) error {
	var breakStart, breakEnd *int
	if d.BreakStart != nil && d.BreakEnd != nil {
		bs := int(*d.BreakStart)
		be := int(*d.BreakEnd)
		breakStart = &bs
		breakEnd = &be
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO branch_hours (branch_id, weekday, is_open, open_minute, close_minute, break_start_minute, break_end_minute)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (branch_id, weekday) DO UPDATE
		SET is_open = EXCLUDED.is_open,
			open_minute = EXCLUDED.open_minute,
			close_minute = EXCLUDED.close_minute,
			break_start_minute = EXCLUDED.break_start_minute,
			break_end_minute = EXCLUDED.break_end_minute
	`, d.BranchID, int(d.Weekday), d.IsOpen, int(d.Open), int(d.Close), breakStart, breakEnd)
	return err
}

func (r *Repository) CreateTreatment(ctx context.Context, branchID int64, name string, defaultDurationMins int) (model.Treatment, error) {
	t := model.Treatment{
		ID:                     uuid.NewString(),
		BranchID:               branchID,
		Name:                   name,
		DefaultDurationMinutes: defaultDurationMins,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO treatments (id, branch_id, name, default_duration_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, t.ID, t.BranchID, t.Name, t.DefaultDurationMinutes).Scan(&t.CreatedAt)
	if err != nil {
		return model.Treatment{}, err
	}
	return t, nil
}

func (r *Repository) ListTreatments(ctx context.Context, branchID int64) ([]model.Treatment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, branch_id, name, default_duration_minutes, created_at
		FROM treatments
		WHERE branch_id = $1
		ORDER BY name
	`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Treatment
	for rows.Next() {
		var t model.Treatment
		if err := rows.Scan(&t.ID, &t.BranchID, &t.Name, &t.DefaultDurationMinutes, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) CreateBlockedPeriod(ctx context.Context, bp model.BlockedPeriod) (model.BlockedPeriod, error) {
	bp.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blocked_periods (id, branch_id, block_date, start_minute, end_minute, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, bp.ID, bp.BranchID, bp.Date, int(bp.Start), int(bp.End), bp.Reason)
	if err != nil {
		return model.BlockedPeriod{}, err
	}
	return bp, nil
}

func (r *Repository) ListBlockedPeriods(ctx context.Context, branchID int64, date time.Time) ([]model.BlockedPeriod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, branch_id, block_date, start_minute, end_minute, COALESCE(reason, '')
		FROM blocked_periods
		WHERE branch_id = $1 AND block_date = $2
		ORDER BY start_minute
	`, branchID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BlockedPeriod
	for rows.Next() {
		var (
			bp         model.BlockedPeriod
			start, end int
		)
		if err := rows.Scan(&bp.ID, &bp.BranchID, &bp.Date, &start, &end, &bp.Reason); err != nil {
			return nil, err
		}
		bp.Start = clock.Minute(start)
		bp.End = clock.Minute(end)
		out = append(out, bp)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) DeleteBlockedPeriod(ctx context.Context, branchID int64, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_periods
		WHERE id = $1 AND branch_id = $2
	`, id, branchID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
