package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nusrat-jahan/clinicbook/libs/db"
	otelx "github.com/nusrat-jahan/clinicbook/libs/otel"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Stage writes the event inside the caller's transaction so that the
// appointment change and its event commit or roll back together. The
// active trace context is persisted alongside the row and restored at
// publish time.
func (r *Repository) Stage(ctx context.Context, tx pgx.Tx, evt Event) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, traceparent, tracestate)
	return err
}

type PendingEvent struct {
	ID          int64
	EventID     string
	Event       Event
	Traceparent string
	Tracestate  string
	CreatedAt   time.Time
}

func (r *Repository) FetchPending(ctx context.Context, tx pgx.Tx, limit int) ([]PendingEvent, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []PendingEvent
	for rows.Next() {
		var p PendingEvent
		if err := rows.Scan(&p.ID, &p.EventID, &p.Event.AggregateType, &p.Event.AggregateID,
			&p.Event.EventType, &p.Event.Payload, &p.Traceparent, &p.Tracestate, &p.CreatedAt); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return pending, nil
}

func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE outbox_events
		SET published_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}
