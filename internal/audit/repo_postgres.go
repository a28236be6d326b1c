package audit

import (
	"context"
	"database/sql"
	"time"

	"consult-signaling/pkg/utils"
)

// Schema is applied by EnsureSchema. The table is append-only.
const Schema = `
CREATE TABLE IF NOT EXISTS call_audit_events (
  id               UUID PRIMARY KEY,
  type             TEXT NOT NULL,
  call_id          TEXT NOT NULL,
  caller_id        TEXT NOT NULL,
  callee_id        TEXT NOT NULL,
  appointment_id   TEXT NOT NULL DEFAULT '',
  actor_user_id    TEXT NOT NULL DEFAULT '',
  reason           TEXT NOT NULL DEFAULT '',
  duration_seconds INTEGER NOT NULL DEFAULT 0,
  created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS call_audit_events_created_at_idx ON call_audit_events (created_at);
`

// PostgresRepo stores audit events through database/sql (pgx stdlib driver).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	return utils.ApplySchema(ctx, r.db, Schema)
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO call_audit_events
  (id, type, call_id, caller_id, callee_id, appointment_id, actor_user_id, reason, duration_seconds, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		e.CallID,
		e.CallerID,
		e.CalleeID,
		e.AppointmentID,
		e.ActorUserID,
		e.Reason,
		e.DurationSeconds,
		e.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	const q = `
SELECT id, type, call_id, caller_id, callee_id, appointment_id, actor_user_id, reason, duration_seconds, created_at
FROM call_audit_events
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		var typ string
		if err := rows.Scan(
			&e.ID,
			&typ,
			&e.CallID,
			&e.CallerID,
			&e.CalleeID,
			&e.AppointmentID,
			&e.ActorUserID,
			&e.Reason,
			&e.DurationSeconds,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}
