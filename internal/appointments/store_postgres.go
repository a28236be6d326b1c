package appointments

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"consult-signaling/pkg/utils"
)

// NOTE: PostgresStore assumes the appointments table is owned by the scheduling
// service and already has: id, doctor_id, patient_id, status, scheduled_at, attended_at.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Get(ctx context.Context, id string) (Appointment, error) {
	const q = `
SELECT id, doctor_id, patient_id, status, scheduled_at, attended_at
FROM appointments
WHERE id = $1
`
	return scanAppointment(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresStore) MarkAttended(ctx context.Context, id string, at time.Time) (Appointment, error) {
	var out Appointment
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		// Lock the row so concurrent call endings for one appointment serialize.
		const sel = `
SELECT id, doctor_id, patient_id, status, scheduled_at, attended_at
FROM appointments
WHERE id = $1
FOR UPDATE
`
		a, err := scanAppointment(tx.QueryRowContext(ctx, sel, id))
		if err != nil {
			return err
		}
		if a.Status == StatusCompleted {
			out = a
			return nil
		}

		const upd = `
UPDATE appointments
SET status = $2, attended_at = $3
WHERE id = $1
`
		at = at.UTC()
		if _, err := tx.ExecContext(ctx, upd, id, string(StatusCompleted), at); err != nil {
			return err
		}
		a.Status = StatusCompleted
		a.AttendedAt = &at
		out = a
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return out, nil
}

func scanAppointment(row *sql.Row) (Appointment, error) {
	var a Appointment
	var status string
	var attended sql.NullTime
	if err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &status, &a.ScheduledAt, &attended); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	a.Status = Status(status)
	if attended.Valid {
		t := attended.Time
		a.AttendedAt = &t
	}
	return a, nil
}
