package appointments

import "time"

// Appointment is the slice of a scheduled consultation this service reads and updates.
// Appointment CRUD lives elsewhere; only attendance is written here.
type Appointment struct {
	ID        string `json:"id" db:"id"`
	DoctorID  string `json:"doctor_id" db:"doctor_id"`
	PatientID string `json:"patient_id" db:"patient_id"`

	Status      Status     `json:"status" db:"status"`
	ScheduledAt time.Time  `json:"scheduled_at" db:"scheduled_at"`
	AttendedAt  *time.Time `json:"attended_at,omitempty" db:"attended_at"`
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// HasParticipants reports whether the two users are this appointment's doctor and patient, in either order.
func (a Appointment) HasParticipants(u1, u2 string) bool {
	return (a.DoctorID == u1 && a.PatientID == u2) || (a.DoctorID == u2 && a.PatientID == u1)
}
