package audit

import "time"

// Event is an immutable, append-only record of a call lifecycle step.
//
// Invariants:
// - Events are never updated or deleted.
// - This is an operational log; live call state is never rebuilt from it.
// - Recording is best-effort; do not block signaling on audit failures.
//
// Storage (Postgres): table call_audit_events, INSERT-only.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	CallID        string `json:"call_id" db:"call_id"`
	CallerID      string `json:"caller_id" db:"caller_id"`
	CalleeID      string `json:"callee_id" db:"callee_id"`
	AppointmentID string `json:"appointment_id,omitempty" db:"appointment_id"`

	// ActorUserID is the participant whose action caused the event; empty for timeouts.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	Reason      string `json:"reason,omitempty" db:"reason"`

	// DurationSeconds is the connected time, set on call_ended only.
	DurationSeconds int `json:"duration_seconds,omitempty" db:"duration_seconds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeRequested EventType = "call_requested"
	EventTypeBusy      EventType = "call_busy"
	EventTypeAccepted  EventType = "call_accepted"
	EventTypeEnded     EventType = "call_ended"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeRequested, EventTypeBusy, EventTypeAccepted, EventTypeEnded:
		return true
	default:
		return false
	}
}
