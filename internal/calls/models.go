package calls

import "time"

// Call is one in-progress two-party call tracked by the Registry.
//
// Invariants:
// - CallerID and CalleeID never change after creation.
// - Status only moves forward: requested -> accepted -> ended, or requested -> ended.
// - Ended calls are removed once terminal notifications are sent; they are never kept as history.
type Call struct {
	ID       string `json:"call_id"`
	CallerID string `json:"caller_id"`
	CalleeID string `json:"callee_id"`

	// AppointmentID is optional; set when the call belongs to a scheduled consultation.
	AppointmentID string `json:"appointment_id,omitempty"`

	Status Status `json:"status"`

	CreatedAt  time.Time `json:"created_at"`
	AcceptedAt time.Time `json:"accepted_at,omitempty"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
}

type Status string

const (
	StatusRequested Status = "requested"
	StatusAccepted  Status = "accepted"
	StatusEnded     Status = "ended"
)

// Active reports whether the status counts towards the busy invariant.
func (s Status) Active() bool {
	return s == StatusRequested || s == StatusAccepted
}

// CanTransitionTo reports whether next is a legal forward step from s.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusRequested:
		return next == StatusAccepted || next == StatusEnded
	case StatusAccepted:
		return next == StatusEnded
	default:
		return false
	}
}

// HasParticipant reports whether userID is the caller or the callee.
func (c Call) HasParticipant(userID string) bool {
	return userID != "" && (userID == c.CallerID || userID == c.CalleeID)
}

// Peer returns the other participant for userID.
func (c Call) Peer(userID string) (string, bool) {
	switch userID {
	case "":
		return "", false
	case c.CallerID:
		return c.CalleeID, true
	case c.CalleeID:
		return c.CallerID, true
	default:
		return "", false
	}
}

// Connected reports whether the call ever reached the accepted state.
func (c Call) Connected() bool {
	return !c.AcceptedAt.IsZero()
}

// Duration is the connected time of an ended call, zero if it never connected.
func (c Call) Duration() time.Duration {
	if !c.Connected() || c.EndedAt.IsZero() || c.EndedAt.Before(c.AcceptedAt) {
		return 0
	}
	return c.EndedAt.Sub(c.AcceptedAt)
}

// End reasons. Keep these stable; clients and reports depend on them.
const (
	ReasonEnded            = "ended"
	ReasonCancelled        = "cancelled"
	ReasonRejected         = "rejected"
	ReasonTimeout          = "timeout"
	ReasonPeerDisconnected = "peer-disconnected"
)

// Event is a lifecycle notification about a call, emitted after the state change happened.
type Event struct {
	Type EventType
	Call Call

	// ActorUserID is the participant whose action caused the event; empty for server-initiated events.
	ActorUserID string
	Reason      string
	At          time.Time
}

type EventType string

const (
	EventRequested EventType = "call_requested"
	EventBusy      EventType = "call_busy"
	EventAccepted  EventType = "call_accepted"
	EventEnded     EventType = "call_ended"
)
