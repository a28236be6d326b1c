package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"consult-signaling/internal/calls"
)

var (
	ErrNotFound            = errors.New("appointments: not found")
	ErrParticipantMismatch = errors.New("appointments: call participants do not match appointment")
)

// Store is the external appointment data store.
type Store interface {
	Get(ctx context.Context, id string) (Appointment, error)
	// MarkAttended sets status completed and attended_at, unless the appointment is already completed.
	MarkAttended(ctx context.Context, id string, at time.Time) (Appointment, error)
}

type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

// HandleCallEvent marks the call's appointment attended once a connected call ends.
// Calls that never connected leave the appointment untouched.
func (s *Service) HandleCallEvent(ctx context.Context, ev calls.Event) error {
	c := ev.Call
	if ev.Type != calls.EventEnded || c.AppointmentID == "" || !c.Connected() {
		return nil
	}

	appt, err := s.store.Get(ctx, c.AppointmentID)
	if err != nil {
		return fmt.Errorf("load appointment %s: %w", c.AppointmentID, err)
	}
	if !appt.HasParticipants(c.CallerID, c.CalleeID) {
		return fmt.Errorf("appointment %s call %s: %w", appt.ID, c.ID, ErrParticipantMismatch)
	}
	if appt.Status == StatusCompleted {
		return nil
	}

	at := c.EndedAt
	if at.IsZero() {
		at = ev.At
	}
	if _, err := s.store.MarkAttended(ctx, appt.ID, at); err != nil {
		return fmt.Errorf("mark appointment %s attended: %w", appt.ID, err)
	}
	s.log.Info("appointment attended", "appointment_id", appt.ID, "call_id", c.ID, "duration_seconds", int(c.Duration()/time.Second))
	return nil
}
