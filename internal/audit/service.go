package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consult-signaling/internal/calls"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// There is no Update or Delete.
type Repository interface {
	Append(ctx context.Context, e Event) error
	// List returns events with from <= created_at < to, oldest first.
	List(ctx context.Context, from, to time.Time) ([]Event, error)
}

// Service records the call audit trail.
//
// IMPORTANT:
// - Audit is internal-only; it is exposed through admin reports only.
// - Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.CallID == "" || !e.Type.Valid() {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// RecordCallEvent maps a lifecycle event onto the audit trail.
// Its signature matches signaling.EventHandler.
func (s *Service) RecordCallEvent(ctx context.Context, ev calls.Event) error {
	e := Event{
		Type:          EventType(ev.Type),
		CallID:        ev.Call.ID,
		CallerID:      ev.Call.CallerID,
		CalleeID:      ev.Call.CalleeID,
		AppointmentID: ev.Call.AppointmentID,
		ActorUserID:   ev.ActorUserID,
		Reason:        ev.Reason,
		CreatedAt:     ev.At,
	}
	if ev.Type == calls.EventEnded {
		e.DurationSeconds = int(ev.Call.Duration() / time.Second)
	}
	if err := s.Append(ctx, e); err != nil {
		return fmt.Errorf("audit %s %s: %w", ev.Type, ev.Call.ID, err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.List(ctx, from, to)
}
