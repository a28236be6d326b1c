package reporting

import (
	"context"
	"errors"
	"time"

	"consult-signaling/internal/audit"
	"consult-signaling/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// EventSource reads the call audit trail. audit.Service and its repositories satisfy it.
type EventSource interface {
	List(ctx context.Context, from, to time.Time) ([]audit.Event, error)
}

type Service struct {
	events EventSource
}

func NewService(events EventSource) *Service { return &Service{events: events} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.events == nil {
		return CallsSummary{}, errors.New("reporting: event source not configured")
	}

	rows, err := s.events.List(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{Range: req.Range, UserID: req.UserID}
	connectedEnds := 0
	accepted := make(map[string]struct{})

	for _, e := range rows {
		if req.UserID != "" && e.CallerID != req.UserID && e.CalleeID != req.UserID {
			continue
		}
		switch e.Type {
		case audit.EventTypeRequested:
			out.Requested++
		case audit.EventTypeBusy:
			out.Busy++
		case audit.EventTypeAccepted:
			out.Connected++
			accepted[e.CallID] = struct{}{}
		case audit.EventTypeEnded:
			switch e.Reason {
			case calls.ReasonRejected:
				out.Rejected++
			case calls.ReasonCancelled:
				out.Cancelled++
			case calls.ReasonTimeout:
				out.TimedOut++
			case calls.ReasonPeerDisconnected:
				out.Disconnected++
			default:
				out.Completed++
			}
			_, wasAccepted := accepted[e.CallID]
			if wasAccepted || e.DurationSeconds > 0 {
				connectedEnds++
				out.TotalConnectedSeconds += e.DurationSeconds
			}
		}
	}

	if connectedEnds > 0 {
		out.AverageConnectedSeconds = out.TotalConnectedSeconds / connectedEnds
	}
	// Busy replies are requests too, they just never became calls.
	if attempts := out.Requested + out.Busy; attempts > 0 {
		out.ConnectionRate = float64(out.Connected) / float64(attempts)
	}
	return out, nil
}
