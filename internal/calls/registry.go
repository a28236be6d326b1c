package calls

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	ErrInvalidCall        = errors.New("calls: invalid call")
	ErrDuplicateCallID    = errors.New("calls: duplicate call id")
	ErrUserBusy           = errors.New("calls: user busy")
	ErrCallerBusy         = fmt.Errorf("%w: caller", ErrUserBusy)
	ErrCalleeBusy         = fmt.Errorf("%w: callee", ErrUserBusy)
	ErrStaleOrUnknownCall = errors.New("calls: stale or unknown call")
	ErrAppointmentActive  = errors.New("calls: appointment already has an active call")
)

// Registry is the authoritative in-memory table of in-progress calls.
//
// It is the single source of truth for call state and busy detection:
// presence queries are answered by scanning the table, never from a second map.
// All mutations go through Create, Transition and Remove under one mutex.
type Registry struct {
	mu    sync.Mutex
	calls map[string]*Call

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{calls: make(map[string]*Call), clock: time.Now}
}

// IsUserBusy reports whether userID is caller or callee of a requested or accepted call.
func (r *Registry) IsUserBusy(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busyLocked(userID)
}

func (r *Registry) appointmentActiveLocked(appointmentID string) bool {
	for _, c := range r.calls {
		if c.Status.Active() && c.AppointmentID == appointmentID {
			return true
		}
	}
	return false
}

func (r *Registry) busyLocked(userID string) bool {
	for _, c := range r.calls {
		if c.Status.Active() && c.HasParticipant(userID) {
			return true
		}
	}
	return false
}

// Create inserts a new call in the requested state.
// The busy check for both participants, the one-active-call-per-appointment
// check and the insert are atomic.
func (r *Registry) Create(c Call) (Call, error) {
	if c.ID == "" || c.CallerID == "" || c.CalleeID == "" || c.CallerID == c.CalleeID {
		return Call{}, ErrInvalidCall
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.calls[c.ID]; ok {
		return Call{}, ErrDuplicateCallID
	}
	if r.busyLocked(c.CallerID) {
		return Call{}, ErrCallerBusy
	}
	if r.busyLocked(c.CalleeID) {
		return Call{}, ErrCalleeBusy
	}
	if c.AppointmentID != "" && r.appointmentActiveLocked(c.AppointmentID) {
		return Call{}, ErrAppointmentActive
	}

	c.Status = StatusRequested
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.clock().UTC()
	}
	c.AcceptedAt = time.Time{}
	c.EndedAt = time.Time{}

	stored := c
	r.calls[c.ID] = &stored
	return c, nil
}

func (r *Registry) Get(callID string) (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callID]
	if !ok {
		return Call{}, false
	}
	return *c, true
}

// Transition is the compare-and-set primitive every status change goes through.
// It fails with ErrStaleOrUnknownCall when the call is absent, its current status
// is not in expected, or next is not a legal forward step.
func (r *Registry) Transition(callID string, expected []Status, next Status) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.calls[callID]
	if !ok {
		return Call{}, ErrStaleOrUnknownCall
	}
	if !containsStatus(expected, c.Status) || !c.Status.CanTransitionTo(next) {
		return Call{}, ErrStaleOrUnknownCall
	}

	now := r.clock().UTC()
	c.Status = next
	switch next {
	case StatusAccepted:
		c.AcceptedAt = now
	case StatusEnded:
		c.EndedAt = now
	}
	return *c, nil
}

// Remove deletes an ended call. Calls that are still active are left untouched.
func (r *Registry) Remove(callID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callID]
	if !ok || c.Status != StatusEnded {
		return false
	}
	delete(r.calls, callID)
	return true
}

// FindActiveForUser returns the requested or accepted calls userID takes part in.
func (r *Registry) FindActiveForUser(userID string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, 0, 1)
	for _, c := range r.calls {
		if c.Status.Active() && c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out
}

// Active returns every requested or accepted call, oldest first.
func (r *Registry) Active() []Call {
	r.mu.Lock()
	out := make([]Call, 0, len(r.calls))
	for _, c := range r.calls {
		if c.Status.Active() {
			out = append(out, *c)
		}
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func containsStatus(set []Status, s Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
