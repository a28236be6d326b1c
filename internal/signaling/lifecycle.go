package signaling

import (
	"context"

	"consult-signaling/internal/calls"
)

// Connect registers a connection and, for authenticated users, binds it and
// syncs any call the user is already part of.
func (s *Service) Connect(ctx context.Context, c Conn, sess Session) error {
	s.hub.Add(c)
	if sess.Identity.Anonymous() {
		return nil
	}
	if err := s.hub.Bind(c.ID(), sess.Identity.ID); err != nil {
		s.hub.Unbind(c.ID())
		return err
	}

	for _, call := range s.calls.FindActiveForUser(sess.Identity.ID) {
		peer, _ := call.Peer(sess.Identity.ID)
		role := RoleCallee
		if call.CallerID == sess.Identity.ID {
			role = RoleCaller
		}
		if err := c.Send(Message{
			Type:          KindState,
			CallID:        call.ID,
			Status:        string(call.Status),
			PeerUserID:    peer,
			Role:          role,
			AppointmentID: call.AppointmentID,
		}); err != nil {
			s.log.Debug("state sync dropped", "conn_id", c.ID(), "call_id", call.ID, "err", err)
		}
	}
	return nil
}

// Disconnect unbinds a connection. When it was the user's last one, every call
// the user takes part in is ended and the other participant is told.
func (s *Service) Disconnect(ctx context.Context, connID string) {
	userID, remaining := s.hub.Unbind(connID)
	if userID == "" || remaining > 0 {
		return
	}

	for _, active := range s.calls.FindActiveForUser(userID) {
		c, err := s.calls.Transition(active.ID, []calls.Status{calls.StatusRequested, calls.StatusAccepted}, calls.StatusEnded)
		if err != nil {
			continue
		}
		s.stopTimer(c.ID)

		peer, _ := c.Peer(userID)
		s.hub.SendToUser(peer, Message{Type: KindEnd, CallID: c.ID, Reason: calls.ReasonPeerDisconnected})
		s.calls.Remove(c.ID)

		s.log.Info("call ended by disconnect", "call_id", c.ID, "user_id", userID)
		s.emit(calls.Event{Type: calls.EventEnded, Call: c, ActorUserID: userID, Reason: calls.ReasonPeerDisconnected})
	}
}

// scheduleTimeout arms the request timer unless the call already left the
// requested state. The status check and the insert share s.mu with stopTimer,
// so a call ended concurrently either is seen here or finds the entry there.
// The lock is held across AfterFunc so a timer that fires immediately still
// finds its own entry.
func (s *Service) scheduleTimeout(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.calls.Get(callID); !ok || c.Status != calls.StatusRequested {
		return
	}
	s.timers[callID] = s.afterFunc(s.requestTimeout, func() { s.expire(callID) })
}

// stopTimer is an optimisation; expire re-checks the status itself.
func (s *Service) stopTimer(callID string) {
	s.mu.Lock()
	t, ok := s.timers[callID]
	delete(s.timers, callID)
	s.mu.Unlock()
	if ok {
		t.Stop()
	}
}

// expire evicts a call still ringing when its timer fires.
func (s *Service) expire(callID string) {
	s.mu.Lock()
	delete(s.timers, callID)
	s.mu.Unlock()

	c, err := s.calls.Transition(callID, []calls.Status{calls.StatusRequested}, calls.StatusEnded)
	if err != nil {
		return
	}

	msg := Message{Type: KindTimeout, CallID: c.ID}
	s.hub.SendToUser(c.CallerID, msg)
	s.hub.SendToUser(c.CalleeID, msg)
	s.calls.Remove(c.ID)

	s.log.Info("call request timed out", "call_id", c.ID)
	s.emit(calls.Event{Type: calls.EventEnded, Call: c, Reason: calls.ReasonTimeout})
}

// PendingTimers reports how many request timers are armed.
func (s *Service) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
