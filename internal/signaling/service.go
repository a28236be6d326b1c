package signaling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"consult-signaling/internal/auth"
	"consult-signaling/internal/calls"

	"github.com/google/uuid"
)

// DefaultRequestTimeout is how long a call may ring before it is evicted.
const DefaultRequestTimeout = 60 * time.Second

const defaultCallerName = "Caller"

// Session is the identity a connection was bound with.
type Session struct {
	ConnID   string
	Identity auth.Identity
}

// Timer is the part of *time.Timer the service needs.
type Timer interface {
	Stop() bool
}

type Options struct {
	RequestTimeout time.Duration
	Observer       Observer
	Logger         *slog.Logger

	// AfterFunc and NewID are replaceable for tests.
	AfterFunc func(d time.Duration, f func()) Timer
	NewID     func() string
}

// Service implements the call state machine on top of the call registry and the hub.
type Service struct {
	calls    *calls.Registry
	hub      *Hub
	observer Observer
	log      *slog.Logger

	requestTimeout time.Duration
	afterFunc      func(time.Duration, func()) Timer
	newID          func() string
	now            func() time.Time

	mu     sync.Mutex
	timers map[string]Timer
}

func NewService(reg *calls.Registry, hub *Hub, opts Options) *Service {
	s := &Service{
		calls:          reg,
		hub:            hub,
		observer:       opts.Observer,
		log:            opts.Logger,
		requestTimeout: opts.RequestTimeout,
		afterFunc:      opts.AfterFunc,
		newID:          opts.NewID,
		now:            time.Now,
		timers:         make(map[string]Timer),
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = DefaultRequestTimeout
	}
	if s.afterFunc == nil {
		s.afterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func (s *Service) Calls() *calls.Registry { return s.calls }

func (s *Service) Hub() *Hub { return s.hub }

// Handle applies one inbound message. Every failed precondition leaves state
// untouched and sends nothing; the returned error is for logging only.
func (s *Service) Handle(ctx context.Context, sess Session, m Message) error {
	if !m.Type.Inbound() {
		return fmt.Errorf("%w: %s is not accepted from clients", ErrMalformed, m.Type)
	}
	if sess.Identity.Anonymous() {
		return ErrUnauthorized
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	switch m.Type {
	case KindRequest:
		return s.request(sess, m)
	case KindCancel:
		return s.conclude(sess, m, RoleCaller, calls.ReasonCancelled)
	case KindReject:
		return s.conclude(sess, m, RoleCallee, calls.ReasonRejected)
	case KindAccept:
		return s.accept(sess, m)
	case KindOffer:
		return s.relaySDP(sess, m, RoleCaller)
	case KindAnswer:
		return s.relaySDP(sess, m, RoleCallee)
	case KindICE:
		return s.ice(sess, m)
	case KindEnd:
		return s.end(sess, m)
	case KindChat:
		return s.chat(sess, m)
	default:
		return fmt.Errorf("%w: unhandled type %s", ErrMalformed, m.Type)
	}
}

func (s *Service) request(sess Session, m Message) error {
	callerID := sess.Identity.ID
	if m.ToUserID == "" || m.ToUserID == callerID {
		return fmt.Errorf("%w: invalid toUserId", ErrMalformed)
	}

	callID := m.CallID
	if callID == "" {
		callID = s.newID()
	}

	c, err := s.calls.Create(calls.Call{
		ID:            callID,
		CallerID:      callerID,
		CalleeID:      m.ToUserID,
		AppointmentID: m.AppointmentID,
	})
	switch {
	case err == nil:
	case errors.Is(err, calls.ErrCallerBusy), errors.Is(err, calls.ErrCalleeBusy):
		reason := BusyCallee
		if errors.Is(err, calls.ErrCallerBusy) {
			reason = BusyCaller
		}
		s.reply(sess, Message{Type: KindBusy, CallID: callID, Reason: reason})
		s.emit(calls.Event{
			Type:        calls.EventBusy,
			Call:        calls.Call{ID: callID, CallerID: callerID, CalleeID: m.ToUserID, AppointmentID: m.AppointmentID},
			ActorUserID: callerID,
			Reason:      reason,
		})
		return nil
	case errors.Is(err, calls.ErrDuplicateCallID):
		s.reply(sess, Message{Type: KindError, CallID: callID, Code: CodeDuplicateCallID})
		return err
	case errors.Is(err, calls.ErrAppointmentActive):
		s.reply(sess, Message{Type: KindError, CallID: callID, AppointmentID: m.AppointmentID, Code: CodeAppointmentActive})
		return err
	default:
		return err
	}

	name := sess.Identity.Name
	if name == "" {
		name = m.FromName
	}
	if name == "" {
		name = defaultCallerName
	}

	s.scheduleTimeout(c.ID)
	s.hub.SendToUser(c.CalleeID, Message{
		Type:          KindRequest,
		CallID:        c.ID,
		FromUserID:    c.CallerID,
		FromName:      name,
		AppointmentID: c.AppointmentID,
	})
	s.reply(sess, Message{Type: KindRinging, CallID: c.ID, ToUserID: c.CalleeID})

	s.log.Debug("call requested", "call_id", c.ID, "caller_id", c.CallerID, "callee_id", c.CalleeID)
	s.emit(calls.Event{Type: calls.EventRequested, Call: c, ActorUserID: callerID})
	return nil
}

// conclude handles cancel (caller) and reject (callee) of a ringing call.
func (s *Service) conclude(sess Session, m Message, role, reason string) error {
	if _, err := s.authorize(sess, m.CallID, role); err != nil {
		return err
	}
	c, err := s.calls.Transition(m.CallID, []calls.Status{calls.StatusRequested}, calls.StatusEnded)
	if err != nil {
		return err
	}
	s.stopTimer(c.ID)

	peer, _ := c.Peer(sess.Identity.ID)
	s.hub.SendToUser(peer, Message{Type: m.Type, CallID: c.ID})
	s.calls.Remove(c.ID)

	s.log.Debug("call concluded", "call_id", c.ID, "reason", reason)
	s.emit(calls.Event{Type: calls.EventEnded, Call: c, ActorUserID: sess.Identity.ID, Reason: reason})
	return nil
}

func (s *Service) accept(sess Session, m Message) error {
	if _, err := s.authorize(sess, m.CallID, RoleCallee); err != nil {
		return err
	}
	c, err := s.calls.Transition(m.CallID, []calls.Status{calls.StatusRequested}, calls.StatusAccepted)
	if err != nil {
		return err
	}
	s.stopTimer(c.ID)

	s.hub.SendToUser(c.CallerID, Message{Type: KindAccept, CallID: c.ID})

	s.log.Debug("call accepted", "call_id", c.ID)
	s.emit(calls.Event{Type: calls.EventAccepted, Call: c, ActorUserID: sess.Identity.ID})
	return nil
}

// relaySDP forwards an offer (caller) or answer (callee) of an accepted call.
func (s *Service) relaySDP(sess Session, m Message, role string) error {
	if len(m.SDP) == 0 {
		return fmt.Errorf("%w: sdp required", ErrMalformed)
	}
	c, err := s.authorize(sess, m.CallID, role)
	if err != nil {
		return err
	}
	if c.Status != calls.StatusAccepted {
		return calls.ErrStaleOrUnknownCall
	}
	peer, _ := c.Peer(sess.Identity.ID)
	s.hub.SendToUser(peer, Message{Type: m.Type, CallID: c.ID, SDP: m.SDP})
	return nil
}

func (s *Service) ice(sess Session, m Message) error {
	if len(m.Candidate) == 0 {
		return fmt.Errorf("%w: candidate required", ErrMalformed)
	}
	c, err := s.authorize(sess, m.CallID, "")
	if err != nil {
		return err
	}
	if !c.Status.Active() {
		return calls.ErrStaleOrUnknownCall
	}
	peer, _ := c.Peer(sess.Identity.ID)
	s.hub.SendToUser(peer, Message{Type: KindICE, CallID: c.ID, Candidate: m.Candidate})
	return nil
}

func (s *Service) end(sess Session, m Message) error {
	if _, err := s.authorize(sess, m.CallID, ""); err != nil {
		return err
	}
	c, err := s.calls.Transition(m.CallID, []calls.Status{calls.StatusRequested, calls.StatusAccepted}, calls.StatusEnded)
	if err != nil {
		return err
	}
	s.stopTimer(c.ID)

	reason := m.Reason
	if reason == "" {
		reason = calls.ReasonEnded
	}
	peer, _ := c.Peer(sess.Identity.ID)
	s.hub.SendToUser(peer, Message{Type: KindEnd, CallID: c.ID, Reason: reason})
	s.calls.Remove(c.ID)

	s.log.Debug("call ended", "call_id", c.ID, "reason", reason)
	s.emit(calls.Event{Type: calls.EventEnded, Call: c, ActorUserID: sess.Identity.ID, Reason: reason})
	return nil
}

// chat relays a text message to the other participant of an active call.
func (s *Service) chat(sess Session, m Message) error {
	if m.Text == "" || len(m.Text) > MaxChatTextBytes {
		return fmt.Errorf("%w: chat text must be 1..%d bytes", ErrMalformed, MaxChatTextBytes)
	}
	c, err := s.authorize(sess, m.CallID, "")
	if err != nil {
		return err
	}
	if !c.Status.Active() {
		return calls.ErrStaleOrUnknownCall
	}
	peer, _ := c.Peer(sess.Identity.ID)
	s.hub.SendToUser(peer, Message{
		Type:       KindChat,
		CallID:     c.ID,
		FromUserID: sess.Identity.ID,
		Text:       m.Text,
		SentAt:     s.now().UTC().Format(time.RFC3339Nano),
	})
	return nil
}

// authorize loads the call and checks the sender's role in it.
// An empty role accepts either participant.
func (s *Service) authorize(sess Session, callID, role string) (calls.Call, error) {
	if callID == "" {
		return calls.Call{}, fmt.Errorf("%w: callId required", ErrMalformed)
	}
	c, ok := s.calls.Get(callID)
	if !ok {
		return calls.Call{}, calls.ErrStaleOrUnknownCall
	}
	uid := sess.Identity.ID
	switch role {
	case RoleCaller:
		if c.CallerID != uid {
			return calls.Call{}, ErrUnauthorized
		}
	case RoleCallee:
		if c.CalleeID != uid {
			return calls.Call{}, ErrUnauthorized
		}
	default:
		if !c.HasParticipant(uid) {
			return calls.Call{}, ErrUnauthorized
		}
	}
	return c, nil
}

func (s *Service) reply(sess Session, m Message) {
	if err := s.hub.SendToConn(sess.ConnID, m); err != nil {
		s.log.Debug("signaling reply dropped", "conn_id", sess.ConnID, "type", m.Type.String(), "err", err)
	}
}

func (s *Service) emit(ev calls.Event) {
	if s.observer == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}
	s.observer.Observe(ev)
}
