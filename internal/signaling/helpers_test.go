package signaling

import (
	"context"
	"sync"
	"testing"
	"time"

	"consult-signaling/internal/auth"
	"consult-signaling/internal/calls"
)

// testContext stands in for t.Context (Go 1.24+): a context canceled when the
// test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

type fakeConn struct {
	id string

	mu   sync.Mutex
	msgs []Message
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
	return nil
}

// take returns everything received so far and clears the inbox.
func (c *fakeConn) take() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.msgs
	c.msgs = nil
	return out
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type manualTimers struct {
	mu      sync.Mutex
	pending []*manualTimer
}

func (m *manualTimers) AfterFunc(_ time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{f: f}
	m.pending = append(m.pending, t)
	return t
}

// fire runs armed timers; with force it also runs stopped ones, like a Stop that lost the race.
func (m *manualTimers) fire(force bool) {
	m.mu.Lock()
	ts := append([]*manualTimer(nil), m.pending...)
	m.mu.Unlock()
	for _, t := range ts {
		if force || !t.stopped {
			t.f()
		}
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []calls.Event
}

func (l *eventLog) Observe(ev calls.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []calls.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]calls.EventType, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func (l *eventLog) last() calls.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return calls.Event{}
	}
	return l.events[len(l.events)-1]
}

type testEnv struct {
	svc    *Service
	hub    *Hub
	reg    *calls.Registry
	timers *manualTimers
	events *eventLog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		hub:    NewHub(nil),
		reg:    calls.NewRegistry(),
		timers: &manualTimers{},
		events: &eventLog{},
	}
	e.svc = NewService(e.reg, e.hub, Options{
		Observer:  e.events,
		AfterFunc: e.timers.AfterFunc,
	})
	return e
}

var names = map[string]string{"A": "Alice", "B": "Bob", "C": "Carol", "D": "Dan"}

func identity(userID string) auth.Identity {
	return auth.Identity{ID: userID, Role: "patient", Name: names[userID]}
}

func (e *testEnv) connect(t *testing.T, connID, userID string) (*fakeConn, Session) {
	t.Helper()
	c := &fakeConn{id: connID}
	sess := Session{ConnID: connID}
	if userID != "" {
		sess.Identity = identity(userID)
	}
	if err := e.svc.Connect(testContext(t), c, sess); err != nil {
		t.Fatalf("connect %s: %v", connID, err)
	}
	return c, sess
}

func (e *testEnv) handle(t *testing.T, sess Session, m Message) error {
	t.Helper()
	return e.svc.Handle(testContext(t), sess, m)
}

func expectOne(t *testing.T, c *fakeConn, want Kind) Message {
	t.Helper()
	msgs := c.take()
	if len(msgs) != 1 {
		t.Fatalf("%s: expected exactly one %s, got %+v", c.id, want, msgs)
	}
	if msgs[0].Type != want {
		t.Fatalf("%s: expected %s, got %s", c.id, want, msgs[0].Type)
	}
	return msgs[0]
}

func expectNone(t *testing.T, c *fakeConn) {
	t.Helper()
	if msgs := c.take(); len(msgs) != 0 {
		t.Fatalf("%s: expected no messages, got %+v", c.id, msgs)
	}
}
