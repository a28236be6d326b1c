package signaling

import (
	"errors"
	"testing"
)

type closedConn struct{ id string }

func (c closedConn) ID() string { return c.id }

func (c closedConn) Send(Message) error { return ErrConnClosed }

func TestHub_BindIsIdempotentAndSticky(t *testing.T) {
	h := NewHub(nil)
	h.Add(&fakeConn{id: "c1"})

	if err := h.Bind("c1", "A"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := h.Bind("c1", "A"); err != nil {
		t.Fatalf("rebind same user: %v", err)
	}
	if err := h.Bind("c1", "B"); !errors.Is(err, ErrAlreadyBound) {
		t.Fatalf("expected ErrAlreadyBound, got %v", err)
	}
	if err := h.Bind("missing", "A"); !errors.Is(err, ErrUnknownConn) {
		t.Fatalf("expected ErrUnknownConn, got %v", err)
	}
	if err := h.Bind("c1", ""); !errors.Is(err, ErrAnonymous) {
		t.Fatalf("expected ErrAnonymous, got %v", err)
	}
	if h.Connections("A") != 1 {
		t.Fatalf("expected one connection for A")
	}
}

func TestHub_UnbindReportsRemaining(t *testing.T) {
	h := NewHub(nil)
	for _, id := range []string{"c1", "c2"} {
		h.Add(&fakeConn{id: id})
		_ = h.Bind(id, "A")
	}
	h.Add(&fakeConn{id: "anon"})

	if uid, n := h.Unbind("c1"); uid != "A" || n != 1 {
		t.Fatalf("got (%q, %d)", uid, n)
	}
	if uid, n := h.Unbind("c2"); uid != "A" || n != 0 {
		t.Fatalf("got (%q, %d)", uid, n)
	}
	if uid, n := h.Unbind("anon"); uid != "" || n != 0 {
		t.Fatalf("anonymous unbind: got (%q, %d)", uid, n)
	}
	if st := h.Stats(); st != (HubStats{}) {
		t.Fatalf("expected empty hub, got %+v", st)
	}
}

func TestHub_SendToUserFansOut(t *testing.T) {
	h := NewHub(nil)

	c1, c2, other := &fakeConn{id: "c1"}, &fakeConn{id: "c2"}, &fakeConn{id: "o"}
	for _, c := range []*fakeConn{c1, c2, other} {
		h.Add(c)
	}
	_ = h.Bind("c1", "A")
	_ = h.Bind("c2", "A")
	_ = h.Bind("o", "B")
	h.Add(closedConn{id: "dead"})
	_ = h.Bind("dead", "A")

	n := h.SendToUser("A", Message{Type: KindEnd, CallID: "x"})
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if c1.count() != 1 || c2.count() != 1 || other.count() != 0 {
		t.Fatalf("unexpected fan-out c1=%d c2=%d other=%d", c1.count(), c2.count(), other.count())
	}
}

func TestHub_SendToOfflineUserIsNoop(t *testing.T) {
	h := NewHub(nil)
	if n := h.SendToUser("nobody", Message{Type: KindEnd}); n != 0 {
		t.Fatalf("expected 0 deliveries, got %d", n)
	}
	if err := h.SendToConn("nobody", Message{Type: KindEnd}); !errors.Is(err, ErrUnknownConn) {
		t.Fatalf("expected ErrUnknownConn, got %v", err)
	}
}
