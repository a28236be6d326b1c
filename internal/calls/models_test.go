package calls

import (
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusRequested, StatusAccepted, true},
		{StatusRequested, StatusEnded, true},
		{StatusAccepted, StatusEnded, true},
		{StatusAccepted, StatusRequested, false},
		{StatusEnded, StatusRequested, false},
		{StatusEnded, StatusAccepted, false},
		{StatusEnded, StatusEnded, false},
		{StatusRequested, StatusRequested, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestCallPeer(t *testing.T) {
	c := Call{ID: "c", CallerID: "a", CalleeID: "b"}
	if p, ok := c.Peer("a"); !ok || p != "b" {
		t.Fatalf("expected b, got %q %v", p, ok)
	}
	if p, ok := c.Peer("b"); !ok || p != "a" {
		t.Fatalf("expected a, got %q %v", p, ok)
	}
	if _, ok := c.Peer("x"); ok {
		t.Fatalf("expected no peer for outsider")
	}
	if _, ok := c.Peer(""); ok {
		t.Fatalf("expected no peer for empty id")
	}
}

func TestCallDuration(t *testing.T) {
	start := time.Unix(1700000000, 0).UTC()
	c := Call{AcceptedAt: start, EndedAt: start.Add(90 * time.Second)}
	if c.Duration() != 90*time.Second {
		t.Fatalf("expected 90s, got %v", c.Duration())
	}
	if (Call{EndedAt: start}).Duration() != 0 {
		t.Fatalf("expected zero duration for unconnected call")
	}
}
