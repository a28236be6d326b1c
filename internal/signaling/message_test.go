package signaling

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	m, err := Decode([]byte(`{"type":"call:offer","callId":"c1","sdp":{"type":"offer","sdp":"v=0"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != KindOffer || m.CallID != "c1" || string(m.SDP) != `{"type":"offer","sdp":"v=0"}` {
		t.Fatalf("unexpected message: %+v", m)
	}
}

func TestDecodeRejectsUnknownAndMissingType(t *testing.T) {
	for _, raw := range []string{
		`{"type":"call:dance","callId":"c1"}`,
		`{"callId":"c1"}`,
		`not json`,
	} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	b, err := Encode(Message{Type: KindTimeout, CallID: "c1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != `{"type":"call:timeout","callId":"c1"}` {
		t.Fatalf("unexpected encoding: %s", b)
	}
	if _, err := Encode(Message{}); err == nil {
		t.Fatalf("expected error encoding an untyped message")
	}
}

func TestKindDirections(t *testing.T) {
	for _, k := range []Kind{KindRequest, KindCancel, KindReject, KindAccept, KindOffer, KindAnswer, KindICE, KindEnd, KindChat} {
		if !k.Inbound() {
			t.Fatalf("%s should be accepted from clients", k)
		}
	}
	for _, k := range []Kind{KindBusy, KindTimeout, KindRinging, KindState, KindError, KindUnknown} {
		if k.Inbound() {
			t.Fatalf("%s should be server-only", k)
		}
	}
	if !strings.HasPrefix(KindUnknown.String(), "kind(") {
		t.Fatalf("unexpected unknown kind name %q", KindUnknown.String())
	}
}
