package signaling

import (
	"encoding/json"
	"fmt"
)

// Kind is the closed set of signaling message types.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequest
	KindCancel
	KindReject
	KindAccept
	KindOffer
	KindAnswer
	KindICE
	KindEnd
	KindChat

	// server-originated only
	KindBusy
	KindTimeout
	KindRinging
	KindState
	KindError
)

var kindNames = [...]string{
	KindUnknown: "",
	KindRequest: "call:request",
	KindCancel:  "call:cancel",
	KindReject:  "call:reject",
	KindAccept:  "call:accept",
	KindOffer:   "call:offer",
	KindAnswer:  "call:answer",
	KindICE:     "call:ice",
	KindEnd:     "call:end",
	KindChat:    "chat:message",
	KindBusy:    "call:busy",
	KindTimeout: "call:timeout",
	KindRinging: "call:ringing",
	KindState:   "call:state",
	KindError:   "call:error",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		if name != "" {
			m[name] = Kind(k)
		}
	}
	return m
}()

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) || k == KindUnknown {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Inbound reports whether clients may send this kind.
func (k Kind) Inbound() bool {
	return k >= KindRequest && k <= KindChat
}

func (k Kind) MarshalText() ([]byte, error) {
	if k <= KindUnknown || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("signaling: cannot encode %s", k)
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := kindByName[string(b)]
	if !ok {
		return fmt.Errorf("signaling: unknown message type %q", string(b))
	}
	*k = v
	return nil
}

// Busy reasons and error codes sent to the requesting connection.
const (
	BusyCallee = "callee-busy"
	BusyCaller = "caller-busy"

	CodeDuplicateCallID   = "duplicate-call-id"
	CodeAppointmentActive = "appointment-active"

	RoleCaller = "caller"
	RoleCallee = "callee"
)

// MaxChatTextBytes bounds a chat:message body.
const MaxChatTextBytes = 4096

// Message is one signaling frame. SDP and Candidate are relayed as received.
type Message struct {
	Type Kind `json:"type"`

	CallID        string `json:"callId,omitempty"`
	ToUserID      string `json:"toUserId,omitempty"`
	FromUserID    string `json:"fromUserId,omitempty"`
	FromName      string `json:"fromName,omitempty"`
	AppointmentID string `json:"appointmentId,omitempty"`

	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`

	Reason     string `json:"reason,omitempty"`
	Code       string `json:"code,omitempty"`
	Status     string `json:"status,omitempty"`
	PeerUserID string `json:"peerUserId,omitempty"`
	Role       string `json:"role,omitempty"`

	Text   string `json:"text,omitempty"`
	SentAt string `json:"sentAt,omitempty"`
}

// Decode parses a client frame. Unknown or missing types are malformed.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m.Type == KindUnknown {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return m, nil
}

func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
