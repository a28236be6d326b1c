package signaling

import "errors"

// Handler outcomes. None of these is ever sent to a peer; they exist for logging.
var (
	ErrUnauthorized = errors.New("signaling: sender not authorized for this action")
	ErrMalformed    = errors.New("signaling: malformed message")

	ErrUnknownConn   = errors.New("signaling: unknown connection")
	ErrAlreadyBound  = errors.New("signaling: connection bound to another user")
	ErrAnonymous     = errors.New("signaling: anonymous connection cannot be bound")
	ErrConnClosed    = errors.New("signaling: connection closed")
	ErrSendQueueFull = errors.New("signaling: send queue full")
)
