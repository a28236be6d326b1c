package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"consult-signaling/internal/auth"
	"consult-signaling/internal/calls"
	"consult-signaling/internal/signaling"
	"consult-signaling/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Options struct {
	Resolver auth.Resolver

	// Limiter is optional; nil disables the per-user cap.
	Limiter Limiter

	SendBuffer     int
	PingInterval   time.Duration
	AllowedOrigins []string
}

// Handler upgrades HTTP requests to signaling connections.
type Handler struct {
	svc      *signaling.Service
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(svc *signaling.Service, opts Options) *Handler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	h := &Handler{svc: svc, opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return h
}

// ServeWS resolves the caller's identity, upgrades, and runs the connection
// until the peer goes away. A bad credential yields an anonymous connection.
func (h *Handler) ServeWS(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	id, src, err := auth.IdentityFromRequest(c.Request, h.opts.Resolver)
	if err != nil && src != auth.SourceNone {
		log.Debug("ws credential rejected, connecting anonymously", "source", string(src), "err", err)
	}

	if !id.Anonymous() && h.opts.Limiter != nil {
		ok, err := h.opts.Limiter.Acquire(ctx, id.ID)
		switch {
		case err != nil:
			log.Warn("ws connection cap unavailable", "user_id", id.ID, "err", err)
		case !ok:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many connections"})
			return
		default:
			defer func() {
				if err := h.opts.Limiter.Release(context.WithoutCancel(ctx), id.ID); err != nil {
					log.Warn("ws connection cap release failed", "user_id", id.ID, "err", err)
				}
			}()
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug("ws upgrade failed", "err", err)
		return
	}

	connID := uuid.NewString()
	client := newClient(connID, conn, h.opts.SendBuffer, log.With("conn_id", connID, "user_id", id.ID))
	sess := signaling.Session{ConnID: client.ID(), Identity: id}

	if err := h.svc.Connect(ctx, client, sess); err != nil {
		client.log.Error("ws connect failed", "err", err)
		_ = conn.Close()
		return
	}
	client.log.Info("ws connected", "anonymous", id.Anonymous(), "source", string(src))

	go client.writePump(h.opts.PingInterval)
	h.readLoop(ctx, client, sess)

	h.svc.Disconnect(ctx, client.ID())
	client.close()
	client.log.Info("ws disconnected")
}

// readLoop handles this connection's frames one at a time, in arrival order.
func (h *Handler) readLoop(ctx context.Context, client *Client, sess signaling.Session) {
	conn := client.conn
	wait := time.Duration(pongWaitMultiplier) * h.opts.PingInterval

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.log.Debug("ws read failed", "err", err)
			}
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
			return
		}
		if typ != websocket.TextMessage {
			continue
		}

		msg, err := signaling.Decode(data)
		if err != nil {
			client.log.Debug("ws frame dropped", "err", err)
			continue
		}
		if err := h.svc.Handle(ctx, sess, msg); err != nil {
			logOutcome(client.log, msg, err)
		}
	}
}

// logOutcome logs a dropped message. Races and stale ids are expected.
func logOutcome(log *slog.Logger, msg signaling.Message, err error) {
	attrs := []any{"type", msg.Type.String(), "call_id", msg.CallID, "err", err}
	switch {
	case errors.Is(err, calls.ErrStaleOrUnknownCall),
		errors.Is(err, signaling.ErrUnauthorized),
		errors.Is(err, signaling.ErrMalformed):
		log.Debug("signaling message dropped", attrs...)
	default:
		log.Warn("signaling message failed", attrs...)
	}
}

// originChecker allows any origin when the list is empty, and requests
// without an Origin header (non-browser clients).
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
