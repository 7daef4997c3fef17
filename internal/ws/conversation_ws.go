package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"tutoring-service/internal/conversation"
	"tutoring-service/internal/logging"
	"tutoring-service/internal/middleware"
	"tutoring-service/internal/models"
	"tutoring-service/internal/observability"
	"tutoring-service/internal/realtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Authenticator resolves a bearer token to the caller's profile.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Profile, error)
}

// AccessChecker decides whether a profile may view a conversation.
type AccessChecker interface {
	Check(ctx context.Context, profile models.Profile, key models.ConversationKey) error
}

// Limits bounds how fast one connection may send messages.
type Limits struct {
	SendRate  rate.Limit
	SendBurst int
}

// ConversationHandler serves live conversation views. Each connection owns one
// Synchronizer: its snapshots are pushed to the client and "send" frames are
// inserted through it.
type ConversationHandler struct {
	auth   Authenticator
	access AccessChecker
	store  conversation.Store
	feed   realtime.Feed
	limits Limits
	log    zerolog.Logger
}

func NewConversationHandler(auth Authenticator, access AccessChecker, store conversation.Store, feed realtime.Feed, limits Limits) *ConversationHandler {
	return &ConversationHandler{
		auth:   auth,
		access: access,
		store:  store,
		feed:   feed,
		limits: limits,
		log:    logging.With("ws"),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type clientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (h *ConversationHandler) HandleSession(c *gin.Context) {
	h.handle(c, models.SessionKey(c.Param("session_id")))
}

func (h *ConversationHandler) HandleClass(c *gin.Context) {
	h.handle(c, models.ClassKey(c.Param("class_id")))
}

func (h *ConversationHandler) handle(c *gin.Context, key models.ConversationKey) {
	if err := key.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation"})
		return
	}

	ctx, span := otel.Tracer("tutoring-service/ws").Start(c.Request.Context(), "ws.handshake",
		trace.WithAttributes(attribute.String("conversation", key.String())))
	defer span.End()

	profile, err := h.auth.Authenticate(ctx, observability.TokenFromRequest(c.Request))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.access.Check(ctx, profile, key); err != nil {
		status, msg := middleware.ErrorStatus(err, "failed to check access")
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("conversation", key.String()).Msg("access check failed")
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      profile.ID,
		Key:         key,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}

	// The request context ends when the handler returns; the view outlives it.
	viewCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	v := &viewer{
		conn:    conn,
		info:    info,
		sync:    conversation.New(h.store, h.feed, profile.ID),
		limiter: rate.NewLimiter(h.limits.SendRate, h.limits.SendBurst),
		log:     h.log.With().Str("conn_id", info.ConnID).Str("conversation", key.String()).Logger(),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	observability.IncWSActive(string(key.Kind))
	emit(viewCtx, info, "ws_connect", "")

	go func() {
		defer cancel()
		v.run(viewCtx)
	}()
}

type viewer struct {
	conn    *websocket.Conn
	info    ConnInfo
	sync    *conversation.Synchronizer
	limiter *rate.Limiter
	log     zerolog.Logger

	mu     sync.Mutex
	latest *models.ConversationEvent
	queued []models.ConversationEvent
	wake   chan struct{}
	done   chan struct{}
}

func (v *viewer) run(ctx context.Context) {
	stopObserving := v.sync.Observe(func(s conversation.Snapshot) {
		v.pushSnapshot(s)
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		v.writePump()
	}()

	if err := v.sync.Open(ctx, v.info.Key); err != nil {
		v.pushError("failed to load messages")
	}

	closeReason := v.readPump(ctx)

	stopObserving()
	v.sync.Close()
	close(v.done)
	<-writerDone
	_ = v.conn.Close()

	observability.DecWSActive(string(v.info.Key.Kind))
	emit(ctx, v.info, "ws_disconnect", closeReason)
}

func (v *viewer) readPump(ctx context.Context) string {
	v.conn.SetReadLimit(maxMessageSize)
	if err := v.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err.Error()
	}
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := v.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				emit(ctx, v.info, "ws_error", err.Error())
			}
			return err.Error()
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			v.pushError("invalid frame")
			continue
		}

		switch frame.Type {
		case "send":
			if !v.limiter.Allow() {
				observability.IncWSEvent(string(v.info.Key.Kind), "rate_limited")
				v.pushError("sending too fast")
				continue
			}
			if err := v.sync.Send(ctx, frame.Content); err != nil {
				v.pushError("failed to send message")
			}
		default:
			v.pushError("unknown frame type")
		}
	}
}

// pushSnapshot replaces any snapshot not yet written; only the newest matters.
// It runs under the synchronizer lock and never blocks.
func (v *viewer) pushSnapshot(s conversation.Snapshot) {
	ev := models.ConversationEvent{
		Type:     "snapshot",
		Key:      s.Key,
		State:    string(s.State),
		Messages: s.Messages,
	}
	v.mu.Lock()
	v.latest = &ev
	v.mu.Unlock()
	v.signal()
}

func (v *viewer) pushError(msg string) {
	v.mu.Lock()
	v.queued = append(v.queued, models.ConversationEvent{Type: "error", Key: v.info.Key, Error: msg})
	v.mu.Unlock()
	v.signal()
}

func (v *viewer) signal() {
	select {
	case v.wake <- struct{}{}:
	default:
	}
}

func (v *viewer) drain() []models.ConversationEvent {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.queued
	v.queued = nil
	if v.latest != nil {
		out = append(out, *v.latest)
		v.latest = nil
	}
	return out
}

func (v *viewer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-v.done:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = v.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-v.wake:
			for _, ev := range v.drain() {
				if err := v.write(ev); err != nil {
					v.log.Debug().Err(err).Msg("websocket write failed")
					_ = v.conn.Close()
					return
				}
			}
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = v.conn.Close()
				return
			}
		}
	}
}

func (v *viewer) write(ev models.ConversationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := v.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return v.conn.WriteMessage(websocket.TextMessage, body)
}
