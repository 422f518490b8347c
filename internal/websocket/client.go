package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apierrors "etfseasonal/internal/errors"
	"etfseasonal/internal/infrastructure"
)

// Time allowed to write a message to the peer
const writeWait = 10 * time.Second

// Client is one live session: it reads selections from the connection,
// renders them and writes the results back in request order.
type Client struct {
	hub *Hub

	// The websocket connection
	conn Connection

	// Buffered channel of outbound messages
	send chan []byte

	mu     sync.Mutex
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient creates a session on conn. traceID is the trace of the upgrade
// request and may be empty.
func NewClient(hub *Hub, conn Connection, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 64),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// ID returns the session identifier
func (c *Client) ID() string { return c.id }

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// enqueue queues an outbound frame. It reports false when the session is
// closed or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close stops the write pump. It is safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) reply(ctx context.Context, msgType, id string, data interface{}) {
	payload, err := encode(msgType, id, c.traceID, data)
	if err != nil {
		c.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}
	if !c.enqueue(payload) {
		c.logger.WarnContext(ctx, "Reply dropped",
			slog.String("type", msgType),
			slog.String("request_id", id))
		return
	}
	c.hub.countMessage(ctx, "out", msgType)
}

func (c *Client) replyError(ctx context.Context, id string, err error) {
	c.reply(ctx, TypeError, id, apierrors.ProblemFor(err, fmt.Sprintf("ws:%s/%s", c.id, id)))
}

// ReadPump reads requests until the connection fails, then unregisters the
// session.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.context(), "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.handle(message)
	}
}

func (c *Client) handle(message []byte) {
	ctx := c.context()

	var req Request
	if err := json.Unmarshal(message, &req); err != nil {
		c.hub.countMessage(ctx, "in", "invalid")
		c.replyError(ctx, "", apierrors.InvalidRequestWithError(err))
		return
	}
	c.hub.countMessage(ctx, "in", req.Type)

	switch req.Type {
	case TypeHeartbeat:
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	case TypeRender:
		c.render(ctx, req)
	default:
		c.replyError(ctx, req.ID, apierrors.ErrValidation("type", fmt.Sprintf("unknown message type %q", req.Type)))
	}
}

func (c *Client) render(ctx context.Context, req Request) {
	ctx, cancel := context.WithTimeout(ctx, c.hub.renderTimeout)
	defer cancel()

	start := time.Now()
	res, err := c.hub.renderer.Render(ctx, req.Selection)
	if err != nil {
		c.logger.DebugContext(ctx, "Session render failed",
			slog.String("request_id", req.ID),
			slog.String("tab", string(req.Selection.Tab)),
			slog.String("error", err.Error()))
		c.replyError(ctx, req.ID, err)
		return
	}

	c.logger.DebugContext(ctx, "Session render complete",
		slog.String("request_id", req.ID),
		slog.String("tab", string(res.Tab)),
		slog.Duration("duration", time.Since(start)))
	c.reply(ctx, TypeTabResult, req.ID, res)
}

// WritePump writes queued frames and keepalive pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
