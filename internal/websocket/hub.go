package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"etfseasonal/internal/config"
	"etfseasonal/internal/infrastructure"
)

// Hub maintains the set of live sessions. Each session renders its own
// selections; the hub only tracks sessions and fans out status notices.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound notices for every client
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	renderer      TabRenderer
	renderTimeout time.Duration
	cfg           config.WebSocketConfig
	metrics       *infrastructure.BusinessMetrics
	logger        *slog.Logger

	totalConnections int64
	messagesSent     int64
	messagesReceived int64

	quit    chan struct{}
	running bool
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithHubLogger sets the logger.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithHubMetrics records session and message counts. m may be nil.
func WithHubMetrics(m *infrastructure.BusinessMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithHubConfig sets the connection limits and keepalive periods.
func WithHubConfig(cfg config.WebSocketConfig) HubOption {
	return func(h *Hub) { h.cfg = cfg }
}

// WithRenderTimeout bounds each render a session requests.
func WithRenderTimeout(d time.Duration) HubOption {
	return func(h *Hub) { h.renderTimeout = d }
}

// NewHub creates a new Hub that renders selections with renderer
func NewHub(renderer TabRenderer, opts ...HubOption) *Hub {
	h := &Hub{
		broadcast:     make(chan []byte, 16),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		renderer:      renderer,
		renderTimeout: 30 * time.Second,
		cfg:           config.Default().WebSocket,
		logger:        infrastructure.GetLogger(),
		quit:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = infrastructure.WithComponent(h.logger, "websocket.hub")
	return h
}

// Start starts the hub's main loop
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			ctx := client.context()
			if h.metrics != nil {
				h.metrics.WebSocketConnections.Add(ctx, 1)
			}
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			client.reply(ctx, TypeConnection, "", map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, client)
			count := len(h.clients)
			h.mu.Unlock()

			client.close()
			ctx := client.context()
			if h.metrics != nil {
				h.metrics.WebSocketConnections.Add(ctx, -1)
			}
			h.logger.InfoContext(ctx, "Client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failCount := 0
			for _, client := range clients {
				if !client.enqueue(message) {
					failCount++
					h.drop(client)
				}
			}
			if failCount > 0 {
				h.logger.Warn("Some clients failed to receive broadcast",
					slog.Int("success_count", len(clients)-failCount),
					slog.Int("fail_count", failCount))
			}
		}
	}
}

// drop disconnects a client whose send buffer is full
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()
	if !ok {
		return
	}

	client.close()
	ctx := client.context()
	if h.metrics != nil {
		h.metrics.WebSocketConnections.Add(ctx, -1)
	}
	h.logger.WarnContext(ctx, "Client send buffer full, disconnecting",
		slog.String("client_id", client.id))
}

// BroadcastStatus sends a status notice to every client
func (h *Hub) BroadcastStatus(status, message string) {
	data, err := encode(TypeStatus, "", "", map[string]interface{}{
		"status":  status,
		"message": message,
	})
	if err != nil {
		h.logger.Error("Error marshaling status message", slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.quit:
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetHubMetrics returns current hub metrics
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_received": h.messagesReceived,
	}
}

func (h *Hub) countMessage(ctx context.Context, direction, kind string) {
	h.mu.Lock()
	if direction == "in" {
		h.messagesReceived++
	} else {
		h.messagesSent++
	}
	h.mu.Unlock()
	infrastructure.RecordWebSocketMessage(ctx, h.metrics, direction, kind)
}

// Stop gracefully stops the hub and closes every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.quit)

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
}
