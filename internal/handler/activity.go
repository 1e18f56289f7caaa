package handler

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ActivityEvent is one circulation change pushed to admin dashboards
type ActivityEvent struct {
	Type      string    `json:"type"` // borrowed, returned, book_added, book_updated, book_deleted
	UserID    int64     `json:"userId,omitempty"`
	BookID    int64     `json:"bookId,omitempty"`
	RecordID  int64     `json:"recordId,omitempty"`
	LateFee   string    `json:"lateFee,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityPublisher receives circulation events
type ActivityPublisher interface {
	Publish(ev ActivityEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(ActivityEvent) {}

// ActivityHub fans circulation events out to websocket subscribers. Slow
// subscribers miss events rather than block the request that produced them.
type ActivityHub struct {
	mu             sync.Mutex
	clients        map[*activityClient]struct{}
	enabled        bool
	allowedOrigins []string
	logger         *slog.Logger
}

type activityClient struct {
	send chan []byte
}

// NewActivityHub creates the hub; when enabled is false the endpoint answers 404
func NewActivityHub(enabled bool, allowedOrigins []string, logger *slog.Logger) *ActivityHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityHub{
		clients:        make(map[*activityClient]struct{}),
		enabled:        enabled,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Publish sends ev to every connected subscriber
func (h *ActivityHub) Publish(ev ActivityEvent) {
	if !h.enabled {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to encode activity event", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Debug("dropping activity event for slow subscriber", slog.String("type", ev.Type))
		}
	}
}

// Subscribers returns the number of connected clients
func (h *ActivityHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *ActivityHub) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/admin/activity
func (h *ActivityHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		writeFailure(w, http.StatusNotFound, "Activity feed is disabled")
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	client := &activityClient{send: make(chan []byte, 32)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
	}()

	// reader only notices the peer going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case msg := <-client.send:
			_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Debug("activity subscriber closed", slog.String("error", err.Error()))
				}
				return
			}
		case <-ticker.C:
			_ = ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}
