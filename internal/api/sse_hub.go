package api

import (
	"io"
	"sync"
	"time"

	"sheetchat/internal"
	"sheetchat/models"

	"github.com/gin-gonic/gin"
)

const (
	// EventState carries a full session snapshot
	EventState = "state"
	// EventPing keeps idle connections open
	EventPing = "ping"

	defaultPingInterval = 30 * time.Second
)

// StateSource is anything that publishes session snapshots
type StateSource interface {
	Subscribe() (<-chan models.Snapshot, func())
}

// PingEvent is the keep-alive payload
type PingEvent struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// SSEHub streams session state to browsers over Server-Sent Events
type SSEHub struct {
	logger       *internal.Logger
	pingInterval time.Duration

	clientsMu sync.RWMutex
	clients   map[string]int
}

// NewSSEHub creates a new SSE hub. A non-positive interval uses 30s.
func NewSSEHub(logger *internal.Logger, pingInterval time.Duration) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &SSEHub{
		logger:       logger,
		pingInterval: pingInterval,
		clients:      make(map[string]int),
	}
}

// Stream sends the current snapshot and then one snapshot per mutation until
// the client disconnects or the session is closed.
func (h *SSEHub) Stream(c *gin.Context, sessionID string, src StateSource) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	updates, cancel := src.Subscribe()
	defer cancel()

	h.register(sessionID)
	defer h.unregister(sessionID)

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-updates:
			if !ok {
				h.logger.Debug("[SSE] session %s closed, ending stream", sessionID)
				return false
			}
			c.SSEvent(EventState, snap)
			return true

		case now := <-ticker.C:
			c.SSEvent(EventPing, PingEvent{Status: "alive", Timestamp: now.UTC()})
			return true

		case <-ctx.Done():
			return false
		}
	})
}

func (h *SSEHub) register(sessionID string) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.clients[sessionID]++
	h.logger.Debug("[SSE] Client registered for session %s (total clients: %d)", sessionID, h.clients[sessionID])
}

func (h *SSEHub) unregister(sessionID string) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.clients[sessionID]--
	remaining := h.clients[sessionID]
	if remaining <= 0 {
		delete(h.clients, sessionID)
	}
	h.logger.Debug("[SSE] Client unregistered from session %s (remaining clients: %d)", sessionID, remaining)
}

// GetActiveSessions returns sessions with active SSE clients
func (h *SSEHub) GetActiveSessions() []string {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	sessions := make([]string, 0, len(h.clients))
	for sessionID := range h.clients {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

// GetClientCount returns the number of active clients for a session
func (h *SSEHub) GetClientCount(sessionID string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return h.clients[sessionID]
}
