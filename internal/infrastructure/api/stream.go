package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// StreamHub pushes dataset events to websocket subscribers. Clients that
// fall behind are dropped.
type StreamHub struct {
	upgrader websocket.Upgrader
	clients  map[*streamClient]struct{}
	mu       sync.RWMutex
	logger   logger.Logger
}

func NewStreamHub(allowedOrigins []string, log logger.Logger) *StreamHub {
	return &StreamHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(allowedOrigins, origin)
			},
		},
		clients: make(map[*streamClient]struct{}),
		logger:  logger.Component(log, "stream_hub"),
	}
}

// Handle upgrades the request and keeps the connection until the client
// goes away.
func (h *StreamHub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &streamClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(client)

	go h.writePump(client)
	h.readPump(client)
}

// OnDatasetRefreshed is registered as a dataset listener.
func (h *StreamHub) OnDatasetRefreshed(_ context.Context, previous, current *entities.Dataset) {
	if current == nil {
		return
	}
	h.Broadcast(entities.NewDatasetRefreshedEvent(previous, current))
}

func (h *StreamHub) Broadcast(event entities.DatasetEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode stream event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("Dropping slow stream client")
			delete(h.clients, client)
			close(client.send)
		}
	}
	h.logger.Debugf("Broadcast %s to %d clients", event.Type, len(h.clients))
}

func (h *StreamHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *StreamHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *StreamHub) add(client *streamClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("Stream client connected")
}

func (h *StreamHub) remove(client *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.Debug("Stream client disconnected")
	}
}

// readPump discards client messages and only watches for close and pong.
func (h *StreamHub) readPump(client *streamClient) {
	defer func() {
		h.remove(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WithError(err).Debug("Stream client closed unexpectedly")
			}
			return
		}
	}
}

func (h *StreamHub) writePump(client *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
