package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

const (
	wsWriteWait    = 10 * time.Second
	wsMaxReadBytes = 4 * 1024
)

// StreamServer pushes committed receipts to WebSocket clients. It is a
// settlement.Listener.
type StreamServer struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	buffer       int
	logger       *zap.Logger

	mu      sync.RWMutex
	clients map[string]*streamClient
}

var _ settlement.Listener = (*StreamServer)(nil)

type streamClient struct {
	id    string
	conn  *websocket.Conn
	asset *types.AssetID

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// StreamMessage is one frame written to a client.
type StreamMessage struct {
	Type    string              `json:"type"`
	ID      string              `json:"id,omitempty"`
	Receipt *settlement.Receipt `json:"receipt,omitempty"`
}

func NewStreamServer(cfg Config, logger *zap.Logger) *StreamServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WSPingInterval <= 0 || cfg.WSBuffer <= 0 {
		def := DefaultConfig()
		cfg.WSPingInterval, cfg.WSBuffer = def.WSPingInterval, def.WSBuffer
	}
	return &StreamServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: cfg.WSPingInterval,
		buffer:       cfg.WSBuffer,
		logger:       logger.With(zap.String("module", "ws")),
		clients:      make(map[string]*streamClient),
	}
}

// ServeHTTP upgrades the request. ?asset_id=N restricts the stream to one
// asset.
func (s *StreamServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var filter *types.AssetID
	if raw := r.URL.Query().Get("asset_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid asset_id", http.StatusBadRequest)
			return
		}
		asset := types.AssetID(id)
		filter = &asset
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &streamClient{
		id:    uuid.NewString(),
		conn:  conn,
		asset: filter,
		send:  make(chan []byte, s.buffer),
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[client.id] = client
	s.mu.Unlock()

	s.logger.Debug("websocket client connected",
		zap.String("client", client.id),
		zap.String("remote", conn.RemoteAddr().String()))

	if data, err := json.Marshal(StreamMessage{Type: "connected", ID: client.id}); err == nil {
		client.send <- data
	}

	go s.writeLoop(client)
	go s.readLoop(client)
}

// OnReceipt queues r for every matching client. Clients whose buffer is
// full are disconnected.
func (s *StreamServer) OnReceipt(_ context.Context, r *settlement.Receipt) error {
	data, err := json.Marshal(StreamMessage{Type: "receipt", Receipt: r})
	if err != nil {
		return err
	}

	var slow []*streamClient
	s.mu.RLock()
	for _, c := range s.clients {
		if c.asset != nil && *c.asset != r.Asset {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	s.mu.RUnlock()

	for _, c := range slow {
		s.logger.Warn("dropping slow websocket client", zap.String("client", c.id))
		s.drop(c)
	}
	return nil
}

// Clients returns the number of connected clients.
func (s *StreamServer) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close disconnects every client.
func (s *StreamServer) Close() {
	s.mu.RLock()
	clients := make([]*streamClient, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		s.drop(c)
	}
}

// readLoop discards inbound frames; it exists to process pongs and notice
// disconnects.
func (s *StreamServer) readLoop(c *streamClient) {
	defer s.drop(c)

	c.conn.SetReadLimit(wsMaxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (s *StreamServer) writeLoop(c *streamClient) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	defer s.drop(c)

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *StreamServer) drop(c *streamClient) {
	c.closeOnce.Do(func() {
		close(c.done)

		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()

		_ = c.conn.Close()
		s.logger.Debug("websocket client closed", zap.String("client", c.id))
	})
}
