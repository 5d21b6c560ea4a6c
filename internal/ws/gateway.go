package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/auctionroom-go/internal/dependencies/random"
	"github.com/mcoot/auctionroom-go/internal/model"
)

const (
	connIDLength   = 16
	connIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// EventHandler receives the decoded inbound events. One call per message,
// made from the connection's read goroutine.
type EventHandler interface {
	Auth(ctx context.Context, connID model.ConnectionID, token string, auctionID model.AuctionID)
	CheckAuth(ctx context.Context, connID model.ConnectionID, token string, auctionID model.AuctionID)
	Register(ctx context.Context, connID model.ConnectionID, name string, auctionID model.AuctionID)
	Tick(ctx context.Context, connID model.ConnectionID, price float64)
	StartAuction(ctx context.Context, connID model.ConnectionID)
	Invade(ctx context.Context, connID model.ConnectionID, name string)
	EndAuction(ctx context.Context, connID model.ConnectionID, price float64)
	ExitAuction(ctx context.Context, connID model.ConnectionID)
	Disconnect(ctx context.Context, connID model.ConnectionID)
}

// Config holds configuration for the websocket gateway
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	SendBufferSize  int
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns default gateway configuration
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		SendBufferSize:  64,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Gateway owns the live websocket connections and their room membership.
// It upgrades HTTP requests, pumps frames in and out, and exposes the
// send/broadcast surface the coordination engine drives.
//
// Room membership here is transient transport state. The durable record of
// who belongs to which auction lives in the directory; the engine keeps the
// two in step.
type Gateway struct {
	mu      sync.RWMutex
	conns   map[model.ConnectionID]*client
	rooms   map[model.AuctionID]map[model.ConnectionID]*client
	handler EventHandler

	upgrader websocket.Upgrader
	random   random.Random
	logger   *slog.Logger
	cfg      Config
}

// New creates a new websocket Gateway. SetHandler must be called before the
// gateway serves its first connection.
func New(cfg Config, rand random.Random, logger *slog.Logger) *Gateway {
	def := DefaultConfig()
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBufferSize == 0 {
		cfg.SendBufferSize = def.SendBufferSize
	}
	if cfg.CheckOrigin == nil {
		cfg.CheckOrigin = def.CheckOrigin
	}

	return &Gateway{
		conns: make(map[model.ConnectionID]*client),
		rooms: make(map[model.AuctionID]map[model.ConnectionID]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		random: rand,
		logger: logger.With(slog.String("component", "ws")),
		cfg:    cfg,
	}
}

// SetHandler wires the inbound event sink. Separate from New because the
// engine and the gateway reference each other.
func (g *Gateway) SetHandler(handler EventHandler) {
	g.handler = handler
}

// ServeHTTP upgrades the request and starts the connection's pumps
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		id:   model.ConnectionID(g.random.String(connIDLength, connIDAlphabet)),
		gw:   g,
		conn: conn,
		send: make(chan []byte, g.cfg.SendBufferSize),
	}

	g.mu.Lock()
	g.conns[c.id] = c
	g.mu.Unlock()

	g.logger.Info("connection established",
		slog.String("connection_id", string(c.id)),
		slog.String("remote_addr", r.RemoteAddr))

	go c.writePump()
	go c.readPump()
}

// SendTo queues an event for a single connection. Unknown connections and
// full send buffers are logged and dropped; the engine never blocks on a
// slow client.
func (g *Gateway) SendTo(connID model.ConnectionID, event string, payload any) {
	msg, err := encodeEnvelope(event, payload)
	if err != nil {
		g.logger.Error("failed to encode event",
			slog.String("event", event), slog.Any("error", err))
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.conns[connID]
	if !ok {
		g.logger.Warn("send to unknown connection",
			slog.String("connection_id", string(connID)),
			slog.String("event", event))
		return
	}
	g.enqueueLocked(c, event, msg)
}

// BroadcastToRoom queues an event for every connection in an auction's room
func (g *Gateway) BroadcastToRoom(auctionID model.AuctionID, event string, payload any) {
	msg, err := encodeEnvelope(event, payload)
	if err != nil {
		g.logger.Error("failed to encode event",
			slog.String("event", event), slog.Any("error", err))
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, c := range g.rooms[auctionID] {
		g.enqueueLocked(c, event, msg)
	}
}

// JoinRoom adds a connection to an auction's room. A connection belongs to
// at most one room; joining moves it.
func (g *Gateway) JoinRoom(connID model.ConnectionID, auctionID model.AuctionID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.conns[connID]
	if !ok {
		return
	}
	if c.room != "" && c.room != auctionID {
		g.removeFromRoomLocked(c)
	}
	if g.rooms[auctionID] == nil {
		g.rooms[auctionID] = make(map[model.ConnectionID]*client)
	}
	g.rooms[auctionID][connID] = c
	c.room = auctionID
}

// LeaveRoom removes a connection from an auction's room; idempotent
func (g *Gateway) LeaveRoom(connID model.ConnectionID, auctionID model.AuctionID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.conns[connID]
	if !ok || c.room != auctionID {
		return
	}
	g.removeFromRoomLocked(c)
}

// RoomSize returns the number of live connections in an auction's room
func (g *Gateway) RoomSize(auctionID model.AuctionID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms[auctionID])
}

// ConnectionCount returns the number of live connections
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.conns)
}

// enqueueLocked does a non-blocking send to the client's buffer. Caller
// holds at least g.mu's read lock, which guarantees the channel has not been
// closed by unregister.
func (g *Gateway) enqueueLocked(c *client, event string, msg []byte) {
	select {
	case c.send <- msg:
	default:
		g.logger.Warn("send buffer full, dropping event",
			slog.String("connection_id", string(c.id)),
			slog.String("event", event))
	}
}

// removeFromRoomLocked drops a client from its room. Caller holds g.mu.
func (g *Gateway) removeFromRoomLocked(c *client) {
	if c.room == "" {
		return
	}
	delete(g.rooms[c.room], c.id)
	if len(g.rooms[c.room]) == 0 {
		delete(g.rooms, c.room)
	}
	c.room = ""
}

// unregister tears down a closed connection and tells the handler
func (g *Gateway) unregister(c *client) {
	g.mu.Lock()
	if _, ok := g.conns[c.id]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.conns, c.id)
	g.removeFromRoomLocked(c)
	close(c.send)
	g.mu.Unlock()

	g.logger.Info("connection closed", slog.String("connection_id", string(c.id)))
	g.handler.Disconnect(context.Background(), c.id)
}

func encodeEnvelope(event string, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}
