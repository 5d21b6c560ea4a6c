package factory

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/auctionroom-go/internal/dependencies/mocks"
	"github.com/mcoot/auctionroom-go/internal/engine"
	"github.com/mcoot/auctionroom-go/internal/identity"
	"github.com/mcoot/auctionroom-go/internal/model"
	"github.com/mcoot/auctionroom-go/internal/storage/memory"
)

// CapturedEvent is one event observed by the capture gateway
type CapturedEvent struct {
	ConnID    model.ConnectionID
	AuctionID model.AuctionID
	Event     string
	Payload   any
	Broadcast bool
}

// CaptureGateway records engine output instead of writing to sockets, so
// tests can drive the engine directly and assert on the event stream
type CaptureGateway struct {
	mu     sync.Mutex
	Events []CapturedEvent
	rooms  map[model.AuctionID]map[model.ConnectionID]bool
}

// NewCaptureGateway creates a new CaptureGateway
func NewCaptureGateway() *CaptureGateway {
	return &CaptureGateway{rooms: make(map[model.AuctionID]map[model.ConnectionID]bool)}
}

// SendTo records a single-connection event
func (g *CaptureGateway) SendTo(connID model.ConnectionID, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Events = append(g.Events, CapturedEvent{ConnID: connID, Event: event, Payload: payload})
}

// BroadcastToRoom records a room broadcast
func (g *CaptureGateway) BroadcastToRoom(auctionID model.AuctionID, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Events = append(g.Events, CapturedEvent{AuctionID: auctionID, Event: event, Payload: payload, Broadcast: true})
}

// JoinRoom records room membership
func (g *CaptureGateway) JoinRoom(connID model.ConnectionID, auctionID model.AuctionID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[auctionID] == nil {
		g.rooms[auctionID] = make(map[model.ConnectionID]bool)
	}
	g.rooms[auctionID][connID] = true
}

// LeaveRoom removes room membership
func (g *CaptureGateway) LeaveRoom(connID model.ConnectionID, auctionID model.AuctionID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms[auctionID], connID)
}

// InRoom reports whether a connection is in a room
func (g *CaptureGateway) InRoom(connID model.ConnectionID, auctionID model.AuctionID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rooms[auctionID][connID]
}

// LastFor returns the most recent direct event of the given name sent to a
// connection
func (g *CaptureGateway) LastFor(connID model.ConnectionID, event string) (CapturedEvent, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.Events) - 1; i >= 0; i-- {
		e := g.Events[i]
		if !e.Broadcast && e.ConnID == connID && e.Event == event {
			return e, true
		}
	}
	return CapturedEvent{}, false
}

// LastBroadcast returns the most recent broadcast of the given name
func (g *CaptureGateway) LastBroadcast(event string) (CapturedEvent, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.Events) - 1; i >= 0; i-- {
		e := g.Events[i]
		if e.Broadcast && e.Event == event {
			return e, true
		}
	}
	return CapturedEvent{}, false
}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Captured   *CaptureGateway
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and a capture gateway in place of live websockets
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	captured := NewCaptureGateway()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	identityCfg := identity.DefaultConfig()
	identityCfg.Secret = []byte("test-secret")

	app := newWithDependencies(store, mockClock, mockRandom, captured, identityCfg, engine.DefaultConfig(), logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Captured:   captured,
	}
}
