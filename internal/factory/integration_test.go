package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/auctionroom-go/internal/engine"
	"github.com/mcoot/auctionroom-go/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// connect authenticates a fresh connection and returns the minted token
func (s *IntegrationSuite) connect(conn model.ConnectionID, auctionID model.AuctionID) string {
	s.app.Engine.Auth(s.ctx, conn, "", auctionID)
	e, ok := s.app.Captured.LastFor(conn, engine.EventNewCookie)
	s.Require().True(ok)
	return e.Payload.(engine.NewCookiePayload).Token
}

// Test: complete round from registration through invaded settlement and a
// master reconnect in between
func (s *IntegrationSuite) TestCompleteAuctionRound() {
	// Step 1: Alice connects and registers; first in, so elected master
	aliceToken := s.connect("conn-alice", "estate-42")
	s.app.Engine.Register(s.ctx, "conn-alice", "Alice", "estate-42")

	e, ok := s.app.Captured.LastFor("conn-alice", engine.EventRegistrationSuccess)
	s.Require().True(ok)
	s.True(e.Payload.(engine.RegistrationSuccessPayload).IsMaster)

	// Step 2: Bob joins as a bidder
	s.connect("conn-bob", "estate-42")
	s.app.Engine.Register(s.ctx, "conn-bob", "Bob", "estate-42")

	b, ok := s.app.Captured.LastBroadcast(engine.EventUpdateParticipants)
	s.Require().True(ok)
	s.Equal([]string{"Bob"}, b.Payload.(engine.ParticipantsPayload).Participants)

	// Step 3: Alice starts the round; countdown reaches the room after the
	// grace delay
	s.app.Engine.StartAuction(s.ctx, "conn-alice")
	s.app.MockClock.FireTimers()

	b, ok = s.app.Captured.LastBroadcast(engine.EventStartingAuction)
	s.Require().True(ok)
	s.Equal(model.AuctionID("estate-42"), b.AuctionID)

	// Step 4: price ticks relay to the room
	s.app.Engine.Tick(s.ctx, "conn-alice", 150)
	b, ok = s.app.Captured.LastBroadcast(engine.EventTick)
	s.Require().True(ok)
	s.Equal(150.0, b.Payload.(engine.TickPayload).Price)

	// Step 5: Alice drops mid-round and reconnects on a new socket
	s.app.Engine.Disconnect(s.ctx, "conn-alice")
	s.app.Engine.Auth(s.ctx, "conn-alice2", aliceToken, "estate-42")

	_, ok = s.app.Captured.LastFor("conn-alice2", engine.EventReconnectSuccess)
	s.True(ok)
	_, ok = s.app.Captured.LastFor("conn-alice2", engine.EventStartingAuction)
	s.True(ok, "running round is replayed to the reconnecting client")

	e, ok = s.app.Captured.LastFor("conn-alice2", engine.EventRegistrationSuccess)
	s.Require().True(ok)
	s.True(e.Payload.(engine.RegistrationSuccessPayload).IsMaster, "master role survives reconnect")

	// Step 6: an outside buyer overrides, then Alice settles at 200
	s.app.Engine.Invade(s.ctx, "conn-alice2", "Carol")
	s.app.Engine.EndAuction(s.ctx, "conn-alice2", 200)

	b, ok = s.app.Captured.LastBroadcast(engine.EventEndAuction)
	s.Require().True(ok)
	end := b.Payload.(engine.EndAuctionPayload)
	s.Equal("Carol", end.Winner)
	s.Equal(201.0, end.Price)

	// Step 7: back to pending; the same roster can go again immediately
	a, err := s.app.AuctionRegistry.Get(s.ctx, "estate-42")
	s.Require().NoError(err)
	s.Equal(model.StatusPending, a.Status)

	s.app.Engine.StartAuction(s.ctx, "conn-alice2")
	s.app.Engine.EndAuction(s.ctx, "conn-alice2", 180)

	b, _ = s.app.Captured.LastBroadcast(engine.EventEndAuction)
	end = b.Payload.(engine.EndAuctionPayload)
	s.Equal("Alice", end.Winner, "invader does not leak into the next round")
	s.Equal(180.0, end.Price)
}

func (s *IntegrationSuite) TestTokenExpiryForcesFreshIdentity() {
	token := s.connect("conn-1", "estate-42")
	s.app.Engine.Register(s.ctx, "conn-1", "Alice", "estate-42")
	s.app.Engine.Disconnect(s.ctx, "conn-1")

	s.app.MockClock.Advance(25 * time.Hour)
	s.app.Engine.Auth(s.ctx, "conn-2", token, "estate-42")

	e, ok := s.app.Captured.LastFor("conn-2", engine.EventNewCookie)
	s.Require().True(ok)

	fresh := e.Payload.(engine.NewCookiePayload).Token
	s.NotEqual(token, fresh)
	_, err := s.app.IdentityCodec.Parse(fresh)
	s.NoError(err)
}

func (s *IntegrationSuite) TestWrongAuctionRedirect() {
	token := s.connect("conn-1", "estate-42")
	s.app.Engine.Register(s.ctx, "conn-1", "Alice", "estate-42")
	s.app.Engine.Disconnect(s.ctx, "conn-1")

	s.app.Engine.Auth(s.ctx, "conn-2", token, "estate-99")

	e, ok := s.app.Captured.LastFor("conn-2", engine.EventWrongAuction)
	s.Require().True(ok)
	s.Equal("estate-42", e.Payload.(engine.WrongAuctionPayload).AuctionID)
	s.False(s.app.Captured.InRoom("conn-2", "estate-99"))
}

func (s *IntegrationSuite) TestFactoryNewWiresMemoryStorage() {
	app, err := New(Config{})
	s.Require().NoError(err)
	s.NotNil(app.Engine)
	s.NotNil(app.Gateway)
	s.NotNil(app.Storage)
}

func (s *IntegrationSuite) TestFactoryNewRejectsBadStorageType() {
	_, err := New(Config{StorageType: "cloud"})
	s.Error(err)
}
