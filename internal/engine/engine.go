package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/auctionroom-go/internal/dependencies/clock"
	"github.com/mcoot/auctionroom-go/internal/identity"
	"github.com/mcoot/auctionroom-go/internal/model"
	"github.com/mcoot/auctionroom-go/internal/services/auction"
	"github.com/mcoot/auctionroom-go/internal/services/directory"
	"github.com/mcoot/auctionroom-go/internal/services/session"
)

// InvaderSurcharge is added to the submitted price when an invader override
// settles the auction
const InvaderSurcharge = 1

// Gateway is the broadcast capability the engine drives. Joining and leaving
// rooms is a side effect of auth/register/exit handling, never exposed to
// clients directly.
type Gateway interface {
	SendTo(connID model.ConnectionID, event string, payload any)
	BroadcastToRoom(auctionID model.AuctionID, event string, payload any)
	JoinRoom(connID model.ConnectionID, auctionID model.AuctionID)
	LeaveRoom(connID model.ConnectionID, auctionID model.AuctionID)
}

// Config holds configuration for the coordination engine
type Config struct {
	// StartGraceDelay is the pause between the master starting the auction
	// and the startingAuction broadcast, giving other clients time to
	// render the bidding view before ticks begin.
	StartGraceDelay time.Duration
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		StartGraceDelay: 3 * time.Second,
	}
}

// Engine is the coordination engine: given an inbound event and the three
// registries, it decides acceptance, mutates state and broadcasts.
//
// A single mutex serializes handlers, so no two events interleave mutations
// of shared state. The only off-lock work is the start-grace timer, which
// fires independently per auction and only broadcasts.
type Engine struct {
	mu sync.Mutex

	sessions  *session.Registry
	directory *directory.Service
	auctions  *auction.Registry
	codec     *identity.Codec
	gateway   Gateway
	clock     clock.Clock
	logger    *slog.Logger
	cfg       Config
}

// New creates a new coordination Engine
func New(
	sessions *session.Registry,
	dir *directory.Service,
	auctions *auction.Registry,
	codec *identity.Codec,
	gateway Gateway,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	if cfg.StartGraceDelay == 0 {
		cfg.StartGraceDelay = DefaultConfig().StartGraceDelay
	}
	return &Engine{
		sessions:  sessions,
		directory: dir,
		auctions:  auctions,
		codec:     codec,
		gateway:   gateway,
		clock:     clk,
		logger:    logger.With(slog.String("component", "engine")),
		cfg:       cfg,
	}
}

// Auth resolves a connection's identity. A valid token bound to a known
// participant reconnects them; anything else mints a fresh identity.
func (e *Engine) Auth(ctx context.Context, connID model.ConnectionID, token string, auctionID model.AuctionID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if userID, err := e.codec.Parse(token); err == nil {
		if p, lerr := e.directory.Lookup(ctx, userID); lerr == nil {
			e.reconnect(ctx, connID, p, auctionID)
			e.sessions.Bind(connID, userID)
			return
		}
	}

	// No usable identity: mint a fresh one. An expired or garbled token is
	// not an error, just a client that needs a new cookie.
	fresh, userID, err := e.codec.Mint()
	if err != nil {
		e.logger.Error("failed to mint identity token", slog.Any("error", err))
		return
	}
	e.gateway.SendTo(connID, EventNewCookie, NewCookiePayload{Token: fresh})
	e.sessions.Bind(connID, userID)
}

// reconnect re-binds a returning participant to its room, or redirects it
// when the requested auction differs from the bound one
func (e *Engine) reconnect(ctx context.Context, connID model.ConnectionID, p *model.Participant, requested model.AuctionID) {
	if err := e.directory.ReattachConnection(ctx, p.UserID, connID); err != nil {
		e.logger.Warn("failed to reattach connection",
			slog.String("user_id", string(p.UserID)), slog.Any("error", err))
	}

	if p.AuctionID != requested {
		e.gateway.SendTo(connID, EventWrongAuction, WrongAuctionPayload{AuctionID: string(p.AuctionID)})
		return
	}

	e.gateway.JoinRoom(connID, p.AuctionID)
	e.broadcastRoster(ctx, p.AuctionID)
	e.gateway.SendTo(connID, EventReconnectSuccess, nil)
	e.gateway.SendTo(connID, EventRegistrationSuccess, RegistrationSuccessPayload{
		Name:     p.Name,
		IsMaster: p.IsMaster,
	})

	if a, err := e.auctions.Get(ctx, p.AuctionID); err == nil && a.Status == model.StatusRunning {
		e.gateway.SendTo(connID, EventStartingAuction, nil)
	}
}

// CheckAuth validates a token against a requested auction without side
// effects beyond reattaching the connection pointer. Used by clients that
// already hold a token and only need to know whether it fits the room.
func (e *Engine) CheckAuth(ctx context.Context, connID model.ConnectionID, token string, auctionID model.AuctionID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	userID, err := e.codec.Parse(token)
	if err != nil {
		return
	}
	p, err := e.directory.Lookup(ctx, userID)
	if err != nil {
		return
	}

	if err := e.directory.ReattachConnection(ctx, userID, connID); err != nil {
		e.logger.Warn("failed to reattach connection",
			slog.String("user_id", string(userID)), slog.Any("error", err))
	}
	if p.AuctionID != auctionID {
		e.gateway.SendTo(connID, EventWrongAuction, WrongAuctionPayload{AuctionID: string(p.AuctionID)})
	}
}

// Register handles a display-name registration for an auction. The caller
// is elected master iff no other user is registered for the auction, or the
// auction already records them as master (reconnecting master).
func (e *Engine) Register(ctx context.Context, connID model.ConnectionID, name string, auctionID model.AuctionID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	userID, ok := e.sessions.Resolve(connID)
	if !ok {
		e.logger.Warn("register from unauthenticated connection",
			slog.String("connection_id", string(connID)))
		return
	}

	taken, err := e.directory.NameInUse(ctx, auctionID, name, userID)
	if err != nil {
		e.logger.Error("duplicate-name check failed", slog.Any("error", err))
		return
	}
	if taken {
		e.gateway.SendTo(connID, EventRetryRegister, nil)
		return
	}

	others, err := e.directory.OthersRegistered(ctx, auctionID, userID)
	if err != nil {
		e.logger.Error("election check failed", slog.Any("error", err))
		return
	}
	isMaster := !others

	a, err := e.auctions.Get(ctx, auctionID)
	switch {
	case err == nil:
		if !isMaster {
			isMaster = a.MasterID == userID
		} else if a.MasterID != userID {
			// Winning the empty-room election takes over the record, so
			// the flag and the enforced authority always agree
			if err := e.auctions.SetMaster(ctx, auctionID, userID); err != nil {
				e.logger.Error("failed to reassign master", slog.Any("error", err))
				return
			}
		}
	case errors.Is(err, model.ErrAuctionNotFound):
		if !isMaster {
			// Participants without an auction record should not exist
			e.logger.Error("auction record missing for populated room",
				slog.String("auction_id", string(auctionID)))
			return
		}
		a, _, err = e.auctions.GetOrCreate(ctx, auctionID, userID)
		if err != nil {
			e.logger.Error("failed to create auction", slog.Any("error", err))
			return
		}
	default:
		e.logger.Error("auction lookup failed", slog.Any("error", err))
		return
	}

	e.gateway.JoinRoom(connID, auctionID)

	if a.Status == model.StatusPending {
		if _, err := e.directory.Register(ctx, userID, name, auctionID, isMaster, connID); err != nil {
			if errors.Is(err, model.ErrDuplicateName) {
				e.gateway.SendTo(connID, EventRetryRegister, nil)
				return
			}
			e.logger.Error("failed to register participant", slog.Any("error", err))
			return
		}
	} else {
		// Late joiner: told their would-be name and role so the client can
		// render a read-only view, but never added to the roster.
		e.gateway.SendTo(connID, EventAuctionAlreadyStarted, nil)
	}

	e.gateway.SendTo(connID, EventRegistrationSuccess, RegistrationSuccessPayload{
		Name:     name,
		IsMaster: isMaster,
	})
	e.broadcastRoster(ctx, auctionID)
}

// Tick relays a price update to the sender's room. The engine does not
// compute or validate decay; the privileged client owns the curve.
func (e *Engine) Tick(ctx context.Context, connID model.ConnectionID, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.participantFor(ctx, connID, "tick")
	if p == nil {
		return
	}
	e.gateway.BroadcastToRoom(p.AuctionID, EventTick, TickPayload{Price: price})
}

// StartAuction transitions the caller's auction to running and schedules
// the startingAuction broadcast after the grace delay. Master only.
func (e *Engine) StartAuction(ctx context.Context, connID model.ConnectionID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, a := e.masterAction(ctx, connID, "startAuction")
	if a == nil {
		return
	}

	// A new cycle begins: any invader left over from a previous round must
	// not leak into this one's settlement.
	if a.HasInvader() {
		if err := e.auctions.ClearInvader(ctx, a.ID); err != nil {
			e.logger.Error("failed to clear invader", slog.Any("error", err))
		}
	}
	if err := e.auctions.SetStatus(ctx, a.ID, model.StatusRunning); err != nil {
		e.logger.Error("failed to start auction", slog.Any("error", err))
		return
	}

	e.logger.Info("auction started",
		slog.String("auction_id", string(a.ID)),
		slog.String("master_id", string(p.UserID)))

	auctionID := a.ID
	e.clock.AfterFunc(e.cfg.StartGraceDelay, func() {
		e.gateway.BroadcastToRoom(auctionID, EventStartingAuction, nil)
	})
}

// Invade records an override buyer to be honored at the next settlement.
// Master only.
func (e *Engine) Invade(ctx context.Context, connID model.ConnectionID, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, a := e.masterAction(ctx, connID, "invade")
	if a == nil {
		return
	}
	if err := e.auctions.SetInvader(ctx, a.ID, name); err != nil {
		e.logger.Error("failed to set invader", slog.Any("error", err))
	}
}

// EndAuction settles the round and returns the auction to pending. Ending
// before the countdown completes is the cancellation path, not an error.
// Master only.
func (e *Engine) EndAuction(ctx context.Context, connID model.ConnectionID, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, a := e.masterAction(ctx, connID, "endAuction")
	if a == nil {
		return
	}

	if err := e.auctions.SetStatus(ctx, a.ID, model.StatusPending); err != nil {
		e.logger.Error("failed to end auction", slog.Any("error", err))
		return
	}

	winner := p.Name
	settle := price
	if a.HasInvader() {
		winner = a.Invader
		settle = price + InvaderSurcharge
		if err := e.auctions.ClearInvader(ctx, a.ID); err != nil {
			e.logger.Error("failed to clear invader", slog.Any("error", err))
		}
	}

	e.logger.Info("auction settled",
		slog.String("auction_id", string(a.ID)),
		slog.String("winner", winner),
		slog.Float64("price", settle))

	e.gateway.BroadcastToRoom(a.ID, EventEndAuction, EndAuctionPayload{
		Winner: winner,
		Price:  settle,
	})
}

// ExitAuction removes the caller's participant record entirely. The auction
// record is untouched even if the exiting user was master; the room stays
// mastered by the absent identity until they reconnect.
func (e *Engine) ExitAuction(ctx context.Context, connID model.ConnectionID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.participantFor(ctx, connID, "exitAuction")
	if p == nil {
		return
	}

	if err := e.directory.Remove(ctx, p.UserID); err != nil {
		e.logger.Error("failed to remove participant", slog.Any("error", err))
		return
	}
	e.gateway.LeaveRoom(connID, p.AuctionID)
	e.broadcastRoster(ctx, p.AuctionID)
}

// Disconnect drops only the session binding. Participant and auction
// records survive so the identity can reconnect via its token.
func (e *Engine) Disconnect(ctx context.Context, connID model.ConnectionID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sessions.Unbind(connID)
}

// participantFor resolves a connection to its participant record, logging
// and returning nil on any miss. Handlers degrade silently: one
// connection's malformed state must never affect other rooms.
func (e *Engine) participantFor(ctx context.Context, connID model.ConnectionID, action string) *model.Participant {
	userID, ok := e.sessions.Resolve(connID)
	if !ok {
		e.logger.Warn("event from unauthenticated connection",
			slog.String("action", action),
			slog.String("connection_id", string(connID)))
		return nil
	}
	p, err := e.directory.Lookup(ctx, userID)
	if err != nil {
		e.logger.Warn("event from unregistered user",
			slog.String("action", action),
			slog.String("user_id", string(userID)))
		return nil
	}
	return p
}

// masterAction resolves the caller and its auction, and enforces the master
// role. Unauthorized attempts are logged and ignored, never errored back.
func (e *Engine) masterAction(ctx context.Context, connID model.ConnectionID, action string) (*model.Participant, *model.Auction) {
	p := e.participantFor(ctx, connID, action)
	if p == nil {
		return nil, nil
	}
	a, err := e.auctions.Get(ctx, p.AuctionID)
	if err != nil {
		e.logger.Warn("auction missing for registered participant",
			slog.String("action", action),
			slog.String("auction_id", string(p.AuctionID)))
		return nil, nil
	}
	if a.MasterID != p.UserID {
		e.logger.Warn("non-master attempted privileged action",
			slog.String("action", action),
			slog.String("user_id", string(p.UserID)),
			slog.String("auction_id", string(a.ID)))
		return nil, nil
	}
	return p, a
}

// broadcastRoster pushes the current non-master roster to the room
func (e *Engine) broadcastRoster(ctx context.Context, auctionID model.AuctionID) {
	roster, err := e.directory.Roster(ctx, auctionID)
	if err != nil {
		e.logger.Error("failed to build roster", slog.Any("error", err))
		return
	}
	if roster == nil {
		roster = []string{}
	}
	e.gateway.BroadcastToRoom(auctionID, EventUpdateParticipants, ParticipantsPayload{Participants: roster})
}
