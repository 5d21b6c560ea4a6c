package auction

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/auctionroom-go/internal/dependencies/clock"
	"github.com/mcoot/auctionroom-go/internal/model"
	"github.com/mcoot/auctionroom-go/internal/storage"
)

// Registry owns the auction lifecycle records. The coordination engine is
// its only mutator.
type Registry struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new auction Registry
func New(store storage.Storage, clk clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		storage: store,
		clock:   clk,
		logger:  logger.With(slog.String("component", "auction")),
	}
}

// GetOrCreate returns the auction for an id, creating it pending with the
// candidate as master if the id is unknown. An existing record is returned
// unchanged - creation is the only path that assigns the master.
func (r *Registry) GetOrCreate(ctx context.Context, id model.AuctionID, candidateMaster model.UserID) (*model.Auction, bool, error) {
	existing, err := r.storage.GetAuction(ctx, id)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, model.ErrAuctionNotFound) {
		return nil, false, err
	}

	now := r.clock.Now()
	auction := &model.Auction{
		ID:        id,
		Status:    model.StatusPending,
		MasterID:  candidateMaster,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.storage.SaveAuction(ctx, auction); err != nil {
		return nil, false, err
	}

	r.logger.Info("auction created",
		slog.String("auction_id", string(id)),
		slog.String("master_id", string(candidateMaster)))

	return auction, true, nil
}

// SetMaster reassigns the recorded master. Used when a registration wins
// the election for an existing auction whose previous roster is gone.
func (r *Registry) SetMaster(ctx context.Context, id model.AuctionID, userID model.UserID) error {
	auction, err := r.storage.GetAuction(ctx, id)
	if err != nil {
		return err
	}

	auction.MasterID = userID
	auction.UpdatedAt = r.clock.Now()
	if err := r.storage.SaveAuction(ctx, auction); err != nil {
		return err
	}

	r.logger.Info("auction master reassigned",
		slog.String("auction_id", string(id)),
		slog.String("master_id", string(userID)))

	return nil
}

// Get retrieves an auction by id
func (r *Registry) Get(ctx context.Context, id model.AuctionID) (*model.Auction, error) {
	return r.storage.GetAuction(ctx, id)
}

// SetStatus transitions an auction's lifecycle state
func (r *Registry) SetStatus(ctx context.Context, id model.AuctionID, status model.AuctionStatus) error {
	auction, err := r.storage.GetAuction(ctx, id)
	if err != nil {
		return err
	}

	auction.Status = status
	auction.UpdatedAt = r.clock.Now()
	return r.storage.SaveAuction(ctx, auction)
}

// SetInvader records a one-shot override buyer for the next settlement
func (r *Registry) SetInvader(ctx context.Context, id model.AuctionID, name string) error {
	auction, err := r.storage.GetAuction(ctx, id)
	if err != nil {
		return err
	}

	auction.Invader = name
	auction.UpdatedAt = r.clock.Now()
	return r.storage.SaveAuction(ctx, auction)
}

// ClearInvader removes any pending invader override
func (r *Registry) ClearInvader(ctx context.Context, id model.AuctionID) error {
	return r.SetInvader(ctx, id, "")
}
