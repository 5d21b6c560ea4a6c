package directory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/auctionroom-go/internal/dependencies/clock"
	"github.com/mcoot/auctionroom-go/internal/model"
	"github.com/mcoot/auctionroom-go/internal/storage"
)

// Service is the user directory: it owns the participant records mapping a
// stable user id to a registered name, auction and master flag. The
// coordination engine is its only mutator.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new directory Service
func New(store storage.Storage, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		clock:   clk,
		logger:  logger.With(slog.String("component", "directory")),
	}
}

// Lookup returns the participant record for a user id
func (s *Service) Lookup(ctx context.Context, userID model.UserID) (*model.Participant, error) {
	return s.storage.GetParticipant(ctx, userID)
}

// Register creates a participant record. It fails with ErrDuplicateName if a
// different user already holds the same name in the same auction.
// Name comparison is case-sensitive.
func (s *Service) Register(ctx context.Context, userID model.UserID, name string, auctionID model.AuctionID, isMaster bool, connID model.ConnectionID) (*model.Participant, error) {
	existing, err := s.storage.FindParticipantByName(ctx, auctionID, name)
	if err != nil && !errors.Is(err, model.ErrParticipantNotFound) {
		return nil, err
	}
	if existing != nil && existing.UserID != userID {
		return nil, model.ErrDuplicateName
	}

	p := &model.Participant{
		UserID:            userID,
		Name:              name,
		AuctionID:         auctionID,
		IsMaster:          isMaster,
		CurrentConnection: connID,
		JoinedAt:          s.clock.Now(),
	}
	if existing != nil {
		// Same user re-registering its own name keeps its original slot
		p.JoinedAt = existing.JoinedAt
	}

	if err := s.storage.SaveParticipant(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("participant registered",
		slog.String("user_id", string(userID)),
		slog.String("auction_id", string(auctionID)),
		slog.String("name", name),
		slog.Bool("is_master", isMaster))

	return p, nil
}

// ReattachConnection updates the stored current-connection pointer for a
// returning participant. Name and master status are untouched.
func (s *Service) ReattachConnection(ctx context.Context, userID model.UserID, connID model.ConnectionID) error {
	p, err := s.storage.GetParticipant(ctx, userID)
	if err != nil {
		return err
	}

	p.CurrentConnection = connID
	return s.storage.SaveParticipant(ctx, p)
}

// Remove deletes a participant record. Only an explicit exit calls this;
// disconnection alone keeps the record so the identity can reconnect.
func (s *Service) Remove(ctx context.Context, userID model.UserID) error {
	return s.storage.DeleteParticipant(ctx, userID)
}

// Roster returns the names of an auction's participants in registration
// order, excluding the master.
func (s *Service) Roster(ctx context.Context, auctionID model.AuctionID) ([]string, error) {
	participants, err := s.storage.ListParticipants(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.IsMaster {
			continue
		}
		names = append(names, p.Name)
	}
	return names, nil
}

// NameInUse reports whether a different user than the given one already
// holds the name within the auction
func (s *Service) NameInUse(ctx context.Context, auctionID model.AuctionID, name string, userID model.UserID) (bool, error) {
	existing, err := s.storage.FindParticipantByName(ctx, auctionID, name)
	if err != nil {
		if errors.Is(err, model.ErrParticipantNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing.UserID != userID, nil
}

// OthersRegistered reports whether any user other than the given one is
// registered for the auction. Feeds the master election rule.
func (s *Service) OthersRegistered(ctx context.Context, auctionID model.AuctionID, userID model.UserID) (bool, error) {
	participants, err := s.storage.ListParticipants(ctx, auctionID)
	if err != nil {
		return false, err
	}

	for _, p := range participants {
		if p.UserID != userID {
			return true, nil
		}
	}
	return false, nil
}
