package auction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/auctionroom-go/internal/dependencies/mocks"
	"github.com/mcoot/auctionroom-go/internal/model"
	"github.com/mcoot/auctionroom-go/internal/storage/memory"
	"github.com/mcoot/auctionroom-go/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	storage  *memory.Storage
	clock    *mocks.MockClock
	registry *Registry
	ctx      context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.registry = New(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *RegistrySuite) TestGetOrCreateCreatesPendingWithMaster() {
	auction, created, err := s.registry.GetOrCreate(s.ctx, "room-1", "u1")
	s.Require().NoError(err)

	s.True(created)
	s.Equal(model.StatusPending, auction.Status)
	s.Equal(model.UserID("u1"), auction.MasterID)
	s.False(auction.HasInvader())
}

func (s *RegistrySuite) TestGetOrCreateReturnsExistingUnchanged() {
	_, _, err := s.registry.GetOrCreate(s.ctx, "room-1", "u1")
	s.Require().NoError(err)
	s.Require().NoError(s.registry.SetStatus(s.ctx, "room-1", model.StatusRunning))

	// A later candidate never displaces the recorded master or resets state
	auction, created, err := s.registry.GetOrCreate(s.ctx, "room-1", "u2")
	s.Require().NoError(err)

	s.False(created)
	s.Equal(model.UserID("u1"), auction.MasterID)
	s.Equal(model.StatusRunning, auction.Status)
}

func (s *RegistrySuite) TestSetMasterReassignsRecord() {
	_, _, err := s.registry.GetOrCreate(s.ctx, "room-1", "u1")
	s.Require().NoError(err)

	s.Require().NoError(s.registry.SetMaster(s.ctx, "room-1", "u2"))

	auction, err := s.registry.Get(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.UserID("u2"), auction.MasterID)
	s.Equal(model.StatusPending, auction.Status)
}

func (s *RegistrySuite) TestSetMasterUnknownAuctionFails() {
	err := s.registry.SetMaster(s.ctx, "nowhere", "u1")
	s.ErrorIs(err, model.ErrAuctionNotFound)
}

func (s *RegistrySuite) TestSetStatus() {
	_, _, _ = s.registry.GetOrCreate(s.ctx, "room-1", "u1")

	s.Require().NoError(s.registry.SetStatus(s.ctx, "room-1", model.StatusRunning))
	auction, _ := s.registry.Get(s.ctx, "room-1")
	s.Equal(model.StatusRunning, auction.Status)

	s.Require().NoError(s.registry.SetStatus(s.ctx, "room-1", model.StatusPending))
	auction, _ = s.registry.Get(s.ctx, "room-1")
	s.Equal(model.StatusPending, auction.Status)
}

func (s *RegistrySuite) TestSetStatusUnknownAuctionFails() {
	err := s.registry.SetStatus(s.ctx, "nowhere", model.StatusRunning)
	s.ErrorIs(err, model.ErrAuctionNotFound)
}

func (s *RegistrySuite) TestSetAndClearInvader() {
	_, _, _ = s.registry.GetOrCreate(s.ctx, "room-1", "u1")

	s.Require().NoError(s.registry.SetInvader(s.ctx, "room-1", "Bob"))
	auction, _ := s.registry.Get(s.ctx, "room-1")
	s.True(auction.HasInvader())
	s.Equal("Bob", auction.Invader)

	s.Require().NoError(s.registry.ClearInvader(s.ctx, "room-1"))
	auction, _ = s.registry.Get(s.ctx, "room-1")
	s.False(auction.HasInvader())
}

func (s *RegistrySuite) TestGetUnknownAuctionFails() {
	_, err := s.registry.Get(s.ctx, "nowhere")
	s.ErrorIs(err, model.ErrAuctionNotFound)
}
