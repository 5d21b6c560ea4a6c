package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/auctionroom-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.ParticipantTTL = time.Hour
	cfg.AuctionTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) participant(id, name, auctionID string, master bool, joined time.Time) *model.Participant {
	return &model.Participant{
		UserID:    model.UserID(id),
		Name:      name,
		AuctionID: model.AuctionID(auctionID),
		IsMaster:  master,
		JoinedAt:  joined,
	}
}

// Participant tests

func (s *StorageSuite) TestSaveAndGetParticipant() {
	p := s.participant("u1", "Alice", "room-1", true, time.Now())
	s.Require().NoError(s.storage.SaveParticipant(s.ctx, p))

	got, err := s.storage.GetParticipant(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("Alice", got.Name)
	s.Equal(model.AuctionID("room-1"), got.AuctionID)
	s.True(got.IsMaster)
}

func (s *StorageSuite) TestGetParticipantNotFound() {
	_, err := s.storage.GetParticipant(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

func (s *StorageSuite) TestListParticipantsKeepsRegistrationOrder() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u1", "Alice", "room-1", true, base))
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u2", "Bob", "room-1", false, base.Add(time.Second)))
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u3", "Carol", "room-1", false, base.Add(2*time.Second)))

	list, err := s.storage.ListParticipants(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("Alice", list[0].Name)
	s.Equal("Bob", list[1].Name)
	s.Equal("Carol", list[2].Name)
}

func (s *StorageSuite) TestUpdateParticipantKeepsOrderSlot() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u1", "Alice", "room-1", true, base))
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u2", "Bob", "room-1", false, base.Add(time.Second)))

	// Reattach updates the stored connection but must not reorder
	updated := s.participant("u1", "Alice", "room-1", true, base.Add(time.Minute))
	updated.CurrentConnection = "conn-9"
	s.Require().NoError(s.storage.SaveParticipant(s.ctx, updated))

	list, _ := s.storage.ListParticipants(s.ctx, "room-1")
	s.Require().Len(list, 2)
	s.Equal(model.UserID("u1"), list[0].UserID)
	s.Equal(model.ConnectionID("conn-9"), list[0].CurrentConnection)
}

func (s *StorageSuite) TestSaveParticipantMovesBetweenAuctions() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u1", "Alice", "room-a", true, base))
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u2", "Bob", "room-a", false, base.Add(time.Second)))

	moved := s.participant("u2", "Bob", "room-b", true, base.Add(2*time.Second))
	s.Require().NoError(s.storage.SaveParticipant(s.ctx, moved))

	oldList, err := s.storage.ListParticipants(s.ctx, "room-a")
	s.Require().NoError(err)
	s.Require().Len(oldList, 1)
	s.Equal("Alice", oldList[0].Name)

	newList, err := s.storage.ListParticipants(s.ctx, "room-b")
	s.Require().NoError(err)
	s.Require().Len(newList, 1)
	s.Equal(model.UserID("u2"), newList[0].UserID)
	s.Equal(model.AuctionID("room-b"), newList[0].AuctionID)

	_, err = s.storage.FindParticipantByName(s.ctx, "room-a", "Bob")
	s.ErrorIs(err, model.ErrParticipantNotFound)

	got, err := s.storage.FindParticipantByName(s.ctx, "room-b", "Bob")
	s.Require().NoError(err)
	s.Equal(model.UserID("u2"), got.UserID)
}

func (s *StorageSuite) TestSaveParticipantMoveJoinsNewAuctionAtBack() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u1", "Alice", "room-b", true, base))
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u2", "Bob", "room-a", true, base.Add(time.Second)))

	s.Require().NoError(s.storage.SaveParticipant(s.ctx, s.participant("u2", "Bob", "room-b", false, base.Add(2*time.Second))))

	list, err := s.storage.ListParticipants(s.ctx, "room-b")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Alice", list[0].Name)
	s.Equal("Bob", list[1].Name)
}

func (s *StorageSuite) TestDeleteParticipant() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u1", "Alice", "room-1", true, base))
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u2", "Bob", "room-1", false, base.Add(time.Second)))

	s.Require().NoError(s.storage.DeleteParticipant(s.ctx, "u1"))

	_, err := s.storage.GetParticipant(s.ctx, "u1")
	s.ErrorIs(err, model.ErrParticipantNotFound)

	list, _ := s.storage.ListParticipants(s.ctx, "room-1")
	s.Require().Len(list, 1)
	s.Equal("Bob", list[0].Name)

	_, err = s.storage.FindParticipantByName(s.ctx, "room-1", "Alice")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

func (s *StorageSuite) TestDeleteParticipantIsIdempotent() {
	s.Require().NoError(s.storage.DeleteParticipant(s.ctx, "nobody"))
}

func (s *StorageSuite) TestFindParticipantByName() {
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u1", "Alice", "room-1", true, time.Now()))

	got, err := s.storage.FindParticipantByName(s.ctx, "room-1", "Alice")
	s.Require().NoError(err)
	s.Equal(model.UserID("u1"), got.UserID)

	_, err = s.storage.FindParticipantByName(s.ctx, "room-2", "Alice")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

func (s *StorageSuite) TestParticipantExpiry() {
	_ = s.storage.SaveParticipant(s.ctx, s.participant("u1", "Alice", "room-1", true, time.Now()))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetParticipant(s.ctx, "u1")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

// Auction tests

func (s *StorageSuite) TestSaveAndGetAuction() {
	auction := &model.Auction{
		ID:       "room-1",
		Status:   model.StatusRunning,
		MasterID: "u1",
		Invader:  "Bob",
	}
	s.Require().NoError(s.storage.SaveAuction(s.ctx, auction))

	got, err := s.storage.GetAuction(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(model.StatusRunning, got.Status)
	s.Equal(model.UserID("u1"), got.MasterID)
	s.Equal("Bob", got.Invader)
}

func (s *StorageSuite) TestGetAuctionNotFound() {
	_, err := s.storage.GetAuction(s.ctx, "nowhere")
	s.ErrorIs(err, model.ErrAuctionNotFound)
}

func (s *StorageSuite) TestAuctionExists() {
	exists, err := s.storage.AuctionExists(s.ctx, "room-1")
	s.Require().NoError(err)
	s.False(exists)

	_ = s.storage.SaveAuction(s.ctx, &model.Auction{ID: "room-1", Status: model.StatusPending})

	exists, err = s.storage.AuctionExists(s.ctx, "room-1")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestDeleteAuction() {
	_ = s.storage.SaveAuction(s.ctx, &model.Auction{ID: "room-1", Status: model.StatusPending})
	s.Require().NoError(s.storage.DeleteAuction(s.ctx, "room-1"))

	_, err := s.storage.GetAuction(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrAuctionNotFound)
}
