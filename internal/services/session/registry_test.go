package session

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/auctionroom-go/internal/model"
	"github.com/mcoot/auctionroom-go/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = New(testutil.NopLogger())
}

func (s *RegistrySuite) TestBindAndResolve() {
	s.registry.Bind("conn-1", "user-1")

	userID, ok := s.registry.Resolve("conn-1")
	s.True(ok)
	s.Equal(model.UserID("user-1"), userID)
}

func (s *RegistrySuite) TestResolveUnknownConnection() {
	_, ok := s.registry.Resolve("conn-404")
	s.False(ok)
}

func (s *RegistrySuite) TestBindOverwritesPriorBinding() {
	s.registry.Bind("conn-1", "user-1")
	s.registry.Bind("conn-1", "user-2")

	userID, ok := s.registry.Resolve("conn-1")
	s.True(ok)
	s.Equal(model.UserID("user-2"), userID)
}

func (s *RegistrySuite) TestUnbind() {
	s.registry.Bind("conn-1", "user-1")
	s.registry.Unbind("conn-1")

	_, ok := s.registry.Resolve("conn-1")
	s.False(ok)
}

func (s *RegistrySuite) TestUnbindIsIdempotent() {
	s.registry.Unbind("conn-never-bound")
	s.registry.Bind("conn-1", "user-1")
	s.registry.Unbind("conn-1")
	s.registry.Unbind("conn-1")

	s.Equal(0, s.registry.Count())
}

func (s *RegistrySuite) TestReconnectOverlapLastWriterWins() {
	// Old and new connection briefly both bound to the same user
	s.registry.Bind("conn-old", "user-1")
	s.registry.Bind("conn-new", "user-1")

	// Old connection's unbind must not disturb the new binding
	s.registry.Unbind("conn-old")

	userID, ok := s.registry.Resolve("conn-new")
	s.True(ok)
	s.Equal(model.UserID("user-1"), userID)
}
