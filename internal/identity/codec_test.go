package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/auctionroom-go/internal/dependencies/mocks"
	"github.com/mcoot/auctionroom-go/internal/model"
)

type CodecSuite struct {
	suite.Suite
	clock *mocks.MockClock
	codec *Codec
}

func TestCodecSuite(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

func (s *CodecSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	cfg := DefaultConfig()
	cfg.Secret = []byte("test-secret")
	s.codec = New(cfg, s.clock)
}

func (s *CodecSuite) TestMintAndParseRoundTrip() {
	token, userID, err := s.codec.Mint()
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.NotEmpty(userID)

	parsed, err := s.codec.Parse(token)
	s.Require().NoError(err)
	s.Equal(userID, parsed)
}

func (s *CodecSuite) TestMintGeneratesDistinctIDs() {
	_, first, err := s.codec.Mint()
	s.Require().NoError(err)
	_, second, err := s.codec.Mint()
	s.Require().NoError(err)
	s.NotEqual(first, second)
}

func (s *CodecSuite) TestParseGarbageFails() {
	_, err := s.codec.Parse("not-a-token")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *CodecSuite) TestParseEmptyFails() {
	_, err := s.codec.Parse("")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *CodecSuite) TestParseExpiredFails() {
	token, _, err := s.codec.Mint()
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)

	_, err = s.codec.Parse(token)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *CodecSuite) TestParseWithinValidityWindowSucceeds() {
	token, userID, err := s.codec.Mint()
	s.Require().NoError(err)

	s.clock.Advance(23 * time.Hour)

	parsed, err := s.codec.Parse(token)
	s.Require().NoError(err)
	s.Equal(userID, parsed)
}

func (s *CodecSuite) TestParseWrongSecretFails() {
	token, _, err := s.codec.Mint()
	s.Require().NoError(err)

	otherCfg := DefaultConfig()
	otherCfg.Secret = []byte("different-secret")
	other := New(otherCfg, s.clock)

	_, err = other.Parse(token)
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *CodecSuite) TestMintForPreservesUserID() {
	token, err := s.codec.MintFor("user-123")
	s.Require().NoError(err)

	parsed, err := s.codec.Parse(token)
	s.Require().NoError(err)
	s.Equal(model.UserID("user-123"), parsed)
}
