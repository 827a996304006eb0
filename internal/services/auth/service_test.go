package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tictactoe/internal/dependencies/mocks"
	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/storage/memory"
	"github.com/mcoot/tictactoe/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = s.newService([]byte("test-secret"))
	s.ctx = context.Background()
}

func (s *ServiceSuite) newService(secret []byte) *Service {
	cfg := DefaultConfig()
	cfg.Secret = secret
	cfg.BcryptCost = bcrypt.MinCost
	service, err := New(s.storage, s.clock, s.random, cfg, testutil.NopLogger())
	s.Require().NoError(err)
	return service
}

// CreateGuestPlayer tests

func (s *ServiceSuite) TestCreateGuestPlayerSucceeds() {
	session, err := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("Alice", session.Player.DisplayName)
	s.True(session.Player.IsGuest)
	s.False(session.Authenticated())
	s.NotEmpty(session.PlayerID)
}

func (s *ServiceSuite) TestCreateGuestPlayerUsesGeneratedID() {
	s.random.QueueUUID("player-1")

	session, err := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(err)

	s.Equal("player-1", string(session.PlayerID))
}

func (s *ServiceSuite) TestCreateGuestPlayerPersistsPlayer() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	player, err := s.storage.GetPlayer(s.ctx, session.PlayerID)
	s.Require().NoError(err)
	s.Equal("Alice", player.DisplayName)
}

func (s *ServiceSuite) TestCreateGuestPlayerSessionIsValid() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	validated, err := s.service.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.PlayerID, validated.PlayerID)
	s.Equal(session.ExpiresAt, validated.ExpiresAt)
	s.Equal(session.CreatedAt, validated.CreatedAt)
	s.Equal(time.UTC, validated.ExpiresAt.Location())
}

// RegisterPlayer tests

func (s *ServiceSuite) TestRegisterPlayerSucceeds() {
	session, err := s.service.RegisterPlayer(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal("Alice", session.Player.DisplayName)
	s.False(session.Player.IsGuest)
	s.True(session.Authenticated())
}

func (s *ServiceSuite) TestRegisterPlayerDefaultsDisplayNameToUsername() {
	session, err := s.service.RegisterPlayer(s.ctx, "alice", "password123", "")
	s.Require().NoError(err)

	s.Equal("alice", session.Player.DisplayName)
}

func (s *ServiceSuite) TestRegisterPlayerPersistsRegistration() {
	_, _ = s.service.RegisterPlayer(s.ctx, "alice", "password123", "Alice")

	rp, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", rp.Username)
	s.NotEmpty(rp.PasswordHash)
	s.NotEqual("password123", rp.PasswordHash) // Should be hashed
}

func (s *ServiceSuite) TestRegisterPlayerFailsIfUsernameExists() {
	_, _ = s.service.RegisterPlayer(s.ctx, "alice", "password123", "Alice")

	_, err := s.service.RegisterPlayer(s.ctx, "alice", "different", "Alice2")
	s.ErrorIs(err, ErrUsernameExists)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	registered, _ := s.service.RegisterPlayer(s.ctx, "alice", "password123", "Alice")

	session, err := s.service.Login(s.ctx, "alice", "password123")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.NotEqual(registered.Token, session.Token)
	s.Equal(registered.PlayerID, session.PlayerID)
	s.Equal("Alice", session.Player.DisplayName)
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	_, _ = s.service.RegisterPlayer(s.ctx, "alice", "password123", "Alice")

	_, err := s.service.Login(s.ctx, "alice", "wrongpassword")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithUnknownUser() {
	_, err := s.service.Login(s.ctx, "nobody", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// ValidateSession tests

func (s *ServiceSuite) TestValidateSessionSucceeds() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	validated, err := s.service.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.Token, validated.Token)
	s.Equal("Alice", validated.Player.DisplayName)
}

func (s *ServiceSuite) TestValidateSessionFailsWithInvalidToken() {
	_, err := s.service.ValidateSession(s.ctx, "invalid_token")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionFailsWithTamperedToken() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	tampered := session.Token[:len(session.Token)-2] + "xx"

	_, err := s.service.ValidateSession(s.ctx, tampered)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionFailsWithForeignSecret() {
	other := s.newService([]byte("another-secret"))
	session, _ := other.CreateGuestPlayer(s.ctx, "Alice")

	_, err := s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionFailsWhenExpired() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	// Advance time past expiration
	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionFailsWhenPlayerDeleted() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(s.storage.DeletePlayer(s.ctx, session.PlayerID))

	_, err := s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionReflectsCurrentPlayer() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	player, _ := s.storage.GetPlayer(s.ctx, session.PlayerID)
	player.DisplayName = "Alicia"
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	validated, err := s.service.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal("Alicia", validated.Player.DisplayName)
}

// InvalidateSession tests

func (s *ServiceSuite) TestInvalidateSessionRevokesToken() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	s.Require().NoError(s.service.InvalidateSession(s.ctx, session.Token))

	_, err := s.service.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSessionLeavesOtherTokensValid() {
	registered, _ := s.service.RegisterPlayer(s.ctx, "alice", "password123", "Alice")
	second, _ := s.service.Login(s.ctx, "alice", "password123")

	s.Require().NoError(s.service.InvalidateSession(s.ctx, registered.Token))

	_, err := s.service.ValidateSession(s.ctx, second.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestInvalidateSessionNoopForUnknownToken() {
	s.NoError(s.service.InvalidateSession(s.ctx, "unknown_token"))
}

// GetPlayer tests

func (s *ServiceSuite) TestGetPlayerSucceeds() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")

	player, err := s.service.GetPlayer(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal("Alice", player.DisplayName)
}

func (s *ServiceSuite) TestGetPlayerFailsWithInvalidToken() {
	_, err := s.service.GetPlayer(s.ctx, "invalid_token")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSessionSurvivesRestart() {
	session, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(s.service.InvalidateSession(s.ctx, session.Token))

	restarted := s.newService([]byte("test-secret"))

	_, err := restarted.ValidateSession(s.ctx, session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

// CleanRevokedTokens tests

func (s *ServiceSuite) TestCleanRevokedTokensForgetsExpired() {
	session1, _ := s.service.CreateGuestPlayer(s.ctx, "Alice")
	s.Require().NoError(s.service.InvalidateSession(s.ctx, session1.Token))

	// Advance time so session1 expires
	s.clock.Advance(25 * time.Hour)

	session2, _ := s.service.CreateGuestPlayer(s.ctx, "Bob")
	s.Require().NoError(s.service.InvalidateSession(s.ctx, session2.Token))

	s.Require().NoError(s.service.CleanRevokedTokens(s.ctx))

	claims1, err := parseUnverified(session1.Token)
	s.Require().NoError(err)
	revoked, err := s.storage.IsTokenRevoked(s.ctx, claims1.ID)
	s.Require().NoError(err)
	s.False(revoked)

	// session2 is still revoked
	_, err = s.service.ValidateSession(s.ctx, session2.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

// RegisterPlayer race

// staleUsernameStorage misses every username lookup, as a concurrent
// registration would between the check and the save
type staleUsernameStorage struct {
	*memory.Storage
}

func (st staleUsernameStorage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	return nil, model.ErrPlayerNotFound
}

func (s *ServiceSuite) TestRegisterPlayerLosingUsernameRaceCleansUp() {
	cfg := DefaultConfig()
	cfg.Secret = []byte("test-secret")
	cfg.BcryptCost = bcrypt.MinCost
	service, err := New(staleUsernameStorage{s.storage}, s.clock, s.random, cfg, testutil.NopLogger())
	s.Require().NoError(err)

	s.random.QueueUUID("player-1", "token-1", "player-2")

	_, err = service.RegisterPlayer(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	_, err = service.RegisterPlayer(s.ctx, "alice", "password456", "Alice2")
	s.ErrorIs(err, ErrUsernameExists)

	_, err = s.storage.GetPlayer(s.ctx, "player-2")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	rp, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), rp.PlayerID)
}

func parseUnverified(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	return claims, err
}
