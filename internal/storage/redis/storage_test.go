package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini    *miniredis.Miniredis
	storage *Storage
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
	cfg.GuestPlayerTTL = time.Hour
	cfg.SessionTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.Storage = s.storage
	s.Ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestGuestPlayerTTL() {
	guestPlayer := &model.Player{ID: "guest-1", IsGuest: true}
	registeredPlayer := &model.Player{ID: "registered-1", IsGuest: false}

	s.Require().NoError(s.storage.SavePlayer(s.Ctx, guestPlayer))
	s.Require().NoError(s.storage.SavePlayer(s.Ctx, registeredPlayer))

	guestTTL := s.mini.TTL(playerKey(guestPlayer.ID))
	registeredTTL := s.mini.TTL(playerKey(registeredPlayer.ID))

	s.True(guestTTL > 0, "Guest player should have TTL")
	s.Equal(time.Duration(0), registeredTTL, "Registered player should not have TTL")
}

func (s *StorageSuite) TestSessionTTL() {
	session := &model.Session{ID: "session-1", PlayerID: "player-1"}
	s.Require().NoError(s.storage.SaveSession(s.Ctx, session))

	s.True(s.mini.TTL(sessionKey(session.ID)) > 0, "Session should have TTL")
	s.True(s.mini.TTL(sessionsForPlayerIndexKey(session.PlayerID)) > 0, "Index should have TTL")
}

func (s *StorageSuite) TestListSessionsSkipsExpired() {
	s.Require().NoError(s.storage.SaveSession(s.Ctx, &model.Session{ID: "session-1", PlayerID: "player-1"}))
	s.Require().NoError(s.storage.SaveSession(s.Ctx, &model.Session{ID: "session-2", PlayerID: "player-1"}))

	s.mini.Del(sessionKey("session-1"))

	sessions, err := s.storage.ListSessionsForPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(model.SessionID("session-2"), sessions[0].ID)

	members, err := s.mini.Members(sessionsForPlayerIndexKey("player-1"))
	s.Require().NoError(err)
	s.Equal([]string{sessionKey("session-2")}, members)
}

func (s *StorageSuite) TestSessionsExpireTogether() {
	s.Require().NoError(s.storage.SaveSession(s.Ctx, &model.Session{ID: "session-1", PlayerID: "player-1"}))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(s.Ctx, "session-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.False(s.mini.Exists(sessionsForPlayerIndexKey("player-1")))
}

func (s *StorageSuite) TestRevokedTokenExpiresWithToken() {
	s.Require().NoError(s.storage.RevokeToken(s.Ctx, "token-1", time.Now().Add(time.Hour)))

	ttl := s.mini.TTL(revokedTokenKey("token-1"))
	s.True(ttl > 0 && ttl <= time.Hour, "revocation should expire with the token, got %s", ttl)

	s.mini.FastForward(2 * time.Hour)

	revoked, err := s.storage.IsTokenRevoked(s.Ctx, "token-1")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *StorageSuite) TestRevokeExpiredTokenIsNotStored() {
	s.Require().NoError(s.storage.RevokeToken(s.Ctx, "token-1", time.Now().Add(-time.Minute)))

	s.False(s.mini.Exists(revokedTokenKey("token-1")))
}
