// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/storage"
)

// Suite runs against a fresh backend for every test.
// Backend packages embed it and set Storage in their SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newSession(id model.SessionID, playerID model.PlayerID, created time.Time) *model.Session {
	return &model.Session{
		ID:         id,
		PlayerID:   playerID,
		State:      model.SessionStateNotStarted,
		Difficulty: model.DifficultyMedium,
		HumanMark:  model.X,
		FirstMover: model.X,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "player-1",
		DisplayName: "Alice",
		IsGuest:     true,
		CreatedAt:   baseTime,
	}

	err := s.Storage.SavePlayer(s.Ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.DisplayName, retrieved.DisplayName)
	s.True(retrieved.IsGuest)
	s.True(player.CreatedAt.Equal(retrieved.CreatedAt))
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestDeletePlayer() {
	player := &model.Player{ID: "player-1", DisplayName: "Alice", CreatedAt: baseTime}
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player))

	err := s.Storage.DeletePlayer(s.Ctx, "player-1")
	s.Require().NoError(err)

	_, err = s.Storage.GetPlayer(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestSavePlayerOverwrites() {
	player := &model.Player{ID: "player-1", DisplayName: "Alice", IsGuest: true, CreatedAt: baseTime}
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, player))

	updated := &model.Player{ID: "player-1", DisplayName: "Alicia", IsGuest: false, CreatedAt: baseTime}
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, updated))

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("Alicia", retrieved.DisplayName)
	s.False(retrieved.IsGuest)
}

// Registered player tests

func (s *Suite) TestSaveAndGetRegisteredPlayer() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}

	err := s.Storage.SaveRegisteredPlayer(s.Ctx, rp)
	s.Require().NoError(err)

	retrieved, err := s.Storage.GetRegisteredPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(rp.Username, retrieved.Username)
	s.Equal(rp.PasswordHash, retrieved.PasswordHash)
}

func (s *Suite) TestGetRegisteredPlayerNotFound() {
	_, err := s.Storage.GetRegisteredPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestGetRegisteredPlayerByUsername() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	s.Require().NoError(s.Storage.SaveRegisteredPlayer(s.Ctx, rp))

	retrieved, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.PlayerID)
}

func (s *Suite) TestGetRegisteredPlayerByUsernameNotFound() {
	_, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestSaveRegisteredPlayerRejectsTakenUsername() {
	first := &model.RegisteredPlayer{PlayerID: "player-1", Username: "alice", PasswordHash: "a", CreatedAt: baseTime, UpdatedAt: baseTime}
	s.Require().NoError(s.Storage.SaveRegisteredPlayer(s.Ctx, first))

	second := &model.RegisteredPlayer{PlayerID: "player-2", Username: "alice", PasswordHash: "b", CreatedAt: baseTime, UpdatedAt: baseTime}
	err := s.Storage.SaveRegisteredPlayer(s.Ctx, second)
	s.ErrorIs(err, model.ErrUsernameTaken)

	retrieved, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.PlayerID)
	s.Equal("a", retrieved.PasswordHash)
}

func (s *Suite) TestSaveRegisteredPlayerUpdatesOwnRecord() {
	rp := &model.RegisteredPlayer{PlayerID: "player-1", Username: "alice", PasswordHash: "a", CreatedAt: baseTime, UpdatedAt: baseTime}
	s.Require().NoError(s.Storage.SaveRegisteredPlayer(s.Ctx, rp))

	rp.PasswordHash = "b"
	s.Require().NoError(s.Storage.SaveRegisteredPlayer(s.Ctx, rp))

	retrieved, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("b", retrieved.PasswordHash)
}

// Session tests

func (s *Suite) TestSaveAndGetSession() {
	session := newSession("session-1", "player-1", baseTime)
	session.State = model.SessionStateInProgress
	session.Difficulty = model.DifficultyHard
	session.Board[0] = model.X
	session.Board[4] = model.O
	session.Score = model.Score{Points: 4, ConsecutiveWins: 1, Wins: 4, Losses: 1, Draws: 2, Rounds: 7}

	err := s.Storage.SaveSession(s.Ctx, session)
	s.Require().NoError(err)

	retrieved, err := s.Storage.GetSession(s.Ctx, "session-1")
	s.Require().NoError(err)
	s.Equal(session.ID, retrieved.ID)
	s.Equal(session.PlayerID, retrieved.PlayerID)
	s.Equal(session.State, retrieved.State)
	s.Equal(session.Difficulty, retrieved.Difficulty)
	s.Equal(session.HumanMark, retrieved.HumanMark)
	s.Equal(session.FirstMover, retrieved.FirstMover)
	s.Equal(session.Board, retrieved.Board)
	s.Equal(session.Score, retrieved.Score)
	s.True(session.CreatedAt.Equal(retrieved.CreatedAt))
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Storage.GetSession(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestSaveSessionOverwrites() {
	session := newSession("session-1", "player-1", baseTime)
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	session.State = model.SessionStateWon
	session.Board[2] = model.O
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	retrieved, err := s.Storage.GetSession(s.Ctx, "session-1")
	s.Require().NoError(err)
	s.Equal(model.SessionStateWon, retrieved.State)
	s.Equal(model.O, retrieved.Board[2])
}

func (s *Suite) TestRetrievedSessionIsIndependentCopy() {
	session := newSession("session-1", "player-1", baseTime)
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	retrieved, err := s.Storage.GetSession(s.Ctx, "session-1")
	s.Require().NoError(err)
	retrieved.Board[0] = model.X
	session.Board[1] = model.O

	again, err := s.Storage.GetSession(s.Ctx, "session-1")
	s.Require().NoError(err)
	s.Equal(model.Board{}, again.Board)
}

func (s *Suite) TestDeleteSession() {
	session := newSession("session-1", "player-1", baseTime)
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	err := s.Storage.DeleteSession(s.Ctx, "session-1")
	s.Require().NoError(err)

	_, err = s.Storage.GetSession(s.Ctx, "session-1")
	s.ErrorIs(err, model.ErrSessionNotFound)

	sessions, err := s.Storage.ListSessionsForPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Empty(sessions)
}

func (s *Suite) TestDeleteMissingSessionSucceeds() {
	s.NoError(s.Storage.DeleteSession(s.Ctx, "nonexistent"))
}

func (s *Suite) TestListSessionsForPlayer() {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, newSession("session-b", "player-1", baseTime.Add(time.Minute))))
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, newSession("session-a", "player-1", baseTime)))
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, newSession("session-c", "player-2", baseTime)))

	sessions, err := s.Storage.ListSessionsForPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.Equal(model.SessionID("session-a"), sessions[0].ID)
	s.Equal(model.SessionID("session-b"), sessions[1].ID)
}

func (s *Suite) TestListSessionsForPlayerEmpty() {
	sessions, err := s.Storage.ListSessionsForPlayer(s.Ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(sessions)
}

// Revoked token tests

func (s *Suite) TestRevokeToken() {
	revoked, err := s.Storage.IsTokenRevoked(s.Ctx, "token-1")
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.Storage.RevokeToken(s.Ctx, "token-1", time.Now().Add(time.Hour)))

	revoked, err = s.Storage.IsTokenRevoked(s.Ctx, "token-1")
	s.Require().NoError(err)
	s.True(revoked)

	revoked, err = s.Storage.IsTokenRevoked(s.Ctx, "token-2")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *Suite) TestRevokeTokenTwice() {
	expiresAt := time.Now().Add(time.Hour)
	s.Require().NoError(s.Storage.RevokeToken(s.Ctx, "token-1", expiresAt))
	s.Require().NoError(s.Storage.RevokeToken(s.Ctx, "token-1", expiresAt))

	revoked, err := s.Storage.IsTokenRevoked(s.Ctx, "token-1")
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *Suite) TestPurgeRevokedTokensKeepsUnexpired() {
	s.Require().NoError(s.Storage.RevokeToken(s.Ctx, "token-1", time.Now().Add(time.Hour)))

	_, err := s.Storage.PurgeRevokedTokens(s.Ctx, time.Now())
	s.Require().NoError(err)

	revoked, err := s.Storage.IsTokenRevoked(s.Ctx, "token-1")
	s.Require().NoError(err)
	s.True(revoked)
}
