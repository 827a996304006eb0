package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/auth"
	"github.com/mcoot/tictactoe/internal/services/game"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp(game.DefaultConfig())
	s.ctx = context.Background()
}

func (s *IntegrationSuite) guest(name string) *auth.Session {
	session, err := s.app.AuthService.CreateGuestPlayer(s.ctx, name)
	s.Require().NoError(err)
	return session
}

// playWinningRound scripts an easy round the human wins along the top row
func (s *IntegrationSuite) playWinningRound(id model.SessionID, playerID model.PlayerID) *game.MoveOutcome {
	s.app.MockRandom.QueueIntn(2, 1)

	_, err := s.app.GameController.PlayMove(s.ctx, id, playerID, 0)
	s.Require().NoError(err)
	_, err = s.app.GameController.PlayMove(s.ctx, id, playerID, 1)
	s.Require().NoError(err)
	outcome, err := s.app.GameController.PlayMove(s.ctx, id, playerID, 2)
	s.Require().NoError(err)
	return outcome
}

// Test: guest signs in, plays three easy rounds and earns the streak bonus
func (s *IntegrationSuite) TestCompleteSessionFlow() {
	login := s.guest("Alice")
	player := &login.Player

	session, err := s.app.GameController.CreateSession(s.ctx, player, game.CreateOptions{
		Difficulty: model.DifficultyEasy,
	})
	s.Require().NoError(err)
	s.Equal(model.SessionStateNotStarted, session.State)

	session, err = s.app.GameController.Start(s.ctx, session.ID, player, "")
	s.Require().NoError(err)
	s.Equal(model.SessionStateInProgress, session.State)

	for round := 1; round <= 3; round++ {
		outcome := s.playWinningRound(session.ID, player.ID)
		s.Equal(model.Win(model.X), outcome.Result)
		s.Nil(outcome.ComputerMove)
		s.Equal(model.SessionStateWon, outcome.Session.State)

		if round < 3 {
			_, err = s.app.GameController.Continue(s.ctx, session.ID, player)
			s.Require().NoError(err)
		}
	}

	stored, err := s.app.Storage.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(4, stored.Score.Points)
	s.Equal(0, stored.Score.ConsecutiveWins)
	s.Equal(3, stored.Score.Wins)
	s.Equal(3, stored.Score.Rounds)

	// Restart clears score and board
	restarted, err := s.app.GameController.Restart(s.ctx, session.ID, player.ID)
	s.Require().NoError(err)
	s.Equal(model.SessionStateNotStarted, restarted.State)
	s.Equal(model.Score{}, restarted.Score)
	s.Equal(model.Board{}, restarted.Board)
}

// Test: the token issued at sign-in resolves to the player who owns the session
func (s *IntegrationSuite) TestTokenIdentifiesSessionOwner() {
	alice := s.guest("Alice")
	bob := s.guest("Bob")

	session, err := s.app.GameController.CreateSession(s.ctx, &alice.Player, game.CreateOptions{})
	s.Require().NoError(err)

	validated, err := s.app.AuthService.ValidateSession(s.ctx, bob.Token)
	s.Require().NoError(err)

	_, err = s.app.GameController.GetSession(s.ctx, session.ID, validated.PlayerID)
	s.ErrorIs(err, model.ErrNotSessionOwner)
}

// Test: with login required, guests can create but not start sessions
func (s *IntegrationSuite) TestLoginGate() {
	s.app = NewTestApp(game.Config{RequireLogin: true})

	guest := s.guest("Guest")
	session, err := s.app.GameController.CreateSession(s.ctx, &guest.Player, game.CreateOptions{})
	s.Require().NoError(err)

	_, err = s.app.GameController.Start(s.ctx, session.ID, &guest.Player, "")
	s.ErrorIs(err, model.ErrLoginRequired)

	registered, err := s.app.AuthService.RegisterPlayer(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	session, err = s.app.GameController.CreateSession(s.ctx, &registered.Player, game.CreateOptions{})
	s.Require().NoError(err)
	session, err = s.app.GameController.Start(s.ctx, session.ID, &registered.Player, model.DifficultyHard)
	s.Require().NoError(err)
	s.Equal(model.DifficultyHard, session.Difficulty)
}

// Test: a human playing O faces an opening move from the computer
func (s *IntegrationSuite) TestComputerOpensWhenHumanIsO() {
	login := s.guest("Alice")

	session, err := s.app.GameController.CreateSession(s.ctx, &login.Player, game.CreateOptions{
		Difficulty: model.DifficultyHard,
		HumanMark:  model.O,
	})
	s.Require().NoError(err)

	session, err = s.app.GameController.Start(s.ctx, session.ID, &login.Player, "")
	s.Require().NoError(err)

	s.Equal(model.X, session.Board[0])
	s.Equal(1, session.Board.MovesPlayed())

	next, err := game.NextMover(session)
	s.Require().NoError(err)
	s.Equal(model.O, next)
}
