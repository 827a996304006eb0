package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe/internal/dependencies/mocks"
	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/scoring"
	"github.com/mcoot/tictactoe/internal/services/search"
	"github.com/mcoot/tictactoe/internal/storage/memory"
	"github.com/mcoot/tictactoe/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	guest      *model.Player
	registered *model.Player
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = s.newController(DefaultConfig())
	s.guest = &model.Player{ID: "player-1", DisplayName: "Alice", IsGuest: true}
	s.registered = &model.Player{ID: "player-2", DisplayName: "Bob", IsGuest: false}
	s.ctx = context.Background()
}

func (s *ControllerSuite) newController(cfg Config) *Controller {
	searchService := search.NewService(
		search.DefaultStrategies(search.DefaultConfig(), s.random),
		testutil.NopLogger(),
	)
	return NewController(
		s.storage,
		searchService,
		scoring.New(scoring.DefaultConfig()),
		s.clock,
		s.random,
		cfg,
		testutil.NopLogger(),
	)
}

// startSession creates and starts a session for the guest
func (s *ControllerSuite) startSession(difficulty model.Difficulty) *model.Session {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{Difficulty: difficulty})
	s.Require().NoError(err)
	session, err = s.controller.Start(s.ctx, session.ID, s.guest, "")
	s.Require().NoError(err)
	return session
}

// play applies a sequence of human moves and returns the last outcome
func (s *ControllerSuite) play(id model.SessionID, moves ...int) *MoveOutcome {
	var outcome *MoveOutcome
	for _, move := range moves {
		var err error
		outcome, err = s.controller.PlayMove(s.ctx, id, s.guest.ID, move)
		s.Require().NoError(err)
	}
	return outcome
}

// winRound wins an easy round along the top row.
// The computer replies 3 then 4.
func (s *ControllerSuite) winRound(id model.SessionID) *MoveOutcome {
	s.random.QueueIntn(2, 1)
	return s.play(id, 0, 1, 2)
}

// CreateSession tests

func (s *ControllerSuite) TestCreateSessionDefaults() {
	s.random.QueueUUID("session-1")

	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)

	s.Equal(model.SessionID("session-1"), session.ID)
	s.Equal(s.guest.ID, session.PlayerID)
	s.Equal(model.SessionStateNotStarted, session.State)
	s.Equal(model.DifficultyMedium, session.Difficulty)
	s.Equal(model.X, session.HumanMark)
	s.Equal(model.O, session.ComputerMark())
	s.Equal(model.X, session.FirstMover)
	s.Equal(model.Board{}, session.Board)
	s.Equal(model.Score{}, session.Score)
	s.Equal(s.clock.Now(), session.CreatedAt)
}

func (s *ControllerSuite) TestCreateSessionIsPersisted() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)

	retrieved, err := s.controller.GetSession(s.ctx, session.ID, s.guest.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, retrieved.ID)
}

func (s *ControllerSuite) TestCreateSessionWithOptions() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{
		Difficulty: model.DifficultyHard,
		HumanMark:  model.O,
	})
	s.Require().NoError(err)

	s.Equal(model.DifficultyHard, session.Difficulty)
	s.Equal(model.O, session.HumanMark)
	s.True(session.ComputerMovesFirst())
}

func (s *ControllerSuite) TestCreateSessionInvalidOptions() {
	_, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{Difficulty: "impossible"})
	s.ErrorIs(err, model.ErrInvalidDifficulty)

	_, err = s.controller.CreateSession(s.ctx, s.guest, CreateOptions{HumanMark: "Z"})
	s.ErrorIs(err, model.ErrInvalidMark)
}

// Start tests

func (s *ControllerSuite) TestStartBeginsRound() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)

	started, err := s.controller.Start(s.ctx, session.ID, s.guest, model.DifficultyHard)
	s.Require().NoError(err)

	s.Equal(model.SessionStateInProgress, started.State)
	s.Equal(model.DifficultyHard, started.Difficulty)
	s.Equal(model.Board{}, started.Board)
	s.Equal(model.InProgress(), Result(started))
}

func (s *ControllerSuite) TestStartComputerOpensWhenItMovesFirst() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{
		Difficulty: model.DifficultyHard,
		HumanMark:  model.O,
	})
	s.Require().NoError(err)

	started, err := s.controller.Start(s.ctx, session.ID, s.guest, "")
	s.Require().NoError(err)

	s.Equal(model.X, started.Board[0])
	s.Equal(1, started.Board.MovesPlayed())

	mover, err := NextMover(started)
	s.Require().NoError(err)
	s.Equal(model.O, mover)
}

func (s *ControllerSuite) TestStartTwiceFails() {
	session := s.startSession(model.DifficultyEasy)

	_, err := s.controller.Start(s.ctx, session.ID, s.guest, "")
	s.ErrorIs(err, model.ErrRoundInProgress)
}

func (s *ControllerSuite) TestStartAfterRoundOverFails() {
	session := s.startSession(model.DifficultyEasy)
	s.winRound(session.ID)

	_, err := s.controller.Start(s.ctx, session.ID, s.guest, "")
	s.ErrorIs(err, model.ErrRoundOver)
}

func (s *ControllerSuite) TestStartInvalidDifficulty() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)

	_, err = s.controller.Start(s.ctx, session.ID, s.guest, "impossible")
	s.ErrorIs(err, model.ErrInvalidDifficulty)
}

func (s *ControllerSuite) TestStartByOtherPlayerFails() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)

	_, err = s.controller.Start(s.ctx, session.ID, s.registered, "")
	s.ErrorIs(err, model.ErrNotSessionOwner)
}

func (s *ControllerSuite) TestStartRequiresLoginWhenConfigured() {
	cfg := DefaultConfig()
	cfg.RequireLogin = true
	s.controller = s.newController(cfg)

	guestSession, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)
	_, err = s.controller.Start(s.ctx, guestSession.ID, s.guest, "")
	s.ErrorIs(err, model.ErrLoginRequired)

	registeredSession, err := s.controller.CreateSession(s.ctx, s.registered, CreateOptions{})
	s.Require().NoError(err)
	started, err := s.controller.Start(s.ctx, registeredSession.ID, s.registered, "")
	s.Require().NoError(err)
	s.Equal(model.SessionStateInProgress, started.State)
}

// PlayMove tests

func (s *ControllerSuite) TestPlayMoveComputerReplies() {
	session := s.startSession(model.DifficultyHard)

	outcome := s.play(session.ID, 4)

	s.Equal(4, outcome.HumanMove)
	s.Require().NotNil(outcome.ComputerMove)
	s.Equal(0, *outcome.ComputerMove)
	s.Equal(model.X, outcome.Session.Board[4])
	s.Equal(model.O, outcome.Session.Board[0])
	s.Equal(model.InProgress(), outcome.Result)
	s.Equal(model.SessionStateInProgress, outcome.Session.State)
}

func (s *ControllerSuite) TestPlayMoveIsPersisted() {
	session := s.startSession(model.DifficultyHard)
	s.play(session.ID, 4)

	retrieved, err := s.controller.GetSession(s.ctx, session.ID, s.guest.ID)
	s.Require().NoError(err)
	s.Equal(2, retrieved.Board.MovesPlayed())
}

func (s *ControllerSuite) TestPlayMoveOccupiedCell() {
	session := s.startSession(model.DifficultyHard)
	s.play(session.ID, 4)

	_, err := s.controller.PlayMove(s.ctx, session.ID, s.guest.ID, 4)
	s.ErrorIs(err, model.ErrIllegalMove)

	retrieved, err := s.controller.GetSession(s.ctx, session.ID, s.guest.ID)
	s.Require().NoError(err)
	s.Equal(2, retrieved.Board.MovesPlayed())
}

func (s *ControllerSuite) TestPlayMoveOutOfRange() {
	session := s.startSession(model.DifficultyHard)

	_, err := s.controller.PlayMove(s.ctx, session.ID, s.guest.ID, 9)
	s.ErrorIs(err, model.ErrIllegalMove)
}

func (s *ControllerSuite) TestPlayMoveBeforeStart() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)

	_, err = s.controller.PlayMove(s.ctx, session.ID, s.guest.ID, 0)
	s.ErrorIs(err, model.ErrRoundNotStarted)
}

func (s *ControllerSuite) TestPlayMoveNotPlayerTurn() {
	session := &model.Session{
		ID:         "session-1",
		PlayerID:   s.guest.ID,
		State:      model.SessionStateInProgress,
		Difficulty: model.DifficultyEasy,
		HumanMark:  model.X,
		FirstMover: model.X,
		Board:      model.Board{model.X},
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	_, err := s.controller.PlayMove(s.ctx, session.ID, s.guest.ID, 4)
	s.ErrorIs(err, model.ErrNotPlayerTurn)
}

func (s *ControllerSuite) TestPlayMoveInconsistentBoard() {
	session := &model.Session{
		ID:         "session-1",
		PlayerID:   s.guest.ID,
		State:      model.SessionStateInProgress,
		Difficulty: model.DifficultyEasy,
		HumanMark:  model.X,
		FirstMover: model.X,
		Board:      model.Board{model.O, model.O},
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	_, err := s.controller.PlayMove(s.ctx, session.ID, s.guest.ID, 4)
	s.ErrorIs(err, model.ErrInvalidBoard)
}

func (s *ControllerSuite) TestPlayMoveByOtherPlayer() {
	session := s.startSession(model.DifficultyEasy)

	_, err := s.controller.PlayMove(s.ctx, session.ID, s.registered.ID, 0)
	s.ErrorIs(err, model.ErrNotSessionOwner)
}

func (s *ControllerSuite) TestPlayMoveUnknownSession() {
	_, err := s.controller.PlayMove(s.ctx, "nonexistent", s.guest.ID, 0)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Round completion tests

func (s *ControllerSuite) TestHumanWin() {
	session := s.startSession(model.DifficultyEasy)

	outcome := s.winRound(session.ID)

	s.Nil(outcome.ComputerMove)
	s.Equal(model.Win(model.X), outcome.Result)
	s.Equal(model.SessionStateWon, outcome.Session.State)
	s.Equal(1, outcome.Session.Score.Points)
	s.Equal(1, outcome.Session.Score.ConsecutiveWins)
	s.Equal(1, outcome.Session.Score.Wins)
}

func (s *ControllerSuite) TestComputerWin() {
	session := s.startSession(model.DifficultyEasy)
	// Computer takes 0, 1, 2 in turn
	s.random.QueueIntn(0, 0, 0)

	outcome := s.play(session.ID, 3, 6, 8)

	s.Require().NotNil(outcome.ComputerMove)
	s.Equal(2, *outcome.ComputerMove)
	s.Equal(model.Win(model.O), outcome.Result)
	s.Equal(model.SessionStateWon, outcome.Session.State)
	s.Equal(0, outcome.Session.Score.Points)
	s.Equal(1, outcome.Session.Score.Losses)
}

func (s *ControllerSuite) TestDraw() {
	session := s.startSession(model.DifficultyEasy)
	// Computer takes 1, 4, 5, 6
	s.random.QueueIntn(0, 1, 0, 0)

	outcome := s.play(session.ID, 0, 2, 3, 7, 8)

	s.Nil(outcome.ComputerMove)
	s.Equal(model.Draw(), outcome.Result)
	s.Equal("XOX/XOO/OXX", outcome.Session.Board.String())
	s.Equal(model.SessionStateDrawn, outcome.Session.State)
	s.Equal(1, outcome.Session.Score.Draws)
	s.Equal(0, outcome.Session.Score.Points)
}

func (s *ControllerSuite) TestPlayMoveAfterRoundOver() {
	session := s.startSession(model.DifficultyEasy)
	s.winRound(session.ID)

	_, err := s.controller.PlayMove(s.ctx, session.ID, s.guest.ID, 5)
	s.ErrorIs(err, model.ErrRoundOver)
}

// Continue tests

func (s *ControllerSuite) TestContinueKeepsScore() {
	session := s.startSession(model.DifficultyEasy)
	s.winRound(session.ID)

	continued, err := s.controller.Continue(s.ctx, session.ID, s.guest)
	s.Require().NoError(err)

	s.Equal(model.SessionStateInProgress, continued.State)
	s.Equal(model.Board{}, continued.Board)
	s.Equal(1, continued.Score.Points)
	s.Equal(1, continued.Score.Rounds)
}

func (s *ControllerSuite) TestThreeWinsInARowEarnBonus() {
	session := s.startSession(model.DifficultyEasy)

	for round := 0; round < 3; round++ {
		if round > 0 {
			_, err := s.controller.Continue(s.ctx, session.ID, s.guest)
			s.Require().NoError(err)
		}
		s.winRound(session.ID)
	}

	retrieved, err := s.controller.GetSession(s.ctx, session.ID, s.guest.ID)
	s.Require().NoError(err)
	s.Equal(4, retrieved.Score.Points)
	s.Equal(0, retrieved.Score.ConsecutiveWins)
	s.Equal(3, retrieved.Score.Wins)
}

func (s *ControllerSuite) TestContinueBeforeStart() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)

	_, err = s.controller.Continue(s.ctx, session.ID, s.guest)
	s.ErrorIs(err, model.ErrRoundNotStarted)
}

func (s *ControllerSuite) TestContinueDuringRound() {
	session := s.startSession(model.DifficultyEasy)

	_, err := s.controller.Continue(s.ctx, session.ID, s.guest)
	s.ErrorIs(err, model.ErrRoundInProgress)
}

// Restart tests

func (s *ControllerSuite) TestRestartResetsEverything() {
	session := s.startSession(model.DifficultyEasy)
	s.winRound(session.ID)

	restarted, err := s.controller.Restart(s.ctx, session.ID, s.guest.ID)
	s.Require().NoError(err)

	s.Equal(model.SessionStateNotStarted, restarted.State)
	s.Equal(model.Board{}, restarted.Board)
	s.Equal(model.Score{}, restarted.Score)

	started, err := s.controller.Start(s.ctx, session.ID, s.guest, model.DifficultyHard)
	s.Require().NoError(err)
	s.Equal(model.DifficultyHard, started.Difficulty)
}

func (s *ControllerSuite) TestRestartMidRound() {
	session := s.startSession(model.DifficultyHard)
	s.play(session.ID, 4)

	restarted, err := s.controller.Restart(s.ctx, session.ID, s.guest.ID)
	s.Require().NoError(err)
	s.Equal(model.SessionStateNotStarted, restarted.State)
	s.Equal(0, restarted.Board.MovesPlayed())
}

// List and delete tests

func (s *ControllerSuite) TestListSessions() {
	_, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	_, err = s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)
	_, err = s.controller.CreateSession(s.ctx, s.registered, CreateOptions{})
	s.Require().NoError(err)

	sessions, err := s.controller.ListSessions(s.ctx, s.guest.ID)
	s.Require().NoError(err)
	s.Len(sessions, 2)
	s.True(sessions[0].CreatedAt.Before(sessions[1].CreatedAt))
}

func (s *ControllerSuite) TestDeleteSession() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)

	err = s.controller.DeleteSession(s.ctx, session.ID, s.guest.ID)
	s.Require().NoError(err)

	_, err = s.controller.GetSession(s.ctx, session.ID, s.guest.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *ControllerSuite) TestDeleteSessionByOtherPlayer() {
	session, err := s.controller.CreateSession(s.ctx, s.guest, CreateOptions{})
	s.Require().NoError(err)

	err = s.controller.DeleteSession(s.ctx, session.ID, s.registered.ID)
	s.ErrorIs(err, model.ErrNotSessionOwner)
}

// Full game

func (s *ControllerSuite) TestHardComputerNeverLoses() {
	session := s.startSession(model.DifficultyHard)

	for {
		current, err := s.controller.GetSession(s.ctx, session.ID, s.guest.ID)
		s.Require().NoError(err)
		if current.IsRoundOver() {
			s.NotEqual(model.Win(model.X), Result(current))
			return
		}
		// Human always takes the lowest free cell
		for i := 0; i < model.CellCount; i++ {
			if current.Board.IsEmpty(i) {
				s.play(session.ID, i)
				break
			}
		}
	}
}

// Session locks

func (s *ControllerSuite) TestSessionLocksReleasedAfterUse() {
	session := s.startSession(model.DifficultyHard)
	s.play(session.ID, 4)
	_, err := s.controller.Restart(s.ctx, session.ID, s.guest.ID)
	s.Require().NoError(err)

	s.Equal(0, s.controller.locks.Size())
}

func (s *ControllerSuite) TestSessionLocksReleasedUnderContention() {
	session := s.startSession(model.DifficultyMedium)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.controller.Restart(s.ctx, session.ID, s.guest.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	s.Equal(0, s.controller.locks.Size())
}
