package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/tictactoe/internal/dependencies/clock"
	"github.com/mcoot/tictactoe/internal/dependencies/random"
	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/rules"
	"github.com/mcoot/tictactoe/internal/services/scoring"
	"github.com/mcoot/tictactoe/internal/services/search"
	"github.com/mcoot/tictactoe/internal/storage"
)

const instrumentationName = "github.com/mcoot/tictactoe/internal/services/game"

var tracer = otel.Tracer(instrumentationName)

// ErrComputerMove reports a fault in the computer's turn. The engine error
// is kept in the message only.
var ErrComputerMove = errors.New("computer failed to move")

// Config holds session defaults and the identity gate
type Config struct {
	// RequireLogin rejects guests when a round starts
	RequireLogin bool

	DefaultDifficulty model.Difficulty
	DefaultHumanMark  model.Mark
}

// DefaultConfig lets guests play medium difficulty as X
func DefaultConfig() Config {
	return Config{
		RequireLogin:      false,
		DefaultDifficulty: model.DefaultDifficulty,
		DefaultHumanMark:  model.X,
	}
}

// CreateOptions customise a new session; zero values take the Config defaults
type CreateOptions struct {
	Difficulty model.Difficulty
	HumanMark  model.Mark
}

// MoveOutcome describes what happened during a single PlayMove call
type MoveOutcome struct {
	Session      *model.Session
	HumanMove    int
	ComputerMove *int // nil if the human's move ended the round
	Result       model.GameResult
}

// Controller runs the session state machine:
//
//	not_started --Start--> in_progress --PlayMove--> won | drawn --Continue--> in_progress
//
// Restart returns any session to not_started with an empty board and score.
type Controller struct {
	storage        storage.Storage
	searchService  *search.Service
	scoringService *scoring.Service
	clock          clock.Clock
	random         random.Random
	cfg            Config
	logger         *slog.Logger

	// Serialises read-modify-write cycles per session. Entries live only
	// while a call holds or waits for them.
	locks *xsync.MapOf[model.SessionID, *sessionLock]

	roundsCompleted metric.Int64Counter
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	searchService *search.Service,
	scoringService *scoring.Service,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	logger = logger.With(slog.String("component", "game-controller"))

	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"ttt.rounds.completed",
		metric.WithDescription("Rounds that ended in a win or a draw"),
	)
	if err != nil {
		logger.Warn("failed to create rounds counter", slog.String("error", err.Error()))
		counter = noop.Int64Counter{}
	}

	if !cfg.DefaultDifficulty.IsValid() {
		cfg.DefaultDifficulty = model.DefaultDifficulty
	}
	if !cfg.DefaultHumanMark.IsPlayer() {
		cfg.DefaultHumanMark = model.X
	}

	return &Controller{
		storage:         storage,
		searchService:   searchService,
		scoringService:  scoringService,
		clock:           clock,
		random:          random,
		cfg:             cfg,
		logger:          logger,
		locks:           xsync.NewMapOf[model.SessionID, *sessionLock](),
		roundsCompleted: counter,
	}
}

// Config returns the controller's effective configuration
func (c *Controller) Config() Config {
	return c.cfg
}

// CreateSession creates a not-yet-started session owned by player
func (c *Controller) CreateSession(ctx context.Context, player *model.Player, opts CreateOptions) (*model.Session, error) {
	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = c.cfg.DefaultDifficulty
	}
	if !difficulty.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidDifficulty, difficulty)
	}

	humanMark := opts.HumanMark
	if humanMark == model.Empty {
		humanMark = c.cfg.DefaultHumanMark
	}
	if !humanMark.IsPlayer() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidMark, humanMark)
	}

	now := c.clock.Now()
	session := &model.Session{
		ID:         model.SessionID(c.random.UUID()),
		PlayerID:   player.ID,
		State:      model.SessionStateNotStarted,
		Difficulty: difficulty,
		HumanMark:  humanMark,
		FirstMover: model.X,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := c.storage.SaveSession(ctx, session); err != nil {
		c.logger.Error("failed to save session",
			slog.String("session_id", string(session.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("session created",
		slog.String("session_id", string(session.ID)),
		slog.String("player_id", string(player.ID)),
		slog.String("difficulty", string(difficulty)),
		slog.String("human_mark", string(humanMark)),
	)

	return session, nil
}

// GetSession retrieves a session owned by playerID
func (c *Controller) GetSession(ctx context.Context, id model.SessionID, playerID model.PlayerID) (*model.Session, error) {
	return c.loadOwned(ctx, id, playerID)
}

// ListSessions returns all sessions owned by playerID, oldest first
func (c *Controller) ListSessions(ctx context.Context, playerID model.PlayerID) ([]*model.Session, error) {
	return c.storage.ListSessionsForPlayer(ctx, playerID)
}

// DeleteSession removes a session owned by playerID
func (c *Controller) DeleteSession(ctx context.Context, id model.SessionID, playerID model.PlayerID) error {
	unlock := c.lock(id)
	defer unlock()

	if _, err := c.loadOwned(ctx, id, playerID); err != nil {
		return err
	}
	if err := c.storage.DeleteSession(ctx, id); err != nil {
		return err
	}

	c.logger.Info("session deleted",
		slog.String("session_id", string(id)),
		slog.String("player_id", string(playerID)),
	)
	return nil
}

// Start begins the first round of a session. An empty difficulty keeps the
// one chosen at creation. If the computer moves first it plays immediately.
func (c *Controller) Start(ctx context.Context, id model.SessionID, player *model.Player, difficulty model.Difficulty) (*model.Session, error) {
	ctx, span := tracer.Start(ctx, "game.Start", trace.WithAttributes(
		attribute.String("session.id", string(id)),
		attribute.String("player.id", string(player.ID)),
	))
	defer span.End()

	if err := c.checkIdentity(player); err != nil {
		span.SetStatus(codes.Error, "Login required")
		return nil, err
	}

	unlock := c.lock(id)
	defer unlock()

	session, err := c.loadOwned(ctx, id, player.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not load session")
		return nil, err
	}

	switch session.State {
	case model.SessionStateInProgress:
		return nil, model.ErrRoundInProgress
	case model.SessionStateWon, model.SessionStateDrawn:
		return nil, model.ErrRoundOver
	}

	if difficulty != "" {
		if !difficulty.IsValid() {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidDifficulty, difficulty)
		}
		session.Difficulty = difficulty
	}
	span.SetAttributes(attribute.String("session.difficulty", string(session.Difficulty)))

	if err := c.beginRound(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not begin round")
		return nil, err
	}

	c.logger.Info("session started",
		slog.String("session_id", string(session.ID)),
		slog.String("player_id", string(player.ID)),
		slog.String("difficulty", string(session.Difficulty)),
	)

	return session, nil
}

// Continue starts the next round after a win or draw, keeping the score
func (c *Controller) Continue(ctx context.Context, id model.SessionID, player *model.Player) (*model.Session, error) {
	ctx, span := tracer.Start(ctx, "game.Continue", trace.WithAttributes(
		attribute.String("session.id", string(id)),
		attribute.String("player.id", string(player.ID)),
	))
	defer span.End()

	if err := c.checkIdentity(player); err != nil {
		span.SetStatus(codes.Error, "Login required")
		return nil, err
	}

	unlock := c.lock(id)
	defer unlock()

	session, err := c.loadOwned(ctx, id, player.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not load session")
		return nil, err
	}

	switch session.State {
	case model.SessionStateNotStarted:
		return nil, model.ErrRoundNotStarted
	case model.SessionStateInProgress:
		return nil, model.ErrRoundInProgress
	}

	if err := c.beginRound(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not begin round")
		return nil, err
	}

	c.logger.Info("round continued",
		slog.String("session_id", string(session.ID)),
		slog.Int("round", session.Score.Rounds+1),
		slog.Int("points", session.Score.Points),
	)

	return session, nil
}

// Restart returns the session to not_started and clears board and score
func (c *Controller) Restart(ctx context.Context, id model.SessionID, playerID model.PlayerID) (*model.Session, error) {
	unlock := c.lock(id)
	defer unlock()

	session, err := c.loadOwned(ctx, id, playerID)
	if err != nil {
		return nil, err
	}

	session.State = model.SessionStateNotStarted
	session.Board = model.Board{}
	session.Score = model.Score{}
	session.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("session restarted",
		slog.String("session_id", string(session.ID)),
		slog.String("player_id", string(playerID)),
	)

	return session, nil
}

// PlayMove applies the human's move and, if the round is still open,
// the computer's reply in the same call.
func (c *Controller) PlayMove(ctx context.Context, id model.SessionID, playerID model.PlayerID, index int) (*MoveOutcome, error) {
	ctx, span := tracer.Start(ctx, "game.PlayMove", trace.WithAttributes(
		attribute.String("session.id", string(id)),
		attribute.String("player.id", string(playerID)),
		attribute.Int("move.index", index),
	))
	defer span.End()

	unlock := c.lock(id)
	defer unlock()

	session, err := c.loadOwned(ctx, id, playerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not load session")
		return nil, err
	}

	switch session.State {
	case model.SessionStateNotStarted:
		return nil, model.ErrRoundNotStarted
	case model.SessionStateWon, model.SessionStateDrawn:
		return nil, model.ErrRoundOver
	}

	mover, err := NextMover(session)
	if err != nil {
		c.logger.Error("session board is inconsistent",
			slog.String("session_id", string(session.ID)),
			slog.String("board", session.Board.String()),
			slog.String("error", err.Error()),
		)
		span.SetStatus(codes.Error, "Inconsistent board")
		return nil, err
	}
	if mover != session.HumanMark {
		return nil, model.ErrNotPlayerTurn
	}

	board, err := rules.ApplyMove(session.Board, index, session.HumanMark)
	if err != nil {
		span.SetAttributes(attribute.Bool("move.valid", false))
		span.SetStatus(codes.Error, "Illegal move")
		return nil, err
	}
	span.SetAttributes(attribute.Bool("move.valid", true))
	session.Board = board

	outcome := &MoveOutcome{
		Session:   session,
		HumanMove: index,
		Result:    rules.Evaluate(session.Board),
	}

	if !outcome.Result.IsTerminal() {
		move, result, err := c.playComputerMove(ctx, session)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Computer move failed")
			return nil, err
		}
		outcome.ComputerMove = &move
		outcome.Result = result
	}

	if outcome.Result.IsTerminal() {
		if err := c.finishRound(ctx, session, outcome.Result); err != nil {
			return nil, err
		}
	}

	session.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveSession(ctx, session); err != nil {
		c.logger.Error("failed to save session",
			slog.String("session_id", string(session.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetAttributes(attribute.String("round.result", outcome.Result.String()))
	return outcome, nil
}

// Result derives the current round result from the session board
func Result(session *model.Session) model.GameResult {
	return rules.Evaluate(session.Board)
}

// NextMover returns the mark due to move in the current round
func NextMover(session *model.Session) (model.Mark, error) {
	return rules.NextMover(session.Board, session.FirstMover)
}

// beginRound clears the board, marks the round in progress, lets the
// computer open if it moves first, and saves the session.
func (c *Controller) beginRound(ctx context.Context, session *model.Session) error {
	session.Board = model.Board{}
	session.State = model.SessionStateInProgress

	if session.ComputerMovesFirst() {
		if _, _, err := c.playComputerMove(ctx, session); err != nil {
			return err
		}
	}

	session.UpdatedAt = c.clock.Now()
	return c.storage.SaveSession(ctx, session)
}

// playComputerMove asks the search engine for a reply and applies it.
// Any failure here is a fault in the engine, not in the player's input.
func (c *Controller) playComputerMove(ctx context.Context, session *model.Session) (int, model.GameResult, error) {
	res, err := c.searchService.ChooseMove(ctx, session.Board, session.Difficulty, session.ComputerMark())
	if err != nil {
		c.logger.Error("computer failed to choose a move",
			slog.String("session_id", string(session.ID)),
			slog.String("board", session.Board.String()),
			slog.String("error", err.Error()),
		)
		return 0, model.GameResult{}, fmt.Errorf("%w: %v", ErrComputerMove, err)
	}

	board, err := rules.ApplyMove(session.Board, res.Move, session.ComputerMark())
	if err != nil {
		c.logger.Error("computer chose an illegal move",
			slog.String("session_id", string(session.ID)),
			slog.Int("move", res.Move),
			slog.String("error", err.Error()),
		)
		return 0, model.GameResult{}, fmt.Errorf("%w: %v", ErrComputerMove, err)
	}
	session.Board = board

	return res.Move, rules.Evaluate(board), nil
}

// finishRound records a terminal result on the session score and state
func (c *Controller) finishRound(ctx context.Context, session *model.Session, result model.GameResult) error {
	score, err := c.scoringService.Record(session.Score, result, session.HumanMark)
	if err != nil {
		return err
	}
	session.Score = score

	if result.Status == model.StatusWin {
		session.State = model.SessionStateWon
	} else {
		session.State = model.SessionStateDrawn
	}

	outcome, _ := scoring.OutcomeFor(result, session.HumanMark)
	c.roundsCompleted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", string(outcome)),
		attribute.String("difficulty", string(session.Difficulty)),
	))

	c.logger.Info("round finished",
		slog.String("session_id", string(session.ID)),
		slog.String("result", result.String()),
		slog.String("outcome", string(outcome)),
		slog.Int("points", score.Points),
		slog.Int("consecutive_wins", score.ConsecutiveWins),
	)
	return nil
}

// checkIdentity enforces the login requirement
func (c *Controller) checkIdentity(player *model.Player) error {
	if c.cfg.RequireLogin && !player.IsAuthenticated() {
		return model.ErrLoginRequired
	}
	return nil
}

// loadOwned fetches a session and verifies its owner
func (c *Controller) loadOwned(ctx context.Context, id model.SessionID, playerID model.PlayerID) (*model.Session, error) {
	session, err := c.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.PlayerID != playerID {
		return nil, model.ErrNotSessionOwner
	}
	return session, nil
}

// sessionLock is a mutex with a count of the calls holding or awaiting it.
// refs is only touched inside locks.Compute.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the per-session mutex and returns its release
func (c *Controller) lock(id model.SessionID) func() {
	l, _ := c.locks.Compute(id, func(l *sessionLock, loaded bool) (*sessionLock, bool) {
		if !loaded {
			l = &sessionLock{}
		}
		l.refs++
		return l, false
	})
	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		c.locks.Compute(id, func(l *sessionLock, loaded bool) (*sessionLock, bool) {
			l.refs--
			return l, l.refs == 0
		})
	}
}

// ControllerInterface is implemented by Controller
type ControllerInterface interface {
	CreateSession(ctx context.Context, player *model.Player, opts CreateOptions) (*model.Session, error)
	GetSession(ctx context.Context, id model.SessionID, playerID model.PlayerID) (*model.Session, error)
	ListSessions(ctx context.Context, playerID model.PlayerID) ([]*model.Session, error)
	DeleteSession(ctx context.Context, id model.SessionID, playerID model.PlayerID) error
	Start(ctx context.Context, id model.SessionID, player *model.Player, difficulty model.Difficulty) (*model.Session, error)
	Continue(ctx context.Context, id model.SessionID, player *model.Player) (*model.Session, error)
	Restart(ctx context.Context, id model.SessionID, playerID model.PlayerID) (*model.Session, error)
	PlayMove(ctx context.Context, id model.SessionID, playerID model.PlayerID, index int) (*MoveOutcome, error)
}

var _ ControllerInterface = (*Controller)(nil)
