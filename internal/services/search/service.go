package search

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/tictactoe/internal/dependencies/random"
	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/rules"
)

var tracer = otel.Tracer("github.com/mcoot/tictactoe/internal/services/search")

// Config holds the search depth for each minimax difficulty
type Config struct {
	MediumDepth int
	HardDepth   int
}

// DefaultConfig returns the standard depth limits.
// A depth of 9 covers every remaining move, so hard play is perfect.
func DefaultConfig() Config {
	return Config{
		MediumDepth: 3,
		HardDepth:   9,
	}
}

// DefaultStrategies maps each difficulty to its strategy
func DefaultStrategies(cfg Config, rnd random.Random) map[model.Difficulty]Strategy {
	return map[model.Difficulty]Strategy{
		model.DifficultyEasy:   NewRandomStrategy(rnd),
		model.DifficultyMedium: NewMinimaxStrategy(cfg.MediumDepth),
		model.DifficultyHard:   NewMinimaxStrategy(cfg.HardDepth),
	}
}

// Service selects computer moves according to difficulty
type Service struct {
	strategies map[model.Difficulty]Strategy
	logger     *slog.Logger
}

// NewService creates a new search Service
func NewService(strategies map[model.Difficulty]Strategy, logger *slog.Logger) *Service {
	return &Service{
		strategies: strategies,
		logger:     logger.With(slog.String("component", "search-service")),
	}
}

// ChooseMove picks a move for mark on an undecided board.
// It returns model.ErrNoLegalMove if the board is already won or full.
func (s *Service) ChooseMove(ctx context.Context, board model.Board, difficulty model.Difficulty, mark model.Mark) (Result, error) {
	ctx, span := tracer.Start(ctx, "search.ChooseMove", trace.WithAttributes(
		attribute.String("search.difficulty", string(difficulty)),
		attribute.String("search.mark", string(mark)),
		attribute.String("search.board", board.String()),
	))
	defer span.End()

	if !mark.IsPlayer() {
		err := fmt.Errorf("%w: cannot search for %q", model.ErrInvalidMark, mark)
		span.SetStatus(codes.Error, "Invalid mark")
		return Result{}, err
	}

	strategy, ok := s.strategies[difficulty]
	if !ok {
		span.SetStatus(codes.Error, "Unknown difficulty")
		return Result{}, fmt.Errorf("%w: %q", model.ErrInvalidDifficulty, difficulty)
	}

	if result := rules.Evaluate(board); result.IsTerminal() {
		span.SetStatus(codes.Error, "Board already decided")
		return Result{}, fmt.Errorf("%w: board is %s", model.ErrNoLegalMove, result)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res, err := strategy.ChooseMove(board, mark)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Strategy failed")
		return Result{}, err
	}
	if err := rules.ValidateMove(board, res.Move, mark); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Strategy chose an illegal move")
		return Result{}, fmt.Errorf("strategy for %s: %w", difficulty, err)
	}

	span.SetAttributes(
		attribute.Int("search.move", res.Move),
		attribute.Int("search.score", res.Score),
		attribute.Int("search.nodes", res.Nodes),
	)

	s.logger.DebugContext(ctx, "move chosen",
		slog.String("difficulty", string(difficulty)),
		slog.String("mark", string(mark)),
		slog.String("board", board.String()),
		slog.Int("move", res.Move),
		slog.Int("score", res.Score),
		slog.Int("nodes", res.Nodes),
	)

	return res, nil
}
