package search

import (
	"github.com/mcoot/tictactoe/internal/dependencies/random"
	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/rules"
)

// RandomStrategy picks uniformly among the empty cells
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// ChooseMove returns a random legal move
func (s *RandomStrategy) ChooseMove(board model.Board, mark model.Mark) (Result, error) {
	moves := rules.LegalMoves(board)
	if len(moves) == 0 {
		return Result{}, model.ErrNoLegalMove
	}
	return Result{Move: moves[s.random.Intn(len(moves))], Nodes: 1}, nil
}
