package search

import (
	"github.com/mcoot/tictactoe/internal/model"
	"github.com/mcoot/tictactoe/internal/services/rules"
)

const (
	// winScore is the value of a win at the root; each ply of delay costs one point
	winScore = 10
	noMove   = -1
)

// MinimaxStrategy searches the game tree to a fixed depth.
// The mark it plays for is the maximiser. Moves are tried in ascending
// index order and only a strictly better score replaces the current best,
// so ties resolve to the lowest index.
type MinimaxStrategy struct {
	depthLimit int
}

// NewMinimaxStrategy creates a strategy that looks depthLimit plies ahead
func NewMinimaxStrategy(depthLimit int) *MinimaxStrategy {
	if depthLimit < 1 {
		depthLimit = 1
	}
	return &MinimaxStrategy{depthLimit: depthLimit}
}

// DepthLimit returns the number of plies searched
func (s *MinimaxStrategy) DepthLimit() int {
	return s.depthLimit
}

// ChooseMove returns the best move for mark
func (s *MinimaxStrategy) ChooseMove(board model.Board, mark model.Mark) (Result, error) {
	var nodes int
	score, move := s.minimax(board, 0, true, mark, &nodes)
	if move == noMove {
		return Result{Nodes: nodes}, model.ErrNoLegalMove
	}
	return Result{Move: move, Score: score, Nodes: nodes}, nil
}

// minimax returns the value of board and the move that achieves it.
// board is passed by value so every ply works on its own copy.
func (s *MinimaxStrategy) minimax(board model.Board, depth int, maximizing bool, self model.Mark, nodes *int) (int, int) {
	*nodes++

	if result := rules.Evaluate(board); result.Status == model.StatusWin {
		if result.Winner == self {
			return winScore - depth, noMove
		}
		return -winScore + depth, noMove
	}

	moves := rules.LegalMoves(board)
	if len(moves) == 0 || depth == s.depthLimit {
		return 0, noMove
	}

	mover := self
	if !maximizing {
		mover = self.Opponent()
	}

	bestScore, bestMove := 0, noMove
	for _, move := range moves {
		next := board
		next[move] = mover
		score, _ := s.minimax(next, depth+1, !maximizing, self, nodes)

		if bestMove == noMove ||
			(maximizing && score > bestScore) ||
			(!maximizing && score < bestScore) {
			bestScore, bestMove = score, move
		}
	}
	return bestScore, bestMove
}
