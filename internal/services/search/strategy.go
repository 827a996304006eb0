package search

import "github.com/mcoot/tictactoe/internal/model"

// Strategy picks a move for mark on a board that still has legal moves
type Strategy interface {
	ChooseMove(board model.Board, mark model.Mark) (Result, error)
}

// Result is the outcome of a single move selection
type Result struct {
	Move  int // Chosen cell index
	Score int // Minimax value of the move; always 0 for random play
	Nodes int // Positions visited
}
