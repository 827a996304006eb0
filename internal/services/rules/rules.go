// Package rules implements the tic-tac-toe rules as pure functions over model.Board.
package rules

import (
	"fmt"

	"github.com/mcoot/tictactoe/internal/model"
)

// Line is three cell indices that win when they hold the same mark
type Line [3]int

// lines is checked in order; the first completed line decides the winner
var lines = [8]Line{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// Lines returns the winning lines in evaluation order
func Lines() []Line {
	result := make([]Line, len(lines))
	copy(result, lines[:])
	return result
}

// ApplyMove places mark at index and returns the resulting board.
// The input board is not modified.
func ApplyMove(board model.Board, index int, mark model.Mark) (model.Board, error) {
	if err := ValidateMove(board, index, mark); err != nil {
		return board, err
	}
	board[index] = mark
	return board, nil
}

// ValidateMove checks that mark may be placed at index
func ValidateMove(board model.Board, index int, mark model.Mark) error {
	if !mark.IsPlayer() {
		return fmt.Errorf("%w: mark %q cannot be placed", model.ErrIllegalMove, mark)
	}
	if !model.IsValidIndex(index) {
		return fmt.Errorf("%w: index %d out of range", model.ErrIllegalMove, index)
	}
	if !board.IsEmpty(index) {
		return fmt.Errorf("%w: cell %d is occupied by %s", model.ErrIllegalMove, index, board[index])
	}
	return nil
}

// Evaluate derives the result of a board
func Evaluate(board model.Board) model.GameResult {
	if winner, _, ok := WinningLine(board); ok {
		return model.Win(winner)
	}
	if board.IsFull() {
		return model.Draw()
	}
	return model.InProgress()
}

// WinningLine returns the first completed line and its owner
func WinningLine(board model.Board) (model.Mark, Line, bool) {
	for _, line := range lines {
		first := board[line[0]]
		if first != model.Empty && first == board[line[1]] && first == board[line[2]] {
			return first, line, true
		}
	}
	return model.Empty, Line{}, false
}

// LegalMoves returns the empty cell indices in ascending order
func LegalMoves(board model.Board) []int {
	moves := make([]int, 0, model.CellCount)
	for i, cell := range board {
		if cell == model.Empty {
			moves = append(moves, i)
		}
	}
	return moves
}

// NextMover returns whose turn it is given the mark that opened the round.
// It fails if the mark counts do not follow strict alternation.
func NextMover(board model.Board, first model.Mark) (model.Mark, error) {
	if err := ValidateBoard(board, first); err != nil {
		return model.Empty, err
	}
	if board.Count(first) == board.Count(first.Opponent()) {
		return first, nil
	}
	return first.Opponent(), nil
}

// ValidateBoard checks that the board could arise from alternating moves
// starting with first.
func ValidateBoard(board model.Board, first model.Mark) error {
	if !first.IsPlayer() {
		return fmt.Errorf("%w: first mover %q", model.ErrInvalidMark, first)
	}
	diff := board.Count(first) - board.Count(first.Opponent())
	if diff < 0 || diff > 1 {
		return fmt.Errorf("%w: %s has %d marks and %s has %d",
			model.ErrInvalidBoard, first, board.Count(first), first.Opponent(), board.Count(first.Opponent()))
	}
	return nil
}
