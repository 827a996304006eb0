package rules

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe/internal/model"
)

type RulesSuite struct {
	suite.Suite
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesSuite))
}

func (s *RulesSuite) mustParse(str string) model.Board {
	board, err := model.ParseBoard(str)
	s.Require().NoError(err)
	return board
}

// ApplyMove tests

func (s *RulesSuite) TestApplyMoveOnEmptyBoard() {
	board, err := ApplyMove(model.Board{}, 4, model.X)
	s.Require().NoError(err)

	s.Equal(model.X, board[4])
	s.Equal(1, board.MovesPlayed())
}

func (s *RulesSuite) TestApplyMoveOnlyChangesTarget() {
	before := s.mustParse("XO./.X./..O")

	after, err := ApplyMove(before, 2, model.O)
	s.Require().NoError(err)

	for i := range before {
		if i == 2 {
			s.Equal(model.O, after[i])
			continue
		}
		s.Equal(before[i], after[i], "cell %d changed", i)
	}
	s.Equal(before.MovesPlayed()+1, after.MovesPlayed())
}

func (s *RulesSuite) TestApplyMoveDoesNotMutateInput() {
	before := s.mustParse("X../.../...")
	snapshot := before

	_, err := ApplyMove(before, 8, model.O)
	s.Require().NoError(err)
	s.Equal(snapshot, before)
}

func (s *RulesSuite) TestApplyMoveRejectsOccupiedCell() {
	board := s.mustParse("X../.../...")

	_, err := ApplyMove(board, 0, model.O)
	s.ErrorIs(err, model.ErrIllegalMove)
}

func (s *RulesSuite) TestApplyMoveRejectsOutOfRange() {
	_, err := ApplyMove(model.Board{}, -1, model.X)
	s.ErrorIs(err, model.ErrIllegalMove)

	_, err = ApplyMove(model.Board{}, 9, model.X)
	s.ErrorIs(err, model.ErrIllegalMove)
}

func (s *RulesSuite) TestApplyMoveRejectsEmptyMark() {
	_, err := ApplyMove(model.Board{}, 0, model.Empty)
	s.ErrorIs(err, model.ErrIllegalMove)
}

// Evaluate tests

func (s *RulesSuite) TestEvaluateDetectsEveryLine() {
	for _, mark := range []model.Mark{model.X, model.O} {
		for _, line := range Lines() {
			var board model.Board
			for _, idx := range line {
				board[idx] = mark
			}
			s.Equal(model.Win(mark), Evaluate(board), "line %v for %s", line, mark)
		}
	}
}

func (s *RulesSuite) TestEvaluateDraw() {
	board := s.mustParse("XOX/XOO/OXX")
	s.Equal(model.Draw(), Evaluate(board))
}

func (s *RulesSuite) TestEvaluateEmptyBoardInProgress() {
	s.Equal(model.InProgress(), Evaluate(model.Board{}))
}

func (s *RulesSuite) TestEvaluateNoResultWithFewerThanThreeMarks() {
	for i := 0; i < model.CellCount; i++ {
		for j := i + 1; j < model.CellCount; j++ {
			var board model.Board
			board[i] = model.X
			board[j] = model.X
			s.Equal(model.InProgress(), Evaluate(board), "cells %d,%d", i, j)
		}
	}
}

func (s *RulesSuite) TestEvaluateWinOnFullBoardIsWin() {
	board := s.mustParse("XXX/OOX/XOO")
	s.Equal(model.Win(model.X), Evaluate(board))
}

func (s *RulesSuite) TestEvaluateIsIdempotentAndPure() {
	board := s.mustParse("XO./.X./..O")
	snapshot := board

	first := Evaluate(board)
	second := Evaluate(board)

	s.Equal(first, second)
	s.Equal(snapshot, board)
}

func (s *RulesSuite) TestWinningLineReturnsFirstInOrder() {
	// Row 0 and column 0 are both complete; rows come first
	board := s.mustParse("XXX/XOO/XOO")

	winner, line, ok := WinningLine(board)
	s.True(ok)
	s.Equal(model.X, winner)
	s.Equal(Line{0, 1, 2}, line)
}

// LegalMoves tests

func (s *RulesSuite) TestLegalMovesEmptyBoard() {
	s.Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8}, LegalMoves(model.Board{}))
}

func (s *RulesSuite) TestLegalMovesAscendingEmptyCells() {
	board := s.mustParse("X.O/.X./O..")
	s.Equal([]int{1, 3, 5, 7, 8}, LegalMoves(board))
}

func (s *RulesSuite) TestLegalMovesFullBoard() {
	board := s.mustParse("XOX/XOO/OXX")
	s.Empty(LegalMoves(board))
}

// NextMover tests

func (s *RulesSuite) TestNextMoverAlternates() {
	mover, err := NextMover(model.Board{}, model.X)
	s.Require().NoError(err)
	s.Equal(model.X, mover)

	mover, err = NextMover(s.mustParse("X../.../..."), model.X)
	s.Require().NoError(err)
	s.Equal(model.O, mover)

	mover, err = NextMover(s.mustParse("XO./.../..."), model.X)
	s.Require().NoError(err)
	s.Equal(model.X, mover)
}

func (s *RulesSuite) TestNextMoverWithOFirst() {
	mover, err := NextMover(s.mustParse("O../.../..."), model.O)
	s.Require().NoError(err)
	s.Equal(model.X, mover)
}

func (s *RulesSuite) TestNextMoverRejectsBrokenAlternation() {
	_, err := NextMover(s.mustParse("XX./.../..."), model.X)
	s.ErrorIs(err, model.ErrInvalidBoard)

	_, err = NextMover(s.mustParse("O../.../..."), model.X)
	s.ErrorIs(err, model.ErrInvalidBoard)
}

func (s *RulesSuite) TestValidateBoardRejectsEmptyFirstMover() {
	err := ValidateBoard(model.Board{}, model.Empty)
	s.ErrorIs(err, model.ErrInvalidMark)
}
