package model

import (
	"fmt"
	"strings"
)

// Mark is the content of a single cell
type Mark string

const (
	Empty Mark = ""
	X     Mark = "X"
	O     Mark = "O"
)

// IsPlayer returns true for the two playable marks
func (m Mark) IsPlayer() bool {
	return m == X || m == O
}

// Opponent returns the other playable mark, or Empty for Empty
func (m Mark) Opponent() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// ParseMark accepts "x" or "o" in either case
func ParseMark(s string) (Mark, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return X, nil
	case "O":
		return O, nil
	default:
		return Empty, fmt.Errorf("%w: %q", ErrInvalidMark, s)
	}
}

const (
	// BoardSize is the side length of the grid
	BoardSize = 3
	// CellCount is the number of cells on the board
	CellCount = BoardSize * BoardSize
)

// Position identifies a cell on the board
type Position struct {
	Row int // 0-indexed from top
	Col int // 0-indexed from left
}

// Index returns the row-major index of the position
func (p Position) Index() int {
	return p.Row*BoardSize + p.Col
}

// PositionOf converts a row-major index into a Position
func PositionOf(index int) Position {
	return Position{Row: index / BoardSize, Col: index % BoardSize}
}

// IsValidIndex returns true if the index addresses a cell
func IsValidIndex(index int) bool {
	return index >= 0 && index < CellCount
}

// Board is the 3x3 grid in row-major order: index = row*3 + col.
// It is a value type; assigning a Board copies it.
type Board [CellCount]Mark

// Get returns the mark at index, or Empty if the index is out of range
func (b Board) Get(index int) Mark {
	if !IsValidIndex(index) {
		return Empty
	}
	return b[index]
}

// IsEmpty returns true if the cell at index holds no mark
func (b Board) IsEmpty(index int) bool {
	return IsValidIndex(index) && b[index] == Empty
}

// IsFull returns true if every cell holds a mark
func (b Board) IsFull() bool {
	return b.EmptyCount() == 0
}

// EmptyCount returns the number of empty cells
func (b Board) EmptyCount() int {
	return b.Count(Empty)
}

// Count returns how many cells hold the given mark
func (b Board) Count(m Mark) int {
	count := 0
	for _, cell := range b {
		if cell == m {
			count++
		}
	}
	return count
}

// MovesPlayed returns the number of non-empty cells
func (b Board) MovesPlayed() int {
	return CellCount - b.EmptyCount()
}

// Row returns the three marks in the given row
func (b Board) Row(row int) [BoardSize]Mark {
	var result [BoardSize]Mark
	for col := 0; col < BoardSize; col++ {
		result[col] = b.Get(Position{Row: row, Col: col}.Index())
	}
	return result
}

// String renders the board compactly, one character per cell with '.' for empty.
// Rows are separated by '/', e.g. "XO./.X./..O".
func (b Board) String() string {
	var sb strings.Builder
	for i, cell := range b {
		if i > 0 && i%BoardSize == 0 {
			sb.WriteByte('/')
		}
		if cell == Empty {
			sb.WriteByte('.')
		} else {
			sb.WriteString(string(cell))
		}
	}
	return sb.String()
}

// ParseBoard reads a board from its compact form. Row separators ('/' or '|')
// and whitespace are ignored; '.', '-' and '_' denote empty cells.
func ParseBoard(s string) (Board, error) {
	var board Board
	i := 0
	for _, r := range s {
		switch r {
		case '/', '|', ' ', '\t', '\n', '\r':
			continue
		}
		if i >= CellCount {
			return Board{}, fmt.Errorf("%w: more than %d cells in %q", ErrInvalidBoard, CellCount, s)
		}
		switch r {
		case 'X', 'x':
			board[i] = X
		case 'O', 'o':
			board[i] = O
		case '.', '-', '_':
			board[i] = Empty
		default:
			return Board{}, fmt.Errorf("%w: unexpected character %q", ErrInvalidBoard, r)
		}
		i++
	}
	if i != CellCount {
		return Board{}, fmt.Errorf("%w: expected %d cells, got %d", ErrInvalidBoard, CellCount, i)
	}
	return board, nil
}
