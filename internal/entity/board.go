package entity

import (
	"errors"
	"fmt"
)

// Cell - content of one board square. Values match the wire format used by clients.
type Cell uint8

const (
	EmptyCell Cell = 0
	PlayerX   Cell = 1
	PlayerO   Cell = 2
)

const BoardSize = 9

var (
	ErrOutOfBounds  = errors.New("cell index out of bounds")
	ErrInvalidMark  = errors.New("mark must be X or O")
	ErrCellOccupied = errors.New("cell is already occupied")

	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// IsMark - reports whether the cell value is one of the two player marks.
func (that Cell) IsMark() bool {
	return that == PlayerX || that == PlayerO
}

// Opposite - returns the other player's mark, EmptyCell for anything else.
func (that Cell) Opposite() Cell {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

func (that Cell) String() string {
	switch that {
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	case EmptyCell:
		return "-"
	default:
		return fmt.Sprintf("Cell(%d)", uint8(that))
	}
}

type Outcome uint8

const (
	Ongoing Outcome = iota
	Win
	Draw
)

func (that Outcome) String() string {
	switch that {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// TerminalStatus - result of evaluating a board. Mark is set only for Win.
type TerminalStatus struct {
	Outcome Outcome
	Mark    Cell
}

func (that TerminalStatus) IsTerminal() bool {
	return that.Outcome != Ongoing
}

type Board [BoardSize]Cell

// ApplyMove - validates and places mark at index on a copy of the board.
// The receiver is never modified, so a rejected move leaves no trace.
func (that Board) ApplyMove(index int, mark Cell) (Board, TerminalStatus, error) {
	if index < 0 || index >= BoardSize {
		return that, TerminalStatus{}, fmt.Errorf("%w: cell %d", ErrOutOfBounds, index)
	}

	if !mark.IsMark() {
		return that, TerminalStatus{}, fmt.Errorf("%w: got %d", ErrInvalidMark, uint8(mark))
	}

	if that[index] != EmptyCell {
		return that, TerminalStatus{}, fmt.Errorf("%w: cell %d", ErrCellOccupied, index)
	}

	next := that
	next[index] = mark

	return next, next.Status(), nil
}

// Status - evaluates all eight lines, then fullness.
func (that Board) Status() TerminalStatus {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return TerminalStatus{Outcome: Win, Mark: a}
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range that {
		if cell == EmptyCell {
			return TerminalStatus{Outcome: Ongoing}
		}
	}

	return TerminalStatus{Outcome: Draw}
}

// Cells - board as plain integers for read projections.
func (that Board) Cells() []int {
	cells := make([]int, BoardSize)
	for i, cell := range that {
		cells[i] = int(cell)
	}

	return cells
}
