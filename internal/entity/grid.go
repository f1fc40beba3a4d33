package entity

import (
	"fmt"

	"github.com/rocketscienceinc/fourinarow-backend/internal/apperror"
)

const (
	// EmptyCell marks a cell nobody has dropped into yet.
	EmptyCell rune = 0

	// WinLength is the run of same-symbol cells that wins a match.
	WinLength = 4

	emptyCellText = '.'
)

// directions holds the four axes checked around a placed cell: horizontal, vertical and both diagonals.
var directions = [4][2]int{
	{0, 1},
	{1, 0},
	{-1, 1},
	{1, 1},
}

// Grid is a rows x cols board filled bottom-up. Row 0 is the top row.
type Grid struct {
	rows  int
	cols  int
	cells [][]rune
}

func NewGrid(rows, cols int) *Grid {
	cells := make([][]rune, rows)
	for r := range cells {
		cells[r] = make([]rune, cols)
	}

	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: cells,
	}
}

func (that *Grid) Rows() int {
	return that.rows
}

func (that *Grid) Cols() int {
	return that.cols
}

// Cell returns the symbol at (row, col) or EmptyCell.
func (that *Grid) Cell(row, col int) rune {
	if !that.inBounds(row, col) {
		return EmptyCell
	}

	return that.cells[row][col]
}

// CanDrop reports whether col exists and its topmost cell is still empty.
func (that *Grid) CanDrop(col int) bool {
	return col >= 0 && col < that.cols && that.cells[0][col] == EmptyCell
}

// Drop places symbol into the lowest empty row of col and returns that row.
func (that *Grid) Drop(col int, symbol rune) (int, error) {
	if col < 0 || col >= that.cols {
		return -1, fmt.Errorf("%w: column %d", apperror.ErrInvalidColumn, col)
	}

	for row := that.rows - 1; row >= 0; row-- {
		if that.cells[row][col] == EmptyCell {
			that.cells[row][col] = symbol
			return row, nil
		}
	}

	return -1, fmt.Errorf("%w: column %d", apperror.ErrColumnFull, col)
}

// IsWinningPlacement reports whether the cell at (row, col) is part of a run of
// at least WinLength equal symbols along any of the four axes.
func (that *Grid) IsWinningPlacement(row, col int) bool {
	symbol := that.Cell(row, col)
	if symbol == EmptyCell {
		return false
	}

	for _, dir := range directions {
		if that.runLength(row, col, dir[0], dir[1], symbol) >= WinLength {
			return true
		}
	}

	return false
}

// runLength counts the contiguous run of symbol through (row, col) along (dr, dc) in both senses.
func (that *Grid) runLength(row, col, dr, dc int, symbol rune) int {
	count := 1

	for r, c := row+dr, col+dc; that.Cell(r, c) == symbol; r, c = r+dr, c+dc {
		count++
	}

	for r, c := row-dr, col-dc; that.Cell(r, c) == symbol; r, c = r-dr, c-dc {
		count++
	}

	return count
}

// IsFull reports whether every column's top cell is occupied.
func (that *Grid) IsFull() bool {
	for col := 0; col < that.cols; col++ {
		if that.cells[0][col] == EmptyCell {
			return false
		}
	}

	return true
}

// Lines renders the board top to bottom, one string per row, '.' for empty cells.
func (that *Grid) Lines() []string {
	lines := make([]string, 0, that.rows)

	for _, row := range that.cells {
		line := make([]rune, len(row))
		for c, cell := range row {
			if cell == EmptyCell {
				cell = emptyCellText
			}
			line[c] = cell
		}
		lines = append(lines, string(line))
	}

	return lines
}

func (that *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < that.rows && col >= 0 && col < that.cols
}
