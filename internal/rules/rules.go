package rules

import (
	"errors"
	"fmt"

	"github.com/HzRisho/IntelligenceSystems/internal/board"
)

type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
	Diagonal     // ↘
	AntiDiagonal // ↙
)

var directions = [...][2]int{
	Horizontal:   {0, 1},
	Vertical:     {1, 0},
	Diagonal:     {1, 1},
	AntiDiagonal: {1, -1},
}

type State int

const (
	Ongoing State = iota
	Win
	Draw
)

var (
	ErrInvalidDimensions = errors.New("board dimensions must be positive")
	ErrInvalidRunLength  = errors.New("win run length does not fit the board")
)

// Window is a run of K cells along one orientation.
type Window struct {
	Orientation Orientation
	Cells       []board.Move
}

type Outcome struct {
	State  State
	Winner board.Cell
	Line   []board.Move
}

func (o Outcome) Terminal() bool {
	return o.State != Ongoing
}

// Rules holds the win-run length for a board shape together with every
// window of that length, precomputed in orientation order.
type Rules struct {
	rows    int
	cols    int
	k       int
	windows []Window
}

func New(rows, cols, k int) (*Rules, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	if k < 1 || k > rows || k > cols {
		return nil, fmt.Errorf("%w: k=%d on %dx%d", ErrInvalidRunLength, k, rows, cols)
	}
	r := &Rules{rows: rows, cols: cols, k: k}
	for o, d := range directions {
		for row := 0; row < rows; row++ {
			for col := 0; col < cols; col++ {
				endR, endC := row+d[0]*(k-1), col+d[1]*(k-1)
				if endR < 0 || endR >= rows || endC < 0 || endC >= cols {
					continue
				}
				cells := make([]board.Move, k)
				for i := range cells {
					cells[i] = board.Move{Row: row + d[0]*i, Col: col + d[1]*i}
				}
				r.windows = append(r.windows, Window{Orientation: Orientation(o), Cells: cells})
			}
		}
	}
	return r, nil
}

func (r *Rules) K() int    { return r.k }
func (r *Rules) Rows() int { return r.rows }
func (r *Rules) Cols() int { return r.cols }

// Windows is shared; callers must not modify it.
func (r *Rules) Windows() []Window {
	return r.windows
}

// Evaluate classifies b. Orientations are scanned independently in the
// order horizontal, vertical, ↘, ↙ and the first complete run wins.
func (r *Rules) Evaluate(b *board.Board) Outcome {
	if b.Rows() != r.rows || b.Cols() != r.cols {
		panic(fmt.Sprintf("rules: %dx%d board evaluated with %dx%d rules", b.Rows(), b.Cols(), r.rows, r.cols))
	}
	for _, w := range r.windows {
		if owner := owner(b, w); owner != board.Empty {
			return Outcome{State: Win, Winner: owner, Line: w.Cells}
		}
	}
	if !b.HasLegalMove() {
		return Outcome{State: Draw}
	}
	return Outcome{State: Ongoing}
}

func owner(b *board.Board, w Window) board.Cell {
	first := b.CellAt(w.Cells[0].Row, w.Cells[0].Col)
	if first == board.Empty {
		return board.Empty
	}
	for _, m := range w.Cells[1:] {
		if b.CellAt(m.Row, m.Col) != first {
			return board.Empty
		}
	}
	return first
}

func (s State) String() string {
	switch s {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Diagonal:
		return "diagonal"
	case AntiDiagonal:
		return "anti-diagonal"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}
