package board

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
)

type Kind int

const (
	FreePlacement Kind = iota
	GravityDrop
)

type Cell int8

const (
	Empty Cell = iota
	SideA
	SideB
)

var (
	ErrInvalidDimensions = errors.New("board dimensions must be positive")
	ErrInvalidCell       = errors.New("invalid cell value")
	ErrPieceCount        = errors.New("piece counts break turn alternation")
	ErrFloatingPiece     = errors.New("piece above an empty cell")
	ErrTextLength        = errors.New("board text does not match dimensions")
)

// Move is a resolved target cell. For gravity boards Row is the drop row.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (m Move) String() string {
	return fmt.Sprintf("(%d,%d)", m.Row, m.Col)
}

type Board struct {
	rows    int
	cols    int
	kind    Kind
	cells   []Cell
	heights []int
	counts  [3]int
}

func New(rows, cols int, kind Kind) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	b := &Board{
		rows:  rows,
		cols:  cols,
		kind:  kind,
		cells: make([]Cell, rows*cols),
	}
	b.counts[Empty] = rows * cols
	if kind == GravityDrop {
		b.heights = make([]int, cols)
	}
	return b, nil
}

// Parse reads row-major text where '_' or '.' is empty, 'O' is SideA and
// 'X' is SideB. Whitespace and '|' separators are ignored.
func Parse(rows, cols int, kind Kind, text string) (*Board, error) {
	b, err := New(rows, cols, kind)
	if err != nil {
		return nil, err
	}
	b.counts = [3]int{}
	i := 0
	for _, ch := range text {
		var cell Cell
		switch ch {
		case ' ', '\n', '\t', '\r', '|':
			continue
		case '_', '.':
			cell = Empty
		case 'O', 'o':
			cell = SideA
		case 'X', 'x':
			cell = SideB
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidCell, ch)
		}
		if i >= len(b.cells) {
			return nil, ErrTextLength
		}
		b.cells[i] = cell
		b.counts[cell]++
		i++
	}
	if i != len(b.cells) {
		return nil, ErrTextLength
	}
	if b.kind == GravityDrop {
		for c := 0; c < b.cols; c++ {
			for r := 0; r < b.rows; r++ {
				if b.cells[b.index(r, c)] != Empty {
					b.heights[c]++
				}
			}
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Board) Rows() int  { return b.rows }
func (b *Board) Cols() int  { return b.cols }
func (b *Board) Kind() Kind { return b.kind }

func (b *Board) CellAt(r, c int) Cell {
	return b.cells[b.index(r, c)]
}

func (b *Board) InBounds(r, c int) bool {
	return r >= 0 && c >= 0 && r < b.rows && c < b.cols
}

func (b *Board) Count(side Cell) int {
	if side < Empty || side > SideB {
		return 0
	}
	return b.counts[side]
}

func (b *Board) Pieces() int {
	return b.counts[SideA] + b.counts[SideB]
}

// ToMove derives the side to move from piece counts; SideA always opens.
func (b *Board) ToMove() Cell {
	if b.counts[SideA] == b.counts[SideB] {
		return SideA
	}
	return SideB
}

func (b *Board) IsFull() bool {
	return b.Pieces() == len(b.cells)
}

// Place mutates the board. Callers must pass a move produced by LegalMoves
// or Resolve; anything else is a programming error and panics.
func (b *Board) Place(m Move, side Cell) {
	if side != SideA && side != SideB {
		panic(fmt.Sprintf("board: place with invalid side %d", side))
	}
	if !b.InBounds(m.Row, m.Col) {
		panic(fmt.Sprintf("board: place out of bounds %v", m))
	}
	i := b.index(m.Row, m.Col)
	if b.cells[i] != Empty {
		panic(fmt.Sprintf("board: place on occupied cell %v", m))
	}
	if b.kind == GravityDrop {
		if m.Row != b.dropRow(m.Col) {
			panic(fmt.Sprintf("board: place %v breaks gravity", m))
		}
		b.heights[m.Col]++
	}
	b.cells[i] = side
	b.counts[side]++
	b.counts[Empty]--
}

// Undo reverts the most recent Place at m, including drop heights.
func (b *Board) Undo(m Move) {
	if !b.InBounds(m.Row, m.Col) {
		panic(fmt.Sprintf("board: undo out of bounds %v", m))
	}
	i := b.index(m.Row, m.Col)
	side := b.cells[i]
	if side == Empty {
		panic(fmt.Sprintf("board: undo on empty cell %v", m))
	}
	if b.kind == GravityDrop {
		if m.Row != b.rows-b.heights[m.Col] {
			panic(fmt.Sprintf("board: undo %v is not the top of its column", m))
		}
		b.heights[m.Col]--
	}
	b.cells[i] = Empty
	b.counts[side]--
	b.counts[Empty]++
}

// LegalMoves yields moves in enumeration order: ascending cell index for
// free placement, ascending column for gravity boards. The sequence reads
// the board lazily, so a caller may place and undo between steps.
func (b *Board) LegalMoves() iter.Seq[Move] {
	return func(yield func(Move) bool) {
		if b.kind == GravityDrop {
			for c := 0; c < b.cols; c++ {
				r := b.dropRow(c)
				if r < 0 {
					continue
				}
				if !yield(Move{Row: r, Col: c}) {
					return
				}
			}
			return
		}
		for i := range b.cells {
			if b.cells[i] != Empty {
				continue
			}
			if !yield(Move{Row: i / b.cols, Col: i % b.cols}) {
				return
			}
		}
	}
}

func (b *Board) MoveList() []Move {
	return slices.Collect(b.LegalMoves())
}

func (b *Board) HasLegalMove() bool {
	for range b.LegalMoves() {
		return true
	}
	return false
}

// Resolve turns a caller position (cell index, or column for gravity
// boards) into a legal move.
func (b *Board) Resolve(position int) (Move, bool) {
	if b.kind == GravityDrop {
		if position < 0 || position >= b.cols {
			return Move{}, false
		}
		r := b.dropRow(position)
		if r < 0 {
			return Move{}, false
		}
		return Move{Row: r, Col: position}, true
	}
	if position < 0 || position >= len(b.cells) {
		return Move{}, false
	}
	if b.cells[position] != Empty {
		return Move{}, false
	}
	return Move{Row: position / b.cols, Col: position % b.cols}, true
}

// Position is the inverse of Resolve.
func (b *Board) Position(m Move) int {
	if b.kind == GravityDrop {
		return m.Col
	}
	return b.index(m.Row, m.Col)
}

func (b *Board) Clone() *Board {
	clone := &Board{
		rows:   b.rows,
		cols:   b.cols,
		kind:   b.kind,
		cells:  slices.Clone(b.cells),
		counts: b.counts,
	}
	if b.heights != nil {
		clone.heights = slices.Clone(b.heights)
	}
	return clone
}

// Grid returns a row-major copy of the cells for rendering.
func (b *Board) Grid() [][]Cell {
	grid := make([][]Cell, b.rows)
	for r := range grid {
		grid[r] = slices.Clone(b.cells[r*b.cols : (r+1)*b.cols])
	}
	return grid
}

// Key is a compact text form, stable across processes.
func (b *Board) Key() string {
	var sb strings.Builder
	sb.Grow(len(b.cells))
	for _, cell := range b.cells {
		sb.WriteByte(cell.symbol())
	}
	return sb.String()
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.rows; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c := 0; c < b.cols; c++ {
			sb.WriteByte(b.cells[b.index(r, c)].symbol())
		}
	}
	return sb.String()
}

func (b *Board) Validate() error {
	var counts [3]int
	for _, cell := range b.cells {
		if cell < Empty || cell > SideB {
			return fmt.Errorf("%w: %d", ErrInvalidCell, cell)
		}
		counts[cell]++
	}
	if diff := counts[SideA] - counts[SideB]; diff != 0 && diff != 1 {
		return fmt.Errorf("%w: %d vs %d", ErrPieceCount, counts[SideA], counts[SideB])
	}
	if counts != b.counts {
		return fmt.Errorf("%w: stale piece counts", ErrPieceCount)
	}
	if b.kind != GravityDrop {
		return nil
	}
	for c := 0; c < b.cols; c++ {
		height := 0
		for r := b.rows - 1; r >= 0; r-- {
			if b.cells[b.index(r, c)] == Empty {
				break
			}
			height++
		}
		for r := b.rows - 1 - height; r >= 0; r-- {
			if b.cells[b.index(r, c)] != Empty {
				return fmt.Errorf("%w: column %d row %d", ErrFloatingPiece, c, r)
			}
		}
		if height != b.heights[c] {
			return fmt.Errorf("%w: stale height in column %d", ErrFloatingPiece, c)
		}
	}
	return nil
}

func (b *Board) dropRow(col int) int {
	return b.rows - 1 - b.heights[col]
}

func (b *Board) index(r, c int) int {
	return r*b.cols + c
}
