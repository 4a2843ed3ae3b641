package eval

import (
	"errors"
	"fmt"

	"github.com/HzRisho/IntelligenceSystems/internal/board"
	"github.com/HzRisho/IntelligenceSystems/internal/rules"
)

// Evaluator scores a non-terminal position from side's point of view.
// It is only consulted at the search depth cutoff.
type Evaluator interface {
	Score(b *board.Board, side board.Cell) int
}

// Exact is used where the search always reaches terminal positions; a
// cutoff leaf counts as unknown and scores like a draw.
type Exact struct{}

func (Exact) Score(*board.Board, board.Cell) int { return 0 }

var ErrWeightOrder = errors.New("heuristic weights out of order")

type Weights struct {
	Complete   int `json:"complete" mapstructure:"complete"`
	Three      int `json:"three" mapstructure:"three"`
	Two        int `json:"two" mapstructure:"two"`
	BlockThree int `json:"block_three" mapstructure:"block_three"`
	Center     int `json:"center" mapstructure:"center"`
}

var DefaultWeights = Weights{
	Complete:   100,
	Three:      5,
	Two:        2,
	BlockThree: -4,
	Center:     3,
}

// Validate checks the ordering the search relies on: a completed window
// beats an open K-1, which beats an open K-2, and an opponent K-1 threat
// is a penalty.
func (w Weights) Validate() error {
	if !(w.Complete > w.Three && w.Three > w.Two && w.Two >= 0) {
		return fmt.Errorf("%w: complete=%d three=%d two=%d", ErrWeightOrder, w.Complete, w.Three, w.Two)
	}
	if w.BlockThree > 0 || w.Three <= -w.BlockThree {
		return fmt.Errorf("%w: block_three=%d", ErrWeightOrder, w.BlockThree)
	}
	if w.Center < 0 {
		return fmt.Errorf("%w: center=%d", ErrWeightOrder, w.Center)
	}
	return nil
}

// Heuristic sums window scores over every length-K window plus a bonus
// for pieces in the center column.
type Heuristic struct {
	rules   *rules.Rules
	weights Weights
	center  int
}

func NewHeuristic(r *rules.Rules, w Weights) (*Heuristic, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	h := &Heuristic{rules: r, weights: w, center: -1}
	// 3x3 and even widths have no single center column worth rewarding.
	if r.Cols()%2 == 1 && r.Cols() > 3 {
		h.center = r.Cols() / 2
	}
	return h, nil
}

func (h *Heuristic) Score(b *board.Board, side board.Cell) int {
	score := 0
	if h.center >= 0 {
		for r := 0; r < b.Rows(); r++ {
			if b.CellAt(r, h.center) == side {
				score += h.weights.Center
			}
		}
	}
	opponent := side.Opponent()
	for _, w := range h.rules.Windows() {
		own, theirs, empty := 0, 0, 0
		for _, m := range w.Cells {
			switch b.CellAt(m.Row, m.Col) {
			case side:
				own++
			case opponent:
				theirs++
			default:
				empty++
			}
		}
		score += h.window(own, theirs, empty)
	}
	return score
}

func (h *Heuristic) window(own, theirs, empty int) int {
	k := h.rules.K()
	score := 0
	switch {
	case own == k:
		score += h.weights.Complete
	case own == k-1 && empty == 1:
		score += h.weights.Three
	case k > 2 && own == k-2 && empty == 2:
		score += h.weights.Two
	}
	if theirs == k-1 && empty == 1 {
		score += h.weights.BlockThree
	}
	return score
}
