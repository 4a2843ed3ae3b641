package game

import (
	"errors"
	"fmt"

	"github.com/HzRisho/IntelligenceSystems/internal/board"
	"github.com/HzRisho/IntelligenceSystems/internal/eval"
	"github.com/HzRisho/IntelligenceSystems/internal/rules"
	"github.com/HzRisho/IntelligenceSystems/internal/search"
)

var (
	ErrUnknownVariant  = errors.New("unknown game variant")
	ErrInvalidDepth    = errors.New("search depth must be positive")
	ErrSessionNotFound = errors.New("session not found")
)

type Variant struct {
	Name      string     `json:"name"`
	Rows      int        `json:"rows"`
	Cols      int        `json:"cols"`
	K         int        `json:"k"`
	Kind      board.Kind `json:"kind"`
	Depth     int        `json:"depth"`
	Heuristic bool       `json:"heuristic"`
}

var (
	// TicTacToe searches to the end of the game, so no heuristic is needed.
	TicTacToe = Variant{
		Name:  "tictactoe",
		Rows:  3,
		Cols:  3,
		K:     3,
		Kind:  board.FreePlacement,
		Depth: 9,
	}
	ConnectFour = Variant{
		Name:      "connect4",
		Rows:      5,
		Cols:      5,
		K:         4,
		Kind:      board.GravityDrop,
		Depth:     5,
		Heuristic: true,
	}
)

func Variants() []Variant {
	return []Variant{TicTacToe, ConnectFour}
}

func Lookup(name string) (Variant, error) {
	for _, v := range Variants() {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

func (v Variant) Validate() error {
	if _, err := board.New(v.Rows, v.Cols, v.Kind); err != nil {
		return err
	}
	if _, err := rules.New(v.Rows, v.Cols, v.K); err != nil {
		return err
	}
	if v.Depth < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, v.Depth)
	}
	return nil
}

// WithDepth returns a copy with a different search depth.
func (v Variant) WithDepth(depth int) Variant {
	v.Depth = depth
	return v
}

func (v Variant) newBoard() *board.Board {
	b, err := board.New(v.Rows, v.Cols, v.Kind)
	if err != nil {
		panic(fmt.Sprintf("game: variant %s validated but board failed: %v", v.Name, err))
	}
	return b
}

func (v Variant) engine(weights eval.Weights, opts ...search.Option) (*search.Engine, error) {
	r, err := rules.New(v.Rows, v.Cols, v.K)
	if err != nil {
		return nil, err
	}
	var ev eval.Evaluator = eval.Exact{}
	if v.Heuristic {
		h, err := eval.NewHeuristic(r, weights)
		if err != nil {
			return nil, err
		}
		ev = h
	}
	return search.New(r, ev, opts...), nil
}
