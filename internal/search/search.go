package search

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/HzRisho/IntelligenceSystems/internal/board"
	"github.com/HzRisho/IntelligenceSystems/internal/eval"
	"github.com/HzRisho/IntelligenceSystems/internal/rules"
)

const (
	// Win dominates every heuristic score while staying far from overflow.
	Win      = 1_000_000
	Infinity = math.MaxInt32
)

// Source is satisfied by *math/rand.Rand and *frand.RNG.
type Source interface {
	Intn(n int) int
}

type Result struct {
	Move  board.Move `json:"move"`
	Found bool       `json:"found"`
	Value int        `json:"value"`
	Nodes int        `json:"nodes"`
}

type Engine struct {
	rules *rules.Rules
	eval  eval.Evaluator
	rng   Source
	log   *zap.SugaredLogger
}

type Option func(*Engine)

// WithRand shuffles the root move order so equally valued moves vary
// between games. Without it ties go to the first move enumerated.
func WithRand(src Source) Option {
	return func(e *Engine) { e.rng = src }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = log }
}

func New(r *rules.Rules, ev eval.Evaluator, opts ...Option) *Engine {
	e := &Engine{rules: r, eval: ev, log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Rules() *rules.Rules { return e.rules }

// Search runs minimax with alpha-beta pruning for side, the maximizing
// player, on a private copy of b. maximizing reports whether side is to
// move at the root.
func (e *Engine) Search(b *board.Board, side board.Cell, depth, alpha, beta int, maximizing bool) Result {
	s := e.searcher(b, side)
	res := s.search(depth, alpha, beta, maximizing, false)
	res.Nodes = s.nodes
	return res
}

// BestMove picks side's move on a live position. Calling it on a decided
// or malformed board, or out of turn, is a caller bug and panics.
func (e *Engine) BestMove(b *board.Board, side board.Cell, depth int) Result {
	if err := b.Validate(); err != nil {
		panic(fmt.Sprintf("search: invalid board: %v", err))
	}
	if b.ToMove() != side {
		panic(fmt.Sprintf("search: %v asked to move but %v is to move", side, b.ToMove()))
	}
	if out := e.rules.Evaluate(b); out.Terminal() {
		panic(fmt.Sprintf("search: position already %v", out.State))
	}
	if depth < 1 {
		panic(fmt.Sprintf("search: depth %d leaves no move to choose", depth))
	}

	start := time.Now()
	s := e.searcher(b, side)
	res := s.search(depth, -Infinity, Infinity, true, true)
	res.Nodes = s.nodes
	e.log.Debugw("search finished",
		"side", side,
		"depth", depth,
		"move", res.Move,
		"value", res.Value,
		"nodes", s.nodes,
		"cutoffs", s.cutoffs,
		"elapsed", time.Since(start),
	)
	return res
}

type searcher struct {
	*Engine
	board   *board.Board
	side    board.Cell
	nodes   int
	cutoffs int
}

func (e *Engine) searcher(b *board.Board, side board.Cell) *searcher {
	return &searcher{Engine: e, board: b.Clone(), side: side}
}

func (s *searcher) search(depth, alpha, beta int, maximizing, root bool) Result {
	s.nodes++
	moves := s.moves(root)
	switch out := s.rules.Evaluate(s.board); out.State {
	case rules.Win:
		if out.Winner == s.side {
			return Result{Value: Win}
		}
		return Result{Value: -Win}
	case rules.Draw:
		return Result{Value: 0}
	}
	if depth <= 0 {
		return Result{Value: s.eval.Score(s.board, s.side)}
	}

	mover := s.side
	best := Result{Value: -Infinity}
	if !maximizing {
		mover = s.side.Opponent()
		best.Value = Infinity
	}
	for m := range moves {
		s.board.Place(m, mover)
		child := s.search(depth-1, alpha, beta, !maximizing, false)
		s.board.Undo(m)

		// Strict comparisons keep the first move on ties.
		if maximizing {
			if child.Value > best.Value {
				best.Move, best.Value, best.Found = m, child.Value, true
			}
			alpha = max(alpha, best.Value)
		} else {
			if child.Value < best.Value {
				best.Move, best.Value, best.Found = m, child.Value, true
			}
			beta = min(beta, best.Value)
		}
		if alpha >= beta {
			s.cutoffs++
			break
		}
	}
	if !best.Found {
		panic("search: non-terminal position without legal moves")
	}
	return best
}

func (s *searcher) moves(root bool) iter.Seq[board.Move] {
	if !root || s.rng == nil {
		return s.board.LegalMoves()
	}
	moves := s.board.MoveList()
	for i := len(moves) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		moves[i], moves[j] = moves[j], moves[i]
	}
	return slices.Values(moves)
}
