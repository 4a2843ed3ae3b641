package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HzRisho/IntelligenceSystems/internal/board"
	"github.com/HzRisho/IntelligenceSystems/internal/search"
	"github.com/HzRisho/IntelligenceSystems/internal/storage"
)

// Move sources reported in Choice.Source.
const (
	SourceRandom = "random"
	SourceBook   = "book"
	SourceSearch = "search"
)

type Choice struct {
	Move     board.Move    `json:"move"`
	Position int           `json:"position"`
	Value    int           `json:"value"`
	Nodes    int           `json:"nodes"`
	Source   string        `json:"source"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Bot is the automated opponent. It opens with a random move, answers
// known positions from the book and searches everything else.
type Bot struct {
	Side    board.Cell
	variant Variant
	engine  *search.Engine
	book    storage.Store
	rng     search.Source
	log     *zap.SugaredLogger
}

func NewBot(side board.Cell, variant Variant, engine *search.Engine, book storage.Store, rng search.Source, log *zap.SugaredLogger) *Bot {
	return &Bot{Side: side, variant: variant, engine: engine, book: book, rng: rng, log: log}
}

// ChooseMove reports false only when b has no legal move for the bot.
func (bt *Bot) ChooseMove(ctx context.Context, b *board.Board) (Choice, bool) {
	start := time.Now()
	moves := b.MoveList()
	if len(moves) == 0 {
		return Choice{}, false
	}

	if b.Pieces() == 0 {
		m := moves[bt.rng.Intn(len(moves))]
		return bt.choice(b, m, 0, 0, SourceRandom, start), true
	}

	key := storage.Key{Variant: bt.variant.Name, Depth: bt.variant.Depth, Board: b.Key()}
	if bt.book != nil {
		e, ok, err := bt.book.Lookup(ctx, key)
		switch {
		case err != nil:
			bt.log.Warnw("book lookup failed", "key", key.String(), "error", err)
		case ok:
			if m, legal := b.Resolve(e.Position); legal {
				return bt.choice(b, m, e.Value, 0, SourceBook, start), true
			}
			bt.log.Warnw("book entry is not a legal move", "key", key.String(), "position", e.Position)
		}
	}

	res := bt.engine.BestMove(b, bt.Side, bt.variant.Depth)
	if !res.Found {
		return Choice{}, false
	}
	c := bt.choice(b, res.Move, res.Value, res.Nodes, SourceSearch, start)

	if bt.book != nil {
		if err := bt.book.Save(ctx, key, storage.Entry{Position: c.Position, Value: c.Value}); err != nil {
			bt.log.Warnw("book save failed", "key", key.String(), "error", err)
		}
	}
	return c, true
}

func (bt *Bot) choice(b *board.Board, m board.Move, value, nodes int, source string, start time.Time) Choice {
	return Choice{
		Move:     m,
		Position: b.Position(m),
		Value:    value,
		Nodes:    nodes,
		Source:   source,
		Elapsed:  time.Since(start),
	}
}
