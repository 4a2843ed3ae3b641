package game

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/HzRisho/IntelligenceSystems/internal/board"
	"github.com/HzRisho/IntelligenceSystems/internal/rules"
	"github.com/HzRisho/IntelligenceSystems/internal/storage"
)

// fixedRand always picks the same index, modulo n.
type fixedRand int

func (f fixedRand) Intn(n int) int { return int(f) % n }

func newSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	if cfg.Rand == nil {
		cfg.Rand = fixedRand(0)
	}
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestLookupVariants(t *testing.T) {
	v, err := Lookup("connect4")
	if err != nil || v.Kind != board.GravityDrop || v.K != 4 {
		t.Fatalf("unexpected connect4 variant %+v err=%v", v, err)
	}
	if _, err := Lookup("chess"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
}

func TestNewSessionRejectsBadVariant(t *testing.T) {
	cases := []struct {
		name    string
		variant Variant
		want    error
	}{
		{"run too long", Variant{Name: "bad", Rows: 3, Cols: 3, K: 4, Depth: 3}, rules.ErrInvalidRunLength},
		{"no rows", Variant{Name: "bad", Rows: 0, Cols: 3, K: 3, Depth: 3}, board.ErrInvalidDimensions},
		{"no depth", TicTacToe.WithDepth(0), ErrInvalidDepth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSession(Config{Variant: tc.variant})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitMoveRejectsWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Config{Variant: TicTacToe, HumanFirst: true})

	for _, pos := range []int{-1, 9, 100} {
		if s.SubmitMove(ctx, pos) {
			t.Fatalf("position %d accepted", pos)
		}
	}
	if s.Snapshot().Moves != 0 {
		t.Fatalf("rejected moves changed the board")
	}

	if !s.SubmitMove(ctx, 0) {
		t.Fatalf("legal move rejected")
	}
	before := s.Snapshot()
	if before.Moves != 2 || before.LastBot == nil || before.LastBot.Source != SourceSearch {
		t.Fatalf("expected human move plus searched reply, got %+v", before)
	}
	if s.CellAt(0, 0) != board.SideA {
		t.Fatalf("human piece missing at 0")
	}
	if s.SubmitMove(ctx, 0) {
		t.Fatalf("occupied cell accepted")
	}
	if after := s.Snapshot(); after.Moves != before.Moves || after.Board[0][0] != board.SideA {
		t.Fatalf("rejected move changed the session")
	}
}

func TestSubmitMoveFullColumn(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Config{Variant: ConnectFour, HumanFirst: true})
	for s.SubmitMove(ctx, 0) {
	}
	if s.State() != Finished && s.CellAt(0, 0) == board.Empty {
		t.Fatalf("column 0 rejected before it was full")
	}
	moves := s.Snapshot().Moves
	if s.SubmitMove(ctx, 0) {
		t.Fatalf("move into full column accepted")
	}
	if s.Snapshot().Moves != moves {
		t.Fatalf("rejected move changed the session")
	}
}

func TestBotOpensWithRandomMove(t *testing.T) {
	s := newSession(t, Config{Variant: TicTacToe, HumanFirst: false, Rand: fixedRand(4)})
	if s.HumanSide() != board.SideB || s.BotSide() != board.SideA {
		t.Fatalf("bot should hold the opening side")
	}
	snap := s.Snapshot()
	if snap.LastBot == nil || snap.LastBot.Source != SourceRandom || snap.LastBot.Position != 4 {
		t.Fatalf("expected random opening at 4, got %+v", snap.LastBot)
	}
	if s.CellAt(1, 1) != board.SideA || snap.ToMove != board.SideB {
		t.Fatalf("unexpected board after opening:\n%s", s.Board())
	}
}

func TestRestartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, Config{Variant: ConnectFour, HumanFirst: true})
	s.SubmitMove(ctx, 2)
	s.SubmitMove(ctx, 2)

	s.Restart()
	first := s.Snapshot()
	s.Restart()
	second := s.Snapshot()

	for _, snap := range []Snapshot{first, second} {
		if snap.Moves != 0 || snap.State != AwaitingMove || snap.Status.Result != InProgress {
			t.Fatalf("restart did not reset the game: %+v", snap)
		}
		for r := range snap.Board {
			for c := range snap.Board[r] {
				if snap.Board[r][c] != board.Empty {
					t.Fatalf("cell (%d,%d) not empty after restart", r, c)
				}
			}
		}
		if len(snap.Legal) != ConnectFour.Cols {
			t.Fatalf("expected %d legal columns, got %v", ConnectFour.Cols, snap.Legal)
		}
	}
	if second.Round != first.Round+1 {
		t.Fatalf("rounds not counted: %d then %d", first.Round, second.Round)
	}
}

func TestRandomStartAssignsSides(t *testing.T) {
	s := newSession(t, Config{Variant: TicTacToe, RandomStart: true, HumanFirst: true, Rand: fixedRand(1)})
	if s.HumanSide() != board.SideB {
		t.Fatalf("coin flip of 1 should hand the opening to the bot")
	}
	if s.Snapshot().Moves != 1 {
		t.Fatalf("bot did not open")
	}
}

func TestTicTacToeBotNeverLoses(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))
	for game := 0; game < 6; game++ {
		s := newSession(t, Config{Variant: TicTacToe, HumanFirst: game%2 == 0, Rand: fixedRand(game)})
		for s.State() != Finished {
			legal := s.Snapshot().Legal
			if !s.SubmitMove(ctx, legal[rng.Intn(len(legal))]) {
				t.Fatalf("legal move rejected")
			}
		}
		st := s.Status()
		if st.Result == Won && st.Winner == s.HumanSide() {
			t.Fatalf("game %d: human beat exact search:\n%s", game, s.Board())
		}
		if st.Result == Won && len(st.Line) != TicTacToe.K {
			t.Fatalf("winning line has %d cells", len(st.Line))
		}
		for pos := 0; pos < 9; pos++ {
			if s.SubmitMove(ctx, pos) {
				t.Fatalf("move %d accepted after the game finished", pos)
			}
		}
		if s.State() != Finished {
			t.Fatalf("finished state is not sticky")
		}
	}
}

func TestBotUsesPositionBook(t *testing.T) {
	ctx := context.Background()
	book := storage.NewMemoryStore()

	first := newSession(t, Config{Variant: TicTacToe, HumanFirst: true, Book: book})
	first.SubmitMove(ctx, 0)
	if book.Len() != 1 {
		t.Fatalf("expected one book entry, got %d", book.Len())
	}

	second := newSession(t, Config{Variant: TicTacToe, HumanFirst: true, Book: book})
	second.SubmitMove(ctx, 0)
	a, b := first.Snapshot().LastBot, second.Snapshot().LastBot
	if b.Source != SourceBook || b.Position != a.Position {
		t.Fatalf("expected book reply %d, got %+v", a.Position, b)
	}
}

func TestBotIgnoresIllegalBookEntry(t *testing.T) {
	ctx := context.Background()
	book := storage.NewMemoryStore()
	key := storage.Key{Variant: TicTacToe.Name, Depth: TicTacToe.Depth, Board: "O________"}
	if err := book.Save(ctx, key, storage.Entry{Position: 0}); err != nil {
		t.Fatal(err)
	}

	s := newSession(t, Config{Variant: TicTacToe, HumanFirst: true, Book: book})
	if !s.SubmitMove(ctx, 0) {
		t.Fatalf("legal move rejected")
	}
	last := s.Snapshot().LastBot
	if last.Source != SourceSearch || last.Position == 0 {
		t.Fatalf("bot trusted an occupied book move: %+v", last)
	}
}

func TestSessionBoardIsACopy(t *testing.T) {
	s := newSession(t, Config{Variant: TicTacToe, HumanFirst: true})
	b := s.Board()
	b.Place(board.Move{Row: 0, Col: 0}, board.SideA)
	if s.CellAt(0, 0) != board.Empty {
		t.Fatalf("mutating Board() leaked into the session")
	}
}

func TestVarietyBypassesPositionBook(t *testing.T) {
	ctx := context.Background()
	book := storage.NewMemoryStore()
	key := storage.Key{Variant: TicTacToe.Name, Depth: TicTacToe.Depth, Board: "O________"}
	if err := book.Save(ctx, key, storage.Entry{Position: 8}); err != nil {
		t.Fatal(err)
	}

	s := newSession(t, Config{Variant: TicTacToe, HumanFirst: true, Variety: true, Book: book, Rand: rand.New(rand.NewSource(1))})
	if !s.SubmitMove(ctx, 0) {
		t.Fatalf("legal move rejected")
	}
	if last := s.Snapshot().LastBot; last.Source != SourceSearch {
		t.Fatalf("expected a fresh search with variety on, got %+v", last)
	}
	if book.Len() != 1 {
		t.Fatalf("variety search should not write to the book, have %d entries", book.Len())
	}
}

func TestConnectFourGameRunsToCompletion(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(11))
	s := newSession(t, Config{Variant: ConnectFour, HumanFirst: true})
	searched := 0
	for s.State() != Finished {
		legal := s.Snapshot().Legal
		if !s.SubmitMove(ctx, legal[rng.Intn(len(legal))]) {
			t.Fatalf("legal move rejected")
		}
		if last := s.Snapshot().LastBot; last != nil && last.Source == SourceSearch && last.Nodes > 0 {
			searched++
		}
		if err := s.Board().Validate(); err != nil {
			t.Fatalf("live board invalid: %v", err)
		}
	}
	if searched == 0 {
		t.Fatalf("bot never searched")
	}
}
