package board

import (
	"errors"
	"slices"
	"testing"
)

func mustParse(t *testing.T, rows, cols int, kind Kind, text string) *Board {
	t.Helper()
	b, err := Parse(rows, cols, kind, text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return b
}

func TestNewRejectsBadDimensions(t *testing.T) {
	cases := [][2]int{{0, 3}, {3, 0}, {-1, 5}}
	for _, dims := range cases {
		if _, err := New(dims[0], dims[1], FreePlacement); !errors.Is(err, ErrInvalidDimensions) {
			t.Fatalf("expected ErrInvalidDimensions for %v, got %v", dims, err)
		}
	}
}

func TestFreePlacementLegalMovesOrder(t *testing.T) {
	b := mustParse(t, 3, 3, FreePlacement, "OX_ ___ ___")
	var positions []int
	for m := range b.LegalMoves() {
		positions = append(positions, b.Position(m))
	}
	want := []int{2, 3, 4, 5, 6, 7, 8}
	if !slices.Equal(positions, want) {
		t.Fatalf("expected %v, got %v", want, positions)
	}
}

func TestLegalMovesIsRestartable(t *testing.T) {
	b := mustParse(t, 3, 3, FreePlacement, "O________")
	seq := b.LegalMoves()
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) || len(first) != 8 {
		t.Fatalf("expected two identical 8-move passes, got %v and %v", first, second)
	}
}

func TestGravityDropResolvesLowestRow(t *testing.T) {
	b, err := New(5, 5, GravityDrop)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := b.Resolve(2)
	if !ok || m.Row != 4 || m.Col != 2 {
		t.Fatalf("expected drop to (4,2), got %v ok=%v", m, ok)
	}
	b.Place(m, SideA)
	m, ok = b.Resolve(2)
	if !ok || m.Row != 3 {
		t.Fatalf("expected second drop to row 3, got %v", m)
	}
}

func TestGravityFullColumnNeverLegal(t *testing.T) {
	b := mustParse(t, 5, 5, GravityDrop, `
		O____
		X____
		O____
		X____
		O___X`)
	for m := range b.LegalMoves() {
		if m.Col == 0 {
			t.Fatalf("full column 0 appeared in legal moves")
		}
	}
	if _, ok := b.Resolve(0); ok {
		t.Fatalf("expected full column to be rejected")
	}
	if _, ok := b.Resolve(5); ok {
		t.Fatalf("expected out of range column to be rejected")
	}
}

func TestPlaceUndoRestoresBookkeeping(t *testing.T) {
	b := mustParse(t, 5, 5, GravityDrop, "_____ _____ _____ _____ O_X__")
	before := b.Clone()
	m, _ := b.Resolve(0)
	b.Place(m, SideA)
	if b.Count(SideA) != 2 || b.ToMove() != SideB {
		t.Fatalf("unexpected counts after place: %d, to move %v", b.Count(SideA), b.ToMove())
	}
	b.Undo(m)
	if b.Key() != before.Key() || !slices.Equal(b.heights, before.heights) || b.counts != before.counts {
		t.Fatalf("undo did not restore board:\n%s\nwant\n%s", b, before)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("board invalid after undo: %v", err)
	}
}

func TestPlaceOnOccupiedPanics(t *testing.T) {
	b := mustParse(t, 3, 3, FreePlacement, "O________")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic placing on occupied cell")
		}
	}()
	b.Place(Move{Row: 0, Col: 0}, SideB)
}

func TestPlaceBreakingGravityPanics(t *testing.T) {
	b, _ := New(5, 5, GravityDrop)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for floating piece")
		}
	}()
	b.Place(Move{Row: 0, Col: 0}, SideA)
}

func TestParseValidatesInvariants(t *testing.T) {
	cases := []struct {
		name string
		kind Kind
		text string
		want error
	}{
		{"too many X", FreePlacement, "XX_______", ErrPieceCount},
		{"too many O", FreePlacement, "OOO_X____", ErrPieceCount},
		{"floating", GravityDrop, "O__ ___ __X", ErrFloatingPiece},
		{"short", FreePlacement, "O__", ErrTextLength},
		{"bad rune", FreePlacement, "O_Z______", ErrInvalidCell},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(3, 3, tc.kind, tc.text); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b, _ := New(3, 3, FreePlacement)
	clone := b.Clone()
	clone.Place(Move{Row: 1, Col: 1}, SideA)
	if b.CellAt(1, 1) != Empty {
		t.Fatalf("clone mutation leaked into original")
	}
}

func TestIsFull(t *testing.T) {
	b := mustParse(t, 3, 3, FreePlacement, "OXO OXX XOO")
	if !b.IsFull() || b.HasLegalMove() {
		t.Fatalf("expected full board without legal moves")
	}
}

func TestCellAndKindTextRoundTrip(t *testing.T) {
	for _, c := range []Cell{Empty, SideA, SideB} {
		text, _ := c.MarshalText()
		var got Cell
		if err := got.UnmarshalText(text); err != nil || got != c {
			t.Fatalf("cell %v round-tripped to %v err=%v", c, got, err)
		}
	}
	var c Cell
	if err := c.UnmarshalText([]byte("Z")); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("expected ErrInvalidCell, got %v", err)
	}
	var k Kind
	if err := k.UnmarshalText([]byte("gravity")); err != nil || k != GravityDrop {
		t.Fatalf("unexpected kind %v err=%v", k, err)
	}
	if err := k.UnmarshalText([]byte("hex")); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestValidateHoldsThroughPlay(t *testing.T) {
	for _, kind := range []Kind{FreePlacement, GravityDrop} {
		b, err := New(3, 3, kind)
		if err != nil {
			t.Fatal(err)
		}
		if err := b.Validate(); err != nil {
			t.Fatalf("%v: fresh board invalid: %v", kind, err)
		}
		if b.Count(Empty) != 9 {
			t.Fatalf("%v: expected 9 empty cells, got %d", kind, b.Count(Empty))
		}

		var played []Move
		side := SideA
		for b.HasLegalMove() {
			m := b.MoveList()[0]
			b.Place(m, side)
			played = append(played, m)
			side = side.Opponent()
			if err := b.Validate(); err != nil {
				t.Fatalf("%v: invalid after %d moves: %v", kind, len(played), err)
			}
		}
		if b.Count(Empty) != 0 {
			t.Fatalf("%v: full board reports %d empty cells", kind, b.Count(Empty))
		}
		for i := len(played) - 1; i >= 0; i-- {
			b.Undo(played[i])
			if err := b.Validate(); err != nil {
				t.Fatalf("%v: invalid after undo: %v", kind, err)
			}
		}
		if b.Count(Empty) != 9 || b.Pieces() != 0 {
			t.Fatalf("%v: undo did not restore counts", kind)
		}
	}

	parsed := mustParse(t, 3, 3, FreePlacement, "O__ _X_ ___")
	parsed.Place(Move{Row: 2, Col: 2}, SideA)
	if err := parsed.Validate(); err != nil {
		t.Fatalf("parsed board invalid after place: %v", err)
	}
	if parsed.Count(Empty) != 6 {
		t.Fatalf("expected 6 empty cells, got %d", parsed.Count(Empty))
	}
}
