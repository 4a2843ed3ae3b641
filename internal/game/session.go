package game

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"lukechampine.com/frand"

	"github.com/HzRisho/IntelligenceSystems/internal/board"
	"github.com/HzRisho/IntelligenceSystems/internal/eval"
	"github.com/HzRisho/IntelligenceSystems/internal/rules"
	"github.com/HzRisho/IntelligenceSystems/internal/search"
	"github.com/HzRisho/IntelligenceSystems/internal/storage"
)

type State int

const (
	AwaitingMove State = iota
	Evaluating
	Finished
)

func (s State) String() string {
	switch s {
	case AwaitingMove:
		return "awaiting_move"
	case Evaluating:
		return "evaluating"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{AwaitingMove, Evaluating, Finished} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

type Result int

const (
	InProgress Result = iota
	Won
	Draw
)

func (r Result) String() string {
	switch r {
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(text []byte) error {
	for _, res := range []Result{InProgress, Won, Draw} {
		if res.String() == string(text) {
			*r = res
			return nil
		}
	}
	return fmt.Errorf("unknown game result %q", text)
}

// Status is the outcome of the current game. Winner and Line are set
// only when Result is Won.
type Status struct {
	Result Result       `json:"result"`
	Winner board.Cell   `json:"winner,omitempty"`
	Line   []board.Move `json:"line,omitempty"`
}

type Config struct {
	ID      string
	Variant Variant
	// RandomStart picks the opening side by coin flip on every restart
	// and overrides HumanFirst.
	RandomStart bool
	HumanFirst  bool
	// Variety lets the bot pick among equally valued moves at random.
	Variety bool
	Weights *eval.Weights
	Rand    search.Source
	Book    storage.Store
	Logger  *zap.SugaredLogger
}

// Session is one human-versus-bot game. It owns the live board; the bot
// only ever searches a copy.
type Session struct {
	mu sync.Mutex

	id      string
	cfg     Config
	variant Variant
	rules   *rules.Rules
	bot     *Bot
	rng     search.Source
	log     *zap.SugaredLogger

	board     *board.Board
	human     board.Cell
	state     State
	outcome   rules.Outcome
	lastBot   *Choice
	moves     int
	round     int
	announced bool
	startedAt time.Time
	// touched is the last activity in unix nanoseconds, readable without mu
	// so the idle sweep never waits on a running search.
	touched atomic.Int64
}

func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Variant.Validate(); err != nil {
		return nil, fmt.Errorf("variant %q: %w", cfg.Variant.Name, err)
	}
	weights := eval.DefaultWeights
	if cfg.Weights != nil {
		weights = *cfg.Weights
	}
	if cfg.Rand == nil {
		cfg.Rand = frand.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	log := cfg.Logger.With("session", cfg.ID, "variant", cfg.Variant.Name)

	opts := []search.Option{search.WithLogger(log)}
	if cfg.Variety {
		opts = append(opts, search.WithRand(cfg.Rand))
	}
	engine, err := cfg.Variant.engine(weights, opts...)
	if err != nil {
		return nil, fmt.Errorf("variant %q: %w", cfg.Variant.Name, err)
	}

	s := &Session{
		id:      cfg.ID,
		cfg:     cfg,
		variant: cfg.Variant,
		rules:   engine.Rules(),
		rng:     cfg.Rand,
		log:     log,
	}
	// A cached reply would pin the first random tie-break forever.
	book := cfg.Book
	if cfg.Variety {
		book = nil
	}
	s.bot = NewBot(board.SideB, cfg.Variant, engine, book, cfg.Rand, log)
	s.reset()
	return s, nil
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Variant() Variant { return s.variant }

// Restart discards the current game. It may be called in any state.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round++
	s.reset()
}

func (s *Session) reset() {
	s.board = s.variant.newBoard()
	s.moves = 0
	s.lastBot = nil
	s.outcome = rules.Outcome{State: rules.Ongoing}
	s.state = AwaitingMove
	s.announced = false
	s.startedAt = time.Now()
	s.touched.Store(s.startedAt.UnixNano())

	humanFirst := s.cfg.HumanFirst
	if s.cfg.RandomStart {
		humanFirst = s.rng.Intn(2) == 0
	}
	s.human = board.SideA
	if !humanFirst {
		s.human = board.SideB
	}
	s.bot.Side = s.human.Opponent()

	if s.bot.Side == board.SideA {
		s.botReply(context.Background())
	}
	s.log.Debugw("game started", "human", s.human, "round", s.round)
}

// SubmitMove plays the human's move at position and, if the game goes on,
// the bot's reply. An illegal or out-of-turn position leaves the session
// untouched and returns false.
func (s *Session) SubmitMove(ctx context.Context, position int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AwaitingMove || s.board.ToMove() != s.human {
		return false
	}
	m, ok := s.board.Resolve(position)
	if !ok {
		s.log.Debugw("move rejected", "position", position)
		return false
	}
	s.lastBot = nil
	s.apply(m, s.human)
	if s.state == Finished {
		return true
	}

	s.state = Evaluating
	s.botReply(ctx)
	return true
}

func (s *Session) botReply(ctx context.Context) {
	c, ok := s.bot.ChooseMove(ctx, s.board)
	if !ok {
		s.state = AwaitingMove
		return
	}
	s.lastBot = &c
	s.apply(c.Move, s.bot.Side)
	s.log.Debugw("bot moved",
		"position", c.Position,
		"value", c.Value,
		"nodes", c.Nodes,
		"source", c.Source,
	)
}

func (s *Session) apply(m board.Move, side board.Cell) {
	s.board.Place(m, side)
	s.moves++
	s.touched.Store(time.Now().UnixNano())
	s.outcome = s.rules.Evaluate(s.board)
	if s.outcome.Terminal() {
		s.state = Finished
		s.log.Infow("game finished", "result", s.outcome.State, "winner", s.outcome.Winner, "moves", s.moves)
		return
	}
	s.state = AwaitingMove
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Session) status() Status {
	switch s.outcome.State {
	case rules.Win:
		return Status{Result: Won, Winner: s.outcome.Winner, Line: s.outcome.Line}
	case rules.Draw:
		return Status{Result: Draw}
	default:
		return Status{Result: InProgress}
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) CellAt(r, c int) board.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.CellAt(r, c)
}

// Board returns a copy of the live board.
func (s *Session) Board() *board.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

func (s *Session) HumanSide() board.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.human
}

func (s *Session) BotSide() board.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bot.Side
}

func (s *Session) UpdatedAt() time.Time {
	return time.Unix(0, s.touched.Load())
}

// claimFinish reports true exactly once per finished game.
func (s *Session) claimFinish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Finished || s.announced {
		return false
	}
	s.announced = true
	return true
}

type Snapshot struct {
	ID        string         `json:"id"`
	Variant   string         `json:"variant"`
	Rows      int            `json:"rows"`
	Cols      int            `json:"cols"`
	K         int            `json:"k"`
	Kind      board.Kind     `json:"kind"`
	Board     [][]board.Cell `json:"board"`
	ToMove    board.Cell     `json:"toMove"`
	Human     board.Cell     `json:"human"`
	Bot       board.Cell     `json:"bot"`
	State     State          `json:"state"`
	Status    Status         `json:"status"`
	Legal     []int          `json:"legal"`
	LastBot   *Choice        `json:"lastBot,omitempty"`
	Moves     int            `json:"moves"`
	Round     int            `json:"round"`
	StartedAt time.Time      `json:"startedAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	legal := []int{}
	if s.state != Finished {
		for m := range s.board.LegalMoves() {
			legal = append(legal, s.board.Position(m))
		}
	}
	var last *Choice
	if s.lastBot != nil {
		c := *s.lastBot
		last = &c
	}
	return Snapshot{
		ID:        s.id,
		Variant:   s.variant.Name,
		Rows:      s.variant.Rows,
		Cols:      s.variant.Cols,
		K:         s.variant.K,
		Kind:      s.variant.Kind,
		Board:     s.board.Grid(),
		ToMove:    s.board.ToMove(),
		Human:     s.human,
		Bot:       s.bot.Side,
		State:     s.state,
		Status:    s.status(),
		Legal:     legal,
		LastBot:   last,
		Moves:     s.moves,
		Round:     s.round,
		StartedAt: s.startedAt,
		UpdatedAt: s.UpdatedAt(),
	}
}
