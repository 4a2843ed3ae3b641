package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HzRisho/IntelligenceSystems/internal/eval"
	"github.com/HzRisho/IntelligenceSystems/internal/storage"
)

// Hooks run on their own goroutine so a slow consumer never holds up a
// move. OnFinish fires once per finished game.
type Hooks struct {
	OnStart  func(Snapshot)
	OnMove   func(Snapshot)
	OnFinish func(Snapshot)
}

type ManagerConfig struct {
	Variants    map[string]Variant
	RandomStart bool
	Variety     bool
	Weights     *eval.Weights
	Book        storage.Store
	Logger      *zap.SugaredLogger
	Hooks       Hooks
}

// Tally counts finished games per variant from the human's point of view.
type Tally struct {
	Human int `json:"human"`
	Bot   int `json:"bot"`
	Draws int `json:"draws"`
}

type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	scoreboard map[string]*Tally
	cfg        ManagerConfig
	log        *zap.SugaredLogger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Variants == nil {
		cfg.Variants = make(map[string]Variant)
		for _, v := range Variants() {
			cfg.Variants[v.Name] = v
		}
	}
	return &Manager{
		sessions:   make(map[string]*Session),
		scoreboard: make(map[string]*Tally),
		cfg:        cfg,
		log:        cfg.Logger,
	}
}

// Variant resolves a name against the configured variants, which may
// carry depths overridden by configuration.
func (m *Manager) Variant(name string) (Variant, error) {
	v, ok := m.cfg.Variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return v, nil
}

func (m *Manager) Variants() []Variant {
	out := make([]Variant, 0, len(m.cfg.Variants))
	for _, v := range m.cfg.Variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Create starts a session. A nil humanFirst leaves the choice to the
// RandomStart setting, defaulting to the human opening.
func (m *Manager) Create(variant string, humanFirst *bool) (*Session, error) {
	v, err := m.Variant(variant)
	if err != nil {
		return nil, err
	}
	cfg := Config{
		ID:          uuid.NewString(),
		Variant:     v,
		RandomStart: m.cfg.RandomStart,
		HumanFirst:  true,
		Variety:     m.cfg.Variety,
		Weights:     m.cfg.Weights,
		Book:        m.cfg.Book,
		Logger:      m.log,
	}
	if humanFirst != nil {
		cfg.RandomStart = false
		cfg.HumanFirst = *humanFirst
	}
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.log.Infow("session created", "session", s.ID(), "variant", v.Name)
	m.fire(m.cfg.Hooks.OnStart, s.Snapshot())
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// SubmitMove returns the session snapshot after the move, whether or not
// it was accepted.
func (m *Manager) SubmitMove(ctx context.Context, id string, position int) (bool, Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return false, Snapshot{}, err
	}
	accepted := s.SubmitMove(ctx, position)
	snap := s.Snapshot()
	if !accepted {
		return false, snap, nil
	}
	m.fire(m.cfg.Hooks.OnMove, snap)
	if s.claimFinish() {
		m.record(snap)
		m.fire(m.cfg.Hooks.OnFinish, snap)
	}
	return true, snap, nil
}

func (m *Manager) Restart(id string) (Snapshot, error) {
	s, err := m.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.Restart()
	snap := s.Snapshot()
	m.fire(m.cfg.Hooks.OnStart, snap)
	return snap, nil
}

func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepIdle drops sessions untouched for longer than after and returns
// their ids.
func (m *Manager) SweepIdle(after time.Duration) []string {
	now := time.Now()
	var stale []string
	m.mu.RLock()
	for id, s := range m.sessions {
		if now.Sub(s.UpdatedAt()) > after {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()
	if len(stale) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := stale[:0]
	for _, id := range stale {
		s, ok := m.sessions[id]
		if !ok || now.Sub(s.UpdatedAt()) <= after {
			continue
		}
		delete(m.sessions, id)
		removed = append(removed, id)
		m.log.Infow("session expired", "session", id)
	}
	return removed
}

func (m *Manager) Scoreboard() map[string]Tally {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Tally, len(m.scoreboard))
	for name, t := range m.scoreboard {
		out[name] = *t
	}
	return out
}

func (m *Manager) record(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.scoreboard[snap.Variant]
	if !ok {
		t = &Tally{}
		m.scoreboard[snap.Variant] = t
	}
	switch {
	case snap.Status.Result == Draw:
		t.Draws++
	case snap.Status.Winner == snap.Human:
		t.Human++
	default:
		t.Bot++
	}
}

func (m *Manager) fire(hook func(Snapshot), snap Snapshot) {
	if hook != nil {
		go hook(snap)
	}
}
