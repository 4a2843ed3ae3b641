package analytics

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type VariantStats struct {
	Started      int     `json:"started"`
	Finished     int     `json:"finished"`
	HumanWins    int     `json:"humanWins"`
	BotWins      int     `json:"botWins"`
	Draws        int     `json:"draws"`
	BotMoves     int     `json:"botMoves"`
	AvgNodes     float64 `json:"avgNodes"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
	AvgDuration  float64 `json:"avgDurationSeconds"`
	BookHits     int     `json:"bookHits"`

	nodes     float64
	latency   float64
	durations float64
}

// Metrics aggregates the event stream per variant.
type Metrics struct {
	mu          sync.Mutex
	variants    map[string]*VariantStats
	gamesPerDay map[string]int
	total       int
}

func NewMetrics() *Metrics {
	return &Metrics{
		variants:    make(map[string]*VariantStats),
		gamesPerDay: make(map[string]int),
	}
}

func (m *Metrics) Record(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.stats(str(e.Payload, "variant"))
	switch e.Event {
	case EventGameStarted:
		v.Started++
	case EventMovePlayed:
		if str(e.Payload, "source") == "" {
			return
		}
		v.BotMoves++
		v.nodes += num(e.Payload, "nodes")
		v.latency += num(e.Payload, "elapsedMs")
		if str(e.Payload, "source") == "book" {
			v.BookHits++
		}
	case EventGameFinished:
		m.total++
		v.Finished++
		v.durations += num(e.Payload, "duration")
		switch str(e.Payload, "winner") {
		case "human":
			v.HumanWins++
		case "bot":
			v.BotWins++
		default:
			v.Draws++
		}
		m.gamesPerDay[e.Timestamp.Format(time.DateOnly)]++
	}
}

func (m *Metrics) stats(variant string) *VariantStats {
	if variant == "" {
		variant = "unknown"
	}
	v, ok := m.variants[variant]
	if !ok {
		v = &VariantStats{}
		m.variants[variant] = v
	}
	return v
}

type Summary struct {
	TotalGames  int                     `json:"totalGames"`
	Variants    map[string]VariantStats `json:"variants"`
	GamesPerDay map[string]int          `json:"gamesPerDay"`
}

func (m *Metrics) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		TotalGames:  m.total,
		Variants:    make(map[string]VariantStats, len(m.variants)),
		GamesPerDay: make(map[string]int, len(m.gamesPerDay)),
	}
	for name, v := range m.variants {
		out := *v
		if v.BotMoves > 0 {
			out.AvgNodes = v.nodes / float64(v.BotMoves)
			out.AvgLatencyMs = v.latency / float64(v.BotMoves)
		}
		if v.Finished > 0 {
			out.AvgDuration = v.durations / float64(v.Finished)
		}
		s.Variants[name] = out
	}
	for day, n := range m.gamesPerDay {
		s.GamesPerDay[day] = n
	}
	return s
}

func (m *Metrics) Log(log *zap.SugaredLogger) {
	s := m.Summary()
	names := make([]string, 0, len(s.Variants))
	for name := range s.Variants {
		names = append(names, name)
	}
	sort.Strings(names)

	log.Infow("analytics summary", "totalGames", s.TotalGames, "gamesPerDay", s.GamesPerDay)
	for _, name := range names {
		v := s.Variants[name]
		log.Infow("variant stats",
			"variant", name,
			"started", v.Started,
			"finished", v.Finished,
			"humanWins", v.HumanWins,
			"botWins", v.BotWins,
			"draws", v.Draws,
			"avgNodes", v.AvgNodes,
			"avgLatencyMs", v.AvgLatencyMs,
			"bookHits", v.BookHits,
		)
	}
}

func str(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

// num accepts float64 from decoded JSON and ints from in-process payloads.
func num(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
