package server

import (
	"context"
	"time"

	"github.com/HzRisho/IntelligenceSystems/internal/analytics"
	"github.com/HzRisho/IntelligenceSystems/internal/board"
	"github.com/HzRisho/IntelligenceSystems/internal/game"
)

const publishTimeout = 5 * time.Second

func (s *Server) onStart(snap game.Snapshot) {
	s.publish(analytics.EventGameStarted, map[string]any{
		"gameId":     snap.ID,
		"variant":    snap.Variant,
		"human":      snap.Human.String(),
		"humanFirst": snap.Human == board.SideA,
		"round":      snap.Round,
	})
}

func (s *Server) onMove(snap game.Snapshot) {
	payload := map[string]any{
		"gameId":  snap.ID,
		"variant": snap.Variant,
		"moves":   snap.Moves,
		"state":   snap.State.String(),
	}
	if c := snap.LastBot; c != nil {
		payload["botPosition"] = c.Position
		payload["source"] = c.Source
		payload["nodes"] = c.Nodes
		payload["value"] = c.Value
		payload["elapsedMs"] = float64(c.Elapsed.Microseconds()) / 1000
	}
	s.publish(analytics.EventMovePlayed, payload)
}

func (s *Server) onFinish(snap game.Snapshot) {
	winner := ""
	if snap.Status.Result == game.Won {
		winner = "bot"
		if snap.Status.Winner == snap.Human {
			winner = "human"
		}
	}
	s.log.Infow("game finished", "session", snap.ID, "variant", snap.Variant, "result", snap.Status.Result, "winner", winner)
	s.publish(analytics.EventGameFinished, map[string]any{
		"gameId":    snap.ID,
		"variant":   snap.Variant,
		"result":    snap.Status.Result.String(),
		"winner":    winner,
		"moves":     snap.Moves,
		"duration":  snap.UpdatedAt.Sub(snap.StartedAt).Seconds(),
		"startedAt": snap.StartedAt,
		"endedAt":   snap.UpdatedAt,
	})
}

func (s *Server) publish(event string, payload map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	s.analytics.Publish(ctx, event, payload)
}
