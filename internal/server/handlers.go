package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/HzRisho/IntelligenceSystems/internal/game"
)

type createRequest struct {
	Variant    string `json:"variant" binding:"required"`
	HumanFirst *bool  `json:"humanFirst"`
}

type moveRequest struct {
	Position *int `json:"position" binding:"required"`
}

type moveResponse struct {
	Accepted bool          `json:"accepted"`
	Game     game.Snapshot `json:"game"`
}

func (s *Server) handleVariants(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.Variants())
}

func (s *Server) handleScoreboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.Scoreboard())
}

func (s *Server) handleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.manager.Create(req.Variant, req.HumanFirst)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session.Snapshot())
}

func (s *Server) handleGet(c *gin.Context) {
	session, err := s.manager.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// handleMove answers 200 for rejected moves too; only a missing session
// or a malformed body is an HTTP error.
func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	accepted, snap, err := s.manager.SubmitMove(c.Request.Context(), id, *req.Position)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if accepted {
		s.hub.broadcast(id, stateMessage(snap))
	}
	c.JSON(http.StatusOK, moveResponse{Accepted: accepted, Game: snap})
}

func (s *Server) handleRestart(c *gin.Context) {
	id := c.Param("id")
	snap, err := s.manager.Restart(id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.hub.broadcast(id, stateMessage(snap))
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleDelete(c *gin.Context) {
	id := c.Param("id")
	if err := s.manager.Remove(id); err != nil {
		s.writeError(c, err)
		return
	}
	s.hub.closeGame(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrUnknownVariant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.log.Errorw("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
