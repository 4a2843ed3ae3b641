package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HzRisho/IntelligenceSystems/internal/analytics"
	"github.com/HzRisho/IntelligenceSystems/internal/eval"
	"github.com/HzRisho/IntelligenceSystems/internal/game"
	"github.com/HzRisho/IntelligenceSystems/internal/storage"
)

type Config struct {
	Variants    map[string]game.Variant
	RandomStart bool
	Variety     bool
	Weights     *eval.Weights
	Book        storage.Store
	Analytics   *analytics.Producer
	Logger      *zap.SugaredLogger
	IdleAfter   time.Duration
	SweepEvery  time.Duration
}

type Server struct {
	router    *gin.Engine
	manager   *game.Manager
	analytics *analytics.Producer
	hub       *hub
	log       *zap.SugaredLogger
	idleAfter time.Duration
	sweep     time.Duration
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = 30 * time.Minute
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = time.Minute
	}

	s := &Server{
		analytics: cfg.Analytics,
		hub:       newHub(),
		log:       cfg.Logger,
		idleAfter: cfg.IdleAfter,
		sweep:     cfg.SweepEvery,
	}
	s.manager = game.NewManager(game.ManagerConfig{
		Variants:    cfg.Variants,
		RandomStart: cfg.RandomStart,
		Variety:     cfg.Variety,
		Weights:     cfg.Weights,
		Book:        cfg.Book,
		Logger:      cfg.Logger,
		Hooks: game.Hooks{
			OnStart:  s.onStart,
			OnMove:   s.onMove,
			OnFinish: s.onFinish,
		},
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(cfg.Logger))

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/variants", s.handleVariants)
	router.GET("/scoreboard", s.handleScoreboard)
	router.POST("/games", s.handleCreate)
	router.GET("/games/:id", s.handleGet)
	router.POST("/games/:id/moves", s.handleMove)
	router.POST("/games/:id/restart", s.handleRestart)
	router.DELETE("/games/:id", s.handleDelete)
	router.GET("/ws", s.handleWS)

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Manager() *game.Manager { return s.manager }

// Run serves addr and sweeps idle sessions until ctx is cancelled, then
// shuts the listener down and drops open sockets.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Infow("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.sweeper(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.closeAll()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) sweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids := s.manager.SweepIdle(s.idleAfter)
			for _, id := range ids {
				s.hub.closeGame(id)
			}
			if len(ids) > 0 {
				s.log.Infow("idle sessions swept", "count", len(ids))
			}
		}
	}
}

func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugw("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
