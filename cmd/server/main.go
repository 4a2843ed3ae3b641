package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HzRisho/IntelligenceSystems/internal/analytics"
	"github.com/HzRisho/IntelligenceSystems/internal/config"
	"github.com/HzRisho/IntelligenceSystems/internal/game"
	"github.com/HzRisho/IntelligenceSystems/internal/server"
	"github.com/HzRisho/IntelligenceSystems/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		zap.NewExample().Sugar().Fatalw("load configuration", "error", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	book := openBook(ctx, cfg, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := book.Close(closeCtx); err != nil {
			logger.Warnw("close position book", "error", err)
		}
	}()

	producer := analytics.NewProducer(cfg.Brokers(), cfg.KafkaTopic, logger)
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Warnw("close analytics producer", "error", err)
		}
	}()

	srv := server.New(server.Config{
		Variants: map[string]game.Variant{
			game.TicTacToe.Name:   game.TicTacToe.WithDepth(cfg.TicTacToeDepth),
			game.ConnectFour.Name: game.ConnectFour.WithDepth(cfg.Connect4Depth),
		},
		RandomStart: cfg.RandomStart,
		Variety:     cfg.SearchVariety,
		Book:        book,
		Analytics:   producer,
		Logger:      logger,
		IdleAfter:   cfg.IdleAfter(),
		SweepEvery:  cfg.SweepEvery(),
	})

	if err := srv.Run(ctx, cfg.ListenAddr()); err != nil {
		logger.Errorw("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// openBook picks the first configured backend that answers, falling back
// to memory so the service always starts.
func openBook(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) storage.Store {
	if cfg.PostgresURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			log.Warnw("postgres book disabled", "error", err)
		} else if err := pg.EnsureTables(ctx); err != nil {
			log.Warnw("postgres ensure tables failed", "error", err)
			_ = pg.Close(ctx)
		} else {
			log.Infow("position book", "backend", "postgres")
			return pg
		}
	}
	if cfg.RedisURL != "" {
		rs, err := storage.NewRedisStore(ctx, cfg.RedisURL, cfg.BookExpiry())
		if err != nil {
			log.Warnw("redis book disabled", "error", err)
		} else {
			log.Infow("position book", "backend", "redis")
			return rs
		}
	}
	if cfg.MongoURI != "" {
		ms, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Warnw("mongo book disabled", "error", err)
		} else {
			log.Infow("position book", "backend", "mongo")
			return ms
		}
	}
	log.Infow("position book", "backend", "memory")
	return storage.NewMemoryStore()
}
