package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HzRisho/IntelligenceSystems/internal/analytics"
	"github.com/HzRisho/IntelligenceSystems/internal/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		zap.NewExample().Sugar().Fatalw("load configuration", "error", err)
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroup,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("analytics consumer listening", "brokers", brokers, "topic", cfg.KafkaTopic, "group", cfg.KafkaGroup)
	metrics := analytics.NewMetrics()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(cfg.StatsEvery())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				metrics.Log(log)
				return nil
			case <-ticker.C:
				metrics.Log(log)
			}
		}
	})
	g.Go(func() error {
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			e, err := analytics.Decode(msg.Value)
			if err != nil {
				log.Warnw("skip malformed event", "offset", msg.Offset, "error", err)
				continue
			}
			metrics.Record(e)
			log.Debugw("event", "event", e.Event, "gameId", e.Payload["gameId"], "variant", e.Payload["variant"])
		}
	})

	if err := g.Wait(); err != nil {
		log.Errorw("analytics consumer stopped", "error", err)
		os.Exit(1)
	}
}
