package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventGameStarted  = "game_started"
	EventMovePlayed   = "move_played"
	EventGameFinished = "game_finished"
)

type Event struct {
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

func Decode(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Producer writes events to Kafka. A nil *Producer is valid and drops
// everything, which is what callers get when no brokers are configured.
type Producer struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewProducer(brokers []string, topic string, log *zap.SugaredLogger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, log: log}
}

// Publish keys the message by gameId so one game's events stay ordered
// within a partition. Failures are logged, never returned.
func (p *Producer) Publish(ctx context.Context, event string, payload map[string]any) {
	if p == nil || p.writer == nil {
		return
	}
	data, err := json.Marshal(Event{Event: event, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		p.log.Errorw("encode analytics event", "event", event, "error", err)
		return
	}
	msg := kafka.Message{Value: data}
	if id, ok := payload["gameId"].(string); ok {
		msg.Key = []byte(id)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warnw("kafka publish failed", "event", event, "error", err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
