package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/signal-radar/internal/models"
)

// EventTypeSnapshot labels snapshot messages in the "type" header.
const EventTypeSnapshot = "signals.snapshot"

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends sync snapshots to a Kafka topic.
type Publisher struct {
	w MessageWriter
}

// NewPublisher connects a writer to topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return NewPublisherWithWriter(kafka.NewWriter(kafka.WriterConfig{
		Brokers:     brokers,
		Topic:       topic,
		Balancer:    &kafka.Hash{},
		MaxAttempts: 3,
	}))
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{w: w}
}

// PublishSnapshot writes ev keyed by the backing file, so snapshots of one
// file stay ordered on a single partition.
func (p *Publisher) PublishSnapshot(ctx context.Context, ev models.SnapshotEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.File),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventTypeSnapshot)},
			{Key: "event_id", Value: []byte(ev.ID)},
			{Key: "timestamp", Value: []byte(ev.TakenAt.UTC().Format(time.RFC3339))},
		},
	}

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}
