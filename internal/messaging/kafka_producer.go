package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-stock-engine/internal/model"

	"github.com/segmentio/kafka-go"
)

type KafkaPublisher interface {
	Publish(ctx context.Context, event model.StockEvent) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string) KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}

	return &kafkaPublisher{
		writer:  writer,
		timeout: 5 * time.Second,
	}
}

// Publish writes one message keyed by operation id so every entry of an
// operation lands on the same partition.
func (p *kafkaPublisher) Publish(ctx context.Context, event model.StockEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal stock event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.Key()),
		Value: eventJSON,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write stock event to kafka: %w", err)
	}

	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
