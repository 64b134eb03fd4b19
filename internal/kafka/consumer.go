package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ms-reservations/internal/logger"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewConsumer creates a Kafka consumer reading the given topics as groupID
func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log}
}

// Start consumes reservation events until ctx is cancelled. Messages that do
// not decode are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler func(msg kafka.Message, event ReservationEvent)) error {
	c.logger.Info("KAFKA", "Kafka consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		event, err := DecodeReservationEvent(msg)
		if err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Skipping message at %s/%d offset %d: %v", msg.Topic, msg.Partition, msg.Offset, err))
			continue
		}

		c.logger.LogKafka("CONSUME", msg.Topic, event.ReservationID)
		handler(msg, event)
	}
}

// DecodeReservationEvent parses a message produced by PublishReservationEvent.
func DecodeReservationEvent(msg kafka.Message) (ReservationEvent, error) {
	var event ReservationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal reservation event: %w", err)
	}
	if event.ReservationID == "" {
		return event, errors.New("reservation event without reservation_id")
	}
	if event.Type == "" {
		for _, h := range msg.Headers {
			if h.Key == eventTypeHeader {
				event.Type = string(h.Value)
			}
		}
	}
	return event, nil
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
