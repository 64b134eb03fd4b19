package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-reservations/internal/models"

	"github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event-type"

type Producer struct {
	Writer *kafka.Writer
}

// NewProducer builds a writer without a fixed topic; every message names its own.
func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &Producer{Writer: writer}
}

// ReservationEvent is the payload of every reservation lifecycle topic.
type ReservationEvent struct {
	Type           string                   `json:"type"`
	ReservationID  string                   `json:"reservation_id"`
	UserID         *string                  `json:"user_id"`
	DestinationID  string                   `json:"destination_id"`
	Status         models.ReservationStatus `json:"status"`
	PreviousStatus models.ReservationStatus `json:"previous_status,omitempty"`
	TotalPrice     float64                  `json:"total_price"`
	Currency       string                   `json:"currency"`
	StartDate      time.Time                `json:"start_date"`
	OccurredAt     time.Time                `json:"occurred_at"`
}

func NewReservationEvent(eventType string, r *models.Reservation, previous models.ReservationStatus) ReservationEvent {
	return ReservationEvent{
		Type:           eventType,
		ReservationID:  r.ID,
		UserID:         r.UserID,
		DestinationID:  r.DestinationID,
		Status:         r.Status,
		PreviousStatus: previous,
		TotalPrice:     r.TotalPrice,
		Currency:       r.Currency,
		StartDate:      r.StartDate,
		OccurredAt:     r.UpdatedAt,
	}
}

func buildMessage(topic string, event ReservationEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(event.ReservationID),
		Value: value,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(event.Type)},
		},
	}, nil
}

// PublishReservationEvent keys the message by reservation ID so all events of
// one reservation land on the same partition.
func (p *Producer) PublishReservationEvent(ctx context.Context, topic string, event ReservationEvent) error {
	msg, err := buildMessage(topic, event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
