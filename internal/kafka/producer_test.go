package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"ms-reservations/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	userID := "user-1"
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	r := &models.Reservation{
		ID:            "res-1",
		UserID:        &userID,
		DestinationID: "dest-1",
		Status:        models.StatusCancelled,
		TotalPrice:    300,
		Currency:      "EUR",
		StartDate:     now.AddDate(0, 0, 40),
		UpdatedAt:     now,
	}

	event := NewReservationEvent("reservation.cancelled", r, models.StatusPending)
	msg, err := buildMessage("travel.reservation.cancelled", event)
	require.NoError(t, err)

	assert.Equal(t, "travel.reservation.cancelled", msg.Topic)
	assert.Equal(t, []byte("res-1"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "reservation.cancelled", string(msg.Headers[0].Value))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "cancelled", decoded["status"])
	assert.Equal(t, "pending", decoded["previous_status"])
	assert.Equal(t, "user-1", decoded["user_id"])
	assert.Equal(t, 300.0, decoded["total_price"])
}

func TestNewReservationEventGuest(t *testing.T) {
	r := &models.Reservation{ID: "res-2", Status: models.StatusPending}

	event := NewReservationEvent("reservation.created", r, "")
	msg, err := buildMessage("travel.reservation.created", event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Nil(t, decoded["user_id"])
	_, hasPrevious := decoded["previous_status"]
	assert.False(t, hasPrevious)
}

func TestEnsureTopicsExistWithoutBrokers(t *testing.T) {
	err := EnsureTopicsExist(nil, []string{"t"}, nil)
	assert.Error(t, err)
}

func TestDecodeReservationEvent(t *testing.T) {
	r := &models.Reservation{ID: "res-3", DestinationID: "dest-1", Status: models.StatusConfirmed, TotalPrice: 120.5, Currency: "TND"}
	msg, err := buildMessage("travel.reservation.status_changed", NewReservationEvent("reservation.status_changed", r, models.StatusPending))
	require.NoError(t, err)

	event, err := DecodeReservationEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, "res-3", event.ReservationID)
	assert.Equal(t, models.StatusPending, event.PreviousStatus)
	assert.Equal(t, 120.5, event.TotalPrice)
}

func TestDecodeReservationEventFallsBackToHeader(t *testing.T) {
	msg := kafka.Message{
		Value:   []byte(`{"reservation_id":"res-4","status":"cancelled"}`),
		Headers: []kafka.Header{{Key: "event-type", Value: []byte("reservation.cancelled")}},
	}

	event, err := DecodeReservationEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, "reservation.cancelled", event.Type)
}

func TestDecodeReservationEventRejectsGarbage(t *testing.T) {
	_, err := DecodeReservationEvent(kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)

	_, err = DecodeReservationEvent(kafka.Message{Value: []byte(`{"type":"reservation.created"}`)})
	assert.Error(t, err)
}
