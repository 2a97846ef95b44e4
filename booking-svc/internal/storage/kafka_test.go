package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablebook/booking-svc/internal/domain"
)

type captureWriter struct {
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &captureWriter{}
	p := &KafkaPublisher{Writer: w}

	n := domain.Notification{
		RecipientID: uuid.New(),
		Type:        domain.NotificationReservationConfirmed,
		Title:       "Reservation Confirmed",
		Message:     "Your reservation has been confirmed.",
		RelatedID:   uuid.New(),
		Timestamp:   time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), n))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, n.RecipientID.String(), string(w.msgs[0].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "reservation_confirmed", decoded["type"])
	assert.Equal(t, n.RecipientID.String(), decoded["user_id"])
	assert.Equal(t, n.RelatedID.String(), decoded["related_id"])
}
