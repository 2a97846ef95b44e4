package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeReservationNew       = "reservation_new"
	TypeReservationConfirmed = "reservation_confirmed"
	TypeReservationCancelled = "reservation_cancelled"
)

var knownTypes = map[string]bool{
	TypeReservationNew:       true,
	TypeReservationConfirmed: true,
	TypeReservationCancelled: true,
}

var (
	ErrNotFound         = errors.New("notification not found")
	ErrNotAuthenticated = errors.New("authentication required")
	ErrInvalidMessage   = errors.New("invalid notification message")
	ErrUnknownType      = errors.New("unknown notification type")
)

// KafkaMessage is the event booking-svc publishes on the notifications topic.
type KafkaMessage struct {
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	RelatedID uuid.UUID `json:"related_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (m KafkaMessage) Validate() error {
	if m.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", ErrInvalidMessage)
	}
	if m.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMessage)
	}
	if !knownTypes[m.Type] {
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	return nil
}

var idNamespace = uuid.MustParse("4f1d3c52-8f0e-4a53-9d5e-2b7c1e6a9f10")

// EventID is stable across redeliveries of the same event.
func (m KafkaMessage) EventID() uuid.UUID {
	key := fmt.Sprintf("%s|%s|%s|%d", m.UserID, m.Type, m.RelatedID, m.Timestamp.UnixNano())
	return uuid.NewSHA1(idNamespace, []byte(key))
}

// Notification is one inbox entry.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	RelatedID *uuid.UUID `json:"related_id,omitempty"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`
}

// FromMessage builds the inbox row for msg. A zero timestamp falls back to now.
func FromMessage(msg KafkaMessage, now time.Time) Notification {
	n := Notification{
		ID:        msg.EventID(),
		UserID:    msg.UserID,
		Type:      msg.Type,
		Title:     msg.Title,
		Message:   msg.Message,
		CreatedAt: msg.Timestamp,
	}
	if msg.RelatedID != uuid.Nil {
		related := msg.RelatedID
		n.RelatedID = &related
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	return n
}

type InboxQuery struct {
	UnreadOnly bool
	Limit      int
}
