package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"tablebook/auth"
	"tablebook/notify-svc/internal/domain"
)

type StoreInterface interface {
	// Insert reports false when the notification was already stored.
	Insert(ctx context.Context, n domain.Notification) (bool, error)
	List(ctx context.Context, userID uuid.UUID, q domain.InboxQuery) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Recorder counts consumed messages by result.
type Recorder interface {
	MessageConsumed(result string)
}

type ConsumerInterface interface {
	Start(ctx context.Context) error
	ProcessNotification(ctx context.Context, msg domain.KafkaMessage) error
}

type InboxServiceInterface interface {
	List(ctx context.Context, p *auth.Principal, q domain.InboxQuery) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, p *auth.Principal) (int, error)
	MarkRead(ctx context.Context, p *auth.Principal, id uuid.UUID) error
	MarkAllRead(ctx context.Context, p *auth.Principal) (int64, error)
}

var _ MessageReader = (*kafka.Reader)(nil)
