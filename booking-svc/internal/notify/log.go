package notify

import (
	"context"

	"github.com/rs/zerolog"

	"tablebook/booking-svc/internal/domain"
)

// LogPublisher writes events to the log. It stands in for the broker when
// none is configured.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(_ context.Context, n domain.Notification) error {
	p.Logger.Info().
		Str("type", string(n.Type)).
		Str("recipient", n.RecipientID.String()).
		Str("related_id", n.RelatedID.String()).
		Str("title", n.Title).
		Str("message", n.Message).
		Msg("notification")
	return nil
}
