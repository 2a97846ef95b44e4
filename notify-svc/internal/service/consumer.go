package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tablebook/notify-svc/internal/domain"
)

const (
	ResultStored    = "stored"
	ResultDuplicate = "duplicate"
	ResultMalformed = "malformed"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"

	readBackoff = time.Second
)

type Consumer struct {
	Reader   MessageReader
	Store    StoreInterface
	Recorder Recorder
	Logger   zerolog.Logger
	Now      func() time.Time
}

func NewConsumer(reader MessageReader, store StoreInterface, recorder Recorder, logger zerolog.Logger) *Consumer {
	return &Consumer{
		Reader:   reader,
		Store:    store,
		Recorder: recorder,
		Logger:   logger.With().Str("component", "consumer").Logger(),
		Now:      time.Now,
	}
}

// Start reads until ctx is cancelled. Every fetched message is committed,
// including the ones that could not be stored, so a poison message never
// blocks the partition.
func (c *Consumer) Start(ctx context.Context) error {
	c.Logger.Info().Msg("starting notification consumer")
	for {
		message, err := c.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.Logger.Error().Err(err).Msg("error reading message")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readBackoff):
			}
			continue
		}

		var msg domain.KafkaMessage
		if err := json.Unmarshal(message.Value, &msg); err != nil {
			c.Logger.Warn().Err(err).Int64("offset", message.Offset).Msg("error unmarshaling message")
			c.record(ResultMalformed)
		} else if err := c.ProcessNotification(ctx, msg); err != nil && ctx.Err() != nil {
			return nil
		}

		if err := c.Reader.CommitMessages(ctx, message); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.Logger.Error().Err(err).Int64("offset", message.Offset).Msg("error committing message")
		}
	}
}

func (c *Consumer) ProcessNotification(ctx context.Context, msg domain.KafkaMessage) error {
	if err := msg.Validate(); err != nil {
		result := ResultMalformed
		if errors.Is(err, domain.ErrUnknownType) {
			result = ResultSkipped
		}
		c.Logger.Warn().Err(err).Str("type", msg.Type).Msg("skipping notification")
		c.record(result)
		return err
	}

	n := domain.FromMessage(msg, c.now())
	inserted, err := c.Store.Insert(ctx, n)
	if err != nil {
		c.Logger.Error().Err(err).Str("user_id", msg.UserID.String()).Str("type", msg.Type).Msg("error storing notification")
		c.record(ResultFailed)
		return fmt.Errorf("store notification: %w", err)
	}
	if !inserted {
		c.Logger.Debug().Str("id", n.ID.String()).Msg("duplicate notification ignored")
		c.record(ResultDuplicate)
		return nil
	}

	c.Logger.Info().Str("id", n.ID.String()).Str("user_id", n.UserID.String()).Str("type", n.Type).Msg("notification stored")
	c.record(ResultStored)
	return nil
}

func (c *Consumer) record(result string) {
	if c.Recorder != nil {
		c.Recorder.MessageConsumed(result)
	}
}

func (c *Consumer) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
