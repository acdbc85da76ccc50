package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventHandler receives one decoded tracking event. A returned error is
// logged; the message is committed either way because notifications are
// best-effort.
type EventHandler func(ctx context.Context, event TrackingEvent) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads the tracking topic as part of a consumer group.
type Consumer struct {
	reader messageReader
	log    *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: log.With(zap.String("topic", topic), zap.String("group", groupID)),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume feeds decoded events to handler until ctx is done or the reader
// fails. Undecodable messages are skipped with a warning and committed.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		c.handle(ctx, msg, handler)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler EventHandler) {
	var event TrackingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.Warn("skip undecodable tracking event",
			zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset), zap.Error(err))
		return
	}

	c.log.Info("tracking event",
		zap.String("id", event.ID),
		zap.String("action", event.Action),
		zap.String("category", event.Category),
		zap.String("user_id", event.UserID),
	)
	if err := handler(ctx, event); err != nil {
		c.log.Warn("handle tracking event", zap.String("id", event.ID), zap.Error(err))
	}
}
