package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/zap"
)

// EventHandler receives decoded journal events
type EventHandler interface {
	HandleEvent(ctx context.Context, event models.JournalEvent) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads journal events from Kafka and hands them to an EventHandler
type Consumer struct {
	reader  messageReader
	topic   string
	handler EventHandler
	logger  *zap.Logger
}

// NewConsumer creates a new Kafka consumer for journal events
func NewConsumer(brokers []string, topic, groupID string, handler EventHandler, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader:  reader,
		topic:   topic,
		handler: handler,
		logger:  logger,
	}
}

// Start consumes messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer", zap.String("topic", c.topic))

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Kafka consumer shutting down")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("Error reading message", zap.Error(err))
			continue
		}

		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("Error processing message",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	c.logger.Debug("Received message",
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
		zap.ByteString("key", msg.Key))

	var event models.JournalEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal journal event: %w", err)
	}

	switch event.EventType {
	case models.EventTransactionRecorded:
		if event.Transaction == nil {
			return fmt.Errorf("event %s has no transaction", event.ID)
		}
	case models.EventDailyTradeUpserted:
		if event.DailyTrade == nil {
			return fmt.Errorf("event %s has no daily trade", event.ID)
		}
	default:
		c.logger.Debug("Ignoring event type", zap.String("event_type", event.EventType))
		return nil
	}

	if err := c.handler.HandleEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to handle event %s: %w", event.ID, err)
	}
	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// LogHandler writes each journal event to a zap logger
type LogHandler struct {
	Logger *zap.Logger
}

// HandleEvent implements EventHandler
func (h LogHandler) HandleEvent(_ context.Context, event models.JournalEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", event.EventType),
		zap.Int64("user_id", event.UserID),
		zap.Time("timestamp", event.Timestamp),
	}
	if tx := event.Transaction; tx != nil {
		fields = append(fields,
			zap.String("type", string(tx.Type)),
			zap.String("amount", tx.Amount.StringFixed(2)))
	}
	if d := event.DailyTrade; d != nil {
		fields = append(fields,
			zap.String("trade_date", d.Day()),
			zap.String("profit", d.Profit.StringFixed(2)),
			zap.String("loss", d.Loss.StringFixed(2)))
	}
	h.Logger.Info("Journal event", fields...)
	return nil
}
