package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/trade-journal/internal/id"
	"github.com/trogers1052/trade-journal/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing journal events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishTransactionRecorded publishes a deposit or withdrawal
func (p *Producer) PublishTransactionRecorded(ctx context.Context, tx *models.Transaction) error {
	event := models.JournalEvent{
		ID:          id.New(),
		EventType:   models.EventTransactionRecorded,
		UserID:      tx.UserID,
		Transaction: tx,
		Timestamp:   time.Now().UTC(),
	}
	return p.publish(ctx, event)
}

// PublishDailyTradeUpserted publishes the stored state of a daily record
func (p *Producer) PublishDailyTradeUpserted(ctx context.Context, d *models.DailyTrade) error {
	event := models.JournalEvent{
		ID:         id.New(),
		EventType:  models.EventDailyTradeUpserted,
		UserID:     d.UserID,
		DailyTrade: d,
		Timestamp:  time.Now().UTC(),
	}
	return p.publish(ctx, event)
}

// Messages are keyed by user so one user's events stay on one partition.
func (p *Producer) publish(ctx context.Context, event models.JournalEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
