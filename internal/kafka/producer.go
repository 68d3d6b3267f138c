package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/trogers1052/stock-calculator/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes ledger events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishPositionOpened publishes a position opened event
func (p *Producer) PublishPositionOpened(ctx context.Context, position *models.OpenPosition) error {
	event := models.LedgerEvent{
		EventType:  models.EventPositionOpened,
		PositionID: position.ID,
		Ticker:     position.Ticker,
		Position:   position,
	}
	return p.publish(ctx, event)
}

// PublishPositionSold publishes a sale. remaining is nil when the position
// was closed by the sale.
func (p *Producer) PublishPositionSold(ctx context.Context, sale *models.HistoryRecord, positionID int, remaining *models.OpenPosition) error {
	event := models.LedgerEvent{
		EventType:  models.EventPositionSold,
		PositionID: positionID,
		Ticker:     sale.Ticker,
		Position:   remaining,
		Sale:       sale,
	}
	return p.publish(ctx, event)
}

// PublishPositionDeleted publishes a position deleted event
func (p *Producer) PublishPositionDeleted(ctx context.Context, position *models.OpenPosition) error {
	event := models.LedgerEvent{
		EventType:  models.EventPositionDeleted,
		PositionID: position.ID,
		Ticker:     position.Ticker,
	}
	return p.publish(ctx, event)
}

// Events for one ticker share a key so they land on one partition in order
func (p *Producer) publish(ctx context.Context, event models.LedgerEvent) error {
	event.EventID = uuid.NewString()
	event.Timestamp = p.now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Ticker),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
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
