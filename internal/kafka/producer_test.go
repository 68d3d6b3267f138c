package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-calculator/internal/models"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var producerNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.FixedZone("CET", 3600))

func newTestProducer() (*Producer, *recordingWriter) {
	writer := &recordingWriter{}
	return &Producer{
		writer: writer,
		topic:  "ledger-events",
		now:    func() time.Time { return producerNow },
	}, writer
}

func decodeEvent(t *testing.T, msg kafka.Message) models.LedgerEvent {
	t.Helper()
	var event models.LedgerEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	return event
}

func TestProducer_PublishPositionOpened(t *testing.T) {
	producer, writer := newTestProducer()

	position := &models.OpenPosition{
		ID:             7,
		Ticker:         "AAPL",
		BuyPrice:       decimal.NewFromInt(150),
		Shares:         10,
		BreakEvenPrice: decimal.NewFromInt(151),
	}
	require.NoError(t, producer.PublishPositionOpened(context.Background(), position))
	require.Len(t, writer.msgs, 1)

	msg := writer.msgs[0]
	assert.Equal(t, "AAPL", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, models.EventPositionOpened, string(msg.Headers[0].Value))

	event := decodeEvent(t, msg)
	assert.Equal(t, models.EventPositionOpened, event.EventType)
	assert.Equal(t, 7, event.PositionID)
	require.NotNil(t, event.Position)
	assert.True(t, event.Position.BreakEvenPrice.Equal(decimal.NewFromInt(151)))
	assert.Nil(t, event.Sale)
	assert.True(t, event.Timestamp.Equal(producerNow))
	assert.Equal(t, time.UTC, event.Timestamp.Location())

	_, err := uuid.Parse(event.EventID)
	assert.NoError(t, err)
}

func TestProducer_PublishPositionSold(t *testing.T) {
	producer, writer := newTestProducer()
	ctx := context.Background()

	sale := &models.HistoryRecord{ID: 1, Ticker: "AAPL", SharesSold: 4, ProfitLoss: decimal.NewFromInt(40)}
	remaining := &models.OpenPosition{ID: 7, Ticker: "AAPL", Shares: 6}

	require.NoError(t, producer.PublishPositionSold(ctx, sale, 7, remaining))
	require.NoError(t, producer.PublishPositionSold(ctx, sale, 7, nil))
	require.Len(t, writer.msgs, 2)

	partial := decodeEvent(t, writer.msgs[0])
	assert.Equal(t, models.EventPositionSold, partial.EventType)
	assert.Equal(t, 7, partial.PositionID)
	require.NotNil(t, partial.Sale)
	assert.Equal(t, 4, partial.Sale.SharesSold)
	require.NotNil(t, partial.Position)
	assert.Equal(t, 6, partial.Position.Shares)

	closed := decodeEvent(t, writer.msgs[1])
	assert.Nil(t, closed.Position)
	assert.NotEqual(t, partial.EventID, closed.EventID)
}

func TestProducer_PublishPositionDeleted(t *testing.T) {
	producer, writer := newTestProducer()

	require.NoError(t, producer.PublishPositionDeleted(context.Background(), &models.OpenPosition{ID: 3, Ticker: "TSLA"}))
	require.Len(t, writer.msgs, 1)

	event := decodeEvent(t, writer.msgs[0])
	assert.Equal(t, models.EventPositionDeleted, event.EventType)
	assert.Equal(t, 3, event.PositionID)
	assert.Equal(t, "TSLA", event.Ticker)
	assert.Nil(t, event.Position)
}

func TestProducer_WriteFailure(t *testing.T) {
	producer, writer := newTestProducer()
	writer.err = errors.New("leader not available")

	err := producer.PublishPositionDeleted(context.Background(), &models.OpenPosition{ID: 3, Ticker: "TSLA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write message to kafka")
}

func TestProducer_Close(t *testing.T) {
	producer, writer := newTestProducer()
	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}
