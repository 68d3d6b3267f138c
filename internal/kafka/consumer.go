package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-calculator/internal/models"
)

// CommandHandler applies ledger commands
type CommandHandler interface {
	OpenPosition(ctx context.Context, ticker string, stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (int, error)
	Sell(ctx context.Context, positionID, sharesSold int, sellPrice decimal.Decimal) (*models.HistoryRecord, error)
	DeletePosition(ctx context.Context, id int) error
}

// Deduplicator remembers which command ids have already been applied
type Deduplicator interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
	Config() kafka.ReaderConfig
}

// Consumer applies ledger commands read from Kafka
type Consumer struct {
	reader  messageReader
	handler CommandHandler
	dedupe  Deduplicator
	log     zerolog.Logger
}

// NewConsumer creates a new Kafka consumer for ledger commands. dedupe may be nil.
func NewConsumer(brokers []string, topic, groupID string, handler CommandHandler, dedupe Deduplicator, log zerolog.Logger) *Consumer {
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
		handler: handler,
		dedupe:  dedupe,
		log:     log.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Start begins consuming messages until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info().Str("topic", c.reader.Config().Topic).Msg("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("Kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				c.log.Error().Err(err).Msg("Error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.Error().
					Err(err).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Error processing message")
			}
		}
	}
}

// processMessage applies a single command. Commands already claimed by an
// earlier delivery are skipped.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var cmd models.LedgerCommand
	if err := json.Unmarshal(msg.Value, &cmd); err != nil {
		return fmt.Errorf("failed to unmarshal ledger command: %w", err)
	}

	logger := c.log.With().
		Str("command_id", cmd.CommandID).
		Str("command_type", cmd.CommandType).
		Logger()

	if !isKnownCommand(cmd.CommandType) {
		logger.Debug().Msg("Ignoring command type")
		return nil
	}

	if c.dedupe != nil && cmd.CommandID != "" {
		claimed, err := c.dedupe.Claim(ctx, cmd.CommandID)
		if err != nil {
			return fmt.Errorf("failed to claim command %s: %w", cmd.CommandID, err)
		}
		if !claimed {
			logger.Info().Msg("Command already applied, skipping")
			return nil
		}
	}

	if err := c.apply(ctx, cmd); err != nil {
		// Rejected commands stay claimed; anything else may be retried.
		if c.dedupe != nil && cmd.CommandID != "" && !isRejection(err) {
			if releaseErr := c.dedupe.Release(ctx, cmd.CommandID); releaseErr != nil {
				logger.Warn().Err(releaseErr).Msg("Failed to release command claim")
			}
		}
		return fmt.Errorf("failed to apply %s command: %w", cmd.CommandType, err)
	}

	logger.Info().Msg("Applied ledger command")
	return nil
}

func (c *Consumer) apply(ctx context.Context, cmd models.LedgerCommand) error {
	switch cmd.CommandType {
	case models.CommandOpenPosition:
		_, err := c.handler.OpenPosition(ctx, cmd.Ticker, cmd.StockPrice, cmd.Shares, cmd.TransactionFee)
		return err
	case models.CommandSellPosition:
		_, err := c.handler.Sell(ctx, cmd.PositionID, cmd.SharesSold, cmd.SellPrice)
		return err
	case models.CommandDeletePosition:
		return c.handler.DeletePosition(ctx, cmd.PositionID)
	default:
		return fmt.Errorf("unknown command type: %s", cmd.CommandType)
	}
}

func isKnownCommand(commandType string) bool {
	switch commandType {
	case models.CommandOpenPosition, models.CommandSellPosition, models.CommandDeletePosition:
		return true
	}
	return false
}

func isRejection(err error) bool {
	return errors.Is(err, models.ErrInvalidArgument) || errors.Is(err, models.ErrNotFound)
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
