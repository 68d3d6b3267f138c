// Package ledger owns the lifecycle of tracked positions: opening, partial
// or full sale into the append-only history, and deletion without a trade.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-calculator/internal/calculator"
	"github.com/trogers1052/stock-calculator/internal/database"
	"github.com/trogers1052/stock-calculator/internal/models"
)

// Store is the persistence the ledger runs on
type Store interface {
	database.Repository
	WithTransaction(ctx context.Context, fn func(database.Repository) error) error
	Location() string
}

// EventPublisher receives ledger events after the mutation has committed
type EventPublisher interface {
	PublishPositionOpened(ctx context.Context, position *models.OpenPosition) error
	PublishPositionSold(ctx context.Context, sale *models.HistoryRecord, positionID int, remaining *models.OpenPosition) error
	PublishPositionDeleted(ctx context.Context, position *models.OpenPosition) error
}

// Ledger mediates every state transition of open positions and history
type Ledger struct {
	store     Store
	publisher EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// New creates a Ledger. publisher may be nil.
func New(store Store, publisher EventPublisher, log zerolog.Logger) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		log:       log.With().Str("component", "ledger").Logger(),
		now:       time.Now,
	}
}

// StorageLocation reports where the ledger persists its state
func (l *Ledger) StorageLocation() string {
	return l.store.Location()
}

// OpenPosition records a new lot and returns its ID
func (l *Ledger) OpenPosition(ctx context.Context, ticker string, stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (int, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return 0, fmt.Errorf("%w: ticker required", models.ErrInvalidArgument)
	}
	if !stockPrice.IsPositive() {
		return 0, fmt.Errorf("%w: stock_price must be positive", models.ErrInvalidArgument)
	}
	if fee.IsNegative() {
		return 0, fmt.Errorf("%w: transaction_fee must be non-negative", models.ErrInvalidArgument)
	}

	breakEven, err := calculator.BreakEvenPrice(stockPrice, shares, fee)
	if err != nil {
		return 0, err
	}

	position := &models.OpenPosition{
		Ticker:         ticker,
		BuyPrice:       stockPrice,
		Shares:         shares,
		BreakEvenPrice: breakEven,
	}
	if err := l.store.CreateOpenPosition(ctx, position); err != nil {
		return 0, err
	}

	l.log.Info().
		Int("position_id", position.ID).
		Str("ticker", position.Ticker).
		Int("shares", position.Shares).
		Str("break_even_price", position.BreakEvenPrice.String()).
		Msg("Position opened")

	l.publish(ctx, models.EventPositionOpened, func(p EventPublisher) error {
		return p.PublishPositionOpened(ctx, position)
	})

	return position.ID, nil
}

// CalculateAndSave computes the base metrics and, when ticker is non-empty,
// opens a position from the same parameters. The returned ID is zero when
// nothing was saved.
func (l *Ledger) CalculateAndSave(ctx context.Context, ticker string, stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (calculator.BaseMetrics, int, error) {
	metrics, err := calculator.ComputeBaseMetrics(stockPrice, shares, fee)
	if err != nil {
		return calculator.BaseMetrics{}, 0, err
	}
	if normalizeTicker(ticker) == "" {
		return metrics, 0, nil
	}

	id, err := l.OpenPosition(ctx, ticker, stockPrice, shares, fee)
	if err != nil {
		return calculator.BaseMetrics{}, 0, err
	}
	return metrics, id, nil
}

// GetPosition returns a single open position
func (l *Ledger) GetPosition(ctx context.Context, id int) (*models.OpenPosition, error) {
	return l.store.GetOpenPositionByID(ctx, id)
}

// ListOpenPositions returns all open positions ordered by ID
func (l *Ledger) ListOpenPositions(ctx context.Context) ([]*models.OpenPosition, error) {
	return l.store.GetAllOpenPositions(ctx)
}

// Sell moves sharesSold shares of a position into the history at sellPrice.
// The history insert and the position update or removal commit together. An
// unknown position is reported as not found before the share count is checked.
func (l *Ledger) Sell(ctx context.Context, positionID, sharesSold int, sellPrice decimal.Decimal) (*models.HistoryRecord, error) {
	if sellPrice.IsNegative() {
		return nil, fmt.Errorf("%w: sell_price must be non-negative", models.ErrInvalidArgument)
	}

	var (
		record    *models.HistoryRecord
		remaining *models.OpenPosition
	)
	err := l.store.WithTransaction(ctx, func(repo database.Repository) error {
		position, err := repo.GetOpenPositionByID(ctx, positionID)
		if err != nil {
			return err
		}
		if sharesSold <= 0 || sharesSold > position.Shares {
			return fmt.Errorf("%w: shares_sold out of range (%d requested, %d held)",
				models.ErrInvalidArgument, sharesSold, position.Shares)
		}

		record = &models.HistoryRecord{
			Ticker:         position.Ticker,
			BuyPrice:       position.BuyPrice,
			SharesSold:     sharesSold,
			BreakEvenPrice: position.BreakEvenPrice,
			SellPrice:      sellPrice,
			ProfitLoss:     calculator.RealizedProfitLoss(position.BuyPrice, sellPrice, sharesSold),
			DateSold:       l.now(),
		}
		if err := repo.CreateHistoryRecord(ctx, record); err != nil {
			return err
		}

		left := position.Shares - sharesSold
		if left == 0 {
			return repo.DeleteOpenPosition(ctx, position.ID)
		}
		if err := repo.UpdateOpenPositionShares(ctx, position.ID, left); err != nil {
			return err
		}
		position.Shares = left
		remaining = position
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sell position %d: %w", positionID, err)
	}

	event := l.log.Info().
		Int("position_id", positionID).
		Str("ticker", record.Ticker).
		Int("shares_sold", record.SharesSold).
		Str("sell_price", record.SellPrice.String()).
		Str("profit_loss", record.ProfitLoss.String())
	if remaining != nil {
		event.Int("shares_remaining", remaining.Shares).Msg("Position partially sold")
	} else {
		event.Msg("Position closed")
	}

	l.publish(ctx, models.EventPositionSold, func(p EventPublisher) error {
		return p.PublishPositionSold(ctx, record, positionID, remaining)
	})

	return record, nil
}

// DeletePosition removes an open position without recording a sale
func (l *Ledger) DeletePosition(ctx context.Context, id int) error {
	var deleted *models.OpenPosition
	err := l.store.WithTransaction(ctx, func(repo database.Repository) error {
		position, err := repo.GetOpenPositionByID(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteOpenPosition(ctx, id); err != nil {
			return err
		}
		deleted = position
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete position %d: %w", id, err)
	}

	l.log.Info().
		Int("position_id", id).
		Str("ticker", deleted.Ticker).
		Msg("Position deleted")

	l.publish(ctx, models.EventPositionDeleted, func(p EventPublisher) error {
		return p.PublishPositionDeleted(ctx, deleted)
	})

	return nil
}

// ListHistory returns all sales, most recent first
func (l *Ledger) ListHistory(ctx context.Context) ([]*models.HistoryRecord, error) {
	return l.store.GetAllHistory(ctx)
}

// Summary returns realized profit/loss statistics over the history
func (l *Ledger) Summary(ctx context.Context) (*models.HistorySummary, error) {
	return l.store.GetHistoryStats(ctx)
}

// publish delivers an event without failing the committed mutation
func (l *Ledger) publish(ctx context.Context, eventType string, fn func(EventPublisher) error) {
	if l.publisher == nil {
		return
	}
	if err := fn(l.publisher); err != nil {
		l.log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to publish ledger event")
	}
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
