package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-calculator/internal/models"
)

const historyColumns = `id, ticker, buy_price, shares_sold, break_even_price, sell_price, profit_loss, date_sold`

// CreateHistoryRecord appends a sale to the history. A zero DateSold is
// replaced with the current time.
func (q queries) CreateHistoryRecord(ctx context.Context, h *models.HistoryRecord) error {
	query := `
		INSERT INTO history (
			ticker, buy_price, shares_sold, break_even_price,
			sell_price, profit_loss, date_sold
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	dateSold := h.DateSold
	if dateSold.IsZero() {
		dateSold = time.Now()
	}
	dateSold = dateSold.UTC()

	err := q.queryRow(ctx, query,
		h.Ticker, h.BuyPrice, h.SharesSold, h.BreakEvenPrice,
		h.SellPrice, h.ProfitLoss, dateSold,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}
	h.DateSold = dateSold
	return nil
}

// GetAllHistory retrieves every sale, most recent first
func (q queries) GetAllHistory(ctx context.Context) ([]*models.HistoryRecord, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM history
		ORDER BY date_sold DESC, id DESC
	`
	rows, err := q.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []*models.HistoryRecord{}
	for rows.Next() {
		var h models.HistoryRecord
		err := rows.Scan(
			&h.ID, &h.Ticker, &h.BuyPrice, &h.SharesSold, &h.BreakEvenPrice,
			&h.SellPrice, &h.ProfitLoss, &h.DateSold,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		h.DateSold = h.DateSold.UTC()
		records = append(records, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return records, nil
}

// GetHistoryStats returns aggregated realized profit/loss statistics. The
// sums are taken in decimal so both backends report identical figures.
func (q queries) GetHistoryStats(ctx context.Context) (*models.HistorySummary, error) {
	rows, err := q.query(ctx, `SELECT profit_loss FROM history`)
	if err != nil {
		return nil, fmt.Errorf("failed to get history stats: %w", err)
	}
	defer rows.Close()

	var (
		stats           models.HistorySummary
		winSum, lossSum decimal.Decimal
	)
	for rows.Next() {
		var pnl decimal.Decimal
		if err := rows.Scan(&pnl); err != nil {
			return nil, fmt.Errorf("failed to scan history profit/loss: %w", err)
		}
		stats.TotalSales++
		stats.TotalProfitLoss = stats.TotalProfitLoss.Add(pnl)
		switch {
		case pnl.IsPositive():
			stats.WinningSales++
			winSum = winSum.Add(pnl)
		case pnl.IsNegative():
			stats.LosingSales++
			lossSum = lossSum.Add(pnl)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	if stats.WinningSales > 0 {
		stats.AvgWin = winSum.Div(decimal.NewFromInt(int64(stats.WinningSales)))
	}
	if stats.LosingSales > 0 {
		stats.AvgLoss = lossSum.Div(decimal.NewFromInt(int64(stats.LosingSales)))
	}
	if stats.TotalSales > 0 {
		stats.WinRate = decimal.NewFromInt(int64(stats.WinningSales)).
			Div(decimal.NewFromInt(int64(stats.TotalSales))).
			Mul(decimal.NewFromInt(100))
	}

	return &stats, nil
}
