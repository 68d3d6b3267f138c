package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/trogers1052/stock-calculator/internal/models"
)

const openPositionColumns = `id, ticker, buy_price, shares, break_even_price`

// CreateOpenPosition inserts a new open position and sets its ID
func (q queries) CreateOpenPosition(ctx context.Context, p *models.OpenPosition) error {
	query := `
		INSERT INTO open_positions (ticker, buy_price, shares, break_even_price)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`
	err := q.queryRow(ctx, query, p.Ticker, p.BuyPrice, p.Shares, p.BreakEvenPrice).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create open position: %w", err)
	}
	return nil
}

// GetOpenPositionByID retrieves an open position by ID. Inside a Postgres
// transaction the row stays locked until commit.
func (q queries) GetOpenPositionByID(ctx context.Context, id int) (*models.OpenPosition, error) {
	query := `SELECT ` + openPositionColumns + ` FROM open_positions WHERE id = ?`
	if q.lockRows {
		query += ` FOR UPDATE`
	}

	var p models.OpenPosition
	err := q.queryRow(ctx, query, id).Scan(&p.ID, &p.Ticker, &p.BuyPrice, &p.Shares, &p.BreakEvenPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("open position %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open position: %w", err)
	}
	return &p, nil
}

// GetAllOpenPositions retrieves every open position ordered by ID
func (q queries) GetAllOpenPositions(ctx context.Context) ([]*models.OpenPosition, error) {
	query := `SELECT ` + openPositionColumns + ` FROM open_positions ORDER BY id ASC`

	rows, err := q.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	positions := []*models.OpenPosition{}
	for rows.Next() {
		var p models.OpenPosition
		if err := rows.Scan(&p.ID, &p.Ticker, &p.BuyPrice, &p.Shares, &p.BreakEvenPrice); err != nil {
			return nil, fmt.Errorf("failed to scan open position: %w", err)
		}
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate open positions: %w", err)
	}

	return positions, nil
}

// UpdateOpenPositionShares sets the remaining share count of a position
func (q queries) UpdateOpenPositionShares(ctx context.Context, id, shares int) error {
	if shares <= 0 {
		return fmt.Errorf("%w: open position shares must be positive", models.ErrInvalidArgument)
	}

	result, err := q.exec(ctx, `UPDATE open_positions SET shares = ? WHERE id = ?`, shares, id)
	if err != nil {
		return fmt.Errorf("failed to update open position: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("open position %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeleteOpenPosition removes an open position by ID
func (q queries) DeleteOpenPosition(ctx context.Context, id int) error {
	result, err := q.exec(ctx, `DELETE FROM open_positions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete open position: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("open position %d: %w", id, models.ErrNotFound)
	}
	return nil
}
