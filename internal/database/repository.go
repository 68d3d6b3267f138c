package database

import (
	"context"

	"github.com/trogers1052/stock-calculator/internal/models"
)

// Repository is the set of ledger table operations. Both *DB and the *Tx
// handed to WithTransaction implement it.
type Repository interface {
	CreateOpenPosition(ctx context.Context, p *models.OpenPosition) error
	GetOpenPositionByID(ctx context.Context, id int) (*models.OpenPosition, error)
	GetAllOpenPositions(ctx context.Context) ([]*models.OpenPosition, error)
	UpdateOpenPositionShares(ctx context.Context, id, shares int) error
	DeleteOpenPosition(ctx context.Context, id int) error

	CreateHistoryRecord(ctx context.Context, h *models.HistoryRecord) error
	GetAllHistory(ctx context.Context) ([]*models.HistoryRecord, error)
	GetHistoryStats(ctx context.Context) (*models.HistorySummary, error)
}

var (
	_ Repository = (*DB)(nil)
	_ Repository = (*Tx)(nil)
)
