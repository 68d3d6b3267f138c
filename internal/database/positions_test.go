package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-calculator/internal/models"
)

func TestRepository_SQLite(t *testing.T) {
	runRepositoryTests(t, setupSQLiteDB)
}

func TestRepository_Postgres(t *testing.T) {
	pg := startPostgres(t)

	runRepositoryTests(t, func(t *testing.T) *DB {
		pg.reset(t)
		return pg.DB
	})
}

// runRepositoryTests exercises the Repository contract against a backend.
// fresh must return an empty, migrated DB.
func runRepositoryTests(t *testing.T, fresh func(t *testing.T) *DB) {
	ctx := context.Background()

	t.Run("CreateOpenPosition assigns an ID", func(t *testing.T) {
		db := fresh(t)

		position := &models.OpenPosition{
			Ticker:         "AAPL",
			BuyPrice:       decimal.NewFromFloat(150),
			Shares:         10,
			BreakEvenPrice: decimal.NewFromFloat(151),
		}
		err := db.CreateOpenPosition(ctx, position)
		require.NoError(t, err)
		assert.NotZero(t, position.ID)
	})

	t.Run("GetOpenPositionByID retrieves position", func(t *testing.T) {
		db := fresh(t)

		position := &models.OpenPosition{
			Ticker:         "GOOGL",
			BuyPrice:       decimal.NewFromFloat(130.5),
			Shares:         50,
			BreakEvenPrice: decimal.NewFromFloat(130.75),
		}
		require.NoError(t, db.CreateOpenPosition(ctx, position))

		retrieved, err := db.GetOpenPositionByID(ctx, position.ID)
		require.NoError(t, err)
		assert.Equal(t, position.ID, retrieved.ID)
		assert.Equal(t, "GOOGL", retrieved.Ticker)
		assert.Equal(t, 50, retrieved.Shares)
		assert.True(t, decimal.NewFromFloat(130.5).Equal(retrieved.BuyPrice))
		assert.True(t, decimal.NewFromFloat(130.75).Equal(retrieved.BreakEvenPrice))
	})

	t.Run("money columns keep full decimal precision", func(t *testing.T) {
		db := fresh(t)

		breakEven := decimal.RequireFromString("10.3333333333333333")
		position := &models.OpenPosition{
			Ticker:         "F",
			BuyPrice:       decimal.NewFromInt(10),
			Shares:         3,
			BreakEvenPrice: breakEven,
		}
		require.NoError(t, db.CreateOpenPosition(ctx, position))

		retrieved, err := db.GetOpenPositionByID(ctx, position.ID)
		require.NoError(t, err)
		assert.Equal(t, breakEven.String(), retrieved.BreakEvenPrice.String())

		pnl := decimal.RequireFromString("0.1").Add(decimal.RequireFromString("0.2"))
		require.NoError(t, db.CreateHistoryRecord(ctx, &models.HistoryRecord{
			Ticker: "F", BuyPrice: decimal.NewFromInt(10), SharesSold: 1,
			BreakEvenPrice: breakEven, SellPrice: decimal.RequireFromString("10.3"),
			ProfitLoss: pnl,
		}))

		history, err := db.GetAllHistory(ctx)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "0.3", history[0].ProfitLoss.String())
		assert.Equal(t, breakEven.String(), history[0].BreakEvenPrice.String())

		stats, err := db.GetHistoryStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0.3", stats.TotalProfitLoss.String())
		assert.Equal(t, "0.3", stats.AvgWin.String())
	})

	t.Run("GetOpenPositionByID returns not found for non-existent ID", func(t *testing.T) {
		db := fresh(t)

		_, err := db.GetOpenPositionByID(ctx, 99999)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("GetAllOpenPositions returns positions ordered by ID", func(t *testing.T) {
		db := fresh(t)

		empty, err := db.GetAllOpenPositions(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		for _, ticker := range []string{"MSFT", "AAPL", "NVDA"} {
			require.NoError(t, db.CreateOpenPosition(ctx, &models.OpenPosition{
				Ticker:         ticker,
				BuyPrice:       decimal.NewFromFloat(100),
				Shares:         1,
				BreakEvenPrice: decimal.NewFromFloat(102),
			}))
		}

		positions, err := db.GetAllOpenPositions(ctx)
		require.NoError(t, err)
		require.Len(t, positions, 3)
		assert.Equal(t, "MSFT", positions[0].Ticker)
		assert.Equal(t, "AAPL", positions[1].Ticker)
		assert.Equal(t, "NVDA", positions[2].Ticker)
		assert.Less(t, positions[0].ID, positions[1].ID)
		assert.Less(t, positions[1].ID, positions[2].ID)
	})

	t.Run("UpdateOpenPositionShares updates remaining shares", func(t *testing.T) {
		db := fresh(t)

		position := &models.OpenPosition{
			Ticker:         "TSLA",
			BuyPrice:       decimal.NewFromFloat(240),
			Shares:         20,
			BreakEvenPrice: decimal.NewFromFloat(240.5),
		}
		require.NoError(t, db.CreateOpenPosition(ctx, position))

		require.NoError(t, db.UpdateOpenPositionShares(ctx, position.ID, 12))

		retrieved, err := db.GetOpenPositionByID(ctx, position.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, retrieved.Shares)
		assert.True(t, decimal.NewFromFloat(240).Equal(retrieved.BuyPrice))
	})

	t.Run("UpdateOpenPositionShares rejects non-positive shares", func(t *testing.T) {
		db := fresh(t)

		err := db.UpdateOpenPositionShares(ctx, 1, 0)
		assert.ErrorIs(t, err, models.ErrInvalidArgument)
	})

	t.Run("UpdateOpenPositionShares returns not found for non-existent position", func(t *testing.T) {
		db := fresh(t)

		err := db.UpdateOpenPositionShares(ctx, 99999, 5)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("DeleteOpenPosition removes position", func(t *testing.T) {
		db := fresh(t)

		position := &models.OpenPosition{
			Ticker:         "AMD",
			BuyPrice:       decimal.NewFromFloat(120),
			Shares:         75,
			BreakEvenPrice: decimal.NewFromFloat(120.25),
		}
		require.NoError(t, db.CreateOpenPosition(ctx, position))

		require.NoError(t, db.DeleteOpenPosition(ctx, position.ID))

		_, err := db.GetOpenPositionByID(ctx, position.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		err = db.DeleteOpenPosition(ctx, position.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("GetAllHistory returns most recent sale first", func(t *testing.T) {
		db := fresh(t)

		base := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
		sales := []*models.HistoryRecord{
			{Ticker: "AAPL", BuyPrice: decimal.NewFromFloat(150), SharesSold: 10, BreakEvenPrice: decimal.NewFromFloat(151), SellPrice: decimal.NewFromFloat(160), ProfitLoss: decimal.NewFromFloat(100), DateSold: base},
			{Ticker: "MSFT", BuyPrice: decimal.NewFromFloat(300), SharesSold: 2, BreakEvenPrice: decimal.NewFromFloat(305), SellPrice: decimal.NewFromFloat(275), ProfitLoss: decimal.NewFromFloat(-50), DateSold: base.Add(time.Hour)},
			{Ticker: "NVDA", BuyPrice: decimal.NewFromFloat(400), SharesSold: 4, BreakEvenPrice: decimal.NewFromFloat(401), SellPrice: decimal.NewFromFloat(450), ProfitLoss: decimal.NewFromFloat(200), DateSold: base.Add(-time.Hour)},
		}
		for _, s := range sales {
			require.NoError(t, db.CreateHistoryRecord(ctx, s))
			assert.NotZero(t, s.ID)
		}

		history, err := db.GetAllHistory(ctx)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "MSFT", history[0].Ticker)
		assert.Equal(t, "AAPL", history[1].Ticker)
		assert.Equal(t, "NVDA", history[2].Ticker)

		assert.True(t, base.Equal(history[1].DateSold), "date_sold %s", history[1].DateSold)
		assert.Equal(t, 10, history[1].SharesSold)
		assert.True(t, decimal.NewFromFloat(160).Equal(history[1].SellPrice))
		assert.True(t, decimal.NewFromFloat(100).Equal(history[1].ProfitLoss))
	})

	t.Run("CreateHistoryRecord stamps the sale time when unset", func(t *testing.T) {
		db := fresh(t)

		before := time.Now().Add(-time.Second)
		record := &models.HistoryRecord{
			Ticker: "IBM", BuyPrice: decimal.NewFromFloat(100), SharesSold: 1,
			BreakEvenPrice: decimal.NewFromFloat(101), SellPrice: decimal.NewFromFloat(100), ProfitLoss: decimal.Zero,
		}
		require.NoError(t, db.CreateHistoryRecord(ctx, record))
		assert.True(t, record.DateSold.After(before))
	})

	t.Run("GetHistoryStats aggregates realized profit and loss", func(t *testing.T) {
		db := fresh(t)

		stats, err := db.GetHistoryStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalSales)
		assert.True(t, stats.TotalProfitLoss.IsZero())

		for _, pnl := range []float64{100, -50, 200} {
			require.NoError(t, db.CreateHistoryRecord(ctx, &models.HistoryRecord{
				Ticker: "AAPL", BuyPrice: decimal.NewFromFloat(100), SharesSold: 1,
				BreakEvenPrice: decimal.NewFromFloat(101), SellPrice: decimal.NewFromFloat(100 + pnl),
				ProfitLoss: decimal.NewFromFloat(pnl),
			}))
		}

		stats, err = db.GetHistoryStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalSales)
		assert.Equal(t, 2, stats.WinningSales)
		assert.Equal(t, 1, stats.LosingSales)
		assert.True(t, decimal.NewFromFloat(250).Equal(stats.TotalProfitLoss), "total %s", stats.TotalProfitLoss)
		assert.InDelta(t, 150, stats.AvgWin.InexactFloat64(), 1e-9)
		assert.InDelta(t, -50, stats.AvgLoss.InexactFloat64(), 1e-9)
		assert.InDelta(t, 66.6667, stats.WinRate.InexactFloat64(), 1e-3)
	})

	t.Run("history records cannot be modified", func(t *testing.T) {
		db := fresh(t)

		record := &models.HistoryRecord{
			Ticker: "AAPL", BuyPrice: decimal.NewFromFloat(150), SharesSold: 10,
			BreakEvenPrice: decimal.NewFromFloat(151), SellPrice: decimal.NewFromFloat(160), ProfitLoss: decimal.NewFromFloat(100),
		}
		require.NoError(t, db.CreateHistoryRecord(ctx, record))

		_, err := db.exec(ctx, `UPDATE history SET sell_price = ? WHERE id = ?`, 999, record.ID)
		assert.Error(t, err)

		_, err = db.exec(ctx, `DELETE FROM history WHERE id = ?`, record.ID)
		assert.Error(t, err)

		history, err := db.GetAllHistory(ctx)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.True(t, decimal.NewFromFloat(160).Equal(history[0].SellPrice))
	})

	t.Run("WithTransaction commits all writes", func(t *testing.T) {
		db := fresh(t)

		position := &models.OpenPosition{
			Ticker: "AAPL", BuyPrice: decimal.NewFromFloat(150), Shares: 10, BreakEvenPrice: decimal.NewFromFloat(151),
		}
		require.NoError(t, db.CreateOpenPosition(ctx, position))

		err := db.WithTransaction(ctx, func(repo Repository) error {
			if err := repo.CreateHistoryRecord(ctx, &models.HistoryRecord{
				Ticker: "AAPL", BuyPrice: decimal.NewFromFloat(150), SharesSold: 4,
				BreakEvenPrice: decimal.NewFromFloat(151), SellPrice: decimal.NewFromFloat(200), ProfitLoss: decimal.NewFromFloat(200),
			}); err != nil {
				return err
			}
			return repo.UpdateOpenPositionShares(ctx, position.ID, 6)
		})
		require.NoError(t, err)

		retrieved, err := db.GetOpenPositionByID(ctx, position.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, retrieved.Shares)

		history, err := db.GetAllHistory(ctx)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("WithTransaction rolls back every write on error", func(t *testing.T) {
		db := fresh(t)

		position := &models.OpenPosition{
			Ticker: "AAPL", BuyPrice: decimal.NewFromFloat(150), Shares: 10, BreakEvenPrice: decimal.NewFromFloat(151),
		}
		require.NoError(t, db.CreateOpenPosition(ctx, position))

		boom := errors.New("interrupted")
		err := db.WithTransaction(ctx, func(repo Repository) error {
			if err := repo.CreateHistoryRecord(ctx, &models.HistoryRecord{
				Ticker: "AAPL", BuyPrice: decimal.NewFromFloat(150), SharesSold: 10,
				BreakEvenPrice: decimal.NewFromFloat(151), SellPrice: decimal.NewFromFloat(160), ProfitLoss: decimal.NewFromFloat(100),
			}); err != nil {
				return err
			}
			return boom
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)

		history, err := db.GetAllHistory(ctx)
		require.NoError(t, err)
		assert.Empty(t, history)

		retrieved, err := db.GetOpenPositionByID(ctx, position.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, retrieved.Shares)
	})
}
