package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryRecord is the immutable record of a single (full or partial) sale
type HistoryRecord struct {
	ID             int             `json:"id"`
	Ticker         string          `json:"ticker"`
	BuyPrice       decimal.Decimal `json:"buy_price"`
	SharesSold     int             `json:"shares_sold"`
	BreakEvenPrice decimal.Decimal `json:"break_even_price"`
	SellPrice      decimal.Decimal `json:"sell_price"`
	ProfitLoss     decimal.Decimal `json:"profit_loss"`
	DateSold       time.Time       `json:"date_sold"`
}

// HistorySummary aggregates realized profit/loss over the sale history
type HistorySummary struct {
	TotalSales      int             `json:"total_sales"`
	WinningSales    int             `json:"winning_sales"`
	LosingSales     int             `json:"losing_sales"`
	WinRate         decimal.Decimal `json:"win_rate"`
	TotalProfitLoss decimal.Decimal `json:"total_profit_loss"`
	AvgWin          decimal.Decimal `json:"avg_win"`
	AvgLoss         decimal.Decimal `json:"avg_loss"`
}
