package models

import (
	"github.com/shopspring/decimal"
)

// OpenPosition represents a tracked stock lot that has not been fully sold
type OpenPosition struct {
	ID             int             `json:"id"`
	Ticker         string          `json:"ticker"`
	BuyPrice       decimal.Decimal `json:"buy_price"`
	Shares         int             `json:"shares"`
	BreakEvenPrice decimal.Decimal `json:"break_even_price"`
}
