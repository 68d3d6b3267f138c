package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger event type constants
const (
	EventPositionOpened  = "POSITION_OPENED"
	EventPositionSold    = "POSITION_SOLD"
	EventPositionDeleted = "POSITION_DELETED"
)

// Ledger command type constants
const (
	CommandOpenPosition   = "OPEN_POSITION"
	CommandSellPosition   = "SELL_POSITION"
	CommandDeletePosition = "DELETE_POSITION"
)

// LedgerEvent is published after a ledger mutation has been committed
type LedgerEvent struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	PositionID int            `json:"position_id"`
	Ticker     string         `json:"ticker"`
	Position   *OpenPosition  `json:"position,omitempty"`
	Sale       *HistoryRecord `json:"sale,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// LedgerCommand is a mutation request received from the commands topic
type LedgerCommand struct {
	CommandID      string          `json:"command_id"`
	CommandType    string          `json:"command_type"`
	Source         string          `json:"source,omitempty"`
	Ticker         string          `json:"ticker,omitempty"`
	StockPrice     decimal.Decimal `json:"stock_price"`
	Shares         int             `json:"shares,omitempty"`
	TransactionFee decimal.Decimal `json:"transaction_fee"`
	PositionID     int             `json:"position_id,omitempty"`
	SharesSold     int             `json:"shares_sold,omitempty"`
	SellPrice      decimal.Decimal `json:"sell_price"`
}
