// Package calculator holds the break-even and profit/loss arithmetic.
// Every function is pure: identical inputs always produce identical outputs.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-calculator/internal/models"
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// BaseMetrics are the scenario-independent figures for a position
type BaseMetrics struct {
	TotalInvested              decimal.Decimal `json:"total_invested"`
	BreakEvenPrice             decimal.Decimal `json:"break_even_price"`
	PercentIncreaseToBreakEven decimal.Decimal `json:"percent_increase_to_break_even"`
}

// Scenario is the projected outcome of a hypothetical percent price change
type Scenario struct {
	PercentChange decimal.Decimal `json:"percent_change"`
	TargetPrice   decimal.Decimal `json:"target_price"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
}

// TotalInvested returns stock_price * shares + transaction_fee
func TotalInvested(stockPrice decimal.Decimal, shares int, fee decimal.Decimal) decimal.Decimal {
	return stockPrice.Mul(decimal.NewFromInt(int64(shares))).Add(fee)
}

// BreakEvenPrice returns the per-share sale price covering the purchase and both fees.
func BreakEvenPrice(stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (decimal.Decimal, error) {
	if err := validateShares(shares); err != nil {
		return decimal.Zero, err
	}
	n := decimal.NewFromInt(int64(shares))
	return stockPrice.Mul(n).Add(fee.Mul(two)).Div(n), nil
}

// ComputeBaseMetrics returns total invested, break-even price and the percent
// increase needed to reach it.
func ComputeBaseMetrics(stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (BaseMetrics, error) {
	breakEven, err := BreakEvenPrice(stockPrice, shares, fee)
	if err != nil {
		return BaseMetrics{}, err
	}
	if stockPrice.IsZero() {
		return BaseMetrics{}, fmt.Errorf("%w: stock_price must be non-zero", models.ErrInvalidArgument)
	}

	return BaseMetrics{
		TotalInvested:              TotalInvested(stockPrice, shares, fee),
		BreakEvenPrice:             breakEven,
		PercentIncreaseToBreakEven: breakEven.Sub(stockPrice).Div(stockPrice).Mul(hundred),
	}, nil
}

// ComputeScenario projects target price and profit/loss for percentChange.
// Values outside [-100, 100] are valid and accepted.
func ComputeScenario(stockPrice decimal.Decimal, shares int, fee, percentChange decimal.Decimal) (Scenario, error) {
	if err := validateShares(shares); err != nil {
		return Scenario{}, err
	}
	return scenario(stockPrice, shares, fee, TotalInvested(stockPrice, shares, fee), percentChange), nil
}

// RealizedProfitLoss is the P/L recorded for a sale: (sell - buy) * shares sold.
// Fees are not deducted.
func RealizedProfitLoss(buyPrice, sellPrice decimal.Decimal, sharesSold int) decimal.Decimal {
	return sellPrice.Sub(buyPrice).Mul(decimal.NewFromInt(int64(sharesSold)))
}

func scenario(stockPrice decimal.Decimal, shares int, fee, totalInvested, percentChange decimal.Decimal) Scenario {
	target := stockPrice.Mul(decimal.NewFromInt(1).Add(percentChange.Div(hundred)))
	sellValue := target.Mul(decimal.NewFromInt(int64(shares))).Sub(fee)
	return Scenario{
		PercentChange: percentChange,
		TargetPrice:   target,
		ProfitLoss:    sellValue.Sub(totalInvested),
	}
}

func validateShares(shares int) error {
	if shares <= 0 {
		return fmt.Errorf("%w: shares must be positive", models.ErrInvalidArgument)
	}
	return nil
}
