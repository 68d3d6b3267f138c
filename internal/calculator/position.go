package calculator

import (
	"github.com/shopspring/decimal"
)

// Calculator binds a validated parameter set to its base metrics so that
// repeated scenario projections skip validation and base recomputation.
type Calculator struct {
	stockPrice decimal.Decimal
	shares     int
	fee        decimal.Decimal
	metrics    BaseMetrics
}

// New validates the parameters and computes the base metrics once
func New(stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (*Calculator, error) {
	metrics, err := ComputeBaseMetrics(stockPrice, shares, fee)
	if err != nil {
		return nil, err
	}
	return &Calculator{
		stockPrice: stockPrice,
		shares:     shares,
		fee:        fee,
		metrics:    metrics,
	}, nil
}

// Metrics returns the base metrics computed by New
func (c *Calculator) Metrics() BaseMetrics {
	return c.metrics
}

// Scenario projects the outcome of a percent price change
func (c *Calculator) Scenario(percentChange decimal.Decimal) Scenario {
	return scenario(c.stockPrice, c.shares, c.fee, c.metrics.TotalInvested, percentChange)
}
