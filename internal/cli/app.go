// Package cli implements the stockcalc subcommands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-calculator/internal/calculator"
	"github.com/trogers1052/stock-calculator/internal/models"
)

// Ledger is the position ledger the commands operate on
type Ledger interface {
	CalculateAndSave(ctx context.Context, ticker string, stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (calculator.BaseMetrics, int, error)
	OpenPosition(ctx context.Context, ticker string, stockPrice decimal.Decimal, shares int, fee decimal.Decimal) (int, error)
	GetPosition(ctx context.Context, id int) (*models.OpenPosition, error)
	ListOpenPositions(ctx context.Context) ([]*models.OpenPosition, error)
	Sell(ctx context.Context, positionID, sharesSold int, sellPrice decimal.Decimal) (*models.HistoryRecord, error)
	DeletePosition(ctx context.Context, id int) error
	ListHistory(ctx context.Context) ([]*models.HistoryRecord, error)
	Summary(ctx context.Context) (*models.HistorySummary, error)
	StorageLocation() string
}

// App carries what the commands share
type App struct {
	Ledger   Ledger
	Currency string
	Out      io.Writer
	Err      io.Writer

	// Serve runs the HTTP server until ctx is cancelled
	Serve func(ctx context.Context) error
}

// Register adds every subcommand to c.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&calcCmd{app: app}, "calculator")
	c.Register(&scenarioCmd{app: app}, "calculator")

	c.Register(&openCmd{app: app}, "ledger")
	c.Register(&positionsCmd{app: app}, "ledger")
	c.Register(&sellCmd{app: app}, "ledger")
	c.Register(&deleteCmd{app: app}, "ledger")
	c.Register(&historyCmd{app: app}, "ledger")
	c.Register(&summaryCmd{app: app}, "ledger")

	c.Register(&serveCmd{app: app}, "server")
	c.Register(&infoCmd{app: app}, "server")
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) errOut() io.Writer {
	if a.Err == nil {
		return os.Stderr
	}
	return a.Err
}

func (a *App) fail(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(a.errOut(), "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

// money formats amount in the configured currency, e.g. "€1,505.00"
func (a *App) money(amount decimal.Decimal) string {
	cur := money.GetCurrency(a.Currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + a.Currency
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction)).IntPart()
	return cur.Formatter().Format(minor)
}

func percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// decimalFlag parses a flag value into a decimal.Decimal
type decimalFlag struct {
	value decimal.Decimal
	set   bool
}

func (d *decimalFlag) String() string {
	return d.value.String()
}

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	d.value = v
	d.set = true
	return nil
}

// decimalListFlag parses a comma separated list of decimals
type decimalListFlag []decimal.Decimal

func (l *decimalListFlag) String() string {
	return fmt.Sprint([]decimal.Decimal(*l))
}

func (l *decimalListFlag) Set(s string) error {
	for _, part := range splitList(s) {
		v, err := decimal.NewFromString(part)
		if err != nil {
			return fmt.Errorf("invalid number %q", part)
		}
		*l = append(*l, v)
	}
	return nil
}

var _ flag.Value = (*decimalFlag)(nil)
var _ flag.Value = (*decimalListFlag)(nil)

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
