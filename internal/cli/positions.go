package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/trogers1052/stock-calculator/internal/models"
)

type openCmd struct {
	app    *App
	ticker string
	price  decimalFlag
	shares int
	fee    decimalFlag
}

func (*openCmd) Name() string     { return "open" }
func (*openCmd) Synopsis() string { return "open a new position" }
func (*openCmd) Usage() string {
	return `open -t <ticker> -p <price> -n <shares> [-f <fee>]

  Records a purchase as an open position. The break-even price is fixed at
  open time and includes the fee for the buy and the eventual sell.
`
}

func (c *openCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ticker, "t", "", "Ticker")
	f.Var(&c.price, "p", "Price per share")
	f.IntVar(&c.shares, "n", 0, "Number of shares")
	f.Var(&c.fee, "f", "Transaction fee")
}

func (c *openCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ticker == "" || !c.price.set {
		f.Usage()
		return subcommands.ExitUsageError
	}

	id, err := c.app.Ledger.OpenPosition(ctx, c.ticker, c.price.value, c.shares, c.fee.value)
	if err != nil {
		return c.app.fail("could not open position: %v", err)
	}

	position, err := c.app.Ledger.GetPosition(ctx, id)
	if err != nil {
		return c.app.fail("%v", err)
	}

	fmt.Fprintf(c.app.out(), "Opened position #%d: %d %s @ %s (break-even %s)\n",
		position.ID, position.Shares, position.Ticker,
		c.app.money(position.BuyPrice), c.app.money(position.BreakEvenPrice))
	return subcommands.ExitSuccess
}

type positionsCmd struct {
	app *App
}

func (*positionsCmd) Name() string             { return "positions" }
func (*positionsCmd) Synopsis() string         { return "list open positions" }
func (*positionsCmd) Usage() string            { return "positions\n\n  Lists open positions by id.\n" }
func (*positionsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *positionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	positions, err := c.app.Ledger.ListOpenPositions(ctx)
	if err != nil {
		return c.app.fail("%v", err)
	}
	if len(positions) == 0 {
		fmt.Fprintln(c.app.out(), "No open positions.")
		return subcommands.ExitSuccess
	}

	c.app.printPositions(positions)
	return subcommands.ExitSuccess
}

func (a *App) printPositions(positions []*models.OpenPosition) {
	w := tabwriter.NewWriter(a.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTicker\tShares\tBuy price\tBreak-even")
	for _, p := range positions {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", p.ID, p.Ticker, p.Shares, a.money(p.BuyPrice), a.money(p.BreakEvenPrice))
	}
	w.Flush()
}

type sellCmd struct {
	app    *App
	id     int
	shares int
	price  decimalFlag
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell some or all shares of a position" }
func (*sellCmd) Usage() string {
	return `sell -id <position> -n <shares> -p <price>

  Records a sale in the history. Selling every share closes the position;
  selling fewer reduces it.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.id, "id", 0, "Position id")
	f.IntVar(&c.shares, "n", 0, "Number of shares to sell")
	f.Var(&c.price, "p", "Sell price per share")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 || !c.price.set {
		f.Usage()
		return subcommands.ExitUsageError
	}

	record, err := c.app.Ledger.Sell(ctx, c.id, c.shares, c.price.value)
	if err != nil {
		return c.app.fail("could not sell position #%d: %v", c.id, err)
	}

	fmt.Fprintf(c.app.out(), "Sold %d %s @ %s, realized %s\n",
		record.SharesSold, record.Ticker, c.app.money(record.SellPrice), c.app.money(record.ProfitLoss))

	if position, err := c.app.Ledger.GetPosition(ctx, c.id); err == nil {
		fmt.Fprintf(c.app.out(), "%d shares remain in position #%d\n", position.Shares, position.ID)
	} else {
		fmt.Fprintf(c.app.out(), "Position #%d closed\n", c.id)
	}
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	app *App
	id  int
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "remove a position without recording a sale" }
func (*deleteCmd) Usage() string {
	return "delete -id <position>\n\n  Removes an open position. No history record is written.\n"
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.id, "id", 0, "Position id")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	if err := c.app.Ledger.DeletePosition(ctx, c.id); err != nil {
		return c.app.fail("could not delete position #%d: %v", c.id, err)
	}

	fmt.Fprintf(c.app.out(), "Deleted position #%d\n", c.id)
	return subcommands.ExitSuccess
}
